// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/shopfront/internal/app"
)

func newNewsletterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsletter",
		Short: "Newsletter links",
	}

	link := &cobra.Command{
		Use:   "link <username>",
		Short: "Issue an unsubscribe link (or a confirm link for an existing subscription)",
		Args:  cobra.ExactArgs(1),
		RunE:  runNewsletterLink,
	}
	link.Flags().Bool("confirm", false, "Issue a confirm_email link instead")

	cmd.AddCommand(link)
	return cmd
}

func runNewsletterLink(cmd *cobra.Command, args []string) error {
	confirm, _ := cmd.Flags().GetBool("confirm")

	return withApp(cmd, func(context context.Context, application *app.App) error {
		user, err := application.Accounts.FindByUsername(context, args[0])
		if err != nil {
			return describe(err)
		}

		issue := application.Newsletter.UnsubscribeLink
		if confirm {
			issue = application.Newsletter.ConfirmLink
		}

		link, err := issue(context, user.ID)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	})
}
