// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/shopfront/internal/app"
)

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions and action tokens now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(context context.Context, application *app.App) error {
				runner, err := application.Scheduler()
				if err != nil {
					return exitError(2, "%v", err)
				}
				runner.RunAll(context)
				fmt.Fprintln(cmd.OutOrStdout(), "purge complete")
				return nil
			})
		},
	}
}
