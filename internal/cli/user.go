// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taibuivan/shopfront/internal/app"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an account; the password is read from the first line of stdin",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserCreate,
	}
	create.Flags().Bool("admin", false, "Grant the admin role")

	setRole := &cobra.Command{
		Use:   "set-role <username> <regular|admin>",
		Short: "Change the role of an account and end its sessions",
		Args:  cobra.ExactArgs(2),
		RunE:  runUserSetRole,
	}

	cmd.AddCommand(create, setRole)
	return cmd
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	admin, _ := cmd.Flags().GetBool("admin")
	role := sec.RoleRegular
	if admin {
		role = sec.RoleAdmin
	}

	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	return withApp(cmd, func(context context.Context, application *app.App) error {
		user, err := application.Accounts.CreateUser(context, args[0], password, role)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", user.Username, user.Role, user.ID)
		return nil
	})
}

func runUserSetRole(cmd *cobra.Command, args []string) error {
	role, ok := sec.ParseRole(args[1])
	if !ok {
		return exitError(2, "unknown role %q", args[1])
	}

	return withApp(cmd, func(context context.Context, application *app.App) error {
		user, err := application.Accounts.SetRole(context, args[0], role)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Username, user.Role)
		return nil
	})
}

// readPassword takes the first line of stdin so secrets stay out of argv.
func readPassword(cmd *cobra.Command) (string, error) {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", exitError(2, "password expected on stdin")
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}
