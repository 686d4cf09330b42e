package main

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/mafunzo/core/user"
)

func newAddUserCommand(ctx *commandContext) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "adduser NAME EMAIL",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.userService()
			if err != nil {
				return err
			}

			pwd, err := promptPassword("Password (leave empty to email a set-password link): ")
			if err != nil {
				return err
			}

			nu := user.NewUser{
				Name:            args[0],
				Email:           args[1],
				Role:            role,
				Password:        pwd,
				PasswordConfirm: pwd,
			}
			usr, err := svc.Create(cmd.Context(), nu)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s <%s> (%s)\n", usr.Name, usr.Email, usr.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", user.RoleUser, "user role (user|admin)")
	return cmd
}

func newListUsersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listusers",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.userService()
			if err != nil {
				return err
			}

			users, err := svc.Query(cmd.Context(), nil, nil)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(users))
			for _, usr := range users {
				active := "yes"
				if usr.IsActive != nil && !*usr.IsActive {
					active = "no"
				}
				lastLogin := "-"
				if !usr.LastLogin.IsZero() {
					lastLogin = usr.LastLogin.Format(time.RFC3339)
				}
				rows = append(rows, []string{usr.ID, usr.Name, usr.Email, usr.Role, active, lastLogin})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Email", "Role", "Active", "Last login"},
				rows,
			))
			return nil
		},
	}
}

func newResetPasswordCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resetpassword EMAIL",
		Short: "Email a password reset link to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.userService()
			if err != nil {
				return err
			}
			if err := svc.RequestPasswordReset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password reset link sent to %s\n", args[0])
			return nil
		},
	}
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pwd, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
