package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"spendtrack/internal/apiclient"
	"spendtrack/internal/core"
)

func (a *App) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the credential",
		Long: `Sign in to the expenses API. The returned credential is stored in a
file readable only by the current user and used by the other commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				email = a.prompt("Email")
			}
			if password == "" {
				password = a.prompt("Password")
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			token, err := client.Login(cmd.Context(), core.Credentials{Email: email, Password: password})
			if err != nil {
				var ae *apiclient.AuthError
				if errors.As(err, &ae) && ae.ServerMessage != "" {
					return errors.New(ae.ServerMessage)
				}
				return err
			}

			st, err := a.store()
			if err != nil {
				return err
			}
			if err := st.Save(token); err != nil {
				return err
			}
			fmt.Fprintln(a.out, FormatSuccess("Login successful!"))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.store()
			if err != nil {
				return err
			}
			if err := st.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, FormatSuccess("Logged out successfully"))
			return nil
		},
	}
}
