// Package authcmd implements `folio login` and `folio logout`.
package authcmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"folio/api/cmd/folio/shared"
	"folio/api/internal/collections"
	"folio/api/internal/logging"
	"folio/api/internal/portfolio"
)

// NewLogin returns the login command. The password is read from stdin
// unless --password is given.
func NewLogin(state *shared.Context) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in as the portfolio owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			api, err := state.Client()
			if err != nil {
				return err
			}
			tokens, err := api.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			if err := state.SaveTokens(tokens); err != nil {
				return err
			}
			store, err := state.Store()
			if err != nil {
				return err
			}
			admin := portfolio.AdminUser{Email: tokens.Email, Name: tokens.UserName}
			if err := collections.NewSettings(store).SaveAdminUser(cmd.Context(), admin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", admin.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (read from stdin when empty)")
	return cmd
}

// NewLogout returns the logout command. The local session is cleared even
// when the API cannot be reached.
func NewLogout(state *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := state.LoadTokens()
			if errors.Is(err, shared.ErrNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}
			if api, err := state.Client(); err == nil {
				if err := api.Logout(cmd.Context(), tokens.RefreshToken); err != nil {
					logging.New("cli").Warn("remote logout failed", "error", err)
				}
			}
			if err := state.ClearTokens(); err != nil {
				return err
			}
			store, err := state.Store()
			if err != nil {
				return err
			}
			if err := collections.NewSettings(store).ClearAdminUser(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
