// Package gitcmd implements `folio git`: the GitHub connection used by
// project import.
package gitcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"folio/api/cmd/folio/shared"
	"folio/api/internal/collections"
	"folio/api/internal/github"
	"folio/api/internal/portfolio"
)

type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "git",
		Short: "GitHub connection settings",
		RunE:  c.runShow,
	}
	c.cmd.AddCommand(
		&cobra.Command{Use: "show", Short: "Show the saved connection", RunE: c.runShow},
		c.set(),
		&cobra.Command{Use: "repos", Short: "List repositories of the connected account", RunE: c.runRepos},
	)
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) settings() (*collections.Settings, error) {
	store, err := c.ctx.Store()
	if err != nil {
		return nil, err
	}
	return collections.NewSettings(store), nil
}

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	settings, err := c.settings()
	if err != nil {
		return err
	}
	gs, err := settings.GitSettings(cmd.Context())
	if err != nil {
		return err
	}
	gs.AccessToken = mask(gs.AccessToken)
	if c.ctx.JSON {
		return shared.PrintJSON(cmd.OutOrStdout(), gs)
	}
	t := c.ctx.NewTable("Setting", "Value")
	t.Row("Username", gs.Username)
	t.Row("Access token", gs.AccessToken)
	t.Row("Connected", gs.IsConnected)
	t.Render(cmd.OutOrStdout())
	return nil
}

func (c *Command) set() *cobra.Command {
	var (
		user, token string
		noVerify    bool
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save the GitHub username and personal access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.ctx.Config()
			if err != nil {
				return err
			}
			settings, err := c.settings()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			gs, err := settings.GitSettings(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("user") {
				gs.Username = strings.TrimSpace(user)
			}
			if cmd.Flags().Changed("token") {
				gs.AccessToken = strings.TrimSpace(token)
			}
			gs.IsConnected = false
			if !noVerify {
				account, err := github.NewClient(cfg.GitHubAPIURL, nil).ValidateToken(ctx, gs.AccessToken)
				if err != nil {
					return err
				}
				if gs.Username == "" {
					gs.Username = account.Login
				}
				gs.IsConnected = true
				fmt.Fprintf(cmd.OutOrStdout(), "Token belongs to %s\n", account.Login)
			}
			if err := settings.SaveGitSettings(ctx, gs); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "GitHub settings saved")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&user, "user", "", "GitHub username")
	f.StringVar(&token, "token", "", "Personal access token")
	f.BoolVar(&noVerify, "no-verify", false, "Save without checking the token against GitHub")
	return cmd
}

func (c *Command) runRepos(cmd *cobra.Command, _ []string) error {
	cfg, err := c.ctx.Config()
	if err != nil {
		return err
	}
	settings, err := c.settings()
	if err != nil {
		return err
	}
	gs, err := settings.GitSettings(cmd.Context())
	if err != nil {
		return err
	}
	repos, err := github.NewClient(cfg.GitHubAPIURL, nil).ListRepos(cmd.Context(), gs.Username, gs.AccessToken)
	if err != nil {
		return err
	}
	if c.ctx.JSON {
		return shared.PrintJSON(cmd.OutOrStdout(), repos)
	}
	t := c.ctx.NewTable("Name", "Language", "Stars", "Updated", "Description")
	t.AlignRight(3)
	t.Wrap(5, 50)
	for _, r := range repos {
		t.Row(r.Name, r.Language, r.Stars, r.UpdatedAt.Format(portfolio.DateLayout), r.Description)
	}
	t.Render(cmd.OutOrStdout())
	return nil
}

func mask(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
