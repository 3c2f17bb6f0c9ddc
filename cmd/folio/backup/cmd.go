// Package backupcmd implements `folio backup`: git-versioned snapshots of
// the local store.
package backupcmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"folio/api/cmd/folio/shared"
	"folio/api/internal/backup"
	"folio/api/internal/portfolio"
)

type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "backup",
		Short: "Versioned snapshots of the local store",
	}
	c.cmd.AddCommand(
		c.snapshot(),
		c.history(),
		&cobra.Command{
			Use:   "restore <rev>",
			Short: "Write the keys recorded at a commit or tag back to the store",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runRestore,
		},
	)
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) repo() (*backup.Repo, error) {
	cfg, err := c.ctx.Config()
	if err != nil {
		return nil, err
	}
	return backup.Open(cfg.BackupDir)
}

func (c *Command) author() string {
	tokens, err := c.ctx.LoadTokens()
	if err != nil || tokens.UserName == "" {
		return "folio"
	}
	return tokens.UserName
}

func (c *Command) snapshot() *cobra.Command {
	var message, tag string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Commit the current local store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.ctx.Store()
			if err != nil {
				return err
			}
			repo, err := c.repo()
			if err != nil {
				return err
			}
			commit, err := repo.Snapshot(cmd.Context(), store, portfolio.AllKeys, c.author(), message)
			if errors.Is(err, backup.ErrNoChanges) {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes since the last snapshot")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", commit.Short(), commit.Message)
			if tag != "" {
				if err := repo.Tag(tag, commit.Hash); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tagged %s\n", tag)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag the new snapshot")
	return cmd
}

func (c *Command) history() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			commits, err := repo.History(limit)
			if err != nil {
				return err
			}
			if c.ctx.JSON {
				return shared.PrintJSON(cmd.OutOrStdout(), commits)
			}
			t := c.ctx.NewTable("Commit", "When", "Author", "Message")
			for _, cm := range commits {
				t.Row(cm.Short(), cm.When.Local().Format("2006-01-02 15:04"), cm.Author, cm.Message)
			}
			t.Render(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum commits to show; 0 for all")
	return cmd
}

func (c *Command) runRestore(cmd *cobra.Command, args []string) error {
	store, err := c.ctx.Store()
	if err != nil {
		return err
	}
	repo, err := c.repo()
	if err != nil {
		return err
	}
	n, err := repo.Restore(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %d keys from %s\n", n, args[0])
	return nil
}
