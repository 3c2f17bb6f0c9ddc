// Package migratecmd implements `folio migrate`: copying the local data
// to the remote mirror.
package migratecmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"folio/api/cmd/folio/shared"
	"folio/api/internal/migrate"
)

type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "migrate",
		Short: "Copy local data to the remote mirror",
	}
	c.cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show what the remote already holds",
			RunE:  c.runStatus,
		},
		&cobra.Command{
			Use:   "run",
			Short: "Send local data; local keys are removed only after a clean run",
			RunE:  c.runMigrate,
		},
	)
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) procedure() (*migrate.Procedure, error) {
	store, err := c.ctx.Store()
	if err != nil {
		return nil, err
	}
	api, err := c.ctx.Client()
	if err != nil {
		return nil, err
	}
	return migrate.New(store, api), nil
}

func (c *Command) runStatus(cmd *cobra.Command, _ []string) error {
	p, err := c.procedure()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	status, err := p.Refresh(ctx)
	if err != nil {
		return err
	}
	local, err := p.LocalData(ctx)
	if err != nil {
		return err
	}
	if c.ctx.JSON {
		return shared.PrintJSON(cmd.OutOrStdout(), map[string]any{
			"state":  p.State(),
			"remote": status,
			"local":  sortedKeys(local),
		})
	}
	t := c.ctx.NewTable("Item", "Value")
	t.Row("State", p.State())
	t.Row("Remote available", status.RemoteAvailable)
	t.Row("Remote profile", status.HasProfile)
	t.Row("Remote projects", status.ProjectsCount)
	t.Row("Remote contacts", status.ContactsCount)
	t.Row("Remote git settings", status.HasGitSettings)
	t.Row("Local keys", strings.Join(sortedKeys(local), ", "))
	t.Render(cmd.OutOrStdout())
	return nil
}

func (c *Command) runMigrate(cmd *cobra.Command, _ []string) error {
	p, err := c.procedure()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	report, err := p.Run(cmd.Context())
	var partial *migrate.PartialError
	switch {
	case errors.Is(err, migrate.ErrNothingToMigrate):
		fmt.Fprintln(out, "Nothing to migrate")
		return nil
	case errors.As(err, &partial):
		for _, e := range partial.Errors {
			fmt.Fprintf(out, "  error: %s\n", e)
		}
		return fmt.Errorf("%d record(s) failed; local data kept, run again to retry", len(partial.Errors))
	case err != nil:
		return err
	}

	res := report.Response.Results
	fmt.Fprintln(out, report.Response.Message)
	t := c.ctx.NewTable("Record", "Stored", "Skipped")
	t.AlignRight(2, 3)
	t.Row("Profile", boolCount(len(res.Profile) > 0 && string(res.Profile) != "null"), "")
	t.Row("Projects", len(res.Projects), res.Skipped.Projects)
	t.Row("Contacts", len(res.Contacts), res.Skipped.Contacts)
	t.Row("Git settings", boolCount(len(res.GitSettings) > 0 && string(res.GitSettings) != "null"), "")
	t.Render(out)
	if report.Cleared {
		fmt.Fprintf(out, "Cleared local keys: %s\n", strings.Join(report.Sent, ", "))
	}
	return nil
}

func boolCount(ok bool) int {
	if ok {
		return 1
	}
	return 0
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
