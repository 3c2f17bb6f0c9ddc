// Package activitiescmd implements `folio activities`.
package activitiescmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"folio/api/cmd/folio/shared"
	"folio/api/internal/collections"
	"folio/api/internal/portfolio"
)

type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "activities",
		Short: "Manage the activity timeline",
		RunE:  c.runList,
	}
	c.cmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List activities", RunE: c.runList},
		c.add(),
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete an activity",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runRemove,
		},
	)
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) activities() (*collections.Activities, error) {
	store, err := c.ctx.Store()
	if err != nil {
		return nil, err
	}
	return collections.NewActivities(store), nil
}

func (c *Command) runList(cmd *cobra.Command, _ []string) error {
	activities, err := c.activities()
	if err != nil {
		return err
	}
	items, err := activities.List(cmd.Context())
	if err != nil {
		return err
	}
	if c.ctx.JSON {
		return shared.PrintJSON(cmd.OutOrStdout(), items)
	}
	t := c.ctx.NewTable("ID", "Date", "Type", "Description")
	t.Wrap(4, 70)
	for _, a := range items {
		t.Row(a.ID, a.Date, a.Type, a.Description)
	}
	t.Render(cmd.OutOrStdout())
	return nil
}

func (c *Command) add() *cobra.Command {
	var in portfolio.Activity
	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Record an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Description = args[0]
			if in.Date == "" {
				in.Date = portfolio.Today(time.Now())
			}
			activities, err := c.activities()
			if err != nil {
				return err
			}
			a, err := activities.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity %d on %s\n", a.ID, a.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Date, "date", "", "Date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&in.Type, "type", "", "Achievement, Learning, Speaking, ... (required)")
	return cmd
}

func (c *Command) runRemove(cmd *cobra.Command, args []string) error {
	id, err := shared.ParseID(args[0])
	if err != nil {
		return err
	}
	activities, err := c.activities()
	if err != nil {
		return err
	}
	if _, err := activities.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted activity %d\n", id)
	return nil
}
