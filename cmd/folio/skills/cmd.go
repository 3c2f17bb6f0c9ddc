// Package skillscmd implements `folio skills`.
package skillscmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"folio/api/cmd/folio/shared"
	"folio/api/internal/collections"
)

type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "skills",
		Short: "Manage skills and proficiency",
		RunE:  c.runList,
	}
	c.cmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List skills", RunE: c.runList},
		&cobra.Command{
			Use:   "add <name> <proficiency>",
			Short: "Add a skill with proficiency 0-100",
			Args:  cobra.ExactArgs(2),
			RunE:  c.runAdd,
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete a skill",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runRemove,
		},
	)
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) skills() (*collections.Skills, error) {
	store, err := c.ctx.Store()
	if err != nil {
		return nil, err
	}
	return collections.NewSkills(store), nil
}

func (c *Command) runList(cmd *cobra.Command, _ []string) error {
	skills, err := c.skills()
	if err != nil {
		return err
	}
	items, err := skills.List(cmd.Context())
	if err != nil {
		return err
	}
	if c.ctx.JSON {
		return shared.PrintJSON(cmd.OutOrStdout(), items)
	}
	t := c.ctx.NewTable("ID", "Skill", "Proficiency")
	t.AlignRight(1, 3)
	for _, s := range items {
		t.Row(s.ID, s.Name, fmt.Sprintf("%d%%", s.Proficiency))
	}
	t.Render(cmd.OutOrStdout())
	return nil
}

func (c *Command) runAdd(cmd *cobra.Command, args []string) error {
	proficiency, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("proficiency must be a number: %w", err)
	}
	skills, err := c.skills()
	if err != nil {
		return err
	}
	s, err := skills.Add(cmd.Context(), args[0], proficiency)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added skill %d: %s (%d%%)\n", s.ID, s.Name, s.Proficiency)
	return nil
}

func (c *Command) runRemove(cmd *cobra.Command, args []string) error {
	id, err := shared.ParseID(args[0])
	if err != nil {
		return err
	}
	skills, err := c.skills()
	if err != nil {
		return err
	}
	if _, err := skills.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted skill %d\n", id)
	return nil
}
