// Package statscmd implements `folio stats`: the dashboard counts.
package statscmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"folio/api/cmd/folio/shared"
	"folio/api/internal/analytics"
)

type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "stats",
		Short: "Summarise projects, messages, notifications, skills and activity",
		RunE:  c.run,
	}
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	store, err := c.ctx.Store()
	if err != nil {
		return err
	}
	in, err := analytics.Load(cmd.Context(), store)
	if err != nil {
		return err
	}
	s := analytics.Summarize(in, time.Now())
	out := cmd.OutOrStdout()
	if c.ctx.JSON {
		return shared.PrintJSON(out, s)
	}

	t := c.ctx.NewTable("Area", "Metric", "Value")
	t.AlignRight(3)
	t.Row("Projects", "total", s.Projects.Total)
	for _, k := range sortedKeys(s.Projects.ByStatus) {
		t.Row("", k, s.Projects.ByStatus[k])
	}
	t.Row("Messages", "total", s.Messages.Total)
	t.Row("", "new", s.Messages.New)
	t.Row("", "replied", s.Messages.Replied)
	t.Row("SMS", "total", s.SMS.Total)
	for _, k := range sortedKeys(s.SMS.ByCategory) {
		t.Row("", k, s.SMS.ByCategory[k])
	}
	for _, k := range sortedKeys(s.SMS.ByStatus) {
		t.Row("", k, s.SMS.ByStatus[k])
	}
	t.Row("Skills", "total", s.Skills.Total)
	t.Row("", "average proficiency", fmt.Sprintf("%.1f%%", s.Skills.AverageProficiency))
	t.Row("Activities", "total", s.Activities.Total)
	t.Row("", "last 7 days", s.Activities.Recent)
	t.Render(out)
	return nil
}

func sortedKeys[K ~string](m map[K]int) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
