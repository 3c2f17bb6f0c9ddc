package shared

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Table collects rows and renders them as a light box table or Markdown.
type Table struct {
	w        table.Writer
	columns  []table.ColumnConfig
	markdown bool
}

func (c *Context) NewTable(header ...any) *Table {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row(header))
	return &Table{w: w, markdown: c.Markdown}
}

func (t *Table) Row(vals ...any) {
	t.w.AppendRow(table.Row(vals))
}

// Wrap caps column n (1-based) at width characters.
func (t *Table) Wrap(n, width int) {
	t.columns = append(t.columns, table.ColumnConfig{Number: n, WidthMax: width})
}

// AlignRight right-aligns the numeric columns.
func (t *Table) AlignRight(cols ...int) {
	for _, n := range cols {
		t.columns = append(t.columns, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
}

func (t *Table) Render(out io.Writer) {
	t.w.SetColumnConfigs(t.columns)
	if t.markdown {
		fmt.Fprintln(out, t.w.RenderMarkdown())
		return
	}
	fmt.Fprintln(out, t.w.Render())
}

// PrintJSON writes v indented.
func PrintJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate shortens s to n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// ParseID reads a record ID argument.
func ParseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
