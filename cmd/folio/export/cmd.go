// Package exportcmd implements `folio export`: JSON backups of the local
// store and rendered portfolio documents.
package exportcmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"folio/api/cmd/folio/shared"
	"folio/api/internal/collections"
	"folio/api/internal/export"
	"folio/api/internal/portfolio"
	"folio/api/internal/profile"
)

type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "export",
		Short: "Back up or render the portfolio",
	}
	c.cmd.AddCommand(c.json(), c.restore(), c.document())
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) json() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Write every stored key to a JSON backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.ctx.Store()
			if err != nil {
				return err
			}
			snap, err := export.Take(cmd.Context(), store, portfolio.AllKeys, time.Now())
			if err != nil {
				return err
			}
			w, done, err := openOutput(cmd.OutOrStdout(), output)
			if err != nil {
				return err
			}
			if _, err := snap.WriteTo(w); err != nil {
				_ = done()
				return err
			}
			if err := done(); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d keys to %s\n", len(snap.Entries), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default stdout)")
	return cmd
}

func (c *Command) restore() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file|->",
		Short: "Load a JSON backup into the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.ctx.Store()
			if err != nil {
				return err
			}
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			snap, err := export.ReadSnapshot(r)
			if err != nil {
				return err
			}
			n, err := export.Restore(cmd.Context(), store, snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d keys\n", n)
			return nil
		},
	}
}

func (c *Command) document() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Render the portfolio as PDF, or DOCX or HTML with --format",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			p, err := c.portfolio(cmd)
			if err != nil {
				return err
			}
			res, err := export.NewService().Export(cmd.Context(), p, f)
			if err != nil {
				return err
			}
			if output == "" {
				output = res.Filename
			}
			if err := os.WriteFile(output, res.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %d bytes)\n", output, res.MimeType, len(res.Data))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pdf", "pdf | docx | html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default derived from the profile name)")
	return cmd
}

func (c *Command) portfolio(cmd *cobra.Command) (export.Portfolio, error) {
	var p export.Portfolio
	store, err := c.ctx.Store()
	if err != nil {
		return p, err
	}
	ctx := cmd.Context()
	st := profile.New(store)
	if err := st.Hydrate(ctx); err != nil {
		return p, err
	}
	p.Profile = st.Profile()
	if p.Projects, err = collections.NewProjects(store).List(ctx); err != nil {
		return p, err
	}
	if p.Skills, err = collections.NewSkills(store).List(ctx); err != nil {
		return p, err
	}
	if p.Activities, err = collections.NewActivities(store).List(ctx); err != nil {
		return p, err
	}
	return p, nil
}

func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
