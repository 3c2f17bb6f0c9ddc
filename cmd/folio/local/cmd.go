// Package localcmd implements the `folio local` command group: raw access
// to the local key/value store.
package localcmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"folio/api/cmd/folio/shared"
)

type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "local",
		Short: "Inspect and edit the local store",
	}
	c.cmd.AddCommand(c.keys(), c.get(), c.set(), c.rm())
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) keys() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List stored keys with their sizes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.ctx.Store()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			keys, err := store.Keys(ctx)
			if err != nil {
				return err
			}
			t := c.ctx.NewTable("Key", "Bytes")
			t.AlignRight(2)
			for _, key := range keys {
				raw, _, err := store.Get(ctx, key)
				if err != nil {
					return err
				}
				t.Row(key, len(raw))
			}
			used, err := store.Size(ctx)
			if err != nil {
				return err
			}
			t.Render(cmd.OutOrStdout())
			if quota := store.Quota(); quota > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d bytes used\n", used, quota)
			}
			return nil
		},
	}
}

func (c *Command) get() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the JSON stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.ctx.Store()
			if err != nil {
				return err
			}
			raw, ok, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %q is not set", args[0])
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), buf.String())
			return nil
		},
	}
}

func (c *Command) set() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <json|->",
		Short: "Replace the value under key; - reads it from stdin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := []byte(args[1])
			if args[1] == "-" {
				var err error
				if value, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			store, err := c.ctx.Store()
			if err != nil {
				return err
			}
			if err := store.Set(cmd.Context(), args[0], bytes.TrimSpace(value)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s (%d bytes)\n", args[0], len(value))
			return nil
		},
	}
}

func (c *Command) rm() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "rm <key>...",
		Short: "Remove keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.ctx.Store()
			if err != nil {
				return err
			}
			keys := args
			if all {
				if keys, err = store.Keys(cmd.Context()); err != nil {
					return err
				}
			}
			if len(keys) == 0 {
				return fmt.Errorf("no keys given")
			}
			if err := store.Remove(cmd.Context(), keys...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d key(s)\n", len(keys))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Remove every key")
	return cmd
}
