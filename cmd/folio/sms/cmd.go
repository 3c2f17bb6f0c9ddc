// Package smscmd implements `folio sms`: the simulated SMS notification log
// and its settings.
package smscmd

import (
	"fmt"
	"strings"

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
		Use:   "sms",
		Short: "SMS notifications",
	}
	c.cmd.AddCommand(
		c.list(),
		&cobra.Command{Use: "categories", Short: "List categories", RunE: c.runCategories},
		&cobra.Command{
			Use:   "add-category <name>",
			Short: "Add a category",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runAddCategory,
		},
		&cobra.Command{
			Use:   "rm-category <name>",
			Short: "Remove a category and clear it from notifications",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runRemoveCategory,
		},
		&cobra.Command{Use: "test", Short: "Record a test message to the configured number", RunE: c.runTest},
		&cobra.Command{Use: "clear", Short: "Delete every notification", RunE: c.runClear},
		c.settings(),
	)
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) sms() (*collections.SMS, *collections.Settings, error) {
	store, err := c.ctx.Store()
	if err != nil {
		return nil, nil, err
	}
	return collections.NewSMS(store), collections.NewSettings(store), nil
}

func (c *Command) list() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sms, _, err := c.sms()
			if err != nil {
				return err
			}
			items, err := sms.List(cmd.Context())
			if err != nil {
				return err
			}
			items = collections.ByCategory(items, category)
			if c.ctx.JSON {
				return shared.PrintJSON(cmd.OutOrStdout(), items)
			}
			t := c.ctx.NewTable("ID", "Time", "To", "Category", "Priority", "Status", "Message")
			t.Wrap(7, 60)
			for _, n := range items {
				t.Row(n.ID, n.Timestamp, n.To, n.Category, n.Priority, n.Status, n.Message)
			}
			t.Render(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "all", "Category filter; uncategorized selects records without one")
	return cmd
}

func (c *Command) runCategories(cmd *cobra.Command, _ []string) error {
	sms, _, err := c.sms()
	if err != nil {
		return err
	}
	cats, err := sms.Categories(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(cats, "\n"))
	return nil
}

func (c *Command) runAddCategory(cmd *cobra.Command, args []string) error {
	sms, _, err := c.sms()
	if err != nil {
		return err
	}
	cats, err := sms.AddCategory(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Categories: %s\n", strings.Join(cats, ", "))
	return nil
}

func (c *Command) runRemoveCategory(cmd *cobra.Command, args []string) error {
	sms, _, err := c.sms()
	if err != nil {
		return err
	}
	cats, err := sms.RemoveCategory(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Categories: %s\n", strings.Join(cats, ", "))
	return nil
}

func (c *Command) runTest(cmd *cobra.Command, _ []string) error {
	sms, settings, err := c.sms()
	if err != nil {
		return err
	}
	ns, err := settings.NotificationSettings(cmd.Context())
	if err != nil {
		return err
	}
	n, err := sms.SendTest(cmd.Context(), ns.MobileNumber)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Test SMS %d recorded for %s\n", n.ID, n.To)
	return nil
}

func (c *Command) runClear(cmd *cobra.Command, _ []string) error {
	sms, _, err := c.sms()
	if err != nil {
		return err
	}
	if err := sms.ClearAll(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All notifications cleared")
	return nil
}

func (c *Command) settings() *cobra.Command {
	var (
		mobile     string
		smsOn      bool
		emailOn    bool
		hasChanges bool
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change notification settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, settings, err := c.sms()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ns, err := settings.NotificationSettings(ctx)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("mobile") {
				ns.MobileNumber, hasChanges = mobile, true
			}
			if f.Changed("sms") {
				ns.SMSNotifications, hasChanges = smsOn, true
			}
			if f.Changed("email") {
				ns.EmailNotifications, hasChanges = emailOn, true
			}
			if hasChanges {
				if err := settings.SaveNotificationSettings(ctx, ns); err != nil {
					return err
				}
			}
			if c.ctx.JSON {
				return shared.PrintJSON(cmd.OutOrStdout(), ns)
			}
			t := c.ctx.NewTable("Setting", "Value")
			t.Row("Mobile number", ns.MobileNumber)
			t.Row("SMS notifications", ns.SMSNotifications)
			t.Row("Email notifications", ns.EmailNotifications)
			t.Render(cmd.OutOrStdout())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&mobile, "mobile", "", "Mobile number for alerts")
	f.BoolVar(&smsOn, "sms", false, "Enable SMS alerts")
	f.BoolVar(&emailOn, "email", true, "Enable email notifications")
	return cmd
}
