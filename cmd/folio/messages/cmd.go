// Package messagescmd implements `folio messages`.
package messagescmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"folio/api/cmd/folio/shared"
	"folio/api/internal/client"
	"folio/api/internal/collections"
	"folio/api/internal/email"
	"folio/api/internal/logging"
	"folio/api/internal/notify"
	"folio/api/internal/portfolio"
)

type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "messages",
		Short: "Contact form messages",
		RunE:  c.runList,
	}
	c.cmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List messages, newest first", RunE: c.runList},
		c.submit(),
		&cobra.Command{
			Use:   "reply <id>",
			Short: "Mark a message as replied",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runReply,
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete a message",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runRemove,
		},
	)
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) messages() (*collections.Messages, error) {
	store, err := c.ctx.Store()
	if err != nil {
		return nil, err
	}
	return collections.NewMessages(store), nil
}

func (c *Command) runList(cmd *cobra.Command, _ []string) error {
	messages, err := c.messages()
	if err != nil {
		return err
	}
	items, err := messages.List(cmd.Context())
	if err != nil {
		return err
	}
	if c.ctx.JSON {
		return shared.PrintJSON(cmd.OutOrStdout(), items)
	}
	t := c.ctx.NewTable("ID", "Date", "From", "Subject", "Status", "Message")
	t.Wrap(6, 50)
	for _, m := range items {
		t.Row(m.ID, m.Date, fmt.Sprintf("%s <%s>", m.Name, m.Email), m.Subject, m.Status, shared.Truncate(m.Message, 120))
	}
	t.Render(cmd.OutOrStdout())
	return nil
}

func (c *Command) submit() *cobra.Command {
	var (
		in      portfolio.ContactMessage
		method  string
		offline bool
		mirror  bool
	)
	cmd := &cobra.Command{
		Use:   "submit <message>",
		Short: "Submit the contact form",
		Long: "Stores the message locally, records an SMS alert when enabled and asks the\n" +
			"API to email the owner. Email failures are reported but the message is kept.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.ctx.Config()
			if err != nil {
				return err
			}
			store, err := c.ctx.Store()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			in.Message = args[0]
			in.ContactMethod = portfolio.ContactMethod(method)

			messages := collections.NewMessages(store)
			msg, err := messages.Submit(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved message %d\n", msg.ID)

			notifier := notify.NewNotifier(collections.NewSettings(store), collections.NewSMS(store), cfg.OwnerEmail)
			if sms, created, err := notifier.OnContactSubmitted(ctx, msg); err != nil {
				return err
			} else if created {
				fmt.Fprintf(out, "SMS alert sent to %s [%s]\n", sms.To, sms.Category)
			}

			if offline {
				return nil
			}
			api, err := c.ctx.Client()
			if err != nil {
				return err
			}
			res, err := api.SendEmail(ctx, email.ContactRequest{
				Name:          msg.Name,
				Email:         msg.Email,
				Phone:         msg.Phone,
				Subject:       msg.Subject,
				Message:       msg.Message,
				ContactMethod: msg.ContactMethod,
			})
			if err != nil {
				logging.New("cli").Warn("email delivery failed", "error", err)
				fmt.Fprintf(out, "Email not sent: %v\n", err)
			} else {
				fmt.Fprintln(out, res.Message)
				_, err := messages.Update(ctx, msg.ID, func(m *portfolio.ContactMessage) error {
					m.EmailSent = true
					m.EmailTimestamp = res.Timestamp
					if m.EmailTimestamp == "" {
						m.EmailTimestamp = time.Now().UTC().Format(time.RFC3339)
					}
					return nil
				})
				if err != nil {
					return err
				}
			}

			if mirror {
				remote, err := api.CreateContact(ctx, msg)
				switch {
				case errors.Is(err, client.ErrRemoteUnavailable):
					fmt.Fprintln(out, "Remote mirror unavailable, message kept locally")
				case err != nil:
					return err
				default:
					fmt.Fprintf(out, "Mirrored as %s\n", remote.RemoteID)
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "Sender name (required)")
	f.StringVar(&in.Email, "email", "", "Sender email (required)")
	f.StringVar(&in.Phone, "phone", "", "Sender phone")
	f.StringVar(&in.Subject, "subject", "", "Subject")
	f.StringVar(&method, "method", string(portfolio.MethodEmail), "Preferred contact method: email | sms | call")
	f.BoolVar(&offline, "offline", false, "Do not contact the API")
	f.BoolVar(&mirror, "mirror", false, "Also store the message on the remote mirror")
	return cmd
}

func (c *Command) runReply(cmd *cobra.Command, args []string) error {
	id, err := shared.ParseID(args[0])
	if err != nil {
		return err
	}
	messages, err := c.messages()
	if err != nil {
		return err
	}
	m, err := messages.SetStatus(cmd.Context(), id, portfolio.ContactReplied)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Marked message from %s as replied\n", m.Name)
	return nil
}

func (c *Command) runRemove(cmd *cobra.Command, args []string) error {
	id, err := shared.ParseID(args[0])
	if err != nil {
		return err
	}
	messages, err := c.messages()
	if err != nil {
		return err
	}
	if _, err := messages.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted message %d\n", id)
	return nil
}
