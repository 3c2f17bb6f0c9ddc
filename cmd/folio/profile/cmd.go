// Package profilecmd implements `folio profile`.
package profilecmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"folio/api/cmd/folio/shared"
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
		Use:   "profile",
		Short: "Show or edit the profile",
		RunE:  c.runShow,
	}
	c.cmd.AddCommand(
		&cobra.Command{Use: "show", Short: "Show the profile", RunE: c.runShow},
		c.set(),
		c.contact(),
		c.skills(),
	)
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) state(cmd *cobra.Command) (*profile.State, error) {
	store, err := c.ctx.Store()
	if err != nil {
		return nil, err
	}
	st := profile.New(store)
	if err := st.Hydrate(cmd.Context()); err != nil {
		return nil, err
	}
	return st, nil
}

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	st, err := c.state(cmd)
	if err != nil {
		return err
	}
	return c.print(cmd.OutOrStdout(), st.Profile())
}

func (c *Command) print(out io.Writer, p portfolio.Profile) error {
	if c.ctx.JSON {
		return shared.PrintJSON(out, p)
	}
	t := c.ctx.NewTable("Field", "Value")
	t.Wrap(2, 80)
	t.Row("Name", p.Name)
	t.Row("Tagline", p.Tagline)
	t.Row("Bio", p.Bio)
	t.Row("Experience", p.Experience)
	t.Row("Availability", p.Availability)
	t.Row("Skills", strings.Join(p.Skills, ", "))
	t.Row("Email", p.ContactInfo.Email)
	t.Row("Phone", p.ContactInfo.Phone)
	t.Row("Location", p.ContactInfo.Location)
	t.Row("LinkedIn", p.ContactInfo.LinkedIn)
	t.Row("GitHub", p.ContactInfo.GitHub)
	t.Row("Image", p.ProfileImage)
	t.Row("Logo", p.LogoText)
	t.Row("Resume", p.ResumeURL)
	t.Render(out)
	return nil
}

// changed returns a pointer to the flag's value when it was given.
func changed(flags *pflag.FlagSet, name string) *string {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetString(name)
	return &v
}

func (c *Command) set() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update personal information; only given flags change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.state(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if reset {
				p, err := st.Reset(ctx)
				if err != nil {
					return err
				}
				return c.print(cmd.OutOrStdout(), p)
			}
			f := cmd.Flags()
			p, err := st.UpdatePersonalInfo(ctx, portfolio.ProfilePatch{
				Name:         changed(f, "name"),
				Tagline:      changed(f, "tagline"),
				Bio:          changed(f, "bio"),
				Experience:   changed(f, "experience"),
				Availability: changed(f, "availability"),
			})
			if err != nil {
				return err
			}
			if v := changed(f, "image"); v != nil {
				if p, err = st.UpdateProfileImage(ctx, *v); err != nil {
					return err
				}
			}
			if v := changed(f, "logo"); v != nil {
				if p, err = st.UpdateLogoText(ctx, *v); err != nil {
					return err
				}
			}
			if v := changed(f, "resume"); v != nil {
				if p, err = st.UpdateResumeURL(ctx, *v); err != nil {
					return err
				}
			}
			return c.print(cmd.OutOrStdout(), p)
		},
	}
	f := cmd.Flags()
	for _, name := range []string{"name", "tagline", "bio", "experience", "availability", "image", "logo", "resume"} {
		f.String(name, "", "New "+name)
	}
	f.BoolVar(&reset, "reset", false, "Restore the default profile")
	return cmd
}

func (c *Command) contact() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Update contact information; only given flags change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.state(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			p, err := st.UpdateContactInfo(cmd.Context(), portfolio.ContactInfoPatch{
				Email:    changed(f, "email"),
				Phone:    changed(f, "phone"),
				Location: changed(f, "location"),
				LinkedIn: changed(f, "linkedin"),
				GitHub:   changed(f, "github"),
				Website:  changed(f, "website"),
				Twitter:  changed(f, "twitter"),
			})
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), p)
		},
	}
	for _, name := range []string{"email", "phone", "location", "linkedin", "github", "website", "twitter"} {
		cmd.Flags().String(name, "", "New "+name)
	}
	return cmd
}

func (c *Command) skills() *cobra.Command {
	return &cobra.Command{
		Use:   "skills <skill,skill,...>",
		Short: "Replace the profile's skill list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.state(cmd)
			if err != nil {
				return err
			}
			p, err := st.UpdateSkills(cmd.Context(), portfolio.SplitTags(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Skills: %s\n", strings.Join(p.Skills, ", "))
			return nil
		},
	}
}
