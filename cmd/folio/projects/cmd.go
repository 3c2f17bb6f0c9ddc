// Package projectscmd implements `folio projects`.
package projectscmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"folio/api/cmd/folio/shared"
	"folio/api/internal/collections"
	"folio/api/internal/github"
	"folio/api/internal/portfolio"
)

type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage portfolio projects",
		RunE:    c.runList,
	}
	c.cmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List projects", RunE: c.runList},
		c.add(),
		c.status(),
		c.rm(),
		c.importGitHub(),
	)
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) projects() (*collections.Projects, error) {
	store, err := c.ctx.Store()
	if err != nil {
		return nil, err
	}
	return collections.NewProjects(store), nil
}

func (c *Command) runList(cmd *cobra.Command, _ []string) error {
	projects, err := c.projects()
	if err != nil {
		return err
	}
	items, err := projects.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if c.ctx.JSON {
		return shared.PrintJSON(out, items)
	}
	t := c.ctx.NewTable("ID", "Title", "Status", "Tags", "GitHub")
	for _, p := range items {
		t.Row(p.ID, shared.Truncate(p.Title, 40), p.Status, strings.Join(p.Tags, ", "), p.Links.GitHub)
	}
	t.Render(out)
	return nil
}

func (c *Command) add() *cobra.Command {
	var (
		in     portfolio.Project
		tags   string
		status string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if status != "" {
				s, err := portfolio.ParseProjectStatus(status)
				if err != nil {
					return err
				}
				in.Status = s
			}
			in.Tags = portfolio.SplitTags(tags)
			projects, err := c.projects()
			if err != nil {
				return err
			}
			p, err := projects.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added project %d: %s\n", p.ID, p.Title)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "Project title (required)")
	f.StringVar(&in.Description, "description", "", "Short description (required)")
	f.StringVar(&in.FullDescription, "full-description", "", "Long description")
	f.StringVar(&tags, "tags", "", "Comma-separated tags")
	f.StringVar(&in.Image, "image", "", "Card image URL")
	f.StringVar(&status, "status", "", "In Development | Completed | Live | Published")
	f.StringVar(&in.Links.GitHub, "github", "", "Repository URL")
	f.StringVar(&in.Links.Demo, "demo", "", "Demo URL")
	f.StringVar(&in.Links.Live, "live", "", "Live site URL")
	return cmd
}

func (c *Command) status() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a project's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shared.ParseID(args[0])
			if err != nil {
				return err
			}
			status, err := portfolio.ParseProjectStatus(args[1])
			if err != nil {
				return err
			}
			projects, err := c.projects()
			if err != nil {
				return err
			}
			p, err := projects.SetStatus(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", p.Title, p.Status)
			return nil
		},
	}
}

func (c *Command) rm() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shared.ParseID(args[0])
			if err != nil {
				return err
			}
			projects, err := c.projects()
			if err != nil {
				return err
			}
			removed, err := projects.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "No project with id %d\n", id)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %d\n", id)
			return nil
		},
	}
}

func (c *Command) importGitHub() *cobra.Command {
	var (
		user  string
		token string
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "import-github [repo]...",
		Short: "Add GitHub repositories as live projects",
		Long: "Lists the 20 most recently updated repositories of the configured GitHub\n" +
			"account and adds the named ones (or all with --all). Repositories whose\n" +
			"title already exists are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("name at least one repository or pass --all")
			}
			cfg, err := c.ctx.Config()
			if err != nil {
				return err
			}
			store, err := c.ctx.Store()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			gs, err := collections.NewSettings(store).GitSettings(ctx)
			if err != nil {
				return err
			}
			if user == "" {
				user = gs.Username
			}
			if token == "" {
				token = gs.AccessToken
			}

			repos, err := github.NewClient(cfg.GitHubAPIURL, nil).ListRepos(ctx, user, token)
			if err != nil {
				return err
			}
			wanted := map[string]bool{}
			for _, name := range args {
				wanted[strings.ToLower(name)] = true
			}

			projects := collections.NewProjects(store)
			existing, err := projects.List(ctx)
			if err != nil {
				return err
			}
			titles := map[string]bool{}
			for _, p := range existing {
				titles[strings.ToLower(p.Title)] = true
			}

			out := cmd.OutOrStdout()
			added := 0
			for _, repo := range repos {
				if !all && !wanted[strings.ToLower(repo.Name)] {
					continue
				}
				delete(wanted, strings.ToLower(repo.Name))
				candidate := github.ProjectFromRepo(repo)
				if titles[strings.ToLower(candidate.Title)] {
					fmt.Fprintf(out, "Skipped %s: already in portfolio\n", repo.Name)
					continue
				}
				p, err := projects.Add(ctx, candidate)
				if err != nil {
					return fmt.Errorf("add %s: %w", repo.Name, err)
				}
				titles[strings.ToLower(p.Title)] = true
				added++
				fmt.Fprintf(out, "Added %s as project %d\n", repo.Name, p.ID)
			}
			for name := range wanted {
				fmt.Fprintf(out, "Not found among recent repositories: %s\n", name)
			}
			fmt.Fprintf(out, "%d project(s) added\n", added)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&user, "user", "", "GitHub username (default: saved git settings)")
	f.StringVar(&token, "token", "", "Personal access token (default: saved git settings)")
	f.BoolVar(&all, "all", false, "Import every listed repository")
	return cmd
}
