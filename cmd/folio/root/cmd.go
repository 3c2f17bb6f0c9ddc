// Package rootcmd wires the root cobra.Command for the folio CLI.
package rootcmd

import (
	"github.com/spf13/cobra"

	activitiescmd "folio/api/cmd/folio/activities"
	authcmd "folio/api/cmd/folio/auth"
	backupcmd "folio/api/cmd/folio/backup"
	exportcmd "folio/api/cmd/folio/export"
	gitcmd "folio/api/cmd/folio/git"
	localcmd "folio/api/cmd/folio/local"
	messagescmd "folio/api/cmd/folio/messages"
	migratecmd "folio/api/cmd/folio/migrate"
	profilecmd "folio/api/cmd/folio/profile"
	projectscmd "folio/api/cmd/folio/projects"
	"folio/api/cmd/folio/shared"
	skillscmd "folio/api/cmd/folio/skills"
	smscmd "folio/api/cmd/folio/sms"
	statscmd "folio/api/cmd/folio/stats"
	watchcmd "folio/api/cmd/folio/watch"
)

// New creates the root command. state is shared by every subcommand.
func New(state *shared.Context) *cobra.Command {
	root := &cobra.Command{
		Use:           "folio",
		Short:         "Local-first portfolio manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	f := root.PersistentFlags()
	f.StringVar(&state.ConfigPath, "config", "", "YAML config file (default: $FOLIO_CONFIG)")
	f.StringVar(&state.StorePath, "store", "", "Local store file (default: ~/.folio/local.db)")
	f.StringVar(&state.RemoteURL, "remote", "", "Folio API base URL")
	f.BoolVar(&state.Markdown, "markdown", false, "Render tables as Markdown")
	f.BoolVar(&state.JSON, "json", false, "Print records as JSON")

	root.AddCommand(
		localcmd.New(state).Cmd(),
		profilecmd.New(state).Cmd(),
		projectscmd.New(state).Cmd(),
		skillscmd.New(state).Cmd(),
		activitiescmd.New(state).Cmd(),
		messagescmd.New(state).Cmd(),
		smscmd.New(state).Cmd(),
		gitcmd.New(state).Cmd(),
		authcmd.NewLogin(state),
		authcmd.NewLogout(state),
		migratecmd.New(state).Cmd(),
		exportcmd.New(state).Cmd(),
		backupcmd.New(state).Cmd(),
		watchcmd.New(state).Cmd(),
		statscmd.New(state).Cmd(),
	)
	return root
}
