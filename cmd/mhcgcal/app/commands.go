package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/mhcgcal/cmd/mhcgcal/cmd/auth"
	"github.com/agentstation/mhcgcal/cmd/mhcgcal/cmd/config"
	"github.com/agentstation/mhcgcal/cmd/mhcgcal/cmd/event"
	"github.com/agentstation/mhcgcal/cmd/mhcgcal/cmd/export"
	"github.com/agentstation/mhcgcal/cmd/mhcgcal/cmd/list"
	"github.com/agentstation/mhcgcal/cmd/mhcgcal/cmd/sync"
	"github.com/agentstation/mhcgcal/cmd/mhcgcal/cmd/version"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(sync.NewCommand(a))
	rootCmd.AddCommand(list.NewCommand(a))
	rootCmd.AddCommand(event.NewCommand(a))
	rootCmd.AddCommand(export.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(config.NewCommand(a))
	rootCmd.AddCommand(auth.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(version.NewCommand(a))
}
