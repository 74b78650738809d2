// Package cmd provides Cobra CLI commands for shadowtab.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/shadowtab/internal/cli"
)

var (
	app     *cli.App
	rootCmd = &cobra.Command{
		Use:   "shadowtab",
		Short: "A session keeper for private browsing",
		Long: `Shadowtab - keeps named, restorable sessions of your private
browsing tabs.

Tabs opened in the private context are grouped into a session as they
appear. When the last private tab closes the session is preserved, and
any session can be restored, renamed, exported, or deleted later.

Use 'shadowtab serve' to run the backend, or explore the subcommands
for session management.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip initialization for commands that don't need app context
			switch cmd.Name() {
			case "help", "completion":
				return nil
			}

			var err error
			app, err = cli.NewApp()
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app != nil {
				_ = app.Close()
			}
		},
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GetApp returns the initialized app (for use by subcommands).
func GetApp() *cli.App {
	return app
}
