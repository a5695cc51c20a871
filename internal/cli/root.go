// Package cli provides the command-line interface for ghostwriter.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/ghostwriter/internal/app"
)

// Command group IDs.
const (
	groupSetup   = "setup"
	groupEdit    = "edit"
	groupHistory = "history"
)

// NewRootCommand creates the root command for ghostwriter.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "ghostwriter",
		Short: "AI-assisted editing from the command line",
		Long: `ghostwriter drives an AI backend to edit a workspace.

compose turns a natural-language prompt into a plan of file-level tasks
and applies them one at a time. suggest asks for an inline completion at
a cursor position and can accept it whole or word by word.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			// Config commands must work with a broken config so it can be fixed
			if isConfigCommand(cmd) {
				return nil
			}
			return c.ConfigErr
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupEdit, Title: "Editing:"},
		&cobra.Group{ID: groupHistory, Title: "History:"},
	)

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	composeCmd := newComposeCommand(c)
	composeCmd.GroupID = groupEdit

	suggestCmd := newSuggestCommand(c)
	suggestCmd.GroupID = groupEdit

	treeCmd := newTreeCommand(c)
	treeCmd.GroupID = groupEdit

	sessionsCmd := newSessionsCommand(c)
	sessionsCmd.GroupID = groupHistory

	sessionCmd := newSessionCommand(c)
	sessionCmd.GroupID = groupHistory

	root.AddCommand(
		configCmd,
		composeCmd,
		suggestCmd,
		treeCmd,
		sessionsCmd,
		sessionCmd,
	)

	return root
}

func isConfigCommand(cmd *cobra.Command) bool {
	for p := cmd; p != nil; p = p.Parent() {
		if p.Name() == "config" {
			return true
		}
	}
	return false
}
