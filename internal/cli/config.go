package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/runoshun/ghostwriter/internal/app"
	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/runoshun/ghostwriter/internal/infra/config"
	"github.com/runoshun/ghostwriter/internal/usecase"
)

// newConfigCommand creates the config command.
func newConfigCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage ghostwriter configuration files and settings.`,
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(newConfigShowCommand(c))
	cmd.AddCommand(newConfigInitCommand(c))

	return cmd
}

// newConfigShowCommand creates the config show subcommand.
func newConfigShowCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display effective configuration after merging all sources.

Shows which config files were loaded and the final merged configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ShowConfigUseCase().Execute(cmd.Context(), usecase.ShowConfigInput{})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, "[Loaded from]")
			printConfigSource(w, out.GlobalConfig)
			printConfigSource(w, out.RepoConfig)
			_, _ = fmt.Fprintln(w)

			_, _ = fmt.Fprintln(w, "[Effective Config]")
			rendered, err := config.Render(out.EffectiveConfig)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(w, rendered)
			return nil
		},
	}
}

func printConfigSource(w io.Writer, info domain.ConfigInfo) {
	if info.Exists {
		_, _ = fmt.Fprintf(w, "- %s\n", info.Path)
		return
	}
	_, _ = fmt.Fprintf(w, "- %s (not found)\n", info.Path)
}

// newConfigInitCommand creates the config init subcommand.
func newConfigInitCommand(c *app.Container) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a repository config file",
		Long:  `Write a commented configuration template to .ghostwriter/config.toml.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.InitConfigUseCase().Execute(cmd.Context(), usecase.InitConfigInput{Force: force})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", out.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
