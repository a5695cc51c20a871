package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/runoshun/ghostwriter/internal/app"
	"github.com/runoshun/ghostwriter/internal/composer"
	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/runoshun/ghostwriter/internal/tui"
	"github.com/runoshun/ghostwriter/internal/usecase"
)

// errSessionFailed is returned when a session ends with failed or unapplied tasks.
var errSessionFailed = errors.New("composer session failed")

// launchComposerTUIFunc runs the interactive view, allowing it to be mocked in tests.
var launchComposerTUIFunc = launchComposerTUI

// composeOptions holds the compose command flags.
type composeOptions struct {
	policy  string
	files   []string
	preview bool
	yes     bool
	useTUI  bool
}

// newComposeCommand creates the compose command.
func newComposeCommand(c *app.Container) *cobra.Command {
	var opts composeOptions

	cmd := &cobra.Command{
		Use:   "compose PROMPT",
		Short: "Plan a prompt into file changes and apply them",
		Long: `Plan a prompt into file-level tasks and apply them in order.

Each task edits, creates or deletes one file. With the default "continue"
policy every task is attempted; with "fail-fast" the first failure stops the
run and the remaining tasks stay pending.

With --preview (or composer.auto_execute = false) the plan is shown first and
applied only after confirmation.`,
		Example: `  ghostwriter compose "add a --verbose flag" -f cmd/main.go
  ghostwriter compose "remove the legacy client" --preview
  ghostwriter compose "rename Foo to Bar" --policy fail-fast --tui`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			uc := c.RunComposerUseCase()
			if opts.useTUI {
				return launchComposerTUIFunc(cmd, uc, prompt, opts)
			}
			return runCompose(cmd, uc, prompt, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.files, "file", "f", nil, "Attach a file to the prompt (repeatable)")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Show the plan before applying it")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Apply a previewed plan without asking")
	cmd.Flags().StringVar(&opts.policy, "policy", "", `Failure policy: "continue" or "fail-fast" (default from config)`)
	cmd.Flags().BoolVar(&opts.useTUI, "tui", false, "Show progress in an interactive view")

	return cmd
}

func runCompose(cmd *cobra.Command, uc *usecase.RunComposer, prompt string, opts composeOptions) error {
	w := cmd.OutOrStdout()
	styles := tui.DefaultStyles()

	out, err := uc.Execute(cmd.Context(), usecase.RunComposerInput{
		Prompt:        prompt,
		SelectedFiles: opts.files,
		Policy:        opts.policy,
		Preview:       opts.preview,
		OnEvent:       func(ev composer.Event) { printEvent(w, styles, ev) },
		Confirm: func(s *domain.ComposerSession) bool {
			printPlan(w, s)
			if opts.yes {
				return true
			}
			return confirm(cmd.InOrStdin(), w, fmt.Sprintf("Apply %d task(s)?", len(s.Tasks)))
		},
	})
	if err != nil && (out == nil || out.Session == nil) {
		return err
	}

	if out.Rejected {
		_, _ = fmt.Fprintln(w, "Plan rejected; no files were changed.")
		return nil
	}
	printSummary(w, styles, out.Session)
	if err != nil {
		return err
	}
	if out.Session.Status == domain.SessionFailed {
		return errSessionFailed
	}
	return nil
}

func printEvent(w io.Writer, styles tui.Styles, ev composer.Event) {
	if ev.Task == nil {
		return
	}
	total := len(ev.Session.Tasks)
	prefix := fmt.Sprintf("[%d/%d] %s %s", ev.Index+1, total, ev.Task.Kind, ev.Task.FilePath)
	status := styles.TaskStatusStyle(ev.Task.Status)

	switch ev.Type {
	case composer.EventTaskStarted:
		_, _ = fmt.Fprintf(w, "%s ...\n", prefix)
	case composer.EventTaskCompleted:
		line := prefix + " " + status.Render("done")
		if ev.Task.Changes != "" {
			line += " (" + ev.Task.Changes + ")"
		}
		_, _ = fmt.Fprintln(w, line)
	case composer.EventTaskFailed:
		_, _ = fmt.Fprintf(w, "%s %s: %s\n", prefix, status.Render("failed"), ev.Task.Error)
	}
}

func printPlan(w io.Writer, s *domain.ComposerSession) {
	_, _ = fmt.Fprintf(w, "Plan for session %s:\n", s.ID)
	for i, t := range s.Tasks {
		_, _ = fmt.Fprintf(w, "  %d. %-6s %s", i+1, t.Kind, t.FilePath)
		if t.Description != "" {
			_, _ = fmt.Fprintf(w, " - %s", t.Description)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printSummary(w io.Writer, styles tui.Styles, s *domain.ComposerSession) {
	if s.Error != "" {
		_, _ = fmt.Fprintf(w, "Session %s %s: %s\n", s.ID,
			styles.SessionStatusStyle(s.Status).Render(string(s.Status)), s.Error)
		return
	}
	_, _ = fmt.Fprintf(w, "Session %s %s: %d completed, %d failed, %d pending\n",
		s.ID,
		styles.SessionStatusStyle(s.Status).Render(string(s.Status)),
		s.CountByStatus(domain.TaskCompleted),
		s.CountByStatus(domain.TaskFailed),
		s.CountByStatus(domain.TaskPending))
}

// confirm asks a yes/no question on w and reads the answer from r.
func confirm(r io.Reader, w io.Writer, question string) bool {
	_, _ = fmt.Fprintf(w, "%s [y/N] ", question)
	line, _ := bufio.NewReader(r).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func launchComposerTUI(cmd *cobra.Command, uc *usecase.RunComposer, prompt string, opts composeOptions) error {
	orch, err := uc.NewOrchestrator(opts.policy, opts.preview)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.New(ctx, orch, prompt, opts.files)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run composer view: %w", err)
	}

	w := cmd.OutOrStdout()
	if model.Rejected() {
		_, _ = fmt.Fprintln(w, "Session rejected.")
		return nil
	}
	if s := model.Session(); s != nil {
		printSummary(w, tui.DefaultStyles(), s)
		if s.Status == domain.SessionFailed {
			return errSessionFailed
		}
	}
	return model.Err()
}
