package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/ghostwriter/internal/app"
	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/runoshun/ghostwriter/internal/usecase"
)

// newSessionsCommand creates the sessions command.
func newSessionsCommand(c *app.Container) *cobra.Command {
	var status string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List composer session history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := domain.SessionStatus(status)
			if status != "" && !st.IsValid() {
				return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
			}

			out, err := c.ListSessionsUseCase().Execute(cmd.Context(), usecase.ListSessionsInput{
				Status: st,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, out.Sessions)
			}
			if len(out.Sessions) == 0 {
				_, _ = fmt.Fprintln(w, "No sessions.")
				return nil
			}
			printSessionList(w, out.Sessions)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (completed, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most N sessions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// newSessionCommand creates the session command with its show subcommand.
func newSessionCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect a composer session",
	}
	cmd.AddCommand(newSessionShowCommand(c))
	return cmd
}

func newSessionShowCommand(c *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a session and its tasks",
		Long:  `Show a session and its tasks. ID may be any unique prefix of the session ID.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.ShowSessionUseCase().Execute(cmd.Context(), usecase.ShowSessionInput{ID: args[0]})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, out.Session)
			}
			printSession(w, out.Session)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printSessionList(w io.Writer, sessions []*domain.ComposerSession) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tTASKS\tCREATED\tPROMPT")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n",
			shortID(s.ID),
			s.Status,
			s.CountByStatus(domain.TaskCompleted), len(s.Tasks),
			formatTime(s.CreatedAt),
			truncate(s.Prompt, 50))
	}
	_ = tw.Flush()
}

func printSession(w io.Writer, s *domain.ComposerSession) {
	_, _ = fmt.Fprintf(w, "Session:  %s\n", s.ID)
	_, _ = fmt.Fprintf(w, "Status:   %s\n", s.Status.Display())
	_, _ = fmt.Fprintf(w, "Prompt:   %s\n", s.Prompt)
	if len(s.SelectedFiles) > 0 {
		_, _ = fmt.Fprintf(w, "Files:    %v\n", s.SelectedFiles)
	}
	_, _ = fmt.Fprintf(w, "Created:  %s\n", formatTime(s.CreatedAt))
	if !s.FinishedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "Finished: %s\n", formatTime(s.FinishedAt))
	}
	if s.Error != "" {
		_, _ = fmt.Fprintf(w, "Error:    %s\n", s.Error)
	}

	_, _ = fmt.Fprintf(w, "\nTasks (%d):\n", len(s.Tasks))
	for i, t := range s.Tasks {
		_, _ = fmt.Fprintf(w, "  %d. [%s] %s %s", i+1, t.Status.Display(), t.Kind, t.FilePath)
		if t.Changes != "" {
			_, _ = fmt.Fprintf(w, " (%s)", t.Changes)
		}
		_, _ = fmt.Fprintln(w)
		if t.Description != "" {
			_, _ = fmt.Fprintf(w, "     %s\n", t.Description)
		}
		if t.Error != "" {
			_, _ = fmt.Fprintf(w, "     error: %s\n", t.Error)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
