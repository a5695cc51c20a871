package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/ghostwriter/internal/app"
	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/runoshun/ghostwriter/internal/usecase"
)

// Ghost text markers for --show output.
const (
	ghostOpen  = "\x1b[2m"
	ghostClose = "\x1b[0m"
)

// newSuggestCommand creates the suggest command.
func newSuggestCommand(c *app.Container) *cobra.Command {
	var opts struct {
		line        int
		col         int
		acceptWords int
		accept      bool
		write       bool
		show        bool
		plain       bool
	}

	cmd := &cobra.Command{
		Use:   "suggest FILE",
		Short: "Request an inline suggestion at a cursor position",
		Long: `Request an inline suggestion for FILE at --line/--col (both 1-based).

By default the suggestion text is printed. --show prints the whole document
with the suggestion shown as ghost text. --accept inserts the suggestion and
--accept-words N inserts its first N words; the resulting document is printed,
or saved back with --write.`,
		Example: `  ghostwriter suggest main.go --line 12 --col 9
  ghostwriter suggest main.go --line 12 --col 9 --accept-words 2 --show
  ghostwriter suggest main.go --line 12 --col 9 --accept --write`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.line < 1 || opts.col < 1 {
				return fmt.Errorf("%w: --line and --col must be at least 1", domain.ErrInvalidInput)
			}
			if opts.write && !opts.accept && opts.acceptWords == 0 {
				return errors.New("--write requires --accept or --accept-words")
			}

			in := usecase.SuggestOnceInput{
				Path:        args[0],
				Position:    domain.Position{Line: opts.line - 1, Column: opts.col - 1},
				Accept:      opts.accept,
				AcceptWords: opts.acceptWords,
				Write:       opts.write,
				GhostOpen:   ghostOpen,
				GhostClose:  ghostClose,
			}
			if opts.plain {
				in.GhostOpen, in.GhostClose = "⟨", "⟩"
			}

			out, err := c.SuggestOnceUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.Suggestion == nil {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No suggestion.")
				return nil
			}
			switch {
			case out.Written:
				_, _ = fmt.Fprintf(w, "Accepted %d chunk(s) into %s\n", len(out.Accepted), args[0])
			case opts.show:
				_, _ = fmt.Fprint(w, out.Preview)
			case opts.accept || opts.acceptWords > 0:
				_, _ = fmt.Fprint(w, out.Text)
			default:
				_, _ = fmt.Fprintln(w, out.Suggestion.Text)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.line, "line", 0, "Cursor line (1-based)")
	cmd.Flags().IntVar(&opts.col, "col", 0, "Cursor column (1-based, in characters)")
	cmd.Flags().BoolVar(&opts.accept, "accept", false, "Accept the whole suggestion")
	cmd.Flags().IntVar(&opts.acceptWords, "accept-words", 0, "Accept the first N words of the suggestion")
	cmd.Flags().BoolVar(&opts.write, "write", false, "Save the accepted result to FILE")
	cmd.Flags().BoolVar(&opts.show, "show", false, "Print the document with the remaining ghost text")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Mark ghost text with brackets instead of terminal dimming")
	_ = cmd.MarkFlagRequired("line")
	_ = cmd.MarkFlagRequired("col")
	cmd.MarkFlagsMutuallyExclusive("accept", "accept-words")

	return cmd
}
