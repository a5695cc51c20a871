package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/ghostwriter/internal/app"
	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/runoshun/ghostwriter/internal/usecase"
)

// newTreeCommand creates the tree command.
func newTreeCommand(c *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the project snapshot sent to the planner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ShowTreeUseCase().Execute(cmd.Context(), usecase.ShowTreeInput{})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, out.Nodes)
			}
			printTree(w, out.Nodes, 0)
			_, _ = fmt.Fprintf(w, "\n%d directories, %d files\n", out.Dirs, out.Files)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printTree(w io.Writer, nodes []domain.FileNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.IsDir() {
			_, _ = fmt.Fprintf(w, "%s%s/\n", indent, n.Name)
			printTree(w, n.Children, depth+1)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s%s (%s)\n", indent, n.Name, formatSize(n.Size))
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
