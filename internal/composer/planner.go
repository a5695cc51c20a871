package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/runoshun/ghostwriter/internal/domain"
)

// TaskPlanner turns a prompt into an ordered task list.
type TaskPlanner interface {
	Plan(ctx context.Context, prompt string, selectedFiles []string) ([]domain.ComposerTask, error)
}

// Planner is the TaskPlanner backed by the AI planning endpoint.
// It snapshots the project tree, applies prompt rules and normalizes the returned tasks.
type Planner struct {
	client   domain.PlanClient
	files    domain.FileStore
	rewriter domain.PromptRewriter
	logger   *slog.Logger
	newID    func() string
}

// NewPlanner creates a Planner. rewriter may be nil.
func NewPlanner(client domain.PlanClient, files domain.FileStore, rewriter domain.PromptRewriter, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = discard()
	}
	return &Planner{
		client:   client,
		files:    files,
		rewriter: rewriter,
		logger:   logger.With("category", "planner"),
		newID:    uuid.NewString,
	}
}

// Plan requests a plan for prompt. Backend failures wrap domain.ErrRequestFailed.
func (p *Planner) Plan(ctx context.Context, prompt string, selectedFiles []string) ([]domain.ComposerTask, error) {
	tree, err := p.files.ListProjectTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("list project tree: %w", err)
	}

	rewritten := prompt
	if p.rewriter != nil {
		rewritten = p.rewriter.Rewrite(prompt, selectedFiles)
	}

	p.logger.Debug("requesting plan", "selected", len(selectedFiles), "rewritten", rewritten != prompt)
	tasks, err := p.client.PlanChanges(ctx, domain.PlanRequest{
		Prompt:        rewritten,
		SelectedFiles: selectedFiles,
		Project:       tree,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrRequestFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrRequestFailed, err)
		}
		return nil, fmt.Errorf("plan changes: %w", err)
	}

	out := make([]domain.ComposerTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, p.normalize(t))
	}
	p.logger.Info("plan received", "tasks", len(out))
	return out, nil
}

// normalize prepares a planned task for execution: every task starts pending with an ID
// and a clean workspace-relative path.
func (p *Planner) normalize(t domain.ComposerTask) domain.ComposerTask {
	t = t.Clone()
	if t.ID == "" {
		t.ID = p.newID()
	}
	t.Kind = domain.TaskKind(strings.ToLower(strings.TrimSpace(string(t.Kind))))
	t.FilePath = cleanPath(t.FilePath)
	t.Status = domain.TaskPending
	t.Error = ""
	return t
}

func cleanPath(p string) string {
	p = strings.TrimSpace(filepath.ToSlash(p))
	if p == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean(p), "./")
}
