package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/runoshun/ghostwriter/internal/composer"
	"github.com/runoshun/ghostwriter/internal/domain"
)

// RunComposerInput contains the parameters for a composer run.
// Fields are ordered to minimize memory padding.
type RunComposerInput struct {
	OnEvent composer.Handler // Receives every session and task event (optional)
	// Confirm is asked after planning in preview mode. Returning true executes the
	// plan, false rejects it. Nil leaves the plan unapplied.
	Confirm       func(*domain.ComposerSession) bool
	Prompt        string
	Policy        string // Failure policy override (empty = configured)
	SelectedFiles []string
	Preview       bool // Stop after planning regardless of auto_execute
}

// RunComposerOutput contains the result of a composer run.
type RunComposerOutput struct {
	Session  *domain.ComposerSession // Final snapshot (nil when rejected during planning)
	Rejected bool                    // The plan was discarded
	Applied  bool                    // The execution loop ran
}

// RunComposer plans a prompt and applies the resulting tasks.
type RunComposer struct {
	planner composer.TaskPlanner
	files   domain.FileStore
	history domain.SessionRepository
	logger  *slog.Logger
	cfg     domain.ComposerConfig
}

// NewRunComposer creates a new RunComposer use case.
func NewRunComposer(
	planner composer.TaskPlanner,
	files domain.FileStore,
	history domain.SessionRepository,
	cfg domain.ComposerConfig,
	logger *slog.Logger,
) *RunComposer {
	return &RunComposer{
		planner: planner,
		files:   files,
		history: history,
		cfg:     cfg,
		logger:  logger,
	}
}

// NewOrchestrator builds an orchestrator with the configured policy,
// optionally overridden by policy. preview disables auto execution.
func (uc *RunComposer) NewOrchestrator(policy string, preview bool) (*composer.Orchestrator, error) {
	p := uc.cfg.FailurePolicy
	if policy != "" {
		parsed, err := domain.ParseFailurePolicy(policy)
		if err != nil {
			return nil, err
		}
		p = parsed
	}
	return composer.New(uc.planner, uc.files, composer.Options{
		History:     uc.history,
		Logger:      uc.logger,
		Policy:      p,
		AutoExecute: uc.cfg.AutoExecute && !preview,
	}), nil
}

// Execute runs one composer session to completion.
func (uc *RunComposer) Execute(ctx context.Context, in RunComposerInput) (*RunComposerOutput, error) {
	orch, err := uc.NewOrchestrator(in.Policy, in.Preview)
	if err != nil {
		return nil, err
	}
	if in.OnEvent != nil {
		orch.SubscribeAll(in.OnEvent)
	}

	session, err := orch.Submit(ctx, in.Prompt, in.SelectedFiles)
	if err != nil {
		return &RunComposerOutput{Session: session}, err
	}
	if session.Status != domain.SessionExecuting || session.CountByStatus(domain.TaskPending) == 0 {
		return &RunComposerOutput{Session: session, Applied: true}, nil
	}

	// Preview: the plan is waiting for a decision.
	if in.Confirm == nil {
		return &RunComposerOutput{Session: session}, nil
	}
	if !in.Confirm(session) {
		if err := orch.Reject(); err != nil {
			return nil, fmt.Errorf("reject plan: %w", err)
		}
		return &RunComposerOutput{Session: session, Rejected: true}, nil
	}

	session, err = orch.AcceptRemaining(ctx)
	return &RunComposerOutput{Session: session, Applied: true}, err
}
