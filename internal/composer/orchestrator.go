// Package composer plans natural-language prompts into file-level tasks and applies them
// sequentially with observable per-task and per-session status.
package composer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/runoshun/ghostwriter/internal/domain"
)

// Options configures an Orchestrator.
// Fields are ordered to minimize memory padding.
type Options struct {
	Clock       domain.Clock
	History     domain.SessionRepository // Optional; finished sessions are saved here
	Logger      *slog.Logger
	NewID       func() string
	Policy      domain.FailurePolicy
	AutoExecute bool // Run the task loop right after planning
}

// Orchestrator owns the single current composer session.
// Fields are ordered to minimize memory padding.
type Orchestrator struct {
	planner    TaskPlanner
	files      domain.FileStore
	history    domain.SessionRepository
	clock      domain.Clock
	logger     *slog.Logger
	bus        *Bus
	session    *domain.ComposerSession
	cancelPlan context.CancelFunc
	newID      func() string
	policy     domain.FailurePolicy
	gen        uint64 // Bumped when the current session is discarded
	mu         sync.Mutex
	running    bool // Planning or a task loop is in progress
	applying   bool // A task effect is in flight, possibly for a discarded session
	autoExec   bool
}

// New creates an orchestrator.
func New(planner TaskPlanner, files domain.FileStore, opts Options) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = domain.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = discard()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Policy == "" {
		opts.Policy = domain.PolicyContinue
	}
	logger := opts.Logger.With("category", "composer")
	return &Orchestrator{
		planner:  planner,
		files:    files,
		history:  opts.History,
		clock:    opts.Clock,
		logger:   logger,
		bus:      NewBus(logger),
		newID:    opts.NewID,
		policy:   opts.Policy,
		autoExec: opts.AutoExecute,
	}
}

// Subscribe registers h for events of type t.
func (o *Orchestrator) Subscribe(t EventType, h Handler) string {
	return o.bus.Subscribe(t, h)
}

// SubscribeAll registers h for every event.
func (o *Orchestrator) SubscribeAll(h Handler) string {
	return o.bus.SubscribeAll(h)
}

// Unsubscribe removes a subscription.
func (o *Orchestrator) Unsubscribe(id string) bool {
	return o.bus.Unsubscribe(id)
}

// Session returns a snapshot of the current session, or nil.
func (o *Orchestrator) Session() *domain.ComposerSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.Clone()
}

// Submit plans prompt and, unless auto-execution is off, applies the planned tasks in order.
// It blocks until the session settles and returns its final snapshot.
//
// Blank prompts and submissions while a session is planning or executing are rejected
// before any state changes. So are submissions while a rejected session's in-flight
// task is still being applied. A planning failure returns the failed session together with
// the error. If the session is rejected meanwhile, Submit returns domain.ErrSessionRejected.
func (o *Orchestrator) Submit(ctx context.Context, prompt string, selectedFiles []string) (*domain.ComposerSession, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.ErrBlankPrompt
	}

	planCtx, cancelPlan := context.WithCancel(ctx)
	defer cancelPlan()

	o.mu.Lock()
	if o.applying || (o.session != nil && o.session.Status.IsActive()) {
		o.mu.Unlock()
		return nil, domain.ErrSessionActive
	}
	o.gen++
	gen := o.gen
	o.session = &domain.ComposerSession{
		ID:            o.newID(),
		Prompt:        prompt,
		Status:        domain.SessionPlanning,
		SelectedFiles: append([]string(nil), selectedFiles...),
		Tasks:         []domain.ComposerTask{},
		CreatedAt:     o.clock.Now(),
	}
	o.running = true
	o.cancelPlan = cancelPlan
	snap := o.session.Clone()
	o.mu.Unlock()

	o.logger.Info("session started", "session", snap.ID, "selected", len(selectedFiles))
	o.publishSession(EventSessionPlanning, snap, nil)

	tasks, planErr := o.planner.Plan(planCtx, prompt, selectedFiles)

	o.mu.Lock()
	o.cancelPlan = nil
	if gen != o.gen {
		o.mu.Unlock()
		return nil, domain.ErrSessionRejected
	}
	if planErr != nil {
		o.session.Status = domain.SessionFailed
		o.session.Error = planErr.Error()
		o.session.FinishedAt = o.clock.Now()
		o.running = false
		snap = o.session.Clone()
		o.mu.Unlock()

		o.logger.Warn("planning failed", "session", snap.ID, "error", planErr)
		o.publishSession(EventSessionFailed, snap, planErr)
		o.save(snap)
		return snap, planErr
	}
	o.session.Tasks = tasks
	o.session.Status = domain.SessionExecuting
	preview := !o.autoExec && len(tasks) > 0
	if preview {
		o.running = false
	}
	snap = o.session.Clone()
	o.mu.Unlock()

	o.logger.Info("plan accepted", "session", snap.ID, "tasks", len(tasks))
	o.publishSession(EventSessionExecuting, snap, nil)

	if preview {
		return snap, nil
	}

	_ = o.runLoop(ctx, gen, o.policy == domain.PolicyFailFast)
	return o.finish(gen)
}

// AcceptRemaining applies every task still pending, in plan order. It stops at the
// first failure and returns it; the failing task is recorded as failed. It serves
// sessions that were only previewed, or stopped early by the fail-fast policy.
func (o *Orchestrator) AcceptRemaining(ctx context.Context) (*domain.ComposerSession, error) {
	o.mu.Lock()
	if o.session == nil {
		o.mu.Unlock()
		return nil, domain.ErrNoSession
	}
	if o.running || o.applying {
		o.mu.Unlock()
		return nil, domain.ErrSessionActive
	}
	if o.session.CountByStatus(domain.TaskPending) == 0 {
		snap := o.session.Clone()
		o.mu.Unlock()
		return snap, nil
	}
	resume := o.session.Status != domain.SessionExecuting
	if resume && !o.session.Status.CanTransitionTo(domain.SessionExecuting) {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: session is %s", domain.ErrInvalidInput, o.session.Status)
	}
	o.session.Status = domain.SessionExecuting
	o.session.FinishedAt = time.Time{}
	o.running = true
	gen := o.gen
	snap := o.session.Clone()
	o.mu.Unlock()

	if resume {
		o.publishSession(EventSessionExecuting, snap, nil)
	}

	loopErr := o.runLoop(ctx, gen, true)
	final, err := o.finish(gen)
	if loopErr != nil {
		return final, loopErr
	}
	return final, err
}

// Reject discards the current session. Tasks that never started are not applied and
// completed effects are not rolled back. A running loop stops before its next task.
func (o *Orchestrator) Reject() error {
	o.mu.Lock()
	if o.session == nil {
		o.mu.Unlock()
		return domain.ErrNoSession
	}
	snap := o.session.Clone()
	o.session = nil
	o.running = false
	o.gen++
	if o.cancelPlan != nil {
		o.cancelPlan()
		o.cancelPlan = nil
	}
	o.mu.Unlock()

	o.logger.Info("session rejected", "session", snap.ID)
	o.publishSession(EventSessionRejected, snap, nil)
	return nil
}

// runLoop applies pending tasks one at a time. It returns early when the session is
// discarded or ctx is done, and after the first failure when stopOnError is set.
// The returned error is the first task failure observed.
func (o *Orchestrator) runLoop(ctx context.Context, gen uint64, stopOnError bool) error {
	var firstErr error
	for i := 0; ; i++ {
		o.mu.Lock()
		if gen != o.gen {
			o.mu.Unlock()
			return firstErr
		}
		if i >= len(o.session.Tasks) {
			o.mu.Unlock()
			return firstErr
		}
		if ctx.Err() != nil {
			o.mu.Unlock()
			o.logger.Info("task loop cancelled", "error", ctx.Err())
			return firstErr
		}
		task := &o.session.Tasks[i]
		if task.Status != domain.TaskPending {
			o.mu.Unlock()
			continue
		}
		task.Status = domain.TaskInProgress
		work := task.Clone()
		snap := o.session.Clone()
		o.applying = true
		o.mu.Unlock()

		o.publishTask(EventTaskStarted, snap, i, nil)

		applied, err := o.apply(ctx, work)

		o.mu.Lock()
		o.applying = false
		if gen != o.gen {
			o.mu.Unlock()
			return firstErr
		}
		task = &o.session.Tasks[i]
		task.OriginalContent = applied.OriginalContent
		task.Changes = applied.Changes
		evType := EventTaskCompleted
		if err != nil {
			task.Status = domain.TaskFailed
			task.Error = err.Error()
			evType = EventTaskFailed
		} else {
			task.Status = domain.TaskCompleted
		}
		snap = o.session.Clone()
		o.mu.Unlock()

		if err != nil {
			o.logger.Warn("task failed", "task", work.ID, "kind", work.Kind, "path", work.FilePath, "error", err)
		} else {
			o.logger.Info("task completed", "task", work.ID, "kind", work.Kind, "path", work.FilePath)
		}
		o.publishTask(evType, snap, i, err)

		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if stopOnError {
				return firstErr
			}
		}
	}
}

// finish resolves the session status after a loop and records it in history.
func (o *Orchestrator) finish(gen uint64) (*domain.ComposerSession, error) {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return nil, domain.ErrSessionRejected
	}
	o.running = false
	o.session.Status = o.session.ResolveStatus()
	o.session.FinishedAt = o.clock.Now()
	snap := o.session.Clone()
	o.mu.Unlock()

	evType := EventSessionCompleted
	if snap.Status == domain.SessionFailed {
		evType = EventSessionFailed
	}
	o.logger.Info("session finished", "session", snap.ID, "status", snap.Status,
		"completed", snap.CountByStatus(domain.TaskCompleted),
		"failed", snap.CountByStatus(domain.TaskFailed),
		"pending", snap.CountByStatus(domain.TaskPending))
	o.publishSession(evType, snap, nil)
	o.save(snap)
	return snap, nil
}

// apply performs the file effect of one task.
func (o *Orchestrator) apply(ctx context.Context, t domain.ComposerTask) (domain.ComposerTask, error) {
	var err error
	switch t.Kind {
	case domain.TaskEdit:
		if t.NewContent == nil {
			err = domain.ErrMissingContent
			break
		}
		o.captureOriginal(ctx, &t)
		err = o.files.WriteFile(ctx, t.FilePath, *t.NewContent)
	case domain.TaskCreate:
		if t.NewContent == nil {
			err = domain.ErrMissingContent
			break
		}
		err = o.files.CreateFile(ctx, t.FilePath, *t.NewContent)
	case domain.TaskDelete:
		o.captureOriginal(ctx, &t)
		err = o.files.DeleteFile(ctx, t.FilePath)
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnsupportedTaskKind, t.Kind)
	}
	if err != nil {
		return t, fmt.Errorf("%w: %s %s: %w", domain.ErrTaskExecutionFailed, t.Kind, t.FilePath, err)
	}
	if t.Changes == "" {
		t.Changes = summarizeChanges(t)
	}
	return t, nil
}

// captureOriginal records the current file content when the plan did not include it.
func (o *Orchestrator) captureOriginal(ctx context.Context, t *domain.ComposerTask) {
	if t.OriginalContent != nil {
		return
	}
	content, err := o.files.ReadFile(ctx, t.FilePath)
	if err != nil {
		if !errors.Is(err, domain.ErrFileNotFound) {
			o.logger.Debug("read original content", "path", t.FilePath, "error", err)
		}
		return
	}
	t.OriginalContent = &content
}

func (o *Orchestrator) publishSession(t EventType, snap *domain.ComposerSession, err error) {
	o.bus.Publish(Event{Type: t, Session: snap, Index: -1, Err: err})
}

func (o *Orchestrator) publishTask(t EventType, snap *domain.ComposerSession, i int, err error) {
	task := snap.Tasks[i]
	o.bus.Publish(Event{Type: t, Session: snap, Task: &task, Index: i, Err: err})
}

func (o *Orchestrator) save(snap *domain.ComposerSession) {
	if o.history == nil {
		return
	}
	if err := o.history.Save(snap); err != nil {
		o.logger.Warn("save session history", "session", snap.ID, "error", err)
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
