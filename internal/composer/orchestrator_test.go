package composer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/runoshun/ghostwriter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects published events.
type recorder struct {
	events []Event
	mu     sync.Mutex
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		if ev.Task != nil {
			out = append(out, fmt.Sprintf("%s:%d", ev.Type, ev.Index))
			continue
		}
		out = append(out, string(ev.Type))
	}
	return out
}

// blockingPlanner ignores cancellation and returns its tasks once released.
type blockingPlanner struct {
	started chan struct{}
	release chan struct{}
	tasks   []domain.ComposerTask
}

func (p *blockingPlanner) Plan(context.Context, string, []string) ([]domain.ComposerTask, error) {
	close(p.started)
	<-p.release
	return p.tasks, nil
}

type harness struct {
	orch    *Orchestrator
	files   *testutil.MockFileStore
	client  *testutil.MockPlanClient
	history *testutil.MockSessionRepository
	rec     *recorder
}

func newHarness(t *testing.T, tasks []domain.ComposerTask, opts Options) *harness {
	t.Helper()
	h := &harness{
		files:   testutil.NewMockFileStore(),
		client:  &testutil.MockPlanClient{Tasks: tasks},
		history: testutil.NewMockSessionRepository(),
		rec:     &recorder{},
	}
	opts.History = h.history
	if opts.Clock == nil {
		opts.Clock = testutil.NewMockClock()
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return "session-1" }
	}
	h.orch = New(NewPlanner(h.client, h.files, nil, nil), h.files, opts)
	h.orch.SubscribeAll(h.rec.handle)
	return h
}

func newTask(id string, kind domain.TaskKind, path string, content *string) domain.ComposerTask {
	return domain.ComposerTask{ID: id, Kind: kind, FilePath: path, NewContent: content}
}

func statuses(s *domain.ComposerSession) []domain.TaskStatus {
	out := make([]domain.TaskStatus, len(s.Tasks))
	for i, t := range s.Tasks {
		out[i] = t.Status
	}
	return out
}

func TestOrchestrator_Submit_RunsTasksInOrder(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("A", domain.TaskEdit, "a.go", testutil.Ptr("package a\n")),
		newTask("B", domain.TaskCreate, "b.go", testutil.Ptr("package b\n")),
		newTask("C", domain.TaskDelete, "c.go", nil),
	}, Options{AutoExecute: true})
	h.files.Files["a.go"] = "old\n"
	h.files.Files["c.go"] = "gone\n"

	// Execute
	sess, err := h.orch.Submit(context.Background(), "restructure", []string{"a.go"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"write a.go", "create b.go", "delete c.go"}, h.files.Operations())
	assert.Equal(t, 1, h.files.MaxActive, "tasks must never run concurrently")
	assert.Equal(t, domain.SessionCompleted, sess.Status)
	assert.Equal(t, []domain.TaskStatus{domain.TaskCompleted, domain.TaskCompleted, domain.TaskCompleted}, statuses(sess))
	assert.Equal(t, []string{"a.go"}, sess.SelectedFiles)
	assert.False(t, sess.FinishedAt.IsZero())
	assert.Equal(t, []string{
		"session.planning",
		"session.executing",
		"task.started:0", "task.completed:0",
		"task.started:1", "task.completed:1",
		"task.started:2", "task.completed:2",
		"session.completed",
	}, h.rec.types())
}

func TestOrchestrator_Submit_EventsCarrySnapshots(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("A", domain.TaskCreate, "a.go", testutil.Ptr("x")),
	}, Options{AutoExecute: true})

	// Execute
	_, err := h.orch.Submit(context.Background(), "add a", nil)

	// Assert
	require.NoError(t, err)
	started := h.rec.events[2]
	require.Equal(t, EventTaskStarted, started.Type)
	assert.Equal(t, domain.TaskInProgress, started.Task.Status)
	assert.Equal(t, domain.TaskInProgress, started.Session.Tasks[0].Status)
	assert.Equal(t, domain.SessionExecuting, started.Session.Status)

	done := h.rec.events[3]
	assert.Equal(t, domain.TaskCompleted, done.Task.Status)
	assert.Equal(t, domain.TaskInProgress, started.Task.Status, "earlier snapshots are not mutated")
}

func TestOrchestrator_Submit_ContinuesAfterFailure(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskCreate, "one.go", testutil.Ptr("1")),
		newTask("2", domain.TaskEdit, "two.go", testutil.Ptr("2")),
		newTask("3", domain.TaskCreate, "three.go", testutil.Ptr("3")),
	}, Options{AutoExecute: true})
	h.files.Errs["two.go"] = assert.AnError

	// Execute
	sess, err := h.orch.Submit(context.Background(), "batch", nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []domain.TaskStatus{domain.TaskCompleted, domain.TaskFailed, domain.TaskCompleted}, statuses(sess))
	assert.Equal(t, domain.SessionFailed, sess.Status)
	assert.Contains(t, sess.Tasks[1].Error, assert.AnError.Error())
	assert.Contains(t, sess.Tasks[1].Error, "two.go")

	var failed *Event
	for i := range h.rec.events {
		if h.rec.events[i].Type == EventTaskFailed {
			failed = &h.rec.events[i]
		}
	}
	require.NotNil(t, failed)
	assert.ErrorIs(t, failed.Err, domain.ErrTaskExecutionFailed)
	assert.ErrorIs(t, failed.Err, assert.AnError)
}

func TestOrchestrator_Submit_FailFast(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskCreate, "one.go", testutil.Ptr("1")),
		newTask("2", domain.TaskEdit, "two.go", testutil.Ptr("2")),
		newTask("3", domain.TaskCreate, "three.go", testutil.Ptr("3")),
	}, Options{AutoExecute: true, Policy: domain.PolicyFailFast})
	h.files.Errs["two.go"] = assert.AnError

	// Execute
	sess, err := h.orch.Submit(context.Background(), "batch", nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []domain.TaskStatus{domain.TaskCompleted, domain.TaskFailed, domain.TaskPending}, statuses(sess))
	assert.Equal(t, domain.SessionFailed, sess.Status)
	assert.Equal(t, []string{"create one.go", "write two.go"}, h.files.Operations())

	// Resume the rest
	delete(h.files.Errs, "two.go")
	sess, err = h.orch.AcceptRemaining(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.TaskStatus{domain.TaskCompleted, domain.TaskFailed, domain.TaskCompleted}, statuses(sess))
	assert.Equal(t, domain.SessionFailed, sess.Status)
	assert.Equal(t, "3", h.files.Files["three.go"])
}

func TestOrchestrator_Submit_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil, Options{AutoExecute: true})

			sess, err := h.orch.Submit(context.Background(), tt.prompt, nil)

			assert.Nil(t, sess)
			assert.ErrorIs(t, err, domain.ErrBlankPrompt)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, h.orch.Session())
			assert.Empty(t, h.client.Requests)
			assert.Empty(t, h.rec.types())
		})
	}
}

func TestOrchestrator_Submit_RejectsWhileActive(t *testing.T) {
	// Setup - preview leaves the session executing
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskCreate, "one.go", testutil.Ptr("1")),
	}, Options{AutoExecute: false})
	first, err := h.orch.Submit(context.Background(), "first", nil)
	require.NoError(t, err)

	// Execute
	_, err = h.orch.Submit(context.Background(), "second", nil)

	// Assert
	assert.ErrorIs(t, err, domain.ErrSessionActive)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	current := h.orch.Session()
	require.NotNil(t, current)
	assert.Equal(t, first.ID, current.ID)
	assert.Equal(t, "first", current.Prompt)
	assert.Len(t, h.client.Requests, 1)
}

func TestOrchestrator_Submit_AfterFinishedSession(t *testing.T) {
	// Setup
	h := newHarness(t, nil, Options{AutoExecute: true})
	_, err := h.orch.Submit(context.Background(), "first", nil)
	require.NoError(t, err)

	// Execute
	sess, err := h.orch.Submit(context.Background(), "second", nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "second", sess.Prompt)
	assert.Equal(t, domain.SessionCompleted, sess.Status, "an empty plan completes")
}

func TestOrchestrator_Submit_PlanningFailure(t *testing.T) {
	// Setup
	h := newHarness(t, nil, Options{AutoExecute: true})
	h.client.Err = assert.AnError

	// Execute
	sess, err := h.orch.Submit(context.Background(), "anything", nil)

	// Assert
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
	require.NotNil(t, sess)
	assert.Equal(t, domain.SessionFailed, sess.Status)
	assert.Empty(t, sess.Tasks)
	assert.NotEmpty(t, sess.Error)
	assert.Equal(t, []string{"session.planning", "session.failed"}, h.rec.types())
	assert.Contains(t, h.history.Sessions, sess.ID)
}

func TestOrchestrator_Submit_UnsupportedAndInvalidTasks(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskMove, "old.go", nil),
		newTask("2", domain.TaskEdit, "a.go", nil),
		newTask("3", domain.TaskCreate, "b.go", nil),
		newTask("4", "rename", "c.go", nil),
	}, Options{AutoExecute: true})

	// Execute
	sess, err := h.orch.Submit(context.Background(), "move things", nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.SessionFailed, sess.Status)
	assert.Equal(t, []domain.TaskStatus{domain.TaskFailed, domain.TaskFailed, domain.TaskFailed, domain.TaskFailed}, statuses(sess))
	assert.Contains(t, sess.Tasks[0].Error, domain.ErrUnsupportedTaskKind.Error())
	assert.Contains(t, sess.Tasks[1].Error, domain.ErrMissingContent.Error())
	assert.Contains(t, sess.Tasks[2].Error, domain.ErrMissingContent.Error())
	assert.Contains(t, sess.Tasks[3].Error, domain.ErrUnsupportedTaskKind.Error())
	assert.Empty(t, h.files.Operations())
}

func TestOrchestrator_Submit_CapturesOriginalAndSummarizes(t *testing.T) {
	// Setup
	given := newTask("3", domain.TaskEdit, "keep.go", testutil.Ptr("z\n"))
	given.Changes = "planner summary"
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskEdit, "a.go", testutil.Ptr("a\nc\nd\n")),
		newTask("2", domain.TaskDelete, "b.go", nil),
		given,
		newTask("4", domain.TaskCreate, "new.go", testutil.Ptr("x\ny")),
	}, Options{AutoExecute: true})
	h.files.Files["a.go"] = "a\nb\n"
	h.files.Files["b.go"] = "one\ntwo\nthree\n"
	h.files.Files["keep.go"] = "y\n"

	// Execute
	sess, err := h.orch.Submit(context.Background(), "edit", nil)

	// Assert
	require.NoError(t, err)
	require.Equal(t, domain.SessionCompleted, sess.Status)
	require.NotNil(t, sess.Tasks[0].OriginalContent)
	assert.Equal(t, "a\nb\n", *sess.Tasks[0].OriginalContent)
	assert.Equal(t, "+2 -1 lines", sess.Tasks[0].Changes)
	require.NotNil(t, sess.Tasks[1].OriginalContent)
	assert.Equal(t, "+0 -3 lines", sess.Tasks[1].Changes)
	assert.Equal(t, "planner summary", sess.Tasks[2].Changes)
	assert.Equal(t, "+2 -0 lines", sess.Tasks[3].Changes)
}

func TestOrchestrator_Reject_DuringPlanning(t *testing.T) {
	// Setup
	planner := &blockingPlanner{
		started: make(chan struct{}),
		release: make(chan struct{}),
		tasks:   []domain.ComposerTask{newTask("1", domain.TaskCreate, "one.go", testutil.Ptr("1"))},
	}
	files := testutil.NewMockFileStore()
	rec := &recorder{}
	orch := New(planner, files, Options{AutoExecute: true, Clock: testutil.NewMockClock()})
	orch.SubscribeAll(rec.handle)

	type result struct {
		sess *domain.ComposerSession
		err  error
	}
	done := make(chan result, 1)
	go func() {
		sess, err := orch.Submit(context.Background(), "plan slowly", nil)
		done <- result{sess, err}
	}()
	<-planner.started

	// Execute
	require.NoError(t, orch.Reject())
	close(planner.release)
	res := <-done

	// Assert
	assert.ErrorIs(t, res.err, domain.ErrSessionRejected)
	assert.Nil(t, res.sess)
	assert.Nil(t, orch.Session())
	assert.Empty(t, files.Operations())
	for _, typ := range rec.types() {
		assert.NotContains(t, typ, "task.", "no task may start after reject")
	}
	assert.Equal(t, []string{"session.planning", "session.rejected"}, rec.types())
}

func TestOrchestrator_Reject_CancelsPlanRequest(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskCreate, "one.go", testutil.Ptr("1")),
	}, Options{AutoExecute: true})
	h.client.Started = make(chan struct{})
	h.client.Release = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := h.orch.Submit(context.Background(), "slow", nil)
		done <- err
	}()
	<-h.client.Started

	// Execute
	require.NoError(t, h.orch.Reject())

	// Assert - the blocked request returns through its cancelled context
	assert.ErrorIs(t, <-done, domain.ErrSessionRejected)
	assert.Empty(t, h.files.Operations())
	assert.Empty(t, h.history.Sessions, "rejected sessions are discarded")
}

func TestOrchestrator_Reject_DuringLoop(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskCreate, "one.go", testutil.Ptr("1")),
		newTask("2", domain.TaskCreate, "two.go", testutil.Ptr("2")),
		newTask("3", domain.TaskCreate, "three.go", testutil.Ptr("3")),
	}, Options{AutoExecute: true})
	h.files.OnOp = func(op string) {
		if op == "create one.go" {
			assert.NoError(t, h.orch.Reject())
		}
	}

	// Execute
	sess, err := h.orch.Submit(context.Background(), "create", nil)

	// Assert - the running task finishes, nothing after it starts
	assert.ErrorIs(t, err, domain.ErrSessionRejected)
	assert.Nil(t, sess)
	assert.Equal(t, []string{"create one.go"}, h.files.Operations())
	assert.Equal(t, "1", h.files.Files["one.go"], "completed effects are not rolled back")
	assert.Nil(t, h.orch.Session())
}

func TestOrchestrator_Reject_SubmitRefusedWhileTaskInFlight(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskEdit, "one.go", testutil.Ptr("1")),
		newTask("2", domain.TaskEdit, "two.go", testutil.Ptr("2")),
	}, Options{AutoExecute: true})
	var duringErr error
	h.files.OnOp = func(op string) {
		if op != "write one.go" || duringErr != nil {
			return
		}
		assert.NoError(t, h.orch.Reject())
		_, duringErr = h.orch.Submit(context.Background(), "second", nil)
	}

	// Execute
	_, err := h.orch.Submit(context.Background(), "first", nil)

	// Assert - the discarded task still owns the files until it returns
	require.ErrorIs(t, err, domain.ErrSessionRejected)
	require.ErrorIs(t, duringErr, domain.ErrSessionActive)
	assert.Len(t, h.client.Requests, 1)

	h.files.OnOp = nil
	sess, err := h.orch.Submit(context.Background(), "second", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, sess.Status)
	assert.Equal(t, 1, h.files.MaxActive, "file operations must never overlap")
	assert.Equal(t, []string{"write one.go", "write one.go", "write two.go"}, h.files.Operations())
}

func TestOrchestrator_Reject_NoSession(t *testing.T) {
	h := newHarness(t, nil, Options{})

	assert.ErrorIs(t, h.orch.Reject(), domain.ErrNoSession)
}

func TestOrchestrator_ContextCancelStopsAtTaskBoundary(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskCreate, "one.go", testutil.Ptr("1")),
		newTask("2", domain.TaskCreate, "two.go", testutil.Ptr("2")),
	}, Options{AutoExecute: true})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.files.OnOp = func(string) { cancel() }

	// Execute
	sess, err := h.orch.Submit(ctx, "create", nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []domain.TaskStatus{domain.TaskCompleted, domain.TaskPending}, statuses(sess))
	assert.Equal(t, domain.SessionFailed, sess.Status)
}

func TestOrchestrator_Preview_AcceptRemaining(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskCreate, "one.go", testutil.Ptr("1")),
		newTask("2", domain.TaskCreate, "two.go", testutil.Ptr("2")),
	}, Options{AutoExecute: false})

	preview, err := h.orch.Submit(context.Background(), "create", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionExecuting, preview.Status)
	assert.Equal(t, []domain.TaskStatus{domain.TaskPending, domain.TaskPending}, statuses(preview))
	assert.Empty(t, h.files.Operations())

	// Execute
	sess, err := h.orch.AcceptRemaining(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, sess.Status)
	assert.Equal(t, []string{"create one.go", "create two.go"}, h.files.Operations())
	assert.Contains(t, h.history.Sessions, sess.ID)
}

func TestOrchestrator_Preview_EmptyPlanCompletes(t *testing.T) {
	h := newHarness(t, nil, Options{AutoExecute: false})

	sess, err := h.orch.Submit(context.Background(), "nothing to do", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, sess.Status)
	assert.Empty(t, sess.Tasks)
	assert.Contains(t, h.history.Sessions, sess.ID)
}

func TestOrchestrator_AcceptRemaining_PropagatesError(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskCreate, "one.go", testutil.Ptr("1")),
		newTask("2", domain.TaskCreate, "two.go", testutil.Ptr("2")),
		newTask("3", domain.TaskCreate, "three.go", testutil.Ptr("3")),
	}, Options{AutoExecute: false})
	h.files.Files["two.go"] = "exists"
	_, err := h.orch.Submit(context.Background(), "create", nil)
	require.NoError(t, err)

	// Execute
	sess, err := h.orch.AcceptRemaining(context.Background())

	// Assert
	assert.ErrorIs(t, err, domain.ErrTaskExecutionFailed)
	assert.ErrorIs(t, err, domain.ErrFileExists)
	require.NotNil(t, sess)
	assert.Equal(t, []domain.TaskStatus{domain.TaskCompleted, domain.TaskFailed, domain.TaskPending}, statuses(sess))
	assert.Equal(t, domain.SessionFailed, sess.Status)
}

func TestOrchestrator_AcceptRemaining_NoSession(t *testing.T) {
	h := newHarness(t, nil, Options{})

	_, err := h.orch.AcceptRemaining(context.Background())

	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestOrchestrator_AcceptRemaining_NothingPending(t *testing.T) {
	// Setup
	h := newHarness(t, []domain.ComposerTask{
		newTask("1", domain.TaskCreate, "one.go", testutil.Ptr("1")),
	}, Options{AutoExecute: true})
	_, err := h.orch.Submit(context.Background(), "create", nil)
	require.NoError(t, err)

	// Execute
	sess, err := h.orch.AcceptRemaining(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, sess.Status)
	assert.Len(t, h.files.Operations(), 1)
}

func TestOrchestrator_HistorySaveError_DoesNotFailSession(t *testing.T) {
	// Setup
	h := newHarness(t, nil, Options{AutoExecute: true})
	h.history.SaveErr = assert.AnError

	// Execute
	sess, err := h.orch.Submit(context.Background(), "noop", nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, sess.Status)
}
