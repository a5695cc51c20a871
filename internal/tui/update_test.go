package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/ghostwriter/internal/composer"
	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeController records calls made by the view.
type fakeController struct {
	submitSession *domain.ComposerSession
	submitErr     error
	acceptSession *domain.ComposerSession
	acceptErr     error
	handler       composer.Handler
	rejectErr     error
	mu            sync.Mutex
	rejects       int
	accepts       int
	unsubscribed  bool
}

func (f *fakeController) Submit(context.Context, string, []string) (*domain.ComposerSession, error) {
	return f.submitSession, f.submitErr
}

func (f *fakeController) AcceptRemaining(context.Context) (*domain.ComposerSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepts++
	return f.acceptSession, f.acceptErr
}

func (f *fakeController) Reject() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejects++
	return f.rejectErr
}

func (f *fakeController) SubscribeAll(h composer.Handler) string {
	f.handler = h
	return "sub-1"
}

func (f *fakeController) Unsubscribe(string) bool {
	f.unsubscribed = true
	return true
}

func previewSession() *domain.ComposerSession {
	return &domain.ComposerSession{
		ID:     "session-1234567890",
		Prompt: "add files",
		Status: domain.SessionExecuting,
		Tasks: []domain.ComposerTask{
			{ID: "1", Kind: domain.TaskCreate, FilePath: "one.go", Status: domain.TaskPending},
			{ID: "2", Kind: domain.TaskEdit, FilePath: "two.go", Status: domain.TaskPending, Changes: "+1 -1"},
		},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m *Model, msg tea.Msg) (*Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	result, ok := updated.(*Model)
	require.True(t, ok, "Update should return *Model")
	return result, cmd
}

func TestModel_SubmitDone_Preview(t *testing.T) {
	// Setup
	ctrl := &fakeController{}
	m := New(context.Background(), ctrl, "add files", nil)
	m.Init()
	assert.True(t, m.busy)

	// Execute
	m, _ = update(t, m, MsgSubmitDone{Session: previewSession()})

	// Assert
	assert.False(t, m.busy)
	assert.True(t, m.awaitingDecision())
	assert.False(t, m.finished())
	view := m.View()
	assert.Contains(t, view, "one.go")
	assert.Contains(t, view, "+1 -1")
	assert.Contains(t, view, "2 task(s) pending")
	assert.Contains(t, view, "session-")
}

func TestModel_Accept(t *testing.T) {
	// Setup
	done := previewSession()
	done.Status = domain.SessionCompleted
	for i := range done.Tasks {
		done.Tasks[i].Status = domain.TaskCompleted
	}
	ctrl := &fakeController{acceptSession: done}
	m := New(context.Background(), ctrl, "add files", nil)
	m, _ = update(t, m, MsgSubmitDone{Session: previewSession()})

	// Execute
	m, cmd := update(t, m, keyMsg("a"))

	// Assert
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	msg := cmd()
	m, _ = update(t, m, msg)
	assert.Equal(t, 1, ctrl.accepts)
	assert.Equal(t, domain.SessionCompleted, m.Session().Status)
	assert.True(t, m.finished())
	assert.Contains(t, m.View(), "finished")
}

func TestModel_Accept_IgnoredWhenNothingPending(t *testing.T) {
	ctrl := &fakeController{}
	m := New(context.Background(), ctrl, "add files", nil)
	s := previewSession()
	s.Status = domain.SessionCompleted
	for i := range s.Tasks {
		s.Tasks[i].Status = domain.TaskCompleted
	}
	m, _ = update(t, m, MsgSubmitDone{Session: s})

	_, cmd := update(t, m, keyMsg("a"))

	assert.Nil(t, cmd)
	assert.Equal(t, 0, ctrl.accepts)
}

func TestModel_Reject(t *testing.T) {
	// Setup
	ctrl := &fakeController{}
	m := New(context.Background(), ctrl, "add files", nil)
	m, _ = update(t, m, MsgSubmitDone{Session: previewSession()})

	// Execute
	m, _ = update(t, m, keyMsg("r"))

	// Assert
	assert.Equal(t, 1, ctrl.rejects)
	assert.True(t, m.Rejected())
	assert.False(t, m.awaitingDecision())
	assert.Contains(t, m.View(), "rejected")

	// A second reject is a no-op
	update(t, m, keyMsg("r"))
	assert.Equal(t, 1, ctrl.rejects)
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name        string
		busy        bool
		session     *domain.ComposerSession
		wantRejects int
	}{
		{name: "while running rejects", busy: true, wantRejects: 1},
		{name: "while awaiting decision rejects", session: previewSession(), wantRejects: 1},
		{name: "after finish only quits", session: &domain.ComposerSession{Status: domain.SessionCompleted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			m := New(context.Background(), ctrl, "p", nil)
			m.busy = tt.busy
			m.session = tt.session

			m, cmd := update(t, m, keyMsg("q"))

			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
			assert.Equal(t, tt.wantRejects, ctrl.rejects)
			assert.True(t, ctrl.unsubscribed)
			assert.Empty(t, m.View())
		})
	}
}

func TestModel_EventsUpdateSession(t *testing.T) {
	// Setup
	ctrl := &fakeController{}
	m := New(context.Background(), ctrl, "p", nil)
	require.NotNil(t, ctrl.handler)
	s := previewSession()
	s.Tasks[0].Status = domain.TaskInProgress

	// Execute - the handler hands the event to the listener command
	go ctrl.handler(composer.Event{Type: composer.EventTaskStarted, Session: s, Index: 0})
	msg := m.waitForEvent()()

	// Assert
	ev, ok := msg.(MsgEvent)
	require.True(t, ok)
	m, cmd := update(t, m, ev)
	assert.NotNil(t, cmd, "listener is re-armed")
	assert.Equal(t, domain.TaskInProgress, m.Session().Tasks[0].Status)
}

func TestModel_CloseReleasesListener(t *testing.T) {
	ctrl := &fakeController{}
	m := New(context.Background(), ctrl, "p", nil)

	m.Close()
	m.Close()

	assert.Nil(t, m.waitForEvent()())
	ctrl.handler(composer.Event{Type: composer.EventTaskStarted})
}

func TestModel_SubmitRejected(t *testing.T) {
	ctrl := &fakeController{submitErr: domain.ErrSessionRejected}
	m := New(context.Background(), ctrl, "p", nil)

	m, _ = update(t, m, MsgSubmitDone{Err: domain.ErrSessionRejected})

	assert.True(t, m.Rejected())
	assert.NoError(t, m.Err())
}

func TestModel_SubmitFailed(t *testing.T) {
	ctrl := &fakeController{}
	m := New(context.Background(), ctrl, "p", nil)
	planErr := errors.New("backend down")
	s := &domain.ComposerSession{ID: "s", Status: domain.SessionFailed, Error: planErr.Error(), Tasks: []domain.ComposerTask{}}

	m, _ = update(t, m, MsgSubmitDone{Session: s, Err: planErr})

	assert.Equal(t, planErr, m.Err())
	assert.True(t, m.finished())
	assert.Contains(t, m.View(), "planning failed: backend down")
}
