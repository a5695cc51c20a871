// Package tui provides the terminal progress view for a composer session.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/ghostwriter/internal/composer"
	"github.com/runoshun/ghostwriter/internal/domain"
)

// Controller is the orchestrator surface the view drives.
type Controller interface {
	Submit(ctx context.Context, prompt string, selectedFiles []string) (*domain.ComposerSession, error)
	AcceptRemaining(ctx context.Context) (*domain.ComposerSession, error)
	Reject() error
	SubscribeAll(h composer.Handler) string
	Unsubscribe(id string) bool
}

// Model is the Bubble Tea model for a composer run.
// Fields are ordered to minimize memory padding.
type Model struct {
	ctx      context.Context
	ctrl     Controller
	err      error
	session  *domain.ComposerSession
	events   chan composer.Event
	done     chan struct{}
	styles   Styles
	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	prompt   string
	subID    string
	files    []string
	width    int
	busy     bool // Submit or AcceptRemaining is running
	rejected bool
	quitting bool
}

// New creates a model that submits prompt when the program starts.
func New(ctx context.Context, ctrl Controller, prompt string, selectedFiles []string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = DefaultStyles().StatusInProgress

	m := &Model{
		ctx:     ctx,
		ctrl:    ctrl,
		prompt:  prompt,
		files:   selectedFiles,
		events:  make(chan composer.Event, 16),
		done:    make(chan struct{}),
		styles:  DefaultStyles(),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
	}
	m.subID = ctrl.SubscribeAll(m.forward)
	return m
}

// forward hands orchestrator events to the program loop until the view closes.
func (m *Model) forward(ev composer.Event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

// Init starts the spinner, the submission and the event listener.
func (m *Model) Init() tea.Cmd {
	m.busy = true
	return tea.Batch(m.spinner.Tick, m.submit(), m.waitForEvent())
}

// Session returns the latest session snapshot.
func (m *Model) Session() *domain.ComposerSession {
	return m.session
}

// Err returns the error reported by the last orchestrator call.
func (m *Model) Err() error {
	return m.err
}

// Rejected reports whether the session was discarded from the view.
func (m *Model) Rejected() bool {
	return m.rejected
}

// Close detaches the view from the orchestrator.
func (m *Model) Close() {
	select {
	case <-m.done:
	default:
		close(m.done)
		m.ctrl.Unsubscribe(m.subID)
	}
}

func (m *Model) submit() tea.Cmd {
	ctrl, ctx, prompt, files := m.ctrl, m.ctx, m.prompt, m.files
	return func() tea.Msg {
		s, err := ctrl.Submit(ctx, prompt, files)
		return MsgSubmitDone{Session: s, Err: err}
	}
}

func (m *Model) acceptRemaining() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		s, err := ctrl.AcceptRemaining(ctx)
		return MsgAcceptDone{Session: s, Err: err}
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events, done := m.events, m.done
	return func() tea.Msg {
		select {
		case ev := <-events:
			return MsgEvent{Event: ev}
		case <-done:
			return nil
		}
	}
}

// awaitingDecision reports whether pending tasks wait for accept or reject.
func (m *Model) awaitingDecision() bool {
	if m.busy || m.rejected || m.session == nil {
		return false
	}
	return m.session.CountByStatus(domain.TaskPending) > 0 &&
		(m.session.Status == domain.SessionExecuting || m.session.Status == domain.SessionFailed)
}

// finished reports whether nothing more can happen in this view.
func (m *Model) finished() bool {
	if m.busy {
		return false
	}
	return m.rejected || m.session == nil || !m.awaitingDecision()
}
