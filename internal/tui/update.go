package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case MsgEvent:
		if !m.rejected && msg.Event.Session != nil {
			m.session = msg.Event.Session
		}
		return m, m.waitForEvent()

	case MsgSubmitDone:
		m.busy = false
		m.settle(msg.Session, msg.Err)
		return m, nil

	case MsgAcceptDone:
		m.busy = false
		m.settle(msg.Session, msg.Err)
		return m, nil
	}
	return m, nil
}

func (m *Model) settle(s *domain.ComposerSession, err error) {
	if errors.Is(err, domain.ErrSessionRejected) {
		m.rejected = true
		return
	}
	if s != nil && !m.rejected {
		m.session = s
	}
	m.err = err
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.busy || m.awaitingDecision() {
			m.reject()
		}
		m.quitting = true
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Accept):
		if !m.awaitingDecision() {
			return m, nil
		}
		m.busy = true
		m.err = nil
		return m, m.acceptRemaining()

	case key.Matches(msg, m.keys.Reject):
		if m.rejected || (!m.busy && !m.awaitingDecision()) {
			return m, nil
		}
		m.reject()
		return m, nil
	}
	return m, nil
}

func (m *Model) reject() {
	if err := m.ctrl.Reject(); err != nil && !errors.Is(err, domain.ErrNoSession) {
		m.err = err
		return
	}
	m.rejected = true
}
