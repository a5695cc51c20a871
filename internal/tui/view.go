package tui

import (
	"fmt"
	"strings"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Header.Render("ghostwriter compose"))
	b.WriteString("\n")
	b.WriteString(m.styles.Prompt.Render(m.prompt))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	if m.session != nil && !m.rejected {
		for i, t := range m.session.Tasks {
			b.WriteString(m.taskLine(i, t))
			b.WriteString("\n")
		}
		if m.session.Error != "" {
			b.WriteString(m.styles.ErrorMsg.Render("planning failed: " + m.session.Error))
			b.WriteString("\n")
		}
	}

	if m.err != nil && (m.session == nil || m.session.Error == "") {
		b.WriteString(m.styles.ErrorMsg.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	if m.awaitingDecision() {
		n := m.session.CountByStatus(domain.TaskPending)
		b.WriteString(m.styles.Notice.Render(fmt.Sprintf("%d task(s) pending: accept or reject", n)))
		b.WriteString("\n")
	}

	if m.finished() {
		b.WriteString(m.styles.Notice.Render("finished, press q to exit"))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))
	return m.styles.App.Render(b.String())
}

func (m *Model) statusLine() string {
	switch {
	case m.rejected:
		return m.styles.Notice.Render("rejected")
	case m.session == nil:
		return m.spinner.View() + " starting"
	}

	status := m.styles.SessionStatusStyle(m.session.Status).Render(m.session.Status.Display())
	done := m.session.CountByStatus(domain.TaskCompleted)
	failed := m.session.CountByStatus(domain.TaskFailed)
	summary := fmt.Sprintf("%d/%d done", done, len(m.session.Tasks))
	if failed > 0 {
		summary += fmt.Sprintf(", %d failed", failed)
	}

	line := m.styles.Session.Render(shortID(m.session.ID)) + " " + status + "  " + summary
	if m.busy {
		line = m.spinner.View() + " " + line
	}
	return line
}

func (m *Model) taskLine(i int, t domain.ComposerTask) string {
	badge := m.styles.TaskStatusStyle(t.Status).Render(fmt.Sprintf("%-11s", t.Status.Display()))
	line := fmt.Sprintf("%2d. %s %s %s", i+1, badge, m.styles.TaskKind.Render(string(t.Kind)), m.styles.TaskPath.Render(t.FilePath))
	if t.Changes != "" {
		line += "  " + m.styles.Changes.Render(t.Changes)
	}
	if t.Error != "" {
		line += "\n" + m.styles.TaskDesc.Render(m.styles.ErrorMsg.Render(t.Error))
	} else if t.Description != "" {
		line += "\n" + m.styles.TaskDesc.Render(t.Description)
	}
	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
