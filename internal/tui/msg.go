package tui

import (
	"github.com/runoshun/ghostwriter/internal/composer"
	"github.com/runoshun/ghostwriter/internal/domain"
)

// Msg is the sealed interface for all TUI messages.
// All message types must implement the sealed() method.
//
// go-sumtype:decl Msg
type Msg interface {
	sealed()
}

// MsgEvent carries a composer event published by the orchestrator.
type MsgEvent struct {
	Event composer.Event
}

func (MsgEvent) sealed() {}

// MsgSubmitDone is sent when Submit returns.
type MsgSubmitDone struct {
	Session *domain.ComposerSession
	Err     error
}

func (MsgSubmitDone) sealed() {}

// MsgAcceptDone is sent when AcceptRemaining returns.
type MsgAcceptDone struct {
	Session *domain.ComposerSession
	Err     error
}

func (MsgAcceptDone) sealed() {}
