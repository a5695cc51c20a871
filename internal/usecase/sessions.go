package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// ListSessionsInput contains the parameters for listing sessions.
type ListSessionsInput struct {
	Status domain.SessionStatus // Filter by status (empty = all)
	Limit  int                  // Maximum sessions returned (0 = all)
}

// ListSessionsOutput contains the result of listing sessions.
type ListSessionsOutput struct {
	Sessions []*domain.ComposerSession // Newest first
}

// ListSessions is the use case for listing composer session history.
type ListSessions struct {
	history domain.SessionRepository
}

// NewListSessions creates a new ListSessions use case.
func NewListSessions(history domain.SessionRepository) *ListSessions {
	return &ListSessions{history: history}
}

// Execute lists sessions matching the input criteria.
func (uc *ListSessions) Execute(_ context.Context, in ListSessionsInput) (*ListSessionsOutput, error) {
	sessions, err := uc.history.List()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]*domain.ComposerSession, 0, len(sessions))
	for _, s := range sessions {
		if in.Status != "" && s.Status != in.Status {
			continue
		}
		out = append(out, s)
		if in.Limit > 0 && len(out) == in.Limit {
			break
		}
	}
	return &ListSessionsOutput{Sessions: out}, nil
}

// ShowSessionInput contains the parameters for showing a session.
type ShowSessionInput struct {
	ID string // Full ID or unique prefix
}

// ShowSessionOutput contains the session.
type ShowSessionOutput struct {
	Session *domain.ComposerSession
}

// ShowSession is the use case for displaying one session from history.
type ShowSession struct {
	history domain.SessionRepository
}

// NewShowSession creates a new ShowSession use case.
func NewShowSession(history domain.SessionRepository) *ShowSession {
	return &ShowSession{history: history}
}

// Execute finds the session by exact ID, falling back to a unique ID prefix.
func (uc *ShowSession) Execute(_ context.Context, in ShowSessionInput) (*ShowSessionOutput, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	session, err := uc.history.Get(id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session != nil {
		return &ShowSessionOutput{Session: session}, nil
	}

	sessions, err := uc.history.List()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var matches []*domain.ComposerSession
	for _, s := range sessions {
		if strings.HasPrefix(s.ID, id) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	case 1:
		return &ShowSessionOutput{Session: matches[0]}, nil
	default:
		return nil, fmt.Errorf("%w: session id %q is ambiguous (%d matches)", domain.ErrInvalidInput, id, len(matches))
	}
}
