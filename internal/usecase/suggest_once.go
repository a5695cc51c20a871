package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/runoshun/ghostwriter/internal/suggest"
)

// Document is a headless editor the suggest use case can render.
type Document interface {
	domain.Editor
	// Preview returns the text with the ghost text spliced in between open and close.
	Preview(open, close string) string
}

// DocumentFactory opens a document for path holding text.
type DocumentFactory func(path, text string) Document

// SuggestOnceInput contains the parameters for a one-shot suggestion.
// Fields are ordered to minimize memory padding.
type SuggestOnceInput struct {
	Path        string          // Workspace-relative file path
	GhostOpen   string          // Marker before ghost text in the preview
	GhostClose  string          // Marker after ghost text in the preview
	Position    domain.Position // Zero-based cursor position
	AcceptWords int             // Accept this many tokens (0 = none)
	Accept      bool            // Accept the whole suggestion
	Write       bool            // Save the accepted result back to the file
}

// SuggestOnceOutput contains the suggestion and the resulting document.
// Fields are ordered to minimize memory padding.
type SuggestOnceOutput struct {
	Suggestion *domain.InlineSuggestion // Nil when the backend offered nothing
	Preview    string                   // Document with the remaining ghost text marked
	Text       string                   // Document after any accepts
	Accepted   []string                 // Inserted chunks, in order
	Cursor     domain.Position
	Written    bool
}

// SuggestOnce requests a single inline suggestion for a file position,
// optionally accepting it, through the same engine an editor uses.
type SuggestOnce struct {
	client domain.SuggestionClient
	files  domain.FileStore
	open   DocumentFactory
	logger *slog.Logger
	cfg    domain.SuggestConfig
}

// NewSuggestOnce creates a new SuggestOnce use case.
func NewSuggestOnce(
	client domain.SuggestionClient,
	files domain.FileStore,
	open DocumentFactory,
	cfg domain.SuggestConfig,
	logger *slog.Logger,
) *SuggestOnce {
	return &SuggestOnce{
		client: client,
		files:  files,
		open:   open,
		cfg:    cfg,
		logger: logger,
	}
}

// Execute runs the request and the requested accepts.
func (uc *SuggestOnce) Execute(ctx context.Context, in SuggestOnceInput) (*SuggestOnceOutput, error) {
	if in.Path == "" {
		return nil, fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
	}
	if in.Position.Line < 0 || in.Position.Column < 0 {
		return nil, fmt.Errorf("%w: position must not be negative", domain.ErrInvalidInput)
	}
	if in.AcceptWords < 0 {
		return nil, fmt.Errorf("%w: accept words must not be negative", domain.ErrInvalidInput)
	}

	text, err := uc.files.ReadFile(ctx, in.Path)
	if err != nil {
		return nil, err
	}
	doc := uc.open(in.Path, text)
	doc.SetCursorPosition(in.Position)

	out := &SuggestOnceOutput{}
	engine := suggest.New(uc.client, doc, suggest.Options{
		Config:   uc.cfg,
		Logger:   uc.logger,
		OnAccept: func(s string) { out.Accepted = append(out.Accepted, s) },
	})
	defer engine.Close()

	engine.Trigger()
	if s, ok := engine.Current(); ok {
		out.Suggestion = &s
	}

	switch {
	case in.Accept:
		engine.Accept()
	case in.AcceptWords > 0:
		for range in.AcceptWords {
			if !engine.AcceptPartial() {
				break
			}
		}
	}

	out.Text = doc.Text()
	out.Cursor = doc.CursorPosition()
	out.Preview = doc.Preview(in.GhostOpen, in.GhostClose)

	if in.Write && len(out.Accepted) > 0 {
		if err := uc.files.WriteFile(ctx, in.Path, out.Text); err != nil {
			return nil, fmt.Errorf("save accepted suggestion: %w", err)
		}
		out.Written = true
	}
	return out, nil
}
