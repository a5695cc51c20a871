package domain

import "strings"

// SuggestionKind describes the shape of a suggestion. It only affects rendering.
type SuggestionKind string

// Suggestion kinds.
const (
	KindCompletion SuggestionKind = "completion" // Single-line continuation
	KindLine       SuggestionKind = "line"       // Two or three lines
	KindBlock      SuggestionKind = "block"      // More than three lines
)

// ClassifyKind derives the suggestion kind from its text.
func ClassifyKind(text string) SuggestionKind {
	lines := strings.Count(text, "\n") + 1
	switch {
	case lines > 3:
		return KindBlock
	case lines > 1:
		return KindLine
	default:
		return KindCompletion
	}
}

// InlineSuggestion is the single live ghost-text suggestion.
// Fields are ordered to minimize memory padding.
type InlineSuggestion struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Kind       SuggestionKind `json:"kind"`
	Range      Range          `json:"range"`
	Confidence float64        `json:"confidence"`
}

// NewInlineSuggestion builds a suggestion anchored at p. Confidence is clamped to [0,1].
func NewInlineSuggestion(id, text string, confidence float64, p Position) InlineSuggestion {
	return InlineSuggestion{
		ID:         id,
		Text:       text,
		Kind:       ClassifyKind(text),
		Range:      Range{Start: p, End: p.Advance(text)},
		Confidence: clampUnit(confidence),
	}
}

// Anchor returns the insertion point of the suggestion.
func (s InlineSuggestion) Anchor() Position {
	return s.Range.Start
}

// NextToken splits the leading token off the suggestion text: any leading whitespace
// run followed by the first non-whitespace run. rest is what remains after it.
func (s InlineSuggestion) NextToken() (token, rest string) {
	text := s.Text
	i := 0
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	for i < len(text) && !isSpace(text[i]) {
		i++
	}
	return text[:i], text[i:]
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SuggestionRequest is the snapshot sent to the suggestion endpoint.
// Fields are ordered to minimize memory padding.
type SuggestionRequest struct {
	Code         string   // Full document text
	Language     string   // Language ID derived from the file name
	BeforeCursor string   // Line text before the cursor
	AfterCursor  string   // Line text after the cursor
	FileName     string   // Active file path
	Position     Position // Cursor position
}

// SuggestionResponse is the endpoint reply. A nil response means "no suggestion".
type SuggestionResponse struct {
	Text       string
	Confidence float64
}
