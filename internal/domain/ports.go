package domain

import (
	"context"
	"time"
)

// SuggestionClient fetches inline suggestions from the AI backend.
type SuggestionClient interface {
	// FetchInlineSuggestion returns nil (and no error) when the backend has nothing to offer.
	FetchInlineSuggestion(ctx context.Context, req SuggestionRequest) (*SuggestionResponse, error)
}

// PlanRequest is the planning input sent to the AI backend.
type PlanRequest struct {
	Prompt        string     // Prompt after rule rewriting
	SelectedFiles []string   // Files the user attached to the prompt
	Project       []FileNode // Project tree snapshot
}

// PlanClient asks the AI backend to plan a prompt into file-level tasks.
type PlanClient interface {
	// PlanChanges returns the ordered task list. Order is significant.
	PlanChanges(ctx context.Context, req PlanRequest) ([]ComposerTask, error)
}

// FileStore is the workspace file persistence layer.
type FileStore interface {
	// ReadFile returns the content of a file.
	ReadFile(ctx context.Context, path string) (string, error)

	// WriteFile overwrites (or creates) a file.
	WriteFile(ctx context.Context, path, content string) error

	// CreateFile creates a new file. Fails with ErrFileExists if the path exists.
	CreateFile(ctx context.Context, path, content string) error

	// DeleteFile removes a file or directory. Fails with ErrFileNotFound if missing.
	DeleteFile(ctx context.Context, path string) error

	// ListProjectTree returns the project snapshot.
	ListProjectTree(ctx context.Context) ([]FileNode, error)
}

// PromptRewriter applies rule configuration to a prompt before planning.
type PromptRewriter interface {
	// Rewrite returns the prompt that should be sent to the planner.
	Rewrite(prompt string, selectedFiles []string) string
}

// Editor is the host text-editing widget the suggestion engine drives.
// Implementations must be safe for use from the engine's timer goroutine.
type Editor interface {
	// Text returns the full document text.
	Text() string

	// FilePath returns the path of the active document.
	FilePath() string

	// CursorPosition returns the current cursor position.
	CursorPosition() Position

	// Selection returns the selected range, if any.
	Selection() (Range, bool)

	// InsertText replaces r with text.
	InsertText(r Range, text string) error

	// SetCursorPosition moves the cursor.
	SetCursorPosition(p Position)

	// RenderOverlay shows ghost text anchored at r without changing the document.
	RenderOverlay(text string, r Range)

	// ClearOverlay removes any ghost text.
	ClearOverlay()
}

// SessionRepository persists finished composer sessions.
type SessionRepository interface {
	// Save creates or updates a session.
	Save(session *ComposerSession) error

	// Get retrieves a session by ID. Returns nil if not found.
	Get(id string) (*ComposerSession, error)

	// List returns sessions, newest first.
	List() ([]*ComposerSession, error)
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (defaults <- global <- repo).
	Load() (*Config, error)
}

// ConfigManager manages configuration files.
type ConfigManager interface {
	// RepoConfigInfo returns information about the repository config file.
	RepoConfigInfo() ConfigInfo

	// GlobalConfigInfo returns information about the global config file.
	GlobalConfigInfo() ConfigInfo

	// InitRepo writes the config template to the repository config path.
	// Fails with ErrConfigExists unless force is set.
	InitRepo(force bool) error
}

// Timer is a cancellable delayed action.
type Timer interface {
	// Stop cancels the action. Returns false if it already fired or was stopped.
	Stop() bool
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc runs f on its own goroutine once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// AfterFunc wraps time.AfterFunc.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
