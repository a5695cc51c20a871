package domain

import (
	"strings"
	"time"
)

// TaskKind is the file-level effect a composer task applies.
type TaskKind string

// Task kinds.
const (
	TaskEdit   TaskKind = "edit"   // Overwrite an existing file with NewContent
	TaskCreate TaskKind = "create" // Create a new file with NewContent
	TaskDelete TaskKind = "delete" // Delete a file
	TaskMove   TaskKind = "move"   // Reserved; recognized but not supported
)

// IsValid returns true if the kind is recognized (including the reserved move kind).
func (k TaskKind) IsValid() bool {
	switch k {
	case TaskEdit, TaskCreate, TaskDelete, TaskMove:
		return true
	}
	return false
}

// ComposerTask is one planned file-level change.
// Fields are ordered to minimize memory padding.
type ComposerTask struct {
	OriginalContent *string    `json:"originalContent,omitempty"` // File content before the change
	NewContent      *string    `json:"newContent,omitempty"`      // File content after the change
	ID              string     `json:"id"`
	Kind            TaskKind   `json:"kind"`
	FilePath        string     `json:"filePath"`              // Workspace-relative path
	Description     string     `json:"description,omitempty"` // What the change does
	Changes         string     `json:"changes,omitempty"`     // Textual diff summary
	Status          TaskStatus `json:"status"`
	Error           string     `json:"error,omitempty"` // Failure reason when Status is failed
}

// Clone returns a deep copy of the task.
func (t ComposerTask) Clone() ComposerTask {
	c := t
	if t.OriginalContent != nil {
		s := *t.OriginalContent
		c.OriginalContent = &s
	}
	if t.NewContent != nil {
		s := *t.NewContent
		c.NewContent = &s
	}
	return c
}

// ComposerSession is one planning-and-execution cycle for a single prompt.
// Fields are ordered to minimize memory padding.
type ComposerSession struct {
	CreatedAt     time.Time      `json:"createdAt"`
	FinishedAt    time.Time      `json:"finishedAt,omitempty"`
	ID            string         `json:"id"`
	Prompt        string         `json:"prompt"`
	Status        SessionStatus  `json:"status"`
	Error         string         `json:"error,omitempty"` // Planning failure reason
	SelectedFiles []string       `json:"selectedFiles,omitempty"`
	Tasks         []ComposerTask `json:"tasks"`
}

// Clone returns a deep copy of the session.
func (s *ComposerSession) Clone() *ComposerSession {
	if s == nil {
		return nil
	}
	c := *s
	c.SelectedFiles = append([]string(nil), s.SelectedFiles...)
	c.Tasks = make([]ComposerTask, len(s.Tasks))
	for i, t := range s.Tasks {
		c.Tasks[i] = t.Clone()
	}
	return &c
}

// CountByStatus returns the number of tasks in the given status.
func (s *ComposerSession) CountByStatus(status TaskStatus) int {
	n := 0
	for _, t := range s.Tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// ResolveStatus computes the terminal status: completed only if every task completed.
// A session without tasks is completed.
func (s *ComposerSession) ResolveStatus() SessionStatus {
	for _, t := range s.Tasks {
		if t.Status != TaskCompleted {
			return SessionFailed
		}
	}
	return SessionCompleted
}

// FailurePolicy controls how the execution loop reacts to a failed task.
type FailurePolicy string

// Failure policies.
const (
	PolicyContinue FailurePolicy = "continue"  // Best-effort batch: record the failure, run the rest
	PolicyFailFast FailurePolicy = "fail-fast" // Stop at the first failure; later tasks stay pending
)

// ParseFailurePolicy parses a policy name. Empty selects PolicyContinue.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.TrimSpace(s)) {
	case "", PolicyContinue:
		return PolicyContinue, nil
	case PolicyFailFast:
		return PolicyFailFast, nil
	}
	return "", ErrInvalidFailurePolicy
}
