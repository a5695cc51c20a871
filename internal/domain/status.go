package domain

import "slices"

// TaskStatus represents the lifecycle state of a composer task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"     // Planned, not yet applied
	TaskInProgress TaskStatus = "in_progress" // Effect is being applied
	TaskCompleted  TaskStatus = "completed"   // Effect applied
	TaskFailed     TaskStatus = "failed"      // Effect returned an error
)

// taskTransitions defines the allowed task status transitions.
// Flow: pending → in_progress → completed | failed
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending:    {TaskInProgress},
	TaskInProgress: {TaskCompleted, TaskFailed},
	TaskCompleted:  {},
	TaskFailed:     {},
}

// CanTransitionTo returns true if the task status can transition to the target status.
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	return slices.Contains(taskTransitions[s], target)
}

// IsTerminal returns true once the task can no longer change.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// IsValid returns true if the status is a known value.
func (s TaskStatus) IsValid() bool {
	_, ok := taskTransitions[s]
	return ok
}

// Display returns a human-readable representation of the status.
func (s TaskStatus) Display() string {
	switch s {
	case TaskPending:
		return "Pending"
	case TaskInProgress:
		return "In Progress"
	case TaskCompleted:
		return "Completed"
	case TaskFailed:
		return "Failed"
	default:
		return string(s)
	}
}

// SessionStatus represents the lifecycle state of a composer session.
type SessionStatus string

const (
	SessionPlanning  SessionStatus = "planning"  // Waiting for the task list
	SessionExecuting SessionStatus = "executing" // Task list received, tasks being applied
	SessionCompleted SessionStatus = "completed" // Every task completed
	SessionFailed    SessionStatus = "failed"    // Planning failed or at least one task failed
)

// sessionTransitions defines the allowed session status transitions.
// Flow: planning → executing → completed | failed
//
//	planning ──(plan request failed)──> failed
//	failed ──(acceptRemaining)──> executing
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionPlanning:  {SessionExecuting, SessionFailed},
	SessionExecuting: {SessionCompleted, SessionFailed},
	SessionCompleted: {},
	SessionFailed:    {SessionExecuting},
}

// CanTransitionTo returns true if the session status can transition to the target status.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	return slices.Contains(sessionTransitions[s], target)
}

// IsTerminal returns true if the session is finished.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// IsActive returns true while the session blocks new submissions.
func (s SessionStatus) IsActive() bool {
	return s == SessionPlanning || s == SessionExecuting
}

// IsValid returns true if the status is a known value.
func (s SessionStatus) IsValid() bool {
	_, ok := sessionTransitions[s]
	return ok
}

// Display returns a human-readable representation of the status.
func (s SessionStatus) Display() string {
	switch s {
	case SessionPlanning:
		return "Planning"
	case SessionExecuting:
		return "Executing"
	case SessionCompleted:
		return "Completed"
	case SessionFailed:
		return "Failed"
	default:
		return string(s)
	}
}
