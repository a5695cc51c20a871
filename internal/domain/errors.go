package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy.
var (
	ErrRequestFailed       = errors.New("request failed")
	ErrTaskExecutionFailed = errors.New("task execution failed")
	ErrInvalidInput        = errors.New("invalid input")
)

// Domain errors.
var (
	ErrBlankPrompt          = fmt.Errorf("%w: prompt cannot be blank", ErrInvalidInput)
	ErrSessionActive        = fmt.Errorf("%w: a composer session is already running", ErrInvalidInput)
	ErrInvalidFailurePolicy = fmt.Errorf("%w: failure policy must be %q or %q", ErrInvalidInput, PolicyContinue, PolicyFailFast)
	ErrNoSession            = errors.New("no composer session")
	ErrSessionRejected      = errors.New("composer session rejected")
	ErrUnsupportedTaskKind  = errors.New("unsupported task kind")
	ErrMissingContent       = errors.New("task has no new content")
	ErrFileExists           = errors.New("file already exists")
	ErrFileNotFound         = errors.New("file not found")
	ErrPathOutsideWorkspace = errors.New("path is outside the workspace")
	ErrSessionNotFound      = errors.New("session not found")
	ErrConfigExists         = errors.New("config file already exists")
	ErrInvalidConfig        = errors.New("invalid configuration")
)
