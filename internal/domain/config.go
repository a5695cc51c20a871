package domain

import (
	_ "embed"
	"fmt"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// ConfigTemplate returns the commented configuration template written by `config init`.
func ConfigTemplate() string {
	return configTemplateContent
}

// ConfigInfo describes a config file on disk.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings  []string        `toml:"-"`
	Backend   BackendConfig   `toml:"backend"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Log       LogConfig       `toml:"log"`
	Composer  ComposerConfig  `toml:"composer"`
	Suggest   SuggestConfig   `toml:"suggest"`
}

// SuggestConfig holds inline suggestion settings from the [suggest] section.
type SuggestConfig struct {
	DebounceMS        int  `toml:"debounce_ms"`        // Quiet period before a request fires
	MinIntervalMS     int  `toml:"min_interval_ms"`    // Minimum gap between two requests
	MovementTolerance int  `toml:"movement_tolerance"` // Same-line columns the cursor may move before dismissal
	RequestTimeoutMS  int  `toml:"request_timeout_ms"` // Per-request deadline
	Enabled           bool `toml:"enabled"`
}

// Debounce returns the debounce delay.
func (c SuggestConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// MinInterval returns the minimum interval between requests.
func (c SuggestConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

// RequestTimeout returns the per-request deadline. Zero means none.
func (c SuggestConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// ComposerConfig holds composer settings from the [composer] section.
type ComposerConfig struct {
	FailurePolicy FailurePolicy `toml:"failure_policy"` // "continue" or "fail-fast"
	HistoryLimit  int           `toml:"history_limit"`  // Sessions kept in history
	AutoExecute   bool          `toml:"auto_execute"`   // Run tasks right after planning
}

// BackendConfig holds AI backend settings from the [backend] section.
type BackendConfig struct {
	URL        string `toml:"url"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// Timeout returns the HTTP client timeout.
func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// WorkspaceConfig holds workspace settings from the [workspace] section.
type WorkspaceConfig struct {
	RulesFile        string `toml:"rules_file"`        // Prompt rules, relative to the workspace root
	RespectGitignore bool   `toml:"respect_gitignore"` // Hide .gitignore matches from the project snapshot
}

// LogConfig holds logging settings from the [log] section.
type LogConfig struct {
	Level string `toml:"level"` // Log level: debug, info, warn, error
}

// Default configuration values.
const (
	DefaultDebounceMS        = 300
	DefaultMinIntervalMS     = 100
	DefaultMovementTolerance = 2
	DefaultRequestTimeoutMS  = 5000
	DefaultHistoryLimit      = 100
	DefaultBackendURL        = "http://127.0.0.1:8000"
	DefaultBackendTimeoutSec = 60
	DefaultRulesFile         = ".ghostwriter/rules.yaml"
	DefaultLogLevel          = "info"
)

// NewDefaultConfig returns a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Suggest: SuggestConfig{
			Enabled:           true,
			DebounceMS:        DefaultDebounceMS,
			MinIntervalMS:     DefaultMinIntervalMS,
			MovementTolerance: DefaultMovementTolerance,
			RequestTimeoutMS:  DefaultRequestTimeoutMS,
		},
		Composer: ComposerConfig{
			FailurePolicy: PolicyContinue,
			AutoExecute:   true,
			HistoryLimit:  DefaultHistoryLimit,
		},
		Backend: BackendConfig{
			URL:        DefaultBackendURL,
			TimeoutSec: DefaultBackendTimeoutSec,
		},
		Workspace: WorkspaceConfig{
			RulesFile:        DefaultRulesFile,
			RespectGitignore: true,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Suggest.DebounceMS < 0:
		return fmt.Errorf("%w: suggest.debounce_ms must not be negative", ErrInvalidConfig)
	case c.Suggest.MinIntervalMS < 0:
		return fmt.Errorf("%w: suggest.min_interval_ms must not be negative", ErrInvalidConfig)
	case c.Suggest.MovementTolerance < 0:
		return fmt.Errorf("%w: suggest.movement_tolerance must not be negative", ErrInvalidConfig)
	case c.Suggest.RequestTimeoutMS < 0:
		return fmt.Errorf("%w: suggest.request_timeout_ms must not be negative", ErrInvalidConfig)
	case c.Composer.HistoryLimit < 0:
		return fmt.Errorf("%w: composer.history_limit must not be negative", ErrInvalidConfig)
	case c.Backend.TimeoutSec < 0:
		return fmt.Errorf("%w: backend.timeout_sec must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseFailurePolicy(string(c.Composer.FailurePolicy)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
