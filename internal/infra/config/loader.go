// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/runoshun/ghostwriter/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	stateDir      string // Path to .ghostwriter directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/ghostwriter)
}

// NewLoader creates a new Loader.
func NewLoader(stateDir string) *Loader {
	return &Loader{
		stateDir:      stateDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(stateDir, globalConfDir string) *Loader {
	return &Loader{
		stateDir:      stateDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalDir(configHome)
}

// Load returns the merged configuration: defaults <- global <- repo.
// Keys present in a later file override earlier values; absent keys keep them.
func (l *Loader) Load() (*domain.Config, error) {
	cfg := domain.NewDefaultConfig()
	var warnings []string

	paths := []string{filepath.Join(l.stateDir, domain.ConfigFileName)}
	if l.globalConfDir != "" {
		paths = append([]string{filepath.Join(l.globalConfDir, domain.ConfigFileName)}, paths...)
	}

	for _, path := range paths {
		raw, err := readRaw(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, applyRaw(cfg, raw)...)
	}

	sort.Strings(warnings)
	cfg.Warnings = warnings
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readRaw parses a TOML file into a generic map.
func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, path, err)
	}
	return raw, nil
}

// applyRaw overlays the keys present in raw onto cfg and returns warnings for
// unknown sections, unknown keys and mistyped values.
func applyRaw(cfg *domain.Config, raw map[string]any) []string {
	var w warnings

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			w.add("unknown section: %s", section)
			continue
		}
		switch section {
		case "suggest":
			for k, v := range m {
				switch k {
				case "enabled":
					w.setBool(section, k, v, &cfg.Suggest.Enabled)
				case "debounce_ms":
					w.setInt(section, k, v, &cfg.Suggest.DebounceMS)
				case "min_interval_ms":
					w.setInt(section, k, v, &cfg.Suggest.MinIntervalMS)
				case "movement_tolerance":
					w.setInt(section, k, v, &cfg.Suggest.MovementTolerance)
				case "request_timeout_ms":
					w.setInt(section, k, v, &cfg.Suggest.RequestTimeoutMS)
				default:
					w.unknown(section, k)
				}
			}
		case "composer":
			for k, v := range m {
				switch k {
				case "failure_policy":
					var s string
					if w.setString(section, k, v, &s) {
						cfg.Composer.FailurePolicy = domain.FailurePolicy(s)
					}
				case "auto_execute":
					w.setBool(section, k, v, &cfg.Composer.AutoExecute)
				case "history_limit":
					w.setInt(section, k, v, &cfg.Composer.HistoryLimit)
				default:
					w.unknown(section, k)
				}
			}
		case "backend":
			for k, v := range m {
				switch k {
				case "url":
					w.setString(section, k, v, &cfg.Backend.URL)
				case "timeout_sec":
					w.setInt(section, k, v, &cfg.Backend.TimeoutSec)
				default:
					w.unknown(section, k)
				}
			}
		case "workspace":
			for k, v := range m {
				switch k {
				case "rules_file":
					w.setString(section, k, v, &cfg.Workspace.RulesFile)
				case "respect_gitignore":
					w.setBool(section, k, v, &cfg.Workspace.RespectGitignore)
				default:
					w.unknown(section, k)
				}
			}
		case "log":
			for k, v := range m {
				switch k {
				case "level":
					w.setString(section, k, v, &cfg.Log.Level)
				default:
					w.unknown(section, k)
				}
			}
		default:
			w.add("unknown section: %s", section)
		}
	}
	return w
}

// warnings collects non-fatal config problems.
type warnings []string

func (w *warnings) add(format string, args ...any) {
	*w = append(*w, fmt.Sprintf(format, args...))
}

func (w *warnings) unknown(section, key string) {
	w.add("unknown key in [%s]: %s", section, key)
}

func (w *warnings) invalid(section, key, want string) {
	w.add("invalid value for [%s].%s: expected %s", section, key, want)
}

func (w *warnings) setString(section, key string, v any, dst *string) bool {
	s, ok := v.(string)
	if !ok {
		w.invalid(section, key, "string")
		return false
	}
	*dst = s
	return true
}

func (w *warnings) setBool(section, key string, v any, dst *bool) {
	b, ok := v.(bool)
	if !ok {
		w.invalid(section, key, "boolean")
		return
	}
	*dst = b
}

func (w *warnings) setInt(section, key string, v any, dst *int) {
	n, ok := v.(int64)
	if !ok {
		w.invalid(section, key, "integer")
		return
	}
	*dst = int(n)
}

// Render encodes the effective configuration as TOML.
func Render(cfg *domain.Config) (string, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
