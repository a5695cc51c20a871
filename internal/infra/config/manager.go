package config

import (
	"os"
	"path/filepath"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// Ensure Manager implements domain.ConfigManager.
var _ domain.ConfigManager = (*Manager)(nil)

// Manager manages configuration files.
type Manager struct {
	stateDir      string // Path to .ghostwriter directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/ghostwriter)
}

// NewManager creates a new Manager.
func NewManager(stateDir string) *Manager {
	return &Manager{
		stateDir:      stateDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewManagerWithGlobalDir creates a new Manager with a custom global config directory.
// This is useful for testing.
func NewManagerWithGlobalDir(stateDir, globalConfDir string) *Manager {
	return &Manager{
		stateDir:      stateDir,
		globalConfDir: globalConfDir,
	}
}

// RepoConfigInfo returns information about the repository config file.
func (m *Manager) RepoConfigInfo() domain.ConfigInfo {
	return m.configInfo(filepath.Join(m.stateDir, domain.ConfigFileName))
}

// GlobalConfigInfo returns information about the global config file.
func (m *Manager) GlobalConfigInfo() domain.ConfigInfo {
	if m.globalConfDir == "" {
		return domain.ConfigInfo{}
	}
	return m.configInfo(filepath.Join(m.globalConfDir, domain.ConfigFileName))
}

// configInfo reads a config file and returns its info.
func (m *Manager) configInfo(path string) domain.ConfigInfo {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.ConfigInfo{Path: path}
	}
	return domain.ConfigInfo{
		Path:    path,
		Content: string(content),
		Exists:  true,
	}
}

// InitRepo creates the repository config file from the default template.
func (m *Manager) InitRepo(force bool) error {
	path := filepath.Join(m.stateDir, domain.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return domain.ErrConfigExists
	}
	if err := os.MkdirAll(m.stateDir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(domain.ConfigTemplate()), 0o600)
}
