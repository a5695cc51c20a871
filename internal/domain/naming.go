package domain

import "path/filepath"

// Workspace layout names.
const (
	DirName        = ".ghostwriter"
	ConfigFileName = "config.toml"
	AppName        = "ghostwriter"
)

// RepoDir returns the per-workspace state directory.
func RepoDir(root string) string {
	return filepath.Join(root, DirName)
}

// RepoConfigPath returns the repository config file path.
func RepoConfigPath(root string) string {
	return filepath.Join(RepoDir(root), ConfigFileName)
}

// GlobalDir returns the global config directory under configHome (e.g. ~/.config).
func GlobalDir(configHome string) string {
	return filepath.Join(configHome, AppName)
}

// LogPath returns the path to the log file.
func LogPath(root string) string {
	return filepath.Join(RepoDir(root), "logs", AppName+".log")
}

// SessionsStorePath returns the path to the session history file.
func SessionsStorePath(root string) string {
	return filepath.Join(RepoDir(root), "sessions.json")
}
