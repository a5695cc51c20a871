package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// FileType distinguishes files from directories in a project snapshot.
type FileType string

// File types.
const (
	FileTypeFile      FileType = "file"
	FileTypeDirectory FileType = "directory"
)

// FileNode is one entry of the project tree snapshot.
// Fields are ordered to minimize memory padding.
type FileNode struct {
	Modified time.Time  `json:"modified"`
	Name     string     `json:"name"`
	Path     string     `json:"path"` // Workspace-relative, slash separated
	Type     FileType   `json:"type"`
	Children []FileNode `json:"children,omitempty"`
	Size     int64      `json:"size,omitempty"`
}

// IsDir returns true for directory nodes.
func (n FileNode) IsDir() bool {
	return n.Type == FileTypeDirectory
}

// Walk calls fn for every node in depth-first order.
func Walk(nodes []FileNode, fn func(FileNode)) {
	for _, n := range nodes {
		fn(n)
		Walk(n.Children, fn)
	}
}

// LanguagePlaintext is reported for unknown extensions.
const LanguagePlaintext = "plaintext"

var languageByExt = map[string]string{
	".py":       "python",
	".js":       "javascript",
	".jsx":      "javascript",
	".ts":       "typescript",
	".tsx":      "typescript",
	".java":     "java",
	".cpp":      "cpp",
	".cc":       "cpp",
	".cxx":      "cpp",
	".c":        "c",
	".cs":       "csharp",
	".php":      "php",
	".rb":       "ruby",
	".go":       "go",
	".rs":       "rust",
	".html":     "html",
	".htm":      "html",
	".css":      "css",
	".scss":     "scss",
	".sass":     "scss",
	".json":     "json",
	".xml":      "xml",
	".yml":      "yaml",
	".yaml":     "yaml",
	".md":       "markdown",
	".markdown": "markdown",
	".sql":      "sql",
	".sh":       "shell",
	".bash":     "shell",
	".zsh":      "shell",
}

// LanguageForPath returns the language ID for a file name based on its extension.
func LanguageForPath(path string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LanguagePlaintext
}
