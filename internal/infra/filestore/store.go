// Package filestore provides workspace file persistence for composer tasks and the project snapshot.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// Ensure Store implements domain.FileStore.
var _ domain.FileStore = (*Store)(nil)

// skipNames are never included in the project snapshot.
var skipNames = []string{"node_modules", "__pycache__", ".git", "dist", "build"}

// Ignorer reports whether a workspace-relative path is excluded from the snapshot.
type Ignorer interface {
	Ignored(rel string, isDir bool) bool
}

// Store implements domain.FileStore on the local filesystem under a workspace root.
type Store struct {
	ignore Ignorer
	logger *slog.Logger
	root   string
}

// New creates a Store rooted at root. ignore may be nil.
func New(root string, ignore Ignorer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		root:   filepath.Clean(root),
		ignore: ignore,
		logger: logger.With("category", "filestore"),
	}
}

// Root returns the workspace root.
func (s *Store) Root() string {
	return s.root
}

// ReadFile returns the content of a file.
func (s *Store) ReadFile(ctx context.Context, path string) (string, error) {
	full, err := s.resolve(ctx, path)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return "", mapNotExist(path, err)
	}
	return string(content), nil
}

// WriteFile overwrites (or creates) a file, creating parent directories as needed.
func (s *Store) WriteFile(ctx context.Context, path, content string) error {
	full, err := s.resolve(ctx, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(full); err == nil {
		perm = info.Mode().Perm()
	}
	if err := writeAtomic(full, []byte(content), perm); err != nil {
		return err
	}
	s.logger.Debug("file written", "path", path, "bytes", len(content))
	return nil
}

// CreateFile creates a new file. Fails with domain.ErrFileExists if the path exists.
func (s *Store) CreateFile(ctx context.Context, path, content string) error {
	full, err := s.resolve(ctx, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	//nolint:gosec // path is confined to the workspace root by resolve
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", domain.ErrFileExists, path)
		}
		return fmt.Errorf("create file: %w", err)
	}
	if err := writeContent(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return fmt.Errorf("close file: %w", err)
	}
	s.logger.Debug("file created", "path", path, "bytes", len(content))
	return nil
}

// DeleteFile removes a file, or a directory with everything under it.
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	full, err := s.resolve(ctx, path)
	if err != nil {
		return err
	}
	info, err := os.Lstat(full)
	if err != nil {
		return mapNotExist(path, err)
	}
	if info.IsDir() {
		err = os.RemoveAll(full)
	} else {
		err = os.Remove(full)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	s.logger.Debug("file deleted", "path", path, "dir", info.IsDir())
	return nil
}

// ListProjectTree returns the workspace tree: directories first, then files,
// each group ordered by case-insensitive name. Hidden entries, common build and
// dependency directories, and ignored paths are left out.
func (s *Store) ListProjectTree(ctx context.Context) ([]domain.FileNode, error) {
	return s.buildTree(ctx, s.root)
}

func (s *Store) buildTree(ctx context.Context, dir string) ([]domain.FileNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	nodes := make([]domain.FileNode, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || slices.Contains(skipNames, name) {
			continue
		}
		full := filepath.Join(dir, name)
		rel, err := filepath.Rel(s.root, full)
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		info, err := os.Stat(full)
		if err != nil {
			// Dangling symlinks and races with concurrent deletes are skipped
			continue
		}
		if s.ignore != nil && s.ignore.Ignored(rel, info.IsDir()) {
			continue
		}

		node := domain.FileNode{
			Name:     name,
			Path:     rel,
			Modified: info.ModTime(),
		}
		if info.IsDir() {
			node.Type = domain.FileTypeDirectory
			children, err := s.buildTree(ctx, full)
			if err != nil {
				return nil, err
			}
			if len(children) > 0 {
				node.Children = children
			}
		} else {
			node.Type = domain.FileTypeFile
			node.Size = info.Size()
		}
		nodes = append(nodes, node)
	}

	slices.SortFunc(nodes, func(a, b domain.FileNode) int {
		if a.IsDir() != b.IsDir() {
			if a.IsDir() {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return nodes, nil
}

// resolve maps a workspace-relative path to an absolute path inside the root.
func (s *Store) resolve(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(s.root, filepath.FromSlash(path))
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathOutsideWorkspace, path)
	}
	return full, nil
}

func mapNotExist(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}
	return err
}

// writeContent fills a newly created file, allowing failures to be simulated in tests.
var writeContent = func(f *os.File, content string) error {
	_, err := f.WriteString(content)
	return err
}

func writeAtomic(path string, content []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
