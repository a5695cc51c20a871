// Package git provides repository detection and .gitignore matching.
package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Client locates the workspace root.
type Client struct {
	repo *git.Repository // nil outside a repository
	root string
}

// Detect finds the repository containing dir. Outside a repository the
// workspace root falls back to dir itself.
func Detect(dir string) (*Client, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace dir: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return &Client{root: abs}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open git repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree; use dir as the workspace.
		return &Client{root: abs, repo: repo}, nil
	}
	return &Client{root: wt.Filesystem.Root(), repo: repo}, nil
}

// Root returns the workspace root directory.
func (c *Client) Root() string {
	return c.root
}

// IsRepository reports whether the workspace is inside a git repository.
func (c *Client) IsRepository() bool {
	return c.repo != nil
}

// IgnoreMatcher loads every .gitignore under the workspace root.
func (c *Client) IgnoreMatcher() (*Ignore, error) {
	patterns, err := gitignore.ReadPatterns(osfs.New(c.root), nil)
	if err != nil {
		return nil, fmt.Errorf("read gitignore patterns: %w", err)
	}
	return &Ignore{matcher: gitignore.NewMatcher(patterns)}, nil
}

// Ignore matches workspace-relative paths against .gitignore rules.
type Ignore struct {
	matcher gitignore.Matcher
}

// Ignored reports whether the slash-separated relative path is ignored.
func (i *Ignore) Ignored(rel string, isDir bool) bool {
	if rel == "" || rel == "." {
		return false
	}
	return i.matcher.Match(strings.Split(filepath.ToSlash(rel), "/"), isDir)
}
