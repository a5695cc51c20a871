package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// ShowTreeInput contains the input for the ShowTree use case.
type ShowTreeInput struct{}

// ShowTreeOutput contains the project snapshot.
type ShowTreeOutput struct {
	Nodes []domain.FileNode
	Files int
	Dirs  int
}

// ShowTree returns the project snapshot sent to the planner.
type ShowTree struct {
	files domain.FileStore
}

// NewShowTree creates a new ShowTree use case.
func NewShowTree(files domain.FileStore) *ShowTree {
	return &ShowTree{files: files}
}

// Execute lists the project tree.
func (uc *ShowTree) Execute(ctx context.Context, _ ShowTreeInput) (*ShowTreeOutput, error) {
	nodes, err := uc.files.ListProjectTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("list project tree: %w", err)
	}
	out := &ShowTreeOutput{Nodes: nodes}
	domain.Walk(nodes, func(n domain.FileNode) {
		if n.IsDir() {
			out.Dirs++
		} else {
			out.Files++
		}
	})
	return out, nil
}
