// Package rules loads prompt rules and applies them before planning.
package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// Ensure Rules implements domain.PromptRewriter.
var _ domain.PromptRewriter = (*Rules)(nil)

// Rules is the parsed rules file.
//
//	always:
//	  - Keep changes minimal.
//	files:
//	  - glob: "**/*_test.go"
//	    instruction: Use testify for assertions.
//	replace:
//	  - from: "@tests"
//	    to: "the unit tests"
type Rules struct {
	Always  []string      `yaml:"always"`
	Files   []FileRule    `yaml:"files"`
	Replace []Replacement `yaml:"replace"`
}

// FileRule adds an instruction when any selected file matches Glob.
type FileRule struct {
	Glob        string `yaml:"glob"`
	Instruction string `yaml:"instruction"`
}

// Replacement substitutes literal text in the prompt.
type Replacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Load reads rules from path. A missing file yields empty rules.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Rules{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a rules document.
func Parse(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: parse rules file: %w", domain.ErrInvalidConfig, err)
	}
	for i, fr := range r.Files {
		if fr.Glob == "" {
			return nil, fmt.Errorf("%w: files[%d]: glob is required", domain.ErrInvalidConfig, i)
		}
		if !doublestar.ValidatePattern(fr.Glob) {
			return nil, fmt.Errorf("%w: files[%d]: invalid glob %q", domain.ErrInvalidConfig, i, fr.Glob)
		}
	}
	for i, rep := range r.Replace {
		if rep.From == "" {
			return nil, fmt.Errorf("%w: replace[%d]: from is required", domain.ErrInvalidConfig, i)
		}
	}
	return &r, nil
}

// IsEmpty reports whether the rules change nothing.
func (r *Rules) IsEmpty() bool {
	return len(r.Always) == 0 && len(r.Files) == 0 && len(r.Replace) == 0
}

// Rewrite applies replacements in order, then appends the always instructions
// and the instructions of every file rule matched by a selected file.
func (r *Rules) Rewrite(prompt string, selectedFiles []string) string {
	for _, rep := range r.Replace {
		prompt = strings.ReplaceAll(prompt, rep.From, rep.To)
	}

	var instructions []string
	for _, s := range r.Always {
		if s = strings.TrimSpace(s); s != "" {
			instructions = append(instructions, s)
		}
	}
	for _, fr := range r.Files {
		if s := strings.TrimSpace(fr.Instruction); s != "" && matchesAny(fr.Glob, selectedFiles) {
			instructions = append(instructions, s)
		}
	}
	if len(instructions) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nInstructions:")
	for _, s := range instructions {
		b.WriteString("\n- ")
		b.WriteString(s)
	}
	return b.String()
}

func matchesAny(glob string, files []string) bool {
	for _, f := range files {
		name := strings.TrimPrefix(filepath.ToSlash(f), "./")
		if ok, _ := doublestar.Match(glob, name); ok {
			return true
		}
	}
	return false
}
