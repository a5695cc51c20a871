package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
always:
  - Keep changes minimal.
  - "  "
files:
  - glob: "**/*_test.go"
    instruction: Use testify for assertions.
  - glob: "docs/*.md"
    instruction: Wrap lines at 80 columns.
replace:
  - from: "@tests"
    to: "the unit tests"
`

func TestLoad_MissingFile(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "rules.yaml"))

	require.NoError(t, err)
	assert.True(t, r.IsEmpty())
	assert.Equal(t, "prompt", r.Rewrite("prompt", []string{"a.go"}))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	r, err := Load(path)

	require.NoError(t, err)
	assert.Len(t, r.Always, 2)
	assert.Len(t, r.Files, 2)
	assert.Len(t, r.Replace, 1)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "bad yaml", doc: "always: [unterminated"},
		{name: "missing glob", doc: "files:\n  - instruction: x\n"},
		{name: "bad glob", doc: "files:\n  - glob: \"[a\"\n    instruction: x\n"},
		{name: "empty from", doc: "replace:\n  - to: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestRules_Rewrite(t *testing.T) {
	r, err := Parse([]byte(sample))
	require.NoError(t, err)

	tests := []struct {
		name     string
		prompt   string
		want     string
		selected []string
	}{
		{
			name:   "always only",
			prompt: "fix @tests",
			want:   "fix the unit tests\n\nInstructions:\n- Keep changes minimal.",
		},
		{
			name:     "file rule matches nested path",
			prompt:   "fix",
			selected: []string{"./internal/app/app_test.go"},
			want:     "fix\n\nInstructions:\n- Keep changes minimal.\n- Use testify for assertions.",
		},
		{
			name:     "single star does not cross directories",
			prompt:   "fix",
			selected: []string{"docs/guide/intro.md"},
			want:     "fix\n\nInstructions:\n- Keep changes minimal.",
		},
		{
			name:     "rules keep file order",
			prompt:   "fix",
			selected: []string{"docs/README.md", "a_test.go"},
			want:     "fix\n\nInstructions:\n- Keep changes minimal.\n- Use testify for assertions.\n- Wrap lines at 80 columns.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Rewrite(tt.prompt, tt.selected))
		})
	}
}
