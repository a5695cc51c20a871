package composer

import (
	"fmt"
	"strings"

	"github.com/runoshun/ghostwriter/internal/domain"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// summarizeChanges describes a task's effect as "+A -D lines". It returns "" when
// the contents on either side are unknown.
func summarizeChanges(t domain.ComposerTask) string {
	var before, after string
	switch t.Kind {
	case domain.TaskEdit:
		if t.OriginalContent == nil || t.NewContent == nil {
			return ""
		}
		before, after = *t.OriginalContent, *t.NewContent
	case domain.TaskCreate:
		if t.NewContent == nil {
			return ""
		}
		after = *t.NewContent
	case domain.TaskDelete:
		if t.OriginalContent == nil {
			return ""
		}
		before = *t.OriginalContent
	default:
		return ""
	}
	added, deleted := lineDiff(before, after)
	return fmt.Sprintf("+%d -%d lines", added, deleted)
}

// lineDiff counts inserted and deleted lines between a and b.
func lineDiff(a, b string) (added, deleted int) {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			deleted += countLines(d.Text)
		case diffmatchpatch.DiffEqual:
		}
	}
	return added, deleted
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
