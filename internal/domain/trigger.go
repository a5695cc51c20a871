package domain

import (
	"regexp"
	"strings"
)

// triggerSuffix matches text ending in a letter, digit or underscore (any script) or one of
// . ( { = : , with optional trailing whitespace.
var triggerSuffix = regexp.MustCompile(`[\p{L}\p{N}_.({=:,]\s*$`)

// quoteChars are the string delimiters checked for unterminated strings.
var quoteChars = []string{`"`, `'`, "`"}

// ShouldTrigger decides whether a suggestion should be requested for the text around the cursor.
// Rules are evaluated in order and the first match wins:
//  1. a line comment start (// or /*) rejects
//  2. an odd count of any quote character (cursor inside a string) rejects
//  3. a trailing identifier character or one of . ( { = : , (plus optional whitespace) accepts
//
// The text after the cursor is accepted for callers but no current rule inspects it.
func ShouldTrigger(beforeCursor, _ string) bool {
	trimmed := strings.TrimSpace(beforeCursor)
	if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") {
		return false
	}

	for _, q := range quoteChars {
		if strings.Count(beforeCursor, q)%2 == 1 {
			return false
		}
	}

	return triggerSuffix.MatchString(beforeCursor)
}
