package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldID normalizes an identifier for case-insensitive comparison and map keys.
// Every node, object, flag and quest id goes through it.
func FoldID(id string) string {
	// A Caser is stateful, so one is created per call.
	return cases.Fold().String(strings.TrimSpace(id))
}

// SameID reports whether two identifiers refer to the same entity.
func SameID(a, b string) bool {
	return FoldID(a) == FoldID(b)
}

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
