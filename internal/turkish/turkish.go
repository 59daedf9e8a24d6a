// Package turkish provides locale-correct case mapping for Turkish text.
// Plain strings.ToUpper breaks the dotted/dotless I distinction ("i" must
// become "İ", not "I"), which silently defeats keyword matching on column
// names and category cells.
package turkish

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// cases.Caser is stateful and must not be shared between goroutines, so the
// casers are pooled. The analyzer cases cells from a background worker while
// assignment search folds on the caller's goroutine.
var (
	upperPool = sync.Pool{New: func() any {
		c := cases.Upper(language.Turkish)
		return &c
	}}
	lowerPool = sync.Pool{New: func() any {
		c := cases.Lower(language.Turkish)
		return &c
	}}
)

// Upper returns s uppercased with Turkish casing rules.
func Upper(s string) string {
	c := upperPool.Get().(*cases.Caser)
	defer upperPool.Put(c)
	return c.String(s)
}

// Lower returns s lowercased with Turkish casing rules.
func Lower(s string) string {
	c := lowerPool.Get().(*cases.Caser)
	defer lowerPool.Put(c)
	return c.String(s)
}

// ContainsFold reports whether s contains substr under Turkish lowercasing.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Lower(s), Lower(substr))
}

// EqualFold reports whether a and b are equal under Turkish lowercasing.
func EqualFold(a, b string) bool {
	return Lower(a) == Lower(b)
}
