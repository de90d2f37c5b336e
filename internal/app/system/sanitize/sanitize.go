// Package sanitize strips markup from user-supplied free text before it
// is stored. Expert comments and project descriptions are rendered back
// into the SPA verbatim, so nothing beyond plain text may survive.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes all HTML from s and trims surrounding whitespace.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// TextSlice sanitizes every element in place and drops entries that end
// up empty.
func TextSlice(ss []string) []string {
	out := ss[:0]
	for _, s := range ss {
		if t := Text(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
