// Package normalize provides canonical forms for user-entered fields
// before they are written to storage or compared against stored values.
package normalize

import (
	"strings"

	"github.com/ChasovDS/konkursant-grants/internal/domain/roles"
)

// Email lowercases and trims an email address. Stored emails and email
// lookups must both pass through here so the unique index behaves
// case-insensitively.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses interior whitespace runs.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold returns the case-insensitive form used for *_ci fields that back
// filtered and sorted queries.
func Fold(s string) string {
	return strings.ToLower(Name(s))
}

// Role maps an arbitrary string onto the closed role set, falling back
// to the least-privileged role.
func Role(s string) roles.Role {
	r, _ := roles.Parse(s)
	return r
}

// Status normalizes an account status; anything unrecognized is treated
// as "active" so legacy documents without the field keep working.
func Status(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "disabled") {
		return "disabled"
	}
	return "active"
}
