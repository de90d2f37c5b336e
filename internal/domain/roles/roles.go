// Package roles defines the closed role vocabulary of the portal and the
// privilege tiers built on top of it.
//
// The role a request acts under is always taken from the backend-signed
// session credential; nothing in this package (or anywhere else) derives a
// role from client-computable data.
package roles

import "strings"

// Role is one of the five fixed role tags.
type Role string

const (
	Admin        Role = "admin"
	Moderator    Role = "moderator"
	EventManager Role = "event_manager"
	Expert       Role = "expert"
	User         Role = "user"
)

// All lists the valid roles in descending order of privilege.
var All = []Role{Admin, Moderator, EventManager, Expert, User}

// Parse maps a string onto the closed role set. Unrecognized or empty
// input falls back to the least-privileged role with ok=false, so a
// corrupted credential can never escalate.
func Parse(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case Admin:
		return Admin, true
	case Moderator:
		return Moderator, true
	case EventManager:
		return EventManager, true
	case Expert:
		return Expert, true
	case User:
		return User, true
	}
	return User, false
}

// IsValid reports whether s is exactly one of the five role tags.
func IsValid(s string) bool {
	_, ok := Parse(s)
	return ok
}

func (r Role) String() string { return string(r) }

// Privilege tiers, mirroring the operation classes the API enforces:
// administration, event management, and review work. Each tier includes
// the ones above it.

// IsAdminTier reports whether r may perform administrative operations
// (user listings, role changes, unrestricted CRUD).
func (r Role) IsAdminTier() bool {
	return r == Admin || r == Moderator
}

// IsEventTier reports whether r may create and manage grant events.
func (r Role) IsEventTier() bool {
	return r.IsAdminTier() || r == EventManager
}

// IsReviewTier reports whether r may read expert reviews and rubric
// summaries. Experts additionally own the review write path.
func (r Role) IsReviewTier() bool {
	return r.IsEventTier() || r == Expert
}
