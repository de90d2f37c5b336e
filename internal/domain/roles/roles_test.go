package roles

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"admin", Admin, true},
		{"moderator", Moderator, true},
		{"event_manager", EventManager, true},
		{"expert", Expert, true},
		{"user", User, true},
		{"ADMIN", Admin, true},
		{"  expert  ", Expert, true},
		{"", User, false},
		{"superuser", User, false},
		{"administrator", User, false},
		{"evil", User, false},
	}
	for _, c := range cases {
		got, ok := Parse(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("Parse(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestParseNeverEscalates(t *testing.T) {
	// Anything outside the closed set must land on the least-privileged role.
	for _, in := range []string{"root", "admin\x00", "Admin1", "moderator2", "superadmin"} {
		got, ok := Parse(in)
		if ok {
			t.Errorf("Parse(%q) reported ok for an invalid role", in)
		}
		if got != User {
			t.Errorf("Parse(%q): fallback role = %v, want %v", in, got, User)
		}
	}
}

func TestTiers(t *testing.T) {
	tiers := []struct {
		role   Role
		admin  bool
		event  bool
		review bool
	}{
		{Admin, true, true, true},
		{Moderator, true, true, true},
		{EventManager, false, true, true},
		{Expert, false, false, true},
		{User, false, false, false},
	}
	for _, c := range tiers {
		if got := c.role.IsAdminTier(); got != c.admin {
			t.Errorf("%s.IsAdminTier() = %v, want %v", c.role, got, c.admin)
		}
		if got := c.role.IsEventTier(); got != c.event {
			t.Errorf("%s.IsEventTier() = %v, want %v", c.role, got, c.event)
		}
		if got := c.role.IsReviewTier(); got != c.review {
			t.Errorf("%s.IsReviewTier() = %v, want %v", c.role, got, c.review)
		}
	}
}
