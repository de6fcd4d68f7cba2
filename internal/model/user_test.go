package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		role, minimum string
		want          bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleManager, true},
		{RoleAdmin, RoleUser, true},
		{RoleManager, RoleAdmin, false},
		{RoleManager, RoleManager, true},
		{RoleManager, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleManager, false},
		{RoleUser, RoleUser, true},
		{"unknown", RoleUser, false},
	}

	for _, c := range cases {
		if got := RoleAtLeast(c.role, c.minimum); got != c.want {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", c.role, c.minimum, got, c.want)
		}
	}
}
