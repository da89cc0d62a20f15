package model

import "testing"

func TestDisplayNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"john.doe@x.io", "john doe"},
		{"alice@example.com", "alice"},
		{"a.b.c@d", "a b c"},
		{"nodomain", "nodomain"},
	}

	for _, tt := range tests {
		if got := DisplayNameFromEmail(tt.email); got != tt.want {
			t.Errorf("DisplayNameFromEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestEnsureDisplayNameKeepsExplicitName(t *testing.T) {
	u := User{Email: "john.doe@x.io", DisplayName: "Johnny"}
	u.EnsureDisplayName()
	if u.DisplayName != "Johnny" {
		t.Errorf("DisplayName = %q, want Johnny", u.DisplayName)
	}

	u = User{Email: "john.doe@x.io", DisplayName: "  "}
	u.EnsureDisplayName()
	if u.DisplayName != "john doe" {
		t.Errorf("DisplayName = %q, want john doe", u.DisplayName)
	}
}

func TestChatRoomRoles(t *testing.T) {
	room := ChatRoom{Members: []string{"a", "b"}, Administrators: []string{"a"}}
	if !room.IsMember("b") || room.IsMember("c") {
		t.Error("IsMember mismatch")
	}
	if !room.IsAdmin("a") || room.IsAdmin("b") {
		t.Error("IsAdmin mismatch")
	}
}
