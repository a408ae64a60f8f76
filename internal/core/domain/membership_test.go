package domain

import "testing"

func TestReferenceMembership(t *testing.T) {
	m := ReferenceMembership{}
	user := &User{}
	admin := &Role{ID: 1, Name: "admin"}
	editor := &Role{ID: 2, Name: "editor"}

	if m.Contains(user, admin) {
		t.Fatalf("empty membership contains a role")
	}

	m.Add(user, admin)
	m.Add(user, admin) // set semantics, not append
	m.Add(user, editor)
	if len(user.Roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(user.Roles))
	}
	if !m.Contains(user, admin) || !m.Contains(user, editor) {
		t.Fatalf("added roles not reported as members")
	}

	m.Remove(user, admin)
	if m.Contains(user, admin) {
		t.Fatalf("removed role still reported as member")
	}
	if len(user.Roles) != 1 || user.Roles[0].Name != "editor" {
		t.Fatalf("remove disturbed other memberships: %+v", user.Roles)
	}
	if len(user.RoleNames) != 0 {
		t.Fatalf("reference scheme touched RoleNames: %v", user.RoleNames)
	}
}

func TestNameMembership(t *testing.T) {
	m := NameMembership{}
	user := &User{}
	admin := &Role{Name: "admin"}

	m.Add(user, admin)
	m.Add(user, admin)
	if len(user.RoleNames) != 1 || user.RoleNames[0] != "admin" {
		t.Fatalf("expected single admin entry, got %v", user.RoleNames)
	}
	if !m.Contains(user, admin) {
		t.Fatalf("added role not reported as member")
	}

	m.Remove(user, admin)
	if m.Contains(user, admin) || len(user.RoleNames) != 0 {
		t.Fatalf("remove left membership behind: %v", user.RoleNames)
	}
	if len(user.Roles) != 0 {
		t.Fatalf("name scheme touched Roles: %v", user.Roles)
	}
}

func TestIdent(t *testing.T) {
	id := IdentID(7)
	if got, ok := id.ID(); !ok || got != 7 {
		t.Fatalf("IdentID round-trip failed: (%d, %v)", got, ok)
	}
	if _, ok := id.Text(); ok {
		t.Fatalf("numeric ident reported a text form")
	}

	text := IdentText("A@X.COM")
	if _, ok := text.ID(); ok {
		t.Fatalf("text ident reported a numeric form")
	}
	if got, ok := text.Text(); !ok || got != "a@x.com" {
		t.Fatalf("text ident not lowercased: (%q, %v)", got, ok)
	}
}
