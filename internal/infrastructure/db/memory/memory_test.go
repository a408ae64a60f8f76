package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/idkeep/userstore/internal/core/domain"
)

func TestPutUser_UniqueEmail(t *testing.T) {
	backend := New(domain.ReferenceMembership{})
	ctx := context.Background()

	first, err := backend.PutUser(ctx, &domain.User{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("insert returned error: %v", err)
	}
	if first.ID == 0 {
		t.Fatalf("insert did not assign an id")
	}

	if _, err := backend.PutUser(ctx, &domain.User{Email: "a@x.com"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("duplicate email: got %v, want ErrUserExists", err)
	}

	// Saving the existing user under its id is not a duplicate.
	first.Username = "bob"
	if _, err := backend.PutUser(ctx, first); err != nil {
		t.Fatalf("save returned error: %v", err)
	}
}

func TestPutRole_UniqueName(t *testing.T) {
	backend := New(domain.ReferenceMembership{})
	ctx := context.Background()

	if _, err := backend.PutRole(ctx, &domain.Role{Name: "admin"}); err != nil {
		t.Fatalf("insert returned error: %v", err)
	}
	if _, err := backend.PutRole(ctx, &domain.Role{Name: "admin"}); !errors.Is(err, domain.ErrRoleExists) {
		t.Fatalf("duplicate name: got %v, want ErrRoleExists", err)
	}
}

func TestEntitiesAreIsolatedCopies(t *testing.T) {
	backend := New(domain.NameMembership{})
	ctx := context.Background()

	user, _ := backend.PutUser(ctx, &domain.User{Email: "a@x.com", RoleNames: []string{"admin"}})

	// Mutating the returned copy must not affect stored state.
	user.RoleNames[0] = "intruder"
	user.Email = "evil@x.com"

	stored, err := backend.GetUser(ctx, domain.IdentID(user.ID))
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if stored.Email != "a@x.com" || stored.RoleNames[0] != "admin" {
		t.Fatalf("stored user aliased a returned copy: %+v", stored)
	}
}

func TestGetUser_StoredValueComparedAsWritten(t *testing.T) {
	backend := New(domain.ReferenceMembership{})
	ctx := context.Background()

	// The lookup lowercases its input only; a mixed-case stored email
	// is unreachable by text, matching the original resolution rules.
	user, _ := backend.PutUser(ctx, &domain.User{Email: "Mixed@X.com"})

	got, err := backend.GetUser(ctx, domain.IdentText("mixed@x.com"))
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if got != nil {
		t.Fatalf("mixed-case stored email matched lowered input: %+v", got)
	}

	got, _ = backend.GetUser(ctx, domain.IdentID(user.ID))
	if got == nil {
		t.Fatalf("lookup by id missed")
	}
}

func TestDeleteUnknownUserIsNoop(t *testing.T) {
	backend := New(domain.ReferenceMembership{})
	if err := backend.DeleteUser(context.Background(), &domain.User{ID: 42}); err != nil {
		t.Fatalf("delete of unknown user returned error: %v", err)
	}
}

func TestRolesEnumeration(t *testing.T) {
	backend := New(domain.ReferenceMembership{})
	ctx := context.Background()

	for _, name := range []string{"admin", "editor", "viewer"} {
		if _, err := backend.PutRole(ctx, &domain.Role{Name: name}); err != nil {
			t.Fatalf("PutRole(%q) returned error: %v", name, err)
		}
	}

	roles, err := backend.Roles(ctx)
	if err != nil {
		t.Fatalf("Roles returned error: %v", err)
	}
	if len(roles) != 3 {
		t.Fatalf("expected 3 roles, got %d", len(roles))
	}
}
