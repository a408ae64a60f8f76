package ports

import (
	"context"

	"github.com/idkeep/userstore/internal/core/domain"
)

// UserStore is the uniform persistence surface every backend provides.
// Put persists the entity (insert or save) and returns it with any
// backend-assigned fields filled in; no validation happens at this
// layer. Commit is a flush hook for backends with explicit transaction
// semantics and is a no-op elsewhere.
type UserStore interface {
	PutUser(ctx context.Context, user *domain.User) (*domain.User, error)
	PutRole(ctx context.Context, role *domain.Role) (*domain.Role, error)
	DeleteUser(ctx context.Context, user *domain.User) error
	Commit(ctx context.Context) error
}

// UserFinder resolves users and roles. Lookup misses return (nil, nil);
// only backend failures surface as errors.
//
// GetUser applies the tiered lookup policy: numeric ID first, then
// exact email match, then exact username match, with textual input
// lowercased. FindUser honors ID before Email and has no username tier.
type UserFinder interface {
	GetUser(ctx context.Context, ident domain.Ident) (*domain.User, error)
	FindUser(ctx context.Context, filter domain.UserFilter) (*domain.User, error)
	FindRole(ctx context.Context, name string) (*domain.Role, error)
}

// RoleLister is implemented by backends that can enumerate roles.
type RoleLister interface {
	Roles(ctx context.Context) ([]domain.Role, error)
}

// UserBackend is the full capability set a datastore backend implements.
// Membership exposes the role-set representation the backend persists,
// so the datastore layer can manipulate membership without knowing the
// storage shape.
type UserBackend interface {
	UserStore
	UserFinder
	Membership() domain.RoleMembership
}
