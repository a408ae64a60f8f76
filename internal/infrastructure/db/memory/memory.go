// Package memory implements the user backend entirely in memory. It is
// useful for fast unit testing of datastore code and as the default
// driver for local experimentation, compared to standing up MongoDB or
// PostgreSQL.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/idkeep/userstore/internal/core/domain"
)

// Backend stores users and roles in maps guarded by a mutex. Entities
// are deep-copied on the way in and out so callers never alias stored
// state. The membership scheme is chosen at construction, so tests can
// exercise both representations against the same backend.
type Backend struct {
	mu         sync.Mutex
	users      map[int64]*domain.User
	roles      map[int64]*domain.Role
	lastID     int64
	membership domain.RoleMembership
}

// New creates an empty in-memory backend using the given membership
// scheme.
func New(membership domain.RoleMembership) *Backend {
	return &Backend{
		users:      make(map[int64]*domain.User),
		roles:      make(map[int64]*domain.Role),
		membership: membership,
	}
}

// Membership reports the scheme chosen at construction.
func (b *Backend) Membership() domain.RoleMembership {
	return b.membership
}

func (b *Backend) nextID() int64 {
	b.lastID++
	return b.lastID
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	clone.RoleNames = append([]string(nil), u.RoleNames...)
	return &clone
}

func cloneRole(r *domain.Role) *domain.Role {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// PutUser inserts or saves a user. New users get a fresh ID; inserts
// that collide with an existing email fail with domain.ErrUserExists,
// mirroring the unique index of the real backends.
func (b *Backend) PutUser(_ context.Context, user *domain.User) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if user.ID == 0 {
		for _, have := range b.users {
			if have.Email == user.Email {
				return nil, domain.ErrUserExists
			}
		}
		user.ID = b.nextID()
	}
	b.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

// PutRole inserts or saves a role. Inserts that collide with an
// existing name fail with domain.ErrRoleExists.
func (b *Backend) PutRole(_ context.Context, role *domain.Role) (*domain.Role, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if role.ID == 0 {
		for _, have := range b.roles {
			if have.Name == role.Name {
				return nil, domain.ErrRoleExists
			}
		}
		role.ID = b.nextID()
	}
	b.roles[role.ID] = cloneRole(role)
	return cloneRole(role), nil
}

// DeleteUser removes the user. Deleting an unknown user is a no-op.
func (b *Backend) DeleteUser(_ context.Context, user *domain.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.users, user.ID)
	return nil
}

// Commit is a no-op; writes are visible immediately.
func (b *Backend) Commit(context.Context) error { return nil }

// GetUser applies the tiered lookup: ID, then exact email match, then
// exact username match, with textual input lowercased. The stored value
// is compared as written, so a user created with a mixed-case email is
// only reachable by ID.
func (b *Backend) GetUser(_ context.Context, ident domain.Ident) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id, ok := ident.ID(); ok {
		return cloneUser(b.users[id]), nil
	}

	text, _ := ident.Text()
	for _, u := range b.users {
		if u.Email == text {
			return cloneUser(u), nil
		}
	}
	for _, u := range b.users {
		if u.Username == text {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

// FindUser honors ID before email and has no username tier.
func (b *Backend) FindUser(_ context.Context, filter domain.UserFilter) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if filter.ID != 0 {
		return cloneUser(b.users[filter.ID]), nil
	}
	if filter.Email != "" {
		email := strings.ToLower(filter.Email)
		for _, u := range b.users {
			if u.Email == email {
				return cloneUser(u), nil
			}
		}
	}
	return nil, nil
}

// FindRole returns the role with the exact given name, or nil.
func (b *Backend) FindRole(_ context.Context, name string) (*domain.Role, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range b.roles {
		if r.Name == name {
			return cloneRole(r), nil
		}
	}
	return nil, nil
}

// Roles enumerates every stored role.
func (b *Backend) Roles(context.Context) ([]domain.Role, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.Role, 0, len(b.roles))
	for _, r := range b.roles {
		out = append(out, *r)
	}
	return out, nil
}
