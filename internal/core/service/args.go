package service

import (
	"context"

	"github.com/idkeep/userstore/internal/core/domain"
)

// UserArg names a user either by entity or by email address. The
// textual form is resolved through FindUser before an operation
// proceeds; downstream logic only ever sees the resolved entity.
type UserArg struct {
	user  *domain.User
	email string
}

// UserOf passes a user entity directly.
func UserOf(u *domain.User) UserArg { return UserArg{user: u} }

// UserEmail names a user by email address.
func UserEmail(email string) UserArg { return UserArg{email: email} }

// RoleArg names a role either by entity or by name, resolved through
// FindRole.
type RoleArg struct {
	role *domain.Role
	name string
}

// RoleOf passes a role entity directly.
func RoleOf(r *domain.Role) RoleArg { return RoleArg{role: r} }

// RoleNamed names a role by its unique name.
func RoleNamed(name string) RoleArg { return RoleArg{name: name} }

// resolveRoleModifyArgs normalizes the polymorphic arguments of the
// role-membership operations. Unresolved lookups yield nil entities,
// which callers treat as "not a member"; only backend failures return
// an error.
func (s *UserDatastore) resolveRoleModifyArgs(ctx context.Context, ua UserArg, ra RoleArg) (*domain.User, *domain.Role, error) {
	user := ua.user
	if user == nil && ua.email != "" {
		found, err := s.backend.FindUser(ctx, domain.UserFilter{Email: ua.email})
		if err != nil {
			return nil, nil, err
		}
		user = found
	}

	role, err := s.resolveRole(ctx, ra)
	if err != nil {
		return nil, nil, err
	}
	return user, role, nil
}

func (s *UserDatastore) resolveRole(ctx context.Context, ra RoleArg) (*domain.Role, error) {
	if ra.role != nil {
		return ra.role, nil
	}
	if ra.name == "" {
		return nil, nil
	}
	return s.backend.FindRole(ctx, ra.name)
}
