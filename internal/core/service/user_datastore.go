package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/idkeep/userstore/internal/core/domain"
	"github.com/idkeep/userstore/internal/core/ports"
	"github.com/idkeep/userstore/internal/metrics"
)

// UserDatastore implements the identity-oriented operations of the user
// datastore contract on top of a pluggable backend. String arguments
// are resolved to entities once, up front; lookup misses flow through
// as absent values and make membership operations no-ops rather than
// errors. Backend failures propagate unchanged.
type UserDatastore struct {
	backend  ports.UserBackend
	log      zerolog.Logger
	validate *attrValidator
}

// NewUserDatastore wires a datastore around the given backend.
func NewUserDatastore(backend ports.UserBackend, log zerolog.Logger) *UserDatastore {
	return &UserDatastore{
		backend:  backend,
		log:      log,
		validate: newAttrValidator(),
	}
}

// GetUser resolves an ambiguous identifier through the backend's tiered
// lookup (ID, then email, then username). Returns nil when no user
// matches.
func (s *UserDatastore) GetUser(ctx context.Context, ident domain.Ident) (*domain.User, error) {
	user, err := s.backend.GetUser(ctx, ident)
	if err != nil {
		metrics.BackendErrorsTotal.WithLabelValues("get_user").Inc()
		return nil, err
	}
	metrics.Lookup("get_user", user != nil)
	return user, nil
}

// FindUser looks a user up by explicit filter (ID before email, no
// username tier). Returns nil on miss.
func (s *UserDatastore) FindUser(ctx context.Context, filter domain.UserFilter) (*domain.User, error) {
	user, err := s.backend.FindUser(ctx, filter)
	if err != nil {
		metrics.BackendErrorsTotal.WithLabelValues("find_user").Inc()
		return nil, err
	}
	metrics.Lookup("find_user", user != nil)
	return user, nil
}

// FindRole looks a role up by exact name. Returns nil on miss.
func (s *UserDatastore) FindRole(ctx context.Context, name string) (*domain.Role, error) {
	role, err := s.backend.FindRole(ctx, name)
	if err != nil {
		metrics.BackendErrorsTotal.WithLabelValues("find_role").Inc()
		return nil, err
	}
	metrics.Lookup("find_role", role != nil)
	return role, nil
}

// CreateRole constructs and persists a new role.
func (s *UserDatastore) CreateRole(ctx context.Context, attrs RoleAttrs) (*domain.Role, error) {
	if err := s.validate.Struct(attrs); err != nil {
		return nil, err
	}
	role := &domain.Role{Name: attrs.Name, Description: attrs.Description}
	created, err := s.backend.PutRole(ctx, role)
	if err != nil {
		metrics.BackendErrorsTotal.WithLabelValues("create_role").Inc()
		return nil, err
	}
	metrics.Mutation("create_role", true)
	return created, nil
}

// FindOrCreateRole returns the role with the given name, creating it
// from attrs when absent. Calling it repeatedly with the same name
// yields the same role.
func (s *UserDatastore) FindOrCreateRole(ctx context.Context, name string, attrs RoleAttrs) (*domain.Role, error) {
	role, err := s.FindRole(ctx, name)
	if err != nil {
		return nil, err
	}
	if role != nil {
		return role, nil
	}
	attrs.Name = name
	return s.CreateRole(ctx, attrs)
}

// CreateUser constructs and persists a new user. Active defaults to
// true when unset. Role entries are resolved through FindRole; names
// that do not resolve to an existing role are dropped, never
// auto-created.
func (s *UserDatastore) CreateUser(ctx context.Context, attrs UserAttrs) (*domain.User, error) {
	if err := s.validate.Struct(attrs); err != nil {
		return nil, err
	}

	active := true
	if attrs.Active != nil {
		active = *attrs.Active
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:     attrs.Email,
		Username:  attrs.Username,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Role entries are resolved by name in every form, so even a Role
	// instance that was never persisted is dropped here.
	membership := s.backend.Membership()
	for _, arg := range attrs.Roles {
		name := arg.name
		if arg.role != nil {
			name = arg.role.Name
		}
		role, err := s.backend.FindRole(ctx, name)
		if err != nil {
			return nil, err
		}
		if role == nil {
			s.log.Debug().Str("role", name).Msg("role does not exist, skipping assignment")
			continue
		}
		membership.Add(user, role)
	}

	created, err := s.backend.PutUser(ctx, user)
	if err != nil {
		metrics.BackendErrorsTotal.WithLabelValues("create_user").Inc()
		return nil, err
	}
	metrics.Mutation("create_user", true)
	return created, nil
}

// DeleteUser removes the user from the backend.
func (s *UserDatastore) DeleteUser(ctx context.Context, user *domain.User) error {
	if err := s.backend.DeleteUser(ctx, user); err != nil {
		metrics.BackendErrorsTotal.WithLabelValues("delete_user").Inc()
		return err
	}
	metrics.Mutation("delete_user", true)
	return nil
}

// AddRoleToUser adds a role to a user's membership and persists the
// user. Returns true when the membership changed, false when the role
// was already present or either argument did not resolve.
func (s *UserDatastore) AddRoleToUser(ctx context.Context, userArg UserArg, roleArg RoleArg) (bool, error) {
	user, role, err := s.resolveRoleModifyArgs(ctx, userArg, roleArg)
	if err != nil {
		return false, err
	}
	membership := s.backend.Membership()
	if user == nil || role == nil || membership.Contains(user, role) {
		metrics.Mutation("add_role", false)
		return false, nil
	}

	membership.Add(user, role)
	if _, err := s.backend.PutUser(ctx, user); err != nil {
		metrics.BackendErrorsTotal.WithLabelValues("add_role").Inc()
		return false, err
	}
	metrics.Mutation("add_role", true)
	return true, nil
}

// RemoveRoleFromUser removes a role from a user's membership and
// persists the user. Returns true when the membership changed, false
// when the role was not a member or either argument did not resolve.
func (s *UserDatastore) RemoveRoleFromUser(ctx context.Context, userArg UserArg, roleArg RoleArg) (bool, error) {
	user, role, err := s.resolveRoleModifyArgs(ctx, userArg, roleArg)
	if err != nil {
		return false, err
	}
	membership := s.backend.Membership()
	if user == nil || role == nil || !membership.Contains(user, role) {
		metrics.Mutation("remove_role", false)
		return false, nil
	}

	membership.Remove(user, role)
	if _, err := s.backend.PutUser(ctx, user); err != nil {
		metrics.BackendErrorsTotal.WithLabelValues("remove_role").Inc()
		return false, err
	}
	metrics.Mutation("remove_role", true)
	return true, nil
}

// ToggleActive flips the user's active flag in memory and always
// returns true. Persisting the change is the caller's follow-up PutUser.
func (s *UserDatastore) ToggleActive(user *domain.User) bool {
	user.Active = !user.Active
	metrics.Mutation("toggle_active", true)
	return true
}

// ActivateUser sets the active flag in memory. Returns true when the
// flag changed, false when the user was already active.
func (s *UserDatastore) ActivateUser(user *domain.User) bool {
	if user.Active {
		metrics.Mutation("activate", false)
		return false
	}
	user.Active = true
	metrics.Mutation("activate", true)
	return true
}

// DeactivateUser clears the active flag in memory. Returns true when
// the flag changed, false when the user was already inactive.
func (s *UserDatastore) DeactivateUser(user *domain.User) bool {
	if !user.Active {
		metrics.Mutation("deactivate", false)
		return false
	}
	user.Active = false
	metrics.Mutation("deactivate", true)
	return true
}

// PutUser persists the user through the backend, unvalidated. Exposed so
// callers can flush in-memory mutations such as ActivateUser.
func (s *UserDatastore) PutUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	return s.backend.PutUser(ctx, user)
}

// PutRole persists the role through the backend, unvalidated.
func (s *UserDatastore) PutRole(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	return s.backend.PutRole(ctx, role)
}

// Commit delegates to the backend's transaction flush hook.
func (s *UserDatastore) Commit(ctx context.Context) error {
	return s.backend.Commit(ctx)
}
