package domain

import "errors"

var (
	// ErrUserExists is returned when a create collides with the unique
	// email constraint.
	ErrUserExists = errors.New("user already exists")
	// ErrRoleExists is returned when a create collides with the unique
	// role name constraint.
	ErrRoleExists = errors.New("role already exists")
)
