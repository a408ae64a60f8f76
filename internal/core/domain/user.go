package domain

import "time"

// User is an identity record. Role membership is carried in whichever
// representation the owning backend uses: Roles holds resolved Role
// entities (reference membership), RoleNames holds a denormalized list
// of role names (name membership). A backend populates exactly one of
// the two; see RoleMembership.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	Active    bool      `json:"active"`
	Roles     []Role    `json:"roles,omitempty"`
	RoleNames []string  `json:"role_names,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
