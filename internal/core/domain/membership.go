package domain

// RoleMembership abstracts how a backend represents a user's role set.
// Add and Remove mutate the User in memory only; persisting the change
// is the caller's responsibility. A (user, role) pair appears at most
// once regardless of representation.
type RoleMembership interface {
	Contains(u *User, r *Role) bool
	Add(u *User, r *Role)
	Remove(u *User, r *Role)
}

// ReferenceMembership keeps resolved Role entities on User.Roles.
// Equality is by role name.
type ReferenceMembership struct{}

func (ReferenceMembership) Contains(u *User, r *Role) bool {
	for _, have := range u.Roles {
		if have.Name == r.Name {
			return true
		}
	}
	return false
}

func (m ReferenceMembership) Add(u *User, r *Role) {
	if m.Contains(u, r) {
		return
	}
	u.Roles = append(u.Roles, *r)
}

func (ReferenceMembership) Remove(u *User, r *Role) {
	kept := u.Roles[:0]
	for _, have := range u.Roles {
		if have.Name != r.Name {
			kept = append(kept, have)
		}
	}
	u.Roles = kept
}

// NameMembership keeps a denormalized list of role names on
// User.RoleNames, the representation the document backend persists.
type NameMembership struct{}

func (NameMembership) Contains(u *User, r *Role) bool {
	for _, name := range u.RoleNames {
		if name == r.Name {
			return true
		}
	}
	return false
}

func (m NameMembership) Add(u *User, r *Role) {
	if m.Contains(u, r) {
		return
	}
	u.RoleNames = append(u.RoleNames, r.Name)
}

func (NameMembership) Remove(u *User, r *Role) {
	kept := u.RoleNames[:0]
	for _, name := range u.RoleNames {
		if name != r.Name {
			kept = append(kept, name)
		}
	}
	u.RoleNames = kept
}
