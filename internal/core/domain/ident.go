package domain

import "strings"

// Ident names a user by either a numeric ID or an ambiguous piece of
// text (email or username). Backends resolve text identifiers using the
// tiered lookup policy: ID first, then email, then username, with the
// text lowercased before matching.
type Ident struct {
	id      int64
	text    string
	numeric bool
}

// IdentID builds an Ident carrying a numeric user ID.
func IdentID(id int64) Ident {
	return Ident{id: id, numeric: true}
}

// IdentText builds an Ident carrying an email address or username.
func IdentText(s string) Ident {
	return Ident{text: s}
}

// ID returns the numeric identifier and whether the Ident carries one.
func (i Ident) ID() (int64, bool) {
	return i.id, i.numeric
}

// Text returns the textual identifier lowercased, and whether the Ident
// carries one.
func (i Ident) Text() (string, bool) {
	if i.numeric {
		return "", false
	}
	return strings.ToLower(i.text), true
}

// UserFilter narrows a find_user lookup. ID takes precedence over
// Email; the username tier is deliberately absent here, it only applies
// to the ambiguous-identifier path (Ident).
type UserFilter struct {
	ID    int64
	Email string
}
