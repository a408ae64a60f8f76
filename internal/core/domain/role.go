package domain

// Role is a named permission grouping assignable to users. Names are
// unique; roles are independent entities referenced by users, never
// owned by them.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
