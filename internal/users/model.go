package users

import "time"

// User represents a bank customer who may own accounts.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Phone     string
	IDCard    string
	CreatedAt time.Time
}

// CreateInput captures data required to register a user.
type CreateInput struct {
	FirstName string
	LastName  string
	Phone     string
	IDCard    string
}

// UpdateInput captures the mutable user fields. The id card never changes.
type UpdateInput struct {
	FirstName string
	LastName  string
	Phone     string
}
