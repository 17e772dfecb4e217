// Package user defines the user record served by the HTTP and gRPC APIs
// and persisted by every storage backend.
package user

// User represents a registered user.
type User struct {
	// ID is assigned by the storage on insert and never changes afterwards.
	ID int64 `json:"id"`

	Name string `json:"name"`

	// Email is unique across all users and is the key for updates and deletes.
	Email string `json:"email"`

	// Nickname is required at creation only.
	Nickname string `json:"nickname"`
}
