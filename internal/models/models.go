package models

import "errors"

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Nickname string `json:"nickname" validate:"required"`
}

type UpdateUserRequest struct {
	Email string `json:"email" validate:"required"`
	Name  string `json:"name" validate:"required"`
}

type DeleteUserRequest struct {
	Email string `json:"email" validate:"required"`
}

type UserView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type GetUserResponse struct {
	User UserView `json:"user"`
}

type CreatedUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// CreateUserResponse keeps the plural "users" envelope existing clients rely on.
type CreateUserResponse struct {
	Users CreatedUser `json:"users"`
}

type UpdatedUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type UpdateUserResponse struct {
	User UpdatedUser `json:"user"`
}

type DeletedUser struct {
	Email string `json:"email"`
}

type DeleteUserResponse struct {
	User DeletedUser `json:"user"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type TokenResponse struct {
	Token string `json:"token"`

	// UserAgent is null when the request carried no User-Agent header.
	UserAgent *string `json:"user_agent"`

	StatusCode int `json:"status_code"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeSQLite
	StorageTypeFile
	StorageTypeMemory
)

var ErrEmailAlreadyExists = errors.New("a user with this email already exists")
