package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/userapi/internal/models"
	"github.com/patric-chuzhbe/userapi/internal/user"
)

type userFinder interface {
	FindUserByID(ctx context.Context, id int64) (*user.User, error)
	FindUserByEmail(ctx context.Context, email string) (*user.User, error)
}

type userKeeper interface {
	InsertUser(ctx context.Context, usr *user.User) (int64, error)
	DeleteUserByEmail(ctx context.Context, email string) error
	UpdateUserNameByEmail(ctx context.Context, email, name string) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Storage is everything the service needs from a user store.
type Storage interface {
	userFinder
	userKeeper
	pinger
}

// Error kinds. Every *Error unwraps to exactly one of them.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Client-facing messages.
const (
	MsgUserIDRequired       = "user_id is required"
	MsgUserNotFound         = "user not found"
	MsgCreateFieldsRequired = "name, email, and nickname are required"
	MsgEmailAlreadyExists   = "email already exists"
	MsgEmailRequired        = "email is required"
	MsgUpdateFieldsRequired = "email and new_name are required"
)

// Error is a client-input failure: Kind says which, Message is safe to show.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

type Service struct {
	db       Storage
	validate *validator.Validate
}

func New(db Storage) *Service {
	return &Service{
		db:       db,
		validate: validator.New(),
	}
}

// GetUser looks a user up by the raw id query value. An id that is not an
// integer cannot match any stored user and is reported as not found.
func (s *Service) GetUser(ctx context.Context, rawID string) (*user.User, error) {
	if rawID == "" {
		return nil, newError(ErrValidation, MsgUserIDRequired)
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, newError(ErrNotFound, MsgUserNotFound)
	}

	usr, err := s.db.FindUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user by id %d: %w", id, err)
	}
	if usr == nil {
		return nil, newError(ErrNotFound, MsgUserNotFound)
	}

	return usr, nil
}

// CreateUser validates req and inserts a new user. The existence check gives
// the early answer; the storage's own uniqueness guarantee settles races.
func (s *Service) CreateUser(ctx context.Context, req models.CreateUserRequest) (*user.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, newError(ErrValidation, MsgCreateFieldsRequired)
	}

	existing, err := s.db.FindUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil {
		return nil, newError(ErrConflict, MsgEmailAlreadyExists)
	}

	usr := &user.User{
		Name:     req.Name,
		Email:    req.Email,
		Nickname: req.Nickname,
	}
	usr.ID, err = s.db.InsertUser(ctx, usr)
	if err != nil {
		if errors.Is(err, models.ErrEmailAlreadyExists) {
			return nil, newError(ErrConflict, MsgEmailAlreadyExists)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return usr, nil
}

func (s *Service) DeleteUser(ctx context.Context, req models.DeleteUserRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return newError(ErrValidation, MsgEmailRequired)
	}

	if err := s.requireUserByEmail(ctx, req.Email); err != nil {
		return err
	}

	if err := s.db.DeleteUserByEmail(ctx, req.Email); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}

func (s *Service) UpdateUserName(ctx context.Context, req models.UpdateUserRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return newError(ErrValidation, MsgUpdateFieldsRequired)
	}

	if err := s.requireUserByEmail(ctx, req.Email); err != nil {
		return err
	}

	if err := s.db.UpdateUserNameByEmail(ctx, req.Email, req.Name); err != nil {
		return fmt.Errorf("update user name: %w", err)
	}

	return nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Service) requireUserByEmail(ctx context.Context, email string) error {
	usr, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find user by email: %w", err)
	}
	if usr == nil {
		return newError(ErrNotFound, MsgUserNotFound)
	}

	return nil
}
