// Package mockstorage provides a testify-based mock implementation
// of the user storage consumed by the service package.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/userapi/internal/user"
)

// StorageMock is a testify mock that implements every storage method
// the service layer calls.
type StorageMock struct {
	mock.Mock
}

// FindUserByID mocks a lookup by ID. Return nil as the first value for a miss.
func (m *StorageMock) FindUserByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

// FindUserByEmail mocks a lookup by email. Return nil as the first value for a miss.
func (m *StorageMock) FindUserByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

func (m *StorageMock) InsertUser(ctx context.Context, usr *user.User) (int64, error) {
	args := m.Called(ctx, usr)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StorageMock) DeleteUserByEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *StorageMock) UpdateUserNameByEmail(ctx context.Context, email, name string) error {
	args := m.Called(ctx, email, name)
	return args.Error(0)
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
