package jsondb

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/userapi/internal/models"
	"github.com/patric-chuzhbe/userapi/internal/user"
)

func Test(t *testing.T) {
	testDBFileName := filepath.Join(t.TempDir(), "db_test.json")

	t.Run("The base jsondb package test", func(t *testing.T) {
		theStorage, err := New(testDBFileName)
		require.NoError(t, err)
		require.NotNil(t, theStorage)

		ctx := context.Background()

		id, err := theStorage.InsertUser(ctx, &user.User{Name: "Ann", Email: "ann@example.com", Nickname: "annie"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		usr, err := theStorage.FindUserByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, usr)
		assert.Equal(t, "ann@example.com", usr.Email)

		usr, err = theStorage.FindUserByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		require.NotNil(t, usr)
		assert.Equal(t, id, usr.ID)

		_, err = theStorage.InsertUser(ctx, &user.User{Name: "Ann 2", Email: "ann@example.com", Nickname: "a2"})
		assert.ErrorIs(t, err, models.ErrEmailAlreadyExists)

		require.NoError(t, theStorage.UpdateUserNameByEmail(ctx, "ann@example.com", "Anna"))

		require.NoError(t, theStorage.Close())
	})

	t.Run("The data survives reopening", func(t *testing.T) {
		theStorage, err := New(testDBFileName)
		require.NoError(t, err)

		ctx := context.Background()

		usr, err := theStorage.FindUserByID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, usr)
		assert.Equal(t, "Anna", usr.Name)

		id, err := theStorage.InsertUser(ctx, &user.User{Name: "Bob", Email: "bob@example.com", Nickname: "b"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), id, "IDs must keep growing after reopening")

		require.NoError(t, theStorage.DeleteUserByEmail(ctx, "ann@example.com"))
		usr, err = theStorage.FindUserByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.Nil(t, usr)

		require.NoError(t, theStorage.Close())
		require.NoError(t, os.Remove(testDBFileName))
	})
}

func TestFindReturnsCopies(t *testing.T) {
	theStorage, err := New(filepath.Join(t.TempDir(), "db_test.json"))
	require.NoError(t, err)

	ctx := context.Background()
	id, err := theStorage.InsertUser(ctx, &user.User{Name: "Ann", Email: "ann@example.com", Nickname: "annie"})
	require.NoError(t, err)

	usr, err := theStorage.FindUserByID(ctx, id)
	require.NoError(t, err)
	usr.Name = "mutated"

	usr, err = theStorage.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ann", usr.Name)
}

func TestConcurrentInsertsKeepEmailsUnique(t *testing.T) {
	theStorage, err := New(filepath.Join(t.TempDir(), "db_test.json"))
	require.NoError(t, err)

	const attempts = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := theStorage.InsertUser(
				context.Background(),
				&user.User{Name: "Same", Email: "same@example.com", Nickname: "s"},
			)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}
