package memorystorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/userapi/internal/user"
)

func TestMemoryStorage(t *testing.T) {
	theStorage, err := New()
	require.NoError(t, err)

	ctx := context.Background()

	id, err := theStorage.InsertUser(ctx, &user.User{Name: "Ann", Email: "ann@example.com", Nickname: "annie"})
	require.NoError(t, err)

	usr, err := theStorage.FindUserByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, usr)
	assert.Equal(t, "Ann", usr.Name)

	missing, err := theStorage.FindUserByID(ctx, id+1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.NoError(t, theStorage.Ping(ctx))
	assert.NoError(t, theStorage.Close(), "closing a memory storage must not try to write a file")
}
