package postgresdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/userapi/internal/models"
	"github.com/patric-chuzhbe/userapi/internal/user"
)

const migrationsDir = "../../../migrations"

// Set TEST_DATABASE_DSN (e.g. "host=localhost user=userapi password=userapi dbname=userapi sslmode=disable")
// to run these tests against a disposable database. The schema is dropped first.
func newTestDB(t *testing.T) *PostgresDB {
	t.Helper()

	databaseDSN := os.Getenv("TEST_DATABASE_DSN")
	if databaseDSN == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	db, err := New(
		context.Background(),
		databaseDSN,
		5*time.Second,
		migrationsDir,
		WithDBPreReset(true),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	return db
}

func TestNewClosesPoolOnMigrationFailure(t *testing.T) {
	var opened *sql.DB
	previous := openDB
	openDB = func(driverName, dataSourceName string) (*sql.DB, error) {
		database, err := previous(driverName, dataSourceName)
		opened = database
		return database, err
	}
	t.Cleanup(func() { openDB = previous })

	db, err := New(
		context.Background(),
		"host=127.0.0.1 port=1 user=userapi dbname=userapi sslmode=disable connect_timeout=1",
		time.Second,
		t.TempDir(),
	)
	require.Error(t, err)
	assert.Nil(t, db)

	require.NotNil(t, opened)
	err = opened.PingContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is closed")
}

func TestPostgresDBUserLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Ping(ctx))

	id, err := db.InsertUser(ctx, &user.User{Name: "Ann", Email: "ann@example.com", Nickname: "annie"})
	require.NoError(t, err)
	assert.Positive(t, id)

	usr, err := db.FindUserByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, usr)
	assert.Equal(t, user.User{ID: id, Name: "Ann", Email: "ann@example.com", Nickname: "annie"}, *usr)

	_, err = db.InsertUser(ctx, &user.User{Name: "Other", Email: "ann@example.com", Nickname: "o"})
	assert.ErrorIs(t, err, models.ErrEmailAlreadyExists)

	require.NoError(t, db.UpdateUserNameByEmail(ctx, "ann@example.com", "Anna"))
	usr, err = db.FindUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.NotNil(t, usr)
	assert.Equal(t, "Anna", usr.Name)

	require.NoError(t, db.DeleteUserByEmail(ctx, "ann@example.com"))
	usr, err = db.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, usr)
}
