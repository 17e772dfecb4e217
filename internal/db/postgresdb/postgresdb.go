// Package postgresdb provides a PostgreSQL-based implementation of the user storage.
// The schema is applied with goose migrations on start-up and email uniqueness
// is enforced by a unique constraint.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/userapi/internal/models"
	"github.com/patric-chuzhbe/userapi/internal/user"
)

const uniqueViolationCode = "23505"

var openDB = sql.Open

// PostgresDB is a PostgreSQL-backed user storage.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset drops every table in the public schema before migrating.
// Intended for tests.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New opens the connection pool, runs the migrations found in migrationsDir
// and returns a ready PostgresDB.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := openDB("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.prepare(ctx, migrationsDir, options.DBPreReset); err != nil {
		if closeErr := database.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}

	return result, nil
}

func (db *PostgresDB) prepare(ctx context.Context, migrationsDir string, preReset bool) error {
	if preReset {
		if err := db.resetDB(ctx); err != nil {
			return fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/prepare(): error while `db.resetDB()` calling: %w",
				err,
			)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/prepare(): error while `goose.SetDialect()` calling: %w",
			err,
		)
	}

	if err := goose.UpContext(ctx, db.database, migrationsDir); err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/prepare(): error while `goose.UpContext()` calling: %w",
			err,
		)
	}

	return nil
}

// FindUserByID returns the user with the given ID, or nil if there is none.
func (db *PostgresDB) FindUserByID(ctx context.Context, id int64) (*user.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, name, email, nickname FROM users WHERE id = $1`,
		id,
	)

	return scanUser(row)
}

// FindUserByEmail returns the user with the given email, or nil if there is none.
func (db *PostgresDB) FindUserByEmail(ctx context.Context, email string) (*user.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, name, email, nickname FROM users WHERE email = $1`,
		email,
	)

	return scanUser(row)
}

// InsertUser stores usr and returns the ID assigned by the database.
// A unique violation on email is reported as models.ErrEmailAlreadyExists.
func (db *PostgresDB) InsertUser(ctx context.Context, usr *user.User) (int64, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO users (name, email, nickname) VALUES ($1, $2, $3) RETURNING id`,
		usr.Name,
		usr.Email,
		usr.Nickname,
	)

	var id int64
	err := row.Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return 0, models.ErrEmailAlreadyExists
		}
		return 0, err
	}

	return id, nil
}

// DeleteUserByEmail removes the user with the given email.
func (db *PostgresDB) DeleteUserByEmail(ctx context.Context, email string) error {
	_, err := db.database.ExecContext(
		ctx,
		`DELETE FROM users WHERE email = $1`,
		email,
	)

	return err
}

// UpdateUserNameByEmail sets a new name for the user with the given email.
func (db *PostgresDB) UpdateUserNameByEmail(ctx context.Context, email, name string) error {
	_, err := db.database.ExecContext(
		ctx,
		`UPDATE users SET name = $1 WHERE email = $2`,
		name,
		email,
	)

	return err
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func scanUser(row *sql.Row) (*user.User, error) {
	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Name, &usr.Email, &usr.Nickname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return usr, nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}
