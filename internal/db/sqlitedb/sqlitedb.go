// Package sqlitedb stores users in a SQLite file through gorm.
package sqlitedb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/patric-chuzhbe/userapi/internal/models"
	"github.com/patric-chuzhbe/userapi/internal/user"
)

type userModel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Name     string `gorm:"not null"`
	Email    string `gorm:"not null;uniqueIndex"`
	Nickname string `gorm:"not null"`
}

func (userModel) TableName() string {
	return "users"
}

func (m *userModel) toUser() *user.User {
	return &user.User{
		ID:       m.ID,
		Name:     m.Name,
		Email:    m.Email,
		Nickname: m.Nickname,
	}
}

type SQLiteDB struct {
	database *gorm.DB
}

// New opens (creating if needed) the SQLite database at path and migrates the users table.
func New(path string) (*SQLiteDB, error) {
	database, err := gorm.Open(
		sqlite.Open(path),
		&gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/sqlitedb/sqlitedb.go/New(): error while `gorm.Open()` calling: %w", err)
	}

	if err := database.AutoMigrate(&userModel{}); err != nil {
		return nil, fmt.Errorf("in internal/db/sqlitedb/sqlitedb.go/New(): error while `AutoMigrate()` calling: %w", err)
	}

	return &SQLiteDB{database: database}, nil
}

func (db *SQLiteDB) FindUserByID(ctx context.Context, id int64) (*user.User, error) {
	return db.first(ctx, "id = ?", id)
}

func (db *SQLiteDB) FindUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return db.first(ctx, "email = ?", email)
}

func (db *SQLiteDB) InsertUser(ctx context.Context, usr *user.User) (int64, error) {
	model := userModel{
		Name:     usr.Name,
		Email:    usr.Email,
		Nickname: usr.Nickname,
	}

	err := db.database.WithContext(ctx).Create(&model).Error
	if err != nil {
		if isUniqueViolation(err) {
			return 0, models.ErrEmailAlreadyExists
		}
		return 0, err
	}

	return model.ID, nil
}

func (db *SQLiteDB) DeleteUserByEmail(ctx context.Context, email string) error {
	return db.database.WithContext(ctx).
		Where("email = ?", email).
		Delete(&userModel{}).
		Error
}

func (db *SQLiteDB) UpdateUserNameByEmail(ctx context.Context, email, name string) error {
	return db.database.WithContext(ctx).
		Model(&userModel{}).
		Where("email = ?", email).
		Update("name", name).
		Error
}

func (db *SQLiteDB) Ping(ctx context.Context) error {
	sqlDB, err := db.database.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (db *SQLiteDB) Close() error {
	sqlDB, err := db.database.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (db *SQLiteDB) first(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var model userModel
	err := db.database.WithContext(ctx).Where(query, arg).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return model.toUser(), nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
