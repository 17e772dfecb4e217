// Package jsondb keeps users in memory and persists them as a single JSON
// document that is loaded on open and rewritten on Close.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/userapi/internal/models"
	"github.com/patric-chuzhbe/userapi/internal/user"
)

type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

type CacheStruct struct {
	Users      map[int64]*user.User
	NextUserID int64
}

func NewCache() CacheStruct {
	return CacheStruct{
		Users:      map[int64]*user.User{},
		NextUserID: 1,
	}
}

func initDBFile(fileName string) error {
	return writeToJSONFile(fileName, NewCache())
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

func New(fileName string) (*JSONDB, error) {
	db := JSONDB{
		fileName: fileName,
		Cache:    NewCache(),
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
	}

	if db.Cache.Users == nil {
		db.Cache.Users = map[int64]*user.User{}
	}
	if db.Cache.NextUserID < 1 {
		db.Cache.NextUserID = 1
	}

	return &db, nil
}

func (db *JSONDB) FindUserByID(ctx context.Context, id int64) (*user.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, ok := db.Cache.Users[id]
	if !ok {
		return nil, nil
	}
	found := *usr

	return &found, nil
}

func (db *JSONDB) FindUserByEmail(ctx context.Context, email string) (*user.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr := db.findByEmail(email)
	if usr == nil {
		return nil, nil
	}
	found := *usr

	return &found, nil
}

// InsertUser assigns the next ID to usr. The email check and the insert
// happen under one lock so the uniqueness invariant holds for concurrent callers.
func (db *JSONDB) InsertUser(ctx context.Context, usr *user.User) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.findByEmail(usr.Email) != nil {
		return 0, models.ErrEmailAlreadyExists
	}

	stored := *usr
	stored.ID = db.Cache.NextUserID
	db.Cache.NextUserID++
	db.Cache.Users[stored.ID] = &stored

	return stored.ID, nil
}

func (db *JSONDB) DeleteUserByEmail(ctx context.Context, email string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if usr := db.findByEmail(email); usr != nil {
		delete(db.Cache.Users, usr.ID)
	}

	return nil
}

func (db *JSONDB) UpdateUserNameByEmail(ctx context.Context, email, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if usr := db.findByEmail(email); usr != nil {
		usr.Name = name
	}

	return nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}

func (db *JSONDB) findByEmail(email string) *user.User {
	found := funk.Find(
		funk.Values(db.Cache.Users),
		func(usr *user.User) bool { return usr.Email == email },
	)
	if found == nil {
		return nil
	}

	return found.(*user.User)
}
