package memorystorage

import (
	"github.com/patric-chuzhbe/userapi/internal/db/jsondb"
)

// MemoryStorage is a jsondb that never touches the filesystem.
type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.NewCache(),
		},
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}
