package stores

import (
	"fmt"
)

// NewStore creates a journal based on the configuration. Type "none" or an
// empty type disables journaling.
func NewStore(config *StoreConfig) (Journal, error) {
	switch config.Type {
	case "sqlite":
		store, err := NewSQLiteStore(config)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := NewPostgresStore(config)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "", "none":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// NewSQLiteStoreDefault creates a SQLite store with default settings
func NewSQLiteStoreDefault() (*SQLiteStore, error) {
	return NewSQLiteStoreSimple("babyzen_journal.sqlite")
}

// NewPostgresStoreDefault creates a PostgreSQL store from discrete settings.
func NewPostgresStoreDefault(host, user, password, dbname string, port int) (*PostgresStore, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)
	return NewPostgresStoreSimple(dsn)
}
