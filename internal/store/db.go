package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrTestNotFound is returned when a stage test doesn't exist
var ErrTestNotFound = errors.New("stage test not found")

// ErrOverrideNotFound is returned when no manual override is stored for a kind
var ErrOverrideNotFound = errors.New("override not found")

// ErrNoAnalysis is returned when a test has not been analyzed yet
var ErrNoAnalysis = errors.New("test has not been analyzed")

// pragmas apply to every pooled connection. Foreign keys back the cascading
// deletes; busy_timeout lets the API's concurrent writers wait for the lock.
const pragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// DB wraps the SQLite connection
type DB struct {
	*sql.DB
}

// Open opens the SQLite database at path, creating it if necessary
func Open(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return prepare(sqlDB)
}

// OpenMemory opens a private in-memory database. Used by tests and by the
// stateless analyze command.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Every pooled connection would get its own empty :memory: database
	sqlDB.SetMaxOpenConns(1)
	return prepare(sqlDB)
}

func prepare(sqlDB *sql.DB) (*DB, error) {
	// Run migrations
	if err := migrate(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &DB{sqlDB}, nil
}
