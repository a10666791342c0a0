package database

import (
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/log"
)

// Memory opens a private in-memory database.
const Memory = ":memory:"

type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

var DefaultPool = PoolOptions{
	MaxOpenConns:    20,
	MaxIdleConns:    10,
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 2 * time.Hour,
}

// Open opens (creating if needed) the SQLite file at path and migrates it to
// the latest schema.
func Open(path string) (*sql.DB, error) {
	return OpenPool(path, DefaultPool)
}

func OpenPool(path string, pool PoolOptions) (*sql.DB, error) {
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "db.mkdir")
		}
	} else {
		// every connection to :memory: is a different database
		pool.MaxOpenConns, pool.MaxIdleConns = 1, 1
		pool.ConnMaxIdleTime, pool.ConnMaxLifetime = 0, 0
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, errors.Wrap(err, "db.open")
	}

	if path != Memory {
		var mode string
		if err := db.QueryRow("PRAGMA journal_mode = WAL").Scan(&mode); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "db.journal_mode")
		}
		log.Debugf("db.journal_mode: %s", mode)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := migrateDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// dsn enables foreign keys on every pooled connection and takes the write
// lock when a transaction starts, so concurrent writers queue on the busy
// timeout instead of failing on upgrade.
func dsn(path string) string {
	params := url.Values{
		"_busy_timeout": {"5000"},
		"_txlock":       {"immediate"},
		"_foreign_keys": {"on"},
	}
	if path == Memory {
		return "file::memory:?" + params.Encode()
	}
	return "file:" + path + "?" + params.Encode()
}
