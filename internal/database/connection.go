package database

import (
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Supported values for Config.Type
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// sqliteFile is the database file name inside Config.DataDir
const sqliteFile = "lettersbot.db"

// Config selects the database backend
type Config struct {
	Type    string // sqlite or postgres
	DataDir string // directory for the sqlite file
	URL     string // postgres connection string
}

// Connect opens the configured database and makes sure the schema exists
func Connect(cfg Config) (*sqlx.DB, error) {
	switch cfg.Type {
	case TypePostgres:
		if cfg.URL == "" {
			return nil, errors.New("database: postgres requires a database url")
		}
		return Open("postgres", cfg.URL)
	case TypeSQLite, "":
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = "data"
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create data directory")
		}
		return Open("sqlite3", filepath.Join(dataDir, sqliteFile))
	default:
		return nil, errors.Errorf("database: unsupported type %q", cfg.Type)
	}
}

// Open connects with the given driver and initializes the schema
func Open(driverName, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if driverName == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to enable foreign keys")
		}
		// SQLite doesn't support multiple writers; one connection also keeps
		// an in-memory database alive between queries.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []struct {
	table string
	ddl   string
}{
	{"items", `
		CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			letter TEXT NOT NULL,
			sound TEXT NOT NULL,
			example TEXT NOT NULL DEFAULT '',
			item_group TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{"progress_snapshots", `
		CREATE TABLE IF NOT EXISTS progress_snapshots (
			snapshot_key TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{"quiz_sessions", `
		CREATE TABLE IF NOT EXISTS quiz_sessions (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP NOT NULL,
			total_questions INTEGER NOT NULL,
			correct_answers INTEGER NOT NULL,
			incorrect_answers INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			duration_ms BIGINT NOT NULL,
			xp_earned INTEGER NOT NULL,
			perfect BOOLEAN NOT NULL,
			achievements TEXT NOT NULL DEFAULT ''
		)`},
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	for _, s := range schema {
		if _, err := db.Exec(s.ddl); err != nil {
			return errors.Wrapf(err, "failed to create %s table", s.table)
		}
	}
	_, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_quiz_sessions_started_at ON quiz_sessions (started_at)")
	return errors.Wrap(err, "failed to create quiz_sessions index")
}
