package database

import (
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/flakestry/flakestry/internal/config"

	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
)

// Database represents the release database connection
type Database struct {
	// Main database connection
	mainDB *sql.DB

	// sqlite3 or postgres
	driver string

	// Database configuration
	dbconfig *DBConfig
}

// DBConfig represents database configuration
type DBConfig struct {
	Driver string
	DSN    string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// SQLite performance settings
	WALMode   bool   // Write-Ahead Logging
	SyncMode  string // OFF, NORMAL, FULL
	CacheSize int    // KB
	TempStore string // MEMORY, FILE
}

// DefaultDBConfig returns default database configuration
func DefaultDBConfig() *DBConfig {
	return &DBConfig{
		Driver:          config.DriverSQLite,
		DSN:             config.DefaultSQLiteDB,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 0, // unlimited for SQLite
		WALMode:         true,
		SyncMode:        "NORMAL",
		CacheSize:       -16384, // -16384 == 1024 KB * 16384 = 16MB cache
		TempStore:       "MEMORY",
	}
}

// DBConfigFrom builds a DBConfig from the application configuration
func DBConfigFrom(cfg config.DatabaseConfig) *DBConfig {
	dbconfig := DefaultDBConfig()
	dbconfig.Driver = cfg.Driver
	dbconfig.DSN = cfg.DSN
	return dbconfig
}

// OpenDatabase opens and pings the database. Migrate must be called before use.
func OpenDatabase(dbconfig *DBConfig) (*Database, error) {
	if dbconfig == nil {
		dbconfig = DefaultDBConfig()
	}
	db := &Database{
		driver:   dbconfig.Driver,
		dbconfig: dbconfig,
	}

	switch dbconfig.Driver {
	case config.DriverSQLite:
		if err := db.initSQLite(); err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite database: %w", err)
		}
	case config.DriverPostgres:
		if err := db.initPostgres(); err != nil {
			return nil, fmt.Errorf("failed to initialize postgres database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", dbconfig.Driver)
	}
	return db, nil
}

func (db *Database) initSQLite() error {
	dsn := db.dbconfig.DSN
	inMemory := isSQLiteMemory(dsn)
	log.Printf("[DB]: Initializing sqlite database at: %s", dsn)

	if !inMemory && !strings.HasPrefix(dsn, "file:") {
		if err := createDirIfNotExists(filepath.Dir(dsn)); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	mainDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open main database: %w", err)
	}

	if inMemory {
		// every connection would get its own empty database
		mainDB.SetMaxOpenConns(1)
	} else {
		mainDB.SetMaxOpenConns(db.dbconfig.MaxOpenConns)
		mainDB.SetMaxIdleConns(db.dbconfig.MaxIdleConns)
	}
	mainDB.SetConnMaxLifetime(db.dbconfig.ConnMaxLifetime)

	if err := mainDB.Ping(); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to ping main database: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to ping main database: %w", err)
	}

	if err := db.applySQLitePragmas(mainDB, inMemory); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to apply SQLite pragmas: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to apply SQLite pragmas: %w", err)
	}

	db.mainDB = mainDB
	return nil
}

func (db *Database) initPostgres() error {
	log.Printf("[DB]: Initializing postgres database")
	mainDB, err := sql.Open("postgres", db.dbconfig.DSN)
	if err != nil {
		return fmt.Errorf("failed to open main database: %w", err)
	}
	mainDB.SetMaxOpenConns(db.dbconfig.MaxOpenConns)
	mainDB.SetMaxIdleConns(db.dbconfig.MaxIdleConns)
	mainDB.SetConnMaxLifetime(db.dbconfig.ConnMaxLifetime)

	if err := mainDB.Ping(); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to ping main database: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to ping main database: %w", err)
	}
	db.mainDB = mainDB
	return nil
}

// applySQLitePragmas applies performance and configuration pragmas to SQLite connection
func (db *Database) applySQLitePragmas(conn *sql.DB, inMemory bool) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA cache_size = %d", db.dbconfig.CacheSize),
		fmt.Sprintf("PRAGMA synchronous = %s", db.dbconfig.SyncMode),
		fmt.Sprintf("PRAGMA temp_store = %s", db.dbconfig.TempStore),
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 30000", // 30 seconds
	}

	if db.dbconfig.WALMode && !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
		pragmas = append(pragmas, "PRAGMA wal_autocheckpoint = 1000")
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma '%s': %w", pragma, err)
		}
	}
	return nil
}

func isSQLiteMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
