package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/flakestry/flakestry/internal/config"
)

//go:embed migrations/sqlite3/*.sql migrations/postgres/*.sql
var EmbeddedMigrationsFS embed.FS

// Migration cache per driver to avoid re-reading the embedded filesystem
var (
	migrationCache    = make(map[string][]*MigrationFile)
	migrationCacheMux sync.RWMutex
)

// MigrationFile represents a migration file with its metadata
type MigrationFile struct {
	FileName    string
	Version     int
	Description string
	FilePath    string
}

// Migrate applies all pending migrations for the configured driver
func (db *Database) Migrate() error {
	ctx := context.Background()
	if err := ensureMigrationsTable(ctx, db.mainDB, db.driver); err != nil {
		log.Printf("[DB]: Failed to ensure migrations table: %v", err)
		return err
	}

	migrations, err := getMigrationFiles(db.driver)
	if err != nil {
		log.Printf("[DB]: Failed to get migration files: %v", err)
		return err
	}

	applied, err := getAppliedMigrations(ctx, db.mainDB)
	if err != nil {
		log.Printf("[DB]: Failed to get applied migrations: %v", err)
		return err
	}

	for _, migration := range migrations {
		if applied[migration.FileName] {
			continue
		}
		if err := applyMigration(ctx, db.mainDB, migration); err != nil {
			log.Printf("[DB]: Failed to apply migration %s: %v", migration.FileName, err)
			return err
		}
		log.Printf("[DB]: Applied migration %s", migration.FileName)
	}
	return nil
}

// parseMigrationFileName parses a migration file name to extract metadata
func parseMigrationFileName(dir, fileName string) (*MigrationFile, error) {
	if !strings.HasSuffix(fileName, ".sql") {
		return nil, fmt.Errorf("migration file must have .sql extension: %s", fileName)
	}
	name := strings.TrimSuffix(fileName, ".sql")
	parts := strings.SplitN(name, "_", 2)
	if len(parts) < 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid migration file name format: %s (expected format: 0001_description.sql)", fileName)
	}

	version, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid version number in migration file: %s", fileName)
	}

	return &MigrationFile{
		FileName:    fileName,
		Version:     version,
		Description: parts[1],
		FilePath:    path.Join(dir, fileName),
	}, nil
}

// getMigrationFiles reads and parses all embedded migration files for driver
func getMigrationFiles(driver string) ([]*MigrationFile, error) {
	migrationCacheMux.RLock()
	if cached, ok := migrationCache[driver]; ok {
		// Return a copy of the cached slice to avoid concurrent access issues
		migrations := make([]*MigrationFile, len(cached))
		copy(migrations, cached)
		migrationCacheMux.RUnlock()
		return migrations, nil
	}
	migrationCacheMux.RUnlock()

	dir := path.Join("migrations", driver)
	files, err := fs.ReadDir(EmbeddedMigrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations directory %s: %w", dir, err)
	}

	var migrations []*MigrationFile
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".sql") {
			continue
		}
		migration, err := parseMigrationFileName(dir, f.Name())
		if err != nil {
			// Log warning but continue with other migrations
			log.Printf("[DB]: Warning: skipping invalid migration file %s: %v", f.Name(), err)
			continue
		}
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	migrationCacheMux.Lock()
	migrationCache[driver] = migrations
	migrationCacheMux.Unlock()

	result := make([]*MigrationFile, len(migrations))
	copy(result, migrations)
	return result, nil
}

// ensureMigrationsTable creates the schema_migrations table if it doesn't exist
func ensureMigrationsTable(ctx context.Context, db *sql.DB, driver string) error {
	query := `CREATE TABLE IF NOT EXISTS schema_migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL UNIQUE,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if driver == config.DriverPostgres {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
		id SERIAL PRIMARY KEY,
		filename TEXT NOT NULL UNIQUE,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	}
	if _, err := retryableExec(ctx, db, query); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// getAppliedMigrations returns the set of migration file names already applied
func getAppliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := retryableQuery(ctx, db, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fname string
		if err := rows.Scan(&fname); err != nil {
			return nil, fmt.Errorf("failed to scan migration filename: %w", err)
		}
		applied[fname] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migration rows: %w", err)
	}
	return applied, nil
}

// applyMigration runs one migration and records it in the same transaction
func applyMigration(ctx context.Context, db *sql.DB, migration *MigrationFile) error {
	content, err := fs.ReadFile(EmbeddedMigrationsFS, migration.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read embedded migration file %s: %w", migration.FilePath, err)
	}

	return retryableTransactionExec(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.FileName, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, migration.FileName); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.FileName, err)
		}
		return nil
	})
}
