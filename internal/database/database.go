// Package database provides the release store for flakestry
package database

import (
	"database/sql"
	"fmt"
	"log"
)

// GetMainDB returns the main database connection for direct access
// This should only be used by specialized tools like importers
func (db *Database) GetMainDB() *sql.DB {
	return db.mainDB
}

// Driver returns the name of the database driver in use
func (db *Database) Driver() string {
	return db.driver
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.mainDB == nil {
		return nil
	}
	if err := db.mainDB.Close(); err != nil {
		return fmt.Errorf("failed to close main database: %w", err)
	}
	log.Printf("[DB]: Closed %s database", db.driver)
	return nil
}
