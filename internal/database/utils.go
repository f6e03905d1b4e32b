package database

import (
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// createDirIfNotExists creates a directory if it doesn't exist
func createDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// foldName normalizes a GitHub owner or repo name for case-insensitive lookups.
// A Caser is stateful, so each call gets its own.
func foldName(name string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}
