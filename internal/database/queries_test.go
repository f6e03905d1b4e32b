package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/flakestry/flakestry/internal/config"
	"github.com/flakestry/flakestry/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	dbconfig := DefaultDBConfig()
	dbconfig.Driver = config.DriverSQLite
	dbconfig.DSN = ":memory:"

	db, err := OpenDatabase(dbconfig)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func addRelease(t *testing.T, db *Database, owner, repo, version string, createdAt time.Time) int64 {
	t.Helper()
	id, err := db.AddRelease(context.Background(), models.ReleaseInput{
		Owner:       owner,
		Repo:        repo,
		Version:     version,
		Description: "flake " + repo,
		Readme:      "# " + repo,
		Commit:      "c0ffee" + version,
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
	return id
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, config.DriverSQLite, db.Driver())
	require.NoError(t, db.Migrate())

	var count int
	require.NoError(t, db.GetMainDB().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	migrations, err := getMigrationFiles(config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestGetFlakesOrderAndLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < LatestReleasesLimit+5; i++ {
		addRelease(t, db, "nixos", fmt.Sprintf("repo%03d", i), "0.1.0", base.Add(time.Duration(i)*time.Minute))
	}

	releases, err := db.GetFlakes(ctx)
	require.NoError(t, err)
	require.Len(t, releases, LatestReleasesLimit)

	assert.Equal(t, fmt.Sprintf("repo%03d", LatestReleasesLimit+4), releases[0].Repo)
	for i := 1; i < len(releases); i++ {
		assert.False(t, releases[i].CreatedAt.After(releases[i-1].CreatedAt), "releases must be newest first")
	}
}

func TestGetFlakesEmpty(t *testing.T) {
	db := openTestDB(t)
	releases, err := db.GetFlakes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, releases)
}

func TestNullDescriptionBecomesEmpty(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.AddRelease(ctx, models.ReleaseInput{Owner: "numtide", Repo: "flake-utils", Version: "1.0.0"})
	require.NoError(t, err)

	releases, err := db.GetFlakes(ctx)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, "", releases[0].Description)
}

func TestGetRepoCaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	addRelease(t, db, "NixOS", "Nixpkgs", "23.11", created)
	addRelease(t, db, "nixos", "nixpkgs", "24.05", created.Add(time.Hour))

	id, found, err := db.GetRepoID(ctx, "nixos", "NIXPKGS")
	require.NoError(t, err)
	require.True(t, found)

	releases, err := db.GetRepoReleases(ctx, id)
	require.NoError(t, err)
	require.Len(t, releases, 2, "both releases land on the same repo row")

	first := releases[0]
	assert.Equal(t, "NixOS", first.Owner)
	assert.Equal(t, "Nixpkgs", first.Repo)
	assert.Equal(t, "23.11", first.Version)
	assert.Equal(t, "flake Nixpkgs", first.Description)
	assert.Equal(t, "# Nixpkgs", first.Readme)
	assert.Equal(t, "c0ffee23.11", first.Commit)
	assert.True(t, first.CreatedAt.Equal(created))
}

func TestGetRepoNotFound(t *testing.T) {
	db := openTestDB(t)
	addRelease(t, db, "nixos", "nixpkgs", "24.05", time.Now())

	_, found, err := db.GetRepoID(context.Background(), "nixos", "home-manager")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAddReleaseValidation(t *testing.T) {
	db := openTestDB(t)
	_, err := db.AddRelease(context.Background(), models.ReleaseInput{Owner: "nixos", Repo: " "})
	assert.Error(t, err)
}

func TestParseMigrationFileName(t *testing.T) {
	m, err := parseMigrationFileName("migrations/sqlite3", "0002_add_index.sql")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Version)
	assert.Equal(t, "add_index", m.Description)
	assert.Equal(t, "migrations/sqlite3/0002_add_index.sql", m.FilePath)

	for _, bad := range []string{"0001.sql", "abc_flakes.sql", "0001_flakes.txt", "0001_.sql"} {
		_, err := parseMigrationFileName("migrations/sqlite3", bad)
		assert.Error(t, err, bad)
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.True(t, isRetryableError(fmt.Errorf("database is locked")))
	assert.True(t, isRetryableError(fmt.Errorf("SQLITE_BUSY")))
	assert.False(t, isRetryableError(fmt.Errorf("no such table: release")))
}

func TestOpenDatabaseUnknownDriver(t *testing.T) {
	_, err := OpenDatabase(&DBConfig{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "nixpkgs", foldName("  NixPkgs "))
}

func TestGetRepoNonASCIINames(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	addRelease(t, db, "Ärger", "Über", "1.0", created)
	addRelease(t, db, "ärger", "ÜBER", "1.1", created.Add(time.Hour))

	for _, tc := range []struct{ owner, repo string }{
		{"Ärger", "Über"},
		{"ÄRGER", "über"},
	} {
		id, found, err := db.GetRepoID(ctx, tc.owner, tc.repo)
		require.NoError(t, err)
		require.True(t, found, "%s/%s", tc.owner, tc.repo)

		releases, err := db.GetRepoReleases(ctx, id)
		require.NoError(t, err)
		require.Len(t, releases, 2)
		assert.Equal(t, "Ärger", releases[0].Owner)
		assert.Equal(t, "Über", releases[0].Repo)
	}

	var owners int
	require.NoError(t, db.GetMainDB().QueryRow(`SELECT COUNT(*) FROM githubowner`).Scan(&owners))
	assert.Equal(t, 1, owners)
}
