package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flakestry/flakestry/internal/config"
	"github.com/flakestry/flakestry/internal/models"
)

type recordingImporter struct {
	got    []models.ReleaseInput
	failAt int
}

func (r *recordingImporter) AddRelease(ctx context.Context, in models.ReleaseInput) (int64, error) {
	if r.failAt > 0 && len(r.got)+1 == r.failAt {
		return 0, errors.New("boom")
	}
	r.got = append(r.got, in)
	return int64(len(r.got)), nil
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "releases.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const fixture = `[
  {"owner": "nixos", "repo": "nixpkgs", "version": "24.05", "created_at": "2024-05-31T00:00:00Z"},
  {"owner": "numtide", "repo": "flake-utils", "version": "1.0.0", "description": "Pure Nix flake utility functions"}
]`

func TestImportReleases(t *testing.T) {
	imp := &recordingImporter{}
	n, err := importReleases(context.Background(), imp, writeFixture(t, fixture))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, imp.got, 2)
	assert.Equal(t, "nixpkgs", imp.got[0].Repo)
	assert.Equal(t, "Pure Nix flake utility functions", imp.got[1].Description)
}

func TestImportReleasesStopsOnError(t *testing.T) {
	imp := &recordingImporter{failAt: 2}
	n, err := importReleases(context.Background(), imp, writeFixture(t, fixture))
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestImportReleasesBadJSON(t *testing.T) {
	_, err := importReleases(context.Background(), &recordingImporter{}, writeFixture(t, `{"owner":`))
	assert.Error(t, err)

	_, err = importReleases(context.Background(), &recordingImporter{}, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestApplyFlags(t *testing.T) {
	webport, webssl, webcertFile, webkeyFile = 8080, true, "cert.pem", "key.pem"
	dbDriver, dbDSN = config.DriverPostgres, "postgres://localhost/flakestry"
	t.Cleanup(func() {
		webport, webssl, webcertFile, webkeyFile = 0, false, "", ""
		dbDriver, dbDSN = "", ""
	})

	cfg := config.NewDefaultConfig()
	applyFlags(cfg)
	assert.Equal(t, 8080, cfg.Web.ListenPort)
	assert.True(t, cfg.Web.SSL)
	assert.Equal(t, "cert.pem", cfg.Web.CertFile)
	assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestApplyFlagsKeepsFileDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flakestry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("web:\n  debug: true\n"), 0o644))

	cfg := config.NewDefaultConfig()
	require.NoError(t, cfg.LoadFile(path))
	applyFlags(cfg)
	assert.True(t, cfg.Web.Debug, "unset -webdebug must not override the file")

	webdebug = true
	t.Cleanup(func() { webdebug = false })
	cfg = config.NewDefaultConfig()
	applyFlags(cfg)
	assert.True(t, cfg.Web.Debug)
}

type countingClearer struct {
	mu      sync.Mutex
	cleared int
}

func (c *countingClearer) Clear() {
	c.mu.Lock()
	c.cleared++
	c.mu.Unlock()
}

func (c *countingClearer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleared
}

func TestFlushOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal)
	clearer := &countingClearer{}
	done := make(chan struct{})
	go func() {
		flushOnSignal(ctx, sig, clearer)
		close(done)
	}()

	sig <- syscall.SIGHUP
	sig <- syscall.SIGHUP
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("flushOnSignal did not return after cancel")
	}
	assert.Equal(t, 2, clearer.count())
}
