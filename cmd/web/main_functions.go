package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/flakestry/flakestry/internal/cache"
	"github.com/flakestry/flakestry/internal/config"
	"github.com/flakestry/flakestry/internal/database"
	"github.com/flakestry/flakestry/internal/models"
)

// applyFlags overrides the configuration with command-line flags if provided
func applyFlags(mainConfig *config.MainConfig) {
	webConfig := &mainConfig.Web
	if webport > 0 {
		webConfig.ListenPort = webport
		log.Printf("[WEB]: Overriding listen port with command-line flag: %d", webConfig.ListenPort)
	}
	if webssl {
		webConfig.SSL = true
		log.Printf("[WEB]: SSL enabled via command-line flag")
	}
	if webcertFile != "" {
		webConfig.CertFile = webcertFile
		log.Printf("[WEB]: SSL cert file set: %s", webConfig.CertFile)
	}
	if webkeyFile != "" {
		webConfig.KeyFile = webkeyFile
		log.Printf("[WEB]: SSL key file set: %s", webConfig.KeyFile)
	}
	if webdebug {
		webConfig.Debug = true
		log.Printf("[WEB]: Debug mode enabled via command-line flag")
	}
	if dbDriver != "" {
		mainConfig.Database.Driver = dbDriver
	}
	if dbDSN != "" {
		mainConfig.Database.DSN = dbDSN
	}
}

// releaseImporter is satisfied by *database.Database
type releaseImporter interface {
	AddRelease(ctx context.Context, in models.ReleaseInput) (int64, error)
}

var _ releaseImporter = (*database.Database)(nil)

// importReleases loads a JSON array of releases from path and stores each one
func importReleases(ctx context.Context, db releaseImporter, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	var releases []models.ReleaseInput
	if err := json.Unmarshal(data, &releases); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, r := range releases {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := db.AddRelease(ctx, r); err != nil {
			return i, fmt.Errorf("release %d (%s/%s %s): %w", i, r.Owner, r.Repo, r.Version, err)
		}
	}
	return len(releases), nil
}

// cacheClearer is satisfied by *cache.ReleaseCache
type cacheClearer interface {
	Clear()
}

var _ cacheClearer = (*cache.ReleaseCache)(nil)

// flushOnSignal clears the listing cache every time sig fires until ctx ends.
// main wires it to SIGHUP.
func flushOnSignal(ctx context.Context, sig <-chan os.Signal, c cacheClearer) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-sig:
			log.Printf("[WEB]: Got %v, clearing listing cache", s)
			c.Clear()
		}
	}
}
