package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/flakestry/flakestry/internal/models"
)

// LatestReleasesLimit caps the GET /api/flake listing
const LatestReleasesLimit = 100

const selectCompactRelease = `SELECT r.id AS id,
		o.name AS owner,
		g.name AS repo,
		r.version AS version,
		r.description AS description,
		r.created_at AS created_at
	FROM "release" r
	INNER JOIN githubrepo g ON g.id = r.repo_id
	INNER JOIN githubowner o ON o.id = g.owner_id`

// GetFlakes returns the latest releases, newest first
func (db *Database) GetFlakes(ctx context.Context) ([]*models.FlakeReleaseCompact, error) {
	query := selectCompactRelease + ` ORDER BY r.created_at DESC, r.id DESC LIMIT $1`
	rows, err := retryableQuery(ctx, db.mainDB, query, LatestReleasesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch flakes from database: %w", err)
	}
	defer rows.Close()

	var releases []*models.FlakeReleaseCompact
	for rows.Next() {
		var rel models.FlakeReleaseCompact
		var description sql.NullString
		if err := rows.Scan(&rel.ID, &rel.Owner, &rel.Repo, &rel.Version, &description, &rel.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flake release: %w", err)
		}
		rel.Description = description.String
		releases = append(releases, &rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flake rows: %w", err)
	}
	return releases, nil
}

// GetRepoID looks up a repository by owner and name, ignoring case.
// Names are compared by their name_folded column, which only foldName writes.
// found is false when the repository does not exist.
func (db *Database) GetRepoID(ctx context.Context, owner, repo string) (id int64, found bool, err error) {
	query := `SELECT g.id AS id
		FROM githubrepo g
		INNER JOIN githubowner o ON o.id = g.owner_id
		WHERE g.name_folded = $1 AND o.name_folded = $2 LIMIT 1`

	err = retryableQueryRowScan(ctx, db.mainDB, query, []interface{}{foldName(repo), foldName(owner)}, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch repo id from database: %w", err)
	}
	return id, true, nil
}

// GetRepoReleases returns every release of a repository in storage order
func (db *Database) GetRepoReleases(ctx context.Context, repoID int64) ([]*models.FlakeRelease, error) {
	query := `SELECT r.id AS id,
			o.name AS owner,
			g.name AS repo,
			r.version AS version,
			r.description AS description,
			r."commit" AS "commit",
			COALESCE(r.readme, '') AS readme,
			r.created_at AS created_at
		FROM "release" r
		INNER JOIN githubrepo g ON g.id = r.repo_id
		INNER JOIN githubowner o ON o.id = g.owner_id
		WHERE r.repo_id = $1
		ORDER BY r.id`

	rows, err := retryableQuery(ctx, db.mainDB, query, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repo releases from database: %w", err)
	}
	defer rows.Close()

	var releases []*models.FlakeRelease
	for rows.Next() {
		var rel models.FlakeRelease
		var description sql.NullString
		if err := rows.Scan(&rel.ID, &rel.Owner, &rel.Repo, &rel.Version, &description,
			&rel.Commit, &rel.Readme, &rel.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan repo release: %w", err)
		}
		rel.Description = description.String
		releases = append(releases, &rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repo release rows: %w", err)
	}
	return releases, nil
}

// AddRelease stores a release, creating owner and repo rows as needed.
// Returns the new release id.
func (db *Database) AddRelease(ctx context.Context, in models.ReleaseInput) (int64, error) {
	owner := strings.TrimSpace(in.Owner)
	repo := strings.TrimSpace(in.Repo)
	version := strings.TrimSpace(in.Version)
	if owner == "" || repo == "" || version == "" {
		return 0, fmt.Errorf("owner, repo and version are required (got %q/%q@%q)", in.Owner, in.Repo, in.Version)
	}
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	var releaseID int64
	err := retryableTransactionExec(ctx, db.mainDB, func(tx *sql.Tx) error {
		ownerID, err := upsertOwner(ctx, tx, owner)
		if err != nil {
			return err
		}
		repoID, err := upsertRepo(ctx, tx, ownerID, repo)
		if err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`INSERT INTO "release" (repo_id, version, description, readme, "commit", created_at)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			repoID, version, nullString(in.Description), nullString(in.Readme), in.Commit, createdAt,
		).Scan(&releaseID)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add release %s/%s@%s: %w", owner, repo, version, err)
	}
	log.Printf("[DB]: Added release %s/%s@%s (id=%d)", owner, repo, version, releaseID)
	return releaseID, nil
}

func upsertOwner(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM githubowner WHERE name_folded = $1 LIMIT 1`, foldName(name)).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up owner %s: %w", name, err)
	}
	if err := tx.QueryRowContext(ctx, `INSERT INTO githubowner (name, name_folded) VALUES ($1, $2) RETURNING id`,
		name, foldName(name)).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert owner %s: %w", name, err)
	}
	return id, nil
}

func upsertRepo(ctx context.Context, tx *sql.Tx, ownerID int64, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM githubrepo WHERE owner_id = $1 AND name_folded = $2 LIMIT 1`,
		ownerID, foldName(name)).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up repo %s: %w", name, err)
	}
	if err := tx.QueryRowContext(ctx, `INSERT INTO githubrepo (name, name_folded, owner_id) VALUES ($1, $2, $3) RETURNING id`,
		name, foldName(name), ownerID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert repo %s: %w", name, err)
	}
	return id, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
