// Package models defines core data structures for flakestry
package models

import (
	"sort"
	"time"
)

// FlakeReleaseCompact is one release in a listing, without commit and readme
type FlakeReleaseCompact struct {
	ID          int64     `json:"-" db:"id"`
	Owner       string    `json:"owner" db:"owner"`
	Repo        string    `json:"repo" db:"repo"`
	Version     string    `json:"version" db:"version"`
	Description string    `json:"description" db:"description"` // NULL in the database becomes ""
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// FlakeRelease is a full release of a repository
type FlakeRelease struct {
	FlakeReleaseCompact
	Commit string `json:"commit" db:"commit"`
	Readme string `json:"readme" db:"readme"`
}

// ReleaseInput describes a release to be stored, owner and repo are created on demand
type ReleaseInput struct {
	Owner       string    `json:"owner"`
	Repo        string    `json:"repo"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
	Readme      string    `json:"readme"`
	Commit      string    `json:"commit"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetFlakeResponse is the body of GET /api/flake
type GetFlakeResponse struct {
	Releases []*FlakeReleaseCompact `json:"releases"`
	Count    int                    `json:"count"`
	Query    *string                `json:"query"`
}

// RepoResponse is the body of GET /api/flake/github/:owner/:repo
type RepoResponse struct {
	Releases []*FlakeRelease `json:"releases"`
}

// DetailResponse carries an error or status message, e.g. {"detail":"Not Found"}
type DetailResponse struct {
	Detail string `json:"detail"`
}

// NotFound returns the standard not-found body
func NotFound() DetailResponse {
	return DetailResponse{Detail: "Not Found"}
}

// SortReleasesByVersionDesc orders releases by version string, newest (greatest) first.
// Versions compare as plain strings.
func SortReleasesByVersionDesc(releases []*FlakeRelease) {
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].Version > releases[j].Version
	})
}
