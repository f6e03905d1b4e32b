package web

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flakestry/flakestry/internal/models"
)

const latestCacheKey = "latest"

// getFlakes handles GET /api/flake and lists the most recent releases
func (s *WebServer) getFlakes(c *gin.Context) {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		renderAPIError(c, http.StatusNotImplemented, "Search is not available", nil)
		return
	}

	releases, ok := s.Cache.Get(latestCacheKey)
	if !ok {
		var err error
		releases, err = s.DB.GetFlakes(c.Request.Context())
		if err != nil {
			renderAPIError(c, http.StatusInternalServerError, "Internal Server Error", err)
			return
		}
		if releases == nil {
			releases = []*models.FlakeReleaseCompact{}
		}
		s.Cache.Set(latestCacheKey, releases)
	}

	c.JSON(http.StatusOK, models.GetFlakeResponse{
		Releases: releases,
		Count:    len(releases),
	})
}

// readRepo handles GET /api/flake/github/:owner/:repo
func (s *WebServer) readRepo(c *gin.Context) {
	owner := c.Param("owner")
	repo := c.Param("repo")
	ctx := c.Request.Context()

	repoID, found, err := s.DB.GetRepoID(ctx, owner, repo)
	if err != nil {
		renderAPIError(c, http.StatusInternalServerError, "Internal Server Error", err)
		return
	}
	if !found {
		log.Printf("[WEB]: Repository not found: %s/%s", owner, repo)
		c.JSON(http.StatusNotFound, models.NotFound())
		return
	}

	releases, err := s.DB.GetRepoReleases(ctx, repoID)
	if err != nil {
		renderAPIError(c, http.StatusInternalServerError, "Internal Server Error", err)
		return
	}
	if releases == nil {
		releases = []*models.FlakeRelease{}
	}
	models.SortReleasesByVersionDesc(releases)

	c.JSON(http.StatusOK, models.RepoResponse{Releases: releases})
}
