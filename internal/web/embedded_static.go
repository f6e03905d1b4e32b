package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed static/*
var EmbeddedStaticFS embed.FS

// assetMaxAge is the browser cache lifetime of embedded assets
const assetMaxAge = "public, max-age=3600"

// staticAssets is the static/ directory of EmbeddedStaticFS
var staticAssets = mustSub(EmbeddedStaticFS, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("embedded assets: " + err.Error())
	}
	return sub
}

// EmbeddedStaticHandler serves the embedded assets mounted under prefix
func EmbeddedStaticHandler(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimPrefix(path.Clean(strings.TrimPrefix(c.Request.URL.Path, prefix)), "/")
		if name == "" || name == "." {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		serveAsset(c, name)
	}
}

// EmbeddedFileHandler serves one embedded asset, name is relative to static/
func EmbeddedFileHandler(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		serveAsset(c, name)
	}
}

func serveAsset(c *gin.Context, name string) {
	info, err := fs.Stat(staticAssets, name)
	if err != nil || info.IsDir() {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.Header("Cache-Control", assetMaxAge)
	http.ServeFileFS(c.Writer, c.Request, staticAssets, name)
}
