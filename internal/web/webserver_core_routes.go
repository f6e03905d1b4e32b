package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flakestry/flakestry/internal/models"
)

func (s *WebServer) setupRoutes() {
	s.Router.GET("/", s.homePageHandler)
	s.Router.HEAD("/", s.homePageHandler)
	s.Router.GET("/ping", s.pingHandler)
	s.Router.GET("/robots.txt", s.robotsTxtHandler)
	s.Router.GET("/metrics", s.metricsHandler())

	// Embedded static assets
	s.Router.GET("/static/*filepath", EmbeddedStaticHandler("/static"))
	s.Router.HEAD("/static/*filepath", EmbeddedStaticHandler("/static"))
	s.Router.GET("/favicon.svg", EmbeddedFileHandler("snowflake.svg"))

	// API routes
	s.Router.GET("/api", s.redirectHome)
	s.Router.GET("/api/", s.redirectHome)
	api := s.Router.Group("/api/flake")
	{
		api.GET("", s.getFlakes)
		api.GET("/github/:owner/:repo", s.readRepo)
	}

	s.Router.NoRoute(s.notFoundHandler)
}

func (s *WebServer) pingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (s *WebServer) redirectHome(c *gin.Context) {
	c.Redirect(http.StatusMovedPermanently, "/")
}

// robotsTxtHandler serves robots.txt from disk when configured, otherwise the embedded copy
func (s *WebServer) robotsTxtHandler(c *gin.Context) {
	if s.robotsTxtPath != "" {
		c.Header("Cache-Control", assetMaxAge)
		c.File(s.robotsTxtPath)
		return
	}
	EmbeddedFileHandler("robots.txt")(c)
}

func (s *WebServer) notFoundHandler(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, models.NotFound())
		return
	}
	c.String(http.StatusNotFound, "404 page not found")
}
