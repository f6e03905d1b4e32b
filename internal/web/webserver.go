// Package web provides the HTTP server and web interface for flakestry
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"github.com/flakestry/flakestry/internal/cache"
	"github.com/flakestry/flakestry/internal/config"
	"github.com/flakestry/flakestry/internal/models"
	"github.com/flakestry/flakestry/internal/page"
)

// Listing cache settings
var (
	ListingCacheEntries = 16
	ListingCacheMaxAge  = 1 * time.Minute
)

const shutdownTimeout = 10 * time.Second

// FlakeStore is the read side of the release database used by the API
type FlakeStore interface {
	GetFlakes(ctx context.Context) ([]*models.FlakeReleaseCompact, error)
	GetRepoID(ctx context.Context, owner, repo string) (int64, bool, error)
	GetRepoReleases(ctx context.Context, repoID int64) ([]*models.FlakeRelease, error)
}

// WebServer represents the web server
type WebServer struct {
	DB            FlakeStore
	Router        *gin.Engine
	Config        *config.WebConfig
	Cache         *cache.ReleaseCache
	metrics       *serverMetrics
	StartTime     time.Time // Track server start time for uptime calculations
	homePage      []byte    // pre-rendered home page
	robotsTxtPath string    // Path to robots.txt file if it exists
}

// NewServer creates a new web server instance and renders the static pages
func NewServer(db FlakeStore, webconfig *config.WebConfig) (*WebServer, error) {
	if webconfig.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	home, err := page.RenderString(page.Home())
	if err != nil {
		return nil, fmt.Errorf("failed to render home page: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Configure Gin to trust reverse proxy headers
	// Set trusted proxies for common reverse proxy setups (nginx, etc.)
	if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}

	// Only add SSL-specific headers if SSL is enabled on the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if webconfig.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}

	server := &WebServer{
		DB:       db,
		Router:   router,
		Config:   webconfig,
		Cache:    cache.NewReleaseCache(ListingCacheEntries, ListingCacheMaxAge),
		homePage: []byte(home),
	}
	server.metrics = newServerMetrics(server.Cache)

	if webconfig.RobotsTxt != "" {
		if _, err := os.Stat(webconfig.RobotsTxt); err == nil {
			server.robotsTxtPath = webconfig.RobotsTxt
			log.Printf("[WEB]: Found robots.txt file at: %s", webconfig.RobotsTxt)
		}
	}

	// Proxy headers first so the access log sees the real client IP
	router.Use(server.ReverseProxyMiddleware())
	router.Use(server.ApacheLogFormat())
	router.Use(server.RequestIDMiddleware())
	router.Use(server.MetricsMiddleware())
	router.Use(secure.New(secureConfig))

	server.setupRoutes()
	return server, nil
}

// Handler returns the router as an http.Handler
func (s *WebServer) Handler() http.Handler {
	return s.Router
}

// GetPort returns the listening port from the config
func (s *WebServer) GetPort() int {
	return s.Config.ListenPort
}

// Start serves HTTP (or HTTPS if configured) until ctx is cancelled, then shuts down gracefully
func (s *WebServer) Start(ctx context.Context) error {
	addr := ":" + strconv.Itoa(s.Config.ListenPort)
	if s.Config.SSL && (s.Config.CertFile == "" || s.Config.KeyFile == "") {
		return errors.New("SSL enabled but cert_file or key_file not specified in config")
	}
	s.StartTime = time.Now()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.Config.SSL {
			log.Printf("[WEB]: Starting HTTPS server on %s", addr)
			errCh <- srv.ListenAndServeTLS(s.Config.CertFile, s.Config.KeyFile)
		} else {
			log.Printf("[WEB]: Starting HTTP server on %s", addr)
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		s.Cache.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Printf("[WEB]: Shutting down web server (uptime %s)", time.Since(s.StartTime).Round(time.Second))
		s.Cache.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown: %w", err)
		}
		return nil
	}
}

// ReverseProxyMiddleware handles X-Forwarded headers when running behind a reverse proxy
func (s *WebServer) ReverseProxyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Handle X-Forwarded-Proto to detect if the original request was HTTPS
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "https" {
			c.Request.URL.Scheme = "https"
		}

		// Handle X-Forwarded-For to get the real client IP
		if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
			// Take the first IP from the list (original client)
			ips := strings.Split(xff, ",")
			if clientIP := strings.TrimSpace(ips[0]); clientIP != "" {
				c.Request.RemoteAddr = net.JoinHostPort(clientIP, "0")
			}
		}

		// Handle X-Real-IP as an alternative
		if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
			c.Request.RemoteAddr = net.JoinHostPort(realIP, "0")
		}

		// Handle X-Forwarded-Host to get the original host
		if host := c.GetHeader("X-Forwarded-Host"); host != "" {
			c.Request.Host = host
		}

		c.Next()
	}
}

// ApacheLogFormat logs every request in Apache combined format including the client IP
func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s"`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.BodySize,
			param.Request.Referer(),
			param.Request.UserAgent(),
		)
	})
}
