// Package server exposes the content service over HTTP: public read routes
// for the site and authenticated admin routes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/latoulicious/arise-companion/pkg/auth"
	"github.com/latoulicious/arise-companion/pkg/builds"
	"github.com/latoulicious/arise-companion/pkg/catalog"
	"github.com/latoulicious/arise-companion/pkg/dashboard"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/jobs"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/latoulicious/arise-companion/pkg/storage"
	"github.com/latoulicious/arise-companion/pkg/tierlist"
)

// PromoLister lists the promo codes currently redeemable
type PromoLister interface {
	ListActive(ctx context.Context, now time.Time) ([]models.PromoCode, error)
}

// LogReader reads persisted application logs
type LogReader interface {
	Recent(limit int) ([]models.AppLog, error)
}

// Pinger checks the database connection
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the services served over HTTP. Optional ones may be nil.
type Deps struct {
	Catalog     *catalog.Catalog
	TierLists   *tierlist.Service
	Builds      *builds.Service
	Promos      PromoLister
	Dashboard   *dashboard.Service
	Auth        *auth.Service
	PromoExpiry *jobs.PromoExpiry
	Logs        LogReader
	DB          Pinger
	Loggers     logging.LoggerFactory
}

type Options struct {
	Addr           string
	Debug          bool
	AllowedOrigins []string
	CookieSecure   bool
	// MediaDir is served under /media when images are stored locally
	MediaDir string
	// MaxImageBytes is the image size limit quoted when a body is too large
	MaxImageBytes int64
	// MaxBodyBytes bounds request bodies, image included
	MaxBodyBytes int64
	Version      string
}

// Server is the HTTP server of the content service
type Server struct {
	engine  *gin.Engine
	http    *http.Server
	deps    Deps
	opts    Options
	logger  logging.Logger
	started time.Time
}

// NewServer builds the router; nothing listens until Start
func NewServer(deps Deps, opts Options) *Server {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = storage.DefaultMaxBytes
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = opts.MaxImageBytes + 1<<20
	}
	if deps.Loggers == nil {
		deps.Loggers = logging.GetGlobalLoggerFactory()
	}

	s := &Server{
		engine:  gin.New(),
		deps:    deps,
		opts:    opts,
		logger:  deps.Loggers.CreateLogger("http"),
		started: time.Now(),
	}

	s.engine.Use(s.recovery(), s.accessLog(), s.cors(), s.limitBody())
	if opts.MediaDir != "" {
		s.engine.Static("/media", opts.MediaDir)
	}
	s.addPublicRoutes(s.engine.Group("/"))
	s.addAdminRoutes(s.engine.Group("/admin"))
	s.engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "Route introuvable", Code: "not_found"})
	})

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens in the background. Listen errors other than a clean shutdown
// are sent on the returned channel.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", map[string]interface{}{"addr": s.opts.Addr})
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server failed: %w", err)
		}
		close(errc)
	}()
	return errc
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server stopped", nil)
	return nil
}
