// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/fairshare/internal/api"
	"github.com/stwalsh4118/fairshare/internal/catalog"
	"github.com/stwalsh4118/fairshare/internal/clock"
	"github.com/stwalsh4118/fairshare/internal/config"
	"github.com/stwalsh4118/fairshare/internal/db"
	"github.com/stwalsh4118/fairshare/internal/logger"
	"github.com/stwalsh4118/fairshare/internal/middleware"
	"github.com/stwalsh4118/fairshare/internal/notify"
	"github.com/stwalsh4118/fairshare/internal/studio"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	db      *db.DB
	repos   *db.Repositories
	notices *notify.StoreNotifier
	manager *studio.Manager
	watcher *catalog.Watcher
	router  *gin.Engine
	server  *http.Server
}

// New creates a new server instance. Notices are logged and, when a database
// is given, written to its notice log. Sessions start from the configured
// catalog file or the demo catalog when none is configured.
func New(cfg *config.Config, database *db.DB) (*Server, error) {
	opts, err := studio.OptionsFromConfig(cfg.Studio)
	if err != nil {
		return nil, err
	}

	defaultCatalog, err := loadDefaultCatalog(cfg.Catalog.Path, &opts)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: cfg,
		db:     database,
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if database != nil {
		s.repos = db.NewRepositories(database)
		s.notices = notify.NewStoreNotifier(s.repos.Notices, notify.StoreOptions{})
		notifier = notify.Fanout{notify.LogNotifier{}, s.notices}
	}

	s.manager = studio.NewManager(clock.NewRealScheduler(), opts, notifier, defaultCatalog)
	s.setupRouter()
	return s, nil
}

// loadDefaultCatalog reads the catalog file, letting its total duration
// override the configured timeline scale
func loadDefaultCatalog(path string, opts *studio.Options) (*catalog.Catalog, error) {
	if path == "" {
		return nil, nil
	}

	doc, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	cat, err := catalog.New(doc.Clips)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	if doc.TotalDuration > 0 {
		opts.TotalDuration = doc.TotalDuration
	}

	logger.Log.Info().
		Str("path", path).
		Int("clips", cat.Len()).
		Int64("total_duration", opts.TotalDuration).
		Msg("Loaded default catalog")
	return cat, nil
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(cors.New(corsConfig()))

	apiGroup := s.router.Group("/api")

	if s.db != nil {
		api.SetupHealthRoutes(apiGroup, s.db, s.manager)
		api.SetupSessionRoutes(apiGroup, s.manager, s.repos.Notices)
		return
	}
	api.SetupHealthRoutes(apiGroup, nil, s.manager)
	api.SetupSessionRoutes(apiGroup, s.manager, nil)
}

// corsConfig allows every origin and exposes the request id header
func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	return cfg
}

// Router returns the configured HTTP handler
func (s *Server) Router() http.Handler {
	return s.router
}

// Manager returns the session manager
func (s *Server) Manager() *studio.Manager {
	return s.manager
}

// Start starts the session manager, the catalog watcher when enabled, and
// the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	if err := s.manager.Start(); err != nil {
		return fmt.Errorf("failed to start session manager: %w", err)
	}

	if s.config.Catalog.Watch {
		if err := s.startWatcher(); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

func (s *Server) startWatcher() error {
	watcher, err := catalog.NewWatcher(s.config.Catalog.Path, func(doc *catalog.Document) {
		// Rejections are logged by the manager
		_ = s.manager.ApplyDocument(doc)
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start catalog watcher: %w", err)
	}
	s.watcher = watcher
	return nil
}

// Shutdown stops every session, shuts the HTTP server down gracefully and
// drains pending notices into the database
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to close catalog watcher")
		}
	}

	// Closing the sessions ends their event streams, which would otherwise
	// hold the HTTP shutdown open
	s.manager.Stop()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	if s.notices != nil {
		if err := s.notices.Close(ctx); err != nil {
			logger.Log.Warn().
				Err(err).
				Int64("dropped", s.notices.Dropped()).
				Msg("Notice log did not drain before shutdown")
		}
		logger.Log.Info().
			Int64("notices_written", s.notices.Written()).
			Int64("notices_dropped", s.notices.Dropped()).
			Msg("Notice log closed")
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
