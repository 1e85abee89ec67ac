// Package server exposes the lookup service and validator over HTTP
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/eleven-am/fiadb/internal/logger"
	"github.com/eleven-am/fiadb/internal/registry"
	"github.com/eleven-am/fiadb/internal/validate"
)

// Config holds HTTP settings
type Config struct {
	Addr         string
	AllowOrigins []string
	Debug        bool
}

// Server serves the catalog API
type Server struct {
	reg       *registry.Registry
	validator *validate.Validator
	router    *gin.Engine
	cfg       Config
}

// New builds the router. A nil validator gets the default layouts.
func New(reg *registry.Registry, v *validate.Validator, cfg Config) *Server {
	if v == nil {
		v = validate.New(reg)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{reg: reg, validator: v, cfg: cfg}
	s.router = gin.New()
	s.router.Use(gin.Recovery(), requestLogger())
	s.router.Use(cors.New(corsConfig(cfg.AllowOrigins)))
	s.registerRoutes()
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.health)

	api := s.router.Group("/api/v1")
	{
		api.GET("/tables", s.listTables)
		api.GET("/load-order", s.loadOrder)
		api.GET("/tables/:name", s.getTable)
		api.GET("/tables/:name/columns/:column", s.getColumn)
		api.GET("/tables/:name/references", s.getReferences)
		api.POST("/tables/:name/validate", s.validateRows)
		api.GET("/links", s.getLinks)
		api.GET("/path", s.getPath)
		api.GET("/columns/:column/tables", s.getColumnTables)
		api.GET("/export/:format", s.exportCatalog)
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the router with the listen timeouts
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := s.HTTPServer()
	errCh := make(chan error, 1)

	go func() {
		logger.Server().Info("listening", "addr", srv.Addr, "tables", s.reg.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	logger.Server().Info("stopped")
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Server().Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
