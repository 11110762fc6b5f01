package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pfrederiksen/night-courses/internal/export"
	"github.com/pfrederiksen/night-courses/internal/logger"
	"github.com/pfrederiksen/night-courses/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server
type Options struct {
	Addr         string
	AcademicYear string
	CourseURL    string

	// StaticDir, when set, is searched for styles.css before the built-in stylesheet
	StaticDir string

	Store   *storage.Storage
	Metrics *logger.Metrics
}

// Server is the preview HTTP server
type Server struct {
	opts   Options
	engine *gin.Engine
	page   export.Exporter
}

// New builds the server and its routes
func New(opts Options) (*Server, error) {
	if opts.Metrics == nil {
		opts.Metrics = logger.DefaultMetrics()
	}

	page, err := export.New(export.FormatHTML, export.Options{
		AcademicYear: opts.AcademicYear,
		CourseURL:    opts.CourseURL,
		Detailed:     true,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:   opts,
		engine: gin.New(),
		page:   page,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.opts.Metrics))

	r.GET("/", s.index)
	r.GET("/"+export.StylesFileName, s.styles)
	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.opts.Metrics.Handler()))

	api := r.Group("/api")
	api.GET("/night-courses", s.listAll)
	api.GET("/night-courses/:semester", s.listSemester)
	api.GET("/night-courses/module/:code", s.getModule)
}

// Handler returns the server's http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Preview server listening", logger.Fields{"addr": s.opts.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("Shutting down preview server", nil)
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs each request at debug level and counts responses by status class
func requestLogger(metrics *logger.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		metrics.IncrCounter("http.requests." + statusClass(status))
		metrics.RecordTiming("http.request", time.Since(start))
		logger.Debug("HTTP request", logger.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"duration": time.Since(start).String(),
		})
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
