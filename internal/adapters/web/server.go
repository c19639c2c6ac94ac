package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
)

//go:embed templates
var templateFS embed.FS

// Server is the dashboard frontend
type Server struct {
	service    *core.AssistantService
	logger     *zap.Logger
	addr       string
	templates  *template.Template
	httpServer *http.Server
	now        func() time.Time
}

// NewServer creates the dashboard and parses its templates
func NewServer(service *core.AssistantService, logger *zap.Logger, addr string) (*Server, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS,
		"templates/*.html",
		"templates/components/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Server{
		service:   service,
		logger:    logger,
		addr:      addr,
		templates: tmpl,
		now:       time.Now,
	}, nil
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "unknown"
		}
		return t.Format("2006-01-02 15:04")
	},
}

// Routes returns the HTTP handler of the dashboard
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.Index)
	r.Get("/email/{id}", s.ViewEmail)
	r.Post("/email/{id}/resolve", s.Resolve)
	r.Post("/email/{id}/reopen", s.Reopen)
	r.Get("/api/emails", s.ListEmails)
	r.Get("/healthz", s.Healthz)

	return r
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Dashboard listening", zap.String("address", ln.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Dashboard server failed", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down dashboard: %w", err)
	}
	s.logger.Info("Dashboard stopped")
	return nil
}
