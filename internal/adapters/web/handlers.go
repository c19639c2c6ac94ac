package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
)

// Index renders the dashboard: stats and every email, urgent first
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ProcessAll(r.Context())
	if err != nil {
		s.logger.Error("Failed to process emails", zap.Error(err))
		http.Error(w, "Email dataset unavailable", statusFor(err))
		return
	}

	sorted := core.SortByPriority(items)
	data := map[string]interface{}{
		"PageTitle":   "Support inbox - Reply Assistant",
		"Stats":       core.ComputeStats(sorted, s.now()),
		"Emails":      sorted,
		"Diagnostics": s.service.Source().Diagnostics(),
		"HasStore":    s.service.HasStore(),
	}
	s.render(w, "index.html", data)
}

// ViewEmail renders one email with its classification and suggested reply
func (s *Server) ViewEmail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := s.service.Process(r.Context(), id)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			s.logger.Error("Failed to process email", zap.String("email_id", id), zap.Error(err))
		}
		http.Error(w, http.StatusText(statusFor(err)), statusFor(err))
		return
	}

	pageTitle := "Email - Reply Assistant"
	if item.Email.Subject != "" {
		pageTitle = item.Email.Subject + " - Reply Assistant"
	}

	data := map[string]interface{}{
		"PageTitle": pageTitle,
		"Item":      item,
		"HasStore":  s.service.HasStore(),
	}
	s.render(w, "email.html", data)
}

// Resolve marks the suggestion for an email as resolved
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	s.updateStatus(w, r, core.StatusResolved)
}

// Reopen marks the suggestion for an email as pending again
func (s *Server) Reopen(w http.ResponseWriter, r *http.Request) {
	s.updateStatus(w, r, core.StatusPending)
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request, status core.Status) {
	id := chi.URLParam(r, "id")

	if err := s.service.SetStatus(r.Context(), id, status); err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			s.logger.Error("Failed to update status", zap.String("email_id", id), zap.Error(err))
		}
		http.Error(w, err.Error(), code)
		return
	}

	http.Redirect(w, r, redirectTarget(r, "/email/"+id), http.StatusSeeOther)
}

// redirectTarget honours a local "redirect" form value
func redirectTarget(r *http.Request, fallback string) string {
	target := r.FormValue("redirect")
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return target
	}
	return fallback
}

type emailsResponse struct {
	Stats       core.Stats            `json:"stats"`
	Emails      []core.ProcessedEmail `json:"emails"`
	Diagnostics []core.RowError       `json:"diagnostics"`
}

// ListEmails returns every processed email as JSON, in dataset order
func (s *Server) ListEmails(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ProcessAll(r.Context())
	if err != nil {
		s.logger.Error("Failed to process emails", zap.Error(err))
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, emailsResponse{
		Stats:       core.ComputeStats(items, s.now()),
		Emails:      items,
		Diagnostics: s.service.Source().Diagnostics(),
	})
}

// Healthz reports liveness
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Template error", zap.String("template", name), zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps core errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStoreDisabled):
		return http.StatusConflict
	case errors.Is(err, core.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
