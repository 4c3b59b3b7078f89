package api

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/platform/httputil"
)

const readyTimeout = 3 * time.Second

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz pings every configured dependency and reports the ones that failed.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := map[string]string{}
	for _, name := range names {
		if err := s.checks[name].HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type aiStatusResponse struct {
	Configured bool        `json:"configured"`
	Providers  any         `json:"providers"`
	Budget     *budgetView `json:"budget,omitempty"`
}

type budgetView struct {
	Used  int64 `json:"used"`
	Limit int64 `json:"limit"`
}

// handleAIStatus reports whether generation is available and, for teachers, how much of the
// daily token budget is spent.
func (s *Server) handleAIStatus(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		httputil.WriteJSON(w, http.StatusOK, aiStatusResponse{Providers: []any{}})
		return
	}
	resp := aiStatusResponse{
		Configured: s.ai.HasProvider(),
		Providers:  s.ai.Status(r.Context()),
	}
	if s.budget != nil {
		used, limit, err := s.budget.Usage(session(r).UserID)
		if err != nil {
			httputil.WriteError(w, r, err)
			return
		}
		resp.Budget = &budgetView{Used: used, Limit: limit}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, r, errors.NotFound("no route for %s %s", r.Method, r.URL.Path))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]any{
		"error": map[string]string{"code": "method_not_allowed", "message": r.Method + " is not supported here"},
	})
}
