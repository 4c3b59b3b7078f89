package api

import (
	"net/http"

	"github.com/p-n-ai/pai-quiz/internal/auth"
	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/platform/httputil"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	u, err := s.auth.Register(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"user": u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), session(r)); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the caller's full aggregate: roster and curricula for teachers,
// assignments and results for students.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	var (
		me  any
		err error
	)
	switch sess.Role {
	case quiz.RoleTeacher:
		me, err = s.store.GetTeacher(r.Context(), sess.UserID)
	case quiz.RoleStudent:
		me, err = s.store.GetStudent(r.Context(), sess.UserID)
	default:
		err = errors.Unauthenticated("unknown role %q", sess.Role)
	}
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, me)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if s.live == nil {
		httputil.WriteError(w, r, errors.Unavailable("live updates are disabled"))
		return
	}
	s.live.Serve(w, r, session(r).UserID)
}
