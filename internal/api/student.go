package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/p-n-ai/pai-quiz/internal/platform/httputil"
)

func (s *Server) handleStudentDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.classroom.StudentDashboard(r.Context(), session(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (s *Server) handleStudentQuizzes(w http.ResponseWriter, r *http.Request) {
	list, err := s.classroom.StudentQuizzes(r.Context(), session(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleStudentQuiz(w http.ResponseWriter, r *http.Request) {
	q, err := s.classroom.StudentQuiz(r.Context(), session(r).UserID, chi.URLParam(r, "quizID"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers map[string]int `json:"answers"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	result, err := s.classroom.Submit(r.Context(), session(r).UserID, chi.URLParam(r, "quizID"), req.Answers)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"result": result, "percentage": result.Percentage()})
}

func (s *Server) handleStudentResults(w http.ResponseWriter, r *http.Request) {
	list, err := s.classroom.StudentResults(r.Context(), session(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleStudentResult(w http.ResponseWriter, r *http.Request) {
	detail, err := s.classroom.StudentResult(r.Context(), session(r).UserID, chi.URLParam(r, "quizID"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}
