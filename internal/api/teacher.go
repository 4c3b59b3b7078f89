package api

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/p-n-ai/pai-quiz/internal/classroom"
	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/export"
	"github.com/p-n-ai/pai-quiz/internal/generator"
	"github.com/p-n-ai/pai-quiz/internal/platform/httputil"
)

func (s *Server) handleTeacherDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.classroom.TeacherDashboard(r.Context(), session(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	roster, err := s.classroom.Students(r.Context(), session(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, roster)
}

func (s *Server) handleStudentsExport(w http.ResponseWriter, r *http.Request) {
	roster, err := s.classroom.Students(r.Context(), session(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Roster(&buf, roster); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	writeWorkbook(w, export.Filename(session(r).Name, "students"), &buf)
}

func (s *Server) handleListCurricula(w http.ResponseWriter, r *http.Request) {
	list, err := s.classroom.ListCurricula(r.Context(), session(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateCurriculum(w http.ResponseWriter, r *http.Request) {
	var in classroom.CurriculumInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	c, err := s.classroom.CreateCurriculum(r.Context(), session(r).UserID, in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCurriculum(w http.ResponseWriter, r *http.Request) {
	c, err := s.classroom.GetCurriculum(r.Context(), session(r).UserID, chi.URLParam(r, "curriculumID"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCurriculum(w http.ResponseWriter, r *http.Request) {
	var in classroom.CurriculumInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	c, err := s.classroom.UpdateCurriculum(r.Context(), session(r).UserID, chi.URLParam(r, "curriculumID"), in)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) handleExtractTopics(w http.ResponseWriter, r *http.Request) {
	if s.topics == nil {
		httputil.WriteError(w, r, errors.Unavailable("topic extraction is not configured"))
		return
	}
	var req generator.TopicRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	topics, err := s.topics.ExtractTopics(r.Context(), session(r).UserID, req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"topics": nonNil(topics)})
}

func (s *Server) handleExtractTopicsFromImage(w http.ResponseWriter, r *http.Request) {
	if s.topics == nil {
		httputil.WriteError(w, r, errors.Unavailable("topic extraction is not configured"))
		return
	}
	var req struct {
		Image string `json:"image"`
	}
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	topics, err := s.topics.ExtractTopicsFromImage(r.Context(), session(r).UserID, req.Image)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"topics": nonNil(topics)})
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req classroom.GenerateRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	questions, err := s.classroom.GenerateQuestions(r.Context(), session(r).UserID, req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	list, err := s.classroom.ListQuizzes(r.Context(), session(r).UserID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req classroom.CreateQuizRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	q, err := s.classroom.CreateQuiz(r.Context(), session(r).UserID, req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, q)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	q, err := s.classroom.GetQuiz(r.Context(), session(r).UserID, chi.URLParam(r, "quizID"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuizResults(w http.ResponseWriter, r *http.Request) {
	report, err := s.classroom.QuizResults(r.Context(), session(r).UserID, chi.URLParam(r, "quizID"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleQuizExport(w http.ResponseWriter, r *http.Request) {
	report, err := s.classroom.QuizResults(r.Context(), session(r).UserID, chi.URLParam(r, "quizID"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.QuizResults(&buf, report); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	writeWorkbook(w, export.Filename(report.Quiz.Title, "results"), &buf)
}

// writeWorkbook sends a rendered workbook as a download. Rendering happens before any byte is
// written so failures still produce a JSON error.
func writeWorkbook(w http.ResponseWriter, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
