// Package api exposes the quiz platform over HTTP: JSON endpoints for teachers and students,
// websocket live feeds, health probes and Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/p-n-ai/pai-quiz/internal/ai"
	"github.com/p-n-ai/pai-quiz/internal/auth"
	"github.com/p-n-ai/pai-quiz/internal/classroom"
	"github.com/p-n-ai/pai-quiz/internal/generator"
	"github.com/p-n-ai/pai-quiz/internal/platform/metrics"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

// Checker is a dependency probed by /readyz.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// TopicExtractor turns curriculum text or images into topic titles.
type TopicExtractor interface {
	ExtractTopics(ctx context.Context, teacherID string, req generator.TopicRequest) ([]string, error)
	ExtractTopicsFromImage(ctx context.Context, teacherID, image string) ([]string, error)
}

// AIStatus reports on the configured AI providers.
type AIStatus interface {
	HasProvider() bool
	Status(ctx context.Context) []ai.ProviderStatus
}

// LiveFeed serves websocket subscriptions keyed by user id.
type LiveFeed interface {
	Serve(w http.ResponseWriter, r *http.Request, channel string)
}

// Config wires the server. Auth, Classroom and Store are required.
type Config struct {
	Auth      *auth.Service
	Classroom *classroom.Service
	Store     store.Store
	Topics    TopicExtractor
	AI        AIStatus
	Budget    *ai.WindowBudget
	Live      LiveFeed
	Metrics   *metrics.Metrics

	// Checks are probed by /readyz, keyed by the name reported on failure.
	Checks map[string]Checker

	CORSOrigins    []string
	RequestTimeout time.Duration
}

type Server struct {
	auth      *auth.Service
	classroom *classroom.Service
	store     store.Store
	topics    TopicExtractor
	ai        AIStatus
	budget    *ai.WindowBudget
	live      LiveFeed
	metrics   *metrics.Metrics
	checks    map[string]Checker
	origins   []string
	timeout   time.Duration
}

func New(c Config) *Server {
	s := &Server{
		auth:      c.Auth,
		classroom: c.Classroom,
		store:     c.Store,
		topics:    c.Topics,
		ai:        c.AI,
		budget:    c.Budget,
		live:      c.Live,
		metrics:   c.Metrics,
		checks:    c.Checks,
		origins:   c.CORSOrigins,
		timeout:   c.RequestTimeout,
	}
	if s.timeout <= 0 {
		s.timeout = 90 * time.Second
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.accessLog, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Websocket feeds outlive the request timeout, so they sit outside it.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(s.auth))
			r.With(auth.RequireRole(quiz.RoleTeacher)).Get("/teacher/live", s.handleLive)
			r.With(auth.RequireRole(quiz.RoleStudent)).Get("/student/live", s.handleLive)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.timeout))

			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate(s.auth))
				r.Post("/auth/logout", s.handleLogout)
				r.Get("/me", s.handleMe)
				r.Get("/ai/status", s.handleAIStatus)

				r.Route("/teacher", func(r chi.Router) {
					r.Use(auth.RequireRole(quiz.RoleTeacher))
					s.teacherRoutes(r)
				})
				r.Route("/student", func(r chi.Router) {
					r.Use(auth.RequireRole(quiz.RoleStudent))
					s.studentRoutes(r)
				})
			})
		})
	})
	return r
}

func (s *Server) teacherRoutes(r chi.Router) {
	r.Get("/dashboard", s.handleTeacherDashboard)
	r.Get("/students", s.handleStudents)
	r.Get("/students/export", s.handleStudentsExport)

	r.Get("/curricula", s.handleListCurricula)
	r.Post("/curricula", s.handleCreateCurriculum)
	r.Get("/curricula/{curriculumID}", s.handleGetCurriculum)
	r.Put("/curricula/{curriculumID}", s.handleUpdateCurriculum)

	r.Post("/topics/extract", s.handleExtractTopics)
	r.Post("/topics/extract-image", s.handleExtractTopicsFromImage)

	r.Post("/quizzes/generate", s.handleGenerateQuestions)
	r.Get("/quizzes", s.handleListQuizzes)
	r.Post("/quizzes", s.handleCreateQuiz)
	r.Get("/quizzes/{quizID}", s.handleGetQuiz)
	r.Get("/quizzes/{quizID}/results", s.handleQuizResults)
	r.Get("/quizzes/{quizID}/export", s.handleQuizExport)
}

func (s *Server) studentRoutes(r chi.Router) {
	r.Get("/dashboard", s.handleStudentDashboard)
	r.Get("/quizzes", s.handleStudentQuizzes)
	r.Get("/quizzes/{quizID}", s.handleStudentQuiz)
	r.Post("/quizzes/{quizID}/submit", s.handleSubmit)
	r.Get("/results", s.handleStudentResults)
	r.Get("/results/{quizID}", s.handleStudentResult)
}

// session returns the authenticated caller. Routes using it sit behind auth.Authenticate.
func session(r *http.Request) auth.Session {
	sess, _ := auth.SessionFrom(r.Context())
	return sess
}
