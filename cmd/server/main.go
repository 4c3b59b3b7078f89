package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/ai"
	"github.com/p-n-ai/pai-quiz/internal/analytics"
	"github.com/p-n-ai/pai-quiz/internal/api"
	"github.com/p-n-ai/pai-quiz/internal/auth"
	"github.com/p-n-ai/pai-quiz/internal/classroom"
	"github.com/p-n-ai/pai-quiz/internal/generator"
	"github.com/p-n-ai/pai-quiz/internal/live"
	"github.com/p-n-ai/pai-quiz/internal/platform/cache"
	"github.com/p-n-ai/pai-quiz/internal/platform/config"
	"github.com/p-n-ai/pai-quiz/internal/platform/database"
	"github.com/p-n-ai/pai-quiz/internal/platform/metrics"
	"github.com/p-n-ai/pai-quiz/internal/seed"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stdout))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func run(ctx context.Context, cfg *config.Config) error {
	app, err := build(ctx, cfg, metrics.NewDefault())
	if err != nil {
		return err
	}
	defer app.close()

	// Generation can take most of the request timeout; leave room to write the response.
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "ai_configured", cfg.HasAIProvider())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build wires every component. Without a database or cache URL it falls back to in-memory
// implementations, which is how local development and tests run.
func build(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*app, error) {
	a := &app{}
	checks := map[string]api.Checker{}

	var (
		st     store.Store
		events analytics.EventLogger
	)
	if cfg.Database.URL != "" {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		pg, err := store.NewPostgresStore(db.Pool)
		if err != nil {
			a.close()
			return nil, err
		}
		st = pg
		events = analytics.NewPostgresEventLogger(db.Pool)
		checks["database"] = db
		slog.Info("using postgres store")
	} else {
		st = store.NewMemoryStore()
		events = analytics.NopEventLogger{}
		slog.Warn("QUIZ_DATABASE_URL not set, using in-memory store; data is lost on restart")
	}

	var kv cache.Store
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL, cfg.Cache.Prefix)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := c.Close(); err != nil {
				slog.Warn("closing cache", "error", err)
			}
		})
		kv = c
		checks["cache"] = c
	} else {
		kv = cache.NewMemory()
	}

	router := newAIRouter(cfg.AI)
	budget := ai.NewWindowBudget(cfg.AI.DailyTokens, 24*time.Hour, nil)
	gen := generator.New(generator.Config{
		AI:           router,
		Cache:        kv,
		CacheTTL:     cfg.AI.CacheTTL,
		Budget:       budget,
		Events:       events,
		Metrics:      m,
		Model:        cfg.AI.Model,
		Timeout:      cfg.AI.Timeout,
		MaxQuestions: cfg.AI.MaxQuestions,
	})

	hub := live.NewHub(originHosts(cfg.Server.CORSOrigins))
	cr := classroom.New(classroom.Config{Store: st, Generator: gen, Events: events, Live: hub, Metrics: m})
	authSvc := auth.NewService(auth.Config{
		Store:      st,
		Tokens:     auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL),
		Revoked:    kv,
		Events:     events,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	if cfg.Seed.Path != "" {
		ds, err := seed.Load(cfg.Seed.Path)
		if err != nil {
			a.close()
			return nil, err
		}
		if _, err := seed.NewSeeder(authSvc, st, cr).Apply(ctx, ds); err != nil {
			a.close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	a.handler = api.New(api.Config{
		Auth:           authSvc,
		Classroom:      cr,
		Store:          st,
		Topics:         gen,
		AI:             router,
		Budget:         budget,
		Live:           hub,
		Metrics:        m,
		Checks:         checks,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}).Handler()
	return a, nil
}

// newAIRouter registers the configured providers in fallback order, Google first.
func newAIRouter(cfg config.AIConfig) *ai.Router {
	router := ai.NewRouter()
	if cfg.Google.APIKey != "" {
		router.Register("google", ai.NewGoogleProvider(cfg.Google.APIKey))
	}
	if cfg.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey))
	}
	if cfg.DeepSeek.APIKey != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(cfg.DeepSeek.APIKey))
	}
	if cfg.OpenRouter.APIKey != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(cfg.OpenRouter.APIKey))
	}
	if cfg.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL))
	}
	if !router.HasProvider() {
		slog.Warn("no AI provider configured; topic extraction and question generation are disabled")
	}
	return router
}

// originHosts turns CORS origins such as "https://app.example.com" into the host patterns the
// websocket handshake checks.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		if o = strings.TrimSuffix(o, "/"); o != "" {
			hosts = append(hosts, o)
		}
	}
	return hosts
}
