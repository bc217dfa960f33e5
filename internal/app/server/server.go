package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"empdesk/internal/domain/audit"
	"empdesk/internal/domain/auth"
	"empdesk/internal/domain/employee"
	"empdesk/internal/domain/notifications"
	"empdesk/internal/domain/support"
	"empdesk/internal/platform/config"
	"empdesk/internal/platform/db"
	"empdesk/internal/platform/email"
	"empdesk/internal/platform/jobs"
	"empdesk/internal/platform/metrics"
)

type App struct {
	Config   config.Config
	DB       *db.Pool
	Router   http.Handler
	Services Services
	Metrics  *metrics.Collector
}

// Services is the wired domain layer shared by the HTTP server and the CLI.
type Services struct {
	Auth      *auth.Service
	Employees *employee.Service
	Support   *support.Service
	Audit     audit.Trail
	Notify    *notifications.Dispatcher
}

func NewServices(pool *db.Pool, cfg config.Config, collector *metrics.Collector) Services {
	notify := notifications.New(email.New(cfg), cfg.EmailFrom, cfg.AdminEmail)
	if collector != nil {
		notify.Observe = collector.RecordNotification
	}
	return Services{
		Auth:      auth.NewService(auth.NewStore(pool), notify, cfg.JWTSecret, cfg.SessionTTL),
		Employees: employee.NewService(employee.NewStore(pool)),
		Support:   support.NewService(support.NewStore(pool), notify),
		Audit:     audit.New(pool),
		Notify:    notify,
	}
}

// New connects to the database, applies migrations and seed data as
// configured, and builds the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	collector := metrics.New()
	services := NewServices(pool, cfg, collector)
	router := NewRouter(cfg, Deps{
		Services: services,
		Metrics:  collector,
		Ready:    pool.Ping,
	})
	return &App{Config: cfg, DB: pool, Router: router, Services: services, Metrics: collector}, nil
}

// PurgeGrace is how long lapsed sessions and reset tokens are retained.
const PurgeGrace = 24 * time.Hour

// PurgeJob deletes lapsed sessions and password reset tokens.
func PurgeJob(services Services) jobs.RunFunc {
	return func(ctx context.Context) (any, error) {
		result, err := services.Auth.PurgeStale(ctx, time.Now(), PurgeGrace)
		if err != nil {
			return nil, err
		}
		if result.Sessions > 0 || result.PasswordResets > 0 {
			slog.Info("purged stale credentials", "sessions", result.Sessions, "passwordResets", result.PasswordResets)
		}
		return result, nil
	}
}

func (a *App) Close() {
	if a != nil && a.DB != nil {
		a.DB.Close()
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.JanitorInterval > 0 {
		janitor := jobs.New(jobs.NewStore(app.DB))
		janitor.Start(ctx)
		janitor.Schedule(ctx, jobs.JobSessionPurge, cfg.JanitorInterval, PurgeJob(app.Services))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("empdesk server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
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
