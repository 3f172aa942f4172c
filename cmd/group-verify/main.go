package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hnqc/group-verify/pkg/config"
	"github.com/hnqc/group-verify/pkg/notification"
	"github.com/hnqc/group-verify/pkg/ratelimit"
	"github.com/hnqc/group-verify/pkg/schedule"
	"github.com/hnqc/group-verify/pkg/verification"
	verificationapi "github.com/hnqc/group-verify/pkg/verification/api"
)

func main() {
	cfg := config.Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed reading config from env", "err", err)
		os.Exit(-1)
	}

	ctx := context.Background()

	// storage collaborator
	var pool *pgxpool.Pool
	if cfg.VerificationConfig.Persistence == "postgres" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseConfig.ToDatabaseURL())
		if err != nil {
			slog.Error("Failed creating dbpool", "db", cfg.DatabaseConfig.Database, "host", cfg.DatabaseConfig.Host, "err", err)
			os.Exit(-1)
		}
		defer pool.Close()
	}

	repo, err := verification.NewCodeRepository(cfg.VerificationConfig.Persistence, verification.RepositoryConfig{Pool: pool})
	if err != nil {
		slog.Error("Failed creating code repository", "persistence", cfg.VerificationConfig.Persistence, "err", err)
		os.Exit(-1)
	}

	if pgRepo, ok := repo.(*verification.PostgresCodeRepository); ok {
		if err := pgRepo.CreateSchema(ctx); err != nil {
			slog.Error("Failed creating schema", "err", err)
			os.Exit(-1)
		}
	}

	// mail collaborator
	notificationManager, err := notification.NewNotificationManagerWithOptions(
		notification.WithSMTP(cfg.EmailConfig.ToSMTPConfig()),
		notification.WithVerificationCodeTemplate(),
	)
	if err != nil {
		slog.Error("Failed creating notification manager", "err", err)
		os.Exit(-1)
	}
	mailer := notification.NewCodeMailer(notificationManager, cfg.VerificationConfig.ValidityWindow)

	// verification service
	opts := []verification.ServiceOption{
		verification.WithValidityWindow(cfg.VerificationConfig.ValidityWindow),
		verification.WithRetentionWindow(cfg.VerificationConfig.RetentionWindow),
	}
	if cfg.VerificationConfig.IssueLimitBurst > 0 {
		limiter := ratelimit.NewKeyedLimiter(
			cfg.VerificationConfig.IssueLimitBurst,
			cfg.VerificationConfig.IssueLimitPerMinute/60.0,
			time.Hour,
		)
		opts = append(opts, verification.WithIssuanceLimiter(limiter))
	}
	service := verification.NewService(repo, mailer, opts...)

	// background sweeper
	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(verification.NewPurgeJob(service), cfg.VerificationConfig.SweepSpec); err != nil {
		slog.Error("Failed scheduling purge job", "err", err)
		os.Exit(-1)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// routes
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	verificationapi.Routes(r, verificationapi.NewHandler(service))

	server := &http.Server{
		Addr:    cfg.AppConfig.Addr(),
		Handler: r,
	}

	go func() {
		slog.Info("Listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "err", err)
			os.Exit(-1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "err", err)
	}
}
