package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/nerdacademy/nerdacademy-backend/api/routes"
	"github.com/nerdacademy/nerdacademy-backend/internal/auth"
	"github.com/nerdacademy/nerdacademy-backend/internal/courses"
	"github.com/nerdacademy/nerdacademy-backend/internal/enrollments"
	"github.com/nerdacademy/nerdacademy-backend/internal/lessons"
	"github.com/nerdacademy/nerdacademy-backend/internal/payments"
	"github.com/nerdacademy/nerdacademy-backend/internal/tags"
	"github.com/nerdacademy/nerdacademy-backend/internal/users"
	"github.com/nerdacademy/nerdacademy-backend/pkg/auth/session"
	"github.com/nerdacademy/nerdacademy-backend/pkg/config"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db"
	"github.com/nerdacademy/nerdacademy-backend/pkg/logger"
	"github.com/nerdacademy/nerdacademy-backend/pkg/metrics"
	"github.com/nerdacademy/nerdacademy-backend/pkg/migrate"
	"github.com/nerdacademy/nerdacademy-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := buildServices(cfg, dbClient, sessionManager, registry)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, registry, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, dbClient *db.Client, sessions *session.Manager, registry prometheus.Registerer) (routes.Services, error) {
	userRepo := users.NewRepository(dbClient.DB())
	tagRepo := tags.NewRepository(dbClient.DB())
	courseRepo := courses.NewRepository(dbClient.DB())
	lessonRepo := lessons.NewRepository(dbClient.DB())
	enrollmentRepo := enrollments.NewRepository(dbClient.DB())
	paymentRepo := payments.NewRepository(dbClient.DB())

	var (
		svc  routes.Services
		errs error
		err  error
	)

	svc.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	errs = multierr.Append(errs, err)

	svc.Register, err = auth.NewRegisterService(auth.RegisterServiceParams{
		Users:                  userRepo,
		PasswordConfig:         cfg.Password,
		AllowAdminRegistration: cfg.FeatureFlags.AllowAdminRegistration,
	})
	errs = multierr.Append(errs, err)

	svc.Users, err = users.NewService(userRepo)
	errs = multierr.Append(errs, err)

	svc.Tags, err = tags.NewService(tagRepo, dbClient)
	errs = multierr.Append(errs, err)

	svc.Courses, err = courses.NewService(courseRepo, tagRepo, dbClient)
	errs = multierr.Append(errs, err)

	svc.Lessons, err = lessons.NewService(lessonRepo, courseRepo, enrollmentRepo)
	errs = multierr.Append(errs, err)

	svc.Enrollments, err = enrollments.NewService(enrollments.ServiceParams{
		Repo:    enrollmentRepo,
		Courses: courseRepo,
		DB:      dbClient,
		Metrics: metrics.NewEnrollmentMetrics(registry),
	})
	errs = multierr.Append(errs, err)

	svc.Payments, err = payments.NewService(paymentRepo, enrollmentRepo)
	errs = multierr.Append(errs, err)

	return svc, errs
}
