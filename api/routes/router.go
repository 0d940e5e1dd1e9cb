package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerdacademy/nerdacademy-backend/api/controllers"
	"github.com/nerdacademy/nerdacademy-backend/api/middleware"
	"github.com/nerdacademy/nerdacademy-backend/api/responses"
	"github.com/nerdacademy/nerdacademy-backend/internal/auth"
	"github.com/nerdacademy/nerdacademy-backend/internal/courses"
	"github.com/nerdacademy/nerdacademy-backend/internal/enrollments"
	"github.com/nerdacademy/nerdacademy-backend/internal/lessons"
	"github.com/nerdacademy/nerdacademy-backend/internal/payments"
	"github.com/nerdacademy/nerdacademy-backend/internal/tags"
	"github.com/nerdacademy/nerdacademy-backend/internal/users"
	"github.com/nerdacademy/nerdacademy-backend/pkg/auth/session"
	"github.com/nerdacademy/nerdacademy-backend/pkg/config"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	pkgerrors "github.com/nerdacademy/nerdacademy-backend/pkg/errors"
	"github.com/nerdacademy/nerdacademy-backend/pkg/logger"
	"github.com/nerdacademy/nerdacademy-backend/pkg/metrics"
	pkgredis "github.com/nerdacademy/nerdacademy-backend/pkg/redis"
)

// RedisStore is the subset of the redis client the HTTP layer needs for rate
// limits, idempotency records and readiness.
type RedisStore interface {
	pkgredis.RateLimiter
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Ping(ctx context.Context) error
}

// Services groups the domain services mounted under /api/v1.
type Services struct {
	Auth        auth.Service
	Register    auth.RegisterService
	Users       users.Service
	Courses     courses.Service
	Lessons     lessons.Service
	Tags        tags.Service
	Enrollments enrollments.Service
	Payments    payments.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisStore RedisStore,
	sessions session.AccessSessionChecker,
	registry *prometheus.Registry,
	svc Services,
) http.Handler {
	r := chi.NewRouter()

	var httpMetrics *metrics.HTTPMetrics
	if registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(registry)
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var redisPinger controllers.Pinger
	var limiter pkgredis.RateLimiter
	if redisStore != nil {
		redisPinger = redisStore
		limiter = redisStore
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.ReadinessCheck{Name: "database", Pinger: dbP},
			controllers.ReadinessCheck{Name: "redis", Pinger: redisPinger},
		))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// anonymous callers
		r.Group(func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/users/register", controllers.AuthRegister(svc.Register, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/users/login", controllers.AuthLogin(svc.Auth, logg))
			r.Post("/users/refresh", controllers.AuthRefresh(svc.Auth, logg))

			r.Get("/courses", controllers.ListCourses(svc.Courses, logg))
			r.Get("/courses/{id}", controllers.GetCourse(svc.Courses, logg))
			r.Get("/tags", controllers.ListTags(svc.Tags, logg))
			r.Get("/tags/{id}", controllers.GetTag(svc.Tags, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			adminOnly := middleware.RequireRole(logg, enums.UserRoleAdmin)
			if redisStore != nil {
				r.Use(middleware.Idempotency(redisStore, cfg.Idempotency.TTL, logg))
			}

			r.Post("/users/logout", controllers.AuthLogout(svc.Auth, logg))
			r.With(adminOnly).Get("/users", controllers.ListUsers(svc.Users, logg))
			r.Get("/users/{id}", controllers.GetUser(svc.Users, logg))
			r.With(adminOnly).Put("/users/{id}", controllers.UpdateUser(svc.Users, logg))
			r.With(adminOnly).Delete("/users/{id}", controllers.DeleteUser(svc.Users, logg))

			r.Post("/courses", controllers.CreateCourse(svc.Courses, logg))
			r.Put("/courses/{id}", controllers.UpdateCourse(svc.Courses, logg))
			r.Delete("/courses/{id}", controllers.DeleteCourse(svc.Courses, logg))

			r.Get("/courses/{courseId}/lessons", controllers.ListCourseLessons(svc.Lessons, logg))
			r.Post("/courses/{courseId}/lessons", controllers.CreateLesson(svc.Lessons, logg))
			r.Get("/lessons/{id}", controllers.GetLesson(svc.Lessons, logg))
			r.Put("/lessons/{id}", controllers.UpdateLesson(svc.Lessons, logg))
			r.Delete("/lessons/{id}", controllers.DeleteLesson(svc.Lessons, logg))

			r.With(adminOnly).Post("/tags", controllers.CreateTag(svc.Tags, logg))
			r.With(adminOnly).Put("/tags/{id}", controllers.UpdateTag(svc.Tags, logg))
			r.With(adminOnly).Delete("/tags/{id}", controllers.DeleteTag(svc.Tags, logg))

			r.Post("/enrollments", controllers.CreateEnrollment(svc.Enrollments, logg))
			r.Get("/enrollments", controllers.ListEnrollments(svc.Enrollments, logg))
			r.With(adminOnly).Get("/enrollments/manageable", controllers.ListManageableEnrollments(svc.Enrollments, logg))
			r.With(adminOnly).Get("/enrollments/course/{courseId}", controllers.ListCourseEnrollments(svc.Enrollments, logg))
			r.Get("/enrollments/{id}", controllers.GetEnrollment(svc.Enrollments, logg))
			r.Delete("/enrollments/{id}", controllers.DeleteEnrollment(svc.Enrollments, logg))
			r.With(adminOnly).Post("/enrollments/{id}/status", controllers.SetEnrollmentStatus(svc.Enrollments, logg))
			r.With(adminOnly).Post("/enrollments/{id}/approve", controllers.ApproveEnrollment(svc.Enrollments, logg))
			r.With(adminOnly).Post("/enrollments/{id}/reject", controllers.RejectEnrollment(svc.Enrollments, logg))

			r.Post("/payments", controllers.CreatePayment(svc.Payments, logg))
			r.With(adminOnly).Get("/payments", controllers.ListPayments(svc.Payments, logg))
			r.Get("/payments/{id}", controllers.GetPayment(svc.Payments, logg))
			r.With(adminOnly).Put("/payments/{id}", controllers.UpdatePayment(svc.Payments, logg))
			r.With(adminOnly).Delete("/payments/{id}", controllers.DeletePayment(svc.Payments, logg))
		})
	})

	return r
}
