package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nerdacademy/nerdacademy-backend/internal/auth"
	"github.com/nerdacademy/nerdacademy-backend/internal/courses"
	"github.com/nerdacademy/nerdacademy-backend/internal/enrollments"
	"github.com/nerdacademy/nerdacademy-backend/internal/lessons"
	"github.com/nerdacademy/nerdacademy-backend/internal/payments"
	"github.com/nerdacademy/nerdacademy-backend/internal/tags"
	"github.com/nerdacademy/nerdacademy-backend/internal/users"
	pkgAuth "github.com/nerdacademy/nerdacademy-backend/pkg/auth"
	"github.com/nerdacademy/nerdacademy-backend/pkg/auth/session"
	"github.com/nerdacademy/nerdacademy-backend/pkg/config"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/dbtest"
	"github.com/nerdacademy/nerdacademy-backend/pkg/db/models"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	"github.com/nerdacademy/nerdacademy-backend/pkg/logger"
	"github.com/nerdacademy/nerdacademy-backend/pkg/metrics"
)

type memoryRedis struct {
	mu     sync.Mutex
	values map[string]string
	counts map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryRedis) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

func (m *memoryRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (m *memoryRedis) Ping(ctx context.Context) error { return nil }

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]string{}}
}

func (s *memorySessions) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.sessions[accessID] = token
	return token, nil
}

func (s *memorySessions) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[oldAccessID] != provided || provided == "" {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.sessions, oldAccessID)
	id, token := uuid.NewString(), uuid.NewString()
	s.sessions[id] = token
	return id, token, nil
}

func (s *memorySessions) Revoke(ctx context.Context, accessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, accessID)
	return nil
}

func (s *memorySessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[accessID]
	return ok, nil
}

type testServer struct {
	t        *testing.T
	handler  http.Handler
	cfg      *config.Config
	db       *db.Client
	sessions *memorySessions
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "nerdacademy", ExpirationMinutes: 15},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginIPLimit:    100,
			LoginEmailLimit: 100,
		},
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testRouterConfig()
	client := dbtest.Open(t)
	conn := client.DB()
	sessions := newMemorySessions()
	registry := prometheus.NewRegistry()

	userRepo := users.NewRepository(conn)
	tagRepo := tags.NewRepository(conn)
	courseRepo := courses.NewRepository(conn)
	lessonRepo := lessons.NewRepository(conn)
	enrollmentRepo := enrollments.NewRepository(conn)
	paymentRepo := payments.NewRepository(conn)

	authSvc, err := auth.NewService(auth.ServiceParams{UserRepo: userRepo, SessionManager: sessions, JWTConfig: cfg.JWT})
	mustNoErr(t, err)
	registerSvc, err := auth.NewRegisterService(auth.RegisterServiceParams{Users: userRepo})
	mustNoErr(t, err)
	userSvc, err := users.NewService(userRepo)
	mustNoErr(t, err)
	tagSvc, err := tags.NewService(tagRepo, client)
	mustNoErr(t, err)
	courseSvc, err := courses.NewService(courseRepo, tagRepo, client)
	mustNoErr(t, err)
	lessonSvc, err := lessons.NewService(lessonRepo, courseRepo, enrollmentRepo)
	mustNoErr(t, err)
	enrollmentSvc, err := enrollments.NewService(enrollments.ServiceParams{
		Repo:    enrollmentRepo,
		Courses: courseRepo,
		DB:      client,
		Metrics: metrics.NewEnrollmentMetrics(registry),
	})
	mustNoErr(t, err)
	paymentSvc, err := payments.NewService(paymentRepo, enrollmentRepo)
	mustNoErr(t, err)

	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: io.Discard})
	handler := NewRouter(cfg, logg, client, newMemoryRedis(), sessions, registry, Services{
		Auth:        authSvc,
		Register:    registerSvc,
		Users:       userSvc,
		Courses:     courseSvc,
		Lessons:     lessonSvc,
		Tags:        tagSvc,
		Enrollments: enrollmentSvc,
		Payments:    paymentSvc,
	})

	return &testServer{t: t, handler: handler, cfg: cfg, db: client, sessions: sessions}
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// tokenFor mints a bearer token for user and registers its session.
func (s *testServer) tokenFor(user *models.User) string {
	s.t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	mustNoErr(s.t, err)
	_, err = s.sessions.Generate(context.Background(), accessID, user.ID)
	mustNoErr(s.t, err)
	return token
}

func (s *testServer) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	srv := newTestServer(t)

	if rec := srv.do(http.MethodGet, "/health/live", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", rec.Code)
	}
	if rec := srv.do(http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	rec := srv.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",route="/health/live",status="200"} 1`) {
		t.Fatalf("expected request counter for /health/live, got:\n%s", rec.Body.String())
	}
}

func TestUnknownRouteReturnsJSONNotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(http.MethodGet, "/api/v1/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"NOT_FOUND"`) {
		t.Fatalf("expected json error body, got %s", rec.Body.String())
	}
}

func TestPublicCatalogIsAnonymous(t *testing.T) {
	srv := newTestServer(t)
	instructor := dbtest.SeedUser(t, srv.db, enums.UserRoleInstructor)
	course := dbtest.SeedCourse(t, srv.db, instructor.ID)

	rec := srv.do(http.MethodGet, "/api/v1/courses", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d", rec.Code)
	}
	rec = srv.do(http.MethodGet, "/api/v1/courses/"+course.ID.String(), "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200 got %d", rec.Code)
	}
	if rec := srv.do(http.MethodGet, "/api/v1/tags", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("tags: expected 200 got %d", rec.Code)
	}

	if rec := srv.do(http.MethodPost, "/api/v1/courses", "", `{"title":"x","level":"Beginner"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: expected 401 got %d", rec.Code)
	}
}

func TestEnrollmentsRequireAuthentication(t *testing.T) {
	srv := newTestServer(t)
	if rec := srv.do(http.MethodGet, "/api/v1/enrollments", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	srv := newTestServer(t)

	body := `{"first_name":"Ada","last_name":"Lovelace","email":"Ada@Example.com","password":"Secret123!"}`
	if rec := srv.do(http.MethodPost, "/api/v1/users/register", "", body); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := srv.do(http.MethodPost, "/api/v1/users/register", "", body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409 got %d", rec.Code)
	}

	rec := srv.do(http.MethodPost, "/api/v1/users/login", "", `{"email":"ada@example.com","password":"Secret123!"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var tokens auth.TokenResponse
	decodeData(t, rec, &tokens)
	if tokens.User == nil || tokens.User.Role != enums.UserRoleStudent {
		t.Fatalf("expected student user in login response")
	}

	if rec := srv.do(http.MethodGet, "/api/v1/users/"+tokens.User.ID.String(), tokens.AccessToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("self read: expected 200 got %d", rec.Code)
	}

	refreshBody := `{"access_token":"` + tokens.AccessToken + `","refresh_token":"` + tokens.RefreshToken + `"}`
	rec = srv.do(http.MethodPost, "/api/v1/users/refresh", "", refreshBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var refreshed auth.TokenResponse
	decodeData(t, rec, &refreshed)

	if rec := srv.do(http.MethodGet, "/api/v1/enrollments", tokens.AccessToken, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("rotated token: expected 401 got %d", rec.Code)
	}

	if rec := srv.do(http.MethodPost, "/api/v1/users/logout", refreshed.AccessToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200 got %d", rec.Code)
	}
	if rec := srv.do(http.MethodGet, "/api/v1/enrollments", refreshed.AccessToken, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401 got %d", rec.Code)
	}
}

func TestApprovalGatesLessonAccess(t *testing.T) {
	srv := newTestServer(t)
	admin := dbtest.SeedUser(t, srv.db, enums.UserRoleAdmin)
	instructor := dbtest.SeedUser(t, srv.db, enums.UserRoleInstructor)
	student := dbtest.SeedUser(t, srv.db, enums.UserRoleStudent)
	course := dbtest.SeedCourse(t, srv.db, instructor.ID)
	dbtest.SeedLesson(t, srv.db, course.ID, 1)

	adminToken := srv.tokenFor(admin)
	studentToken := srv.tokenFor(student)
	lessonsPath := "/api/v1/courses/" + course.ID.String() + "/lessons"

	rec := srv.do(http.MethodPost, "/api/v1/enrollments", studentToken,
		`{"course_id":"`+course.ID.String()+`","status":"Approved"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("enroll: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var enrollment enrollments.EnrollmentDTO
	decodeData(t, rec, &enrollment)
	if enrollment.Status != enums.EnrollmentStatusPending {
		t.Fatalf("expected pending enrollment, got %s", enrollment.Status)
	}

	if rec := srv.do(http.MethodGet, lessonsPath, studentToken, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("pending: expected 403 got %d", rec.Code)
	}

	approvePath := "/api/v1/enrollments/" + enrollment.ID.String() + "/approve"
	if rec := srv.do(http.MethodPost, approvePath, studentToken, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("student approve: expected 403 got %d", rec.Code)
	}
	if rec := srv.do(http.MethodPost, approvePath, adminToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200 got %d", rec.Code)
	}
	if rec := srv.do(http.MethodGet, lessonsPath, studentToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("approved: expected 200 got %d", rec.Code)
	}

	if rec := srv.do(http.MethodPost, "/api/v1/enrollments/"+enrollment.ID.String()+"/reject", adminToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("reject: expected 200 got %d", rec.Code)
	}
	if rec := srv.do(http.MethodGet, lessonsPath, studentToken, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("rejected: expected 403 got %d", rec.Code)
	}
}

func TestEnrollmentCreateIsIdempotent(t *testing.T) {
	srv := newTestServer(t)
	instructor := dbtest.SeedUser(t, srv.db, enums.UserRoleInstructor)
	student := dbtest.SeedUser(t, srv.db, enums.UserRoleStudent)
	course := dbtest.SeedCourse(t, srv.db, instructor.ID)
	token := srv.tokenFor(student)
	body := `{"course_id":"` + course.ID.String() + `"}`

	first := srv.do(http.MethodPost, "/api/v1/enrollments", token, body, "Idempotency-Key", "enroll-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("first: expected 201 got %d: %s", first.Code, first.Body.String())
	}
	second := srv.do(http.MethodPost, "/api/v1/enrollments", token, body, "Idempotency-Key", "enroll-1")
	if second.Code != http.StatusCreated {
		t.Fatalf("replay: expected 201 got %d", second.Code)
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay header")
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical replayed body")
	}

	var count int64
	mustNoErr(t, srv.db.DB().Model(&models.Enrollment{}).Count(&count).Error)
	if count != 1 {
		t.Fatalf("expected one enrollment row, got %d", count)
	}

	other := srv.do(http.MethodPost, "/api/v1/enrollments", token, `{"course_id":"`+uuid.NewString()+`"}`, "Idempotency-Key", "enroll-1")
	if other.Code != http.StatusConflict {
		t.Fatalf("reused key: expected 409 got %d", other.Code)
	}
}

func TestPaymentAgainstForeignEnrollmentIsForbidden(t *testing.T) {
	srv := newTestServer(t)
	instructor := dbtest.SeedUser(t, srv.db, enums.UserRoleInstructor)
	owner := dbtest.SeedUser(t, srv.db, enums.UserRoleStudent)
	intruder := dbtest.SeedUser(t, srv.db, enums.UserRoleStudent)
	course := dbtest.SeedCourse(t, srv.db, instructor.ID)
	enrollment := dbtest.SeedEnrollment(t, srv.db, owner.ID, course.ID, enums.EnrollmentStatusApproved)

	body := `{"enrollment_id":"` + enrollment.ID.String() + `","amount":"49.99","currency":"usd","provider":"stripe"}`
	if rec := srv.do(http.MethodPost, "/api/v1/payments", srv.tokenFor(intruder), body); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d: %s", rec.Code, rec.Body.String())
	}

	var count int64
	mustNoErr(t, srv.db.DB().Model(&models.Payment{}).Count(&count).Error)
	if count != 0 {
		t.Fatalf("expected no payment rows, got %d", count)
	}

	if rec := srv.do(http.MethodPost, "/api/v1/payments", srv.tokenFor(owner), body); rec.Code != http.StatusCreated {
		t.Fatalf("owner payment: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
}
