package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerdacademy/nerdacademy-backend/api/middleware"
	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	"github.com/nerdacademy/nerdacademy-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

type requestOpts struct {
	body      string
	params    map[string]string
	principal *access.Principal
	accessID  string
}

func newRequest(method, target string, opts requestOpts) *http.Request {
	var body io.Reader
	if opts.body != "" {
		body = strings.NewReader(opts.body)
	}
	req := httptest.NewRequest(method, target, body)
	if opts.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	ctx := req.Context()
	routeCtx := chi.NewRouteContext()
	for k, v := range opts.params {
		routeCtx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	if opts.principal != nil {
		ctx = middleware.WithPrincipal(ctx, *opts.principal)
	}
	if opts.accessID != "" {
		ctx = middleware.WithAccessID(ctx, opts.accessID)
	}
	return req.WithContext(ctx)
}

func principalWithRole(role enums.UserRole) *access.Principal {
	return &access.Principal{UserID: uuid.New(), Role: role}
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return env
}
