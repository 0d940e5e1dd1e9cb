package middleware

import (
	"context"

	"github.com/nerdacademy/nerdacademy-backend/internal/access"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxAccessID  contextKey = "access_id"
)

// PrincipalFromContext returns the authenticated caller, or the anonymous
// zero value when Auth did not run.
func PrincipalFromContext(ctx context.Context) access.Principal {
	if ctx == nil {
		return access.Principal{}
	}
	if p, ok := ctx.Value(ctxPrincipal).(access.Principal); ok {
		return p
	}
	return access.Principal{}
}

// AccessIDFromContext returns the jti of the bearer token used on the request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithPrincipal injects the caller into the context.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

// WithAccessID records the bearer token's jti.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}
