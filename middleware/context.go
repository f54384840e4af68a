package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Astonie/schoolyathu/rbac"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
)

// GetRequestIDFromContext retrieves the request ID from context, falling
// back to the id set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetUserIDFromContext returns the authenticated user's id or uuid.Nil
func GetUserIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := rbac.IdentityFromContext(ctx); ok {
		return id.UserID
	}
	return uuid.Nil
}

// GetRoleFromContext returns the authenticated user's role or RoleUnknown
func GetRoleFromContext(ctx context.Context) rbac.Role {
	if id, ok := rbac.IdentityFromContext(ctx); ok {
		return id.Role
	}
	return rbac.RoleUnknown
}

// GetSchoolIDFromContext returns the authenticated user's school, if any
func GetSchoolIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if id, ok := rbac.IdentityFromContext(ctx); ok {
		return id.Tenant()
	}
	return uuid.Nil, false
}
