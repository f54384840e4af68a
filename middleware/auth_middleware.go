package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/internal/observability"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/utils"
)

// IdentityResolver turns a raw credential into an identity
type IdentityResolver interface {
	Resolve(ctx context.Context, raw string) (rbac.Identity, error)
}

// AuthMiddleware authenticates requests and enforces role and capability
// requirements on routes.
type AuthMiddleware struct {
	resolver   IdentityResolver
	metrics    *observability.Metrics
	logger     *zap.Logger
	cookieName string
}

// DefaultSessionCookie carries the credential for browser clients
const DefaultSessionCookie = "session"

// NewAuthMiddleware creates a new AuthMiddleware. metrics may be nil.
func NewAuthMiddleware(resolver IdentityResolver, metrics *observability.Metrics, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		resolver:   resolver,
		metrics:    metrics,
		logger:     logger,
		cookieName: DefaultSessionCookie,
	}
}

// WithCookieName overrides the session cookie name
func (m *AuthMiddleware) WithCookieName(name string) *AuthMiddleware {
	if name != "" {
		m.cookieName = name
	}
	return m
}

// CookieName returns the session cookie name
func (m *AuthMiddleware) CookieName() string {
	return m.cookieName
}

// Authenticate runs on every request. Public paths pass through untouched.
// Every other path needs a verified credential whose identity can be scoped
// to a school; the identity and its data filter are then attached to the
// request context for handlers.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range identityHeaders {
			r.Header.Del(h)
		}

		if IsPublicPath(r.URL.Path) {
			m.metrics.RecordDecision(observability.OutcomePublic, "")
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := ExtractToken(r, m.cookieName)
		if token == "" {
			m.deny(w, r, rbac.ErrUnauthenticated)
			return
		}

		id, err := m.resolver.Resolve(ctx, token)
		if err != nil {
			m.deny(w, r, err)
			return
		}

		filter, err := rbac.ScopeFilter(id)
		if err != nil {
			m.deny(w, r, err)
			return
		}

		ctx = rbac.WithIdentity(ctx, id)
		ctx = rbac.WithTenantFilter(ctx, filter)

		m.metrics.RecordDecision(observability.OutcomeAuthenticated, "")
		m.logger.Debug("request authenticated",
			zap.String("request_id", requestID),
			zap.String("user_id", id.UserID.String()),
			zap.String("role", id.Role.String()),
			zap.String("school_id", id.TenantString()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits only the listed roles. Global admins must be listed
// explicitly.
func (m *AuthMiddleware) RequireRole(roles ...rbac.Role) func(http.Handler) http.Handler {
	return m.guard(func(id rbac.Identity) error {
		_, err := rbac.RequireRole(id, roles...)
		return err
	})
}

// RequireCapability admits roles holding capability
func (m *AuthMiddleware) RequireCapability(capability rbac.Capability) func(http.Handler) http.Handler {
	return m.guard(func(id rbac.Identity) error {
		_, err := rbac.RequireCapability(id, capability)
		return err
	})
}

// RequireAnyCapability admits roles holding at least one of caps
func (m *AuthMiddleware) RequireAnyCapability(caps ...rbac.Capability) func(http.Handler) http.Handler {
	return m.guard(func(id rbac.Identity) error {
		_, err := rbac.RequireAnyCapability(id, caps...)
		return err
	})
}

func (m *AuthMiddleware) guard(check func(rbac.Identity) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := rbac.RequireAuthenticated(r.Context())
			if err != nil {
				m.deny(w, r, err)
				return
			}
			if err := check(id); err != nil {
				m.deny(w, r, err)
				return
			}
			m.metrics.RecordDecision(observability.OutcomeAllowed, "")
			next.ServeHTTP(w, r)
		})
	}
}

// deny writes the outcome for err. API callers get JSON; page requests are
// redirected to sign-in or to the error page carrying the reason.
func (m *AuthMiddleware) deny(w http.ResponseWriter, r *http.Request, err error) {
	reason := rbac.ReasonFor(err)
	m.metrics.RecordDecision(observability.OutcomeDenied, string(reason))
	m.logger.Warn("request denied",
		zap.String("request_id", GetRequestIDFromContext(r.Context())),
		zap.String("path", r.URL.Path),
		zap.String("reason", string(reason)),
		zap.Error(err))

	WriteDenial(w, r, reason)
}

// WriteDenial writes the response for a denial reason.
func WriteDenial(w http.ResponseWriter, r *http.Request, reason rbac.Reason) {
	if IsAPIPath(r.URL.Path) {
		details := map[string]interface{}{"reason": string(reason)}
		if reason == rbac.ReasonUnauthenticated {
			_ = utils.WriteError(w, http.StatusUnauthorized, "Authentication required", details)
			return
		}
		_ = utils.WriteError(w, http.StatusForbidden, "Access forbidden", details)
		return
	}

	if reason == rbac.ReasonUnauthenticated {
		target := SignInPath + "?callbackUrl=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	http.Redirect(w, r, ErrorPath+"?error="+url.QueryEscape(string(reason)), http.StatusFound)
}

// ExtractToken reads the credential from the Authorization header or the
// session cookie. The header takes precedence when both are present.
func ExtractToken(r *http.Request, cookieName string) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
