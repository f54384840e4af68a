package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/handlers"
	"github.com/Astonie/schoolyathu/middleware"
	"github.com/Astonie/schoolyathu/rbac"
	"github.com/Astonie/schoolyathu/services"
	"github.com/Astonie/schoolyathu/utils"
)

// LoginPath is the JSON sign-in endpoint
const LoginPath = "/api/auth/login"

// Service is the account side of signing in and out
type Service interface {
	Login(ctx context.Context, input services.LoginInput) (*services.LoginResult, error)
	Logout(ctx context.Context, id rbac.Identity) error
}

// CookieConfig controls the session cookie set at sign-in
type CookieConfig struct {
	Name   string
	Secure bool
}

// LoginResponse is the body returned after a successful sign-in
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
	SchoolID  string    `json:"school_id,omitempty"`
	Redirect  string    `json:"redirect"`
}

// SignInResponse tells a browser how to sign in
type SignInResponse struct {
	LoginURL    string `json:"login_url"`
	CallbackURL string `json:"callback_url"`
}

// Handler serves sign-in, sign-out and the authentication pages.
type Handler struct {
	service  Service
	resolver middleware.IdentityResolver
	cookie   CookieConfig
	logger   *zap.Logger
}

// NewHandler creates a new auth handler. The resolver identifies the
// session being ended on logout.
func NewHandler(service Service, resolver middleware.IdentityResolver, cookie CookieConfig, logger *zap.Logger) *Handler {
	if cookie.Name == "" {
		cookie.Name = middleware.DefaultSessionCookie
	}
	return &Handler{
		service:  service,
		resolver: resolver,
		cookie:   cookie,
		logger:   logger,
	}
}

// HandleLogin handles POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		handlers.HandleBadRequest(w, err, h.logger)
		return
	}

	result, err := h.service.Login(r.Context(), input)
	if err != nil {
		handlers.HandleServiceError(w, r, err, h.logger)
		return
	}

	h.setSessionCookie(w, result.Token, result.ExpiresAt)

	redirect := safeCallback(r.URL.Query().Get("callbackUrl"))
	if redirect == "" {
		redirect = handlers.DashboardPath
	}

	var schoolID string
	if result.User.SchoolID.Valid {
		schoolID = result.User.SchoolID.UUID.String()
	}
	if err := utils.WriteOK(w, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Role:      result.User.Role.String(),
		SchoolID:  schoolID,
		Redirect:  redirect,
	}); err != nil {
		h.logger.Error("failed to write login response", zap.Error(err))
	}
}

// HandleLogout handles POST /api/auth/logout. The cookie is always
// cleared; a credential that still verifies is also revoked.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)

	raw := middleware.ExtractToken(r, h.cookie.Name)
	if raw == "" || h.resolver == nil {
		utils.WriteNoContent(w)
		return
	}

	id, err := h.resolver.Resolve(r.Context(), raw)
	if err != nil {
		// Nothing left to revoke.
		h.logger.Debug("logout with unusable credential", zap.Error(err))
		utils.WriteNoContent(w)
		return
	}

	if err := h.service.Logout(r.Context(), id); err != nil {
		handlers.HandleServiceError(w, r, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleSignIn handles GET /auth/signin
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	callback := safeCallback(r.URL.Query().Get("callbackUrl"))
	if callback == "" {
		callback = handlers.DashboardPath
	}
	if err := utils.WriteOK(w, SignInResponse{
		LoginURL:    LoginPath,
		CallbackURL: callback,
	}); err != nil {
		h.logger.Error("failed to write sign-in response", zap.Error(err))
	}
}

// HandleError handles GET /auth/error?error=<reason>
func (h *Handler) HandleError(w http.ResponseWriter, r *http.Request) {
	reason := rbac.Reason(r.URL.Query().Get("error"))

	status, message := http.StatusForbidden, "You do not have access to this page"
	switch reason {
	case rbac.ReasonUnauthenticated:
		status, message = http.StatusUnauthorized, "Please sign in to continue"
	case rbac.ReasonNoTenantAccess:
		message = "Your account is not linked to a school"
	case rbac.ReasonInvalidRole:
		message = "Your account has an unrecognised role"
	case rbac.ReasonUnauthorized:
	default:
		reason = rbac.ReasonUnauthorized
	}

	if err := utils.WriteError(w, status, message, map[string]interface{}{
		services.DetailReason: string(reason),
	}); err != nil {
		h.logger.Error("failed to write error page", zap.Error(err))
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeCallback accepts only same-site paths so sign-in cannot redirect
// off the application.
func safeCallback(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return ""
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	return raw
}
