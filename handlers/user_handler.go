package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/services"
	"github.com/Astonie/schoolyathu/utils"
)

// UserService defines the account operations the handler needs
type UserService interface {
	Me(ctx context.Context, caller services.Caller) (*models.User, error)
	List(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, caller services.Caller, input services.CreateUserInput) (*models.User, error)
}

// CurrentUserResponse is the body of GET /api/v1/users/me. Role and
// school come from the verified credential; the stored account is
// included when it can be read.
type CurrentUserResponse struct {
	UserID       string       `json:"user_id"`
	Role         string       `json:"role"`
	SchoolID     string       `json:"school_id,omitempty"`
	Capabilities []string     `json:"capabilities"`
	User         *models.User `json:"user,omitempty"`
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	users  UserService
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleMe handles GET /api/v1/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.users.Me(r.Context(), caller)
	if err != nil && !services.IsNotFoundError(err) {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	writeJSONResult(w, h.logger, utils.WriteOK(w, CurrentUserResponse{
		UserID:       caller.Identity.UserID.String(),
		Role:         caller.Identity.Role.String(),
		SchoolID:     caller.Identity.TenantString(),
		Capabilities: capabilityNames(caller),
		User:         user,
	}))
}

// HandleList handles GET /api/v1/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, err := utils.ParsePage(r)
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	users, err := h.users.List(r.Context(), caller, limit, offset)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WritePage(w, users, limit, offset, len(users)))
}

// HandleCreate handles POST /api/v1/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	var input services.CreateUserInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	user, err := h.users.Create(r.Context(), caller, input)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WriteCreated(w, user))
}
