package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/services"
	"github.com/Astonie/schoolyathu/utils"
)

// GuardianService defines the guardian operations the handler needs
type GuardianService interface {
	List(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.Guardian, error)
	Create(ctx context.Context, caller services.Caller, input services.CreateGuardianInput) (*models.Guardian, error)
	Dependents(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.Student, error)
}

// GuardianHandler serves the parents endpoints
type GuardianHandler struct {
	guardians GuardianService
	logger    *zap.Logger
}

// NewGuardianHandler creates a new GuardianHandler
func NewGuardianHandler(guardians GuardianService, logger *zap.Logger) *GuardianHandler {
	return &GuardianHandler{guardians: guardians, logger: logger}
}

// HandleList handles GET /api/v1/parents
func (h *GuardianHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, err := utils.ParsePage(r)
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	guardians, err := h.guardians.List(r.Context(), caller, limit, offset)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WritePage(w, guardians, limit, offset, len(guardians)))
}

// HandleCreate handles POST /api/v1/parents
func (h *GuardianHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	var input services.CreateGuardianInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	guardian, err := h.guardians.Create(r.Context(), caller, input)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WriteCreated(w, guardian))
}

// HandleChildren handles GET /api/v1/parents/me/children
func (h *GuardianHandler) HandleChildren(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, err := utils.ParsePage(r)
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	students, err := h.guardians.Dependents(r.Context(), caller, limit, offset)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WritePage(w, students, limit, offset, len(students)))
}
