package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/services"
	"github.com/Astonie/schoolyathu/utils"
)

// SchoolService defines the school operations the handler needs
type SchoolService interface {
	List(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.School, error)
	Get(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.School, error)
	Create(ctx context.Context, caller services.Caller, input services.CreateSchoolInput) (*models.School, error)
	Delete(ctx context.Context, caller services.Caller, id uuid.UUID) error
}

// SchoolHandler handles school-related HTTP requests
type SchoolHandler struct {
	schools SchoolService
	logger  *zap.Logger
}

// NewSchoolHandler creates a new SchoolHandler
func NewSchoolHandler(schools SchoolService, logger *zap.Logger) *SchoolHandler {
	return &SchoolHandler{schools: schools, logger: logger}
}

// HandleList handles GET /api/v1/schools
func (h *SchoolHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, err := utils.ParsePage(r)
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	schools, err := h.schools.List(r.Context(), caller, limit, offset)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WritePage(w, schools, limit, offset, len(schools)))
}

// HandleGet handles GET /api/v1/schools/{id}
func (h *SchoolHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	id, err := utils.URLParamUUID(r, "id")
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	school, err := h.schools.Get(r.Context(), caller, id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WriteOK(w, school))
}

// HandleCreate handles POST /api/v1/schools
func (h *SchoolHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	var input services.CreateSchoolInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	school, err := h.schools.Create(r.Context(), caller, input)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WriteCreated(w, school))
}

// HandleDelete handles DELETE /api/v1/schools/{id}
func (h *SchoolHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	id, err := utils.URLParamUUID(r, "id")
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	if err := h.schools.Delete(r.Context(), caller, id); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
