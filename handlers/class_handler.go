package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/middleware"
	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/services"
	"github.com/Astonie/schoolyathu/utils"
)

// ClassService defines the class operations the handler needs
type ClassService interface {
	List(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.Class, error)
	Get(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.Class, error)
	Create(ctx context.Context, caller services.Caller, input services.ClassInput) (*models.Class, error)
	Update(ctx context.Context, caller services.Caller, id uuid.UUID, input services.ClassInput) (*models.Class, error)
	Delete(ctx context.Context, caller services.Caller, id uuid.UUID) error
}

// ClassHandler handles class-related HTTP requests
type ClassHandler struct {
	classes ClassService
	logger  *zap.Logger
}

// NewClassHandler creates a new ClassHandler
func NewClassHandler(classes ClassService, logger *zap.Logger) *ClassHandler {
	return &ClassHandler{classes: classes, logger: logger}
}

// HandleList handles GET /api/v1/classes
func (h *ClassHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, err := utils.ParsePage(r)
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	classes, err := h.classes.List(r.Context(), caller, limit, offset)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WritePage(w, classes, limit, offset, len(classes)))
}

// HandleGet handles GET /api/v1/classes/{id}
func (h *ClassHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	id, err := utils.URLParamUUID(r, "id")
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	class, err := h.classes.Get(r.Context(), caller, id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WriteOK(w, class))
}

// HandleCreate handles POST /api/v1/classes
func (h *ClassHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	var input services.ClassInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	class, err := h.classes.Create(r.Context(), caller, input)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WriteCreated(w, class))
}

// HandleUpdate handles PUT /api/v1/classes/{id}
func (h *ClassHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	id, err := utils.URLParamUUID(r, "id")
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}
	var input services.ClassInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	h.logger.Debug("updating class",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("class_id", id.String()))

	class, err := h.classes.Update(r.Context(), caller, id, input)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WriteOK(w, class))
}

// HandleDelete handles DELETE /api/v1/classes/{id}
func (h *ClassHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	id, err := utils.URLParamUUID(r, "id")
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	if err := h.classes.Delete(r.Context(), caller, id); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
