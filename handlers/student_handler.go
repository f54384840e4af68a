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

// StudentService defines the enrolment operations the handler needs
type StudentService interface {
	List(ctx context.Context, caller services.Caller, limit, offset int) ([]*models.Student, error)
	Get(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.Student, error)
	Create(ctx context.Context, caller services.Caller, input services.CreateStudentInput) (*models.Student, error)
	Update(ctx context.Context, caller services.Caller, id uuid.UUID, input services.UpdateStudentInput) (*models.Student, error)
	Deactivate(ctx context.Context, caller services.Caller, id uuid.UUID) error
}

// StudentHandler handles student-related HTTP requests
type StudentHandler struct {
	students StudentService
	logger   *zap.Logger
}

// NewStudentHandler creates a new StudentHandler
func NewStudentHandler(students StudentService, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{students: students, logger: logger}
}

// HandleList handles GET /api/v1/students
func (h *StudentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, err := utils.ParsePage(r)
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	students, err := h.students.List(r.Context(), caller, limit, offset)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WritePage(w, students, limit, offset, len(students)))
}

// HandleGet handles GET /api/v1/students/{id}
func (h *StudentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	id, err := utils.URLParamUUID(r, "id")
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	student, err := h.students.Get(r.Context(), caller, id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WriteOK(w, student))
}

// HandleCreate handles POST /api/v1/students
func (h *StudentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	var input services.CreateStudentInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	student, err := h.students.Create(r.Context(), caller, input)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WriteCreated(w, student))
}

// HandleUpdate handles PATCH /api/v1/students/{id}
func (h *StudentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	id, err := utils.URLParamUUID(r, "id")
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}
	var input services.UpdateStudentInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	h.logger.Debug("updating student",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("student_id", id.String()))

	student, err := h.students.Update(r.Context(), caller, id, input)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WriteOK(w, student))
}

// HandleDeactivate handles DELETE /api/v1/students/{id}
func (h *StudentHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	id, err := utils.URLParamUUID(r, "id")
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	if err := h.students.Deactivate(r.Context(), caller, id); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
