package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/models"
	"github.com/Astonie/schoolyathu/services"
	"github.com/Astonie/schoolyathu/utils"
)

// AttendanceService defines the attendance operations the handler needs
type AttendanceService interface {
	Record(ctx context.Context, caller services.Caller, input services.RecordAttendanceInput) (*models.AttendanceRecord, error)
	ListForStudent(ctx context.Context, caller services.Caller, studentID uuid.UUID, limit, offset int) ([]*models.AttendanceRecord, error)
}

// AttendanceHandler handles attendance HTTP requests
type AttendanceHandler struct {
	attendance AttendanceService
	logger     *zap.Logger
}

// NewAttendanceHandler creates a new AttendanceHandler
func NewAttendanceHandler(attendance AttendanceService, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, logger: logger}
}

// HandleRecord handles POST /api/v1/attendance
func (h *AttendanceHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	var input services.RecordAttendanceInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	record, err := h.attendance.Record(r.Context(), caller, input)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WriteCreated(w, record))
}

// HandleList handles GET /api/v1/attendance?student_id=
func (h *AttendanceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrDeny(w, r, h.logger)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("student_id")
	if raw == "" {
		HandleBadRequest(w, errors.New("student_id is required"), h.logger)
		return
	}
	studentID, err := uuid.Parse(raw)
	if err != nil {
		HandleBadRequest(w, errors.New("student_id must be a valid UUID"), h.logger)
		return
	}
	limit, offset, err := utils.ParsePage(r)
	if err != nil {
		HandleBadRequest(w, err, h.logger)
		return
	}

	records, err := h.attendance.ListForStudent(r.Context(), caller, studentID, limit, offset)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeJSONResult(w, h.logger, utils.WritePage(w, records, limit, offset, len(records)))
}
