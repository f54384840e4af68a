package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Astonie/schoolyathu/middleware"
	"github.com/Astonie/schoolyathu/services"
	"github.com/Astonie/schoolyathu/utils"
)

// HandleServiceError maps domain errors to HTTP responses. Only the
// domain message is sent; wrapped causes such as constraint names stay in
// the logs. Denials keep their reason in details.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	requestID := middleware.GetRequestIDFromContext(r.Context())
	details := services.GetErrorDetails(err)

	var status int
	message := "An unexpected error occurred"
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}

	switch services.GetErrorType(err) {
	case services.ErrorTypeNotFound:
		status = http.StatusNotFound
	case services.ErrorTypeValidation:
		status = http.StatusBadRequest
	case services.ErrorTypeUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrorTypeForbidden:
		status = http.StatusForbidden
		message = "Access forbidden"
	case services.ErrorTypeConflict:
		status = http.StatusConflict
	case services.ErrorTypeInternal:
		logger.Error("internal server error",
			zap.String("request_id", requestID),
			zap.Error(err))
		status, message, details = http.StatusInternalServerError, "An internal error occurred", nil
	default:
		logger.Error("unhandled error type",
			zap.String("request_id", requestID),
			zap.Error(err))
		status, message, details = http.StatusInternalServerError, "An unexpected error occurred", nil
	}

	if status == http.StatusForbidden || status == http.StatusUnauthorized {
		logger.Info("request denied by service",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.Any("reason", details[services.DetailReason]))
	}

	if err := utils.WriteError(w, status, message, details); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}

// HandleBadRequest writes a 400 for malformed input that never reached a service
func HandleBadRequest(w http.ResponseWriter, err error, logger *zap.Logger) {
	var details map[string]interface{}
	if fields := utils.GetValidationFields(err); fields != nil {
		details = map[string]interface{}{"fields": fields}
	}
	if err := utils.WriteError(w, http.StatusBadRequest, err.Error(), details); err != nil {
		logger.Error("failed to write bad request response", zap.Error(err))
	}
}

// callerOrDeny reads the caller or writes the denial. ok is false when
// the handler must stop.
func callerOrDeny(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (services.Caller, bool) {
	caller, err := services.CallerFromContext(r.Context())
	if err != nil {
		HandleServiceError(w, r, err, logger)
		return services.Caller{}, false
	}
	return caller, true
}

func writeJSONResult(w http.ResponseWriter, logger *zap.Logger, err error) {
	if err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
