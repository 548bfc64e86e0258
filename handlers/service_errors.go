package handlers

import (
	"net/http"

	"github.com/upb/gradebook/services"
	"github.com/upb/gradebook/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, services.GetErrorMessage(err, ""))

	case services.IsValidationError(err):
		writeErr = utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse{
			Message: services.GetErrorMessage(err, "Invalid request"),
			Error:   "bad_request",
			Details: details,
		})

	case services.IsUnauthorizedError(err):
		writeErr = utils.WriteUnauthorized(w, services.GetErrorMessage(err, ""))

	case services.IsForbiddenError(err):
		writeErr = utils.WriteForbidden(w, services.GetErrorMessage(err, ""))

	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, services.GetErrorMessage(err, "Conflict"), details)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var details map[string]interface{}
	if utils.IsValidationError(err) {
		details = make(map[string]interface{})
		for k, v := range utils.GetValidationFields(err) {
			details[k] = v
		}
	}

	if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
