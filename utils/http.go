package utils

import (
	"encoding/json"
	"net/http"
)

// DefaultUnauthorizedReason is reported when a protected API path is reached
// without an authenticated security context.
const DefaultUnauthorizedReason = "Full authentication is required to access this resource"

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response with optional data
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteCreated writes a 201 Created response with optional data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// WriteBadRequest writes a 400 Bad Request response. Only the message is
// rendered when details is empty.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Message: message,
		Details: details,
	})
}

// WriteUnauthorized writes the API chain's 401 body:
// {"message":"Unauthorized","error":<reason>}.
func WriteUnauthorized(w http.ResponseWriter, reason string) error {
	if reason == "" {
		reason = DefaultUnauthorizedReason
	}
	return WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
		Message: "Unauthorized",
		Error:   reason,
	})
}

// WriteForbidden writes a 403 Forbidden response
func WriteForbidden(w http.ResponseWriter, reason string) error {
	if reason == "" {
		reason = "Access is denied"
	}
	return WriteJSON(w, http.StatusForbidden, ErrorResponse{
		Message: "Forbidden",
		Error:   reason,
	})
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteJSON(w, http.StatusNotFound, ErrorResponse{
		Message: message,
		Error:   "not_found",
	})
}

// WriteConflict writes a 409 Conflict response
func WriteConflict(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return WriteJSON(w, http.StatusConflict, ErrorResponse{
		Message: message,
		Error:   "conflict",
		Details: details,
	})
}

// WriteInternalServerError writes a 500 Internal Server Error response
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Message: message,
		Error:   "internal_error",
	})
}
