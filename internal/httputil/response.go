package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/banshee-data/arbor/internal/monitoring"
)

// ErrorResponse is the body of every JSON error reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		monitoring.Logf("failed to encode json response: %v", err)
	}
}

// WriteJSONOK writes a successful JSON response (200 OK).
func WriteJSONOK(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteError writes an ErrorResponse with a formatted message.
func WriteError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	WriteJSON(w, status, ErrorResponse{Error: fmt.Sprintf(format, args...), Status: status})
}

// MethodNotAllowed writes a 405 listing the allowed methods.
func MethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// BadRequest writes a 400 Bad Request response with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusBadRequest, "%s", msg)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusNotFound, "%s", msg)
}

// InternalServerError logs err and writes a generic 500 so internal
// details stay out of the response.
func InternalServerError(w http.ResponseWriter, err error) {
	monitoring.Logf("internal server error: %v", err)
	WriteError(w, http.StatusInternalServerError, "internal server error")
}
