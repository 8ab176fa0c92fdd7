package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "hello", resp["message"])
}

func TestWriteJSONOK(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONOK(rec, map[string]int{"count": 42})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 42, resp["count"])
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		write   func(w http.ResponseWriter)
		status  int
		message string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "limit must be positive") }, http.StatusBadRequest, "limit must be positive"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "run not found") }, http.StatusNotFound, "run not found"},
		{"formatted", func(w http.ResponseWriter) { WriteError(w, http.StatusConflict, "run %d busy", 3) }, http.StatusConflict, "run 3 busy"},
		{"internal hides details", func(w http.ResponseWriter) { InternalServerError(w, errors.New("disk on fire")) }, http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, tt.status, resp.Status)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	MethodNotAllowed(rec, http.MethodGet, http.MethodDelete)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, DELETE", rec.Header().Get("Allow"))
	assert.Equal(t, "method not allowed", decodeError(t, rec).Error)
}
