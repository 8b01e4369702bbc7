// Package httputil provides shared HTTP utilities for consistent response
// handling across the control protocol and the CLI-facing endpoints.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/mockbird/mockbird/pkg/stub"
)

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a structured JSON error body with the given status code.
func WriteError(w http.ResponseWriter, status int, kind, message string) {
	WriteJSON(w, status, stub.ErrorBody{Error: kind, Message: message})
}

// WriteOK writes a 200 OK response with data.
func WriteOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 Created response with the created resource.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteBadRequest writes a 400 Bad Request error response.
func WriteBadRequest(w http.ResponseWriter, kind, message string) {
	WriteError(w, http.StatusBadRequest, kind, message)
}

// WriteNotFound writes a 404 Not Found error response.
func WriteNotFound(w http.ResponseWriter, kind, message string) {
	WriteError(w, http.StatusNotFound, kind, message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, kind, message string) {
	WriteError(w, http.StatusInternalServerError, kind, message)
}
