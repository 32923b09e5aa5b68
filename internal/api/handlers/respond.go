package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"

	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

type ForbiddenResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR [handlers.writeJSON] Failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

func writeValidationErrors(w http.ResponseWriter, verrs *validation.Errors) {
	writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		Message: verrs.First(),
		Errors:  verrs.Fields,
	})
}

// writeServiceError maps service and domain errors onto HTTP responses.
// Anything unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var verrs *validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeValidationErrors(w, verrs)
	case errors.Is(err, domain.ErrPostNotFound):
		writeMessage(w, http.StatusNotFound, "Post not found.")
	case errors.Is(err, domain.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found.")
	case errors.Is(err, domain.ErrNotPostOwner):
		writeJSON(w, http.StatusForbidden, ForbiddenResponse{Error: "Unauthorized"})
	default:
		log.Printf("ERROR [handlers.%s] %v", op, err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads the request body into dst. An empty body leaves dst zeroed so
// field rules report what is missing. It writes the error response itself and
// reports false when the body cannot be used.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		msg := fmt.Sprintf("The %s field is invalid.", typeErr.Field)
		if typeErr.Type != nil && typeErr.Type.Kind() == reflect.String {
			msg = fmt.Sprintf("The %s field must be a string.", typeErr.Field)
		}
		writeValidationErrors(w, validation.Single(typeErr.Field, msg))
		return false
	}

	writeMessage(w, http.StatusBadRequest, "Invalid request body")
	return false
}

// idParam parses a UUID route parameter. Malformed ids are reported as not found.
func idParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
