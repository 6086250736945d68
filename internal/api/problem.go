package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tributolabs/fiscalis/internal/auth"
	"github.com/tributolabs/fiscalis/internal/fiscal"
	"github.com/tributolabs/fiscalis/internal/store"
	"github.com/tributolabs/fiscalis/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusUnauthorized: {
		typeURI: "https://fiscalis.dev/errors/unauthorized",
		title:   "Unauthorized",
	},
	http.StatusForbidden: {
		typeURI: "https://fiscalis.dev/errors/forbidden",
		title:   "Forbidden",
	},
	http.StatusBadRequest: {
		typeURI: "https://fiscalis.dev/errors/bad-request",
		title:   "Bad Request",
	},
	http.StatusNotFound: {
		typeURI: "https://fiscalis.dev/errors/not-found",
		title:   "Not Found",
	},
	http.StatusUnprocessableEntity: {
		typeURI: "https://fiscalis.dev/errors/validation-error",
		title:   "Validation Error",
	},
	http.StatusServiceUnavailable: {
		typeURI: "https://fiscalis.dev/errors/service-unavailable",
		title:   "Service Unavailable",
	},
	http.StatusInternalServerError: {
		typeURI: "https://fiscalis.dev/errors/internal-error",
		title:   "Internal Server Error",
	},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt = struct {
			typeURI string
			title   string
		}{
			typeURI: "https://fiscalis.dev/errors/unknown",
			title:   http.StatusText(status),
		}
	}

	p := Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	pt := problemTypes[http.StatusUnprocessableEntity]

	p := ProblemWithErrors{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   http.StatusUnprocessableEntity,
			Detail:   detail,
			Instance: r.URL.Path,
		},
		Errors: errs,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapDomainError converts domain errors to Problem Details responses.
func MapDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteProblem(w, r, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, auth.ErrUserNotFound):
		WriteProblem(w, r, http.StatusNotFound, "User not found")
	case errors.Is(err, fiscal.ErrUnknownState):
		WriteProblem(w, r, http.StatusNotFound, "Unknown state code")
	case errors.Is(err, store.ErrClosed):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Storage is shutting down")
	default:
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
