package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fsanano/checkout/internal/auth"
	"fsanano/checkout/internal/listquery"
	"fsanano/checkout/internal/receipt"
	"fsanano/checkout/internal/service"
)

// fieldError is one entry of a 422 response.
type fieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

func newFieldError(msg string, loc ...any) fieldError {
	return fieldError{Loc: loc, Msg: msg, Type: "value_error"}
}

// validationError carries every problem found in one request.
type validationError struct {
	fields []fieldError
}

func (e *validationError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + e.fields[0].Msg
}

func invalid(fields ...fieldError) error {
	return &validationError{fields: fields}
}

// httpError is an error with a ready status and detail.
type httpError struct {
	status int
	detail string
}

func (e *httpError) Error() string {
	return e.detail
}

type errorResponse struct {
	Detail any `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// fail maps err onto a status code and a {"detail": ...} body.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err)

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		slog.WarnContext(r.Context(), "HTTP error", "status", status, "path", r.URL.Path, "error", err)
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

func classify(err error) (int, any) {
	var (
		httpErr    *httpError
		validErr   *validationError
		rangeErr   *listquery.RangeValidationError
		unknownErr *listquery.UnknownFieldError
		valueErr   *listquery.InvalidValueError
		preErr     *receipt.PreconditionError
	)

	switch {
	case errors.As(err, &httpErr):
		return httpErr.status, httpErr.detail
	case errors.As(err, &validErr):
		return http.StatusUnprocessableEntity, validErr.fields
	case errors.As(err, &rangeErr), errors.As(err, &valueErr):
		return http.StatusUnprocessableEntity, queryErrors(err)
	case errors.As(err, &unknownErr):
		return http.StatusUnprocessableEntity, []fieldError{newFieldError(unknownErr.Error(), "query", unknownErr.Name)}
	case errors.Is(err, listquery.ErrInvalidPage):
		return http.StatusUnprocessableEntity, []fieldError{newFieldError(err.Error(), "query")}
	case errors.As(err, &preErr):
		return http.StatusUnprocessableEntity, []fieldError{newFieldError(preErr.Reason, "query", "width")}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Incorrect username or password"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, "Not Authenticated"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, service.ErrAlreadyExists):
		return http.StatusConflict, "Already Exists"
	case errors.Is(err, service.ErrInsufficientPayment):
		return http.StatusBadRequest, "Insufficient payment amount"
	}
	return http.StatusInternalServerError, "Internal Server Error"
}

// queryErrors lists every invalid filter value and start/end violation,
// including those joined together.
func queryErrors(err error) []fieldError {
	switch e := err.(type) {
	case *listquery.RangeValidationError:
		return []fieldError{newFieldError(e.Error(), "query", string(e.Field))}
	case *listquery.InvalidValueError:
		return []fieldError{newFieldError(e.Error(), "query", e.Name)}
	case interface{ Unwrap() []error }:
		var out []fieldError
		for _, inner := range e.Unwrap() {
			out = append(out, queryErrors(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		return queryErrors(e.Unwrap())
	}
	return nil
}
