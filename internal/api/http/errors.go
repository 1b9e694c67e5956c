package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
	"troop-backend/internal/logger"
	"troop-backend/internal/service"
	"troop-backend/internal/webhook"
)

const maxBodyBytes = 64 << 10

var (
	ErrMissingToken      = errors.New("authorization token is not provided")
	ErrInsufficientRole  = errors.New("insufficient role for this endpoint")
	ErrRateLimited       = errors.New("too many requests")
	ErrBadBody           = errors.New("malformed request body")
	ErrLoginNotAvailable = errors.New("password sign-in is not enabled")
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{service.ErrNotAuthorized, http.StatusForbidden, "auth/not-authorized"},
	{ErrInsufficientRole, http.StatusForbidden, "auth/forbidden"},
	{ErrMissingToken, http.StatusUnauthorized, "auth/no-token"},
	{identity.ErrNoSession, http.StatusUnauthorized, "auth/no-session"},
	{identity.ErrExpiredToken, http.StatusUnauthorized, "auth/id-token-expired"},
	{identity.ErrInvalidToken, http.StatusUnauthorized, "auth/invalid-id-token"},
	{identity.ErrInvalidCredentials, http.StatusUnauthorized, "auth/invalid-credential"},
	{identity.ErrEmailExists, http.StatusConflict, "auth/email-already-exists"},
	{ErrLoginNotAvailable, http.StatusNotFound, "auth/login-unavailable"},
	{ErrRateLimited, http.StatusTooManyRequests, "rate-limited"},
	{ErrBadBody, http.StatusBadRequest, "invalid-body"},
	{service.ErrRequestNotFound, http.StatusNotFound, "registration/not-found"},
	{service.ErrInvalidTransition, http.StatusConflict, "registration/not-pending"},
	{service.ErrInvalidRequest, http.StatusBadRequest, "registration/invalid"},
	{service.ErrEmailsNotQueued, http.StatusBadGateway, "email/not-queued"},
	{service.ErrInvalidAccessStatus, http.StatusBadRequest, "user/invalid-access-status"},
	{service.ErrInvalidSettings, http.StatusBadRequest, "settings/invalid"},
	{domain.ErrContactNameRequired, http.StatusBadRequest, "contact/invalid"},
	{webhook.ErrInvalidCalendarOp, http.StatusBadRequest, "calendar/invalid-op"},
	{webhook.ErrCalendarOpFailed, http.StatusBadGateway, "calendar/op-failed"},
	{webhook.ErrNotConfigured, http.StatusServiceUnavailable, "webhook/not-configured"},
	{domain.ErrNotFound, http.StatusNotFound, "not-found"},
	{domain.ErrAlreadyExists, http.StatusConflict, "already-exists"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrPermissionDenied, http.StatusServiceUnavailable, "store/permission-denied"},
}

func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	return nil
}
