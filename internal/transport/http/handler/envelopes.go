package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-weather-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// UserEnvelope wraps register and lookup responses.
type UserEnvelope struct {
	Message string            `json:"message"`
	User    domain.PublicUser `json:"user"`
}

// LoginEnvelope wraps a successful login.
type LoginEnvelope struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
}

// WeatherErrorEnvelope keeps the {"error", "message"} shape weather clients expect.
type WeatherErrorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

var errorStatus = []struct {
	err    error
	status int
	msg    string
}{
	{domain.ErrDuplicateEmail, http.StatusBadRequest, "email already exists"},
	{domain.ErrEmailNotFound, http.StatusNotFound, "email_not_found"},
	{domain.ErrNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{domain.ErrEmailNotVerified, http.StatusUnauthorized, "please confirm your email first"},
	{domain.ErrWrongCode, http.StatusBadRequest, "wrong_code"},
	{domain.ErrExpiredCode, http.StatusBadRequest, "expired_code"},
	{domain.ErrEmailSend, http.StatusInternalServerError, "error_sending_email"},
	{domain.ErrConflict, http.StatusConflict, "record changed concurrently, retry"},
}

// httpError maps service errors onto status codes. Unknown errors are logged in
// full and answered with a generic 500.
func httpError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Message: "validation error", Errors: ve.Fields})
		return
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				slog.ErrorContext(r.Context(), "request failed", "op", op, "error", err)
			}
			writeError(w, e.status, e.msg)
			return
		}
	}
	slog.ErrorContext(r.Context(), "request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
