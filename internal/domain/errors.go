package domain

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation          = errors.New("validation error")
	ErrDuplicateEmail      = errors.New("duplicate email")
	ErrNotFound            = errors.New("not found")
	ErrEmailNotFound       = errors.New("email_not_found")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrWrongCode           = errors.New("wrong_code")
	ErrExpiredCode         = errors.New("expired_code")
	ErrEmailSend           = errors.New("error_sending_email")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrInvalidToken        = errors.New("invalid token")
	ErrConflict            = errors.New("conflict")
	ErrUpstream            = errors.New("upstream error")
)

// ValidationError carries field-level messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UpstreamError reports a failed call to an external provider. Message is
// safe to show to clients.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string { return e.Message + ": " + ErrUpstream.Error() }

func (e *UpstreamError) Unwrap() error { return ErrUpstream }
