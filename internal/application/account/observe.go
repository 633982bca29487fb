package account

import (
	"errors"

	"github.com/go-weather-auth/internal/domain"
	"github.com/go-weather-auth/internal/metrics"
)

var outcomes = []struct {
	err    error
	reason string
}{
	{domain.ErrValidation, "validation"},
	{domain.ErrDuplicateEmail, "duplicate_email"},
	{domain.ErrEmailNotFound, "email_not_found"},
	{domain.ErrNotFound, "not_found"},
	{domain.ErrInvalidCredentials, "invalid_credentials"},
	{domain.ErrEmailNotVerified, "email_not_verified"},
	{domain.ErrWrongCode, "wrong_code"},
	{domain.ErrExpiredCode, "expired_code"},
	{domain.ErrEmailSend, "email_send"},
	{domain.ErrConflict, "conflict"},
}

func observe(op string, err error) {
	metrics.AuthEventsTotal.WithLabelValues(op, reason(err)).Inc()
}

func reason(err error) string {
	if err == nil {
		return "ok"
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.reason
		}
	}
	return "error"
}
