package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_UnwrapsToSentinel(t *testing.T) {
	var err error = &ValidationError{Fields: map[string]string{"email": "must be a valid email"}}
	wrapped := fmt.Errorf("register: %w", err)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	var ve *ValidationError
	assert.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "must be a valid email", ve.Fields["email"])
}

func TestValidationError_MessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"username": "is required", "email": "is required"}}
	assert.Equal(t, "validation error: email: is required; username: is required", err.Error())
}

func TestUser_ResetCodeFieldsMoveTogether(t *testing.T) {
	u := &User{}
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	u.SetResetCode("012345", exp)
	if assert.NotNil(t, u.ResetCode) && assert.NotNil(t, u.ResetCodeExpiry) {
		assert.Equal(t, "012345", *u.ResetCode)
		assert.Equal(t, exp, *u.ResetCodeExpiry)
	}

	u.ClearResetCode()
	assert.Nil(t, u.ResetCode)
	assert.Nil(t, u.ResetCodeExpiry)
}

func TestUser_PublicOmitsSecrets(t *testing.T) {
	u := &User{UserID: "u1", Username: "alice", Email: "a@x.com", PasswordHash: "hash"}
	assert.Equal(t, PublicUser{ID: "u1", Username: "alice", Email: "a@x.com"}, u.Public())
}

func TestUpstreamError_UnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("forecast: %w", &UpstreamError{Message: "city not found"})

	assert.True(t, errors.Is(err, ErrUpstream))
	var ue *UpstreamError
	assert.True(t, errors.As(err, &ue))
	assert.Equal(t, "city not found", ue.Message)
	assert.Equal(t, "forecast: city not found: upstream error", err.Error())
}
