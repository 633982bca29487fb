package domain

import "time"

// User is the persisted identity record. PasswordHash and the reset fields never
// leave the service; handlers render PublicUser instead.
type User struct {
	UserID          string     `dynamodbav:"user_id"`
	Username        string     `dynamodbav:"username"`
	Email           string     `dynamodbav:"email"`
	PasswordHash    string     `dynamodbav:"password_hash"`
	EmailVerified   bool       `dynamodbav:"email_verified"`
	ResetCode       *string    `dynamodbav:"reset_code"`
	ResetCodeExpiry *time.Time `dynamodbav:"reset_code_expiry"`
	Version         int64      `dynamodbav:"version"`
	CreatedAt       time.Time  `dynamodbav:"created_at"`
	UpdatedAt       time.Time  `dynamodbav:"updated_at"`
}

// PublicUser is the subset of User safe to return to clients.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.UserID, Username: u.Username, Email: u.Email}
}

// SetResetCode stores a reset code together with its expiry.
func (u *User) SetResetCode(code string, expiry time.Time) {
	u.ResetCode = &code
	e := expiry
	u.ResetCodeExpiry = &e
}

// ClearResetCode drops both reset fields.
func (u *User) ClearResetCode() {
	u.ResetCode = nil
	u.ResetCodeExpiry = nil
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,bcryptlen"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,bcryptlen"`
}
