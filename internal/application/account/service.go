package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-weather-auth/internal/domain"
	"github.com/go-weather-auth/internal/pkg/id"
	"github.com/go-weather-auth/internal/pkg/resetcode"
	"github.com/go-weather-auth/internal/pkg/validate"
)

// redacted stands in for reset codes and passwords in log lines.
const redacted = "******"

// UserStore is satisfied by the dynamo and memory repos.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type CodeGenerator interface {
	Generate(now time.Time) (string, time.Time, error)
}

type Notifier interface {
	SendVerification(ctx context.Context, u *domain.User) error
	SendResetCode(ctx context.Context, email, code string) error
}

// VerifyOutcome distinguishes a fresh verification from a repeated one.
type VerifyOutcome int

const (
	Verified VerifyOutcome = iota
	AlreadyVerified
)

type LoginResult struct {
	Token string
	User  domain.PublicUser
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (domain.PublicUser, error)
	VerifyEmail(ctx context.Context, userID string) (VerifyOutcome, error)
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
	ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	GetByID(ctx context.Context, userID string) (domain.PublicUser, error)
}

type service struct {
	users    UserStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	codes    CodeGenerator
	notifier Notifier
	now      func() time.Time
	dispatch func(func())
}

type Option func(*service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithDispatcher overrides how the post-registration email is launched.
// The default runs it on its own goroutine.
func WithDispatcher(d func(func())) Option {
	return func(s *service) { s.dispatch = d }
}

func NewService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, codes CodeGenerator, notifier Notifier, opts ...Option) Service {
	s := &service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		codes:    codes,
		notifier: notifier,
		now:      time.Now,
		dispatch: func(f func()) { go f() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (pub domain.PublicUser, err error) {
	defer func() { observe("register", err) }()

	if err := validate.Struct(req); err != nil {
		return domain.PublicUser{}, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return domain.PublicUser{}, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return domain.PublicUser{}, err
	}
	slog.InfoContext(ctx, "user registered", "op", "account.register", "user_id", u.UserID, "email", u.Email)

	// The response does not wait for the mail server.
	recipient := *u
	bg := context.WithoutCancel(ctx)
	s.dispatch(func() {
		if err := s.notifier.SendVerification(bg, &recipient); err != nil {
			slog.ErrorContext(bg, "verification email failed", "op", "account.register", "user_id", recipient.UserID, "email", recipient.Email, "error", err)
		}
	})
	return u.Public(), nil
}

func (s *service) VerifyEmail(ctx context.Context, userID string) (out VerifyOutcome, err error) {
	defer func() { observe("verify_email", err) }()

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u.EmailVerified {
		return AlreadyVerified, nil
	}
	u.EmailVerified = true
	if err := s.users.Update(ctx, u); err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "email verified", "op", "account.verify_email", "user_id", u.UserID)
	return Verified, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (res *LoginResult, err error) {
	defer func() { observe("login", err) }()

	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		slog.InfoContext(ctx, "login rejected", "op", "account.login", "email", req.Email, "reason", "unknown_email")
		return nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(req.Password, u.PasswordHash) {
		slog.InfoContext(ctx, "login rejected", "op", "account.login", "user_id", u.UserID, "reason", "bad_password")
		return nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}
	if !u.EmailVerified {
		return nil, fmt.Errorf("login %s: %w", u.UserID, domain.ErrEmailNotVerified)
	}
	token, err := s.tokens.Issue(u.UserID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	slog.InfoContext(ctx, "login succeeded", "op", "account.login", "user_id", u.UserID)
	return &LoginResult{Token: token, User: u.Public()}, nil
}

func (s *service) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) (err error) {
	defer func() { observe("forgot_password", err) }()

	if err := validate.Struct(req); err != nil {
		return err
	}
	u, err := s.lookupEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	code, expiry, err := s.codes.Generate(s.now().UTC())
	if err != nil {
		return err
	}
	u.SetResetCode(code, expiry)
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	slog.InfoContext(ctx, "reset code issued", "op", "account.forgot_password", "user_id", u.UserID, "code", redacted, "expires", expiry)

	if err := s.notifier.SendResetCode(ctx, u.Email, code); err != nil {
		slog.ErrorContext(ctx, "reset code email failed", "op", "account.forgot_password", "user_id", u.UserID, "email", u.Email, "error", err)
		return fmt.Errorf("send reset code: %w", domain.ErrEmailSend)
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) (err error) {
	defer func() { observe("reset_password", err) }()

	if err := validate.Struct(req); err != nil {
		return err
	}
	u, err := s.lookupEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	switch resetcode.Check(u, req.Code, s.now().UTC()) {
	case resetcode.WrongCode:
		slog.InfoContext(ctx, "reset rejected", "op", "account.reset_password", "user_id", u.UserID, "code", redacted, "reason", "wrong_code")
		return fmt.Errorf("reset password: %w", domain.ErrWrongCode)
	case resetcode.Expired:
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		slog.InfoContext(ctx, "reset rejected", "op", "account.reset_password", "user_id", u.UserID, "code", redacted, "reason", "expired_code")
		return fmt.Errorf("reset password: %w", domain.ErrExpiredCode)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.ClearResetCode()
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	slog.InfoContext(ctx, "password reset", "op", "account.reset_password", "user_id", u.UserID)
	return nil
}

func (s *service) GetByID(ctx context.Context, userID string) (domain.PublicUser, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.PublicUser{}, err
	}
	return u.Public(), nil
}

// lookupEmail maps a missing user onto ErrEmailNotFound.
func (s *service) lookupEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", email, domain.ErrEmailNotFound)
	}
	return u, err
}
