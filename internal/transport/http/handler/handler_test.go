package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-weather-auth/internal/application/account"
	"github.com/go-weather-auth/internal/domain"
)

// --- mocks ---

type mockAccount struct{ mock.Mock }

func (m *mockAccount) Register(ctx context.Context, req domain.RegisterRequest) (domain.PublicUser, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.PublicUser), args.Error(1)
}
func (m *mockAccount) VerifyEmail(ctx context.Context, userID string) (account.VerifyOutcome, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(account.VerifyOutcome), args.Error(1)
}
func (m *mockAccount) Login(ctx context.Context, req domain.LoginRequest) (*account.LoginResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*account.LoginResult)
	return res, args.Error(1)
}
func (m *mockAccount) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAccount) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAccount) GetByID(ctx context.Context, userID string) (domain.PublicUser, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.PublicUser), args.Error(1)
}

type mockWeather struct{ mock.Mock }

func (m *mockWeather) ForCity(ctx context.Context, city string) (*domain.Weather, error) {
	args := m.Called(ctx, city)
	w, _ := args.Get(0).(*domain.Weather)
	return w, args.Error(1)
}

// --- helpers ---

func do(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

var ana = domain.PublicUser{ID: "u1", Username: "ana", Email: "ana@example.com"}

// --- users ---

func TestRegister_Created(t *testing.T) {
	svc := new(mockAccount)
	svc.On("Register", mock.Anything, domain.RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secret1"}).
		Return(ana, nil)

	rr := do(NewUserHandler(svc).Register, http.MethodPost, "/api/register",
		`{"username":"ana","email":"ana@example.com","password":"secret1"}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "user registered successfully", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "u1", user["id"])
	assert.NotContains(t, user, "password")
}

func TestRegister_Duplicate(t *testing.T) {
	svc := new(mockAccount)
	svc.On("Register", mock.Anything, mock.Anything).
		Return(domain.PublicUser{}, fmt.Errorf("x: %w", domain.ErrDuplicateEmail))

	rr := do(NewUserHandler(svc).Register, http.MethodPost, "/api/register", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "email already exists", decodeBody(t, rr)["message"])
}

func TestRegister_ValidationFields(t *testing.T) {
	svc := new(mockAccount)
	svc.On("Register", mock.Anything, mock.Anything).
		Return(domain.PublicUser{}, &domain.ValidationError{Fields: map[string]string{"email": "is required"}})

	rr := do(NewUserHandler(svc).Register, http.MethodPost, "/api/register", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "validation error", body["message"])
	assert.Equal(t, map[string]interface{}{"email": "is required"}, body["errors"])
}

func TestRegister_BadJSON(t *testing.T) {
	rr := do(NewUserHandler(new(mockAccount)).Register, http.MethodPost, "/api/register", `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_Created(t *testing.T) {
	svc := new(mockAccount)
	svc.On("Login", mock.Anything, domain.LoginRequest{Email: "ana@example.com", Password: "secret1"}).
		Return(&account.LoginResult{Token: "tok", User: ana}, nil)

	rr := do(NewUserHandler(svc).Login, http.MethodPost, "/api/login", `{"email":"ana@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "tok", decodeBody(t, rr)["token"])
}

func TestLogin_FailuresAreIdentical(t *testing.T) {
	svc := new(mockAccount)
	svc.On("Login", mock.Anything, domain.LoginRequest{Email: "ghost@example.com", Password: "x"}).
		Return(nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials))
	svc.On("Login", mock.Anything, domain.LoginRequest{Email: "ana@example.com", Password: "x"}).
		Return(nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials))
	h := NewUserHandler(svc)

	a := do(h.Login, http.MethodPost, "/api/login", `{"email":"ghost@example.com","password":"x"}`)
	b := do(h.Login, http.MethodPost, "/api/login", `{"email":"ana@example.com","password":"x"}`)

	assert.Equal(t, http.StatusUnauthorized, a.Code)
	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Body.String(), b.Body.String())
}

func TestLogin_Unverified(t *testing.T) {
	svc := new(mockAccount)
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("x: %w", domain.ErrEmailNotVerified))

	rr := do(NewUserHandler(svc).Login, http.MethodPost, "/api/login", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "please confirm your email first", decodeBody(t, rr)["message"])
}

func TestGetUser(t *testing.T) {
	svc := new(mockAccount)
	svc.On("GetByID", mock.Anything, "u1").Return(ana, nil)
	svc.On("GetByID", mock.Anything, "nope").Return(domain.PublicUser{}, fmt.Errorf("x: %w", domain.ErrNotFound))

	r := chi.NewRouter()
	r.Get("/api/users/{id}", NewUserHandler(svc).Get)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/u1", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user found", decodeBody(t, rr)["message"])

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHTTPError_UnknownIsGeneric(t *testing.T) {
	svc := new(mockAccount)
	svc.On("GetByID", mock.Anything, "").Return(domain.PublicUser{}, fmt.Errorf("dynamodb: connection reset by peer"))

	rr := do(NewUserHandler(svc).Get, http.MethodGet, "/api/users/", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", decodeBody(t, rr)["message"])
	assert.NotContains(t, rr.Body.String(), "dynamodb")
}

// --- password recovery ---

func TestForgot(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"ok", nil, http.StatusOK, "email sent"},
		{"unknown", fmt.Errorf("x: %w", domain.ErrEmailNotFound), http.StatusNotFound, "email_not_found"},
		{"send failure", fmt.Errorf("x: %w", domain.ErrEmailSend), http.StatusInternalServerError, "error_sending_email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockAccount)
			svc.On("ForgotPassword", mock.Anything, domain.ForgotPasswordRequest{Email: "ana@example.com"}).Return(tc.err)

			rr := do(NewPasswordRecoveryHandler(svc).Forgot, http.MethodPost, "/api/forgot-password", `{"email":"ana@example.com"}`)
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.msg, decodeBody(t, rr)["message"])
		})
	}
}

func TestReset(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"ok", nil, http.StatusOK, "password updated"},
		{"unknown", fmt.Errorf("x: %w", domain.ErrEmailNotFound), http.StatusNotFound, "email_not_found"},
		{"wrong", fmt.Errorf("x: %w", domain.ErrWrongCode), http.StatusBadRequest, "wrong_code"},
		{"expired", fmt.Errorf("x: %w", domain.ErrExpiredCode), http.StatusBadRequest, "expired_code"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockAccount)
			want := domain.ResetPasswordRequest{Email: "ana@example.com", Code: "123456", NewPassword: "newpass1"}
			svc.On("ResetPassword", mock.Anything, want).Return(tc.err)

			rr := do(NewPasswordRecoveryHandler(svc).Reset, http.MethodPost, "/api/reset-password",
				`{"email":"ana@example.com","code":"123456","newPassword":"newpass1"}`)
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.msg, decodeBody(t, rr)["message"])
		})
	}
}

// --- email confirmation ---

func TestVerifyEmail_Pages(t *testing.T) {
	svc := new(mockAccount)
	svc.On("VerifyEmail", mock.Anything, "u1").Return(account.Verified, nil)
	svc.On("VerifyEmail", mock.Anything, "u2").Return(account.AlreadyVerified, nil)
	svc.On("VerifyEmail", mock.Anything, "u3").Return(account.Verified, fmt.Errorf("x: %w", domain.ErrNotFound))
	h := NewEmailConfirmHandler(svc, "http://front.test")

	rr := do(h.Verify, http.MethodGet, "/api/verify-email?userId=u1", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), `content="3; url=http://front.test"`)
	assert.Contains(t, rr.Body.String(), "User verified successfully")

	rr = do(h.Verify, http.MethodGet, "/api/verify-email?userId=u2", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `content="1; url=http://front.test"`)
	assert.Contains(t, rr.Body.String(), "Verification not needed")

	rr = do(h.Verify, http.MethodGet, "/api/verify-email?userId=u3", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- weather ---

func TestWeather_MissingCity(t *testing.T) {
	rr := do(NewWeatherHandler(new(mockWeather)).Get, http.MethodGet, "/api/weather", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "City parameter is required and must be a string", decodeBody(t, rr)["error"])
}

func TestWeather_OK(t *testing.T) {
	svc := new(mockWeather)
	svc.On("ForCity", mock.Anything, "Lima").Return(&domain.Weather{Location: "Lima", WindSpeed: 15}, nil)

	rr := do(NewWeatherHandler(svc).Get, http.MethodGet, "/api/weather?city=Lima", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Lima", body["location"])
	assert.Equal(t, float64(15), body["windSpeed"])
}

func TestWeather_UpstreamMessage(t *testing.T) {
	svc := new(mockWeather)
	svc.On("ForCity", mock.Anything, "Atlantis").
		Return(nil, fmt.Errorf("current: %w", &domain.UpstreamError{Message: "city not found"}))

	rr := do(NewWeatherHandler(svc).Get, http.MethodGet, "/api/weather?city=Atlantis", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Error fetching weather data", body["error"])
	assert.Equal(t, "city not found", body["message"])
}

// --- health ---

func TestHealthPing(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/health-check/{action}", NewHealthHandler().Ping)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health-check/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", decodeBody(t, rr)["message"])

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health-check/other", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
