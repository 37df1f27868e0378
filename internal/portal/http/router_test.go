package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/nimbushost/vps-portal/internal/portal/service"
	"github.com/nimbushost/vps-portal/internal/portal/store/drivers/sqlite"
)

// captureMailer records the last verification token instead of sending mail.
type captureMailer struct {
	token string
}

func (m *captureMailer) SendVerificationEmail(_ context.Context, _, _, token string) error {
	m.token = token
	return nil
}

type testPortal struct {
	router *Router
	mailer *captureMailer
}

func newTestPortal(t *testing.T) *testPortal {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	tokens := service.NewTokenService(
		[]byte("access-secret-0123456789abcdef-0123456789abcdef"),
		[]byte("refresh-secret-0123456789abcdef-0123456789abcdef"),
		"portal-test",
	)
	mailer := &captureMailer{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter("test", st, logger)
	router.TokenService = tokens
	router.AuthService = &service.AuthService{Store: st, Tokens: tokens}
	router.AccountService = &service.AccountService{Store: st, Tokens: tokens, Mailer: mailer}
	router.TwoFactorService = &service.TwoFactorService{Store: st, Tokens: tokens}
	router.PricingService = service.NewPricingService()
	router.ApplyRoutes()

	return &testPortal{router: router, mailer: mailer}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *testPortal) do(t *testing.T, method, path, bearer string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.7:4242"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)

	var env envelope
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec.Code, env
}

func unmarshalData[T any](t *testing.T, env envelope) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type tokensData struct {
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
}

func (p *testPortal) registerVerified(t *testing.T, email, password string) {
	t.Helper()

	code, _ := p.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":           email,
		"password":        password,
		"confirmPassword": password,
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"acceptTerms":     true,
	})
	require.Equal(t, http.StatusCreated, code)

	code, _ = p.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"token": p.mailer.token,
	})
	require.Equal(t, http.StatusOK, code)
}

func (p *testPortal) login(t *testing.T, email, password string) tokensData {
	t.Helper()

	code, env := p.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, code)
	return unmarshalData[tokensData](t, env)
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	p := newTestPortal(t)

	code, env := p.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":           "ada@example.com",
		"password":        "correct horse battery",
		"confirmPassword": "correct horse battery",
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"acceptTerms":     true,
	})
	require.Equal(t, http.StatusCreated, code)
	require.True(t, env.Success)

	// Logging in before verification is refused with the correct
	// credentials.
	code, env = p.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusForbidden, code)
	require.False(t, env.Success)

	code, _ = p.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"token": p.mailer.token,
	})
	require.Equal(t, http.StatusOK, code)

	tokens := p.login(t, "ada@example.com", "correct horse battery")
	require.NotEmpty(t, tokens.Tokens.AccessToken)
	require.NotEmpty(t, tokens.Tokens.RefreshToken)

	code, env = p.do(t, http.MethodGet, "/api/auth/profile", tokens.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(env.Data), "ada@example.com")
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	p := newTestPortal(t)

	body := map[string]any{
		"email":           "ada@example.com",
		"password":        "correct horse battery",
		"confirmPassword": "correct horse battery",
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"acceptTerms":     true,
	}
	code, _ := p.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, code)

	code, env := p.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusConflict, code)
	require.False(t, env.Success)
}

func TestRegisterValidation(t *testing.T) {
	p := newTestPortal(t)

	code, env := p.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":           "not-an-email",
		"password":        "correct horse battery",
		"confirmPassword": "correct horse battery",
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"acceptTerms":     true,
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.False(t, env.Success)
	require.Contains(t, env.Message, "email")
}

func TestRegisterMismatchedConfirmPassword(t *testing.T) {
	p := newTestPortal(t)

	code, env := p.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":           "ada@example.com",
		"password":        "correct horse battery",
		"confirmPassword": "completely different",
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"acceptTerms":     true,
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.False(t, env.Success)
	require.Contains(t, env.Message, "confirmPassword")
}

func TestRegisterRequiresAcceptedTerms(t *testing.T) {
	p := newTestPortal(t)

	code, env := p.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":           "ada@example.com",
		"password":        "correct horse battery",
		"confirmPassword": "correct horse battery",
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"acceptTerms":     false,
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.False(t, env.Success)
	require.Contains(t, env.Message, "acceptTerms")
}

func TestLoginReportsSecondFactorState(t *testing.T) {
	p := newTestPortal(t)
	p.registerVerified(t, "ada@example.com", "correct horse battery")

	code, env := p.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":      "ada@example.com",
		"password":   "correct horse battery",
		"rememberMe": true,
	})
	require.Equal(t, http.StatusOK, code)

	data := unmarshalData[struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Requires2FA *bool `json:"requires2FA"`
	}](t, env)
	require.Equal(t, "ada@example.com", data.User.Email)
	require.NotNil(t, data.Requires2FA)
	require.False(t, *data.Requires2FA)
}

func TestLoginWrongPasswordUnauthorized(t *testing.T) {
	p := newTestPortal(t)
	p.registerVerified(t, "ada@example.com", "correct horse battery")

	code, env := p.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong password",
	})
	require.Equal(t, http.StatusUnauthorized, code)
	require.False(t, env.Success)
}

func TestProfileRequiresToken(t *testing.T) {
	p := newTestPortal(t)

	code, _ := p.do(t, http.MethodGet, "/api/auth/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestProfileRejectsRefreshToken(t *testing.T) {
	p := newTestPortal(t)
	p.registerVerified(t, "ada@example.com", "correct horse battery")
	tokens := p.login(t, "ada@example.com", "correct horse battery")

	code, _ := p.do(t, http.MethodGet, "/api/auth/profile", tokens.Tokens.RefreshToken, nil)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	p := newTestPortal(t)
	p.registerVerified(t, "ada@example.com", "correct horse battery")
	tokens := p.login(t, "ada@example.com", "correct horse battery")

	code, env := p.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{
		"refreshToken": tokens.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, code)
	rotated := unmarshalData[tokensData](t, env)
	require.NotEqual(t, tokens.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	// Replaying the consumed refresh token is a 401.
	code, env = p.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{
		"refreshToken": tokens.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, code)
	require.False(t, env.Success)
}

func TestLogoutOverHTTP(t *testing.T) {
	p := newTestPortal(t)
	p.registerVerified(t, "ada@example.com", "correct horse battery")
	tokens := p.login(t, "ada@example.com", "correct horse battery")

	code, _ := p.do(t, http.MethodPost, "/api/auth/logout", tokens.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)

	// The refresh token died with the session.
	code, _ = p.do(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{
		"refreshToken": tokens.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestTwoFactorFlowOverHTTP(t *testing.T) {
	p := newTestPortal(t)
	p.registerVerified(t, "ada@example.com", "correct horse battery")
	tokens := p.login(t, "ada@example.com", "correct horse battery")

	code, env := p.do(t, http.MethodPost, "/api/auth/2fa/enroll", tokens.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	enrollment := unmarshalData[struct {
		Secret string `json:"secret"`
		URI    string `json:"uri"`
	}](t, env)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.URI, "otpauth://")

	confirmCode, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	code, _ = p.do(t, http.MethodPost, "/api/auth/2fa/confirm", tokens.Tokens.AccessToken, map[string]string{
		"code": confirmCode,
	})
	require.Equal(t, http.StatusOK, code)

	// Login now answers with a challenge instead of tokens.
	code, env = p.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, code)
	challenge := unmarshalData[struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Requires2FA bool   `json:"requires2FA"`
		TempToken   string `json:"tempToken"`
	}](t, env)
	require.True(t, challenge.Requires2FA)
	require.NotEmpty(t, challenge.TempToken)
	require.Equal(t, "ada@example.com", challenge.User.Email)

	loginCode, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	code, env = p.do(t, http.MethodPost, "/api/auth/verify-2fa", "", map[string]string{
		"tempToken": challenge.TempToken,
		"token":     loginCode,
	})
	require.Equal(t, http.StatusOK, code)
	final := unmarshalData[tokensData](t, env)
	require.NotEmpty(t, final.Tokens.AccessToken)
}

func TestVerifyTwoFactorWrongCode(t *testing.T) {
	p := newTestPortal(t)
	p.registerVerified(t, "ada@example.com", "correct horse battery")
	tokens := p.login(t, "ada@example.com", "correct horse battery")

	code, env := p.do(t, http.MethodPost, "/api/auth/2fa/enroll", tokens.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	enrollment := unmarshalData[struct {
		Secret string `json:"secret"`
	}](t, env)

	confirmCode, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	code, _ = p.do(t, http.MethodPost, "/api/auth/2fa/confirm", tokens.Tokens.AccessToken, map[string]string{
		"code": confirmCode,
	})
	require.Equal(t, http.StatusOK, code)

	code, env = p.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, code)
	challenge := unmarshalData[struct {
		TempToken string `json:"tempToken"`
	}](t, env)

	code, env = p.do(t, http.MethodPost, "/api/auth/verify-2fa", "", map[string]string{
		"tempToken": challenge.TempToken,
		"token":     "000000",
	})
	require.Equal(t, http.StatusUnauthorized, code)
	require.False(t, env.Success)
}

func TestQuoteEndpoint(t *testing.T) {
	p := newTestPortal(t)

	code, env := p.do(t, http.MethodPost, "/api/pricing/quote", "", map[string]any{
		"config": map[string]int{
			"cpuCores":    2,
			"memoryGb":    4,
			"storageGb":   80,
			"bandwidthTb": 5,
		},
	})
	require.Equal(t, http.StatusOK, code)

	quote := unmarshalData[struct {
		Quote struct {
			MonthlyCents int64 `json:"monthlyCents"`
		} `json:"quote"`
	}](t, env)
	require.Equal(t, int64(3200), quote.Quote.MonthlyCents)
}

func TestQuoteRejectsOutOfRange(t *testing.T) {
	p := newTestPortal(t)

	code, env := p.do(t, http.MethodPost, "/api/pricing/quote", "", map[string]any{
		"config": map[string]int{
			"cpuCores":    1000,
			"memoryGb":    4,
			"storageGb":   80,
			"bandwidthTb": 5,
		},
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.False(t, env.Success)
}

func TestHealthEndpoints(t *testing.T) {
	p := newTestPortal(t)

	code, _ := p.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = p.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, code)
}

func TestMetricsEndpoint(t *testing.T) {
	p := newTestPortal(t)
	p.registerVerified(t, "ada@example.com", "correct horse battery")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "portal_registrations_total")
}

func TestLoginRateLimit(t *testing.T) {
	p := newTestPortal(t)

	body := map[string]string{"email": "ghost@example.com", "password": "whatever password"}
	for i := 0; i < 5; i++ {
		code, _ := p.do(t, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, code)
	}

	code, env := p.do(t, http.MethodPost, "/api/auth/login", "", body)
	require.Equal(t, http.StatusTooManyRequests, code)
	require.False(t, env.Success)
}
