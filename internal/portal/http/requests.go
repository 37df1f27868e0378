package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nimbushost/vps-portal/internal/portal/domain"
	"github.com/nimbushost/vps-portal/internal/portal/service"
	"github.com/nimbushost/vps-portal/pkg/httpx"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type registerRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	Phone           string `json:"phone" validate:"omitempty,max=32"`
	// AcceptTerms must be true; required rejects the zero value.
	AcceptTerms bool `json:"acceptTerms" validate:"required"`
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// RememberMe extends the refresh horizon of the opened session.
	RememberMe bool `json:"rememberMe"`
}

type verifyTwoFactorRequest struct {
	TempToken string `json:"tempToken" validate:"required"`
	Code      string `json:"token" validate:"required,len=6,numeric"`
}

type twoFactorCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type quoteRequest struct {
	Config domain.PlanConfig `json:"config" validate:"required"`
}

// decode parses and validates a JSON request body. The returned error is
// ready to write.
func decode(r *http.Request, dst any) *httpx.APIError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return httpx.ValidationError("invalid JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		return httpx.ValidationError(fieldError(err))
	}
	return nil
}

// fieldError renders the first failed validation as a client-facing message.
func fieldError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be numeric", field)
	case "eqfield":
		param := strings.ToLower(fe.Param()[:1]) + fe.Param()[1:]
		return fmt.Sprintf("%s must match %s", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// clientInfo captures the request metadata recorded on sessions and audit
// entries.
func clientInfo(r *http.Request) service.ClientInfo {
	return service.ClientInfo{
		IPAddress: httpx.IPKey(r),
		UserAgent: r.UserAgent(),
	}
}
