package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nimbushost/vps-portal/internal/portal/service"
	"github.com/nimbushost/vps-portal/internal/portal/store"
	"github.com/nimbushost/vps-portal/pkg/httpx"
	"github.com/nimbushost/vps-portal/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	metrics *Metrics

	TokenService     *service.TokenService
	AuthService      *service.AuthService
	AccountService   *service.AccountService
	TwoFactorService *service.TwoFactorService
	PricingService   *service.PricingService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		metrics:      NewMetrics(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ApplyRoutes mounts every endpoint. Call after the service fields are set.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTwoFactor()
	r.registerPricing()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	requireAuth := httpx.RequireAuth(r.TokenService.AccessVerifier(), r.AccountService)

	registerHandler := &RegisterHandler{Accounts: r.AccountService, Metrics: r.metrics}
	loginHandler := &LoginHandler{Auth: r.AuthService, Metrics: r.metrics}
	sessionHandler := &SessionHandler{Auth: r.AuthService, Metrics: r.metrics}
	profileHandler := &ProfileHandler{Accounts: r.AccountService}

	// Public signup and credential endpoints get the strict per-IP limit to
	// blunt brute force and enumeration.
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(registerHandler.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/verify-email",
		httpx.Chain(http.HandlerFunc(registerHandler.HandleVerifyEmail),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/verify-2fa",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleVerifyTwoFactor),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/refresh-token",
		httpx.Chain(http.HandlerFunc(sessionHandler.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(sessionHandler.HandleLogout),
			requireAuth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /api/auth/profile",
		httpx.Chain(http.HandlerFunc(profileHandler.HandleProfile),
			requireAuth,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerTwoFactor() {
	requireAuth := httpx.RequireAuth(r.TokenService.AccessVerifier(), r.AccountService)

	h := &TwoFactorHandler{TwoFactor: r.TwoFactorService}

	r.Mux.Handle("POST /api/auth/2fa/enroll",
		httpx.Chain(http.HandlerFunc(h.HandleEnroll),
			requireAuth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Code-checking endpoints get the strict limit to stop TOTP brute force.
	r.Mux.Handle("POST /api/auth/2fa/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			requireAuth,
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/2fa/disable",
		httpx.Chain(http.HandlerFunc(h.HandleDisable),
			requireAuth,
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPricing() {
	h := &PricingHandler{Pricing: r.PricingService, Metrics: r.metrics}

	// Quoting is public; an identity is attached when present so quotes
	// show up against the caller in the request log.
	r.Mux.Handle("POST /api/pricing/quote",
		httpx.Chain(http.HandlerFunc(h.HandleQuote),
			httpx.OptionalAuth(r.TokenService.AccessVerifier(), r.AccountService),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics",
		promhttp.HandlerFor(r.metrics.Registry, promhttp.HandlerOpts{}),
	)
}
