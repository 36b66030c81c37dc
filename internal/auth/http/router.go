package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/outta-ai/outta-auth/internal/auth/metrics"
	"github.com/outta-ai/outta-auth/internal/auth/provider"
	"github.com/outta-ai/outta-auth/internal/auth/service"
	"github.com/outta-ai/outta-auth/internal/auth/store"
	"github.com/outta-ai/outta-auth/pkg/httpx"
	"github.com/outta-ai/outta-auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	providers    *provider.Registry
	sessions     *service.SessionService
	store        store.Store
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	// Optional, set before ApplyRoutes.
	Metrics        *metrics.Metrics
	SecureCookies  bool
	AllowedOrigins []string
	RateLimits     httpx.RateLimits
}

func NewRouter(
	providers *provider.Registry,
	sessions *service.SessionService,
	st store.Store,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		providers:    providers,
		sessions:     sessions,
		store:        st,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		RateLimits:   httpx.DefaultRateLimits(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerSystem()

	if len(r.AllowedOrigins) > 0 {
		r.middlewares = append(r.middlewares, httpx.CORS(r.AllowedOrigins))
	}

	// Metrics wraps the mux itself so it can read the matched pattern.
	r.handler = httpx.Chain(r.Metrics.Middleware(r.Mux), r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Providers:     r.providers,
		Sessions:      r.sessions,
		Metrics:       r.Metrics,
		SecureCookies: r.SecureCookies,
	}

	// Literal segments win over {provider}, so refresh and logout never
	// reach the provider dispatch.
	r.Mux.Handle("GET /outta/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.RateLimits.Strict),
		),
	)
	r.Mux.Handle("POST /outta/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(r.RateLimits.Moderate),
		),
	)

	r.Mux.Handle("POST /outta/auth/{provider}",
		httpx.Chain(http.HandlerFunc(h.HandleSignIn),
			httpx.RateLimitByIP(r.RateLimits.Strict),
		),
	)
	r.Mux.Handle("GET /outta/auth/{provider}/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(r.RateLimits.Moderate),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserHandler{}

	secured := httpx.Chain(h,
		httpx.CookieAuthn(provider.CookieAccessToken, r.sessions.Verifier()),
		httpx.RateLimitByMember(r.RateLimits.Lenient),
	)

	r.Mux.Handle("GET /outta/user/me", secured)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.RateLimits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.providers),
			httpx.RateLimitByIP(r.RateLimits.Lenient),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}
