package httpserver

import (
	"net/http"
	"strings"

	"github.com/yndnr/gatekeep/internal/server/httpserver/handler"
	"github.com/yndnr/gatekeep/internal/telemetry/logger"
	"github.com/yndnr/gatekeep/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Handler *handler.Handler

	// Metrics records per-route metrics and serves /metrics. Nil disables
	// both.
	Metrics *metric.Registry

	// Logger for request logging. Nil uses the default logger.
	Logger logger.Logger

	// CORSAllowedOrigins lists origins allowed on the JSON API routes.
	// Empty disables CORS there. /api/vault-check sets its own headers.
	CORSAllowedOrigins []string

	// TrustProxy takes the client IP from X-Forwarded-For and X-Real-IP.
	TrustProxy bool
}

// NewRouter creates the HTTP router with all routes and middleware.
//
// Order: WithLogger -> RequestID -> ClientIP -> Audit -> Metrics -> Recover -> CORS -> route.
func NewRouter(cfg *RouterConfig) http.Handler {
	h := cfg.Handler
	if h == nil {
		h = handler.New(handler.Config{})
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	mux := http.NewServeMux()
	for _, rt := range h.Routes() {
		middlewares := []Middleware{
			WithLogger(log),
			RequestID(),
			ClientIP(cfg.TrustProxy),
			Audit(),
		}
		if cfg.Metrics != nil {
			middlewares = append(middlewares, Metrics(cfg.Metrics, rt.Name))
		}
		middlewares = append(middlewares, Recover())
		if len(cfg.CORSAllowedOrigins) > 0 && strings.HasPrefix(rt.Pattern, "/api/") && rt.Name != "vault_check" {
			middlewares = append(middlewares, CORS(cfg.CORSAllowedOrigins))
		}

		mux.Handle(rt.Pattern, Chain(rt.Handler, middlewares...))
	}

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), WithLogger(log), RequestID(), Recover()))
	}

	return mux
}
