package gateway

import (
	"context"
	"net/http"

	"github.com/brokeradda/portal/internal/gateway/middleware"
	auth_http "github.com/brokeradda/portal/internal/modules/auth/interfaces/http"
	notification_http "github.com/brokeradda/portal/internal/modules/notification/interfaces/http"
	"github.com/brokeradda/portal/internal/shared/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthHandler    *auth_http.AuthHandler
	ToastHandler   *notification_http.ToastHandler
	ClientIdentity *middleware.ClientIdentity
	Metrics        *middleware.HTTPMetrics
	// MetricsHandler serves /metrics; nil uses the default gatherer.
	MetricsHandler http.Handler
	// HealthCheck reports a dependency failure as 503 on /health.
	HealthCheck    func(ctx context.Context) error
	AllowedOrigins string
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) http.Handler {
	identity := config.ClientIdentity
	if identity == nil {
		identity = middleware.NewClientIdentity(0, false)
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = middleware.NewHTTPMetrics(nil)
	}

	router := NewRouter(
		metrics.Instrument,
		func(_ string, next http.Handler) http.Handler { return identity.Identify(next) },
	)
	handle := router.Route

	// Health Check
	router.Handle("GET /health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if config.HealthCheck != nil {
			if err := config.HealthCheck(r.Context()); err != nil {
				utils.WriteError(w, http.StatusServiceUnavailable, "unhealthy", err)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))

	// Prometheus Metrics Endpoint
	metricsHandler := config.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.Handle("GET /metrics", metricsHandler)

	// OTP Flow Routes
	auth := config.AuthHandler
	handle("POST /auth/otp/flows", auth.StartFlow)
	handle("GET /auth/otp/flows/{id}", auth.GetFlow)
	handle("DELETE /auth/otp/flows/{id}", auth.EndFlow)
	handle("POST /auth/otp/flows/{id}/digits", auth.SetDigit)
	handle("POST /auth/otp/flows/{id}/backspace", auth.Backspace)
	handle("POST /auth/otp/flows/{id}/paste", auth.Paste)
	handle("POST /auth/otp/flows/{id}/submit", auth.Submit)
	handle("POST /auth/otp/flows/{id}/resend", auth.Resend)

	// Session Routes
	handle("GET /auth/session", auth.Session)
	handle("DELETE /auth/session", auth.Logout)

	// Toast Routes
	toasts := config.ToastHandler
	handle("GET /surfaces/{surface}/toasts", toasts.List)
	handle("POST /surfaces/{surface}/toasts", toasts.Create)
	handle("DELETE /surfaces/{surface}/toasts", toasts.RemoveAll)
	handle("PATCH /surfaces/{surface}/toasts/{id}", toasts.Update)
	handle("DELETE /surfaces/{surface}/toasts/{id}", toasts.Remove)
	handle("POST /surfaces/{surface}/toasts/{id}/dismiss", toasts.Dismiss)
	handle("POST /surfaces/{surface}/dismiss", toasts.DismissAll)
	handle("POST /surfaces/{surface}/pause", toasts.Pause)
	handle("POST /surfaces/{surface}/resume", toasts.Resume)
	handle("GET /ws/surfaces/{surface}", toasts.Subscribe)

	// The caller's own surface, named after its client id
	handle("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		r.SetPathValue("surface", middleware.ClientIDFromContext(r.Context()))
		toasts.Subscribe(w, r)
	})

	return middleware.CORSMiddleware(router, config.AllowedOrigins)
}
