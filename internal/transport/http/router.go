package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	chathandler "witchmart/internal/chat/handler"
	consenthandler "witchmart/internal/consent/handler"
	harmhandler "witchmart/internal/harm/handler"
	"witchmart/internal/platform/health"
	"witchmart/internal/platform/metrics"
	"witchmart/internal/platform/middleware"
	sessionhandler "witchmart/internal/session/handler"
	"witchmart/internal/transparency"
	"witchmart/pkg/platform/middleware/device"
	"witchmart/pkg/platform/middleware/request"
	"witchmart/pkg/platform/validation"
)

// Handlers groups the domain handlers mounted by the router. The HTTP layer
// only delegates to them.
type Handlers struct {
	Health       *health.Handler
	Session      *sessionhandler.Handler
	Consent      *consenthandler.Handler
	Transparency *transparency.Handler
	Harm         *harmhandler.Handler
	Chat         *chathandler.Handler
}

// Config carries the router's cross-cutting dependencies.
type Config struct {
	Sessions       middleware.SessionOpener
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(h Handlers, cfg Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.ClientMetadata)
	r.Use(device.Device)
	r.Use(request.Logger(logger))

	h.Health.Register(r)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(request.BodyLimit(validation.MaxBodySize))
		r.Use(request.ContentTypeJSON)
		r.Use(middleware.Session(cfg.Sessions, logger))

		// Chat replies stream, and the session routes rewrite the token
		// header; neither may sit behind the buffering timeout handler.
		h.Chat.Register(r)
		h.Session.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(request.Latency(cfg.Metrics))
			r.Use(request.Timeout(cfg.RequestTimeout))

			h.Consent.Register(r)
			h.Transparency.Register(r)
			h.Harm.Register(r)
		})
	})

	return r
}
