package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"witchmart/internal/chat"
	chathandler "witchmart/internal/chat/handler"
	"witchmart/internal/chat/upstream"
	consenthandler "witchmart/internal/consent/handler"
	"witchmart/internal/consent/notifier"
	consentservice "witchmart/internal/consent/service"
	"witchmart/internal/harm"
	harmhandler "witchmart/internal/harm/handler"
	"witchmart/internal/platform/config"
	"witchmart/internal/platform/health"
	"witchmart/internal/platform/logger"
	"witchmart/internal/platform/metrics"
	"witchmart/internal/platform/redis"
	"witchmart/internal/platform/tracer"
	"witchmart/internal/session"
	sessionhandler "witchmart/internal/session/handler"
	"witchmart/internal/transparency"
	httptransport "witchmart/internal/transport/http"
	"witchmart/pkg/platform/circuit"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the domain packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Environment)

	log.Info("initializing witchmart",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"redis", cfg.Redis.URL != "",
		"revocation_notices", cfg.Revocation.URL != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	healthHandler := health.New(cfg.Environment)

	redisClient, err := redis.New(ctx, cfg.Redis, redis.NewPoolMetrics(reg))
	if err != nil {
		return err
	}

	var (
		store   session.Store
		cleanup *session.Cleanup
	)
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // process is exiting
		store = session.NewRedisStore(redisClient.Client)
		healthHandler.RegisterCheck("redis", redisClient.Health)
		log.Info("using redis session store")
	} else {
		memory := session.NewInMemoryStore()
		store = memory
		cleanup, err = session.NewCleanup(memory, log,
			session.WithCleanupInterval(cfg.CleanupInterval),
			session.WithCleanupMetrics(m),
		)
		if err != nil {
			return err
		}
		log.Info("using in-memory session store")
	}

	sessions := session.NewManager(store, session.NewTokens(cfg.SessionSigningKey), log,
		session.WithTTL(cfg.SessionTTL),
		session.WithMetrics(m),
	)
	recorder := transparency.NewRecorder()

	orchestrator := chat.NewOrchestrator(sessions, upstream.New(upstream.Config{
		URL:    cfg.Upstream.URL,
		APIKey: cfg.Upstream.APIKey,
	}), recorder, log,
		chat.WithBreaker(circuit.New("upstream")),
		chat.WithTracer(tracer.NewOTel()),
		chat.WithMetrics(m),
		chat.WithUpstreamTimeout(cfg.Upstream.Timeout),
	)

	var notices consentservice.Notifier = notifier.NoopNotifier{}
	if cfg.Revocation.URL != "" {
		notices = notifier.NewHTTP(cfg.Revocation.URL, cfg.Revocation.Timeout)
	}
	consent := consentservice.NewService(sessions, recorder, notices, orchestrator.Inflight(), log,
		consentservice.WithMetrics(m),
	)

	router := httptransport.NewRouter(httptransport.Handlers{
		Health:       healthHandler,
		Session:      sessionhandler.New(sessions, orchestrator.Inflight(), log),
		Consent:      consenthandler.New(consent, log),
		Transparency: transparency.NewHandler(sessions, recorder, log),
		Harm:         harmhandler.New(harm.NewService(sessions, recorder, m), log),
		Chat:         chathandler.New(orchestrator, log),
	}, httptransport.Config{
		Sessions:       sessions,
		Metrics:        m,
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
	}, log)

	srv := newHTTPServer(cfg.Addr, router, orchestrator.Inflight(), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cleanup != nil {
		g.Go(func() error {
			if err := cleanup.Start(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if redisClient != nil {
		g.Go(func() error { return redisClient.RunPoolStats(gctx, poolStatsInterval) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		consent.Wait()
		return err
	})

	return g.Wait()
}
