package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/brojonat/solkit/service/config"
	"github.com/brojonat/solkit/service/metrics"
	"github.com/brojonat/solkit/service/nats"
	"github.com/brojonat/solkit/service/operations"
	"github.com/brojonat/solkit/service/solana"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

// newRPCClient builds the JSON-RPC transport; tests swap in a mock.
var newRPCClient = solana.NewRPCClient

// environment is everything a command needs, built once per invocation
// from config.Load and the global flags.
type environment struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	conn      *solana.Connection
	poller    *solana.Poller
	publisher nats.Publisher
	service   *operations.Service

	// window is set when CLAIM_DEADLINE bounds the claim period.
	window *operations.ClaimWindow

	metricsServer *http.Server
}

func newEnvironment(c *cli.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if rpcURL := c.String("rpc-url"); rpcURL != "" && rpcURL != cfg.SolanaRPCURL {
		cfg.SolanaRPCURL = rpcURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := setupLogger(errWriter(c), cfg.LogLevel)

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	conn := solana.NewConnection(newRPCClient(cfg.SolanaRPCURL), cfg.SolanaRPCURL, m, logger)
	poller := solana.NewPoller(conn, solana.PollerConfig{
		MaxAttempts: cfg.ConfirmMaxAttempts,
		Interval:    cfg.ConfirmInterval,
		MaxInFlight: int64(cfg.MaxInflightPolls),
	}, m, logger)

	env := &environment{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  m,
		conn:     conn,
		poller:   poller,
	}

	// Events are best effort: a broker outage must not block fund movement.
	if cfg.NATSURL != "" {
		publisher, err := nats.NewPublisher(cfg.NATSURL, m, logger)
		if err != nil {
			logger.Warn("NATS publisher unavailable, operation events disabled",
				"url", cfg.NATSURL,
				"error", err,
			)
		} else {
			env.publisher = publisher
		}
	}

	if cfg.MetricsAddr != "" {
		env.serveMetrics(cfg.MetricsAddr)
	}

	var predicate operations.EligibilityPredicate
	predicate, env.window = eligibilityFor(cfg)
	env.service = operations.NewService(conn, poller, operations.Config{
		ClaimAmount: cfg.ClaimAmountSOL,
		Eligibility: predicate,
		Publisher:   env.publisher,
		Metrics:     m,
		Logger:      logger,
	})

	return env, nil
}

// eligibilityFor grants the configured claim amount to every valid address,
// closing the window after CLAIM_DEADLINE when one is set.
func eligibilityFor(cfg *config.Config) (operations.EligibilityPredicate, *operations.ClaimWindow) {
	fixed := operations.FixedAmount(cfg.ClaimAmountSOL)
	if cfg.ClaimDeadline == nil {
		return fixed, nil
	}
	window := &operations.ClaimWindow{Next: fixed, Deadline: *cfg.ClaimDeadline}
	return window, window
}

func (e *environment) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))

	e.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		e.logger.Info("metrics listener starting", "addr", addr)
		if err := e.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics listener failed", "error", err)
		}
	}()
}

// Close releases the publisher and stops the metrics listener.
func (e *environment) Close() error {
	var errs []error
	if e.publisher != nil {
		if err := e.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
		}
	}
	if e.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop metrics listener: %w", err))
		}
	}
	return errors.Join(errs...)
}

func outWriter(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
