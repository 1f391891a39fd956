package solana

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/solkit/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/sync/semaphore"
)

// Outcome is the terminal state of a confirmation wait.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeFailed    Outcome = "failed"

	// OutcomeAbandoned means ctx ended before a verdict. The transaction was
	// already submitted and may still land.
	OutcomeAbandoned Outcome = "abandoned"
)

const (
	DefaultMaxAttempts = 30
	DefaultInterval    = 2 * time.Second
	DefaultMaxInFlight = 8
)

// Confirmation is the tagged result of Poller.Await.
type Confirmation struct {
	Signature solana.Signature
	Outcome   Outcome
	Attempts  int

	// Status is the last confirmation status observed, empty if the
	// network never reported one.
	Status rpc.ConfirmationStatusType

	// Err is the on-chain error for OutcomeFailed and the context error for
	// OutcomeAbandoned.
	Err error
}

// Confirmed reports whether the signature reached confirmed or finalized.
func (c Confirmation) Confirmed() bool {
	return c.Outcome == OutcomeConfirmed
}

// AsError converts a non-confirmed outcome to an *Error. It returns nil for
// OutcomeConfirmed.
func (c Confirmation) AsError() error {
	switch c.Outcome {
	case OutcomeConfirmed:
		return nil
	case OutcomeTimedOut:
		return &Error{
			Kind:    KindConfirmationTimeout,
			Message: "Transaction not confirmed after multiple retries.",
		}
	case OutcomeAbandoned:
		return &Error{
			Kind:    KindConfirmationTimeout,
			Message: "Stopped waiting for confirmation. The transaction was submitted and may still land.",
			Err:     c.Err,
		}
	default:
		return &Error{
			Kind:    KindConfirmationFailed,
			Message: fmt.Sprintf("Transaction failed: %v", c.Err),
			Err:     c.Err,
		}
	}
}

// PollerConfig bounds a confirmation wait.
type PollerConfig struct {
	MaxAttempts int
	Interval    time.Duration

	// MaxInFlight caps concurrent waits across the process. Waits beyond the
	// cap block until a slot frees up or their context ends.
	MaxInFlight int64
}

// DefaultPollerConfig returns 30 attempts, 2s apart, 8 concurrent waits.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
		MaxInFlight: DefaultMaxInFlight,
	}
}

// Poller waits for submitted signatures to confirm by polling their status
// at a fixed interval. No backoff, no jitter.
type Poller struct {
	conn    *Connection
	cfg     PollerConfig
	sem     *semaphore.Weighted
	sleep   func(ctx context.Context, d time.Duration) error
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPoller creates a Poller. Zero MaxAttempts and MaxInFlight take their
// defaults; a zero Interval polls back to back.
func NewPoller(conn *Connection, cfg PollerConfig, m *metrics.Metrics, logger *slog.Logger) *Poller {
	def := DefaultPollerConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Interval < 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = def.MaxInFlight
	}
	return &Poller{
		conn:    conn,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(cfg.MaxInFlight),
		sleep:   sleepContext,
		metrics: m,
		logger:  logger,
	}
}

// Config returns the effective configuration.
func (p *Poller) Config() PollerConfig {
	return p.cfg
}

// Await polls the status of sig until it is confirmed or finalized, the
// network reports it failed, the attempt budget runs out, or ctx ends.
// An ended ctx yields OutcomeAbandoned, never OutcomeFailed.
// A failed status check consumes an attempt and polling continues.
// There is no sleep after the final attempt.
func (p *Poller) Await(ctx context.Context, sig solana.Signature) Confirmation {
	result := p.await(ctx, sig)
	p.metrics.RecordConfirmation(string(result.Outcome), result.Attempts)

	logger := p.logger.With(
		"signature", sig.String(),
		"outcome", result.Outcome,
		"attempts", result.Attempts,
		"status", result.Status,
	)
	switch result.Outcome {
	case OutcomeConfirmed:
		logger.InfoContext(ctx, "transaction confirmed")
	case OutcomeTimedOut:
		logger.WarnContext(ctx, "transaction not confirmed within poll budget")
	case OutcomeAbandoned:
		logger.WarnContext(ctx, "stopped waiting for confirmation", "error", result.Err)
	default:
		logger.WarnContext(ctx, "transaction confirmation failed", "error", result.Err)
	}
	return result
}

func (p *Poller) await(ctx context.Context, sig solana.Signature) Confirmation {
	result := Confirmation{Signature: sig, Outcome: OutcomeTimedOut}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		result.Outcome = OutcomeAbandoned
		result.Err = err
		return result
	}
	defer p.sem.Release(1)
	p.metrics.RecordPollInFlight(1)
	defer p.metrics.RecordPollInFlight(-1)

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		result.Attempts = attempt

		status, err := p.conn.SignatureStatus(ctx, sig)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				result.Outcome = OutcomeAbandoned
				result.Err = ctx.Err()
				return result
			}
			p.logger.DebugContext(ctx, "signature status check failed",
				"signature", sig.String(),
				"attempt", attempt,
				"error", err,
			)
		case status != nil:
			result.Status = status.ConfirmationStatus
			if status.Err != nil {
				result.Outcome = OutcomeFailed
				result.Err = fmt.Errorf("on-chain error %s", txErrorString(status.Err))
				return result
			}
			if isConfirmed(status.ConfirmationStatus) {
				result.Outcome = OutcomeConfirmed
				return result
			}
		}

		if attempt == p.cfg.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			result.Outcome = OutcomeAbandoned
			result.Err = err
			return result
		}
	}

	return result
}

func isConfirmed(status rpc.ConfirmationStatusType) bool {
	return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
