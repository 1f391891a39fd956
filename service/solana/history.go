package solana

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/brojonat/solkit/service/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultHistoryLimit       = 10
	DefaultHistoryConcurrency = 4

	// AllPrograms disables the program filter.
	AllPrograms = "All"
)

// History reads recent activity for an address. It is read-only and safe
// for concurrent use.
type History struct {
	conn        *Connection
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewHistory creates a History reader. concurrency bounds how many
// getParsedTransaction calls run at once.
func NewHistory(conn *Connection, concurrency int, m *metrics.Metrics, logger *slog.Logger) *History {
	if concurrency <= 0 {
		concurrency = DefaultHistoryConcurrency
	}
	return &History{
		conn:        conn,
		concurrency: concurrency,
		metrics:     m,
		logger:      logger,
	}
}

// Recent returns up to limit of the address's latest transactions, newest
// first, in the order the network listed them. An address with no activity
// yields an empty slice and no error.
//
// A failure listing signatures fails the read. A failure fetching one
// transaction's detail is logged and counted as degraded, and that entry
// keeps only its signature metadata, with Program set to "Unknown".
func (h *History) Recent(ctx context.Context, address string, limit int) ([]*HistoryEntry, error) {
	pk, err := ValidateAddress(address)
	if err != nil {
		return nil, validationErrorf("Invalid Solana wallet address.")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	sigs, err := h.conn.SignaturesForAddress(ctx, pk, limit)
	if err != nil {
		return nil, networkError("failed to fetch signatures", err)
	}

	entries := make([]*HistoryEntry, len(sigs))
	if len(sigs) == 0 {
		h.metrics.RecordHistoryEntries(0)
		return entries, nil
	}

	var degraded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, sig := range sigs {
		i, sig := i, sig
		entries[i] = signatureToEntry(sig)
		g.Go(func() error {
			detail, err := h.conn.ParsedTransaction(gctx, sig.Signature)
			if err != nil {
				degraded.Add(1)
				h.logger.WarnContext(gctx, "failed to fetch transaction detail",
					"signature", sig.Signature.String(),
					"error", err,
				)
				return nil
			}
			applyParsedDetail(entries[i], detail)
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, networkError("history read cancelled", err)
	}

	n := int(degraded.Load())
	h.metrics.RecordHistoryEntries(len(entries))
	h.metrics.RecordHistoryDegraded(n)
	if n > 0 {
		h.logger.WarnContext(ctx, "transaction history missing details",
			"address", pk.String(),
			"count", len(entries),
			"degraded", n,
		)
	}
	h.logger.DebugContext(ctx, "fetched transaction history",
		"address", pk.String(),
		"limit", limit,
		"count", len(entries),
	)
	return entries, nil
}

// FilterByProgram keeps entries whose Program equals program. An empty
// program or AllPrograms keeps everything.
func FilterByProgram(entries []*HistoryEntry, program string) []*HistoryEntry {
	if program == "" || program == AllPrograms {
		return entries
	}
	out := make([]*HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.Program == program {
			out = append(out, e)
		}
	}
	return out
}

// Programs returns the distinct Program values in first-seen order, for
// building a filter menu.
func Programs(entries []*HistoryEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	var out []string
	for _, e := range entries {
		if _, ok := seen[e.Program]; ok {
			continue
		}
		seen[e.Program] = struct{}{}
		out = append(out, e.Program)
	}
	return out
}
