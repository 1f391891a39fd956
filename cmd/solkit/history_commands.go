package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/brojonat/solkit/service/solana"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Aliases:   []string{"txns", "tx"},
		Usage:     "List an address's most recent transactions",
		ArgsUsage: "ADDRESS",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of transactions to retrieve (1-1000, default HISTORY_LIMIT)",
			},
			&cli.StringFlag{
				Name:    "program",
				Aliases: []string{"p"},
				Value:   solana.AllPrograms,
				Usage:   "Only show transactions whose first instruction invoked this program",
			},
			&cli.StringSliceFlag{
				Name:  "must-jq",
				Usage: "jq filter evaluated against each entry's JSON; all must be truthy (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "programs",
				Usage: "List the distinct programs seen instead of the transactions",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}
			address := c.Args().Get(0)

			limit := c.Int("limit")
			if c.IsSet("limit") && (limit < 1 || limit > 1000) {
				return fmt.Errorf("limit must be between 1 and 1000")
			}

			filters, err := compileJQFilters(c.StringSlice("must-jq"))
			if err != nil {
				return err
			}

			env, err := newEnvironment(c)
			if err != nil {
				return err
			}
			defer env.Close()

			if limit == 0 {
				limit = env.cfg.HistoryLimit
			}

			ctx, stop := commandContext(c)
			defer stop()

			reader := solana.NewHistory(env.conn, env.cfg.HistoryConcurrency, env.metrics, env.logger)
			entries, err := reader.Recent(ctx, address, limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}

			w := outWriter(c)
			if c.Bool("programs") {
				programs := solana.Programs(entries)
				if c.Bool("json") {
					return printJSON(w, programs)
				}
				for _, p := range programs {
					fmt.Fprintln(w, p)
				}
				return nil
			}

			entries = solana.FilterByProgram(entries, c.String("program"))
			entries = filterEntries(entries, filters, env.logger)

			if c.Bool("json") {
				return printJSON(w, entries)
			}
			printHistory(w, address, entries)
			return nil
		},
	}
}

func compileJQFilters(filters []string) ([]*gojq.Code, error) {
	compiled := make([]*gojq.Code, len(filters))
	for i, filter := range filters {
		query, err := gojq.Parse(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
		}
		compiled[i], err = gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
		}
	}
	return compiled, nil
}

// filterEntries keeps the entries every filter accepts.
func filterEntries(entries []*solana.HistoryEntry, filters []*gojq.Code, logger *slog.Logger) []*solana.HistoryEntry {
	if len(filters) == 0 {
		return entries
	}
	out := make([]*solana.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if matchesAll(e, filters, logger) {
			out = append(out, e)
		}
	}
	return out
}

// matchesAll runs each filter against the entry's JSON form. A filter that
// yields nothing or errors rejects the entry.
func matchesAll(entry *solana.HistoryEntry, filters []*gojq.Code, logger *slog.Logger) bool {
	// gojq wants plain maps and slices, so round-trip through JSON.
	data, err := json.Marshal(entry)
	if err != nil {
		return false
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}

	for _, code := range filters {
		iter := code.Run(doc)
		v, ok := iter.Next()
		if !ok {
			return false
		}
		if err, isErr := v.(error); isErr {
			logger.Debug("jq filter error", "signature", entry.Signature, "error", err)
			return false
		}
		if !isTruthy(v) {
			return false
		}
	}
	return true
}

// isTruthy checks if a jq result value is truthy.
// In jq, false and null are falsy, everything else is truthy.
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}
