package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "solkit",
		Usage: "Solana wallet operations: airdrop claims, SOL transfers, token creation",
		Description: `A command-line tool for moving funds on a Solana cluster.

Every fund-moving command validates its inputs, checks the payer's balance,
submits the transaction and waits for it to reach confirmed commitment.
Settings come from the environment (SOLANA_RPC_URL, CLAIM_AMOUNT_SOL, ...).`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			validateCommand(),
			eligibilityCommand(),
			balanceCommand(),
			claimCommand(),
			transferCommand(),
			createTokenCommand(),
			historyCommand(),
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Solana JSON-RPC endpoint (overrides SOLANA_RPC_URL)",
				EnvVars: []string{"SOLANA_RPC_URL"},
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
		},
	}
}

func setupLogger(w io.Writer, levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}
