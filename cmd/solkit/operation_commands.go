package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/brojonat/solkit/service/solana"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func keypairFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "keypair",
		Aliases: []string{"k"},
		Usage:   "Solana CLI JSON keypair file (default ~/.config/solana/id.json)",
		EnvVars: []string{"SOLANA_KEYPAIR"},
	}
}

// loadWallet reads the keypair named by --keypair, falling back to the
// Solana CLI's default location.
func loadWallet(c *cli.Context) (*solana.KeypairWallet, error) {
	path := c.String("keypair")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("--keypair is required: %w", err)
		}
		path = filepath.Join(home, ".config", "solana", "id.json")
	}
	return solana.LoadKeypairWallet(path)
}

// commandContext cancels on SIGINT or SIGTERM so an in-flight poll stops
// promptly.
func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check whether an address is a valid Solana public key",
		ArgsUsage: "ADDRESS",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("address is required")
			}
			address := c.Args().Get(0)
			valid := solana.IsValidAddress(address)

			w := outWriter(c)
			if c.Bool("json") {
				if err := printJSON(w, map[string]any{"address": address, "valid": valid}); err != nil {
					return err
				}
			} else if valid {
				fmt.Fprintf(w, "✓ %s is a valid Solana address\n", address)
			} else {
				fmt.Fprintf(w, "✗ %s is not a valid Solana address\n", address)
			}

			if !valid {
				return fmt.Errorf("invalid address: %s", address)
			}
			return nil
		},
	}
}

func eligibilityCommand() *cli.Command {
	return &cli.Command{
		Name:      "eligibility",
		Aliases:   []string{"eligible"},
		Usage:     "Check whether an address may claim the airdrop and how much",
		ArgsUsage: "ADDRESS",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("address is required")
			}
			address := c.Args().Get(0)

			env, err := newEnvironment(c)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, stop := commandContext(c)
			defer stop()

			out := eligibilityOutput{Eligibility: env.service.CheckEligibility(ctx, address)}
			if env.window != nil && out.Eligible {
				deadline := env.window.Deadline.UTC()
				out.Deadline = &deadline
				out.ClosesIn = env.window.Remaining().Round(time.Second).String()
			}
			if c.Bool("json") {
				return printJSON(outWriter(c), out)
			}
			printEligibility(outWriter(c), address, out)
			return nil
		},
	}
}

func balanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "balance",
		Usage:     "Show an address's SOL balance",
		ArgsUsage: "ADDRESS",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("address is required")
			}
			address := c.Args().Get(0)
			pk, err := solana.ValidateAddress(address)
			if err != nil {
				return err
			}

			env, err := newEnvironment(c)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, stop := commandContext(c)
			defer stop()

			lamports, err := env.conn.Balance(ctx, pk)
			if err != nil {
				return fmt.Errorf("failed to get balance: %w", err)
			}

			w := outWriter(c)
			if c.Bool("json") {
				return printJSON(w, map[string]any{
					"address":  address,
					"lamports": lamports,
					"sol":      solana.LamportsToSOL(lamports),
				})
			}
			fmt.Fprintf(w, "%s SOL\n", solana.FormatSOL(lamports))
			return nil
		},
	}
}

func claimCommand() *cli.Command {
	return &cli.Command{
		Name:      "claim",
		Aliases:   []string{"airdrop"},
		Usage:     "Claim the airdrop for an address and wait for confirmation",
		ArgsUsage: "ADDRESS",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("address is required")
			}

			env, err := newEnvironment(c)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, stop := commandContext(c)
			defer stop()

			res := env.service.Claim(ctx, c.Args().Get(0))
			return printResult(outWriter(c), res, c.Bool("json"))
		},
	}
}

func transferCommand() *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Send SOL from the keypair's wallet to another address",
		Flags: []cli.Flag{
			keypairFlag(),
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Receiver address",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "amount",
				Aliases:  []string{"a"},
				Usage:    "Amount in SOL (e.g., 0.25)",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			amount, err := decimal.NewFromString(c.String("amount"))
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", c.String("amount"), err)
			}

			wallet, err := loadWallet(c)
			if err != nil {
				return err
			}

			env, err := newEnvironment(c)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, stop := commandContext(c)
			defer stop()

			res := env.service.TransferWithWallet(ctx, wallet, c.String("to"), amount)
			return printResult(outWriter(c), res, c.Bool("json"))
		},
	}
}

func createTokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-token",
		Usage: "Create an SPL token and mint its whole supply to the mint authority",
		Flags: []cli.Flag{
			keypairFlag(),
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Token name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "symbol",
				Usage:    "Token symbol",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "decimals",
				Value: 9,
				Usage: "Decimal places (0-9)",
			},
			&cli.StringFlag{
				Name:     "supply",
				Usage:    "Total supply in whole tokens",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "mint-authority",
				Usage: "Mint authority address (default: the keypair's address)",
			},
			&cli.StringFlag{
				Name:  "freeze-authority",
				Usage: "Freeze authority address (default: none)",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Token description",
			},
			&cli.StringFlag{
				Name:  "website",
				Usage: "Project website",
			},
			&cli.StringFlag{
				Name:  "metadata-uri",
				Usage: "Off-chain metadata URI",
			},
		},
		Action: func(c *cli.Context) error {
			supply, err := decimal.NewFromString(c.String("supply"))
			if err != nil {
				return fmt.Errorf("invalid supply %q: %w", c.String("supply"), err)
			}

			wallet, err := loadWallet(c)
			if err != nil {
				return err
			}

			mintAuthority := c.String("mint-authority")
			if mintAuthority == "" {
				mintAuthority = wallet.PublicKey().String()
			}

			params := solana.TokenParams{
				Name:            c.String("name"),
				Symbol:          c.String("symbol"),
				Decimals:        c.Int("decimals"),
				TotalSupply:     supply,
				MintAuthority:   mintAuthority,
				FreezeAuthority: c.String("freeze-authority"),
				Description:     c.String("description"),
				Website:         c.String("website"),
				MetadataURI:     c.String("metadata-uri"),
			}

			env, err := newEnvironment(c)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, stop := commandContext(c)
			defer stop()

			res := env.service.CreateTokenWithWallet(ctx, wallet, params)
			return printResult(outWriter(c), res, c.Bool("json"))
		},
	}
}
