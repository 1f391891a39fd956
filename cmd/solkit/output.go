package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/brojonat/solkit/service/operations"
	"github.com/brojonat/solkit/service/solana"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// printResult writes res and turns a failed result into the command's error
// so the process exits non-zero.
func printResult(w io.Writer, res *operations.Result, jsonOutput bool) error {
	if jsonOutput {
		if err := printJSON(w, res); err != nil {
			return err
		}
	} else if res.Success {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "✓ %s confirmed\n", operationTitle(res.Operation))
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Signature:     %s\n", res.Signature)
		if res.Amount != nil {
			fmt.Fprintf(w, "Amount:        %s SOL\n", res.Amount.String())
		}
		if res.NewBalance != nil {
			fmt.Fprintf(w, "New Balance:   %s SOL\n", res.NewBalance.String())
		}
		if res.TokenAddress != "" {
			fmt.Fprintf(w, "Token Mint:    %s\n", res.TokenAddress)
		}
		if res.TokenAccountAddress != "" {
			fmt.Fprintf(w, "Token Account: %s\n", res.TokenAccountAddress)
		}
		if res.Attempts > 0 {
			fmt.Fprintf(w, "Polls:         %d\n", res.Attempts)
		}
	} else {
		fmt.Fprintf(w, "✗ %s failed (%s)\n", operationTitle(res.Operation), res.ErrorKind)
		fmt.Fprintf(w, "  %s\n", res.Error)
	}

	if !res.Success {
		return fmt.Errorf("%s failed: %w", res.Operation, res.Err())
	}
	return nil
}

func operationTitle(op operations.Operation) string {
	switch op {
	case operations.OpClaim:
		return "Airdrop claim"
	case operations.OpTransfer:
		return "Transfer"
	case operations.OpCreateToken:
		return "Token creation"
	default:
		return string(op)
	}
}

// eligibilityOutput adds the claim window countdown to an eligibility answer.
type eligibilityOutput struct {
	operations.Eligibility
	Deadline *time.Time `json:"deadline,omitempty"`
	ClosesIn string     `json:"closes_in,omitempty"`
}

func printEligibility(w io.Writer, address string, e eligibilityOutput) {
	if e.Eligible {
		fmt.Fprintf(w, "✓ %s is eligible for %s SOL\n", address, e.Amount.String())
		if e.Deadline != nil {
			fmt.Fprintf(w, "  Claim window closes in %s (%s)\n", e.ClosesIn, e.Deadline.Format(time.RFC3339))
		}
		return
	}
	fmt.Fprintf(w, "✗ %s is not eligible\n", address)
	if e.Reason != "" {
		fmt.Fprintf(w, "  %s\n", e.Reason)
	}
}

func printHistory(w io.Writer, address string, entries []*solana.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No transactions found")
		return
	}

	fmt.Fprintf(w, "Found %d transaction(s) for wallet %s:\n\n", len(entries), address)
	for i, e := range entries {
		fmt.Fprintf(w, "[%d] Signature: %s\n", i+1, e.Signature)
		fmt.Fprintf(w, "    Program:   %s\n", e.Program)
		fmt.Fprintf(w, "    Slot:      %d\n", e.Slot)
		if e.ConfirmationStatus != "" {
			fmt.Fprintf(w, "    Status:    %s\n", e.ConfirmationStatus)
		}
		if e.BlockTime != nil {
			fmt.Fprintf(w, "    Block Time: %s\n", e.BlockTime.Format(time.RFC3339))
		}
		if e.Fee > 0 {
			fmt.Fprintf(w, "    Fee:       %s SOL\n", solana.FormatSOL(e.Fee))
		}
		if e.Err != nil {
			fmt.Fprintf(w, "    Error:     %s\n", *e.Err)
		}
		if e.Memo != nil {
			fmt.Fprintf(w, "    Memo:      %s\n", *e.Memo)
		}
		if len(e.Instructions) > 0 {
			kinds := make([]string, 0, len(e.Instructions))
			for _, ix := range e.Instructions {
				if ix.Type != "" {
					kinds = append(kinds, ix.Program+":"+ix.Type)
				} else {
					kinds = append(kinds, ix.Program)
				}
			}
			fmt.Fprintf(w, "    Calls:     %s\n", strings.Join(kinds, ", "))
		}
		fmt.Fprintln(w)
	}
}
