package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	// TransferFeeLamports is the flat fee estimate for a single-signature transfer.
	TransferFeeLamports uint64 = 5000

	// TokenCreationBufferLamports covers fees plus the associated token
	// account's own rent on top of the mint's rent-exempt minimum.
	TokenCreationBufferLamports uint64 = 10_000_000
)

// Requirement describes what a payer must hold before an operation is built.
type Requirement struct {
	Payer    solana.PublicKey
	Lamports uint64
	Fee      uint64

	// Purpose, when set, is inserted into the failure message:
	// "Insufficient balance for {Purpose}. Required: ..."
	Purpose string
}

// Total returns the lamports the payer needs, saturating instead of overflowing.
func (r Requirement) Total() uint64 {
	if r.Lamports > ^uint64(0)-r.Fee {
		return ^uint64(0)
	}
	return r.Lamports + r.Fee
}

// CheckSufficientBalance fetches the payer's balance and fails with
// KindInsufficientFunds iff balance < lamports + fee. RPC failures come back
// as KindNetwork. It never retries. The fetched balance is returned either way.
func CheckSufficientBalance(ctx context.Context, conn *Connection, req Requirement) (uint64, error) {
	balance, err := conn.Balance(ctx, req.Payer)
	if err != nil {
		return 0, networkError("failed to fetch balance", err)
	}

	required := req.Total()
	if balance < required {
		conn.logger.InfoContext(ctx, "balance preflight failed",
			"payer", req.Payer.String(),
			"balance_lamports", balance,
			"required_lamports", required,
			"purpose", req.Purpose,
		)
		return balance, &Error{
			Kind:    KindInsufficientFunds,
			Message: insufficientMessage(req.Purpose, required, balance),
		}
	}
	return balance, nil
}

func insufficientMessage(purpose string, required, available uint64) string {
	prefix := "Insufficient balance."
	if purpose != "" {
		prefix = fmt.Sprintf("Insufficient balance for %s.", purpose)
	}
	return fmt.Sprintf("%s Required: %s SOL, Available: %s SOL.",
		prefix, FormatSOL(required), FormatSOL(available))
}
