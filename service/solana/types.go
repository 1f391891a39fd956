package solana

import (
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// UnknownProgram labels a history entry whose detail carries no instructions.
const UnknownProgram = "Unknown"

// HistoryEntry is one recent transaction touching an address.
// This is our domain model, independent of the RPC response format.
type HistoryEntry struct {
	Signature          string               `json:"signature"`
	Slot               uint64               `json:"slot"`
	BlockTime          *time.Time           `json:"block_time,omitempty"`
	ConfirmationStatus string               `json:"confirmation_status,omitempty"`
	Err                *string              `json:"err,omitempty"` // nil if the transaction succeeded
	Memo               *string              `json:"memo,omitempty"`
	Fee                uint64               `json:"fee,omitempty"`
	Program            string               `json:"program"`
	Instructions       []InstructionSummary `json:"instructions,omitempty"`

	// Detail is the raw parsed transaction, nil when it could not be fetched.
	Detail *rpc.GetParsedTransactionResult `json:"-"`
}

// InstructionSummary names the program an instruction invoked.
type InstructionSummary struct {
	Program   string `json:"program"`
	ProgramID string `json:"program_id"`
	Type      string `json:"type,omitempty"`
}
