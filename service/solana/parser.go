package solana

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Well-known Solana program IDs not exported by solana-go.
var (
	// Token2022ProgramID is the Token Extensions program (Token-2022)
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

	// MemoProgramIDSPL is the SPL Memo program (most common)
	MemoProgramIDSPL = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

	// MemoProgramIDLegacy is the legacy memo program (v1)
	MemoProgramIDLegacy = solana.MustPublicKeyFromBase58("Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo")

	// ComputeBudgetProgramID sets compute unit limits and priority fees.
	ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
)

// programNames mirrors the names the RPC node uses for jsonParsed instructions,
// so entries label the same program consistently whether or not the node
// could parse a given instruction.
var programNames = map[solana.PublicKey]string{
	solana.SystemProgramID:                    "system",
	solana.TokenProgramID:                     "spl-token",
	Token2022ProgramID:                        "spl-token",
	solana.SPLAssociatedTokenAccountProgramID: "spl-associated-token-account",
	MemoProgramIDSPL:                          "spl-memo",
	MemoProgramIDLegacy:                       "spl-memo",
	ComputeBudgetProgramID:                    "compute-budget",
}

// ProgramName returns the display name for a program ID, falling back to
// its base58 form.
func ProgramName(id solana.PublicKey) string {
	if name, ok := programNames[id]; ok {
		return name
	}
	return id.String()
}

// signatureToEntry converts an RPC TransactionSignature to a HistoryEntry.
// Note: This only includes metadata from the signature list, not parsed detail.
func signatureToEntry(sig *rpc.TransactionSignature) *HistoryEntry {
	entry := &HistoryEntry{
		Signature:          sig.Signature.String(),
		Slot:               sig.Slot,
		ConfirmationStatus: string(sig.ConfirmationStatus),
		Memo:               sig.Memo,
		Program:            UnknownProgram,
	}

	if sig.BlockTime != nil {
		t := sig.BlockTime.Time().UTC()
		entry.BlockTime = &t
	}

	if sig.Err != nil {
		errMsg := formatTxError(sig.Err)
		entry.Err = &errMsg
	}

	return entry
}

// applyParsedDetail fills the instruction-level fields of entry from a
// getParsedTransaction result. A nil result leaves entry untouched.
func applyParsedDetail(entry *HistoryEntry, result *rpc.GetParsedTransactionResult) {
	if result == nil {
		return
	}
	entry.Detail = result

	if result.BlockTime != nil && entry.BlockTime == nil {
		t := result.BlockTime.Time().UTC()
		entry.BlockTime = &t
	}
	if result.Meta != nil {
		entry.Fee = result.Meta.Fee
		if result.Meta.Err != nil && entry.Err == nil {
			errMsg := formatTxError(result.Meta.Err)
			entry.Err = &errMsg
		}
	}
	if result.Transaction == nil {
		return
	}

	instructions := result.Transaction.Message.Instructions
	entry.Instructions = make([]InstructionSummary, 0, len(instructions))
	for _, ix := range instructions {
		if ix == nil {
			continue
		}
		entry.Instructions = append(entry.Instructions, summarizeInstruction(ix))
	}
	if len(entry.Instructions) > 0 {
		entry.Program = entry.Instructions[0].Program
	}
}

func summarizeInstruction(ix *rpc.ParsedInstruction) InstructionSummary {
	summary := InstructionSummary{
		Program:   ix.Program,
		ProgramID: ix.ProgramId.String(),
	}
	if summary.Program == "" {
		summary.Program = ProgramName(ix.ProgramId)
	}
	summary.Type = parsedInstructionType(ix)
	return summary
}

// parsedInstructionType extracts the "type" field the node sets on
// jsonParsed instructions ("transfer", "initializeMint", ...).
func parsedInstructionType(ix *rpc.ParsedInstruction) string {
	if ix.Parsed == nil {
		return ""
	}
	raw, err := json.Marshal(ix.Parsed)
	if err != nil {
		return ""
	}
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Type
}

func formatTxError(v any) string {
	return "transaction failed: " + txErrorString(v)
}

// txErrorString renders an RPC error payload such as
// {"InstructionError":[0,"InvalidAccountData"]} as compact JSON.
func txErrorString(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
