package nats

import (
	"time"
)

// OperationEvent is published once per claim, transfer or create-token
// operation when it reaches a terminal state.
// This is published to the subject "ops.{wallet_address}" in JetStream.
type OperationEvent struct {
	// Operation identifiers
	Operation string `json:"operation"` // claim, transfer or create_token
	Signature string `json:"signature,omitempty"`

	// Wallet information
	WalletAddress   string `json:"wallet_address"`             // Payer or airdrop recipient
	ReceiverAddress string `json:"receiver_address,omitempty"` // Transfer destination

	// Outcome
	Success   bool   `json:"success"`
	State     string `json:"state"`
	Attempts  int    `json:"attempts,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`

	// Operation details
	Amount              string `json:"amount,omitempty"`      // SOL, decimal string
	NewBalance          string `json:"new_balance,omitempty"` // SOL, decimal string
	TokenAddress        string `json:"token_address,omitempty"`
	TokenAccountAddress string `json:"token_account_address,omitempty"`

	// Timing information
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}

// Subject returns the JetStream subject for the event.
func (e *OperationEvent) Subject() string {
	return SubjectPrefix + e.WalletAddress
}
