package operations

import (
	"github.com/brojonat/solkit/service/solana"
	"github.com/shopspring/decimal"
)

// Operation names a fund-moving flow.
type Operation string

const (
	OpClaim       Operation = "claim"
	OpTransfer    Operation = "transfer"
	OpCreateToken Operation = "create_token"
)

// Result is the uniform outcome of Claim, Transfer and CreateToken.
//
// On success Signature is set along with the operation's extra fields
// (Amount and NewBalance for claim and transfer, the token addresses for
// create-token). On failure only ErrorKind and Error are set. Attempts and
// State are reported either way.
type Result struct {
	Operation Operation `json:"operation"`
	Success   bool      `json:"success"`

	Signature           string           `json:"signature,omitempty"`
	Amount              *decimal.Decimal `json:"amount,omitempty"`      // SOL
	NewBalance          *decimal.Decimal `json:"new_balance,omitempty"` // SOL
	TokenAddress        string           `json:"token_address,omitempty"`
	TokenAccountAddress string           `json:"token_account_address,omitempty"`

	ErrorKind solana.ErrorKind `json:"error_kind,omitempty"`
	Error     string           `json:"error,omitempty"`

	Attempts int   `json:"attempts,omitempty"`
	State    State `json:"state"`

	err error
}

// Err returns the underlying error of a failed result, or nil.
func (r *Result) Err() error {
	return r.err
}

func (r *Result) clearSuccessFields() {
	r.Signature = ""
	r.Amount = nil
	r.NewBalance = nil
	r.TokenAddress = ""
	r.TokenAccountAddress = ""
}
