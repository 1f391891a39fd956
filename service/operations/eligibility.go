package operations

import (
	"context"
	"fmt"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Eligibility is the answer to "may this address claim, and how much SOL".
type Eligibility struct {
	Eligible bool            `json:"eligible"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason,omitempty"`
}

// EligibilityPredicate decides whether an address may claim the airdrop.
// The address has already been validated.
type EligibilityPredicate interface {
	Check(ctx context.Context, address solanago.PublicKey) (Eligibility, error)
}

// EligibilityFunc adapts a function to EligibilityPredicate.
type EligibilityFunc func(ctx context.Context, address solanago.PublicKey) (Eligibility, error)

func (f EligibilityFunc) Check(ctx context.Context, address solanago.PublicKey) (Eligibility, error) {
	return f(ctx, address)
}

// FixedAmount makes every valid address eligible for amount SOL.
func FixedAmount(amount decimal.Decimal) EligibilityPredicate {
	return EligibilityFunc(func(context.Context, solanago.PublicKey) (Eligibility, error) {
		return Eligibility{Eligible: true, Amount: amount}, nil
	})
}

// ClaimWindow closes eligibility once Deadline has passed and otherwise
// defers to Next.
type ClaimWindow struct {
	Next     EligibilityPredicate
	Deadline time.Time

	// Now defaults to time.Now.
	Now func() time.Time
}

func (w ClaimWindow) Check(ctx context.Context, address solanago.PublicKey) (Eligibility, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	if now().After(w.Deadline) {
		return Eligibility{
			Eligible: false,
			Amount:   decimal.Zero,
			Reason:   fmt.Sprintf("The claim window closed at %s.", w.Deadline.UTC().Format(time.RFC3339)),
		}, nil
	}
	return w.Next.Check(ctx, address)
}

// Remaining returns the time left before the window closes, or zero.
func (w ClaimWindow) Remaining() time.Duration {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	if d := w.Deadline.Sub(now()); d > 0 {
		return d
	}
	return 0
}
