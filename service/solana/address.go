package solana

import (
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ValidateAddress decodes a base58 account address.
// Validity is syntactic only: the account may not exist or be funded.
func ValidateAddress(address string) (solana.PublicKey, error) {
	if address == "" {
		return solana.PublicKey{}, validationErrorf("Address is required.")
	}

	raw, err := base58.Decode(address)
	if err != nil {
		return solana.PublicKey{}, validationErrorf("Invalid Solana address %q: not base58.", address)
	}
	if len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, validationErrorf("Invalid Solana address %q: decodes to %d bytes, want %d.",
			address, len(raw), solana.PublicKeyLength)
	}

	return solana.PublicKeyFromBytes(raw), nil
}

// IsValidAddress reports whether address decodes to a 32-byte public key.
func IsValidAddress(address string) bool {
	_, err := ValidateAddress(address)
	return err == nil
}
