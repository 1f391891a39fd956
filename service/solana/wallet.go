package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Wallet is anything that controls an account. It may be able to do nothing
// beyond reporting its public key.
type Wallet interface {
	PublicKey() solana.PublicKey
}

// Sender is a wallet that signs and submits a transaction in one step.
type Sender interface {
	Wallet
	SendTransaction(ctx context.Context, tx *solana.Transaction, conn *Connection) (solana.Signature, error)
}

// Signer is a wallet that can also sign without submitting, so other
// parties (a fresh mint keypair) can co-sign the same transaction.
type Signer interface {
	Sender
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

const errWalletNotConnected = "Wallet not connected. Please connect your wallet first."

// RequireConnected returns the wallet's public key, or KindWalletUnavailable
// when there is no wallet or it has no key.
func RequireConnected(w Wallet) (solana.PublicKey, error) {
	if w == nil {
		return solana.PublicKey{}, walletUnavailable(errWalletNotConnected)
	}
	pk := w.PublicKey()
	if pk.IsZero() {
		return solana.PublicKey{}, walletUnavailable(errWalletNotConnected)
	}
	return pk, nil
}

// AsSender narrows a wallet to one that can submit transactions.
func AsSender(w Wallet) (Sender, error) {
	if _, err := RequireConnected(w); err != nil {
		return nil, err
	}
	s, ok := w.(Sender)
	if !ok {
		return nil, walletUnavailable("Wallet does not support sending transactions")
	}
	return s, nil
}

// AsSigner narrows a wallet to one that can sign without submitting.
func AsSigner(w Wallet) (Signer, error) {
	if _, err := RequireConnected(w); err != nil {
		return nil, err
	}
	s, ok := w.(Signer)
	if !ok {
		return nil, walletUnavailable("Wallet does not support transaction signing")
	}
	return s, nil
}

// KeypairWallet is a Signer backed by a local private key.
type KeypairWallet struct {
	key solana.PrivateKey
}

// NewKeypairWallet wraps an in-memory private key.
func NewKeypairWallet(key solana.PrivateKey) *KeypairWallet {
	return &KeypairWallet{key: key}
}

// LoadKeypairWallet reads a Solana CLI JSON keypair file (a 64-byte array).
func LoadKeypairWallet(path string) (*KeypairWallet, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair from %s: %w", path, err)
	}
	return NewKeypairWallet(key), nil
}

// PublicKey returns the zero key for a nil or empty wallet, which
// RequireConnected reports as not connected.
func (w *KeypairWallet) PublicKey() solana.PublicKey {
	if w == nil || len(w.key) == 0 {
		return solana.PublicKey{}
	}
	return w.key.PublicKey()
}

// SignTransaction adds this wallet's signature, leaving any existing
// co-signatures in place.
func (w *KeypairWallet) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if _, err := tx.PartialSign(keyGetter(w.key)); err != nil {
		return nil, err
	}
	return tx, nil
}

// SendTransaction signs tx and submits it through conn.
func (w *KeypairWallet) SendTransaction(ctx context.Context, tx *solana.Transaction, conn *Connection) (solana.Signature, error) {
	signed, err := w.SignTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	return conn.SendTransaction(ctx, signed)
}

// keyGetter returns a PartialSign callback that only answers for the given keys.
func keyGetter(keys ...solana.PrivateKey) func(solana.PublicKey) *solana.PrivateKey {
	return func(pub solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(pub) {
				return &keys[i]
			}
		}
		return nil
	}
}
