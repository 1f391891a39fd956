package solana

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// viewOnlyWallet knows its key but cannot sign or send.
type viewOnlyWallet struct{ pk solana.PublicKey }

func (w viewOnlyWallet) PublicKey() solana.PublicKey { return w.pk }

// sendOnlyWallet can submit but cannot sign independently.
type sendOnlyWallet struct {
	viewOnlyWallet
}

func (w sendOnlyWallet) SendTransaction(ctx context.Context, tx *solana.Transaction, conn *Connection) (solana.Signature, error) {
	return conn.SendTransaction(ctx, tx)
}

func TestRequireConnected(t *testing.T) {
	_, err := RequireConnected(nil)
	require.Error(t, err)
	assert.Equal(t, KindWalletUnavailable, KindOf(err))
	assert.Equal(t, "Wallet not connected. Please connect your wallet first.", err.Error())

	_, err = RequireConnected(viewOnlyWallet{})
	require.Error(t, err)
	assert.Equal(t, KindWalletUnavailable, KindOf(err))

	var missing *KeypairWallet
	assert.True(t, missing.PublicKey().IsZero())
	_, err = RequireConnected(missing)
	require.Error(t, err)
	assert.Equal(t, KindWalletUnavailable, KindOf(err))
	_, err = AsSigner(missing)
	assert.Equal(t, KindWalletUnavailable, KindOf(err))

	pk := solana.NewWallet().PublicKey()
	got, err := RequireConnected(viewOnlyWallet{pk: pk})
	require.NoError(t, err)
	assert.True(t, pk.Equals(got))
}

func TestCapabilityNarrowing(t *testing.T) {
	pk := solana.NewWallet().PublicKey()

	t.Run("view-only wallet cannot send", func(t *testing.T) {
		_, err := AsSender(viewOnlyWallet{pk: pk})
		require.Error(t, err)
		assert.Equal(t, KindWalletUnavailable, KindOf(err))
	})

	t.Run("send-only wallet cannot sign", func(t *testing.T) {
		w := sendOnlyWallet{viewOnlyWallet{pk: pk}}

		_, err := AsSender(w)
		require.NoError(t, err)

		_, err = AsSigner(w)
		require.Error(t, err)
		assert.Equal(t, KindWalletUnavailable, KindOf(err))
		assert.Equal(t, "Wallet does not support transaction signing", err.Error())
	})

	t.Run("keypair wallet signs", func(t *testing.T) {
		w := NewKeypairWallet(solana.NewWallet().PrivateKey)
		s, err := AsSigner(w)
		require.NoError(t, err)
		assert.True(t, s.PublicKey().Equals(w.PublicKey()))
	})
}

func TestKeypairWallet_KeepsCoSignatures(t *testing.T) {
	payerKey := solana.NewWallet().PrivateKey
	mintKey := solana.NewWallet().PrivateKey
	wallet := NewKeypairWallet(payerKey)

	spec, err := ValidateTokenParams(TokenParams{
		Decimals:      2,
		TotalSupply:   mustDecimal("100"),
		MintAuthority: payerKey.PublicKey().String(),
	})
	require.NoError(t, err)
	req, err := BuildCreateToken(spec, payerKey.PublicKey(), mintKey.PublicKey(), 1_461_600, testBlockhash())
	require.NoError(t, err)

	_, err = req.Tx.PartialSign(keyGetter(mintKey))
	require.NoError(t, err)

	signed, err := wallet.SignTransaction(context.Background(), req.Tx)
	require.NoError(t, err)
	require.Len(t, signed.Signatures, 2)
	assert.NoError(t, signed.VerifySignatures())
}

func TestLoadKeypairWallet(t *testing.T) {
	key := solana.NewWallet().PrivateKey

	// Solana CLI keypair files are a JSON array of the 64 secret key bytes.
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	w, err := LoadKeypairWallet(path)
	require.NoError(t, err)
	assert.True(t, key.PublicKey().Equals(w.PublicKey()))

	_, err = LoadKeypairWallet(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
