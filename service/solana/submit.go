package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var errEmptySignature = errors.New("network returned an empty signature")

// SubmitWithSender hands req to the wallet, which signs and submits it.
func SubmitWithSender(ctx context.Context, conn *Connection, sender Sender, req *Request) (solana.Signature, error) {
	if err := req.markSubmitted(); err != nil {
		return solana.Signature{}, err
	}

	sig, err := sender.SendTransaction(ctx, req.Tx, conn)
	if err != nil {
		return solana.Signature{}, submissionError(err)
	}
	if sig == (solana.Signature{}) {
		return solana.Signature{}, submissionError(errEmptySignature)
	}

	conn.logger.InfoContext(ctx, "transaction submitted",
		"signature", sig.String(),
		"fee_payer", req.FeePayer.String(),
	)
	return sig, nil
}

// SubmitWithSigner co-signs req with coSigners first, then asks the wallet to
// sign, then serializes and submits the raw bytes.
func SubmitWithSigner(ctx context.Context, conn *Connection, signer Signer, req *Request, coSigners ...solana.PrivateKey) (solana.Signature, error) {
	if err := req.markSubmitted(); err != nil {
		return solana.Signature{}, err
	}

	if len(coSigners) > 0 {
		if _, err := req.Tx.PartialSign(keyGetter(coSigners...)); err != nil {
			return solana.Signature{}, submissionError(fmt.Errorf("failed to co-sign transaction: %w", err))
		}
	}

	signed, err := signer.SignTransaction(ctx, req.Tx)
	if err != nil {
		return solana.Signature{}, submissionError(fmt.Errorf("failed to sign transaction: %w", err))
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return solana.Signature{}, submissionError(fmt.Errorf("failed to serialize transaction: %w", err))
	}

	sig, err := conn.SendRawTransaction(ctx, raw)
	if err != nil {
		return solana.Signature{}, submissionError(err)
	}
	if sig == (solana.Signature{}) {
		return solana.Signature{}, submissionError(errEmptySignature)
	}

	conn.logger.InfoContext(ctx, "transaction submitted",
		"signature", sig.String(),
		"fee_payer", req.FeePayer.String(),
		"co_signers", len(coSigners),
	)
	return sig, nil
}

// RequestAirdrop asks the faucet for lamports. Faucet rejections
// (rate limits, mainnet) surface as KindSubmission.
func RequestAirdrop(ctx context.Context, conn *Connection, to solana.PublicKey, lamports uint64) (solana.Signature, error) {
	sig, err := conn.RequestAirdrop(ctx, to, lamports)
	if err != nil {
		return solana.Signature{}, submissionError(err)
	}
	if sig == (solana.Signature{}) {
		return solana.Signature{}, submissionError(errEmptySignature)
	}
	conn.logger.InfoContext(ctx, "airdrop requested",
		"signature", sig.String(),
		"recipient", to.String(),
		"lamports", lamports,
	)
	return sig, nil
}
