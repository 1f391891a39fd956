package solana

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/solkit/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	// DefaultEndpoint is the public devnet RPC used when no URL is configured.
	DefaultEndpoint = "https://api.devnet.solana.com"

	// Commitment is the fixed commitment level for every read and preflight.
	Commitment = rpc.CommitmentConfirmed

	// ConfirmTimeout bounds how long a caller should wait for a signature to
	// confirm. The poller budget must fit inside it.
	ConfirmTimeout = 60 * time.Second
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetBalance(
		ctx context.Context,
		account solana.PublicKey,
		commitment rpc.CommitmentType,
	) (*rpc.GetBalanceResult, error)

	GetLatestBlockhash(
		ctx context.Context,
		commitment rpc.CommitmentType,
	) (*rpc.GetLatestBlockhashResult, error)

	GetMinimumBalanceForRentExemption(
		ctx context.Context,
		dataSize uint64,
		commitment rpc.CommitmentType,
	) (uint64, error)

	GetSignatureStatuses(
		ctx context.Context,
		searchTransactionHistory bool,
		signatures ...solana.Signature,
	) (*rpc.GetSignatureStatusesResult, error)

	SendRawTransaction(
		ctx context.Context,
		rawTx []byte,
		opts rpc.TransactionOpts,
	) (solana.Signature, error)

	RequestAirdrop(
		ctx context.Context,
		account solana.PublicKey,
		lamports uint64,
		commitment rpc.CommitmentType,
	) (solana.Signature, error)

	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)

	GetParsedTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetParsedTransactionOpts,
	) (*rpc.GetParsedTransactionResult, error)
}

// Connection is the shared RPC handle. Build one per process and pass it to
// every component; it holds no mutable state after construction, so it is
// safe for concurrent use without locking.
type Connection struct {
	rpc      RPCClient
	endpoint string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Dial creates a Connection against endpoint, falling back to DefaultEndpoint.
func Dial(endpoint string, m *metrics.Metrics, logger *slog.Logger) *Connection {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return NewConnection(NewRPCClient(endpoint), endpoint, m, logger)
}

// NewConnection wraps an existing RPCClient.
// The endpoint parameter is used for logging and metrics labeling.
// If metrics is nil, no metrics will be recorded.
func NewConnection(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Connection {
	logger.Info("solana connection created",
		"rpc_url", endpoint,
		"commitment", Commitment,
		"confirm_timeout", ConfirmTimeout,
	)
	return &Connection{
		rpc:      rpcClient,
		endpoint: endpoint,
		metrics:  m,
		logger:   logger,
	}
}

// Endpoint returns the RPC URL this connection talks to.
func (c *Connection) Endpoint() string {
	return c.endpoint
}

// Balance returns the spendable lamports held by account.
func (c *Connection) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	start := time.Now()
	out, err := c.rpc.GetBalance(ctx, account, Commitment)
	c.observe(ctx, "getBalance", start, err)
	if err != nil {
		return 0, err
	}
	if out == nil {
		return 0, fmt.Errorf("empty getBalance response for %s", account)
	}
	return out.Value, nil
}

// LatestBlockhash returns a recent blockhash to anchor a new transaction.
func (c *Connection) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	start := time.Now()
	out, err := c.rpc.GetLatestBlockhash(ctx, Commitment)
	c.observe(ctx, "getLatestBlockhash", start, err)
	if err != nil {
		return solana.Hash{}, err
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, fmt.Errorf("empty getLatestBlockhash response")
	}
	return out.Value.Blockhash, nil
}

// MinimumBalanceForRentExemption returns the lamports an account of dataSize
// bytes must hold to be rent exempt.
func (c *Connection) MinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	start := time.Now()
	out, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, dataSize, Commitment)
	c.observe(ctx, "getMinimumBalanceForRentExemption", start, err)
	return out, err
}

// SignatureStatus returns the status of a single signature, or nil if the
// network does not know it yet.
func (c *Connection) SignatureStatus(ctx context.Context, signature solana.Signature) (*rpc.SignatureStatusesResult, error) {
	start := time.Now()
	out, err := c.rpc.GetSignatureStatuses(ctx, false, signature)
	c.observe(ctx, "getSignatureStatuses", start, err)
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}

// SendRawTransaction submits serialized, fully signed transaction bytes.
func (c *Connection) SendRawTransaction(ctx context.Context, rawTx []byte) (solana.Signature, error) {
	start := time.Now()
	sig, err := c.rpc.SendRawTransaction(ctx, rawTx, rpc.TransactionOpts{
		PreflightCommitment: Commitment,
	})
	c.observe(ctx, "sendTransaction", start, err)
	return sig, err
}

// SendTransaction serializes a signed transaction and submits it.
func (c *Connection) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return c.SendRawTransaction(ctx, raw)
}

// RequestAirdrop asks the cluster faucet to mint lamports into account.
func (c *Connection) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	start := time.Now()
	sig, err := c.rpc.RequestAirdrop(ctx, account, lamports, Commitment)
	c.observe(ctx, "requestAirdrop", start, err)
	return sig, err
}

// SignaturesForAddress returns up to limit signatures, newest first.
func (c *Connection) SignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]*rpc.TransactionSignature, error) {
	start := time.Now()
	out, err := c.rpc.GetSignaturesForAddress(ctx, address, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: Commitment,
	})
	c.observe(ctx, "getSignaturesForAddress", start, err)
	return out, err
}

// ParsedTransaction fetches jsonParsed detail for a signature, accepting
// versioned (v0) transactions.
func (c *Connection) ParsedTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetParsedTransactionResult, error) {
	maxVersion := uint64(0)
	start := time.Now()
	out, err := c.rpc.GetParsedTransaction(ctx, signature, &rpc.GetParsedTransactionOpts{
		Commitment:                     Commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	c.observe(ctx, "getParsedTransaction", start, err)
	return out, err
}

func (c *Connection) observe(ctx context.Context, method string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
		c.logger.DebugContext(ctx, "solana rpc call failed",
			"method", method,
			"error", err,
		)
	}
	c.metrics.RecordRPCCall(method, status, c.endpoint, duration)
}
