package solana

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// MockRPCClient implements RPCClient for testing.
// It's behavior-focused: set what it should return, then read call counts.
// Configure fields before use; they are not guarded for concurrent writes.
type MockRPCClient struct {
	// Balances are returned by successive GetBalance calls; the last repeats.
	Balances   []uint64
	BalanceErr error

	Blockhash    solana.Hash
	BlockhashErr error

	RentLamports uint64
	RentErr      error

	// StatusFunc answers GetSignatureStatuses. attempt starts at 1.
	// When nil, every signature is reported as finalized.
	StatusFunc func(attempt int) (*rpc.SignatureStatusesResult, error)

	SendSignature solana.Signature
	SendErr       error

	AirdropSignature solana.Signature
	AirdropErr       error

	Signatures    []*rpc.TransactionSignature
	SignaturesErr error

	Parsed    map[solana.Signature]*rpc.GetParsedTransactionResult
	ParsedErr map[solana.Signature]error
	// ParsedHook, when set, runs just before GetParsedTransaction returns.
	// Blocking in it delays that response.
	ParsedHook func(signature solana.Signature)

	mu       sync.Mutex
	calls    map[string]int
	sent     [][]byte
	airdrops []AirdropRequest
}

// AirdropRequest records one RequestAirdrop call.
type AirdropRequest struct {
	Account  solana.PublicKey
	Lamports uint64
}

// NewMockRPCClient creates a mock with a fixed blockhash and distinct,
// non-zero send and airdrop signatures.
func NewMockRPCClient() *MockRPCClient {
	var send, airdrop solana.Signature
	send[0], airdrop[0] = 1, 2
	var hash solana.Hash
	hash[0] = 7
	return &MockRPCClient{
		Blockhash:        hash,
		SendSignature:    send,
		AirdropSignature: airdrop,
		calls:            make(map[string]int),
	}
}

// StatusSequence returns a StatusFunc that reports statuses[attempt-1],
// repeating the last one. An empty status means the signature is unknown.
func StatusSequence(statuses ...rpc.ConfirmationStatusType) func(int) (*rpc.SignatureStatusesResult, error) {
	return func(attempt int) (*rpc.SignatureStatusesResult, error) {
		if len(statuses) == 0 {
			return nil, nil
		}
		i := min(attempt, len(statuses)) - 1
		if statuses[i] == "" {
			return nil, nil
		}
		return &rpc.SignatureStatusesResult{ConfirmationStatus: statuses[i]}, nil
	}
}

var errMockNoResponse = errors.New("mock: no response configured")

func (m *MockRPCClient) record(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
	return m.calls[method]
}

// Calls returns how many times method (JSON-RPC name, e.g. "getBalance") was called.
func (m *MockRPCClient) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of RPC calls of any kind.
func (m *MockRPCClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// SentTransactions returns the raw transactions passed to SendRawTransaction.
func (m *MockRPCClient) SentTransactions() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	copy(out, m.sent)
	return out
}

// AirdropRequests returns every RequestAirdrop call in order.
func (m *MockRPCClient) AirdropRequests() []AirdropRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AirdropRequest, len(m.airdrops))
	copy(out, m.airdrops)
	return out
}

func (m *MockRPCClient) GetBalance(
	ctx context.Context,
	account solana.PublicKey,
	commitment rpc.CommitmentType,
) (*rpc.GetBalanceResult, error) {
	n := m.record("getBalance")
	if m.BalanceErr != nil {
		return nil, m.BalanceErr
	}
	if len(m.Balances) == 0 {
		return &rpc.GetBalanceResult{}, nil
	}
	i := min(n, len(m.Balances)) - 1
	return &rpc.GetBalanceResult{Value: m.Balances[i]}, nil
}

func (m *MockRPCClient) GetLatestBlockhash(
	ctx context.Context,
	commitment rpc.CommitmentType,
) (*rpc.GetLatestBlockhashResult, error) {
	m.record("getLatestBlockhash")
	if m.BlockhashErr != nil {
		return nil, m.BlockhashErr
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: m.Blockhash},
	}, nil
}

func (m *MockRPCClient) GetMinimumBalanceForRentExemption(
	ctx context.Context,
	dataSize uint64,
	commitment rpc.CommitmentType,
) (uint64, error) {
	m.record("getMinimumBalanceForRentExemption")
	return m.RentLamports, m.RentErr
}

func (m *MockRPCClient) GetSignatureStatuses(
	ctx context.Context,
	searchTransactionHistory bool,
	signatures ...solana.Signature,
) (*rpc.GetSignatureStatusesResult, error) {
	n := m.record("getSignatureStatuses")
	fn := m.StatusFunc
	if fn == nil {
		fn = StatusSequence(rpc.ConfirmationStatusFinalized)
	}
	status, err := fn(n)
	if err != nil {
		return nil, err
	}
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{status},
	}, nil
}

func (m *MockRPCClient) SendRawTransaction(
	ctx context.Context,
	rawTx []byte,
	opts rpc.TransactionOpts,
) (solana.Signature, error) {
	m.record("sendTransaction")
	if m.SendErr != nil {
		return solana.Signature{}, m.SendErr
	}
	m.mu.Lock()
	m.sent = append(m.sent, rawTx)
	m.mu.Unlock()
	return m.SendSignature, nil
}

func (m *MockRPCClient) RequestAirdrop(
	ctx context.Context,
	account solana.PublicKey,
	lamports uint64,
	commitment rpc.CommitmentType,
) (solana.Signature, error) {
	m.record("requestAirdrop")
	if m.AirdropErr != nil {
		return solana.Signature{}, m.AirdropErr
	}
	m.mu.Lock()
	m.airdrops = append(m.airdrops, AirdropRequest{Account: account, Lamports: lamports})
	m.mu.Unlock()
	return m.AirdropSignature, nil
}

func (m *MockRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	m.record("getSignaturesForAddress")
	if m.SignaturesErr != nil {
		return nil, m.SignaturesErr
	}
	sigs := m.Signatures
	if opts != nil && opts.Limit != nil && *opts.Limit < len(sigs) {
		sigs = sigs[:*opts.Limit]
	}
	return sigs, nil
}

func (m *MockRPCClient) GetParsedTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetParsedTransactionOpts,
) (*rpc.GetParsedTransactionResult, error) {
	m.record("getParsedTransaction")
	if m.ParsedHook != nil {
		defer m.ParsedHook(signature)
	}
	if err, ok := m.ParsedErr[signature]; ok {
		return nil, err
	}
	if result, ok := m.Parsed[signature]; ok {
		return result, nil
	}
	return nil, errMockNoResponse
}
