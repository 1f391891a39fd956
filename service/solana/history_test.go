package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brojonat/solkit/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sig1 = solana.MustSignatureFromBase58("5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7")
	sig2 = solana.MustSignatureFromBase58("2TgM4N8qCMqLvfR8dxqTQgKygPNzT5KQkN5b5sT7eZPEkdxyLTXGnNQB3j7KG4DPFg5Qez5yNJBQRQ5r7DDnFfjG")
	sig3 = solana.MustSignatureFromBase58("3LzUfBWvh7uN5sNTVPkbDGq5SNrPBKDYTJqFmH8nHq6Z9VGJ7iCxB2rLFZsKrQNuJfTnKQ5D5YqGrNqvnKQZXMQE")
)

const testWallet = "11111111111111111111111111111111"

// parsedResult builds a getParsedTransaction response through JSON, the
// way the RPC client would decode it.
func parsedResult(t *testing.T, fee uint64, instructions ...string) *rpc.GetParsedTransactionResult {
	t.Helper()
	ixs := "[]"
	if len(instructions) > 0 {
		ixs = "["
		for i, ix := range instructions {
			if i > 0 {
				ixs += ","
			}
			ixs += ix
		}
		ixs += "]"
	}
	body := fmt.Sprintf(`{
		"slot": 100,
		"blockTime": 1700000000,
		"transaction": {"message": {"instructions": %s}},
		"meta": {"err": null, "fee": %d}
	}`, ixs, fee)

	var result rpc.GetParsedTransactionResult
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	return &result
}

func newTestHistory(mock *MockRPCClient) *History {
	return NewHistory(newTestConnection(mock), 2, nil, newTestLogger())
}

func TestHistory_EmptyAccount(t *testing.T) {
	mock := NewMockRPCClient()
	h := newTestHistory(mock)

	entries, err := h.Recent(context.Background(), testWallet, 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.Equal(t, 0, mock.Calls("getParsedTransaction"))
}

func TestHistory_PreservesNetworkOrder(t *testing.T) {
	now := solana.UnixTimeSeconds(time.Now().Unix())
	memo := "thanks"

	mock := NewMockRPCClient()
	mock.Signatures = []*rpc.TransactionSignature{
		{Signature: sig1, Slot: 102, BlockTime: &now, ConfirmationStatus: rpc.ConfirmationStatusFinalized, Memo: &memo},
		{Signature: sig2, Slot: 101, ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
		{Signature: sig3, Slot: 100, Err: map[string]any{"InstructionError": []any{0, "Custom"}}},
	}
	mock.Parsed = map[solana.Signature]*rpc.GetParsedTransactionResult{
		sig1: parsedResult(t, 5000,
			`{"program": "system", "programId": "11111111111111111111111111111111", "parsed": {"type": "transfer", "info": {"lamports": 1000}}}`,
		),
		sig2: parsedResult(t, 5000,
			`{"programId": "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"}`,
			`{"program": "spl-memo", "programId": "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr", "parsed": "hello"}`,
		),
		sig3: parsedResult(t, 5000),
	}

	// Hold the newest signature's detail until the other two have answered,
	// so results arrive in reverse of the listing order.
	var (
		others   sync.WaitGroup
		mu       sync.Mutex
		answered []solana.Signature
	)
	others.Add(2)
	mock.ParsedHook = func(sig solana.Signature) {
		if sig == sig1 {
			others.Wait()
		} else {
			defer others.Done()
		}
		mu.Lock()
		answered = append(answered, sig)
		mu.Unlock()
	}
	h := newTestHistory(mock)

	entries, err := h.Recent(context.Background(), testWallet, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Len(t, answered, 3)
	assert.Equal(t, sig1, answered[2], "newest detail answered last")

	assert.Equal(t, sig1.String(), entries[0].Signature)
	assert.Equal(t, sig2.String(), entries[1].Signature)
	assert.Equal(t, sig3.String(), entries[2].Signature)
	assert.Equal(t, 3, mock.Calls("getParsedTransaction"))

	assert.Equal(t, "system", entries[0].Program)
	assert.Equal(t, "finalized", entries[0].ConfirmationStatus)
	require.NotNil(t, entries[0].Memo)
	assert.Equal(t, "thanks", *entries[0].Memo)
	require.NotNil(t, entries[0].BlockTime)
	assert.Equal(t, uint64(5000), entries[0].Fee)

	// Unparsed instruction falls back to the known program name.
	assert.Equal(t, "spl-token", entries[1].Program)
	require.Len(t, entries[1].Instructions, 2)
	assert.Equal(t, "spl-memo", entries[1].Instructions[1].Program)

	// No instructions at all.
	assert.Equal(t, UnknownProgram, entries[2].Program)
	require.NotNil(t, entries[2].Err)
	assert.Contains(t, *entries[2].Err, "InstructionError")
}

func TestHistory_DetailFailureDegradesEntry(t *testing.T) {
	mock := NewMockRPCClient()
	mock.Signatures = []*rpc.TransactionSignature{{Signature: sig1, Slot: 1}, {Signature: sig2, Slot: 2}}
	mock.Parsed = map[solana.Signature]*rpc.GetParsedTransactionResult{
		sig2: parsedResult(t, 5000, `{"program": "system", "programId": "11111111111111111111111111111111"}`),
	}
	mock.ParsedErr = map[solana.Signature]error{sig1: errors.New("timeout")}
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	h := NewHistory(newTestConnection(mock), 2, metrics.NewMetrics(reg),
		slog.New(slog.NewJSONHandler(&logs, nil)))

	entries, err := h.Recent(context.Background(), testWallet, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, UnknownProgram, entries[0].Program)
	assert.Nil(t, entries[0].Detail)
	assert.Equal(t, "system", entries[1].Program)

	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP history_entries_degraded_total Total number of history entries returned without transaction detail
# TYPE history_entries_degraded_total counter
history_entries_degraded_total 1
`), "history_entries_degraded_total"))
	assert.Contains(t, logs.String(), `"msg":"transaction history missing details"`)
	assert.Contains(t, logs.String(), `"degraded":1`)
}

func TestHistory_RespectsLimit(t *testing.T) {
	mock := NewMockRPCClient()
	mock.Signatures = []*rpc.TransactionSignature{{Signature: sig1}, {Signature: sig2}, {Signature: sig3}}
	mock.Parsed = map[solana.Signature]*rpc.GetParsedTransactionResult{
		sig1: parsedResult(t, 0), sig2: parsedResult(t, 0), sig3: parsedResult(t, 0),
	}
	h := newTestHistory(mock)

	entries, err := h.Recent(context.Background(), testWallet, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHistory_Failures(t *testing.T) {
	t.Run("invalid address makes no calls", func(t *testing.T) {
		mock := NewMockRPCClient()
		_, err := newTestHistory(mock).Recent(context.Background(), "not-base58!", 10)
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Equal(t, "Invalid Solana wallet address.", err.Error())
		assert.Equal(t, 0, mock.TotalCalls())
	})

	t.Run("signature listing fails", func(t *testing.T) {
		mock := NewMockRPCClient()
		mock.SignaturesErr = errors.New("rate limited")
		_, err := newTestHistory(mock).Recent(context.Background(), testWallet, 10)
		require.Error(t, err)
		assert.Equal(t, KindNetwork, KindOf(err))
	})
}

func TestFilterByProgram(t *testing.T) {
	entries := []*HistoryEntry{
		{Signature: "a", Program: "system"},
		{Signature: "b", Program: "spl-token"},
		{Signature: "c", Program: "system"},
		{Signature: "d", Program: UnknownProgram},
	}

	assert.Len(t, FilterByProgram(entries, AllPrograms), 4)
	assert.Len(t, FilterByProgram(entries, ""), 4)

	system := FilterByProgram(entries, "system")
	require.Len(t, system, 2)
	assert.Equal(t, "a", system[0].Signature)
	assert.Equal(t, "c", system[1].Signature)

	assert.Empty(t, FilterByProgram(entries, "spl-memo"))

	assert.Equal(t, []string{"system", "spl-token", UnknownProgram}, Programs(entries))
}

func TestProgramName(t *testing.T) {
	assert.Equal(t, "system", ProgramName(solana.SystemProgramID))
	assert.Equal(t, "spl-associated-token-account", ProgramName(solana.SPLAssociatedTokenAccountProgramID))
	pk := solana.NewWallet().PublicKey()
	assert.Equal(t, pk.String(), ProgramName(pk))
}
