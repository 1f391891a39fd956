package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/brojonat/solkit/service/solana"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJQFilterMatching(t *testing.T) {
	memo := `{"order_id": "12345"}`
	failed := "transaction failed: InstructionError"
	entry := &solana.HistoryEntry{
		Signature: "sig-1",
		Slot:      250,
		Memo:      &memo,
		Program:   "System Program",
		Fee:       5000,
	}
	failedEntry := &solana.HistoryEntry{Signature: "sig-2", Slot: 10, Err: &failed, Program: solana.UnknownProgram}

	tests := []struct {
		name        string
		entry       *solana.HistoryEntry
		jqFilters   []string
		expectMatch bool
	}{
		{"program match", entry, []string{`.program == "System Program"`}, true},
		{"program mismatch", entry, []string{`.program == "Token Program"`}, false},
		{"numeric comparison", entry, []string{`.slot > 100`}, true},
		{"all filters must pass", entry, []string{`.slot > 100`, `.fee > 10000`}, false},
		{"memo field present", entry, []string{`.memo | contains("12345")`}, true},
		{"missing field is null", entry, []string{`.err`}, false},
		{"failed transactions only", failedEntry, []string{`.err != null`}, true},
		{"filter error rejects", entry, []string{`.slot | ascii_downcase`}, false},
		{"empty output rejects", entry, []string{`empty`}, false},
		{"non-boolean is truthy", entry, []string{`.signature`}, true},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes, err := compileJQFilters(tt.jqFilters)
			require.NoError(t, err)
			assert.Equal(t, tt.expectMatch, matchesAll(tt.entry, codes, logger))
		})
	}
}

func TestCompileJQFilters_Invalid(t *testing.T) {
	_, err := compileJQFilters([]string{`.program ==`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse jq filter")
}

func TestIsTruthy(t *testing.T) {
	assert.False(t, isTruthy(nil))
	assert.False(t, isTruthy(false))
	assert.True(t, isTruthy(true))
	assert.True(t, isTruthy(0))
	assert.True(t, isTruthy(""))
	assert.True(t, isTruthy([]any{}))
}

func historyMock() *solana.MockRPCClient {
	mock := solana.NewMockRPCClient()
	for i := 0; i < 3; i++ {
		var sig solanago.Signature
		sig[0] = byte(10 + i)
		mock.Signatures = append(mock.Signatures, &rpc.TransactionSignature{
			Signature: sig,
			Slot:      uint64(300 - i*100),
		})
	}
	return mock
}

func TestHistoryCommand(t *testing.T) {
	mock := historyMock()
	addr := solanago.NewWallet().PublicKey().String()

	out, err := runApp(t, mock, "--json", "history", "--limit", "2", addr)
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, mock.Signatures[0].Signature.String(), entries[0]["signature"])
	assert.Equal(t, solana.UnknownProgram, entries[0]["program"], "detail fetch failed, entry kept")
	assert.Equal(t, 1, mock.Calls("getSignaturesForAddress"))
	assert.Equal(t, 2, mock.Calls("getParsedTransaction"))
}

func TestHistoryCommand_Filters(t *testing.T) {
	mock := historyMock()
	addr := solanago.NewWallet().PublicKey().String()

	out, err := runApp(t, mock, "--json", "history", "--must-jq", ".slot >= 200", addr)
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 2)

	out, err = runApp(t, mock, "history", "--program", "Token Program", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions found")

	out, err = runApp(t, mock, "history", "--programs", addr)
	require.NoError(t, err)
	assert.Equal(t, solana.UnknownProgram+"\n", out)
}

func TestHistoryCommand_Errors(t *testing.T) {
	mock := historyMock()

	_, err := runApp(t, mock, "history", "not-an-address")
	require.Error(t, err)
	assert.Equal(t, solana.KindValidation, solana.KindOf(err))

	_, err = runApp(t, mock, "history", "--limit", "5000", solanago.NewWallet().PublicKey().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit must be between 1 and 1000")

	_, err = runApp(t, mock, "history", "--must-jq", "(", solanago.NewWallet().PublicKey().String())
	require.Error(t, err)

	assert.Zero(t, mock.TotalCalls())
}

func TestPrintHistory_Text(t *testing.T) {
	memo := "hello"
	var buf bytes.Buffer
	printHistory(&buf, "addr", []*solana.HistoryEntry{{
		Signature: "sig-1",
		Slot:      7,
		Program:   "System Program",
		Fee:       5000,
		Memo:      &memo,
		Instructions: []solana.InstructionSummary{
			{Program: "System Program", Type: "transfer"},
			{Program: "Memo Program"},
		},
	}})

	out := buf.String()
	assert.Contains(t, out, "Found 1 transaction(s) for wallet addr")
	assert.Contains(t, out, "Fee:       0.000005 SOL")
	assert.Contains(t, out, "Calls:     System Program:transfer, Memo Program")
	assert.Contains(t, out, "Memo:      hello")
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, "warn")
	logger.Info("dropped")
	logger.Warn("kept", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"key":"value"`)
}
