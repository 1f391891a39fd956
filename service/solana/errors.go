package solana

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can render it without string matching.
type ErrorKind string

const (
	// KindValidation covers malformed addresses, out-of-range numbers and
	// missing fields. Always detected before any network call.
	KindValidation ErrorKind = "validation_error"

	// KindWalletUnavailable means the wallet is not connected or lacks a
	// capability the flow needs.
	KindWalletUnavailable ErrorKind = "wallet_unavailable"

	// KindInsufficientFunds is a failed balance preflight.
	KindInsufficientFunds ErrorKind = "insufficient_funds"

	// KindSubmission means the network rejected the transaction at send time.
	KindSubmission ErrorKind = "submission_error"

	// KindConfirmationTimeout means the signature never reached confirmed or
	// finalized within the poll budget. The transaction may still land.
	KindConfirmationTimeout ErrorKind = "confirmation_timeout"

	// KindConfirmationFailed means the network reported an execution error
	// for a submitted signature.
	KindConfirmationFailed ErrorKind = "confirmation_failed"

	// KindNetwork is an RPC failure outside submission (balance, blockhash,
	// rent or history reads).
	KindNetwork ErrorKind = "network_error"
)

// Error is the single error type returned by this package.
// Message is short and user-facing; Err carries the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
// This makes errors.Is(err, &Error{Kind: KindValidation}) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func validationErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func walletUnavailable(msg string) *Error {
	return &Error{Kind: KindWalletUnavailable, Message: msg}
}

func submissionError(err error) *Error {
	return &Error{Kind: KindSubmission, Message: err.Error(), Err: err}
}

func networkError(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}
