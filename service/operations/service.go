package operations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brojonat/solkit/service/metrics"
	"github.com/brojonat/solkit/service/nats"
	"github.com/brojonat/solkit/service/solana"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// DefaultClaimAmount is the SOL granted to each eligible address.
var DefaultClaimAmount = decimal.NewFromInt(1)

// Config holds the optional collaborators of a Service.
type Config struct {
	// ClaimAmount feeds the default FixedAmount predicate. Ignored when
	// Eligibility is set. Defaults to DefaultClaimAmount.
	ClaimAmount decimal.Decimal

	Eligibility EligibilityPredicate

	// Publisher, if set, receives one event per finished operation.
	Publisher nats.Publisher

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Service runs the claim, transfer and create-token pipelines:
// validate, preflight, build, sign and submit, then poll for confirmation.
// Every method returns a *Result and never a Go error. Operations run on the
// caller's goroutine; the Service itself holds no per-call state.
type Service struct {
	conn        *solana.Connection
	poller      *solana.Poller
	eligibility EligibilityPredicate
	publisher   nats.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewService wires a Service around a shared connection and poller.
func NewService(conn *solana.Connection, poller *solana.Poller, cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Eligibility == nil {
		amount := cfg.ClaimAmount
		if !amount.IsPositive() {
			amount = DefaultClaimAmount
		}
		cfg.Eligibility = FixedAmount(amount)
	}
	return &Service{
		conn:        conn,
		poller:      poller,
		eligibility: cfg.Eligibility,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
}

// CheckEligibility reports whether address may claim and how much.
// Invalid addresses and predicate failures are ineligible for zero SOL.
func (s *Service) CheckEligibility(ctx context.Context, address string) Eligibility {
	pk, err := solana.ValidateAddress(address)
	if err != nil {
		return Eligibility{Eligible: false, Amount: decimal.Zero, Reason: "Invalid Solana wallet address."}
	}
	e, err := s.eligibility.Check(ctx, pk)
	if err != nil {
		s.logger.WarnContext(ctx, "eligibility check failed",
			"address", address,
			"error", err,
		)
		return Eligibility{Eligible: false, Amount: decimal.Zero, Reason: "Eligibility could not be determined."}
	}
	if !e.Eligible {
		e.Amount = decimal.Zero
	}
	return e
}

// Claim requests the eligible airdrop amount for address from the faucet
// and waits for it to confirm.
func (s *Service) Claim(ctx context.Context, address string) *Result {
	r := s.begin(ctx, OpClaim, address)

	pk, err := solana.ValidateAddress(address)
	if err != nil {
		return r.fail(ctx, &solana.Error{Kind: solana.KindValidation, Message: "Invalid Solana wallet address."})
	}
	r.wallet = pk.String()

	e, err := s.eligibility.Check(ctx, pk)
	if err != nil {
		return r.fail(ctx, &solana.Error{Kind: solana.KindNetwork, Message: "Eligibility could not be determined.", Err: err})
	}
	if !e.Eligible {
		msg := e.Reason
		if msg == "" {
			msg = "Wallet is not eligible for the airdrop."
		}
		return r.fail(ctx, &solana.Error{Kind: solana.KindValidation, Message: msg})
	}
	lamports, err := solana.SOLToLamports(e.Amount)
	if err != nil {
		return r.fail(ctx, err)
	}

	r.advance(ctx, StateAwaitingSignature)
	sig, err := solana.RequestAirdrop(ctx, s.conn, pk, lamports)
	if err != nil {
		return r.fail(ctx, err)
	}
	if err := r.confirm(ctx, sig); err != nil {
		return r.fail(ctx, err)
	}

	amount := e.Amount
	r.result.Amount = &amount
	r.result.NewBalance = s.balanceAfter(ctx, pk)
	return r.succeed(ctx, sig)
}

// Transfer sends amount SOL from the sender's wallet to receiver.
func (s *Service) Transfer(ctx context.Context, sender solana.Sender, receiver string, amount decimal.Decimal) *Result {
	r := s.begin(ctx, OpTransfer, "")
	r.receiver = receiver

	from, err := solana.RequireConnected(sender)
	if err != nil {
		return r.fail(ctx, err)
	}
	r.wallet = from.String()

	to, err := solana.ValidateAddress(receiver)
	if err != nil {
		return r.fail(ctx, &solana.Error{Kind: solana.KindValidation, Message: "Invalid receiver Solana wallet address."})
	}
	if !amount.IsPositive() {
		return r.fail(ctx, &solana.Error{Kind: solana.KindValidation, Message: "Transfer amount must be greater than zero."})
	}
	lamports, err := solana.SOLToLamports(amount)
	if err != nil {
		return r.fail(ctx, err)
	}

	r.advance(ctx, StatePreflightChecking)
	if _, err := solana.CheckSufficientBalance(ctx, s.conn, solana.Requirement{
		Payer:    from,
		Lamports: lamports,
		Fee:      solana.TransferFeeLamports,
	}); err != nil {
		return r.fail(ctx, err)
	}

	r.advance(ctx, StateBuilding)
	blockhash, err := s.conn.LatestBlockhash(ctx)
	if err != nil {
		return r.fail(ctx, &solana.Error{Kind: solana.KindNetwork, Message: "failed to fetch recent blockhash: " + err.Error(), Err: err})
	}
	req, err := solana.BuildTransfer(from, to, lamports, blockhash)
	if err != nil {
		return r.fail(ctx, err)
	}

	r.advance(ctx, StateAwaitingSignature)
	sig, err := solana.SubmitWithSender(ctx, s.conn, sender, req)
	if err != nil {
		return r.fail(ctx, err)
	}
	if err := r.confirm(ctx, sig); err != nil {
		return r.fail(ctx, err)
	}

	r.result.Amount = &amount
	r.result.NewBalance = s.balanceAfter(ctx, from)
	return r.succeed(ctx, sig)
}

// TransferWithWallet narrows w to a Sender and runs Transfer. A wallet that
// cannot submit yields a WalletUnavailable result without network calls.
func (s *Service) TransferWithWallet(ctx context.Context, w solana.Wallet, receiver string, amount decimal.Decimal) *Result {
	sender, err := solana.AsSender(w)
	if err != nil {
		r := s.begin(ctx, OpTransfer, "")
		r.receiver = receiver
		return r.fail(ctx, err)
	}
	return s.Transfer(ctx, sender, receiver, amount)
}

// CreateTokenWithWallet narrows w to a Signer and runs CreateToken. A wallet
// that cannot sign yields a WalletUnavailable result without network calls.
func (s *Service) CreateTokenWithWallet(ctx context.Context, w solana.Wallet, params solana.TokenParams) *Result {
	signer, err := solana.AsSigner(w)
	if err != nil {
		r := s.begin(ctx, OpCreateToken, "")
		return r.fail(ctx, err)
	}
	return s.CreateToken(ctx, signer, params)
}

// CreateToken creates a new SPL token mint, an associated token account for
// the mint authority, and mints the total supply into it, all in one
// transaction paid for and signed by signer.
func (s *Service) CreateToken(ctx context.Context, signer solana.Signer, params solana.TokenParams) *Result {
	r := s.begin(ctx, OpCreateToken, "")

	payer, err := solana.RequireConnected(signer)
	if err != nil {
		return r.fail(ctx, err)
	}
	r.wallet = payer.String()

	spec, err := solana.ValidateTokenParams(params)
	if err != nil {
		return r.fail(ctx, err)
	}

	mintKey, err := solanago.NewRandomPrivateKey()
	if err != nil {
		return r.fail(ctx, err)
	}
	mint := mintKey.PublicKey()
	s.logger.InfoContext(ctx, "generated token mint", "mint", mint.String())

	r.advance(ctx, StatePreflightChecking)
	rent, err := s.conn.MinimumBalanceForRentExemption(ctx, solana.MintAccountSize)
	if err != nil {
		return r.fail(ctx, &solana.Error{Kind: solana.KindNetwork, Message: "failed to fetch rent-exempt minimum: " + err.Error(), Err: err})
	}
	if _, err := solana.CheckSufficientBalance(ctx, s.conn, solana.Requirement{
		Payer:    payer,
		Lamports: rent,
		Fee:      solana.TokenCreationBufferLamports,
		Purpose:  "token creation",
	}); err != nil {
		return r.fail(ctx, err)
	}

	r.advance(ctx, StateBuilding)
	blockhash, err := s.conn.LatestBlockhash(ctx)
	if err != nil {
		return r.fail(ctx, &solana.Error{Kind: solana.KindNetwork, Message: "failed to fetch recent blockhash: " + err.Error(), Err: err})
	}
	req, err := solana.BuildCreateToken(spec, payer, mint, rent, blockhash)
	if err != nil {
		return r.fail(ctx, err)
	}

	r.advance(ctx, StateAwaitingSignature)
	sig, err := solana.SubmitWithSigner(ctx, s.conn, signer, req.Request, mintKey)
	if err != nil {
		return r.fail(ctx, err)
	}
	if err := r.confirm(ctx, sig); err != nil {
		return r.fail(ctx, err)
	}

	r.result.TokenAddress = req.Mint.String()
	r.result.TokenAccountAddress = req.TokenAccount.String()
	return r.succeed(ctx, sig)
}

// balanceAfter reads the post-confirmation balance. The operation already
// landed, so a failed read only omits the field.
func (s *Service) balanceAfter(ctx context.Context, account solanago.PublicKey) *decimal.Decimal {
	lamports, err := s.conn.Balance(ctx, account)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read balance after confirmation",
			"account", account.String(),
			"error", err,
		)
		return nil
	}
	sol := solana.LamportsToSOL(lamports)
	return &sol
}

// run carries one operation from begin to its terminal state.
type run struct {
	s        *Service
	tracker  *Tracker
	result   *Result
	started  time.Time
	wallet   string
	receiver string
	pending  solanago.Signature
}

func (s *Service) begin(ctx context.Context, op Operation, wallet string) *run {
	r := &run{
		s:       s,
		tracker: NewTracker(op, s.logger),
		result:  &Result{Operation: op},
		started: time.Now(),
		wallet:  wallet,
	}
	r.advance(ctx, StateValidating)
	return r
}

func (r *run) advance(ctx context.Context, next State) {
	if err := r.tracker.Advance(ctx, next); err != nil {
		r.s.logger.ErrorContext(ctx, "operation state machine violated", "error", err)
	}
	r.result.State = r.tracker.State()
}

// confirm walks Submitted -> Polling and waits for sig.
func (r *run) confirm(ctx context.Context, sig solanago.Signature) error {
	r.pending = sig
	r.advance(ctx, StateSubmitted)
	r.advance(ctx, StatePolling)

	c := r.s.poller.Await(ctx, sig)
	r.result.Attempts = c.Attempts
	return c.AsError()
}

func (r *run) succeed(ctx context.Context, sig solanago.Signature) *Result {
	r.result.Success = true
	r.result.Signature = sig.String()
	r.advance(ctx, StateConfirmed)

	r.s.logger.InfoContext(ctx, "operation confirmed",
		"operation", r.result.Operation,
		"signature", r.result.Signature,
		"wallet", r.wallet,
		"attempts", r.result.Attempts,
	)
	return r.finish(ctx)
}

func (r *run) fail(ctx context.Context, err error) *Result {
	kind := solana.KindOf(err)
	if kind == "" {
		kind = solana.KindNetwork
	}

	r.result.Success = false
	r.result.clearSuccessFields()
	r.result.ErrorKind = kind
	r.result.Error = err.Error()
	r.result.err = err

	terminal := StateFailed
	if errors.Is(err, &solana.Error{Kind: solana.KindConfirmationTimeout}) {
		terminal = StateTimedOut
	}
	r.advance(ctx, terminal)

	attrs := []any{
		"operation", r.result.Operation,
		"wallet", r.wallet,
		"error_kind", kind,
		"error", err,
	}
	// A timed out transaction may still land; keep its signature in the logs.
	if r.pending != (solanago.Signature{}) {
		attrs = append(attrs, "signature", r.pending.String())
	}
	r.s.logger.WarnContext(ctx, "operation failed", attrs...)
	return r.finish(ctx)
}

func (r *run) finish(ctx context.Context) *Result {
	completed := time.Now()
	r.s.metrics.RecordOperation(string(r.result.Operation), string(r.result.State), completed.Sub(r.started).Seconds())

	event := newOperationEvent(r.result, r.wallet, r.receiver, r.started, completed)
	if !r.result.Success && r.pending != (solanago.Signature{}) {
		event.Signature = r.pending.String()
	}
	// Publish even when the caller's ctx is done; the event records that outcome.
	r.s.publish(context.WithoutCancel(ctx), event)
	return r.result
}
