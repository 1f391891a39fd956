package solana

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"
)

// MintAccountSize is the on-chain size in bytes of an SPL Token mint account.
const MintAccountSize uint64 = 82

// Request is an unsigned transaction ready for signing and submission.
// A Request may be submitted once; later attempts fail with KindSubmission.
type Request struct {
	Tx           *solana.Transaction
	Instructions []solana.Instruction
	FeePayer     solana.PublicKey
	Blockhash    solana.Hash

	submitted atomic.Bool
}

func newRequest(ixs []solana.Instruction, payer solana.PublicKey, blockhash solana.Hash) (*Request, error) {
	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("failed to assemble transaction: %w", err)
	}
	return &Request{
		Tx:           tx,
		Instructions: ixs,
		FeePayer:     payer,
		Blockhash:    blockhash,
	}, nil
}

// ProgramIDs returns the program invoked by each instruction, in order.
func (r *Request) ProgramIDs() []solana.PublicKey {
	ids := make([]solana.PublicKey, len(r.Instructions))
	for i, ix := range r.Instructions {
		ids[i] = ix.ProgramID()
	}
	return ids
}

var errAlreadySubmitted = errors.New("transaction request was already submitted")

// markSubmitted flips the request to submitted, failing if it already was.
func (r *Request) markSubmitted() error {
	if !r.submitted.CompareAndSwap(false, true) {
		return submissionError(errAlreadySubmitted)
	}
	return nil
}

// BuildTransfer assembles a single system-program transfer of lamports.
func BuildTransfer(from, to solana.PublicKey, lamports uint64, blockhash solana.Hash) (*Request, error) {
	if lamports == 0 {
		return nil, validationErrorf("Transfer amount must be greater than zero.")
	}
	ix := system.NewTransferInstruction(lamports, from, to).Build()
	return newRequest([]solana.Instruction{ix}, from, blockhash)
}

// TokenParams are the user-supplied inputs for a new SPL token.
// Name, Symbol, Description, Website and MetadataURI are descriptive only
// and never written on-chain.
type TokenParams struct {
	Name            string          `json:"name"`
	Symbol          string          `json:"symbol"`
	Decimals        int             `json:"decimals"`
	TotalSupply     decimal.Decimal `json:"total_supply"`
	MintAuthority   string          `json:"mint_authority"`
	FreezeAuthority string          `json:"freeze_authority,omitempty"`
	Description     string          `json:"description,omitempty"`
	Website         string          `json:"website,omitempty"`
	MetadataURI     string          `json:"metadata_uri,omitempty"`
}

// TokenSpec is a validated TokenParams with addresses decoded and the
// supply converted to base units.
type TokenSpec struct {
	Params          TokenParams
	Decimals        uint8
	SupplyUnits     uint64
	MintAuthority   solana.PublicKey
	FreezeAuthority *solana.PublicKey
}

// ValidateTokenParams checks token parameters without touching the network.
// Checks run in a fixed order and the first failure is returned.
func ValidateTokenParams(p TokenParams) (TokenSpec, error) {
	mintAuthority, err := ValidateAddress(p.MintAuthority)
	if err != nil {
		return TokenSpec{}, validationErrorf("Invalid mint authority Solana wallet address.")
	}

	var freezeAuthority *solana.PublicKey
	if p.FreezeAuthority != "" {
		fa, err := ValidateAddress(p.FreezeAuthority)
		if err != nil {
			return TokenSpec{}, validationErrorf("Invalid freeze authority Solana wallet address.")
		}
		freezeAuthority = &fa
	}

	if p.Decimals < 0 || p.Decimals > MaxTokenDecimals {
		return TokenSpec{}, validationErrorf("Decimals must be between 0 and %d.", MaxTokenDecimals)
	}

	units, err := TokenBaseUnits(p.TotalSupply, uint8(p.Decimals))
	if err != nil {
		return TokenSpec{}, err
	}

	return TokenSpec{
		Params:          p,
		Decimals:        uint8(p.Decimals),
		SupplyUnits:     units,
		MintAuthority:   mintAuthority,
		FreezeAuthority: freezeAuthority,
	}, nil
}

// TokenRequest is the create-token Request plus the addresses it creates.
type TokenRequest struct {
	*Request
	Mint         solana.PublicKey
	TokenAccount solana.PublicKey
}

// BuildCreateToken assembles the four create-token instructions in order:
// create the mint account, initialize the mint, create the mint authority's
// associated token account, and mint the full supply into it.
func BuildCreateToken(spec TokenSpec, payer, mint solana.PublicKey, rentLamports uint64, blockhash solana.Hash) (*TokenRequest, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(spec.MintAuthority, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive associated token account: %w", err)
	}

	createMint := system.NewCreateAccountInstruction(
		rentLamports,
		MintAccountSize,
		solana.TokenProgramID,
		payer,
		mint,
	).Build()

	initBuilder := token.NewInitializeMintInstructionBuilder().
		SetDecimals(spec.Decimals).
		SetMintAuthority(spec.MintAuthority).
		SetMintAccount(mint).
		SetSysVarRentPubkeyAccount(solana.SysVarRentPubkey)
	if spec.FreezeAuthority != nil {
		initBuilder.SetFreezeAuthority(*spec.FreezeAuthority)
	}
	initMint, err := initBuilder.ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("failed to build initialize-mint instruction: %w", err)
	}

	createATA := associatedtokenaccount.NewCreateInstruction(payer, spec.MintAuthority, mint).Build()

	mintTo := token.NewMintToInstruction(
		spec.SupplyUnits,
		mint,
		ata,
		spec.MintAuthority,
		nil,
	).Build()

	req, err := newRequest([]solana.Instruction{createMint, initMint, createATA, mintTo}, payer, blockhash)
	if err != nil {
		return nil, err
	}
	return &TokenRequest{Request: req, Mint: mint, TokenAccount: ata}, nil
}
