// Package token models fungible-token custody on the ledger: token accounts,
// associated accounts, transfers and delegate approvals. The auction house
// consumes it as its asset transfer capability.
package token

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"auctionhouse/core/state"
	"auctionhouse/core/types"
)

// AccountSize is the allocated data length of every token account.
const AccountSize = 165

var (
	// ProgramID owns every token account.
	ProgramID = solana.TokenProgramID
	// AssociatedProgramID derives associated token accounts.
	AssociatedProgramID = solana.SPLAssociatedTokenAccountProgramID
	// NativeMint marks settlement in native lamports instead of a token.
	NativeMint = solana.SolMint
)

var (
	ErrNotTokenAccount  = errors.New("token: not a token account")
	ErrMintMismatch     = errors.New("token: mint mismatch")
	ErrOwnerMismatch    = errors.New("token: owner does not match")
	ErrInsufficientFund = errors.New("token: insufficient funds")
	ErrInvalidAssociate = errors.New("token: not the associated token account")
	ErrOverflow         = errors.New("token: operation overflowed")
)

// Account is the decoded state of a token account. A zero Delegate means no
// approval is outstanding.
type Account struct {
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	Delegate        solana.PublicKey
	DelegatedAmount uint64
}

// HasDelegate reports whether an approval is outstanding.
func (a *Account) HasDelegate() bool { return a != nil && !a.Delegate.IsZero() }

// Encode lays the account out in AccountSize bytes.
func (a *Account) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(a); err != nil {
		return nil, err
	}
	out := make([]byte, AccountSize)
	copy(out, buf.Bytes())
	return out, nil
}

// Decode reads a token account from ledger state.
func Decode(acc *types.Account) (*Account, error) {
	if acc == nil || !acc.Owner.Equals(ProgramID) || len(acc.Data) < AccountSize {
		return nil, ErrNotTokenAccount
	}
	out := new(Account)
	if err := bin.NewBorshDecoder(acc.Data).Decode(out); err != nil {
		return nil, fmt.Errorf("token: decode: %w", err)
	}
	return out, nil
}

// NewLedgerAccount builds a rent-exempt ledger account holding ta. Used to
// seed balances.
func NewLedgerAccount(ta *Account, rent state.Rent) (*types.Account, error) {
	data, err := ta.Encode()
	if err != nil {
		return nil, err
	}
	return &types.Account{Lamports: rent.MinimumBalance(AccountSize), Owner: ProgramID, Data: data}, nil
}

// Load fetches and decodes the token account at addr.
func Load(tx *state.Tx, addr solana.PublicKey) (*Account, error) {
	acc, err := tx.Get(addr)
	if err != nil {
		return nil, err
	}
	ta, err := Decode(acc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, addr)
	}
	return ta, nil
}

func store(tx *state.Tx, addr solana.PublicKey, ta *Account) error {
	acc, err := tx.Get(addr)
	if err != nil {
		return err
	}
	data, err := ta.Encode()
	if err != nil {
		return err
	}
	acc.Data = data
	return nil
}

// AssociatedAddress returns the canonical token account for (wallet, mint).
func AssociatedAddress(wallet, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindAssociatedTokenAddress(wallet, mint)
}

// AssertAssociated requires addr to be the associated account of (wallet,
// mint) and to hold that mint for that owner.
func AssertAssociated(tx *state.Tx, addr, wallet, mint solana.PublicKey) (*Account, error) {
	want, _, err := AssociatedAddress(wallet, mint)
	if err != nil {
		return nil, err
	}
	if !want.Equals(addr) {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidAssociate, want, addr)
	}
	ta, err := Load(tx, addr)
	if err != nil {
		return nil, err
	}
	if !ta.Owner.Equals(wallet) {
		return nil, ErrOwnerMismatch
	}
	if !ta.Mint.Equals(mint) {
		return nil, ErrMintMismatch
	}
	return ta, nil
}

// InitializeAccount allocates a token account at account.Key for (mint,
// owner), funded by payer.
func InitializeAccount(tx *state.Tx, payer, account state.Authority, mint, owner solana.PublicKey) error {
	if err := tx.CreateAccount(payer, account, AccountSize, ProgramID); err != nil {
		return err
	}
	return store(tx, account.Key, &Account{Mint: mint, Owner: owner})
}

// CreateAssociatedAccount allocates the associated token account of (wallet,
// mint) if it does not exist yet and returns its address.
func CreateAssociatedAccount(tx *state.Tx, payer state.Authority, wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, bump, err := AssociatedAddress(wallet, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	acc, err := tx.Get(addr)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !acc.DataIsEmpty() {
		return addr, nil
	}
	seeds := [][]byte{wallet.Bytes(), ProgramID.Bytes(), mint.Bytes(), {bump}}
	account := state.ProgramAuthority(addr, AssociatedProgramID, seeds)
	if err := InitializeAccount(tx, payer, account, mint, wallet); err != nil {
		return solana.PublicKey{}, err
	}
	return addr, nil
}

// Transfer moves amount from src to dst. auth must be the source owner or its
// approved delegate; delegated transfers consume the approval.
func Transfer(tx *state.Tx, src, dst solana.PublicKey, auth state.Authority, amount uint64) error {
	if err := tx.Authorize(auth); err != nil {
		return err
	}
	from, err := Load(tx, src)
	if err != nil {
		return err
	}
	to, err := Load(tx, dst)
	if err != nil {
		return err
	}
	if !from.Mint.Equals(to.Mint) {
		return ErrMintMismatch
	}
	switch {
	case from.Owner.Equals(auth.Key):
	case from.HasDelegate() && from.Delegate.Equals(auth.Key):
		if from.DelegatedAmount < amount {
			return fmt.Errorf("%w: delegated %d, needs %d", ErrInsufficientFund, from.DelegatedAmount, amount)
		}
		from.DelegatedAmount -= amount
		if from.DelegatedAmount == 0 {
			from.Delegate = solana.PublicKey{}
		}
	default:
		return ErrOwnerMismatch
	}
	if from.Amount < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFund, src, from.Amount, amount)
	}
	if src.Equals(dst) {
		return store(tx, src, from)
	}
	sum := new(uint256.Int).Add(uint256.NewInt(to.Amount), uint256.NewInt(amount))
	if !sum.IsUint64() {
		return ErrOverflow
	}
	from.Amount -= amount
	to.Amount = sum.Uint64()
	if err := store(tx, src, from); err != nil {
		return err
	}
	return store(tx, dst, to)
}

// Approve lets delegate move up to amount from addr.
func Approve(tx *state.Tx, addr, delegate solana.PublicKey, owner state.Authority, amount uint64) error {
	if err := tx.Authorize(owner); err != nil {
		return err
	}
	ta, err := Load(tx, addr)
	if err != nil {
		return err
	}
	if !ta.Owner.Equals(owner.Key) {
		return ErrOwnerMismatch
	}
	ta.Delegate = delegate
	ta.DelegatedAmount = amount
	return store(tx, addr, ta)
}

// Revoke clears any outstanding approval on addr.
func Revoke(tx *state.Tx, addr solana.PublicKey, owner state.Authority) error {
	if err := tx.Authorize(owner); err != nil {
		return err
	}
	ta, err := Load(tx, addr)
	if err != nil {
		return err
	}
	if !ta.Owner.Equals(owner.Key) {
		return ErrOwnerMismatch
	}
	ta.Delegate = solana.PublicKey{}
	ta.DelegatedAmount = 0
	return store(tx, addr, ta)
}
