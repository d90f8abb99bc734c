package state

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"auctionhouse/core/types"
	"auctionhouse/crypto/pda"
	"auctionhouse/storage"
)

var (
	ErrMissingSigner      = errors.New("ledger: missing required signature")
	ErrInsufficientFunds  = errors.New("ledger: insufficient lamports")
	ErrAccountInUse       = errors.New("ledger: account already in use")
	ErrNotSystemOwned     = errors.New("ledger: source account not owned by system program")
	ErrIllegalOwner       = errors.New("ledger: account not owned by program")
	ErrArithmeticOverflow = errors.New("ledger: arithmetic overflow")
)

// Authority names who is authorising a debit. A zero Seeds slice means Key
// must have signed the transaction; otherwise Key must be the program address
// derived from Seeds under Program, which only that program can produce.
type Authority struct {
	Key     solana.PublicKey
	Seeds   [][]byte
	Program solana.PublicKey
}

// SignerAuthority is an Authority satisfied by a transaction signature.
func SignerAuthority(key solana.PublicKey) Authority { return Authority{Key: key} }

// ProgramAuthority is an Authority satisfied by seeds that already carry
// their bump.
func ProgramAuthority(key solana.PublicKey, program solana.PublicKey, seedsWithBump [][]byte) Authority {
	return Authority{Key: key, Seeds: seedsWithBump, Program: program}
}

// Tx is the working set of a single transition. Accounts returned by Get are
// live working copies; mutating them is how a transition writes.
type Tx struct {
	ledger   *Ledger
	allowed  map[solana.PublicKey]struct{}
	signers  map[solana.PublicKey]struct{}
	working  map[solana.PublicKey]*types.Account
	original map[solana.PublicKey]uint64
	order    []solana.PublicKey
	marker   []byte
}

func newTx(l *Ledger, accounts, signers []solana.PublicKey) *Tx {
	tx := &Tx{
		ledger:   l,
		allowed:  make(map[solana.PublicKey]struct{}, len(accounts)),
		signers:  make(map[solana.PublicKey]struct{}, len(signers)),
		working:  make(map[solana.PublicKey]*types.Account),
		original: make(map[solana.PublicKey]uint64),
	}
	for _, key := range accounts {
		tx.allowed[key] = struct{}{}
	}
	for _, key := range signers {
		tx.signers[key] = struct{}{}
	}
	return tx
}

// Rent returns the ledger's rent parameters.
func (tx *Tx) Rent() Rent { return tx.ledger.rent }

// IsSigner reports whether key signed the transaction.
func (tx *Tx) IsSigner(key solana.PublicKey) bool {
	_, ok := tx.signers[key]
	return ok
}

// Get returns the working copy of addr. Absent accounts come back as an empty
// system-owned account that springs into existence once funded.
func (tx *Tx) Get(addr solana.PublicKey) (*types.Account, error) {
	if acc, ok := tx.working[addr]; ok {
		return acc, nil
	}
	if _, ok := tx.allowed[addr]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotLocked, addr)
	}
	acc, err := tx.ledger.load(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{Owner: solana.SystemProgramID}
	}
	tx.working[addr] = acc
	tx.original[addr] = acc.Lamports
	tx.order = append(tx.order, addr)
	return acc, nil
}

// Exists reports whether addr holds lamports or data in the working set.
func (tx *Tx) Exists(addr solana.PublicKey) (bool, error) {
	acc, err := tx.Get(addr)
	if err != nil {
		return false, err
	}
	return !acc.IsEmpty(), nil
}

// Authorize checks that auth may act for auth.Key in this transaction.
func (tx *Tx) Authorize(auth Authority) error {
	if len(auth.Seeds) == 0 {
		if !tx.IsSigner(auth.Key) {
			return fmt.Errorf("%w: %s", ErrMissingSigner, auth.Key)
		}
		return nil
	}
	addr, err := solana.CreateProgramAddress(auth.Seeds, auth.Program)
	if err != nil || !addr.Equals(auth.Key) {
		return fmt.Errorf("%w: program signature for %s", pda.ErrDerivationMismatch, auth.Key)
	}
	return nil
}

// Transfer is the system transfer: it moves lamports out of a system-owned
// account on behalf of auth.
func (tx *Tx) Transfer(auth Authority, to solana.PublicKey, lamports uint64) error {
	if err := tx.Authorize(auth); err != nil {
		return err
	}
	from, err := tx.Get(auth.Key)
	if err != nil {
		return err
	}
	if len(from.Data) > 0 || !from.Owner.Equals(solana.SystemProgramID) {
		return fmt.Errorf("%w: %s", ErrNotSystemOwned, auth.Key)
	}
	return tx.move(auth.Key, to, lamports)
}

// Reassign moves lamports out of an account owned by program. The owning
// program may debit its accounts without a signature.
func (tx *Tx) Reassign(program, from, to solana.PublicKey, lamports uint64) error {
	src, err := tx.Get(from)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(program) {
		return fmt.Errorf("%w: %s is owned by %s", ErrIllegalOwner, from, src.Owner)
	}
	return tx.move(from, to, lamports)
}

func (tx *Tx) move(from, to solana.PublicKey, lamports uint64) error {
	src, err := tx.Get(from)
	if err != nil {
		return err
	}
	dst, err := tx.Get(to)
	if err != nil {
		return err
	}
	if lamports == 0 {
		return nil
	}
	if src.Lamports < lamports {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from, src.Lamports, lamports)
	}
	sum := new(uint256.Int).Add(uint256.NewInt(dst.Lamports), uint256.NewInt(lamports))
	if !sum.IsUint64() {
		return ErrArithmeticOverflow
	}
	src.Lamports -= lamports
	dst.Lamports = sum.Uint64()
	return nil
}

// CreateAccount funds addr to the rent-exempt minimum for space bytes, sizes
// its data and assigns it to owner. Both payer and the new account must
// authorise the creation.
func (tx *Tx) CreateAccount(payer, account Authority, space int, owner solana.PublicKey) error {
	if err := tx.Authorize(account); err != nil {
		return err
	}
	acc, err := tx.Get(account.Key)
	if err != nil {
		return err
	}
	if len(acc.Data) > 0 || !acc.Owner.Equals(solana.SystemProgramID) {
		return fmt.Errorf("%w: %s", ErrAccountInUse, account.Key)
	}
	required := tx.Rent().MinimumBalance(space)
	if acc.Lamports < required {
		if err := tx.Transfer(payer, account.Key, required-acc.Lamports); err != nil {
			return err
		}
	}
	acc.Data = make([]byte, space)
	acc.Owner = owner
	return nil
}

func (tx *Tx) checkConservation() error {
	// 256-bit totals cannot overflow for any number of u64 balances.
	before, after := new(uint256.Int), new(uint256.Int)
	for _, addr := range tx.order {
		before.Add(before, uint256.NewInt(tx.original[addr]))
		after.Add(after, uint256.NewInt(tx.working[addr].Lamports))
	}
	if !before.Eq(after) {
		return fmt.Errorf("%w: before %s, after %s", ErrLamportImbalance, before.Dec(), after.Dec())
	}
	return nil
}

func (tx *Tx) commit() error {
	batch := storage.NewBatch()
	for _, addr := range tx.order {
		acc := tx.working[addr]
		// Zero-lamport accounts are reclaimed; the address becomes reusable.
		if acc.Lamports == 0 {
			batch.Delete(accountKey(addr))
			continue
		}
		encoded, err := encodeAccount(acc)
		if err != nil {
			return fmt.Errorf("ledger: encode %s: %w", addr, err)
		}
		batch.Put(accountKey(addr), encoded)
	}
	if len(tx.marker) > 0 {
		batch.Put(tx.marker, []byte{1})
	}
	return tx.ledger.db.Write(batch)
}
