package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"auctionhouse/core/types"
	"auctionhouse/storage"
)

var (
	ErrNilDatabase      = errors.New("ledger: database not configured")
	ErrAccountNotLocked = errors.New("ledger: account not declared by transaction")
	ErrLamportImbalance = errors.New("ledger: lamports created or destroyed")
	ErrAlreadyProcessed = errors.New("ledger: message already processed")
)

var (
	accountPrefix   = []byte("account:")
	processedPrefix = []byte("processed:")
)

// processedKey marks a committed message. Messages are hashed so the key
// length does not depend on the payload.
func processedKey(msg []byte) []byte {
	return ethcrypto.Keccak256(processedPrefix, ethcrypto.Keccak256(msg))
}

func accountKey(addr solana.PublicKey) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr[:])
	return ethcrypto.Keccak256(buf)
}

// Ledger stores accounts and admits state transitions one at a time per
// account. Each call to Execute is all-or-nothing.
type Ledger struct {
	db     storage.Database
	locks  *lockTable
	rent   Rent
	logger *slog.Logger
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithRent overrides the rent parameters.
func WithRent(r Rent) Option { return func(l *Ledger) { l.rent = r } }

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLedger creates a ledger on top of db.
func NewLedger(db storage.Database, opts ...Option) *Ledger {
	l := &Ledger{
		db:     db,
		locks:  newLockTable(),
		rent:   DefaultRent(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Rent returns the rent parameters in force.
func (l *Ledger) Rent() Rent { return l.rent }

func (l *Ledger) load(addr solana.PublicKey) (*types.Account, error) {
	if l == nil || l.db == nil {
		return nil, ErrNilDatabase
	}
	raw, err := l.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: load %s: %w", addr, err)
	}
	acc := new(types.Account)
	if err := bin.NewBorshDecoder(raw).Decode(acc); err != nil {
		return nil, fmt.Errorf("ledger: decode %s: %w", addr, err)
	}
	return acc, nil
}

func encodeAccount(acc *types.Account) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(acc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Account returns the committed state of addr, or nil when it does not exist.
// Reads take no lock; they observe the last committed transition.
func (l *Ledger) Account(addr solana.PublicKey) (*types.Account, error) {
	return l.load(addr)
}

// Balance returns the committed lamport balance of addr.
func (l *Ledger) Balance(addr solana.PublicKey) (uint64, error) {
	acc, err := l.load(addr)
	if err != nil || acc == nil {
		return 0, err
	}
	return acc.Lamports, nil
}

// Airdrop credits lamports to addr out of thin air. It exists for genesis
// funding, local tooling and tests.
func (l *Ledger) Airdrop(ctx context.Context, addr solana.PublicKey, lamports uint64) error {
	return l.execute(ctx, Request{Accounts: []solana.PublicKey{addr}}, false, func(tx *Tx) error {
		acc, err := tx.Get(addr)
		if err != nil {
			return err
		}
		next := new(uint256.Int).Add(uint256.NewInt(acc.Lamports), uint256.NewInt(lamports))
		if !next.IsUint64() {
			return fmt.Errorf("%w: airdrop to %s", ErrArithmeticOverflow, addr)
		}
		acc.Lamports = next.Uint64()
		return nil
	})
}

// SetAccount overwrites addr with acc, bypassing conservation checks. It is
// used to seed fixtures such as token balances.
func (l *Ledger) SetAccount(ctx context.Context, addr solana.PublicKey, acc *types.Account) error {
	return l.execute(ctx, Request{Accounts: []solana.PublicKey{addr}}, false, func(tx *Tx) error {
		current, err := tx.Get(addr)
		if err != nil {
			return err
		}
		*current = *acc.Clone()
		return nil
	})
}

// Request declares the accounts a transition may touch and the keys that
// signed it. A non-empty Message is the signed payload; once a transition
// carrying it commits, the same message is rejected with ErrAlreadyProcessed.
type Request struct {
	Accounts []solana.PublicKey
	Signers  []solana.PublicKey
	Message  []byte
}

// Execute runs fn with exclusive access to every account in req. Writes made
// through the Tx become visible only if fn returns nil; any error discards
// them all.
func (l *Ledger) Execute(ctx context.Context, req Request, fn func(*Tx) error) error {
	return l.execute(ctx, req, true, fn)
}

func (l *Ledger) execute(ctx context.Context, req Request, conserve bool, fn func(*Tx) error) error {
	if l == nil || l.db == nil {
		return ErrNilDatabase
	}
	keys := append(append([]solana.PublicKey(nil), req.Accounts...), req.Signers...)
	release, err := l.locks.acquire(ctx, keys)
	if err != nil {
		return err
	}
	defer release()

	var marker []byte
	if len(req.Message) > 0 {
		marker = processedKey(req.Message)
		// Checked under the account locks: a replay declares the same
		// accounts, so it waits for the original to commit.
		if _, err := l.db.Get(marker); err == nil {
			return ErrAlreadyProcessed
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("ledger: replay check: %w", err)
		}
	}

	tx := newTx(l, keys, req.Signers)
	tx.marker = marker
	if err := fn(tx); err != nil {
		return err
	}
	if conserve {
		if err := tx.checkConservation(); err != nil {
			l.logger.Error("ledger transition rejected", slog.Any("error", err))
			return err
		}
	}
	return tx.commit()
}
