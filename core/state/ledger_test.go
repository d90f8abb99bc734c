package state

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/types"
	"auctionhouse/crypto/pda"
	"auctionhouse/storage"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(storage.NewMemDB())
}

func fund(t *testing.T, l *Ledger, addr solana.PublicKey, lamports uint64) {
	t.Helper()
	if err := l.Airdrop(context.Background(), addr, lamports); err != nil {
		t.Fatalf("airdrop %s: %v", addr, err)
	}
}

func balance(t *testing.T, l *Ledger, addr solana.PublicKey) uint64 {
	t.Helper()
	bal, err := l.Balance(addr)
	if err != nil {
		t.Fatalf("balance %s: %v", addr, err)
	}
	return bal
}

func TestRentMinimumBalance(t *testing.T) {
	rent := DefaultRent()
	cases := map[int]uint64{
		-1:  890_880,
		0:   890_880,
		1:   897_840,
		165: 2_039_280,
	}
	for size, want := range cases {
		if got := rent.MinimumBalance(size); got != want {
			t.Fatalf("minimum balance for %d bytes: got %d want %d", size, got, want)
		}
	}
	if rent.IsExempt(890_879, 0) {
		t.Fatalf("balance below minimum reported exempt")
	}
}

func TestTransferRequiresSignature(t *testing.T) {
	l := newTestLedger(t)
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	fund(t, l, from, 100)

	req := Request{Accounts: []solana.PublicKey{from, to}}
	err := l.Execute(context.Background(), req, func(tx *Tx) error {
		return tx.Transfer(SignerAuthority(from), to, 10)
	})
	if !errors.Is(err, ErrMissingSigner) {
		t.Fatalf("expected ErrMissingSigner, got %v", err)
	}

	req.Signers = []solana.PublicKey{from}
	err = l.Execute(context.Background(), req, func(tx *Tx) error {
		return tx.Transfer(SignerAuthority(from), to, 10)
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := balance(t, l, to); got != 10 {
		t.Fatalf("recipient balance: got %d want 10", got)
	}
	if got := balance(t, l, from); got != 90 {
		t.Fatalf("sender balance: got %d want 90", got)
	}
}

func TestExecuteDiscardsWritesOnError(t *testing.T) {
	l := newTestLedger(t)
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	fund(t, l, from, 100)

	boom := errors.New("boom")
	req := Request{Accounts: []solana.PublicKey{from, to}, Signers: []solana.PublicKey{from}}
	err := l.Execute(context.Background(), req, func(tx *Tx) error {
		if err := tx.Transfer(SignerAuthority(from), to, 60); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := balance(t, l, from); got != 100 {
		t.Fatalf("sender balance after rollback: got %d want 100", got)
	}
	if got := balance(t, l, to); got != 0 {
		t.Fatalf("recipient balance after rollback: got %d want 0", got)
	}
}

func TestExecuteRejectsRepeatedMessage(t *testing.T) {
	l := newTestLedger(t)
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	fund(t, l, from, 100)

	transfer := func(tx *Tx) error { return tx.Transfer(SignerAuthority(from), to, 10) }
	req := Request{
		Accounts: []solana.PublicKey{from, to},
		Signers:  []solana.PublicKey{from},
		Message:  []byte("transfer 10"),
	}
	if err := l.Execute(context.Background(), req, transfer); err != nil {
		t.Fatalf("first execute: %v", err)
	}
	if err := l.Execute(context.Background(), req, transfer); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
	if got := balance(t, l, to); got != 10 {
		t.Fatalf("recipient balance: got %d want 10", got)
	}

	req.Message = []byte("transfer 10 again")
	if err := l.Execute(context.Background(), req, transfer); err != nil {
		t.Fatalf("distinct message: %v", err)
	}
	if got := balance(t, l, to); got != 20 {
		t.Fatalf("recipient balance: got %d want 20", got)
	}
}

func TestFailedMessageCanBeRetried(t *testing.T) {
	l := newTestLedger(t)
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()

	req := Request{
		Accounts: []solana.PublicKey{from, to},
		Signers:  []solana.PublicKey{from},
		Message:  []byte("transfer 10"),
	}
	transfer := func(tx *Tx) error { return tx.Transfer(SignerAuthority(from), to, 10) }
	if err := l.Execute(context.Background(), req, transfer); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	fund(t, l, from, 100)
	if err := l.Execute(context.Background(), req, transfer); err != nil {
		t.Fatalf("retry after funding: %v", err)
	}
}

func TestAirdropRejectsOverflow(t *testing.T) {
	l := newTestLedger(t)
	addr := solana.NewWallet().PublicKey()
	fund(t, l, addr, math.MaxUint64)
	if err := l.Airdrop(context.Background(), addr, 1); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected ErrArithmeticOverflow, got %v", err)
	}
	if got := balance(t, l, addr); got != math.MaxUint64 {
		t.Fatalf("balance after rejected airdrop: got %d", got)
	}
}

func TestExecuteRejectsUndeclaredAccount(t *testing.T) {
	l := newTestLedger(t)
	declared := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()
	err := l.Execute(context.Background(), Request{Accounts: []solana.PublicKey{declared}}, func(tx *Tx) error {
		_, err := tx.Get(other)
		return err
	})
	if !errors.Is(err, ErrAccountNotLocked) {
		t.Fatalf("expected ErrAccountNotLocked, got %v", err)
	}
}

func TestExecuteEnforcesConservation(t *testing.T) {
	l := newTestLedger(t)
	addr := solana.NewWallet().PublicKey()
	fund(t, l, addr, 100)
	err := l.Execute(context.Background(), Request{Accounts: []solana.PublicKey{addr}}, func(tx *Tx) error {
		acc, err := tx.Get(addr)
		if err != nil {
			return err
		}
		acc.Lamports += 1
		return nil
	})
	if !errors.Is(err, ErrLamportImbalance) {
		t.Fatalf("expected ErrLamportImbalance, got %v", err)
	}
	if got := balance(t, l, addr); got != 100 {
		t.Fatalf("balance after rejected mint: got %d want 100", got)
	}
}

func TestCreateAccountByProgramAddress(t *testing.T) {
	l := newTestLedger(t)
	program := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	fund(t, l, payer, 10_000_000)

	seeds := [][]byte{[]byte("record"), payer[:]}
	addr, bump, err := pda.Derive(seeds, program)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	auth := ProgramAuthority(addr, program, pda.WithBump(seeds, bump))
	req := Request{Accounts: []solana.PublicKey{payer, addr}, Signers: []solana.PublicKey{payer}}
	err = l.Execute(context.Background(), req, func(tx *Tx) error {
		return tx.CreateAccount(SignerAuthority(payer), auth, 32, program)
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	acc, err := l.Account(addr)
	if err != nil || acc == nil {
		t.Fatalf("load created account: %v", err)
	}
	if !acc.Owner.Equals(program) || len(acc.Data) != 32 {
		t.Fatalf("created account: owner %s, %d bytes", acc.Owner, len(acc.Data))
	}
	if acc.Lamports != DefaultRent().MinimumBalance(32) {
		t.Fatalf("created account lamports: got %d", acc.Lamports)
	}

	// Creating it again fails, and a bump that does not derive the address
	// cannot sign for it.
	err = l.Execute(context.Background(), req, func(tx *Tx) error {
		return tx.CreateAccount(SignerAuthority(payer), auth, 32, program)
	})
	if !errors.Is(err, ErrAccountInUse) {
		t.Fatalf("expected ErrAccountInUse, got %v", err)
	}
	forged := ProgramAuthority(addr, program, pda.WithBump(seeds, bump-1))
	err = l.Execute(context.Background(), req, func(tx *Tx) error {
		return tx.CreateAccount(SignerAuthority(payer), forged, 32, program)
	})
	if !errors.Is(err, pda.ErrDerivationMismatch) {
		t.Fatalf("expected ErrDerivationMismatch, got %v", err)
	}
}

func TestReassignRequiresOwnership(t *testing.T) {
	l := newTestLedger(t)
	program := solana.NewWallet().PublicKey()
	owned := solana.NewWallet().PublicKey()
	dest := solana.NewWallet().PublicKey()
	fund(t, l, owned, 50)

	req := Request{Accounts: []solana.PublicKey{owned, dest}}
	err := l.Execute(context.Background(), req, func(tx *Tx) error {
		return tx.Reassign(program, owned, dest, 50)
	})
	if !errors.Is(err, ErrIllegalOwner) {
		t.Fatalf("expected ErrIllegalOwner, got %v", err)
	}
}

func TestZeroLamportAccountsArePurged(t *testing.T) {
	l := newTestLedger(t)
	program := solana.NewWallet().PublicKey()
	addr := solana.NewWallet().PublicKey()
	dest := solana.NewWallet().PublicKey()
	fund(t, l, addr, 0)
	acc, err := l.Account(addr)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if acc != nil {
		t.Fatalf("unfunded account should not be stored")
	}

	ctx := context.Background()
	owned := solana.NewWallet().PublicKey()
	if err := l.SetAccount(ctx, owned, &types.Account{Lamports: 40, Owner: program, Data: []byte{1}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err = l.Execute(ctx, Request{Accounts: []solana.PublicKey{owned, dest}}, func(tx *Tx) error {
		return tx.Reassign(program, owned, dest, 40)
	})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if acc, _ := l.Account(owned); acc != nil {
		t.Fatalf("drained account should be purged, got %+v", acc)
	}
}

func TestExecuteSerialisesOverlappingAccounts(t *testing.T) {
	l := newTestLedger(t)
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	fund(t, l, from, 1_000)

	req := Request{Accounts: []solana.PublicKey{from, to}, Signers: []solana.PublicKey{from}}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Execute(context.Background(), req, func(tx *Tx) error {
				return tx.Transfer(SignerAuthority(from), to, 10)
			})
			if err != nil {
				t.Errorf("transfer: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := balance(t, l, to); got != 500 {
		t.Fatalf("recipient balance: got %d want 500", got)
	}
	if got := balance(t, l, from); got != 500 {
		t.Fatalf("sender balance: got %d want 500", got)
	}
}

func TestExecuteHonoursContextWhileWaiting(t *testing.T) {
	l := newTestLedger(t)
	addr := solana.NewWallet().PublicKey()
	req := Request{Accounts: []solana.PublicKey{addr}}

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = l.Execute(context.Background(), req, func(*Tx) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Execute(ctx, req, func(*Tx) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
