package auctionhouse

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"auctionhouse/core/state"
	"auctionhouse/crypto/pda"
	"auctionhouse/native/token"
)

func TestCreateAuctionHouse(t *testing.T) {
	f := newFixture(t, HouseConfig{SellerFeeBasisPoints: 250})
	require.Equal(t, f.authority.PublicKey(), f.house.Authority)
	require.Equal(t, f.authority.PublicKey(), f.house.Creator)
	require.Equal(t, uint16(250), f.house.SellerFeeBasisPoints)
	require.True(t, f.house.IsNative())
	require.False(t, f.house.HasAuctioneer)
	require.Equal(t, []string{EventTypeAuctionHouseCreated}, f.recorder.Types())

	addrs, err := DeriveHouse(f.program(), f.authority.PublicKey(), solana.SolMint)
	require.NoError(t, err)
	require.Equal(t, addrs.AuctionHouse, f.houseKey)
	require.Equal(t, addrs.FeeAccount, f.house.AuctionHouseFeeAccount)
	require.Equal(t, addrs.Treasury, f.house.AuctionHouseTreasury)
}

func TestCreateAuctionHouseRejectsDuplicate(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	again, err := NewCreateAuctionHouse(f.program(), f.authority.PublicKey(), f.authority.PublicKey(), HouseConfig{TreasuryMint: solana.SolMint})
	require.NoError(t, err)
	_, err = f.submit([]solana.PrivateKey{f.authority}, again)
	require.ErrorIs(t, err, ErrAuctionHouseAlreadyExists)
}

func TestCreateAuctionHouseRejectsBasisPointsAboveMax(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	other := f.wallet(10 * sol)
	create, err := NewCreateAuctionHouse(f.program(), other.PublicKey(), other.PublicKey(), HouseConfig{
		TreasuryMint:         solana.SolMint,
		SellerFeeBasisPoints: MaxBasisPoints + 1,
	})
	require.NoError(t, err)
	_, err = f.submit([]solana.PrivateKey{other}, create)
	require.ErrorIs(t, err, ErrInvalidBasisPoints)
}

func TestCreateAuctionHouseRejectsWrongBump(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	other := f.wallet(10 * sol)
	create, err := NewCreateAuctionHouse(f.program(), other.PublicKey(), other.PublicKey(), HouseConfig{TreasuryMint: solana.SolMint})
	require.NoError(t, err)
	create.Bump--
	_, err = f.submit([]solana.PrivateKey{other}, create)
	require.ErrorIs(t, err, ErrDerivedKeyInvalid)
	require.ErrorIs(t, err, pda.ErrDerivationMismatch)
}

func TestUpdateAuctionHouse(t *testing.T) {
	f := newFixture(t, HouseConfig{SellerFeeBasisPoints: 100})
	successor := f.wallet(sol)
	bps := uint16(500)
	signOff := true
	update := &UpdateAuctionHouse{
		Payer:                f.authority.PublicKey(),
		Authority:            f.authority.PublicKey(),
		NewAuthority:         successor.PublicKey(),
		AuctionHouse:         f.houseKey,
		SellerFeeBasisPoints: &bps,
		RequiresSignOff:      &signOff,
	}
	f.mustSubmit([]solana.PrivateKey{f.authority}, update)
	f.reload()
	require.Equal(t, successor.PublicKey(), f.house.Authority)
	require.Equal(t, f.authority.PublicKey(), f.house.Creator)
	require.Equal(t, uint16(500), f.house.SellerFeeBasisPoints)
	require.True(t, f.house.RequiresSignOff)

	// The previous authority no longer controls the house.
	_, err := f.submit([]solana.PrivateKey{f.authority}, update)
	require.ErrorIs(t, err, ErrInvalidAuthority)

	tooHigh := uint16(MaxBasisPoints + 1)
	_, err = f.submit([]solana.PrivateKey{successor}, &UpdateAuctionHouse{
		Authority:            successor.PublicKey(),
		AuctionHouse:         f.houseKey,
		SellerFeeBasisPoints: &tooHigh,
	})
	require.ErrorIs(t, err, ErrInvalidBasisPoints)
}

func TestDepositFundsRentReserveOnFirstUse(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	buyer := f.wallet(10 * sol)
	escrow := f.escrow(buyer.PublicKey())
	reserve := f.ledger.Rent().MinimumBalance(0)
	require.Equal(t, uint64(890_880), reserve)

	f.mustSubmit([]solana.PrivateKey{buyer}, f.deposit(buyer.PublicKey(), 500_000_000))
	require.Equal(t, uint64(500_000_000)+reserve, f.balance(escrow))
	require.Equal(t, 10*sol-500_000_000-reserve, f.balance(buyer.PublicKey()))

	// A funded escrow takes deposits at face value.
	f.mustSubmit([]solana.PrivateKey{buyer}, f.deposit(buyer.PublicKey(), 100))
	require.Equal(t, uint64(500_000_100)+reserve, f.balance(escrow))
}

func TestDepositRequiresWalletSignature(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	buyer := f.wallet(10 * sol)
	_, err := f.submit([]solana.PrivateKey{f.authority}, f.deposit(buyer.PublicKey(), sol))
	require.ErrorIs(t, err, ErrWalletMustSign)
}

func TestWithdrawLimitedToSpendable(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	buyer := f.wallet(10 * sol)
	escrow := f.escrow(buyer.PublicKey())
	reserve := f.ledger.Rent().MinimumBalance(0)
	f.mustSubmit([]solana.PrivateKey{buyer}, f.deposit(buyer.PublicKey(), sol))

	_, err := f.submit([]solana.PrivateKey{buyer}, f.withdraw(buyer.PublicKey(), sol+1))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, sol+reserve, f.balance(escrow))

	f.mustSubmit([]solana.PrivateKey{buyer}, f.withdraw(buyer.PublicKey(), sol))
	require.Equal(t, reserve, f.balance(escrow))
	require.Equal(t, 10*sol-reserve, f.balance(buyer.PublicKey()))
}

func TestWithdrawRequiresWalletOrAuthority(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	buyer := f.wallet(10 * sol)
	stranger := f.wallet(sol)
	f.mustSubmit([]solana.PrivateKey{buyer}, f.deposit(buyer.PublicKey(), sol))

	_, err := f.submit([]solana.PrivateKey{stranger}, f.withdraw(buyer.PublicKey(), sol))
	require.ErrorIs(t, err, ErrNoValidSignerPresent)

	// The house may push funds back to the wallet on its behalf.
	f.fund(f.house.AuctionHouseFeeAccount, sol)
	f.mustSubmit([]solana.PrivateKey{f.authority}, f.withdraw(buyer.PublicKey(), sol))
	require.Equal(t, 10*sol-f.ledger.Rent().MinimumBalance(0), f.balance(buyer.PublicKey()))
}

func TestTransactionIsAtomic(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	buyer := f.wallet(10 * sol)
	escrow := f.escrow(buyer.PublicKey())

	_, err := f.submit([]solana.PrivateKey{buyer},
		f.deposit(buyer.PublicKey(), sol),
		f.withdraw(buyer.PublicKey(), 2*sol),
	)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Zero(t, f.balance(escrow))
	require.Equal(t, 10*sol, f.balance(buyer.PublicKey()))
	// Nothing is emitted for a rejected transaction.
	require.Equal(t, []string{EventTypeAuctionHouseCreated}, f.recorder.Types())
}

func TestProcessRejectsForgedSignature(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	buyer := f.wallet(10 * sol)
	txn := NewTransaction(f.deposit(buyer.PublicKey(), sol))
	require.NoError(t, txn.Sign(buyer))
	txn.Instructions = append(txn.Instructions, f.deposit(buyer.PublicKey(), sol))

	_, err := f.engine.Process(f.ctx, txn)
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.Zero(t, f.balance(f.escrow(buyer.PublicKey())))
}

func TestProcessRejectsReplayedTransaction(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	buyer := f.wallet(10 * sol)
	escrow := f.escrow(buyer.PublicKey())
	deposit := f.deposit(buyer.PublicKey(), sol)

	txn := NewTransaction(deposit)
	require.NoError(t, txn.Sign(buyer))
	_, err := f.engine.Process(f.ctx, txn)
	require.NoError(t, err)
	funded := f.balance(escrow)

	_, err = f.engine.Process(f.ctx, txn)
	require.ErrorIs(t, err, state.ErrAlreadyProcessed)
	require.Equal(t, uint32(6053), ErrorCode(err))
	require.Equal(t, funded, f.balance(escrow))

	// The same instruction under a fresh transaction is a new request.
	again := NewTransaction(deposit)
	require.NotEqual(t, txn.Nonce, again.Nonce)
	require.NoError(t, again.Sign(buyer))
	_, err = f.engine.Process(f.ctx, again)
	require.NoError(t, err)
	require.Equal(t, funded+sol, f.balance(escrow))
}

func TestEngineLoggerRecordsRejections(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	var buf bytes.Buffer
	f.engine.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	buyer := f.wallet(10 * sol)

	_, err := f.submit([]solana.PrivateKey{buyer}, f.withdraw(buyer.PublicKey(), sol))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Contains(t, buf.String(), "auction house transaction rejected")
	require.Contains(t, buf.String(), "code=")

	// Nil falls back to the process defaults rather than disabling output.
	f.engine.SetLogger(nil)
	f.engine.SetTracer(nil)
	buf.Reset()
	f.mustSubmit([]solana.PrivateKey{buyer}, f.deposit(buyer.PublicKey(), sol))
	require.Empty(t, buf.String())
}

func TestProcessRejectsEmptyTransaction(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	_, err := f.engine.Process(f.ctx, NewTransaction())
	require.ErrorIs(t, err, ErrEmptyTransaction)
}

func TestWithdrawFromFeeAndTreasury(t *testing.T) {
	f := newFixture(t, HouseConfig{})
	f.fund(f.house.AuctionHouseFeeAccount, 2*sol)
	f.fund(f.house.AuctionHouseTreasury, sol)
	before := f.balance(f.authority.PublicKey())

	f.mustSubmit([]solana.PrivateKey{f.authority}, NewWithdrawFromFee(f.houseKey, f.house, sol))
	require.Equal(t, sol, f.balance(f.house.AuctionHouseFeeAccount))
	f.mustSubmit([]solana.PrivateKey{f.authority}, NewWithdrawFromTreasury(f.houseKey, f.house, sol))
	require.Zero(t, f.balance(f.house.AuctionHouseTreasury))
	require.Equal(t, before+2*sol, f.balance(f.authority.PublicKey()))

	_, err := f.submit([]solana.PrivateKey{f.authority}, NewWithdrawFromFee(f.houseKey, f.house, 2*sol))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	stranger := f.wallet(sol)
	forged := NewWithdrawFromFee(f.houseKey, f.house, 1)
	forged.Authority = stranger.PublicKey()
	_, err = f.submit([]solana.PrivateKey{stranger}, forged)
	require.ErrorIs(t, err, ErrInvalidAuthority)
}

func TestErrorCode(t *testing.T) {
	require.Equal(t, uint32(0), ErrorCode(nil))
	require.Equal(t, uint32(6029), ErrorCode(ErrTooManyScopes))
	require.Equal(t, uint32(6042), ErrorCode(errors.Join(errors.New("wrapped"), ErrMustUseAuctioneerHandler)))
	require.Equal(t, uint32(6013), ErrorCode(pda.ErrDerivationMismatch))
	require.Equal(t, uint32(6000), ErrorCode(token.ErrInvalidAssociate))
	require.Equal(t, uint32(0), ErrorCode(errors.New("unrelated")))
}
