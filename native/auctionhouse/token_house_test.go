package auctionhouse

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"auctionhouse/native/token"
)

// newTokenFixture opens a house that settles in a fresh SPL currency.
func newTokenFixture(t *testing.T, cfg HouseConfig) (*fixture, solana.PublicKey) {
	t.Helper()
	currency := solana.NewWallet().PublicKey()
	cfg.TreasuryMint = currency
	return newFixture(t, cfg), currency
}

func TestCreateTokenAuctionHouse(t *testing.T) {
	f, currency := newTokenFixture(t, HouseConfig{})
	require.False(t, f.house.IsNative())

	treasury := f.tokenAccount(f.house.AuctionHouseTreasury)
	require.Equal(t, currency, treasury.Mint)
	require.Equal(t, f.houseKey, treasury.Owner)

	dest, _, err := token.AssociatedAddress(f.authority.PublicKey(), currency)
	require.NoError(t, err)
	require.Equal(t, dest, f.house.TreasuryWithdrawalDestination)
	require.Equal(t, f.authority.PublicKey(), f.tokenAccount(dest).Owner)
}

func TestTokenDepositAndWithdraw(t *testing.T) {
	f, currency := newTokenFixture(t, HouseConfig{})
	buyer := f.wallet(10 * sol)
	ata := f.giveTokens(buyer.PublicKey(), currency, 100)
	escrow := f.escrow(buyer.PublicKey())

	f.mustSubmit([]solana.PrivateKey{buyer}, f.deposit(buyer.PublicKey(), 60))
	held := f.tokenAccount(escrow)
	require.Equal(t, uint64(60), held.Amount)
	require.Equal(t, currency, held.Mint)
	require.Equal(t, f.houseKey, held.Owner)
	require.Equal(t, uint64(40), f.tokenAccount(ata).Amount)
	// The escrow token account is created once and paid for by the wallet.
	require.Equal(t, f.ledger.Rent().MinimumBalance(token.AccountSize), f.balance(escrow))

	f.mustSubmit([]solana.PrivateKey{buyer}, f.deposit(buyer.PublicKey(), 10))
	require.Equal(t, uint64(70), f.tokenAccount(escrow).Amount)

	f.mustSubmit([]solana.PrivateKey{buyer}, f.withdraw(buyer.PublicKey(), 25))
	require.Equal(t, uint64(45), f.tokenAccount(escrow).Amount)
	require.Equal(t, uint64(55), f.tokenAccount(ata).Amount)

	_, err := f.submit([]solana.PrivateKey{buyer}, f.withdraw(buyer.PublicKey(), 46))
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestTokenWithdrawPaysWalletAssociatedAccount(t *testing.T) {
	f, currency := newTokenFixture(t, HouseConfig{})
	buyer := f.wallet(10 * sol)
	ata := f.giveTokens(buyer.PublicKey(), currency, 30)
	f.mustSubmit([]solana.PrivateKey{buyer}, f.deposit(buyer.PublicKey(), 30))

	withdraw := f.withdraw(buyer.PublicKey(), 30)
	require.Equal(t, ata, withdraw.ReceiptAccount)
	elsewhere := f.giveTokens(f.wallet(0).PublicKey(), currency, 0)
	withdraw.ReceiptAccount = elsewhere
	_, err := f.submit([]solana.PrivateKey{buyer}, withdraw)
	require.ErrorIs(t, err, ErrPublicKeyMismatch)
	require.Zero(t, f.tokenAccount(elsewhere).Amount)
	require.Equal(t, uint64(30), f.tokenAccount(f.escrow(buyer.PublicKey())).Amount)
}

func TestTokenDepositRequiresWalletAssociatedAccount(t *testing.T) {
	f, currency := newTokenFixture(t, HouseConfig{})
	buyer := f.wallet(10 * sol)
	f.giveTokens(buyer.PublicKey(), currency, 10)
	other := f.wallet(sol)
	foreign := f.giveTokens(other.PublicKey(), currency, 500)

	// Even with the other holder's consent the funds must come from the
	// depositing wallet's own associated account.
	deposit := f.deposit(buyer.PublicKey(), 500)
	deposit.PaymentAccount = foreign
	deposit.TransferAuthority = other.PublicKey()
	_, err := f.submit([]solana.PrivateKey{buyer, other}, deposit)
	require.ErrorIs(t, err, token.ErrInvalidAssociate)

	require.Zero(t, f.balance(f.escrow(buyer.PublicKey())))
	require.Equal(t, uint64(500), f.tokenAccount(foreign).Amount)
}

func TestTokenBuyRequiresWalletAssociatedAccount(t *testing.T) {
	f, currency := newTokenFixture(t, HouseConfig{})
	_, ask := f.listing(300)
	buyer := f.wallet(10 * sol)
	other := f.wallet(sol)
	foreign := f.giveTokens(other.PublicKey(), currency, 300)

	bid := ask
	bid.Wallet = buyer.PublicKey()
	buy := f.buy(bid).(*Buy)
	buy.PaymentAccount = foreign
	buy.TransferAuthority = other.PublicKey()
	_, err := f.submit([]solana.PrivateKey{buyer, other}, buy)
	require.ErrorIs(t, err, token.ErrInvalidAssociate)

	require.False(t, f.tradeStateOpen(buy.BuyerTradeState))
	require.Zero(t, f.balance(f.escrow(buyer.PublicKey())))
	require.Equal(t, uint64(300), f.tokenAccount(foreign).Amount)
}

func TestExecuteSaleInTokens(t *testing.T) {
	f, currency := newTokenFixture(t, HouseConfig{SellerFeeBasisPoints: 500})
	seller, ask := f.listing(2_000)
	buyer := f.wallet(10 * sol)
	buyerFunds := f.giveTokens(buyer.PublicKey(), currency, 5_000)
	bid := ask
	bid.Wallet = buyer.PublicKey()

	sell := f.sell(ask)
	f.mustSubmit([]solana.PrivateKey{seller}, sell)
	buy := f.buy(bid).(*Buy)
	f.mustSubmit([]solana.PrivateKey{buyer}, buy)
	escrow := f.escrow(buyer.PublicKey())
	require.Equal(t, uint64(2_000), f.tokenAccount(escrow).Amount)
	require.Equal(t, uint64(3_000), f.tokenAccount(buyerFunds).Amount)

	sale := f.executeSale(bid, ask)
	sellerProceeds, _, err := token.AssociatedAddress(seller.PublicKey(), currency)
	require.NoError(t, err)
	require.Equal(t, sellerProceeds, sale.SellerPaymentReceiptAccount)
	f.mustSubmit([]solana.PrivateKey{seller}, sale)

	fee := uint64(2_000 * 500 / MaxBasisPoints)
	require.Equal(t, fee, f.tokenAccount(f.house.AuctionHouseTreasury).Amount)
	require.Equal(t, 2_000-fee, f.tokenAccount(sellerProceeds).Amount)
	require.Zero(t, f.tokenAccount(escrow).Amount)
	require.Equal(t, uint64(1), f.tokenAccount(sale.BuyerReceiptTokenAccount).Amount)
	require.False(t, f.tradeStateOpen(sell.SellerTradeState))
	require.False(t, f.tradeStateOpen(buy.BuyerTradeState))

	// Fees collected in the currency leave the treasury for the authority's
	// associated account.
	f.mustSubmit([]solana.PrivateKey{f.authority}, NewWithdrawFromTreasury(f.houseKey, f.house, fee))
	require.Zero(t, f.tokenAccount(f.house.AuctionHouseTreasury).Amount)
	require.Equal(t, fee, f.tokenAccount(f.house.TreasuryWithdrawalDestination).Amount)

	_, err = f.submit([]solana.PrivateKey{f.authority}, NewWithdrawFromTreasury(f.houseKey, f.house, 1))
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestExecuteSaleInTokensRequiresFundedEscrow(t *testing.T) {
	f, currency := newTokenFixture(t, HouseConfig{})
	seller, ask := f.listing(1_000)
	buyer := f.wallet(10 * sol)
	f.giveTokens(buyer.PublicKey(), currency, 1_000)
	bid := ask
	bid.Wallet = buyer.PublicKey()

	f.mustSubmit([]solana.PrivateKey{seller}, f.sell(ask))
	f.mustSubmit([]solana.PrivateKey{buyer}, f.buy(bid))
	f.mustSubmit([]solana.PrivateKey{buyer}, f.withdraw(buyer.PublicKey(), 1))

	_, err := f.submit([]solana.PrivateKey{seller}, f.executeSale(bid, ask))
	require.ErrorIs(t, err, ErrInsufficientFunds)
}
