package auctionhouse

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"auctionhouse/core/state"
	"auctionhouse/crypto/pda"
	native "auctionhouse/native/auctionhouse"
	"auctionhouse/native/token"
	"auctionhouse/storage"
)

type harness struct {
	t      *testing.T
	ctx    context.Context
	ledger *state.Ledger
	client *Client
	owner  solana.PrivateKey
	house  *House
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	ledger := state.NewLedger(storage.NewMemDB())
	h := &harness{t: t, ctx: context.Background(), ledger: ledger}
	h.client = New(native.NewEngine(ledger), opts...)
	h.owner = h.wallet(10 * LamportsPerSOL)
	house, err := h.client.CreateHouse(h.ctx, h.owner, native.HouseConfig{SellerFeeBasisPoints: 500})
	require.NoError(t, err)
	h.house = house
	return h
}

func (h *harness) wallet(lamports uint64) solana.PrivateKey {
	h.t.Helper()
	key := solana.NewWallet().PrivateKey
	require.NoError(h.t, h.ledger.Airdrop(h.ctx, key.PublicKey(), lamports))
	return key
}

// listing gives a fresh seller one token of a new mint.
func (h *harness) listing(price uint64) (solana.PrivateKey, native.Order) {
	h.t.Helper()
	seller := h.wallet(10 * LamportsPerSOL)
	mint := solana.NewWallet().PublicKey()
	addr, _, err := token.AssociatedAddress(seller.PublicKey(), mint)
	require.NoError(h.t, err)
	acc, err := token.NewLedgerAccount(&token.Account{Mint: mint, Owner: seller.PublicKey(), Amount: 1}, h.ledger.Rent())
	require.NoError(h.t, err)
	require.NoError(h.t, h.ledger.SetAccount(h.ctx, addr, acc))
	return seller, native.Order{TokenAccount: addr, TokenMint: mint, Price: price, Size: 1}
}

func (h *harness) program() solana.PublicKey { return h.client.Engine().Program() }

func TestFindHouse(t *testing.T) {
	h := newHarness(t)
	found, err := h.client.FindHouse(h.owner.PublicKey(), solana.SolMint)
	require.NoError(t, err)
	require.Equal(t, h.house.Key, found.Key)
	require.Equal(t, uint16(500), found.State.SellerFeeBasisPoints)

	_, err = h.client.FindHouse(solana.NewWallet().PublicKey(), solana.SolMint)
	require.Error(t, err)
}

func TestDepositAndWithdraw(t *testing.T) {
	h := newHarness(t)
	buyer := h.wallet(5 * LamportsPerSOL)

	require.NoError(t, h.client.Deposit(h.ctx, h.house, buyer, 2*LamportsPerSOL))
	spendable, err := h.client.EscrowBalance(h.house, buyer.PublicKey())
	require.NoError(t, err)
	require.Equal(t, uint64(2*LamportsPerSOL), spendable)

	require.NoError(t, h.client.Withdraw(h.ctx, h.house, buyer, LamportsPerSOL))
	spendable, err = h.client.EscrowBalance(h.house, buyer.PublicKey())
	require.NoError(t, err)
	require.Equal(t, uint64(LamportsPerSOL), spendable)

	require.ErrorIs(t, h.client.Deposit(h.ctx, nil, buyer, 1), errNilHouse)
}

func TestEscrowBalanceOfUnknownWallet(t *testing.T) {
	h := newHarness(t)
	spendable, err := h.client.EscrowBalance(h.house, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.Zero(t, spendable)
}

func TestDelegate(t *testing.T) {
	h := newHarness(t)
	controller := solana.NewWallet().PublicKey()
	require.NoError(t, h.client.Delegate(h.ctx, h.house, h.owner, controller, native.ScopeSell, native.ScopeBuy))

	h.house, _ = h.client.House(h.house.Key)
	require.True(t, h.house.State.HasAuctioneer)
	record, _, err := native.DeriveAuctioneer(h.program(), h.house.Key, controller)
	require.NoError(t, err)
	stored, err := h.client.Engine().Auctioneer(record)
	require.NoError(t, err)
	require.True(t, stored.Scopes.Has(native.ScopeSell))
	require.False(t, stored.Scopes.Has(native.ScopeWithdraw))
}

func TestTradeWithReceipts(t *testing.T) {
	h := newHarness(t, WithReceipts())
	seller, ask := h.listing(LamportsPerSOL)
	buyer := h.wallet(5 * LamportsPerSOL)

	sellerTS, err := h.client.List(h.ctx, h.house, seller, ask)
	require.NoError(t, err)
	bid := ask
	buyerTS, err := h.client.Bid(h.ctx, h.house, buyer, bid)
	require.NoError(t, err)

	ask.Wallet = seller.PublicKey()
	bid.Wallet = buyer.PublicKey()
	res, err := h.client.ExecuteSale(h.ctx, h.house, seller, bid, ask)
	require.NoError(t, err)
	require.NotEmpty(t, res.Events)

	purchase, _, err := pda.Derive(pda.PurchaseReceiptSeeds(sellerTS, buyerTS), h.program())
	require.NoError(t, err)
	receipt, err := h.client.Engine().PurchaseReceipt(purchase)
	require.NoError(t, err)
	require.Equal(t, buyer.PublicKey(), receipt.Buyer)
	require.Equal(t, uint64(LamportsPerSOL), receipt.Price)

	listingAddr, _, err := pda.Derive(pda.ListingReceiptSeeds(sellerTS), h.program())
	require.NoError(t, err)
	listing, err := h.client.Engine().ListingReceipt(listingAddr)
	require.NoError(t, err)
	require.Equal(t, purchase, listing.PurchaseReceipt)
	require.NotNil(t, listing.PurchasedAt)

	bidAddr, _, err := pda.Derive(pda.BidReceiptSeeds(buyerTS), h.program())
	require.NoError(t, err)
	bidReceipt, err := h.client.Engine().BidReceipt(bidAddr)
	require.NoError(t, err)
	require.Equal(t, purchase, bidReceipt.PurchaseReceipt)

	treasury, err := h.ledger.Balance(h.house.State.AuctionHouseTreasury)
	require.NoError(t, err)
	require.Equal(t, uint64(LamportsPerSOL*500/native.MaxBasisPoints), treasury)
}

func TestCancelWithReceipts(t *testing.T) {
	h := newHarness(t, WithReceipts())
	seller, ask := h.listing(LamportsPerSOL)

	ts, err := h.client.List(h.ctx, h.house, seller, ask)
	require.NoError(t, err)
	require.NoError(t, h.client.CancelListing(h.ctx, h.house, seller, ask))

	open, err := h.client.Engine().TradeStateOpen(ts)
	require.NoError(t, err)
	require.False(t, open)
	addr, _, err := pda.Derive(pda.ListingReceiptSeeds(ts), h.program())
	require.NoError(t, err)
	listing, err := h.client.Engine().ListingReceipt(addr)
	require.NoError(t, err)
	require.NotNil(t, listing.CanceledAt)

	buyer := h.wallet(5 * LamportsPerSOL)
	bid := native.Order{TokenMint: ask.TokenMint, TokenAccount: ask.TokenAccount, Price: LamportsPerSOL, Size: 1, Public: true}
	bidTS, err := h.client.Bid(h.ctx, h.house, buyer, bid)
	require.NoError(t, err)
	require.NoError(t, h.client.CancelBid(h.ctx, h.house, buyer, bid))
	open, err = h.client.Engine().TradeStateOpen(bidTS)
	require.NoError(t, err)
	require.False(t, open)
}

func TestWithdrawFromTreasury(t *testing.T) {
	h := newHarness(t)
	seller, ask := h.listing(2 * LamportsPerSOL)
	buyer := h.wallet(5 * LamportsPerSOL)
	_, err := h.client.List(h.ctx, h.house, seller, ask)
	require.NoError(t, err)
	_, err = h.client.Bid(h.ctx, h.house, buyer, ask)
	require.NoError(t, err)
	bid := ask
	ask.Wallet = seller.PublicKey()
	bid.Wallet = buyer.PublicKey()
	_, err = h.client.ExecuteSale(h.ctx, h.house, buyer, bid, ask)
	require.NoError(t, err)

	before, err := h.ledger.Balance(h.owner.PublicKey())
	require.NoError(t, err)
	require.NoError(t, h.client.WithdrawFromTreasury(h.ctx, h.house, h.owner, LamportsPerSOL/20))
	after, err := h.ledger.Balance(h.owner.PublicKey())
	require.NoError(t, err)
	require.Equal(t, before+LamportsPerSOL/20, after)

	require.Error(t, h.client.WithdrawFromTreasury(h.ctx, h.house, seller, 1))
}

func TestUpdateHouse(t *testing.T) {
	h := newHarness(t)
	bps := uint16(750)
	signOff := true
	updated, err := h.client.UpdateHouse(h.ctx, h.house, h.owner, HouseUpdate{SellerFeeBasisPoints: &bps, RequiresSignOff: &signOff})
	require.NoError(t, err)
	require.Equal(t, bps, updated.State.SellerFeeBasisPoints)
	require.True(t, updated.State.RequiresSignOff)
	require.Equal(t, h.owner.PublicKey(), updated.State.Authority)

	_, err = h.client.UpdateHouse(h.ctx, h.house, h.wallet(LamportsPerSOL), HouseUpdate{SellerFeeBasisPoints: &bps})
	require.ErrorIs(t, err, native.ErrInvalidAuthority)
}
