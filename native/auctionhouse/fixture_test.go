package auctionhouse

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"auctionhouse/core/events"
	"auctionhouse/core/state"
	"auctionhouse/native/token"
	"auctionhouse/storage"
)

const sol = uint64(1_000_000_000)

type fixture struct {
	t         *testing.T
	ctx       context.Context
	ledger    *state.Ledger
	engine    *Engine
	recorder  *events.Recorder
	authority solana.PrivateKey
	houseKey  solana.PublicKey
	house     *AuctionHouse
}

func newFixture(t *testing.T, cfg HouseConfig) *fixture {
	t.Helper()
	ledger := state.NewLedger(storage.NewMemDB())
	engine := NewEngine(ledger)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	recorder := &events.Recorder{}
	engine.SetEmitter(recorder)
	f := &fixture{t: t, ctx: context.Background(), ledger: ledger, engine: engine, recorder: recorder}
	f.authority = f.wallet(10 * sol)
	if cfg.TreasuryMint.IsZero() {
		cfg.TreasuryMint = solana.SolMint
	}
	create, err := NewCreateAuctionHouse(engine.Program(), f.authority.PublicKey(), f.authority.PublicKey(), cfg)
	require.NoError(t, err)
	f.mustSubmit([]solana.PrivateKey{f.authority}, create)
	f.houseKey = create.AuctionHouse
	f.reload()
	return f
}

func (f *fixture) reload() {
	f.t.Helper()
	house, err := f.engine.AuctionHouse(f.houseKey)
	require.NoError(f.t, err)
	f.house = house
}

func (f *fixture) wallet(lamports uint64) solana.PrivateKey {
	f.t.Helper()
	key := solana.NewWallet().PrivateKey
	if lamports > 0 {
		require.NoError(f.t, f.ledger.Airdrop(f.ctx, key.PublicKey(), lamports))
	}
	return key
}

func (f *fixture) fund(addr solana.PublicKey, lamports uint64) {
	f.t.Helper()
	require.NoError(f.t, f.ledger.Airdrop(f.ctx, addr, lamports))
}

// giveTokens seeds the associated token account of owner for mint.
func (f *fixture) giveTokens(owner, mint solana.PublicKey, amount uint64) solana.PublicKey {
	f.t.Helper()
	addr, _, err := token.AssociatedAddress(owner, mint)
	require.NoError(f.t, err)
	acc, err := token.NewLedgerAccount(&token.Account{Mint: mint, Owner: owner, Amount: amount}, f.ledger.Rent())
	require.NoError(f.t, err)
	require.NoError(f.t, f.ledger.SetAccount(f.ctx, addr, acc))
	return addr
}

func (f *fixture) submit(signers []solana.PrivateKey, ixs ...Instruction) (*Result, error) {
	return f.engine.Submit(f.ctx, signers, ixs...)
}

func (f *fixture) mustSubmit(signers []solana.PrivateKey, ixs ...Instruction) *Result {
	f.t.Helper()
	res, err := f.submit(signers, ixs...)
	require.NoError(f.t, err)
	return res
}

func (f *fixture) balance(addr solana.PublicKey) uint64 {
	f.t.Helper()
	bal, err := f.ledger.Balance(addr)
	require.NoError(f.t, err)
	return bal
}

func (f *fixture) tokenAccount(addr solana.PublicKey) *token.Account {
	f.t.Helper()
	acc, err := f.ledger.Account(addr)
	require.NoError(f.t, err)
	ta, err := token.Decode(acc)
	require.NoError(f.t, err)
	return ta
}

func (f *fixture) tradeStateOpen(addr solana.PublicKey) bool {
	f.t.Helper()
	open, err := f.engine.TradeStateOpen(addr)
	require.NoError(f.t, err)
	return open
}

func (f *fixture) program() solana.PublicKey { return f.engine.Program() }

func (f *fixture) sell(o Order) *Sell {
	f.t.Helper()
	ix, err := NewSell(f.program(), f.houseKey, f.house, o)
	require.NoError(f.t, err)
	return ix
}

func (f *fixture) buy(o Order) Instruction {
	f.t.Helper()
	ix, err := NewBuy(f.program(), f.houseKey, f.house, o)
	require.NoError(f.t, err)
	return ix
}

func (f *fixture) deposit(wallet solana.PublicKey, amount uint64) *Deposit {
	f.t.Helper()
	ix, err := NewDeposit(f.program(), f.houseKey, f.house, wallet, amount)
	require.NoError(f.t, err)
	return ix
}

func (f *fixture) withdraw(wallet solana.PublicKey, amount uint64) *Withdraw {
	f.t.Helper()
	ix, err := NewWithdraw(f.program(), f.houseKey, f.house, wallet, amount)
	require.NoError(f.t, err)
	return ix
}

func (f *fixture) cancel(o Order) *Cancel {
	f.t.Helper()
	ix, err := NewCancel(f.program(), f.houseKey, f.house, o)
	require.NoError(f.t, err)
	return ix
}

func (f *fixture) executeSale(bid, ask Order) *ExecuteSale {
	f.t.Helper()
	ix, err := NewExecuteSale(f.program(), f.houseKey, f.house, bid, ask)
	require.NoError(f.t, err)
	return ix
}

func (f *fixture) escrow(wallet solana.PublicKey) solana.PublicKey {
	f.t.Helper()
	addr, _, err := DeriveEscrow(f.program(), f.houseKey, wallet)
	require.NoError(f.t, err)
	return addr
}

func (f *fixture) delegate(controller solana.PublicKey, scopes ...AuthorityScope) {
	f.t.Helper()
	ix, err := NewDelegateAuctioneer(f.program(), f.houseKey, f.house.Authority, controller, scopes...)
	require.NoError(f.t, err)
	f.mustSubmit([]solana.PrivateKey{f.authority}, ix)
	f.reload()
}

func (f *fixture) acting(controller solana.PublicKey) AuctioneerAccounts {
	f.t.Helper()
	accounts, err := NewAuctioneerAccounts(f.program(), f.houseKey, controller)
	require.NoError(f.t, err)
	return accounts
}

// listing sets up a seller holding one unit of a fresh mint.
func (f *fixture) listing(price uint64) (solana.PrivateKey, Order) {
	f.t.Helper()
	seller := f.wallet(10 * sol)
	mint := solana.NewWallet().PublicKey()
	tokenAccount := f.giveTokens(seller.PublicKey(), mint, 1)
	return seller, Order{Wallet: seller.PublicKey(), TokenAccount: tokenAccount, TokenMint: mint, Price: price, Size: 1}
}
