package auctionhouse

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	native "auctionhouse/native/auctionhouse"
	"auctionhouse/native/token"
)

var errNilHouse = errors.New("auctionhouse: house not loaded")

// Client derives the accounts of each marketplace action from business
// parameters and submits the resulting instructions to an engine.
type Client struct {
	engine   *native.Engine
	receipts bool
}

// Option customises a Client.
type Option func(*Client)

// WithReceipts makes listings, bids, cancellations and sales print or
// cancel their receipt in the same transaction.
func WithReceipts() Option { return func(c *Client) { c.receipts = true } }

// New wraps engine with typed helpers.
func New(engine *native.Engine, opts ...Option) *Client {
	c := &Client{engine: engine}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine exposes the underlying engine for advanced interactions.
func (c *Client) Engine() *native.Engine { return c.engine }

// House is a marketplace together with its address.
type House struct {
	Key   solana.PublicKey
	State *native.AuctionHouse
}

func (c *Client) program() solana.PublicKey { return c.engine.Program() }

func (c *Client) submit(ctx context.Context, signers []solana.PrivateKey, ixs ...native.Instruction) (*native.Result, error) {
	return c.engine.Submit(ctx, signers, ixs...)
}

// House loads the marketplace stored at key.
func (c *Client) House(key solana.PublicKey) (*House, error) {
	state, err := c.engine.AuctionHouse(key)
	if err != nil {
		return nil, err
	}
	return &House{Key: key, State: state}, nil
}

// FindHouse loads the marketplace of authority for treasuryMint.
func (c *Client) FindHouse(authority, treasuryMint solana.PublicKey) (*House, error) {
	addrs, err := native.DeriveHouse(c.program(), authority, treasuryMint)
	if err != nil {
		return nil, err
	}
	return c.House(addrs.AuctionHouse)
}

// CreateHouse creates a marketplace owned and paid for by authority.
func (c *Client) CreateHouse(ctx context.Context, authority solana.PrivateKey, cfg native.HouseConfig) (*House, error) {
	if cfg.TreasuryMint.IsZero() {
		cfg.TreasuryMint = solana.SolMint
	}
	ix, err := native.NewCreateAuctionHouse(c.program(), authority.PublicKey(), authority.PublicKey(), cfg)
	if err != nil {
		return nil, err
	}
	if _, err := c.submit(ctx, []solana.PrivateKey{authority}, ix); err != nil {
		return nil, err
	}
	return c.House(ix.AuctionHouse)
}

// HouseUpdate lists the settings to change. Nil and zero fields are kept.
type HouseUpdate struct {
	NewAuthority             solana.PublicKey
	FeeWithdrawalDestination solana.PublicKey
	SellerFeeBasisPoints     *uint16
	RequiresSignOff          *bool
	CanChangeSalePrice       *bool
}

// UpdateHouse applies u to h and reloads it.
func (c *Client) UpdateHouse(ctx context.Context, h *House, authority solana.PrivateKey, u HouseUpdate) (*House, error) {
	if h == nil {
		return nil, errNilHouse
	}
	ix := &native.UpdateAuctionHouse{
		Payer:                    authority.PublicKey(),
		Authority:                authority.PublicKey(),
		NewAuthority:             u.NewAuthority,
		TreasuryMint:             h.State.TreasuryMint,
		FeeWithdrawalDestination: u.FeeWithdrawalDestination,
		AuctionHouse:             h.Key,
		SellerFeeBasisPoints:     u.SellerFeeBasisPoints,
		RequiresSignOff:          u.RequiresSignOff,
		CanChangeSalePrice:       u.CanChangeSalePrice,
	}
	if _, err := c.submit(ctx, []solana.PrivateKey{authority}, ix); err != nil {
		return nil, err
	}
	return c.House(h.Key)
}

// Delegate grants controller the given scopes on h.
func (c *Client) Delegate(ctx context.Context, h *House, authority solana.PrivateKey, controller solana.PublicKey, scopes ...native.AuthorityScope) error {
	if h == nil {
		return errNilHouse
	}
	ix, err := native.NewDelegateAuctioneer(c.program(), h.Key, authority.PublicKey(), controller, scopes...)
	if err != nil {
		return err
	}
	_, err = c.submit(ctx, []solana.PrivateKey{authority}, ix)
	return err
}

// Deposit moves amount from wallet into its escrow on h.
func (c *Client) Deposit(ctx context.Context, h *House, wallet solana.PrivateKey, amount uint64) error {
	if h == nil {
		return errNilHouse
	}
	ix, err := native.NewDeposit(c.program(), h.Key, h.State, wallet.PublicKey(), amount)
	if err != nil {
		return err
	}
	_, err = c.submit(ctx, []solana.PrivateKey{wallet}, ix)
	return err
}

// Withdraw returns amount from the escrow of wallet.
func (c *Client) Withdraw(ctx context.Context, h *House, wallet solana.PrivateKey, amount uint64) error {
	if h == nil {
		return errNilHouse
	}
	ix, err := native.NewWithdraw(c.program(), h.Key, h.State, wallet.PublicKey(), amount)
	if err != nil {
		return err
	}
	_, err = c.submit(ctx, []solana.PrivateKey{wallet}, ix)
	return err
}

// EscrowBalance reports what wallet can still withdraw or spend on h.
func (c *Client) EscrowBalance(h *House, wallet solana.PublicKey) (uint64, error) {
	if h == nil {
		return 0, errNilHouse
	}
	escrow, _, err := native.DeriveEscrow(c.program(), h.Key, wallet)
	if err != nil {
		return 0, err
	}
	ledger := c.engine.Ledger()
	if h.State.IsNative() {
		balance, err := ledger.Balance(escrow)
		if err != nil {
			return 0, err
		}
		return native.EscrowSpendable(balance, ledger.Rent()), nil
	}
	acc, err := ledger.Account(escrow)
	if err != nil {
		return 0, err
	}
	if acc.DataIsEmpty() {
		return 0, nil
	}
	held, err := token.Decode(acc)
	if err != nil {
		return 0, err
	}
	return held.Amount, nil
}

// List offers the tokens of o for sale. The seller is always the signer.
// It returns the trade state of the listing.
func (c *Client) List(ctx context.Context, h *House, seller solana.PrivateKey, o native.Order) (solana.PublicKey, error) {
	if h == nil {
		return solana.PublicKey{}, errNilHouse
	}
	o.Wallet = seller.PublicKey()
	ix, err := native.NewSell(c.program(), h.Key, h.State, o)
	if err != nil {
		return solana.PublicKey{}, err
	}
	ixs := []native.Instruction{ix}
	if c.receipts {
		receipt, err := native.NewPrintListingReceipt(c.program(), ix.SellerTradeState, o.Wallet)
		if err != nil {
			return solana.PublicKey{}, err
		}
		ixs = append(ixs, receipt)
	}
	if _, err := c.submit(ctx, []solana.PrivateKey{seller}, ixs...); err != nil {
		return solana.PublicKey{}, err
	}
	return ix.SellerTradeState, nil
}

// Bid places a bid of the buyer, public when o.Public is set. It returns
// the trade state of the bid.
func (c *Client) Bid(ctx context.Context, h *House, buyer solana.PrivateKey, o native.Order) (solana.PublicKey, error) {
	if h == nil {
		return solana.PublicKey{}, errNilHouse
	}
	o.Wallet = buyer.PublicKey()
	ix, err := native.NewBuy(c.program(), h.Key, h.State, o)
	if err != nil {
		return solana.PublicKey{}, err
	}
	ts, _, err := o.TradeState(c.program(), h.Key, h.State)
	if err != nil {
		return solana.PublicKey{}, err
	}
	ixs := []native.Instruction{ix}
	if c.receipts {
		receipt, err := native.NewPrintBidReceipt(c.program(), ts, o.Wallet)
		if err != nil {
			return solana.PublicKey{}, err
		}
		ixs = append(ixs, receipt)
	}
	if _, err := c.submit(ctx, []solana.PrivateKey{buyer}, ixs...); err != nil {
		return solana.PublicKey{}, err
	}
	return ts, nil
}

// ExecuteSale settles bid against ask. payer signs and, when the house
// has no usable fee account, funds the buyer's token account.
func (c *Client) ExecuteSale(ctx context.Context, h *House, payer solana.PrivateKey, bid, ask native.Order) (*native.Result, error) {
	if h == nil {
		return nil, errNilHouse
	}
	sale, err := native.NewExecuteSale(c.program(), h.Key, h.State, bid, ask)
	if err != nil {
		return nil, err
	}
	ixs := []native.Instruction{sale}
	if c.receipts {
		receipt, err := native.NewPrintPurchaseReceipt(c.program(), sale, payer.PublicKey(), true)
		if err != nil {
			return nil, err
		}
		ixs = append(ixs, receipt)
	}
	return c.submit(ctx, []solana.PrivateKey{payer}, ixs...)
}

// CancelListing withdraws a listing of wallet.
func (c *Client) CancelListing(ctx context.Context, h *House, wallet solana.PrivateKey, o native.Order) error {
	return c.cancel(ctx, h, wallet, o, func(program, ts solana.PublicKey) (native.Instruction, error) {
		return native.NewCancelListingReceipt(program, ts)
	})
}

// CancelBid withdraws a bid of wallet.
func (c *Client) CancelBid(ctx context.Context, h *House, wallet solana.PrivateKey, o native.Order) error {
	return c.cancel(ctx, h, wallet, o, func(program, ts solana.PublicKey) (native.Instruction, error) {
		return native.NewCancelBidReceipt(program, ts)
	})
}

type receiptBuilder func(program, tradeState solana.PublicKey) (native.Instruction, error)

func (c *Client) cancel(ctx context.Context, h *House, wallet solana.PrivateKey, o native.Order, receipt receiptBuilder) error {
	if h == nil {
		return errNilHouse
	}
	o.Wallet = wallet.PublicKey()
	ix, err := native.NewCancel(c.program(), h.Key, h.State, o)
	if err != nil {
		return err
	}
	ixs := []native.Instruction{ix}
	if c.receipts {
		cancelReceipt, err := receipt(c.program(), ix.TradeState)
		if err != nil {
			return err
		}
		ixs = append(ixs, cancelReceipt)
	}
	_, err = c.submit(ctx, []solana.PrivateKey{wallet}, ixs...)
	return err
}

// WithdrawFromFee sends amount from the fee account to its destination.
func (c *Client) WithdrawFromFee(ctx context.Context, h *House, authority solana.PrivateKey, amount uint64) error {
	if h == nil {
		return errNilHouse
	}
	_, err := c.submit(ctx, []solana.PrivateKey{authority}, native.NewWithdrawFromFee(h.Key, h.State, amount))
	return err
}

// WithdrawFromTreasury sends amount of collected fees to the treasury
// withdrawal destination.
func (c *Client) WithdrawFromTreasury(ctx context.Context, h *House, authority solana.PrivateKey, amount uint64) error {
	if h == nil {
		return errNilHouse
	}
	_, err := c.submit(ctx, []solana.PrivateKey{authority}, native.NewWithdrawFromTreasury(h.Key, h.State, amount))
	return err
}
