package auctionhouse

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/crypto/pda"
	"auctionhouse/native/token"
)

// TradeStateParams identify a trade state. A zero TokenAccount selects the
// public (any-holder) variant.
type TradeStateParams struct {
	Wallet       solana.PublicKey
	AuctionHouse solana.PublicKey
	TokenAccount solana.PublicKey
	TreasuryMint solana.PublicKey
	TokenMint    solana.PublicKey
	Price        uint64
	Size         uint64
}

// Seeds returns the derivation path for p.
func (p TradeStateParams) Seeds() [][]byte {
	if p.TokenAccount.IsZero() {
		return pda.PublicTradeStateSeeds(p.Wallet, p.AuctionHouse, p.TreasuryMint, p.TokenMint, p.Price, p.Size)
	}
	return pda.TradeStateSeeds(p.Wallet, p.AuctionHouse, p.TokenAccount, p.TreasuryMint, p.TokenMint, p.Price, p.Size)
}

// tradeStateBump reads the bump byte stored in a live trade state.
func (c *call) tradeStateBump(addr solana.PublicKey) (uint8, error) {
	acc, err := c.tx.Get(addr)
	if err != nil {
		return 0, err
	}
	if acc.DataIsEmpty() {
		return 0, fmt.Errorf("%w: %s is empty", ErrInvalidTradeState, addr)
	}
	if !acc.Owner.Equals(c.program) {
		return 0, fmt.Errorf("%w: %s owned by %s", ErrInvalidTradeState, addr, acc.Owner)
	}
	return acc.Data[0], nil
}

// openTradeState creates the trade state at addr, or refreshes its bump when
// it already exists.
func (c *call) openTradeState(payer state.Authority, addr solana.PublicKey, seeds [][]byte, bump uint8) (bool, error) {
	if err := c.verify(seeds, addr, bump); err != nil {
		return false, err
	}
	acc, err := c.tx.Get(addr)
	if err != nil {
		return false, err
	}
	created := false
	if acc.DataIsEmpty() {
		if err := c.tx.CreateAccount(payer, c.programAuthority(addr, seeds, bump), TradeStateSize, c.program); err != nil {
			return false, err
		}
		created = true
	} else if !acc.Owner.Equals(c.program) {
		return false, fmt.Errorf("%w: %s owned by %s", ErrIncorrectOwner, addr, acc.Owner)
	}
	acc.Data[0] = bump
	return created, nil
}

// AssertValidTradeState checks that claimed is a live trade state of wallet
// under either the private (token-account bound) or the public derivation,
// and that the bump stored in it reproduces claimed. Both variants are tried
// because a bid may have been placed either way.
func AssertValidTradeState(tx *state.Tx, program solana.PublicKey, p TradeStateParams, claimed solana.PublicKey, claimedBump uint8) error {
	acc, err := tx.Get(claimed)
	if err != nil {
		return err
	}
	if acc.DataIsEmpty() || !acc.Owner.Equals(program) {
		return fmt.Errorf("%w: %s is not a live trade state", ErrInvalidTradeState, claimed)
	}
	if acc.Data[0] != claimedBump {
		return fmt.Errorf("%w: stored bump %d, claimed %d", ErrInvalidTradeState, acc.Data[0], claimedBump)
	}
	private := p
	public := p
	public.TokenAccount = solana.PublicKey{}
	if pda.Verify(private.Seeds(), program, claimed, claimedBump) == nil {
		return nil
	}
	if err := pda.Verify(public.Seeds(), program, claimed, claimedBump); err != nil {
		return fmt.Errorf("%w: %w: %w", ErrInvalidTradeState, ErrDerivedKeyInvalid, err)
	}
	return nil
}

func (c *call) cancel(ix *Cancel, acting *AuctioneerAccounts) error {
	house, err := c.loadHouse(ix.AuctionHouse)
	if err != nil {
		return err
	}
	if err := checkHouseAccounts(house, ix.Authority, ix.AuctionHouseFeeAccount); err != nil {
		return err
	}
	g, err := c.authorize(ix.AuctionHouse, house, acting, ScopeCancel)
	if err != nil {
		return err
	}
	walletSigned := c.tx.IsSigner(ix.Wallet)
	if g == nil && !walletSigned && !c.tx.IsSigner(house.Authority) {
		return ErrNoValidSignerPresent
	}
	ta, err := token.Load(c.tx, ix.TokenAccount)
	if err != nil {
		return err
	}
	if err := expectKey("token_mint", ta.Mint, ix.TokenMint); err != nil {
		return err
	}
	payer, err := c.resolveFeePayer(ix.AuctionHouse, house, ix.Wallet, g)
	if err != nil {
		return err
	}
	bump, err := c.tradeStateBump(ix.TradeState)
	if err != nil {
		return err
	}
	params := TradeStateParams{
		Wallet:       ix.Wallet,
		AuctionHouse: ix.AuctionHouse,
		TokenAccount: ix.TokenAccount,
		TreasuryMint: house.TreasuryMint,
		TokenMint:    ix.TokenMint,
		Price:        ix.BuyerPrice,
		Size:         ix.TokenSize,
	}
	if err := AssertValidTradeState(c.tx, c.program, params, ix.TradeState, bump); err != nil {
		return err
	}
	if ta.Owner.Equals(ix.Wallet) && walletSigned && ta.HasDelegate() {
		if err := token.Revoke(c.tx, ix.TokenAccount, state.SignerAuthority(ix.Wallet)); err != nil {
			return err
		}
	}
	if err := c.closeAccount(ix.TradeState, payer.Key); err != nil {
		return err
	}
	c.emit(newEvent(EventTypeTradeStateCanceled, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("wallet", ix.Wallet).
		key("tradeState", ix.TradeState).
		key("controller", g.controllerKey()).
		u64("price", ix.BuyerPrice).
		u64("size", ix.TokenSize)))
	return nil
}
