package auctionhouse

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/crypto/pda"
	"auctionhouse/native/token"
)

func (c *call) sell(ix *Sell, acting *AuctioneerAccounts) error {
	house, err := c.loadHouse(ix.AuctionHouse)
	if err != nil {
		return err
	}
	if err := checkHouseAccounts(house, ix.Authority, ix.AuctionHouseFeeAccount); err != nil {
		return err
	}
	g, err := c.authorize(ix.AuctionHouse, house, acting, ScopeSell)
	if err != nil {
		return err
	}
	ta, err := token.Load(c.tx, ix.TokenAccount)
	if err != nil {
		return err
	}
	if !ta.Owner.Equals(ix.Wallet) {
		return fmt.Errorf("%w: token account owned by %s", ErrIncorrectOwner, ta.Owner)
	}
	if err := expectKey("token_mint", ta.Mint, ix.TokenMint); err != nil {
		return err
	}
	if ix.TokenSize == 0 || ta.Amount < ix.TokenSize {
		return fmt.Errorf("%w: holds %d, listing %d", ErrInvalidTokenAmount, ta.Amount, ix.TokenSize)
	}
	if err := c.verify(pda.ProgramAsSignerSeeds(), ix.ProgramAsSigner, ix.ProgramAsSignerBump); err != nil {
		return err
	}

	params := TradeStateParams{
		Wallet:       ix.Wallet,
		AuctionHouse: ix.AuctionHouse,
		TokenAccount: ix.TokenAccount,
		TreasuryMint: house.TreasuryMint,
		TokenMint:    ix.TokenMint,
		Size:         ix.TokenSize,
	}
	free := params
	if err := c.verify(free.Seeds(), ix.FreeSellerTradeState, ix.FreeTradeStateBump); err != nil {
		return err
	}

	walletSigned := c.tx.IsSigner(ix.Wallet)
	if !walletSigned {
		// Without the seller, the house may only reprice an existing free
		// listing, and only when its settings allow it.
		if ix.BuyerPrice == 0 {
			return ErrSaleRequiresSigner
		}
		freeState, err := c.tx.Get(ix.FreeSellerTradeState)
		if err != nil {
			return err
		}
		if freeState.DataIsEmpty() {
			return fmt.Errorf("%w: no free listing to reprice", ErrSaleRequiresSigner)
		}
		if !house.CanChangeSalePrice || (g == nil && !c.tx.IsSigner(house.Authority)) {
			return ErrSaleRequiresSigner
		}
		if !ta.HasDelegate() || !ta.Delegate.Equals(ix.ProgramAsSigner) {
			return ErrTokenNotDelegated
		}
	}
	payer, err := c.resolveFeePayer(ix.AuctionHouse, house, ix.Wallet, g)
	if err != nil {
		return err
	}
	if walletSigned {
		if err := token.Approve(c.tx, ix.TokenAccount, ix.ProgramAsSigner, state.SignerAuthority(ix.Wallet), ix.TokenSize); err != nil {
			return err
		}
	}
	params.Price = ix.BuyerPrice
	created, err := c.openTradeState(payer, ix.SellerTradeState, params.Seeds(), ix.TradeStateBump)
	if err != nil {
		return err
	}
	c.emit(newEvent(EventTypeListingCreated, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("seller", ix.Wallet).
		key("tokenMint", ix.TokenMint).
		key("tradeState", ix.SellerTradeState).
		key("controller", g.controllerKey()).
		u64("price", ix.BuyerPrice).
		u64("size", ix.TokenSize).
		str("created", fmt.Sprint(created))))
	return nil
}

func (c *call) buy(ix *Buy, public bool, acting *AuctioneerAccounts) error {
	house, err := c.loadHouse(ix.AuctionHouse)
	if err != nil {
		return err
	}
	if err := checkHouseAccounts(house, ix.Authority, ix.AuctionHouseFeeAccount); err != nil {
		return err
	}
	if err := expectKey("treasury_mint", ix.TreasuryMint, house.TreasuryMint); err != nil {
		return err
	}
	scope := ScopeBuy
	if public {
		scope = ScopePublicBuy
	}
	g, err := c.authorize(ix.AuctionHouse, house, acting, scope)
	if err != nil {
		return err
	}
	if !c.tx.IsSigner(ix.Wallet) {
		return fmt.Errorf("%w: %s", ErrWalletMustSign, ix.Wallet)
	}
	payer, err := c.resolveFeePayer(ix.AuctionHouse, house, ix.Wallet, g)
	if err != nil {
		return err
	}
	if ix.TokenSize == 0 {
		return ErrInvalidTokenAmount
	}
	params := TradeStateParams{
		Wallet:       ix.Wallet,
		AuctionHouse: ix.AuctionHouse,
		TreasuryMint: house.TreasuryMint,
		TokenMint:    ix.TokenMint,
		Price:        ix.BuyerPrice,
		Size:         ix.TokenSize,
	}
	if !public {
		ta, err := token.Load(c.tx, ix.TokenAccount)
		if err != nil {
			return err
		}
		if err := expectKey("token_mint", ta.Mint, ix.TokenMint); err != nil {
			return err
		}
		if ta.Amount < ix.TokenSize {
			return fmt.Errorf("%w: holder has %d, bid wants %d", ErrInvalidTokenAmount, ta.Amount, ix.TokenSize)
		}
		params.TokenAccount = ix.TokenAccount
	}
	escrowSeeds := pda.EscrowSeeds(ix.AuctionHouse, ix.Wallet)
	if err := c.verify(escrowSeeds, ix.EscrowPaymentAccount, ix.EscrowPaymentBump); err != nil {
		return err
	}

	var moved uint64
	if house.IsNative() {
		if !ix.PaymentAccount.Equals(ix.Wallet) {
			return fmt.Errorf("%w: payment account %s", ErrExpectedSolAccount, ix.PaymentAccount)
		}
		target, err := checkedAdd(ix.BuyerPrice, c.tx.Rent().MinimumBalance(0))
		if err != nil {
			return err
		}
		if moved, err = c.topUpNative(ix.Wallet, ix.EscrowPaymentAccount, target); err != nil {
			return err
		}
	} else {
		if _, err := token.AssertAssociated(c.tx, ix.PaymentAccount, ix.Wallet, house.TreasuryMint); err != nil {
			return fmt.Errorf("payment account: %w", err)
		}
		if err := c.ensureTokenEscrow(payer, ix.AuctionHouse, house, ix.Wallet, ix.EscrowPaymentAccount, ix.EscrowPaymentBump); err != nil {
			return err
		}
		escrow, err := token.Load(c.tx, ix.EscrowPaymentAccount)
		if err != nil {
			return err
		}
		if escrow.Amount < ix.BuyerPrice {
			moved = ix.BuyerPrice - escrow.Amount
			auth := state.SignerAuthority(ix.TransferAuthority)
			if err := token.Transfer(c.tx, ix.PaymentAccount, ix.EscrowPaymentAccount, auth, moved); err != nil {
				return insufficient(err)
			}
		}
	}
	created, err := c.openTradeState(payer, ix.BuyerTradeState, params.Seeds(), ix.TradeStateBump)
	if err != nil {
		return err
	}
	c.emit(newEvent(EventTypeBidCreated, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("buyer", ix.Wallet).
		key("tokenMint", ix.TokenMint).
		key("tokenAccount", params.TokenAccount).
		key("tradeState", ix.BuyerTradeState).
		key("controller", g.controllerKey()).
		u64("price", ix.BuyerPrice).
		u64("size", ix.TokenSize).
		u64("escrowTopUp", moved).
		str("created", fmt.Sprint(created))))
	return nil
}

// bidTokenAccount is the token account a bid is bound to; public bids are
// bound to none.
func bidTokenAccount(ix *Buy, public bool) solana.PublicKey {
	if public {
		return solana.PublicKey{}
	}
	return ix.TokenAccount
}
