package auctionhouse

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"auctionhouse/core/state"
	"auctionhouse/crypto/pda"
	"auctionhouse/native/token"
)

// SplitPrice divides price into the marketplace fee and the seller's
// proceeds. The fee is rounded down.
func SplitPrice(price uint64, basisPoints uint16) (fee, proceeds uint64, err error) {
	if basisPoints > MaxBasisPoints {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidBasisPoints, basisPoints)
	}
	amount := new(uint256.Int).SetUint64(price)
	amount.Mul(amount, uint256.NewInt(uint64(basisPoints)))
	amount.Div(amount, uint256.NewInt(MaxBasisPoints))
	if !amount.IsUint64() {
		return 0, 0, ErrNumericalOverflow
	}
	fee = amount.Uint64()
	if fee > price {
		return 0, 0, ErrNumericalOverflow
	}
	return fee, price - fee, nil
}

// checkedAdd returns a+b or ErrNumericalOverflow when the sum leaves u64.
func checkedAdd(a, b uint64) (uint64, error) {
	sum := new(uint256.Int).Add(uint256.NewInt(a), uint256.NewInt(b))
	if !sum.IsUint64() {
		return 0, ErrNumericalOverflow
	}
	return sum.Uint64(), nil
}

// saleFeePayer resolves who funds settlement-time account creation and
// receives the reclaimed trade-state rent.
func (c *call) saleFeePayer(houseKey solana.PublicKey, house *AuctionHouse, ix *ExecuteSale, g *grant) (state.Authority, error) {
	if g != nil || c.tx.IsSigner(house.Authority) {
		return c.feeAccountAuthority(houseKey, house), nil
	}
	if house.RequiresSignOff {
		return state.Authority{}, ErrSignOffRequired
	}
	switch {
	case c.tx.IsSigner(ix.Seller):
		return state.SignerAuthority(ix.Seller), nil
	case c.tx.IsSigner(ix.Buyer):
		return state.SignerAuthority(ix.Buyer), nil
	}
	return state.Authority{}, ErrNoPayerPresent
}

func (c *call) executeSale(ix *ExecuteSale, acting *AuctioneerAccounts) error {
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
	if err := expectKey("auction_house_treasury", ix.AuctionHouseTreasury, house.AuctionHouseTreasury); err != nil {
		return err
	}
	g, err := c.authorize(ix.AuctionHouse, house, acting, ScopeExecuteSale)
	if err != nil {
		return err
	}
	if ix.BuyerPrice == 0 && g == nil && !c.tx.IsSigner(house.Authority) && !c.tx.IsSigner(ix.Seller) {
		return ErrCannotMatchFreeSales
	}
	payer, err := c.saleFeePayer(ix.AuctionHouse, house, ix, g)
	if err != nil {
		return err
	}

	escrowSeeds := pda.EscrowSeeds(ix.AuctionHouse, ix.Buyer)
	if err := c.verify(escrowSeeds, ix.EscrowPaymentAccount, ix.EscrowPaymentBump); err != nil {
		return err
	}
	if err := c.verify(pda.ProgramAsSignerSeeds(), ix.ProgramAsSigner, ix.ProgramAsSignerBump); err != nil {
		return err
	}

	// Both sides must still be live; a canceled or settled order cannot
	// match.
	buyerBump, err := c.tradeStateBump(ix.BuyerTradeState)
	if err != nil {
		return fmt.Errorf("%w: buyer: %w", ErrBothPartiesNeedToAgreeToSale, err)
	}
	sellerBump, err := c.tradeStateBump(ix.SellerTradeState)
	if err != nil {
		return fmt.Errorf("%w: seller: %w", ErrBothPartiesNeedToAgreeToSale, err)
	}
	params := TradeStateParams{
		AuctionHouse: ix.AuctionHouse,
		TokenAccount: ix.TokenAccount,
		TreasuryMint: house.TreasuryMint,
		TokenMint:    ix.TokenMint,
		Price:        ix.BuyerPrice,
		Size:         ix.TokenSize,
	}
	buyerParams := params
	buyerParams.Wallet = ix.Buyer
	if err := AssertValidTradeState(c.tx, c.program, buyerParams, ix.BuyerTradeState, buyerBump); err != nil {
		return err
	}
	sellerParams := params
	sellerParams.Wallet = ix.Seller
	if err := c.verify(sellerParams.Seeds(), ix.SellerTradeState, sellerBump); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTradeState, err)
	}
	freeParams := sellerParams
	freeParams.Price = 0
	if err := c.verify(freeParams.Seeds(), ix.FreeTradeState, ix.FreeTradeStateBump); err != nil {
		return err
	}

	ta, err := token.Load(c.tx, ix.TokenAccount)
	if err != nil {
		return err
	}
	if !ta.Owner.Equals(ix.Seller) {
		return fmt.Errorf("%w: token account owned by %s", ErrIncorrectOwner, ta.Owner)
	}
	if err := expectKey("token_mint", ta.Mint, ix.TokenMint); err != nil {
		return err
	}
	if ix.TokenSize == 0 || ta.Amount < ix.TokenSize {
		return fmt.Errorf("%w: holds %d, sale of %d", ErrInvalidTokenAmount, ta.Amount, ix.TokenSize)
	}
	if !ta.HasDelegate() || !ta.Delegate.Equals(ix.ProgramAsSigner) || ta.DelegatedAmount < ix.TokenSize {
		return ErrTokenNotDelegated
	}

	fee, proceeds, err := SplitPrice(ix.BuyerPrice, house.SellerFeeBasisPoints)
	if err != nil {
		return err
	}
	if err := c.settlePayment(ix, house, payer, escrowSeeds, fee, proceeds); err != nil {
		return err
	}

	receipt, _, err := token.AssociatedAddress(ix.Buyer, ix.TokenMint)
	if err != nil {
		return err
	}
	if err := expectKey("buyer_receipt_token_account", ix.BuyerReceiptTokenAccount, receipt); err != nil {
		return err
	}
	if _, err := token.CreateAssociatedAccount(c.tx, payer, ix.Buyer, ix.TokenMint); err != nil {
		return err
	}
	signer := c.programAuthority(ix.ProgramAsSigner, pda.ProgramAsSignerSeeds(), ix.ProgramAsSignerBump)
	if err := token.Transfer(c.tx, ix.TokenAccount, ix.BuyerReceiptTokenAccount, signer, ix.TokenSize); err != nil {
		return err
	}

	if err := c.closeAccount(ix.BuyerTradeState, payer.Key); err != nil {
		return err
	}
	if err := c.closeAccount(ix.SellerTradeState, payer.Key); err != nil {
		return err
	}
	freeState, err := c.tx.Get(ix.FreeTradeState)
	if err != nil {
		return err
	}
	if !freeState.DataIsEmpty() {
		if err := c.closeAccount(ix.FreeTradeState, payer.Key); err != nil {
			return err
		}
	}

	c.sales = append(c.sales, saleRecord{treasuryMint: house.TreasuryMint, price: ix.BuyerPrice, fee: fee})
	c.emit(newEvent(EventTypeSaleExecuted, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("buyer", ix.Buyer).
		key("seller", ix.Seller).
		key("tokenMint", ix.TokenMint).
		key("controller", g.controllerKey()).
		u64("price", ix.BuyerPrice).
		u64("size", ix.TokenSize).
		u64("fee", fee).
		u64("proceeds", proceeds)))
	return nil
}

// settlePayment pays the marketplace fee into the treasury and the rest of
// the price to the seller, both out of the buyer's escrow.
func (c *call) settlePayment(ix *ExecuteSale, house *AuctionHouse, payer state.Authority, escrowSeeds [][]byte, fee, proceeds uint64) error {
	if house.IsNative() {
		if err := expectKey("seller_payment_receipt_account", ix.SellerPaymentReceiptAccount, ix.Seller); err != nil {
			return err
		}
		escrow, err := c.tx.Get(ix.EscrowPaymentAccount)
		if err != nil {
			return err
		}
		if spendable := EscrowSpendable(escrow.Lamports, c.tx.Rent()); spendable < ix.BuyerPrice {
			return fmt.Errorf("%w: escrow spendable %d, price %d", ErrInsufficientFunds, spendable, ix.BuyerPrice)
		}
		auth := c.programAuthority(ix.EscrowPaymentAccount, escrowSeeds, ix.EscrowPaymentBump)
		if err := c.tx.Transfer(auth, ix.AuctionHouseTreasury, fee); err != nil {
			return insufficient(err)
		}
		return insufficient(c.tx.Transfer(auth, ix.SellerPaymentReceiptAccount, proceeds))
	}

	want, _, err := token.AssociatedAddress(ix.Seller, house.TreasuryMint)
	if err != nil {
		return err
	}
	if err := expectKey("seller_payment_receipt_account", ix.SellerPaymentReceiptAccount, want); err != nil {
		return err
	}
	if _, err := token.CreateAssociatedAccount(c.tx, payer, ix.Seller, house.TreasuryMint); err != nil {
		return err
	}
	escrow, err := token.Load(c.tx, ix.EscrowPaymentAccount)
	if err != nil {
		return err
	}
	if escrow.Amount < ix.BuyerPrice {
		return fmt.Errorf("%w: escrow holds %d, price %d", ErrInsufficientFunds, escrow.Amount, ix.BuyerPrice)
	}
	auth := c.houseAuthority(ix.AuctionHouse, house)
	if err := token.Transfer(c.tx, ix.EscrowPaymentAccount, ix.AuctionHouseTreasury, auth, fee); err != nil {
		return insufficient(err)
	}
	return insufficient(token.Transfer(c.tx, ix.EscrowPaymentAccount, ix.SellerPaymentReceiptAccount, auth, proceeds))
}
