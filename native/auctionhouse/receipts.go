package auctionhouse

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/crypto/pda"
)

// stamp returns the transaction time as a set receipt timestamp.
func (c *call) stamp() *int64 {
	now := c.now
	return &now
}

// createReceipt allocates a receipt account funded by the bookkeeper.
// Receipts are append-only, so an existing one is an error.
func (c *call) createReceipt(addr, bookkeeper solana.PublicKey, seeds [][]byte, bump uint8, size int) error {
	if err := c.verify(seeds, addr, bump); err != nil {
		return err
	}
	acc, err := c.tx.Get(addr)
	if err != nil {
		return err
	}
	if !acc.DataIsEmpty() {
		return fmt.Errorf("%w: %s", ErrReceiptAlreadyExists, addr)
	}
	return c.tx.CreateAccount(state.SignerAuthority(bookkeeper), c.programAuthority(addr, seeds, bump), size, c.program)
}

func (c *call) printListingReceipt(ix *PrintListingReceipt) error {
	var sell *Sell
	switch prev := c.prev.(type) {
	case *Sell:
		sell = prev
	case *AuctioneerSell:
		sell = &prev.Sell
	default:
		return fmt.Errorf("%w: listing receipt must follow a sell", ErrInstructionMismatch)
	}
	tsBump, err := c.tradeStateBump(sell.SellerTradeState)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTradeStateDoesntExist, err)
	}
	seeds := pda.ListingReceiptSeeds(sell.SellerTradeState)
	if err := c.createReceipt(ix.Receipt, ix.Bookkeeper, seeds, ix.ReceiptBump, ListingReceiptSize); err != nil {
		return err
	}
	receipt := &ListingReceipt{
		TradeState:     sell.SellerTradeState,
		Bookkeeper:     ix.Bookkeeper,
		AuctionHouse:   sell.AuctionHouse,
		Seller:         sell.Wallet,
		TokenMint:      sell.TokenMint,
		Price:          sell.BuyerPrice,
		TokenSize:      sell.TokenSize,
		Bump:           ix.ReceiptBump,
		TradeStateBump: tsBump,
		CreatedAt:      c.now,
	}
	if err := c.storeRecord(ix.Receipt, listingReceiptDiscriminator, receipt, ListingReceiptSize); err != nil {
		return err
	}
	c.emit(newEvent(EventTypeListingReceiptPrinted, attrs{}.
		key("receipt", ix.Receipt).
		key("tradeState", sell.SellerTradeState).
		u64("price", sell.BuyerPrice)))
	return nil
}

// precedingCancel returns the cancel that immediately precedes the current
// instruction.
func (c *call) precedingCancel() (*Cancel, error) {
	switch prev := c.prev.(type) {
	case *Cancel:
		return prev, nil
	case *AuctioneerCancel:
		return &prev.Cancel, nil
	}
	return nil, fmt.Errorf("%w: receipt cancellation must follow a cancel", ErrInstructionMismatch)
}

func (c *call) cancelListingReceipt(ix *CancelListingReceipt) error {
	cancel, err := c.precedingCancel()
	if err != nil {
		return err
	}
	acc, err := c.tx.Get(ix.Receipt)
	if err != nil {
		return err
	}
	receipt, err := DecodeListingReceipt(acc, c.program)
	if err != nil {
		return err
	}
	if err := c.verify(pda.ListingReceiptSeeds(receipt.TradeState), ix.Receipt, receipt.Bump); err != nil {
		return err
	}
	if !receipt.TradeState.Equals(cancel.TradeState) {
		return fmt.Errorf("%w: receipt is for %s, cancel closed %s", ErrInstructionMismatch, receipt.TradeState, cancel.TradeState)
	}
	if receipt.CanceledAt != nil {
		return ErrReceiptAlreadyCanceled
	}
	receipt.CanceledAt = c.stamp()
	if err := c.storeRecord(ix.Receipt, listingReceiptDiscriminator, receipt, ListingReceiptSize); err != nil {
		return err
	}
	c.emit(newEvent(EventTypeListingReceiptClosed, attrs{}.
		key("receipt", ix.Receipt).
		key("tradeState", receipt.TradeState)))
	return nil
}

func (c *call) printBidReceipt(ix *PrintBidReceipt) error {
	var (
		buy    *Buy
		public bool
	)
	switch prev := c.prev.(type) {
	case *Buy:
		buy = prev
	case *PublicBuy:
		buy, public = &prev.Buy, true
	case *AuctioneerBuy:
		buy = &prev.Buy
	case *AuctioneerPublicBuy:
		buy, public = &prev.Buy, true
	default:
		return fmt.Errorf("%w: bid receipt must follow a buy", ErrInstructionMismatch)
	}
	tsBump, err := c.tradeStateBump(buy.BuyerTradeState)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTradeStateDoesntExist, err)
	}
	seeds := pda.BidReceiptSeeds(buy.BuyerTradeState)
	if err := c.createReceipt(ix.Receipt, ix.Bookkeeper, seeds, ix.ReceiptBump, BidReceiptSize); err != nil {
		return err
	}
	receipt := &BidReceipt{
		TradeState:     buy.BuyerTradeState,
		Bookkeeper:     ix.Bookkeeper,
		AuctionHouse:   buy.AuctionHouse,
		Buyer:          buy.Wallet,
		TokenMint:      buy.TokenMint,
		TokenAccount:   bidTokenAccount(buy, public),
		Price:          buy.BuyerPrice,
		TokenSize:      buy.TokenSize,
		Bump:           ix.ReceiptBump,
		TradeStateBump: tsBump,
		CreatedAt:      c.now,
	}
	if err := c.storeRecord(ix.Receipt, bidReceiptDiscriminator, receipt, BidReceiptSize); err != nil {
		return err
	}
	c.emit(newEvent(EventTypeBidReceiptPrinted, attrs{}.
		key("receipt", ix.Receipt).
		key("tradeState", buy.BuyerTradeState).
		u64("price", buy.BuyerPrice)))
	return nil
}

func (c *call) cancelBidReceipt(ix *CancelBidReceipt) error {
	cancel, err := c.precedingCancel()
	if err != nil {
		return err
	}
	acc, err := c.tx.Get(ix.Receipt)
	if err != nil {
		return err
	}
	receipt, err := DecodeBidReceipt(acc, c.program)
	if err != nil {
		return err
	}
	if err := c.verify(pda.BidReceiptSeeds(receipt.TradeState), ix.Receipt, receipt.Bump); err != nil {
		return err
	}
	if !receipt.TradeState.Equals(cancel.TradeState) {
		return fmt.Errorf("%w: receipt is for %s, cancel closed %s", ErrInstructionMismatch, receipt.TradeState, cancel.TradeState)
	}
	if receipt.CanceledAt != nil {
		return ErrReceiptAlreadyCanceled
	}
	receipt.CanceledAt = c.stamp()
	if err := c.storeRecord(ix.Receipt, bidReceiptDiscriminator, receipt, BidReceiptSize); err != nil {
		return err
	}
	c.emit(newEvent(EventTypeBidReceiptClosed, attrs{}.
		key("receipt", ix.Receipt).
		key("tradeState", receipt.TradeState)))
	return nil
}

func (c *call) printPurchaseReceipt(ix *PrintPurchaseReceipt) error {
	var sale *ExecuteSale
	switch prev := c.prev.(type) {
	case *ExecuteSale:
		sale = prev
	case *AuctioneerExecuteSale:
		sale = &prev.ExecuteSale
	default:
		return fmt.Errorf("%w: purchase receipt must follow a sale", ErrInstructionMismatch)
	}
	seeds := pda.PurchaseReceiptSeeds(sale.SellerTradeState, sale.BuyerTradeState)
	if err := c.createReceipt(ix.PurchaseReceipt, ix.Bookkeeper, seeds, ix.PurchaseReceiptBump, PurchaseReceiptSize); err != nil {
		return err
	}
	if !ix.ListingReceipt.IsZero() {
		acc, err := c.tx.Get(ix.ListingReceipt)
		if err != nil {
			return err
		}
		listing, err := DecodeListingReceipt(acc, c.program)
		if err != nil {
			return err
		}
		if !listing.TradeState.Equals(sale.SellerTradeState) {
			return fmt.Errorf("%w: listing receipt is for %s", ErrInstructionMismatch, listing.TradeState)
		}
		listing.PurchaseReceipt = ix.PurchaseReceipt
		listing.PurchasedAt = c.stamp()
		if err := c.storeRecord(ix.ListingReceipt, listingReceiptDiscriminator, listing, ListingReceiptSize); err != nil {
			return err
		}
	}
	if !ix.BidReceipt.IsZero() {
		acc, err := c.tx.Get(ix.BidReceipt)
		if err != nil {
			return err
		}
		bid, err := DecodeBidReceipt(acc, c.program)
		if err != nil {
			return err
		}
		if !bid.TradeState.Equals(sale.BuyerTradeState) {
			return fmt.Errorf("%w: bid receipt is for %s", ErrInstructionMismatch, bid.TradeState)
		}
		bid.PurchaseReceipt = ix.PurchaseReceipt
		bid.PurchasedAt = c.stamp()
		if err := c.storeRecord(ix.BidReceipt, bidReceiptDiscriminator, bid, BidReceiptSize); err != nil {
			return err
		}
	}
	receipt := &PurchaseReceipt{
		Bookkeeper:   ix.Bookkeeper,
		Buyer:        sale.Buyer,
		Seller:       sale.Seller,
		AuctionHouse: sale.AuctionHouse,
		TokenMint:    sale.TokenMint,
		TokenSize:    sale.TokenSize,
		Price:        sale.BuyerPrice,
		Bump:         ix.PurchaseReceiptBump,
		CreatedAt:    c.now,
	}
	if err := c.storeRecord(ix.PurchaseReceipt, purchaseReceiptDiscriminator, receipt, PurchaseReceiptSize); err != nil {
		return err
	}
	c.emit(newEvent(EventTypePurchaseReceiptPrint, attrs{}.
		key("receipt", ix.PurchaseReceipt).
		key("buyer", sale.Buyer).
		key("seller", sale.Seller).
		u64("price", sale.BuyerPrice)))
	return nil
}
