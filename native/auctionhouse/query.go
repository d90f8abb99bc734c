package auctionhouse

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/types"
)

func (e *Engine) committed(addr solana.PublicKey) (*types.Account, error) {
	if e == nil || e.ledger == nil {
		return nil, errNilLedger
	}
	acc, err := e.ledger.Account(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUninitializedAccount, addr)
	}
	return acc, nil
}

// AuctionHouse returns the committed configuration at addr.
func (e *Engine) AuctionHouse(addr solana.PublicKey) (*AuctionHouse, error) {
	acc, err := e.committed(addr)
	if err != nil {
		return nil, err
	}
	return DecodeAuctionHouse(acc, e.program)
}

// Auctioneer returns the committed controller record at addr.
func (e *Engine) Auctioneer(addr solana.PublicKey) (*Auctioneer, error) {
	acc, err := e.committed(addr)
	if err != nil {
		return nil, err
	}
	return DecodeAuctioneer(acc, e.program)
}

func (e *Engine) ListingReceipt(addr solana.PublicKey) (*ListingReceipt, error) {
	acc, err := e.committed(addr)
	if err != nil {
		return nil, err
	}
	return DecodeListingReceipt(acc, e.program)
}

func (e *Engine) BidReceipt(addr solana.PublicKey) (*BidReceipt, error) {
	acc, err := e.committed(addr)
	if err != nil {
		return nil, err
	}
	return DecodeBidReceipt(acc, e.program)
}

func (e *Engine) PurchaseReceipt(addr solana.PublicKey) (*PurchaseReceipt, error) {
	acc, err := e.committed(addr)
	if err != nil {
		return nil, err
	}
	return DecodePurchaseReceipt(acc, e.program)
}

// TradeStateOpen reports whether a live trade state sits at addr.
func (e *Engine) TradeStateOpen(addr solana.PublicKey) (bool, error) {
	if e == nil || e.ledger == nil {
		return false, errNilLedger
	}
	acc, err := e.ledger.Account(addr)
	if err != nil {
		return false, err
	}
	return acc != nil && !acc.DataIsEmpty() && acc.Owner.Equals(e.program), nil
}
