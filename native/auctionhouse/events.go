package auctionhouse

import (
	"strconv"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/types"
)

const (
	EventTypeAuctionHouseCreated   = "auctionhouse.created"
	EventTypeAuctionHouseUpdated   = "auctionhouse.updated"
	EventTypeAuctioneerDelegated   = "auctionhouse.auctioneer.delegated"
	EventTypeAuctioneerUpdated     = "auctionhouse.auctioneer.updated"
	EventTypeEscrowDeposited       = "auctionhouse.escrow.deposited"
	EventTypeEscrowWithdrawn       = "auctionhouse.escrow.withdrawn"
	EventTypeListingCreated        = "auctionhouse.listing.created"
	EventTypeBidCreated            = "auctionhouse.bid.created"
	EventTypeTradeStateCanceled    = "auctionhouse.trade_state.canceled"
	EventTypeSaleExecuted          = "auctionhouse.sale.executed"
	EventTypeFeeWithdrawn          = "auctionhouse.fee.withdrawn"
	EventTypeTreasuryWithdrawn     = "auctionhouse.treasury.withdrawn"
	EventTypeListingReceiptPrinted = "auctionhouse.receipt.listing.printed"
	EventTypeListingReceiptClosed  = "auctionhouse.receipt.listing.canceled"
	EventTypeBidReceiptPrinted     = "auctionhouse.receipt.bid.printed"
	EventTypeBidReceiptClosed      = "auctionhouse.receipt.bid.canceled"
	EventTypePurchaseReceiptPrint  = "auctionhouse.receipt.purchase.printed"
)

type auctionEvent struct {
	evt *types.Event
}

func (e auctionEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

// Event exposes the underlying payload.
func (e auctionEvent) Event() *types.Event { return e.evt }

// attrs accumulates event attributes. Zero keys are omitted.
type attrs map[string]string

func (a attrs) key(name string, key solana.PublicKey) attrs {
	if !key.IsZero() {
		a[name] = key.String()
	}
	return a
}

func (a attrs) u64(name string, v uint64) attrs {
	a[name] = strconv.FormatUint(v, 10)
	return a
}

func (a attrs) str(name, v string) attrs {
	if v != "" {
		a[name] = v
	}
	return a
}

func newEvent(eventType string, a attrs) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string(a)}
}
