package auctionhouse

import "github.com/gagliardetto/solana-go"

// Instruction is one operation inside a transaction. Accounts lists every
// address the operation may read or write; the ledger locks exactly these.
type Instruction interface {
	Name() string
	Accounts() []solana.PublicKey
}

func accountList(keys ...solana.PublicKey) []solana.PublicKey {
	out := make([]solana.PublicKey, 0, len(keys))
	for _, key := range keys {
		if !key.IsZero() {
			out = append(out, key)
		}
	}
	return out
}

// CreateAuctionHouse initialises a marketplace owned by Authority.
type CreateAuctionHouse struct {
	Payer                              solana.PublicKey
	Authority                          solana.PublicKey
	TreasuryMint                       solana.PublicKey
	FeeWithdrawalDestination           solana.PublicKey
	TreasuryWithdrawalDestination      solana.PublicKey
	TreasuryWithdrawalDestinationOwner solana.PublicKey
	AuctionHouse                       solana.PublicKey
	AuctionHouseFeeAccount             solana.PublicKey
	AuctionHouseTreasury               solana.PublicKey
	Bump                               uint8
	FeePayerBump                       uint8
	TreasuryBump                       uint8
	SellerFeeBasisPoints               uint16
	RequiresSignOff                    bool
	CanChangeSalePrice                 bool
}

func (*CreateAuctionHouse) Name() string { return "create_auction_house" }

func (ix *CreateAuctionHouse) Accounts() []solana.PublicKey {
	return accountList(ix.Payer, ix.Authority, ix.FeeWithdrawalDestination, ix.TreasuryWithdrawalDestination,
		ix.TreasuryWithdrawalDestinationOwner, ix.AuctionHouse, ix.AuctionHouseFeeAccount, ix.AuctionHouseTreasury)
}

// UpdateAuctionHouse changes marketplace settings. Zero keys and nil
// parameters leave the current value in place.
type UpdateAuctionHouse struct {
	Payer                              solana.PublicKey
	Authority                          solana.PublicKey
	NewAuthority                       solana.PublicKey
	TreasuryMint                       solana.PublicKey
	FeeWithdrawalDestination           solana.PublicKey
	TreasuryWithdrawalDestination      solana.PublicKey
	TreasuryWithdrawalDestinationOwner solana.PublicKey
	AuctionHouse                       solana.PublicKey
	SellerFeeBasisPoints               *uint16
	RequiresSignOff                    *bool
	CanChangeSalePrice                 *bool
}

func (*UpdateAuctionHouse) Name() string { return "update_auction_house" }

func (ix *UpdateAuctionHouse) Accounts() []solana.PublicKey {
	return accountList(ix.Payer, ix.Authority, ix.FeeWithdrawalDestination, ix.TreasuryWithdrawalDestination,
		ix.TreasuryWithdrawalDestinationOwner, ix.AuctionHouse)
}

// DelegateAuctioneer hands a scoped set of operations to a controller.
type DelegateAuctioneer struct {
	AuctionHouse        solana.PublicKey
	Authority           solana.PublicKey
	AuctioneerAuthority solana.PublicKey
	Auctioneer          solana.PublicKey
	Scopes              []AuthorityScope
}

func (*DelegateAuctioneer) Name() string { return "delegate_auctioneer" }

func (ix *DelegateAuctioneer) Accounts() []solana.PublicKey {
	return accountList(ix.AuctionHouse, ix.Authority, ix.AuctioneerAuthority, ix.Auctioneer)
}

// UpdateAuctioneer replaces the controller's scope set.
type UpdateAuctioneer struct {
	AuctionHouse        solana.PublicKey
	Authority           solana.PublicKey
	AuctioneerAuthority solana.PublicKey
	Auctioneer          solana.PublicKey
	Scopes              []AuthorityScope
}

func (*UpdateAuctioneer) Name() string { return "update_auctioneer" }

func (ix *UpdateAuctioneer) Accounts() []solana.PublicKey {
	return accountList(ix.AuctionHouse, ix.Authority, ix.AuctioneerAuthority, ix.Auctioneer)
}

// AuctioneerAccounts identify the controller acting on a delegated-path
// instruction and its record.
type AuctioneerAccounts struct {
	AuctioneerAuthority solana.PublicKey
	Auctioneer          solana.PublicKey
}

func (a AuctioneerAccounts) keys() []solana.PublicKey {
	return accountList(a.AuctioneerAuthority, a.Auctioneer)
}

// Deposit moves funds from the wallet's payment account into its escrow.
type Deposit struct {
	Wallet                 solana.PublicKey
	PaymentAccount         solana.PublicKey
	TransferAuthority      solana.PublicKey
	EscrowPaymentAccount   solana.PublicKey
	TreasuryMint           solana.PublicKey
	Authority              solana.PublicKey
	AuctionHouse           solana.PublicKey
	AuctionHouseFeeAccount solana.PublicKey
	EscrowPaymentBump      uint8
	Amount                 uint64
}

func (*Deposit) Name() string { return "deposit" }

func (ix *Deposit) Accounts() []solana.PublicKey {
	return accountList(ix.Wallet, ix.PaymentAccount, ix.TransferAuthority, ix.EscrowPaymentAccount,
		ix.Authority, ix.AuctionHouse, ix.AuctionHouseFeeAccount)
}

type AuctioneerDeposit struct {
	Deposit
	AuctioneerAccounts
}

func (*AuctioneerDeposit) Name() string { return "auctioneer_deposit" }

func (ix *AuctioneerDeposit) Accounts() []solana.PublicKey {
	return append(ix.Deposit.Accounts(), ix.keys()...)
}

// Withdraw moves spendable funds out of the wallet's escrow.
type Withdraw struct {
	Wallet                 solana.PublicKey
	ReceiptAccount         solana.PublicKey
	EscrowPaymentAccount   solana.PublicKey
	TreasuryMint           solana.PublicKey
	Authority              solana.PublicKey
	AuctionHouse           solana.PublicKey
	AuctionHouseFeeAccount solana.PublicKey
	EscrowPaymentBump      uint8
	Amount                 uint64
}

func (*Withdraw) Name() string { return "withdraw" }

func (ix *Withdraw) Accounts() []solana.PublicKey {
	return accountList(ix.Wallet, ix.ReceiptAccount, ix.EscrowPaymentAccount, ix.Authority,
		ix.AuctionHouse, ix.AuctionHouseFeeAccount)
}

type AuctioneerWithdraw struct {
	Withdraw
	AuctioneerAccounts
}

func (*AuctioneerWithdraw) Name() string { return "auctioneer_withdraw" }

func (ix *AuctioneerWithdraw) Accounts() []solana.PublicKey {
	return append(ix.Withdraw.Accounts(), ix.keys()...)
}

// Sell records an ask for TokenSize units held in TokenAccount.
type Sell struct {
	Wallet                 solana.PublicKey
	TokenAccount           solana.PublicKey
	TokenMint              solana.PublicKey
	Authority              solana.PublicKey
	AuctionHouse           solana.PublicKey
	AuctionHouseFeeAccount solana.PublicKey
	SellerTradeState       solana.PublicKey
	FreeSellerTradeState   solana.PublicKey
	ProgramAsSigner        solana.PublicKey
	TradeStateBump         uint8
	FreeTradeStateBump     uint8
	ProgramAsSignerBump    uint8
	BuyerPrice             uint64
	TokenSize              uint64
}

func (*Sell) Name() string { return "sell" }

func (ix *Sell) Accounts() []solana.PublicKey {
	return accountList(ix.Wallet, ix.TokenAccount, ix.Authority, ix.AuctionHouse, ix.AuctionHouseFeeAccount,
		ix.SellerTradeState, ix.FreeSellerTradeState, ix.ProgramAsSigner)
}

type AuctioneerSell struct {
	Sell
	AuctioneerAccounts
}

func (*AuctioneerSell) Name() string { return "auctioneer_sell" }

func (ix *AuctioneerSell) Accounts() []solana.PublicKey {
	return append(ix.Sell.Accounts(), ix.keys()...)
}

// Buy records a private bid on the tokens held in TokenAccount and tops the
// buyer's escrow up to the bid price.
type Buy struct {
	Wallet                 solana.PublicKey
	PaymentAccount         solana.PublicKey
	TransferAuthority      solana.PublicKey
	TreasuryMint           solana.PublicKey
	TokenAccount           solana.PublicKey
	TokenMint              solana.PublicKey
	EscrowPaymentAccount   solana.PublicKey
	Authority              solana.PublicKey
	AuctionHouse           solana.PublicKey
	AuctionHouseFeeAccount solana.PublicKey
	BuyerTradeState        solana.PublicKey
	TradeStateBump         uint8
	EscrowPaymentBump      uint8
	BuyerPrice             uint64
	TokenSize              uint64
}

func (*Buy) Name() string { return "buy" }

func (ix *Buy) Accounts() []solana.PublicKey {
	return accountList(ix.Wallet, ix.PaymentAccount, ix.TransferAuthority, ix.TokenAccount,
		ix.EscrowPaymentAccount, ix.Authority, ix.AuctionHouse, ix.AuctionHouseFeeAccount, ix.BuyerTradeState)
}

// PublicBuy is a standing bid on the mint, matchable against any holder.
type PublicBuy struct {
	Buy
}

func (*PublicBuy) Name() string { return "public_buy" }

type AuctioneerBuy struct {
	Buy
	AuctioneerAccounts
}

func (*AuctioneerBuy) Name() string { return "auctioneer_buy" }

func (ix *AuctioneerBuy) Accounts() []solana.PublicKey {
	return append(ix.Buy.Accounts(), ix.keys()...)
}

type AuctioneerPublicBuy struct {
	Buy
	AuctioneerAccounts
}

func (*AuctioneerPublicBuy) Name() string { return "auctioneer_public_buy" }

func (ix *AuctioneerPublicBuy) Accounts() []solana.PublicKey {
	return append(ix.Buy.Accounts(), ix.keys()...)
}

// ExecuteSale matches a seller trade state with a buyer trade state.
type ExecuteSale struct {
	Buyer                       solana.PublicKey
	Seller                      solana.PublicKey
	TokenAccount                solana.PublicKey
	TokenMint                   solana.PublicKey
	TreasuryMint                solana.PublicKey
	EscrowPaymentAccount        solana.PublicKey
	SellerPaymentReceiptAccount solana.PublicKey
	BuyerReceiptTokenAccount    solana.PublicKey
	Authority                   solana.PublicKey
	AuctionHouse                solana.PublicKey
	AuctionHouseFeeAccount      solana.PublicKey
	AuctionHouseTreasury        solana.PublicKey
	BuyerTradeState             solana.PublicKey
	SellerTradeState            solana.PublicKey
	FreeTradeState              solana.PublicKey
	ProgramAsSigner             solana.PublicKey
	EscrowPaymentBump           uint8
	FreeTradeStateBump          uint8
	ProgramAsSignerBump         uint8
	BuyerPrice                  uint64
	TokenSize                   uint64
}

func (*ExecuteSale) Name() string { return "execute_sale" }

func (ix *ExecuteSale) Accounts() []solana.PublicKey {
	return accountList(ix.Buyer, ix.Seller, ix.TokenAccount, ix.EscrowPaymentAccount,
		ix.SellerPaymentReceiptAccount, ix.BuyerReceiptTokenAccount, ix.Authority, ix.AuctionHouse,
		ix.AuctionHouseFeeAccount, ix.AuctionHouseTreasury, ix.BuyerTradeState, ix.SellerTradeState,
		ix.FreeTradeState, ix.ProgramAsSigner)
}

type AuctioneerExecuteSale struct {
	ExecuteSale
	AuctioneerAccounts
}

func (*AuctioneerExecuteSale) Name() string { return "auctioneer_execute_sale" }

func (ix *AuctioneerExecuteSale) Accounts() []solana.PublicKey {
	return append(ix.ExecuteSale.Accounts(), ix.keys()...)
}

// Cancel withdraws an ask or a bid.
type Cancel struct {
	Wallet                 solana.PublicKey
	TokenAccount           solana.PublicKey
	TokenMint              solana.PublicKey
	Authority              solana.PublicKey
	AuctionHouse           solana.PublicKey
	AuctionHouseFeeAccount solana.PublicKey
	TradeState             solana.PublicKey
	BuyerPrice             uint64
	TokenSize              uint64
}

func (*Cancel) Name() string { return "cancel" }

func (ix *Cancel) Accounts() []solana.PublicKey {
	return accountList(ix.Wallet, ix.TokenAccount, ix.Authority, ix.AuctionHouse,
		ix.AuctionHouseFeeAccount, ix.TradeState)
}

type AuctioneerCancel struct {
	Cancel
	AuctioneerAccounts
}

func (*AuctioneerCancel) Name() string { return "auctioneer_cancel" }

func (ix *AuctioneerCancel) Accounts() []solana.PublicKey {
	return append(ix.Cancel.Accounts(), ix.keys()...)
}

// WithdrawFromFee moves lamports out of the marketplace fee account.
type WithdrawFromFee struct {
	Authority                solana.PublicKey
	FeeWithdrawalDestination solana.PublicKey
	AuctionHouseFeeAccount   solana.PublicKey
	AuctionHouse             solana.PublicKey
	Amount                   uint64
}

func (*WithdrawFromFee) Name() string { return "withdraw_from_fee" }

func (ix *WithdrawFromFee) Accounts() []solana.PublicKey {
	return accountList(ix.Authority, ix.FeeWithdrawalDestination, ix.AuctionHouseFeeAccount, ix.AuctionHouse)
}

// WithdrawFromTreasury moves accumulated marketplace fees out of the treasury.
type WithdrawFromTreasury struct {
	TreasuryMint                  solana.PublicKey
	Authority                     solana.PublicKey
	TreasuryWithdrawalDestination solana.PublicKey
	AuctionHouseTreasury          solana.PublicKey
	AuctionHouse                  solana.PublicKey
	Amount                        uint64
}

func (*WithdrawFromTreasury) Name() string { return "withdraw_from_treasury" }

func (ix *WithdrawFromTreasury) Accounts() []solana.PublicKey {
	return accountList(ix.Authority, ix.TreasuryWithdrawalDestination, ix.AuctionHouseTreasury, ix.AuctionHouse)
}

// PrintListingReceipt records the sell that immediately precedes it.
type PrintListingReceipt struct {
	Receipt     solana.PublicKey
	Bookkeeper  solana.PublicKey
	ReceiptBump uint8
}

func (*PrintListingReceipt) Name() string { return "print_listing_receipt" }

func (ix *PrintListingReceipt) Accounts() []solana.PublicKey {
	return accountList(ix.Receipt, ix.Bookkeeper)
}

// CancelListingReceipt marks a listing receipt canceled after the cancel that
// immediately precedes it.
type CancelListingReceipt struct {
	Receipt solana.PublicKey
}

func (*CancelListingReceipt) Name() string { return "cancel_listing_receipt" }

func (ix *CancelListingReceipt) Accounts() []solana.PublicKey { return accountList(ix.Receipt) }

// PrintBidReceipt records the buy that immediately precedes it.
type PrintBidReceipt struct {
	Receipt     solana.PublicKey
	Bookkeeper  solana.PublicKey
	ReceiptBump uint8
}

func (*PrintBidReceipt) Name() string { return "print_bid_receipt" }

func (ix *PrintBidReceipt) Accounts() []solana.PublicKey {
	return accountList(ix.Receipt, ix.Bookkeeper)
}

type CancelBidReceipt struct {
	Receipt solana.PublicKey
}

func (*CancelBidReceipt) Name() string { return "cancel_bid_receipt" }

func (ix *CancelBidReceipt) Accounts() []solana.PublicKey { return accountList(ix.Receipt) }

// PrintPurchaseReceipt records the sale that immediately precedes it and links
// the listing and bid receipts when they are supplied.
type PrintPurchaseReceipt struct {
	PurchaseReceipt     solana.PublicKey
	ListingReceipt      solana.PublicKey
	BidReceipt          solana.PublicKey
	Bookkeeper          solana.PublicKey
	PurchaseReceiptBump uint8
}

func (*PrintPurchaseReceipt) Name() string { return "print_purchase_receipt" }

func (ix *PrintPurchaseReceipt) Accounts() []solana.PublicKey {
	return accountList(ix.PurchaseReceipt, ix.ListingReceipt, ix.BidReceipt, ix.Bookkeeper)
}
