package auctionhouse

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/crypto/pda"
	"auctionhouse/native/token"
)

// HouseAddresses are the canonical accounts of one marketplace.
type HouseAddresses struct {
	AuctionHouse solana.PublicKey
	FeeAccount   solana.PublicKey
	Treasury     solana.PublicKey
	Bump         uint8
	FeePayerBump uint8
	TreasuryBump uint8
}

// DeriveHouse computes the marketplace accounts for authority and mint.
func DeriveHouse(program, authority, treasuryMint solana.PublicKey) (HouseAddresses, error) {
	var out HouseAddresses
	var err error
	if out.AuctionHouse, out.Bump, err = pda.Derive(pda.AuctionHouseSeeds(authority, treasuryMint), program); err != nil {
		return out, err
	}
	if out.FeeAccount, out.FeePayerBump, err = pda.Derive(pda.FeeAccountSeeds(out.AuctionHouse), program); err != nil {
		return out, err
	}
	if out.Treasury, out.TreasuryBump, err = pda.Derive(pda.TreasurySeeds(out.AuctionHouse), program); err != nil {
		return out, err
	}
	return out, nil
}

// DeriveEscrow returns the escrow account of wallet on house.
func DeriveEscrow(program, house, wallet solana.PublicKey) (solana.PublicKey, uint8, error) {
	return pda.Derive(pda.EscrowSeeds(house, wallet), program)
}

// DeriveTradeState returns the trade state for p.
func DeriveTradeState(program solana.PublicKey, p TradeStateParams) (solana.PublicKey, uint8, error) {
	return pda.Derive(p.Seeds(), program)
}

// DeriveProgramAsSigner returns the delegate sellers approve when listing.
func DeriveProgramAsSigner(program solana.PublicKey) (solana.PublicKey, uint8, error) {
	return pda.Derive(pda.ProgramAsSignerSeeds(), program)
}

// DeriveAuctioneer returns the controller record of controller on house.
func DeriveAuctioneer(program, house, controller solana.PublicKey) (solana.PublicKey, uint8, error) {
	return pda.Derive(pda.AuctioneerSeeds(house, controller), program)
}

// NewAuctioneerAccounts builds the delegated-path accounts for controller.
func NewAuctioneerAccounts(program, house, controller solana.PublicKey) (AuctioneerAccounts, error) {
	record, _, err := DeriveAuctioneer(program, house, controller)
	if err != nil {
		return AuctioneerAccounts{}, err
	}
	return AuctioneerAccounts{AuctioneerAuthority: controller, Auctioneer: record}, nil
}

// paymentAccount is where wallet pays from: the wallet itself for native
// houses, its associated token account otherwise.
func paymentAccount(house *AuctionHouse, wallet solana.PublicKey) (solana.PublicKey, error) {
	if house.IsNative() {
		return wallet, nil
	}
	addr, _, err := token.AssociatedAddress(wallet, house.TreasuryMint)
	return addr, err
}

// HouseConfig carries the settings of a marketplace being created.
type HouseConfig struct {
	TreasuryMint                       solana.PublicKey
	FeeWithdrawalDestination           solana.PublicKey
	TreasuryWithdrawalDestinationOwner solana.PublicKey
	SellerFeeBasisPoints               uint16
	RequiresSignOff                    bool
	CanChangeSalePrice                 bool
}

func NewCreateAuctionHouse(program, payer, authority solana.PublicKey, cfg HouseConfig) (*CreateAuctionHouse, error) {
	addrs, err := DeriveHouse(program, authority, cfg.TreasuryMint)
	if err != nil {
		return nil, err
	}
	owner := cfg.TreasuryWithdrawalDestinationOwner
	if owner.IsZero() {
		owner = authority
	}
	dest, err := paymentAccount(&AuctionHouse{TreasuryMint: cfg.TreasuryMint}, owner)
	if err != nil {
		return nil, err
	}
	feeDest := cfg.FeeWithdrawalDestination
	if feeDest.IsZero() {
		feeDest = authority
	}
	return &CreateAuctionHouse{
		Payer:                              payer,
		Authority:                          authority,
		TreasuryMint:                       cfg.TreasuryMint,
		FeeWithdrawalDestination:           feeDest,
		TreasuryWithdrawalDestination:      dest,
		TreasuryWithdrawalDestinationOwner: owner,
		AuctionHouse:                       addrs.AuctionHouse,
		AuctionHouseFeeAccount:             addrs.FeeAccount,
		AuctionHouseTreasury:               addrs.Treasury,
		Bump:                               addrs.Bump,
		FeePayerBump:                       addrs.FeePayerBump,
		TreasuryBump:                       addrs.TreasuryBump,
		SellerFeeBasisPoints:               cfg.SellerFeeBasisPoints,
		RequiresSignOff:                    cfg.RequiresSignOff,
		CanChangeSalePrice:                 cfg.CanChangeSalePrice,
	}, nil
}

func NewDelegateAuctioneer(program, houseKey, authority, controller solana.PublicKey, scopes ...AuthorityScope) (*DelegateAuctioneer, error) {
	record, _, err := DeriveAuctioneer(program, houseKey, controller)
	if err != nil {
		return nil, err
	}
	return &DelegateAuctioneer{
		AuctionHouse:        houseKey,
		Authority:           authority,
		AuctioneerAuthority: controller,
		Auctioneer:          record,
		Scopes:              scopes,
	}, nil
}

func NewUpdateAuctioneer(program, houseKey, authority, controller solana.PublicKey, scopes ...AuthorityScope) (*UpdateAuctioneer, error) {
	ix, err := NewDelegateAuctioneer(program, houseKey, authority, controller, scopes...)
	if err != nil {
		return nil, err
	}
	return (*UpdateAuctioneer)(ix), nil
}

func NewDeposit(program, houseKey solana.PublicKey, house *AuctionHouse, wallet solana.PublicKey, amount uint64) (*Deposit, error) {
	escrow, bump, err := DeriveEscrow(program, houseKey, wallet)
	if err != nil {
		return nil, err
	}
	payment, err := paymentAccount(house, wallet)
	if err != nil {
		return nil, err
	}
	return &Deposit{
		Wallet:                 wallet,
		PaymentAccount:         payment,
		TransferAuthority:      wallet,
		EscrowPaymentAccount:   escrow,
		TreasuryMint:           house.TreasuryMint,
		Authority:              house.Authority,
		AuctionHouse:           houseKey,
		AuctionHouseFeeAccount: house.AuctionHouseFeeAccount,
		EscrowPaymentBump:      bump,
		Amount:                 amount,
	}, nil
}

func NewWithdraw(program, houseKey solana.PublicKey, house *AuctionHouse, wallet solana.PublicKey, amount uint64) (*Withdraw, error) {
	escrow, bump, err := DeriveEscrow(program, houseKey, wallet)
	if err != nil {
		return nil, err
	}
	receipt, err := paymentAccount(house, wallet)
	if err != nil {
		return nil, err
	}
	return &Withdraw{
		Wallet:                 wallet,
		ReceiptAccount:         receipt,
		EscrowPaymentAccount:   escrow,
		TreasuryMint:           house.TreasuryMint,
		Authority:              house.Authority,
		AuctionHouse:           houseKey,
		AuctionHouseFeeAccount: house.AuctionHouseFeeAccount,
		EscrowPaymentBump:      bump,
		Amount:                 amount,
	}, nil
}

// Order describes one side of a trade.
type Order struct {
	Wallet       solana.PublicKey
	TokenAccount solana.PublicKey
	TokenMint    solana.PublicKey
	Price        uint64
	Size         uint64
	// Public makes a bid matchable against any holder of the mint.
	Public bool
}

func (o Order) params(houseKey solana.PublicKey, house *AuctionHouse) TradeStateParams {
	p := TradeStateParams{
		Wallet:       o.Wallet,
		AuctionHouse: houseKey,
		TokenAccount: o.TokenAccount,
		TreasuryMint: house.TreasuryMint,
		TokenMint:    o.TokenMint,
		Price:        o.Price,
		Size:         o.Size,
	}
	if o.Public {
		p.TokenAccount = solana.PublicKey{}
	}
	return p
}

// TradeState returns the trade state address and bump of o.
func (o Order) TradeState(program, houseKey solana.PublicKey, house *AuctionHouse) (solana.PublicKey, uint8, error) {
	return DeriveTradeState(program, o.params(houseKey, house))
}

func NewSell(program, houseKey solana.PublicKey, house *AuctionHouse, o Order) (*Sell, error) {
	o.Public = false
	ts, tsBump, err := o.TradeState(program, houseKey, house)
	if err != nil {
		return nil, err
	}
	free := o
	free.Price = 0
	freeTS, freeBump, err := free.TradeState(program, houseKey, house)
	if err != nil {
		return nil, err
	}
	signer, signerBump, err := DeriveProgramAsSigner(program)
	if err != nil {
		return nil, err
	}
	return &Sell{
		Wallet:                 o.Wallet,
		TokenAccount:           o.TokenAccount,
		TokenMint:              o.TokenMint,
		Authority:              house.Authority,
		AuctionHouse:           houseKey,
		AuctionHouseFeeAccount: house.AuctionHouseFeeAccount,
		SellerTradeState:       ts,
		FreeSellerTradeState:   freeTS,
		ProgramAsSigner:        signer,
		TradeStateBump:         tsBump,
		FreeTradeStateBump:     freeBump,
		ProgramAsSignerBump:    signerBump,
		BuyerPrice:             o.Price,
		TokenSize:              o.Size,
	}, nil
}

// NewBuy builds a private bid, or a public one when o.Public is set. The
// result is a *Buy or a *PublicBuy.
func NewBuy(program, houseKey solana.PublicKey, house *AuctionHouse, o Order) (Instruction, error) {
	ts, tsBump, err := o.TradeState(program, houseKey, house)
	if err != nil {
		return nil, err
	}
	escrow, escrowBump, err := DeriveEscrow(program, houseKey, o.Wallet)
	if err != nil {
		return nil, err
	}
	payment, err := paymentAccount(house, o.Wallet)
	if err != nil {
		return nil, err
	}
	buy := Buy{
		Wallet:                 o.Wallet,
		PaymentAccount:         payment,
		TransferAuthority:      o.Wallet,
		TreasuryMint:           house.TreasuryMint,
		TokenAccount:           o.TokenAccount,
		TokenMint:              o.TokenMint,
		EscrowPaymentAccount:   escrow,
		Authority:              house.Authority,
		AuctionHouse:           houseKey,
		AuctionHouseFeeAccount: house.AuctionHouseFeeAccount,
		BuyerTradeState:        ts,
		TradeStateBump:         tsBump,
		EscrowPaymentBump:      escrowBump,
		BuyerPrice:             o.Price,
		TokenSize:              o.Size,
	}
	if o.Public {
		return &PublicBuy{Buy: buy}, nil
	}
	return &buy, nil
}

// NewExecuteSale matches bid against ask. The ask's token account is the one
// delivered.
func NewExecuteSale(program, houseKey solana.PublicKey, house *AuctionHouse, bid, ask Order) (*ExecuteSale, error) {
	bid.TokenAccount = ask.TokenAccount
	buyerTS, _, err := bid.TradeState(program, houseKey, house)
	if err != nil {
		return nil, err
	}
	ask.Public = false
	sellerTS, _, err := ask.TradeState(program, houseKey, house)
	if err != nil {
		return nil, err
	}
	free := ask
	free.Price = 0
	freeTS, freeBump, err := free.TradeState(program, houseKey, house)
	if err != nil {
		return nil, err
	}
	escrow, escrowBump, err := DeriveEscrow(program, houseKey, bid.Wallet)
	if err != nil {
		return nil, err
	}
	signer, signerBump, err := DeriveProgramAsSigner(program)
	if err != nil {
		return nil, err
	}
	sellerReceipt, err := paymentAccount(house, ask.Wallet)
	if err != nil {
		return nil, err
	}
	buyerReceipt, _, err := token.AssociatedAddress(bid.Wallet, ask.TokenMint)
	if err != nil {
		return nil, err
	}
	return &ExecuteSale{
		Buyer:                       bid.Wallet,
		Seller:                      ask.Wallet,
		TokenAccount:                ask.TokenAccount,
		TokenMint:                   ask.TokenMint,
		TreasuryMint:                house.TreasuryMint,
		EscrowPaymentAccount:        escrow,
		SellerPaymentReceiptAccount: sellerReceipt,
		BuyerReceiptTokenAccount:    buyerReceipt,
		Authority:                   house.Authority,
		AuctionHouse:                houseKey,
		AuctionHouseFeeAccount:      house.AuctionHouseFeeAccount,
		AuctionHouseTreasury:        house.AuctionHouseTreasury,
		BuyerTradeState:             buyerTS,
		SellerTradeState:            sellerTS,
		FreeTradeState:              freeTS,
		ProgramAsSigner:             signer,
		EscrowPaymentBump:           escrowBump,
		FreeTradeStateBump:          freeBump,
		ProgramAsSignerBump:         signerBump,
		BuyerPrice:                  ask.Price,
		TokenSize:                   ask.Size,
	}, nil
}

// NewCancel withdraws order o. For a public bid, TokenAccount still names
// the token account checked against the mint.
func NewCancel(program, houseKey solana.PublicKey, house *AuctionHouse, o Order) (*Cancel, error) {
	ts, _, err := o.TradeState(program, houseKey, house)
	if err != nil {
		return nil, err
	}
	return &Cancel{
		Wallet:                 o.Wallet,
		TokenAccount:           o.TokenAccount,
		TokenMint:              o.TokenMint,
		Authority:              house.Authority,
		AuctionHouse:           houseKey,
		AuctionHouseFeeAccount: house.AuctionHouseFeeAccount,
		TradeState:             ts,
		BuyerPrice:             o.Price,
		TokenSize:              o.Size,
	}, nil
}

func NewWithdrawFromFee(houseKey solana.PublicKey, house *AuctionHouse, amount uint64) *WithdrawFromFee {
	return &WithdrawFromFee{
		Authority:                house.Authority,
		FeeWithdrawalDestination: house.FeeWithdrawalDestination,
		AuctionHouseFeeAccount:   house.AuctionHouseFeeAccount,
		AuctionHouse:             houseKey,
		Amount:                   amount,
	}
}

func NewWithdrawFromTreasury(houseKey solana.PublicKey, house *AuctionHouse, amount uint64) *WithdrawFromTreasury {
	return &WithdrawFromTreasury{
		TreasuryMint:                  house.TreasuryMint,
		Authority:                     house.Authority,
		TreasuryWithdrawalDestination: house.TreasuryWithdrawalDestination,
		AuctionHouseTreasury:          house.AuctionHouseTreasury,
		AuctionHouse:                  houseKey,
		Amount:                        amount,
	}
}

func NewPrintListingReceipt(program, tradeState, bookkeeper solana.PublicKey) (*PrintListingReceipt, error) {
	receipt, bump, err := pda.Derive(pda.ListingReceiptSeeds(tradeState), program)
	if err != nil {
		return nil, err
	}
	return &PrintListingReceipt{Receipt: receipt, Bookkeeper: bookkeeper, ReceiptBump: bump}, nil
}

func NewCancelListingReceipt(program, tradeState solana.PublicKey) (*CancelListingReceipt, error) {
	receipt, _, err := pda.Derive(pda.ListingReceiptSeeds(tradeState), program)
	if err != nil {
		return nil, err
	}
	return &CancelListingReceipt{Receipt: receipt}, nil
}

func NewPrintBidReceipt(program, tradeState, bookkeeper solana.PublicKey) (*PrintBidReceipt, error) {
	receipt, bump, err := pda.Derive(pda.BidReceiptSeeds(tradeState), program)
	if err != nil {
		return nil, err
	}
	return &PrintBidReceipt{Receipt: receipt, Bookkeeper: bookkeeper, ReceiptBump: bump}, nil
}

func NewCancelBidReceipt(program, tradeState solana.PublicKey) (*CancelBidReceipt, error) {
	receipt, _, err := pda.Derive(pda.BidReceiptSeeds(tradeState), program)
	if err != nil {
		return nil, err
	}
	return &CancelBidReceipt{Receipt: receipt}, nil
}

// NewPrintPurchaseReceipt records sale and links the listing and bid
// receipts of its trade states.
func NewPrintPurchaseReceipt(program solana.PublicKey, sale *ExecuteSale, bookkeeper solana.PublicKey, linkReceipts bool) (*PrintPurchaseReceipt, error) {
	receipt, bump, err := pda.Derive(pda.PurchaseReceiptSeeds(sale.SellerTradeState, sale.BuyerTradeState), program)
	if err != nil {
		return nil, err
	}
	ix := &PrintPurchaseReceipt{PurchaseReceipt: receipt, Bookkeeper: bookkeeper, PurchaseReceiptBump: bump}
	if linkReceipts {
		if ix.ListingReceipt, _, err = pda.Derive(pda.ListingReceiptSeeds(sale.SellerTradeState), program); err != nil {
			return nil, err
		}
		if ix.BidReceipt, _, err = pda.Derive(pda.BidReceiptSeeds(sale.BuyerTradeState), program); err != nil {
			return nil, err
		}
	}
	return ix, nil
}
