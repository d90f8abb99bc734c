package pda

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Seed prefixes. They are part of the on-ledger address scheme and must match
// byte for byte across clients.
const (
	PrefixAuctionHouse    = "auction_house"
	PrefixFeePayer        = "fee_payer"
	PrefixTreasury        = "treasury"
	PrefixSigner          = "signer"
	PrefixAuctioneer      = "auctioneer"
	PrefixListingReceipt  = "listing_receipt"
	PrefixBidReceipt      = "bid_receipt"
	PrefixPurchaseReceipt = "purchase_receipt"
)

func le64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

// AuctionHouseSeeds addresses the marketplace configuration of creator in
// treasuryMint.
func AuctionHouseSeeds(creator, treasuryMint solana.PublicKey) [][]byte {
	return [][]byte{[]byte(PrefixAuctionHouse), creator.Bytes(), treasuryMint.Bytes()}
}

func FeeAccountSeeds(auctionHouse solana.PublicKey) [][]byte {
	return [][]byte{[]byte(PrefixAuctionHouse), auctionHouse.Bytes(), []byte(PrefixFeePayer)}
}

func TreasurySeeds(auctionHouse solana.PublicKey) [][]byte {
	return [][]byte{[]byte(PrefixAuctionHouse), auctionHouse.Bytes(), []byte(PrefixTreasury)}
}

// ProgramAsSignerSeeds addresses the program-wide delegate that sellers
// approve to move listed tokens.
func ProgramAsSignerSeeds() [][]byte {
	return [][]byte{[]byte(PrefixAuctionHouse), []byte(PrefixSigner)}
}

// AuctioneerSeeds addresses the controller record for (auctionHouse,
// controller).
func AuctioneerSeeds(auctionHouse, controller solana.PublicKey) [][]byte {
	return [][]byte{[]byte(PrefixAuctioneer), auctionHouse.Bytes(), controller.Bytes()}
}

func EscrowSeeds(auctionHouse, wallet solana.PublicKey) [][]byte {
	return [][]byte{[]byte(PrefixAuctionHouse), auctionHouse.Bytes(), wallet.Bytes()}
}

// TradeStateSeeds addresses an ask or a private bid on a specific token
// account.
func TradeStateSeeds(wallet, auctionHouse, tokenAccount, treasuryMint, tokenMint solana.PublicKey, price, size uint64) [][]byte {
	return [][]byte{
		[]byte(PrefixAuctionHouse),
		wallet.Bytes(),
		auctionHouse.Bytes(),
		tokenAccount.Bytes(),
		treasuryMint.Bytes(),
		tokenMint.Bytes(),
		le64(price),
		le64(size),
	}
}

// PublicTradeStateSeeds addresses a public bid, which names only the mint.
func PublicTradeStateSeeds(wallet, auctionHouse, treasuryMint, tokenMint solana.PublicKey, price, size uint64) [][]byte {
	return [][]byte{
		[]byte(PrefixAuctionHouse),
		wallet.Bytes(),
		auctionHouse.Bytes(),
		treasuryMint.Bytes(),
		tokenMint.Bytes(),
		le64(price),
		le64(size),
	}
}

func ListingReceiptSeeds(tradeState solana.PublicKey) [][]byte {
	return [][]byte{[]byte(PrefixListingReceipt), tradeState.Bytes()}
}

func BidReceiptSeeds(tradeState solana.PublicKey) [][]byte {
	return [][]byte{[]byte(PrefixBidReceipt), tradeState.Bytes()}
}

func PurchaseReceiptSeeds(sellerTradeState, buyerTradeState solana.PublicKey) [][]byte {
	return [][]byte{[]byte(PrefixPurchaseReceipt), sellerTradeState.Bytes(), buyerTradeState.Bytes()}
}
