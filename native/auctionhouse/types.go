package auctionhouse

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/types"
)

// ProgramID is the default address of the settlement program.
var ProgramID = solana.MustPublicKeyFromBase58("hausS13jsjafwWwGqZTUQRmWyvyxn9EQpqMwV1PBBmk")

const (
	// MaxBasisPoints is 100% expressed in basis points.
	MaxBasisPoints = 10_000
	// TradeStateSize is the data length of a trade state: one bump byte.
	TradeStateSize = 1

	AuctionHouseSize    = 408
	AuctioneerSize      = 136
	ListingReceiptSize  = 256
	BidReceiptSize      = 288
	PurchaseReceiptSize = 224
)

// AuctionHouse is the configuration record of one marketplace.
type AuctionHouse struct {
	AuctionHouseFeeAccount        solana.PublicKey
	AuctionHouseTreasury          solana.PublicKey
	TreasuryWithdrawalDestination solana.PublicKey
	FeeWithdrawalDestination      solana.PublicKey
	TreasuryMint                  solana.PublicKey
	Authority                     solana.PublicKey
	Creator                       solana.PublicKey
	Bump                          uint8
	TreasuryBump                  uint8
	FeePayerBump                  uint8
	SellerFeeBasisPoints          uint16
	RequiresSignOff               bool
	CanChangeSalePrice            bool
	EscrowPaymentBump             uint8
	HasAuctioneer                 bool
	AuctioneerAddress             solana.PublicKey
	AuctioneerPdaBump             uint8
	Scopes                        ScopeSet
}

// IsNative reports whether the house settles in native lamports.
func (h *AuctionHouse) IsNative() bool {
	return h.TreasuryMint.Equals(solana.SolMint)
}

// Auctioneer is the delegation record of a controller on one house.
type Auctioneer struct {
	AuctioneerAuthority solana.PublicKey
	AuctionHouse        solana.PublicKey
	Scopes              ScopeSet
}

// ListingReceipt is the durable audit record of a sell order.
type ListingReceipt struct {
	TradeState      solana.PublicKey
	Bookkeeper      solana.PublicKey
	AuctionHouse    solana.PublicKey
	Seller          solana.PublicKey
	TokenMint       solana.PublicKey
	PurchaseReceipt solana.PublicKey
	Price           uint64
	TokenSize       uint64
	Bump            uint8
	TradeStateBump  uint8
	CreatedAt       int64
	CanceledAt      *int64 `bin:"optional"`
	PurchasedAt     *int64 `bin:"optional"`
}

// BidReceipt is the durable audit record of a bid. A zero TokenAccount marks
// a public bid.
type BidReceipt struct {
	TradeState      solana.PublicKey
	Bookkeeper      solana.PublicKey
	AuctionHouse    solana.PublicKey
	Buyer           solana.PublicKey
	TokenMint       solana.PublicKey
	TokenAccount    solana.PublicKey
	PurchaseReceipt solana.PublicKey
	Price           uint64
	TokenSize       uint64
	Bump            uint8
	TradeStateBump  uint8
	CreatedAt       int64
	CanceledAt      *int64 `bin:"optional"`
	PurchasedAt     *int64 `bin:"optional"`
}

// PurchaseReceipt is the durable audit record of a settled sale.
type PurchaseReceipt struct {
	Bookkeeper   solana.PublicKey
	Buyer        solana.PublicKey
	Seller       solana.PublicKey
	AuctionHouse solana.PublicKey
	TokenMint    solana.PublicKey
	TokenSize    uint64
	Price        uint64
	Bump         uint8
	CreatedAt    int64
}

var (
	auctionHouseDiscriminator    = discriminator("AuctionHouse")
	auctioneerDiscriminator      = discriminator("Auctioneer")
	listingReceiptDiscriminator  = discriminator("ListingReceipt")
	bidReceiptDiscriminator      = discriminator("BidReceipt")
	purchaseReceiptDiscriminator = discriminator("PurchaseReceipt")
)

func discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

// encodeRecord writes disc followed by the borsh encoding of v into a buffer
// of exactly size bytes.
func encodeRecord(disc [8]byte, v interface{}, size int) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	if buf.Len() > size {
		return nil, fmt.Errorf("auctionhouse: record of %d bytes exceeds %d", buf.Len(), size)
	}
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out, nil
}

func decodeRecord(acc *types.Account, program solana.PublicKey, disc [8]byte, v interface{}) error {
	if acc == nil || acc.DataIsEmpty() {
		return ErrUninitializedAccount
	}
	if !acc.Owner.Equals(program) {
		return fmt.Errorf("%w: owned by %s", ErrIncorrectOwner, acc.Owner)
	}
	if len(acc.Data) < 8 || !bytes.Equal(acc.Data[:8], disc[:]) {
		return ErrAccountDiscriminatorMismatch
	}
	return bin.NewBorshDecoder(acc.Data[8:]).Decode(v)
}

// DecodeAuctionHouse reads a configuration record from ledger state.
func DecodeAuctionHouse(acc *types.Account, program solana.PublicKey) (*AuctionHouse, error) {
	out := new(AuctionHouse)
	if err := decodeRecord(acc, program, auctionHouseDiscriminator, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeAuctioneer reads a delegation record from ledger state.
func DecodeAuctioneer(acc *types.Account, program solana.PublicKey) (*Auctioneer, error) {
	out := new(Auctioneer)
	if err := decodeRecord(acc, program, auctioneerDiscriminator, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeListingReceipt reads a listing receipt from ledger state.
func DecodeListingReceipt(acc *types.Account, program solana.PublicKey) (*ListingReceipt, error) {
	out := new(ListingReceipt)
	if err := decodeRecord(acc, program, listingReceiptDiscriminator, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeBidReceipt reads a bid receipt from ledger state.
func DecodeBidReceipt(acc *types.Account, program solana.PublicKey) (*BidReceipt, error) {
	out := new(BidReceipt)
	if err := decodeRecord(acc, program, bidReceiptDiscriminator, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodePurchaseReceipt reads a purchase receipt from ledger state.
func DecodePurchaseReceipt(acc *types.Account, program solana.PublicKey) (*PurchaseReceipt, error) {
	out := new(PurchaseReceipt)
	if err := decodeRecord(acc, program, purchaseReceiptDiscriminator, out); err != nil {
		return nil, err
	}
	return out, nil
}
