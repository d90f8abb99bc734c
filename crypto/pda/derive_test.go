package pda

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
)

var testProgram = solana.MustPublicKeyFromBase58("hausS13jsjafwWwGqZTUQRmWyvyxn9EQpqMwV1PBBmk")

func seedSets() map[string][][]byte {
	creator := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	house := solana.NewWallet().PublicKey()
	wallet := solana.NewWallet().PublicKey()
	token := solana.NewWallet().PublicKey()
	ts := solana.NewWallet().PublicKey()
	return map[string][][]byte{
		"auction house":   AuctionHouseSeeds(creator, mint),
		"fee account":     FeeAccountSeeds(house),
		"treasury":        TreasurySeeds(house),
		"signer":          ProgramAsSignerSeeds(),
		"auctioneer":      AuctioneerSeeds(house, wallet),
		"escrow":          EscrowSeeds(house, wallet),
		"trade state":     TradeStateSeeds(wallet, house, token, mint, mint, 1_000_000, 1),
		"public bid":      PublicTradeStateSeeds(wallet, house, mint, mint, 1_000_000, 1),
		"listing receipt": ListingReceiptSeeds(ts),
		"bid receipt":     BidReceiptSeeds(ts),
		"purchase":        PurchaseReceiptSeeds(ts, token),
	}
}

func TestDeriveVerifyRoundTrip(t *testing.T) {
	for name, seeds := range seedSets() {
		addr, bump, err := Derive(seeds, testProgram)
		if err != nil {
			t.Fatalf("%s: derive: %v", name, err)
		}
		if err := Verify(seeds, testProgram, addr, bump); err != nil {
			t.Fatalf("%s: verify canonical pair: %v", name, err)
		}
		got, err := Assert(seeds, testProgram, addr)
		if err != nil {
			t.Fatalf("%s: assert: %v", name, err)
		}
		if got != bump {
			t.Fatalf("%s: assert bump %d, derive bump %d", name, got, bump)
		}
	}
}

func TestVerifyRejectsMutatedAddress(t *testing.T) {
	seeds := EscrowSeeds(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	addr, bump := MustDerive(seeds, testProgram)
	for i := 0; i < len(addr); i++ {
		mutated := addr
		mutated[i] ^= 0x01
		err := Verify(seeds, testProgram, mutated, bump)
		if !errors.Is(err, ErrDerivationMismatch) {
			t.Fatalf("byte %d: expected derivation mismatch, got %v", i, err)
		}
	}
}

func TestVerifyRejectsMutatedBump(t *testing.T) {
	seeds := TradeStateSeeds(
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		42,
		7,
	)
	addr, bump := MustDerive(seeds, testProgram)
	for _, delta := range []uint8{1, 2, 128, 255} {
		err := Verify(seeds, testProgram, addr, bump+delta)
		if !errors.Is(err, ErrDerivationMismatch) {
			t.Fatalf("bump %d: expected derivation mismatch, got %v", bump+delta, err)
		}
	}
}

func TestAssertRejectsForeignAddress(t *testing.T) {
	seeds := FeeAccountSeeds(solana.NewWallet().PublicKey())
	if _, err := Assert(seeds, testProgram, solana.NewWallet().PublicKey()); !errors.Is(err, ErrDerivationMismatch) {
		t.Fatalf("expected derivation mismatch, got %v", err)
	}
}

func TestPublicAndPrivateTradeStatesDiffer(t *testing.T) {
	wallet := solana.NewWallet().PublicKey()
	house := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	token := solana.NewWallet().PublicKey()
	private, _ := MustDerive(TradeStateSeeds(wallet, house, token, solana.SolMint, mint, 10, 1), testProgram)
	public, _ := MustDerive(PublicTradeStateSeeds(wallet, house, solana.SolMint, mint, 10, 1), testProgram)
	if private.Equals(public) {
		t.Fatalf("private and public bids must not share an address")
	}
}
