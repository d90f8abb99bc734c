package auctionhouse

import (
	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
)

// FeePayer decides who funds account creation for an operation by wallet.
// The house fee account pays when the house authority signed or a controller
// acts under delegation. Otherwise a signing wallet pays for itself, unless
// the house requires sign-off on every action.
func FeePayer(house *AuctionHouse, wallet solana.PublicKey, isSigner func(solana.PublicKey) bool, delegated bool) (solana.PublicKey, error) {
	if delegated || isSigner(house.Authority) {
		return house.AuctionHouseFeeAccount, nil
	}
	if isSigner(wallet) {
		if house.RequiresSignOff {
			return solana.PublicKey{}, ErrSignOffRequired
		}
		return wallet, nil
	}
	return solana.PublicKey{}, ErrNoPayerPresent
}

func (c *call) resolveFeePayer(houseKey solana.PublicKey, house *AuctionHouse, wallet solana.PublicKey, g *grant) (state.Authority, error) {
	payer, err := FeePayer(house, wallet, c.tx.IsSigner, g != nil)
	if err != nil {
		return state.Authority{}, err
	}
	if payer.Equals(house.AuctionHouseFeeAccount) {
		return c.feeAccountAuthority(houseKey, house), nil
	}
	return state.SignerAuthority(payer), nil
}
