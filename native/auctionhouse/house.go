package auctionhouse

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/crypto/pda"
	"auctionhouse/native/token"
)

// insufficient folds ledger and token balance errors onto ErrInsufficientFunds.
func insufficient(err error) error {
	if errors.Is(err, state.ErrInsufficientFunds) || errors.Is(err, token.ErrInsufficientFund) {
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	}
	return err
}

func (c *call) createAuctionHouse(ix *CreateAuctionHouse) error {
	if ix.SellerFeeBasisPoints > MaxBasisPoints {
		return fmt.Errorf("%w: %d", ErrInvalidBasisPoints, ix.SellerFeeBasisPoints)
	}
	if !c.tx.IsSigner(ix.Payer) {
		return fmt.Errorf("%w: %s", state.ErrMissingSigner, ix.Payer)
	}
	seeds := pda.AuctionHouseSeeds(ix.Authority, ix.TreasuryMint)
	if err := c.verify(seeds, ix.AuctionHouse, ix.Bump); err != nil {
		return err
	}
	if err := c.verify(pda.FeeAccountSeeds(ix.AuctionHouse), ix.AuctionHouseFeeAccount, ix.FeePayerBump); err != nil {
		return err
	}
	if err := c.verify(pda.TreasurySeeds(ix.AuctionHouse), ix.AuctionHouseTreasury, ix.TreasuryBump); err != nil {
		return err
	}
	acc, err := c.tx.Get(ix.AuctionHouse)
	if err != nil {
		return err
	}
	if !acc.DataIsEmpty() {
		return fmt.Errorf("%w: %s", ErrAuctionHouseAlreadyExists, ix.AuctionHouse)
	}

	house := &AuctionHouse{
		AuctionHouseFeeAccount:   ix.AuctionHouseFeeAccount,
		AuctionHouseTreasury:     ix.AuctionHouseTreasury,
		FeeWithdrawalDestination: ix.FeeWithdrawalDestination,
		TreasuryMint:             ix.TreasuryMint,
		Authority:                ix.Authority,
		Creator:                  ix.Authority,
		Bump:                     ix.Bump,
		TreasuryBump:             ix.TreasuryBump,
		FeePayerBump:             ix.FeePayerBump,
		SellerFeeBasisPoints:     ix.SellerFeeBasisPoints,
		RequiresSignOff:          ix.RequiresSignOff,
		CanChangeSalePrice:       ix.CanChangeSalePrice,
	}
	payer := state.SignerAuthority(ix.Payer)
	dest, err := c.treasuryDestination(payer, house, ix.TreasuryWithdrawalDestination, ix.TreasuryWithdrawalDestinationOwner)
	if err != nil {
		return err
	}
	house.TreasuryWithdrawalDestination = dest

	if err := c.tx.CreateAccount(payer, c.programAuthority(ix.AuctionHouse, seeds, ix.Bump), AuctionHouseSize, c.program); err != nil {
		return err
	}
	if !house.IsNative() {
		treasury := c.treasuryAuthority(ix.AuctionHouse, house)
		if err := token.InitializeAccount(c.tx, payer, treasury, house.TreasuryMint, ix.AuctionHouse); err != nil {
			return err
		}
	}
	if err := c.storeHouse(ix.AuctionHouse, house); err != nil {
		return err
	}
	c.emit(newEvent(EventTypeAuctionHouseCreated, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("authority", ix.Authority).
		key("treasuryMint", ix.TreasuryMint).
		u64("sellerFeeBasisPoints", uint64(ix.SellerFeeBasisPoints))))
	return nil
}

// treasuryDestination validates where treasury withdrawals go: the owner
// itself for native houses, the owner's associated token account otherwise.
// A missing associated account is created by payer.
func (c *call) treasuryDestination(payer state.Authority, house *AuctionHouse, dest, owner solana.PublicKey) (solana.PublicKey, error) {
	if owner.IsZero() {
		owner = dest
	}
	if house.IsNative() {
		return dest, expectKey("treasury_withdrawal_destination", dest, owner)
	}
	want, _, err := token.AssociatedAddress(owner, house.TreasuryMint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := expectKey("treasury_withdrawal_destination", dest, want); err != nil {
		return solana.PublicKey{}, err
	}
	return token.CreateAssociatedAccount(c.tx, payer, owner, house.TreasuryMint)
}

func (c *call) updateAuctionHouse(ix *UpdateAuctionHouse) error {
	house, err := c.houseAdmin(ix.AuctionHouse, ix.Authority)
	if err != nil {
		return err
	}
	if !ix.TreasuryMint.IsZero() {
		if err := expectKey("treasury_mint", ix.TreasuryMint, house.TreasuryMint); err != nil {
			return err
		}
	}
	if ix.SellerFeeBasisPoints != nil {
		if *ix.SellerFeeBasisPoints > MaxBasisPoints {
			return fmt.Errorf("%w: %d", ErrInvalidBasisPoints, *ix.SellerFeeBasisPoints)
		}
		house.SellerFeeBasisPoints = *ix.SellerFeeBasisPoints
	}
	if ix.RequiresSignOff != nil {
		house.RequiresSignOff = *ix.RequiresSignOff
	}
	if ix.CanChangeSalePrice != nil {
		house.CanChangeSalePrice = *ix.CanChangeSalePrice
	}
	if !ix.FeeWithdrawalDestination.IsZero() {
		house.FeeWithdrawalDestination = ix.FeeWithdrawalDestination
	}
	if !ix.TreasuryWithdrawalDestination.IsZero() {
		payer := state.SignerAuthority(ix.Authority)
		if !ix.Payer.IsZero() {
			payer = state.SignerAuthority(ix.Payer)
		}
		dest, err := c.treasuryDestination(payer, house, ix.TreasuryWithdrawalDestination, ix.TreasuryWithdrawalDestinationOwner)
		if err != nil {
			return err
		}
		house.TreasuryWithdrawalDestination = dest
	}
	if !ix.NewAuthority.IsZero() {
		house.Authority = ix.NewAuthority
	}
	if err := c.storeHouse(ix.AuctionHouse, house); err != nil {
		return err
	}
	c.emit(newEvent(EventTypeAuctionHouseUpdated, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("authority", house.Authority).
		u64("sellerFeeBasisPoints", uint64(house.SellerFeeBasisPoints))))
	return nil
}

func (c *call) withdrawFromFee(ix *WithdrawFromFee) error {
	house, err := c.houseAdmin(ix.AuctionHouse, ix.Authority)
	if err != nil {
		return err
	}
	if err := expectKey("auction_house_fee_account", ix.AuctionHouseFeeAccount, house.AuctionHouseFeeAccount); err != nil {
		return err
	}
	if err := expectKey("fee_withdrawal_destination", ix.FeeWithdrawalDestination, house.FeeWithdrawalDestination); err != nil {
		return err
	}
	if err := c.tx.Transfer(c.feeAccountAuthority(ix.AuctionHouse, house), ix.FeeWithdrawalDestination, ix.Amount); err != nil {
		return insufficient(err)
	}
	c.emit(newEvent(EventTypeFeeWithdrawn, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("destination", ix.FeeWithdrawalDestination).
		u64("amount", ix.Amount)))
	return nil
}

func (c *call) withdrawFromTreasury(ix *WithdrawFromTreasury) error {
	house, err := c.houseAdmin(ix.AuctionHouse, ix.Authority)
	if err != nil {
		return err
	}
	if err := expectKey("treasury_mint", ix.TreasuryMint, house.TreasuryMint); err != nil {
		return err
	}
	if err := expectKey("auction_house_treasury", ix.AuctionHouseTreasury, house.AuctionHouseTreasury); err != nil {
		return err
	}
	if err := expectKey("treasury_withdrawal_destination", ix.TreasuryWithdrawalDestination, house.TreasuryWithdrawalDestination); err != nil {
		return err
	}
	if house.IsNative() {
		err = c.tx.Transfer(c.treasuryAuthority(ix.AuctionHouse, house), ix.TreasuryWithdrawalDestination, ix.Amount)
	} else {
		err = token.Transfer(c.tx, ix.AuctionHouseTreasury, ix.TreasuryWithdrawalDestination, c.houseAuthority(ix.AuctionHouse, house), ix.Amount)
	}
	if err != nil {
		return insufficient(err)
	}
	c.emit(newEvent(EventTypeTreasuryWithdrawn, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("destination", ix.TreasuryWithdrawalDestination).
		u64("amount", ix.Amount)))
	return nil
}
