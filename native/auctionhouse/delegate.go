package auctionhouse

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/crypto/pda"
)

// grant is proof that a controller was authorised for one scope on one house
// within the running transaction. Only authorize mints one.
type grant struct {
	house      solana.PublicKey
	controller solana.PublicKey
	scope      AuthorityScope
}

// authorize resolves the capability for scope on house. On the direct path
// (acting == nil) it refuses scopes the house has handed to a controller. On
// the delegated path it checks the controller's signature, the derivation of
// its record, the record's back-references and the scope itself.
func (c *call) authorize(houseKey solana.PublicKey, house *AuctionHouse, acting *AuctioneerAccounts, scope AuthorityScope) (*grant, error) {
	if acting == nil {
		if house.HasAuctioneer && house.Scopes.Has(scope) {
			return nil, fmt.Errorf("%w: %s", ErrMustUseAuctioneerHandler, scope)
		}
		return nil, nil
	}
	if !house.HasAuctioneer {
		return nil, ErrAuctionHouseNotDelegated
	}
	if !c.tx.IsSigner(acting.AuctioneerAuthority) {
		return nil, fmt.Errorf("%w: %s", ErrAuctioneerMustSign, acting.AuctioneerAuthority)
	}
	if !acting.Auctioneer.Equals(house.AuctioneerAddress) {
		return nil, fmt.Errorf("%w: record %s", ErrInvalidAuctioneer, acting.Auctioneer)
	}
	if err := c.verify(pda.AuctioneerSeeds(houseKey, acting.AuctioneerAuthority), acting.Auctioneer, house.AuctioneerPdaBump); err != nil {
		return nil, err
	}
	acc, err := c.tx.Get(acting.Auctioneer)
	if err != nil {
		return nil, err
	}
	record, err := DecodeAuctioneer(acc, c.program)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAuctioneer, err)
	}
	if !record.AuctionHouse.Equals(houseKey) || !record.AuctioneerAuthority.Equals(acting.AuctioneerAuthority) {
		return nil, ErrInvalidAuctioneer
	}
	if !record.Scopes.Has(scope) {
		return nil, fmt.Errorf("%w: %s", ErrMissingAuctioneerScope, scope)
	}
	return &grant{house: houseKey, controller: acting.AuctioneerAuthority, scope: scope}, nil
}

// houseAdmin loads the house and requires its authority to have signed.
func (c *call) houseAdmin(houseKey, authority solana.PublicKey) (*AuctionHouse, error) {
	house, err := c.loadHouse(houseKey)
	if err != nil {
		return nil, err
	}
	if !authority.Equals(house.Authority) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAuthority, authority)
	}
	if !c.tx.IsSigner(authority) {
		return nil, fmt.Errorf("%w: %s", state.ErrMissingSigner, authority)
	}
	return house, nil
}

func (c *call) delegateAuctioneer(ix *DelegateAuctioneer) error {
	scopes, err := NewScopeSet(ix.Scopes)
	if err != nil {
		return err
	}
	house, err := c.houseAdmin(ix.AuctionHouse, ix.Authority)
	if err != nil {
		return err
	}
	if house.HasAuctioneer {
		return fmt.Errorf("%w: controlled by record %s", ErrAuctionHouseAlreadyDelegated, house.AuctioneerAddress)
	}
	seeds := pda.AuctioneerSeeds(ix.AuctionHouse, ix.AuctioneerAuthority)
	bump, err := c.assert(seeds, ix.Auctioneer)
	if err != nil {
		return err
	}
	payer := state.SignerAuthority(ix.Authority)
	if err := c.tx.CreateAccount(payer, c.programAuthority(ix.Auctioneer, seeds, bump), AuctioneerSize, c.program); err != nil {
		return err
	}
	record := &Auctioneer{
		AuctioneerAuthority: ix.AuctioneerAuthority,
		AuctionHouse:        ix.AuctionHouse,
		Scopes:              scopes,
	}
	if err := c.storeRecord(ix.Auctioneer, auctioneerDiscriminator, record, AuctioneerSize); err != nil {
		return err
	}
	house.HasAuctioneer = true
	house.AuctioneerAddress = ix.Auctioneer
	house.AuctioneerPdaBump = bump
	house.Scopes = scopes
	if err := c.storeHouse(ix.AuctionHouse, house); err != nil {
		return err
	}
	c.emit(newEvent(EventTypeAuctioneerDelegated, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("controller", ix.AuctioneerAuthority).
		str("scopes", scopes.String())))
	return nil
}

// updateAuctioneer replaces the controller's scopes. The new set is built
// from empty, so scopes absent from the call are revoked.
func (c *call) updateAuctioneer(ix *UpdateAuctioneer) error {
	scopes, err := NewScopeSet(ix.Scopes)
	if err != nil {
		return err
	}
	house, err := c.houseAdmin(ix.AuctionHouse, ix.Authority)
	if err != nil {
		return err
	}
	if !house.HasAuctioneer {
		return ErrAuctionHouseNotDelegated
	}
	if err := expectKey("auctioneer", ix.Auctioneer, house.AuctioneerAddress); err != nil {
		return err
	}
	if err := c.verify(pda.AuctioneerSeeds(ix.AuctionHouse, ix.AuctioneerAuthority), ix.Auctioneer, house.AuctioneerPdaBump); err != nil {
		return err
	}
	acc, err := c.tx.Get(ix.Auctioneer)
	if err != nil {
		return err
	}
	record, err := DecodeAuctioneer(acc, c.program)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAuctioneer, err)
	}
	if !record.AuctionHouse.Equals(ix.AuctionHouse) || !record.AuctioneerAuthority.Equals(ix.AuctioneerAuthority) {
		return ErrInvalidAuctioneer
	}
	record.Scopes = scopes
	if err := c.storeRecord(ix.Auctioneer, auctioneerDiscriminator, record, AuctioneerSize); err != nil {
		return err
	}
	house.Scopes = scopes
	if err := c.storeHouse(ix.AuctionHouse, house); err != nil {
		return err
	}
	c.emit(newEvent(EventTypeAuctioneerUpdated, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("controller", ix.AuctioneerAuthority).
		str("scopes", scopes.String())))
	return nil
}
