package auctionhouse

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/crypto/pda"
	"auctionhouse/native/token"
)

func (g *grant) controllerKey() solana.PublicKey {
	if g == nil {
		return solana.PublicKey{}
	}
	return g.controller
}

// EscrowSpendable is the portion of a native escrow balance that can leave
// without dropping the account below its rent reserve.
func EscrowSpendable(lamports uint64, rent state.Rent) uint64 {
	minimum := rent.MinimumBalance(0)
	if lamports <= minimum {
		return 0
	}
	return lamports - minimum
}

// ensureTokenEscrow creates the wallet's escrow token account on first use.
// The house owns it so only the program can move funds out.
func (c *call) ensureTokenEscrow(payer state.Authority, houseKey solana.PublicKey, house *AuctionHouse, wallet, escrow solana.PublicKey, bump uint8) error {
	acc, err := c.tx.Get(escrow)
	if err != nil {
		return err
	}
	if !acc.DataIsEmpty() {
		return nil
	}
	auth := c.programAuthority(escrow, pda.EscrowSeeds(houseKey, wallet), bump)
	return token.InitializeAccount(c.tx, payer, auth, house.TreasuryMint, houseKey)
}

// topUpNative moves lamports from wallet into escrow so the escrow ends up
// holding at least target lamports.
func (c *call) topUpNative(wallet, escrow solana.PublicKey, target uint64) (uint64, error) {
	acc, err := c.tx.Get(escrow)
	if err != nil {
		return 0, err
	}
	if acc.Lamports >= target {
		return 0, nil
	}
	diff := target - acc.Lamports
	if err := c.tx.Transfer(state.SignerAuthority(wallet), escrow, diff); err != nil {
		return 0, insufficient(err)
	}
	return diff, nil
}

func (c *call) deposit(ix *Deposit, acting *AuctioneerAccounts) error {
	house, err := c.loadHouse(ix.AuctionHouse)
	if err != nil {
		return err
	}
	if err := checkHouseAccounts(house, ix.Authority, ix.AuctionHouseFeeAccount); err != nil {
		return err
	}
	if err := expectKey("treasury_mint", ix.TreasuryMint, house.TreasuryMint); err != nil {
		return err
	}
	g, err := c.authorize(ix.AuctionHouse, house, acting, ScopeDeposit)
	if err != nil {
		return err
	}
	if !c.tx.IsSigner(ix.Wallet) {
		return fmt.Errorf("%w: %s", ErrWalletMustSign, ix.Wallet)
	}
	payer, err := c.resolveFeePayer(ix.AuctionHouse, house, ix.Wallet, g)
	if err != nil {
		return err
	}
	if err := c.verify(pda.EscrowSeeds(ix.AuctionHouse, ix.Wallet), ix.EscrowPaymentAccount, ix.EscrowPaymentBump); err != nil {
		return err
	}

	moved := ix.Amount
	if house.IsNative() {
		if !ix.PaymentAccount.Equals(ix.Wallet) {
			return fmt.Errorf("%w: payment account %s", ErrExpectedSolAccount, ix.PaymentAccount)
		}
		escrow, err := c.tx.Get(ix.EscrowPaymentAccount)
		if err != nil {
			return err
		}
		// A new escrow is brought up to its rent reserve on top of the deposit.
		minimum := c.tx.Rent().MinimumBalance(len(escrow.Data))
		if escrow.Lamports < minimum {
			if moved, err = checkedAdd(moved, minimum-escrow.Lamports); err != nil {
				return err
			}
		}
		if err := c.tx.Transfer(state.SignerAuthority(ix.Wallet), ix.EscrowPaymentAccount, moved); err != nil {
			return insufficient(err)
		}
	} else {
		if _, err := token.AssertAssociated(c.tx, ix.PaymentAccount, ix.Wallet, house.TreasuryMint); err != nil {
			return fmt.Errorf("payment account: %w", err)
		}
		if err := c.ensureTokenEscrow(payer, ix.AuctionHouse, house, ix.Wallet, ix.EscrowPaymentAccount, ix.EscrowPaymentBump); err != nil {
			return err
		}
		auth := state.SignerAuthority(ix.TransferAuthority)
		if err := token.Transfer(c.tx, ix.PaymentAccount, ix.EscrowPaymentAccount, auth, ix.Amount); err != nil {
			return insufficient(err)
		}
	}
	c.emit(newEvent(EventTypeEscrowDeposited, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("wallet", ix.Wallet).
		key("escrow", ix.EscrowPaymentAccount).
		key("controller", g.controllerKey()).
		u64("amount", ix.Amount).
		u64("moved", moved)))
	return nil
}

func (c *call) withdraw(ix *Withdraw, acting *AuctioneerAccounts) error {
	house, err := c.loadHouse(ix.AuctionHouse)
	if err != nil {
		return err
	}
	if err := checkHouseAccounts(house, ix.Authority, ix.AuctionHouseFeeAccount); err != nil {
		return err
	}
	if err := expectKey("treasury_mint", ix.TreasuryMint, house.TreasuryMint); err != nil {
		return err
	}
	g, err := c.authorize(ix.AuctionHouse, house, acting, ScopeWithdraw)
	if err != nil {
		return err
	}
	if g == nil && !c.tx.IsSigner(ix.Wallet) && !c.tx.IsSigner(house.Authority) {
		return ErrNoValidSignerPresent
	}
	payer, err := c.resolveFeePayer(ix.AuctionHouse, house, ix.Wallet, g)
	if err != nil {
		return err
	}
	escrowSeeds := pda.EscrowSeeds(ix.AuctionHouse, ix.Wallet)
	if err := c.verify(escrowSeeds, ix.EscrowPaymentAccount, ix.EscrowPaymentBump); err != nil {
		return err
	}

	if house.IsNative() {
		if err := expectKey("receipt_account", ix.ReceiptAccount, ix.Wallet); err != nil {
			return err
		}
		escrow, err := c.tx.Get(ix.EscrowPaymentAccount)
		if err != nil {
			return err
		}
		spendable := EscrowSpendable(escrow.Lamports, c.tx.Rent())
		if ix.Amount > spendable {
			return fmt.Errorf("%w: escrow spendable %d, requested %d", ErrInsufficientFunds, spendable, ix.Amount)
		}
		auth := c.programAuthority(ix.EscrowPaymentAccount, escrowSeeds, ix.EscrowPaymentBump)
		if err := c.tx.Transfer(auth, ix.Wallet, ix.Amount); err != nil {
			return insufficient(err)
		}
	} else {
		want, _, err := token.AssociatedAddress(ix.Wallet, house.TreasuryMint)
		if err != nil {
			return err
		}
		if err := expectKey("receipt_account", ix.ReceiptAccount, want); err != nil {
			return err
		}
		if _, err := token.CreateAssociatedAccount(c.tx, payer, ix.Wallet, house.TreasuryMint); err != nil {
			return err
		}
		if err := token.Transfer(c.tx, ix.EscrowPaymentAccount, ix.ReceiptAccount, c.houseAuthority(ix.AuctionHouse, house), ix.Amount); err != nil {
			return insufficient(err)
		}
	}
	c.emit(newEvent(EventTypeEscrowWithdrawn, attrs{}.
		key("auctionHouse", ix.AuctionHouse).
		key("wallet", ix.Wallet).
		key("escrow", ix.EscrowPaymentAccount).
		key("controller", g.controllerKey()).
		u64("amount", ix.Amount)))
	return nil
}
