// Package pda derives and verifies program-owned account addresses. Every
// structural account used by the auction house (configuration, fee and
// treasury sub-accounts, controller records, escrows, trade states and
// receipts) lives at an address produced here.
package pda

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrDerivationMismatch is returned when a caller supplied address or
	// bump does not reproduce the canonical derivation.
	ErrDerivationMismatch = errors.New("pda: derived key invalid")
	// ErrNoViableBump is returned when no bump in [0,255] lands off-curve.
	ErrNoViableBump = errors.New("pda: unable to find a viable bump")
)

// Derive finds the canonical bump for seeds, scanning from 255 downwards, and
// returns the first address with no valid signing key.
func Derive(seeds [][]byte, program solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("%w: %v", ErrNoViableBump, err)
	}
	return addr, bump, nil
}

// MustDerive is Derive for static seed paths that are known to resolve.
func MustDerive(seeds [][]byte, program solana.PublicKey) (solana.PublicKey, uint8) {
	addr, bump, err := Derive(seeds, program)
	if err != nil {
		panic(err)
	}
	return addr, bump
}

// Create computes the address for seeds with bump appended. It fails when the
// result lies on the curve.
func Create(seeds [][]byte, bump uint8, program solana.PublicKey) (solana.PublicKey, error) {
	return solana.CreateProgramAddress(WithBump(seeds, bump), program)
}

// Verify recomputes the address for seeds and the claimed bump and requires
// exact equality with claimed.
func Verify(seeds [][]byte, program, claimed solana.PublicKey, bump uint8) error {
	addr, err := Create(seeds, bump, program)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDerivationMismatch, claimed, err)
	}
	if !addr.Equals(claimed) {
		return fmt.Errorf("%w: expected %s, got %s", ErrDerivationMismatch, addr, claimed)
	}
	return nil
}

// Assert re-derives the canonical address for seeds and requires it to equal
// claimed, returning the canonical bump.
func Assert(seeds [][]byte, program, claimed solana.PublicKey) (uint8, error) {
	addr, bump, err := Derive(seeds, program)
	if err != nil {
		return 0, err
	}
	if !addr.Equals(claimed) {
		return 0, fmt.Errorf("%w: expected %s, got %s", ErrDerivationMismatch, addr, claimed)
	}
	return bump, nil
}

// WithBump returns a copy of seeds with the bump byte appended.
func WithBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, 0, len(seeds)+1)
	out = append(out, seeds...)
	return append(out, []byte{bump})
}
