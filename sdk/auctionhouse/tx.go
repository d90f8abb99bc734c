package auctionhouse

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	native "auctionhouse/native/auctionhouse"
)

// LamportsPerSOL is the scale of amounts written with a "sol" suffix.
const LamportsPerSOL = 1_000_000_000

const solDecimals = 9

// ParseLamports parses a base-10 lamport amount. A trailing "sol" switches
// to whole units with up to nine decimals, so "1.5sol" is 1500000000.
func ParseLamports(raw string) (uint64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("amount required")
	}
	scaled := strings.HasSuffix(s, "sol")
	if scaled {
		s = strings.TrimSpace(strings.TrimSuffix(s, "sol"))
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if hasDot && !scaled {
		return 0, fmt.Errorf("amount %q: lamports are indivisible", raw)
	}
	if len(frac) > solDecimals {
		return 0, fmt.Errorf("amount %q: at most %d decimals", raw, solDecimals)
	}
	digits := whole
	if scaled {
		digits += frac + strings.Repeat("0", solDecimals-len(frac))
	}
	if whole == "" || !isDigits(digits) {
		return 0, fmt.Errorf("amount %q must be a non-negative number", raw)
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return 0, nil
	}
	value, err := uint256.FromDecimal(digits)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", raw, err)
	}
	if !value.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows 64 bits", raw)
	}
	return value.Uint64(), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// FormatLamports renders lamports in whole units without trailing zeros.
func FormatLamports(lamports uint64) string {
	whole := lamports / LamportsPerSOL
	frac := lamports % LamportsPerSOL
	if frac == 0 {
		return fmt.Sprintf("%d SOL", whole)
	}
	decimals := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
	return fmt.Sprintf("%d.%s SOL", whole, decimals)
}

// ParseScopes reads a comma separated scope list. "all" expands to every
// scope.
func ParseScopes(raw string) ([]native.AuthorityScope, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("at least one scope required")
	}
	if strings.EqualFold(trimmed, "all") {
		return native.AllScopes(), nil
	}
	var scopes []native.AuthorityScope
	for _, part := range strings.Split(trimmed, ",") {
		scope, err := native.ParseScope(part)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, nil
}
