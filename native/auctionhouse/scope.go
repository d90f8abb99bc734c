package auctionhouse

import (
	"fmt"
	"strings"
)

// AuthorityScope names one capability a marketplace authority can hand to a
// delegated controller.
type AuthorityScope uint8

const (
	ScopeDeposit AuthorityScope = iota
	ScopeBuy
	ScopePublicBuy
	ScopeExecuteSale
	ScopeSell
	ScopeCancel
	ScopeWithdraw
)

// MaxScopes is the capacity of a ScopeSet.
const MaxScopes = 7

// scopeTable is the only place that maps a scope to its slot in a ScopeSet.
var scopeTable = [MaxScopes]struct {
	scope AuthorityScope
	name  string
}{
	{ScopeDeposit, "deposit"},
	{ScopeBuy, "buy"},
	{ScopePublicBuy, "public_buy"},
	{ScopeExecuteSale, "execute_sale"},
	{ScopeSell, "sell"},
	{ScopeCancel, "cancel"},
	{ScopeWithdraw, "withdraw"},
}

func (s AuthorityScope) index() (int, bool) {
	for i, entry := range scopeTable {
		if entry.scope == s {
			return i, true
		}
	}
	return 0, false
}

// Valid reports whether s is a known scope.
func (s AuthorityScope) Valid() bool {
	_, ok := s.index()
	return ok
}

func (s AuthorityScope) String() string {
	if i, ok := s.index(); ok {
		return scopeTable[i].name
	}
	return fmt.Sprintf("scope(%d)", uint8(s))
}

// ParseScope accepts the snake_case scope names used by String.
func ParseScope(name string) (AuthorityScope, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, entry := range scopeTable {
		if entry.name == normalized {
			return entry.scope, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidScope, name)
}

// AllScopes returns every scope in table order.
func AllScopes() []AuthorityScope {
	out := make([]AuthorityScope, 0, MaxScopes)
	for _, entry := range scopeTable {
		out = append(out, entry.scope)
	}
	return out
}

// ScopeSet is the fixed-size capability set stored on controller records.
type ScopeSet [MaxScopes]bool

// NewScopeSet returns the set with exactly scopes enabled. More than
// MaxScopes entries is rejected before anything is built.
func NewScopeSet(scopes []AuthorityScope) (ScopeSet, error) {
	var set ScopeSet
	if len(scopes) > MaxScopes {
		return set, fmt.Errorf("%w: %d requested", ErrTooManyScopes, len(scopes))
	}
	for _, scope := range scopes {
		i, ok := scope.index()
		if !ok {
			return ScopeSet{}, fmt.Errorf("%w: %d", ErrInvalidScope, uint8(scope))
		}
		set[i] = true
	}
	return set, nil
}

// Has reports whether scope is enabled.
func (s ScopeSet) Has(scope AuthorityScope) bool {
	i, ok := scope.index()
	return ok && s[i]
}

// List returns the enabled scopes in table order.
func (s ScopeSet) List() []AuthorityScope {
	var out []AuthorityScope
	for i, enabled := range s {
		if enabled {
			out = append(out, scopeTable[i].scope)
		}
	}
	return out
}

func (s ScopeSet) String() string {
	names := make([]string, 0, MaxScopes)
	for _, scope := range s.List() {
		names = append(names, scope.String())
	}
	return "[" + strings.Join(names, ",") + "]"
}
