package types

import "github.com/gagliardetto/solana-go"

// Account is the unit of ledger state. Native balance lives in Lamports, the
// owning program in Owner and any program-defined layout in Data.
type Account struct {
	Lamports uint64
	Owner    solana.PublicKey
	Data     []byte
}

// Clone returns a deep copy so callers can mutate the copy without touching
// the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Data = append([]byte(nil), a.Data...)
	return &clone
}

// IsEmpty reports whether the account holds neither lamports nor data. Empty
// accounts are not persisted.
func (a *Account) IsEmpty() bool {
	if a == nil {
		return true
	}
	return a.Lamports == 0 && len(a.Data) == 0
}

// DataIsEmpty mirrors the runtime notion of an uninitialised account: no
// bytes allocated.
func (a *Account) DataIsEmpty() bool {
	return a == nil || len(a.Data) == 0
}
