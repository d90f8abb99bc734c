package state

// AccountStorageOverhead is the metadata footprint charged for every account
// regardless of its data length.
const AccountStorageOverhead = 128

// Rent describes the deposit an account must hold to be exempt from
// collection.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionYears      uint64
}

// DefaultRent matches the parameters of the public Solana clusters.
func DefaultRent() Rent {
	return Rent{LamportsPerByteYear: 3480, ExemptionYears: 2}
}

// MinimumBalance returns the rent-exempt minimum for an account holding
// dataLen bytes.
func (r Rent) MinimumBalance(dataLen int) uint64 {
	if dataLen < 0 {
		dataLen = 0
	}
	return (AccountStorageOverhead + uint64(dataLen)) * r.LamportsPerByteYear * r.ExemptionYears
}

// IsExempt reports whether balance covers the minimum for dataLen.
func (r Rent) IsExempt(balance uint64, dataLen int) bool {
	return balance >= r.MinimumBalance(dataLen)
}
