package inter

import (
	"math/big"
)

// Purpose tags a reward pool held by the budget allocator.
type Purpose uint8

// HolderRewardsPurpose is the pool the distributor drains at every minting block.
const HolderRewardsPurpose Purpose = 1

// MaxUint128 is the default upper bound of a ledger balance (2^128 - 1).
var MaxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// CopyBalance returns a copy of b, mapping nil to zero.
func CopyBalance(b *big.Int) *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b)
}

// MinBalance returns the smaller of a and b. The result aliases one of the inputs.
func MinBalance(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
