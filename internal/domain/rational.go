package domain

import "math/big"

// Small helpers around math/big.Rat. Vote counts flow through dozens of
// additions and comparisons per evaluation, so the rest of the engine uses
// these instead of spelling out the new/Set dance everywhere.

// Rat returns an exact rational for an integer count.
func Rat(n int64) *big.Rat { return new(big.Rat).SetInt64(n) }

// RatFrac returns the exact rational num/den.
func RatFrac(num, den int64) *big.Rat { return big.NewRat(num, den) }

// RatAdd returns a+b as a fresh value.
func RatAdd(a, b *big.Rat) *big.Rat { return new(big.Rat).Add(a, b) }

// RatSub returns a-b as a fresh value.
func RatSub(a, b *big.Rat) *big.Rat { return new(big.Rat).Sub(a, b) }

// RatMul returns a*b as a fresh value.
func RatMul(a, b *big.Rat) *big.Rat { return new(big.Rat).Mul(a, b) }

// RatDiv returns a/b as a fresh value. b must be nonzero.
func RatDiv(a, b *big.Rat) *big.Rat { return new(big.Rat).Quo(a, b) }

// RatFloor returns the largest integer not exceeding r.
func RatFloor(r *big.Rat) int64 {
	q := new(big.Int).Quo(r.Num(), r.Denom())
	// big.Int.Quo truncates toward zero; fix up negatives with remainders.
	if r.Sign() < 0 {
		rem := new(big.Int).Rem(r.Num(), r.Denom())
		if rem.Sign() != 0 {
			q.Sub(q, big.NewInt(1))
		}
	}
	return q.Int64()
}

// RatCeil returns the smallest integer not below r.
func RatCeil(r *big.Rat) int64 {
	if r.IsInt() {
		return RatFloor(r)
	}
	return RatFloor(r) + 1
}

// RatIsInt reports whether r is a whole number.
func RatIsInt(r *big.Rat) bool { return r.IsInt() }

// RatRoundHalfUp rounds r to the nearest integer, with exact halves
// rounding up. Used by the rounded quota variants.
func RatRoundHalfUp(r *big.Rat) int64 {
	shifted := new(big.Rat).Add(r, RatFrac(1, 2))
	return RatFloor(shifted)
}
