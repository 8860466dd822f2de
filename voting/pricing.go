package voting

import "math/bits"

// UnitCost is the quadratic price of holding n units on one side.
func UnitCost(n uint64) (uint64, error) {
	hi, lo := bits.Mul64(n, n)
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return lo, nil
}

// RepositionCost prices moving from prev units to next units. The previous
// position is refunded in full and the new one charged in full.
func RepositionCost(prev, next uint64) (refund, charge uint64, err error) {
	if refund, err = UnitCost(prev); err != nil {
		return
	}
	charge, err = UnitCost(next)
	return
}
