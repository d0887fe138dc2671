package v3math

import "math/big"

// MulDiv returns floor(a*b/denominator) without intermediate overflow.
// The denominator must be positive.
func MulDiv(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, denominator)
}

// MulDivRoundingUp returns ceil(a*b/denominator) for non-negative a and b.
func MulDivRoundingUp(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	q, r := new(big.Int).QuoRem(product, denominator, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, bigOne)
	}
	return q
}

func divRoundingUp(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, bigOne)
	}
	return q
}

func multiplyIn256(x, y *big.Int) *big.Int {
	product := new(big.Int).Mul(x, y)
	return product.And(product, MaxUint256)
}

func addIn256(x, y *big.Int) *big.Int {
	sum := new(big.Int).Add(x, y)
	return sum.And(sum, MaxUint256)
}
