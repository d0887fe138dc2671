package sdk

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Rounding selects how ToSignificant and ToFixed drop digits.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundHalfUp
	RoundUp
)

func (r Rounding) String() string {
	switch r {
	case RoundDown:
		return "round_down"
	case RoundHalfUp:
		return "round_half_up"
	case RoundUp:
		return "round_up"
	default:
		return fmt.Sprintf("rounding(%d)", int(r))
	}
}

var (
	one = big.NewInt(1)
	ten = big.NewInt(10)
)

// Fraction is an exact rational number. Values are never reduced and never
// mutated once built; every operation returns a new Fraction.
type Fraction struct {
	numerator   *big.Int
	denominator *big.Int
}

// NewFraction copies numerator and denominator into a Fraction.
func NewFraction(numerator, denominator *big.Int) (Fraction, error) {
	if numerator == nil || denominator == nil {
		return Fraction{}, fmt.Errorf("nil fraction component: %w", ErrParse)
	}
	if denominator.Sign() == 0 {
		return Fraction{}, ErrDivisionByZero
	}
	return Fraction{
		numerator:   new(big.Int).Set(numerator),
		denominator: new(big.Int).Set(denominator),
	}, nil
}

// FractionFromBig returns value/1.
func FractionFromBig(value *big.Int) Fraction {
	return Fraction{numerator: new(big.Int).Set(value), denominator: big.NewInt(1)}
}

// FractionFromInt returns numerator/denominator for small constants. A zero
// denominator is treated as 1.
func FractionFromInt(numerator, denominator int64) Fraction {
	if denominator == 0 {
		denominator = 1
	}
	return Fraction{numerator: big.NewInt(numerator), denominator: big.NewInt(denominator)}
}

// ParseFraction interprets an integer-like value as a Fraction. Accepted inputs
// are Fraction, Percent, *big.Int, big.Int, Go integer kinds and base-10
// integer strings.
func ParseFraction(value any) (Fraction, error) {
	switch v := value.(type) {
	case Fraction:
		if v.denominator == nil {
			return Fraction{}, fmt.Errorf("zero value fraction: %w", ErrParse)
		}
		return v, nil
	case Percent:
		return ParseFraction(v.Fraction)
	case *big.Int:
		if v == nil {
			return Fraction{}, fmt.Errorf("nil integer: %w", ErrParse)
		}
		return FractionFromBig(v), nil
	case big.Int:
		return FractionFromBig(&v), nil
	case int:
		return FractionFromInt(int64(v), 1), nil
	case int8:
		return FractionFromInt(int64(v), 1), nil
	case int16:
		return FractionFromInt(int64(v), 1), nil
	case int32:
		return FractionFromInt(int64(v), 1), nil
	case int64:
		return FractionFromInt(v, 1), nil
	case uint:
		return FractionFromBig(new(big.Int).SetUint64(uint64(v))), nil
	case uint8:
		return FractionFromBig(new(big.Int).SetUint64(uint64(v))), nil
	case uint16:
		return FractionFromBig(new(big.Int).SetUint64(uint64(v))), nil
	case uint32:
		return FractionFromBig(new(big.Int).SetUint64(uint64(v))), nil
	case uint64:
		return FractionFromBig(new(big.Int).SetUint64(v)), nil
	case string:
		parsed, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return Fraction{}, fmt.Errorf("not an integer %q: %w", v, ErrParse)
		}
		return FractionFromBig(parsed), nil
	default:
		return Fraction{}, fmt.Errorf("unsupported type %T: %w", value, ErrParse)
	}
}

// Numerator returns a copy of the numerator.
func (f Fraction) Numerator() *big.Int { return new(big.Int).Set(f.numerator) }

// Denominator returns a copy of the denominator.
func (f Fraction) Denominator() *big.Int { return new(big.Int).Set(f.denominator) }

// Quotient is the floor of numerator/denominator.
func (f Fraction) Quotient() *big.Int {
	r := new(big.Int)
	q, r := new(big.Int).QuoRem(f.numerator, f.denominator, r)
	if r.Sign() != 0 && (r.Sign() < 0) != (f.denominator.Sign() < 0) {
		q.Sub(q, one)
	}
	return q
}

// Remainder is numerator - Quotient()*denominator over the same denominator.
func (f Fraction) Remainder() Fraction {
	rem := new(big.Int).Mul(f.Quotient(), f.denominator)
	rem.Sub(f.numerator, rem)
	return Fraction{numerator: rem, denominator: new(big.Int).Set(f.denominator)}
}

func (f Fraction) Invert() (Fraction, error) {
	if f.numerator.Sign() == 0 {
		return Fraction{}, ErrDivisionByZero
	}
	return Fraction{numerator: new(big.Int).Set(f.denominator), denominator: new(big.Int).Set(f.numerator)}, nil
}

func (f Fraction) Add(other Fraction) Fraction {
	if f.denominator.Cmp(other.denominator) == 0 {
		return Fraction{
			numerator:   new(big.Int).Add(f.numerator, other.numerator),
			denominator: new(big.Int).Set(f.denominator),
		}
	}
	left := new(big.Int).Mul(f.numerator, other.denominator)
	right := new(big.Int).Mul(other.numerator, f.denominator)
	return Fraction{
		numerator:   left.Add(left, right),
		denominator: new(big.Int).Mul(f.denominator, other.denominator),
	}
}

func (f Fraction) Subtract(other Fraction) Fraction {
	if f.denominator.Cmp(other.denominator) == 0 {
		return Fraction{
			numerator:   new(big.Int).Sub(f.numerator, other.numerator),
			denominator: new(big.Int).Set(f.denominator),
		}
	}
	left := new(big.Int).Mul(f.numerator, other.denominator)
	right := new(big.Int).Mul(other.numerator, f.denominator)
	return Fraction{
		numerator:   left.Sub(left, right),
		denominator: new(big.Int).Mul(f.denominator, other.denominator),
	}
}

func (f Fraction) Multiply(other Fraction) Fraction {
	return Fraction{
		numerator:   new(big.Int).Mul(f.numerator, other.numerator),
		denominator: new(big.Int).Mul(f.denominator, other.denominator),
	}
}

func (f Fraction) Divide(other Fraction) (Fraction, error) {
	if other.numerator.Sign() == 0 {
		return Fraction{}, ErrDivisionByZero
	}
	return Fraction{
		numerator:   new(big.Int).Mul(f.numerator, other.denominator),
		denominator: new(big.Int).Mul(f.denominator, other.numerator),
	}, nil
}

// cmp compares by cross multiplication; the sign of the denominator product
// flips the result for negative denominators.
func (f Fraction) cmp(other Fraction) int {
	left := new(big.Int).Mul(f.numerator, other.denominator)
	right := new(big.Int).Mul(other.numerator, f.denominator)
	c := left.Cmp(right)
	if (f.denominator.Sign() < 0) != (other.denominator.Sign() < 0) {
		c = -c
	}
	return c
}

func (f Fraction) LessThan(other Fraction) bool    { return f.cmp(other) < 0 }
func (f Fraction) EqualTo(other Fraction) bool     { return f.cmp(other) == 0 }
func (f Fraction) GreaterThan(other Fraction) bool { return f.cmp(other) > 0 }

// IsZero reports whether the numerator is zero.
func (f Fraction) IsZero() bool { return f.numerator.Sign() == 0 }

// IsSet is false for the zero Fraction value, which no constructor returns.
func (f Fraction) IsSet() bool { return f.numerator != nil && f.denominator != nil }

// ToSignificant renders the value with at most digits significant digits.
// Trailing zeros after the decimal point are dropped.
func (f Fraction) ToSignificant(digits int, rounding Rounding) (string, error) {
	if digits < 1 {
		return "", fmt.Errorf("significant digits %d: %w", digits, ErrInvalidArgument)
	}
	if err := rounding.validate(); err != nil {
		return "", err
	}
	num, den, neg := f.abs()
	if num.Sign() == 0 {
		return "0", nil
	}

	shift := digits - 1 - magnitude(num, den)
	var q *big.Int
	if shift >= 0 {
		q = divRound(new(big.Int).Mul(num, pow10(shift)), den, rounding)
	} else {
		q = divRound(num, new(big.Int).Mul(den, pow10(-shift)), rounding)
	}
	return signed(decimal.NewFromBigInt(q, int32(-shift)).String(), neg && q.Sign() != 0), nil
}

// ToFixed renders the value with exactly places digits after the decimal point.
func (f Fraction) ToFixed(places int, rounding Rounding) (string, error) {
	if places < 0 {
		return "", fmt.Errorf("decimal places %d: %w", places, ErrInvalidArgument)
	}
	if err := rounding.validate(); err != nil {
		return "", err
	}
	num, den, neg := f.abs()
	q := divRound(new(big.Int).Mul(num, pow10(places)), den, rounding)
	text := decimal.NewFromBigInt(q, int32(-places)).StringFixed(int32(places))
	return signed(text, neg && q.Sign() != 0), nil
}

func (f Fraction) String() string {
	return f.numerator.String() + "/" + f.denominator.String()
}

func (f Fraction) abs() (*big.Int, *big.Int, bool) {
	neg := (f.numerator.Sign() < 0) != (f.denominator.Sign() < 0)
	return new(big.Int).Abs(f.numerator), new(big.Int).Abs(f.denominator), neg && f.numerator.Sign() != 0
}

func (r Rounding) validate() error {
	switch r {
	case RoundDown, RoundHalfUp, RoundUp:
		return nil
	default:
		return fmt.Errorf("rounding %d: %w", int(r), ErrInvalidArgument)
	}
}

// magnitude returns floor(log10(num/den)) for positive num and den.
func magnitude(num, den *big.Int) int {
	intPart := new(big.Int).Quo(num, den)
	if intPart.Sign() > 0 {
		return len(intPart.String()) - 1
	}
	k := 1
	scaled := new(big.Int).Mul(num, ten)
	for scaled.Cmp(den) < 0 {
		scaled.Mul(scaled, ten)
		k++
	}
	return -k
}

// divRound divides non-negative n by positive d.
func divRound(n, d *big.Int, rounding Rounding) *big.Int {
	q, r := new(big.Int).QuoRem(n, d, new(big.Int))
	if r.Sign() == 0 {
		return q
	}
	switch rounding {
	case RoundUp:
		q.Add(q, one)
	case RoundHalfUp:
		if new(big.Int).Lsh(r, 1).Cmp(d) >= 0 {
			q.Add(q, one)
		}
	}
	return q
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(n)), nil)
}

func signed(text string, neg bool) string {
	if neg {
		return "-" + text
	}
	return text
}
