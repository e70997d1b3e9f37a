// Package types provides common types used across Vesting.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
)

// Amount represents a non-negative token quantity in the smallest unit.
// All arithmetic is arbitrary-precision integer-only; no floating point.
// The zero value is a valid zero amount.
//
// Amount is immutable: every operation returns a new value and never
// mutates its receiver, so amounts can be shared freely across goroutines.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type Amount struct {
	n *big.Int
}

// NewAmount creates an Amount from an unsigned integer.
func NewAmount(v uint64) Amount {
	return Amount{n: new(big.Int).SetUint64(v)}
}

// ZeroAmount returns the zero Amount.
func ZeroAmount() Amount { return Amount{} }

// ParseAmount parses a base-10 string into an Amount.
// Negative values are rejected.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, fmt.Errorf("types: parse amount: empty string")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("types: parse amount %q: not a base-10 integer", s)
	}
	if n.Sign() < 0 {
		return Amount{}, fmt.Errorf("types: parse amount %q: negative", s)
	}
	return Amount{n: n}, nil
}

// MustAmount is like ParseAmount but panics on error. Use for hardcoded values.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(fmt.Sprintf("types: must amount %q: %v", s, err))
	}
	return a
}

// AmountFromBig creates an Amount from a big.Int. The input is copied.
// Negative values are rejected.
func AmountFromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return Amount{}, nil
	}
	if b.Sign() < 0 {
		return Amount{}, fmt.Errorf("types: amount from big: negative value %s", b)
	}
	return Amount{n: new(big.Int).Set(b)}, nil
}

// big returns the internal value, treating nil as zero. Never returns nil.
func (a Amount) big() *big.Int {
	if a.n == nil {
		return new(big.Int)
	}
	return a.n
}

// BigInt returns a copy of the amount as a big.Int.
func (a Amount) BigInt() *big.Int { return new(big.Int).Set(a.big()) }

// Arithmetic operations

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{n: new(big.Int).Add(a.big(), b.big())}
}

// Sub returns a - b. Panics if the result would be negative;
// compare with Cmp first when underflow is a legitimate input.
func (a Amount) Sub(b Amount) Amount {
	r := new(big.Int).Sub(a.big(), b.big())
	if r.Sign() < 0 {
		panic(fmt.Sprintf("types: amount underflow: %s - %s", a, b))
	}
	return Amount{n: r}
}

// SubFloor returns a - b, floored at zero.
func (a Amount) SubFloor(b Amount) Amount {
	r := new(big.Int).Sub(a.big(), b.big())
	if r.Sign() < 0 {
		return Amount{}
	}
	return Amount{n: r}
}

// Mul returns a * m.
func (a Amount) Mul(m uint64) Amount {
	return Amount{n: new(big.Int).Mul(a.big(), new(big.Int).SetUint64(m))}
}

// Div returns a / d, truncated toward zero. Panics if d is zero.
func (a Amount) Div(d uint64) Amount {
	if d == 0 {
		panic("types: amount division by zero")
	}
	return Amount{n: new(big.Int).Quo(a.big(), new(big.Int).SetUint64(d))}
}

// MulDiv returns a * num / den with the intermediate product computed at
// full precision and the final division truncated toward zero.
// Panics if den is zero.
func (a Amount) MulDiv(num, den uint64) Amount {
	if den == 0 {
		panic("types: amount division by zero")
	}
	r := new(big.Int).Mul(a.big(), new(big.Int).SetUint64(num))
	r.Quo(r, new(big.Int).SetUint64(den))
	return Amount{n: r}
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.big().Sign() == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.big().Sign() > 0 }

// Cmp compares a and b: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int { return a.big().Cmp(b.big()) }

// Equal returns true if both amounts are equal.
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

// LessThan returns true if a < b.
func (a Amount) LessThan(b Amount) bool { return a.Cmp(b) < 0 }

// GreaterThan returns true if a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.Cmp(b) > 0 }

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if a.Cmp(b) < 0 {
		return a
	}
	return b
}

// String returns the base-10 representation of the amount.
func (a Amount) String() string { return a.big().String() }

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = Amount{}
		return nil
	}
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON implements json.Marshaler. Amounts serialize as decimal
// strings so they survive JSON number precision limits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler. Accepts both a decimal
// string and a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Fall back to a bare number literal.
		s = string(data)
	}
	return a.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer for database storage. Amounts are
// stored as decimal text.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("types: cannot scan negative %d into Amount", v)
		}
		*a = NewAmount(uint64(v))
		return nil
	default:
		return fmt.Errorf("types: cannot scan %T into Amount", src)
	}
}

// SumAmounts calculates the sum of multiple amounts.
func SumAmounts(values ...Amount) Amount {
	total := Amount{}
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
