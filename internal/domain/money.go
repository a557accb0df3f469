package domain

import (
	"database/sql/driver"

	"github.com/shopspring/decimal"
)

// Money is a fixed-precision monetary amount. All pricing and ledger
// arithmetic goes through this type so repeated recomputation never
// drifts the way float math would.
type Money struct {
	d decimal.Decimal
}

func NewMoney(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, err
	}
	return Money{d: d}, nil
}

func MustMoney(value string) Money {
	m, err := NewMoney(value)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney() Money {
	return Money{d: decimal.Zero}
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) MulInt(n int64) Money { return Money{d: m.d.Mul(decimal.NewFromInt(n))} }
func (m Money) Neg() Money { return Money{d: m.d.Neg()} }
func (m Money) IsZero() bool { return m.d.IsZero() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// DivRound divides by n rounding to 2 decimal places. Used only on the
// display path that back-derives a per-day rate from a manually agreed
// price; the result never feeds back into the agreed price itself.
func (m Money) DivRound(n int64) Money {
	return Money{d: m.d.DivRound(decimal.NewFromInt(n), 2)}
}

func (m Money) String() string {
	return m.d.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return m.d.MarshalJSON()
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.d.UnmarshalJSON(data)
}

func (m Money) Value() (driver.Value, error) {
	return m.d.Value()
}

func (m *Money) Scan(src interface{}) error {
	return m.d.Scan(src)
}

// FuelLevel is a tank reading in whole percent, 0 (empty) to 100 (full).
type FuelLevel int

func (f FuelLevel) Valid() bool {
	return f >= 0 && f <= 100
}
