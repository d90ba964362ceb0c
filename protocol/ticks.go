package protocol

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTickSize = errors.New("tick size must be positive")
	ErrOffTick         = errors.New("price is not a multiple of the tick size")
	ErrTickOverflow    = errors.New("price does not fit in int64 ticks")
)

// ToTicks converts a decimal price into integer ticks of the given size.
// The price must be an exact multiple of tickSize.
func ToTicks(price decimal.Decimal, tickSize decimal.Decimal) (int64, error) {
	if !tickSize.IsPositive() {
		return 0, ErrInvalidTickSize
	}

	ticks := price.Div(tickSize)
	if !ticks.Equal(ticks.Truncate(0)) {
		return 0, fmt.Errorf("%s / %s: %w", price, tickSize, ErrOffTick)
	}
	if !ticks.BigInt().IsInt64() {
		return 0, ErrTickOverflow
	}
	return ticks.IntPart(), nil
}

// FromTicks converts integer ticks back into a decimal price.
func FromTicks(ticks int64, tickSize decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(ticks).Mul(tickSize)
}

// ParseTicks parses a decimal string and converts it into ticks.
func ParseTicks(price string, tickSize decimal.Decimal) (int64, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return 0, err
	}
	return ToTicks(d, tickSize)
}
