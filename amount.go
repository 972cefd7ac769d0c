package tokenrelay

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// AmountHumanReadable is a decimal amount as a human expects it for readability.
type AmountHumanReadable decimal.Decimal

func NewAmountHumanReadableFromStr(str string) (AmountHumanReadable, error) {
	dec, err := decimal.NewFromString(str)
	return AmountHumanReadable(dec), err
}

func (amount AmountHumanReadable) Decimal() decimal.Decimal {
	return decimal.Decimal(amount)
}

func (amount AmountHumanReadable) String() string {
	return decimal.Decimal(amount).String()
}

// ToBlockchain converts to base units, failing on negative amounts, amounts with
// more precision than the token supports, or amounts that do not fit a u64.
func (amount AmountHumanReadable) ToBlockchain(decimals uint8) (uint64, error) {
	dec := decimal.Decimal(amount)
	if dec.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative: %s", dec)
	}
	raised := dec.Shift(int32(decimals))
	if !raised.Equal(raised.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimals", dec, decimals)
	}
	if raised.GreaterThan(fromUint64(math.MaxUint64)) {
		return 0, fmt.Errorf("amount %s overflows u64", dec)
	}
	return raised.BigInt().Uint64(), nil
}

// ToHuman converts base units into a decimal amount.
func ToHuman(amount uint64, decimals uint8) AmountHumanReadable {
	return AmountHumanReadable(fromUint64(amount).Shift(-int32(decimals)))
}

func fromUint64(u64 uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u64), 0)
}
