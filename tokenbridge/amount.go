package tokenbridge

import (
	"fmt"

	"github.com/holiman/uint256"
)

// MaxDecimals is the precision amounts carry on the wire. Amounts of tokens with
// more decimals lose their trailing digits when bridged.
const MaxDecimals = 8

// MaxMintDecimals is the most decimals a bridged mint may have: the shift
// down to wire precision must fit in a uint64.
const MaxMintDecimals = MaxDecimals + 19

// CheckDecimals rejects mints whose amounts cannot be normalized.
func CheckDecimals(decimals uint8) error {
	if decimals > MaxMintDecimals {
		return fmt.Errorf("%w: %d decimals, at most %d", ErrUnsupportedDecimals, decimals, MaxMintDecimals)
	}
	return nil
}

func decimalShift(decimals uint8) (uint64, bool) {
	if decimals > MaxMintDecimals {
		return 0, false
	}
	shift := uint64(1)
	for d := decimals; d > MaxDecimals; d-- {
		shift *= 10
	}
	return shift, true
}

// NormalizeAmount converts an amount in base units to its wire value.
func NormalizeAmount(amount uint64, decimals uint8) uint64 {
	shift, ok := decimalShift(decimals)
	if !ok {
		// the shift exceeds every uint64 amount
		return 0
	}
	return amount / shift
}

// DenormalizeAmount converts a wire value back to base units. ok is false when
// the result does not fit in a uint64.
func DenormalizeAmount(amount uint64, decimals uint8) (uint64, bool) {
	shift, ok := decimalShift(decimals)
	if !ok {
		return 0, amount == 0
	}
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(amount), uint256.NewInt(shift))
	if overflow || !product.IsUint64() {
		return 0, false
	}
	return product.Uint64(), true
}

// TruncateAmount drops the digits that would not survive normalization.
func TruncateAmount(amount uint64, decimals uint8) uint64 {
	truncated, _ := DenormalizeAmount(NormalizeAmount(amount, decimals), decimals)
	return truncated
}

// WrappedDecimals is the precision of the local wrapped mint for a foreign token.
func WrappedDecimals(decimals uint8) uint8 {
	if decimals > MaxDecimals {
		return MaxDecimals
	}
	return decimals
}
