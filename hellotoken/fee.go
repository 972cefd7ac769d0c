package hellotoken

import (
	"github.com/holiman/uint256"
)

// FeePolicy decides how much of a redeemed amount goes to the relayer that
// submitted the redemption.
type FeePolicy interface {
	RelayerAmount(config *RedeemerConfig, amount uint64) uint64
}

// ConfiguredFee pays amount * RelayerFee / RelayerFeePrecision, rounded down.
type ConfiguredFee struct{}

var _ FeePolicy = ConfiguredFee{}

func (ConfiguredFee) RelayerAmount(config *RedeemerConfig, amount uint64) uint64 {
	if config.RelayerFeePrecision == 0 {
		return 0
	}
	fee := uint256.NewInt(amount)
	fee.Mul(fee, uint256.NewInt(uint64(config.RelayerFee)))
	fee.Div(fee, uint256.NewInt(uint64(config.RelayerFeePrecision)))
	return fee.Uint64()
}

// FeePolicyFunc adapts a function to FeePolicy.
type FeePolicyFunc func(config *RedeemerConfig, amount uint64) uint64

func (f FeePolicyFunc) RelayerAmount(config *RedeemerConfig, amount uint64) uint64 {
	return f(config, amount)
}

func checkRelayerFee(fee, precision uint32) error {
	if precision == 0 || fee >= precision {
		return Errorf(InvalidRelayerFee, "fee %d with precision %d", fee, precision)
	}
	return nil
}
