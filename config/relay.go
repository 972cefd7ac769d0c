package config

import (
	"fmt"
	"math"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Section is the key of the relay settings in the config file.
const Section = "relay"

// maxFeeDecimals keeps 100*10^decimals within a uint32 precision.
const maxFeeDecimals = 7

type ForeignContract struct {
	Chain string `yaml:"chain" json:"chain" toml:"chain"`
	// Address of the hello token contract, hex or base58.
	Address string `yaml:"address" json:"address" toml:"address"`
	// TokenBridge is the emitter of the token bridge on Chain.
	TokenBridge string `yaml:"token_bridge" json:"token_bridge" toml:"token_bridge"`
}

type Relay struct {
	LogLevel             string `yaml:"log_level,omitempty" json:"log_level,omitempty" toml:"log_level,omitempty"`
	Chain                string `yaml:"chain" json:"chain" toml:"chain"`
	WormholeProgramID    string `yaml:"wormhole_program_id" json:"wormhole_program_id" toml:"wormhole_program_id"`
	TokenBridgeProgramID string `yaml:"token_bridge_program_id" json:"token_bridge_program_id" toml:"token_bridge_program_id"`
	HelloTokenProgramID  string `yaml:"hello_token_program_id" json:"hello_token_program_id" toml:"hello_token_program_id"`
	// WormholeFee in lamports.
	WormholeFee uint64 `yaml:"wormhole_fee" json:"wormhole_fee" toml:"wormhole_fee"`
	// RelayerFee is a percentage of each redeemed amount, e.g. "1.5".
	RelayerFee       string            `yaml:"relayer_fee" json:"relayer_fee" toml:"relayer_fee"`
	ForeignContracts []ForeignContract `yaml:"foreign_contracts,omitempty" json:"foreign_contracts,omitempty" toml:"foreign_contracts,omitempty"`
}

func DefaultRelay() *Relay {
	return &Relay{
		Chain:                relay.ChainSolana.String(),
		WormholeProgramID:    "worm2ZoG2kUd4vFXhvjh93UUH596ayRfgQ2MgjNMTth",
		TokenBridgeProgramID: "wormDTUJ6AWPNvk59vGQbDvGJmqbDTdgWgAqcLBCgUb",
		HelloTokenProgramID:  "CgKvYvDgy9qfFeqxz9nC3xjs8wyVcXvbJ86jdWEmCGPf",
		WormholeFee:          100,
		RelayerFee:           "1",
	}
}

// LoadRelay reads the relay section, falling back to DefaultRelay.
func LoadRelay() (*Relay, error) {
	cfg := &Relay{}
	if err := RequireConfig(Section, cfg, DefaultRelay()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *Relay) ChainID() (relay.ChainID, error) {
	return relay.ParseChainID(r.Chain)
}

type ProgramIDs struct {
	Wormhole    solana.PublicKey
	TokenBridge solana.PublicKey
	HelloToken  solana.PublicKey
}

func (r *Relay) ProgramIDs() (ProgramIDs, error) {
	var ids ProgramIDs
	for _, p := range []struct {
		name  string
		value string
		dst   *solana.PublicKey
	}{
		{"wormhole_program_id", r.WormholeProgramID, &ids.Wormhole},
		{"token_bridge_program_id", r.TokenBridgeProgramID, &ids.TokenBridge},
		{"hello_token_program_id", r.HelloTokenProgramID, &ids.HelloToken},
	} {
		key, err := solana.PublicKeyFromBase58(p.value)
		if err != nil {
			return ids, fmt.Errorf("invalid %s %q: %w", p.name, p.value, err)
		}
		*p.dst = key
	}
	return ids, nil
}

// RelayerFeeFraction converts the configured percentage into the fee and
// precision pair stored on chain. "1" is 1/100 and "0.25" is 25/10000.
func (r *Relay) RelayerFeeFraction() (fee uint32, precision uint32, err error) {
	return ParseRelayerFee(r.RelayerFee)
}

func ParseRelayerFee(percent string) (uint32, uint32, error) {
	if percent == "" {
		return 0, 100, nil
	}
	d, err := decimal.NewFromString(percent)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid relayer fee %q: %w", percent, err)
	}
	if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return 0, 0, fmt.Errorf("relayer fee %q must be at least 0 and below 100 percent", percent)
	}
	places := int32(0)
	if d.Exponent() < 0 {
		places = -d.Exponent()
	}
	// trailing zeros do not need precision
	for places > 0 && d.Shift(places-1).IsInteger() {
		places--
	}
	if places > maxFeeDecimals {
		return 0, 0, fmt.Errorf("relayer fee %q has more than %d decimals", percent, maxFeeDecimals)
	}
	precision := decimal.NewFromInt(100).Shift(places).IntPart()
	fee := d.Shift(places).IntPart()
	if precision > math.MaxUint32 {
		return 0, 0, fmt.Errorf("relayer fee %q is too precise", percent)
	}
	return uint32(fee), uint32(precision), nil
}

func (r *Relay) Foreign() ([]ParsedForeignContract, error) {
	parsed := make([]ParsedForeignContract, 0, len(r.ForeignContracts))
	for i, fc := range r.ForeignContracts {
		chain, err := relay.ParseChainID(fc.Chain)
		if err != nil {
			return nil, fmt.Errorf("foreign_contracts[%d]: %w", i, err)
		}
		address, err := relay.ParseExternalAddress(fc.Address)
		if err != nil {
			return nil, fmt.Errorf("foreign_contracts[%d].address: %w", i, err)
		}
		tokenBridge, err := relay.ParseExternalAddress(fc.TokenBridge)
		if err != nil {
			return nil, fmt.Errorf("foreign_contracts[%d].token_bridge: %w", i, err)
		}
		parsed = append(parsed, ParsedForeignContract{Chain: chain, Address: address, TokenBridge: tokenBridge})
	}
	return parsed, nil
}

type ParsedForeignContract struct {
	Chain       relay.ChainID
	Address     relay.ExternalAddress
	TokenBridge relay.ExternalAddress
}
