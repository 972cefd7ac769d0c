package tokenrelay

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ExternalAddress is a 32-byte identity on any chain. Shorter native addresses
// (e.g. 20-byte EVM addresses) are left-padded with zeros.
type ExternalAddress [32]byte

func (a ExternalAddress) IsZero() bool {
	return a == ExternalAddress{}
}

func (a ExternalAddress) String() string {
	return hex.EncodeToString(a[:])
}

// PublicKey reinterprets the address as a local account key.
func (a ExternalAddress) PublicKey() solana.PublicKey {
	return solana.PublicKeyFromBytes(a[:])
}

func ExternalAddressFromPublicKey(key solana.PublicKey) ExternalAddress {
	var a ExternalAddress
	copy(a[:], key[:])
	return a
}

// ParseExternalAddress accepts hex (optionally 0x-prefixed, up to 32 bytes) or
// a base58 solana public key.
func ParseExternalAddress(s string) (ExternalAddress, error) {
	var a ExternalAddress
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || isHex(s) {
		bz, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return a, fmt.Errorf("invalid hex address %q: %w", s, err)
		}
		if len(bz) > len(a) {
			return a, fmt.Errorf("address %q is longer than 32 bytes", s)
		}
		copy(a[len(a)-len(bz):], bz)
		return a, nil
	}
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return ExternalAddressFromPublicKey(key), nil
}

func isHex(s string) bool {
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
