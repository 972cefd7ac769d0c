package tokenbridge

import (
	"fmt"

	relay "github.com/cordialsys/tokenrelay"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

type Config struct {
	WormholeBridge solana.PublicKey
}

// EndpointRegistration records the token bridge contract trusted on a foreign chain.
type EndpointRegistration struct {
	EmitterChain   uint16
	EmitterAddress relay.ExternalAddress
}

type Claim struct {
	Claimed bool
}

// WrappedMeta describes the foreign token a wrapped mint represents.
type WrappedMeta struct {
	Chain            uint16
	TokenAddress     relay.ExternalAddress
	OriginalDecimals uint8
}

func (b *Bridge) read(address solana.PublicKey, v interface{}) error {
	data, err := b.ledger.Data(address, b.ProgramID)
	if err != nil {
		return err
	}
	if err := bin.UnmarshalBorsh(v, data); err != nil {
		return fmt.Errorf("decode %s: %w", address, err)
	}
	return nil
}

func (b *Bridge) create(payer, address solana.PublicKey, v interface{}) error {
	bz, err := bin.MarshalBorsh(v)
	if err != nil {
		return err
	}
	return b.ledger.CreateAccount(payer, address, b.ProgramID, bz)
}

func (b *Bridge) Config() (*Config, error) {
	config := &Config{}
	if err := b.read(b.ConfigAddress(), config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotInitialized, err)
	}
	return config, nil
}

func (b *Bridge) Endpoint(chain relay.ChainID, emitter relay.ExternalAddress) (*EndpointRegistration, error) {
	endpoint := &EndpointRegistration{}
	if err := b.read(b.EndpointAddress(chain, emitter), endpoint); err != nil {
		return nil, fmt.Errorf("%w: chain %s emitter %s", ErrInvalidEndpoint, chain, emitter)
	}
	return endpoint, nil
}

// EndpointAt decodes the endpoint registration stored at address.
func (b *Bridge) EndpointAt(address solana.PublicKey) (*EndpointRegistration, error) {
	endpoint := &EndpointRegistration{}
	if err := b.read(address, endpoint); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEndpoint, address, err)
	}
	return endpoint, nil
}

// IsClaimed reports whether the transfer with the given emitter and sequence
// has been redeemed.
func (b *Bridge) IsClaimed(chain relay.ChainID, emitter relay.ExternalAddress, sequence uint64) bool {
	return b.ledger.Allocated(b.ClaimAddress(emitter, chain, sequence))
}

func (b *Bridge) WrappedMeta(mint solana.PublicKey) (*WrappedMeta, error) {
	meta := &WrappedMeta{}
	if err := b.read(b.WrappedMetaAddress(mint), meta); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotWrapped, mint)
	}
	return meta, nil
}
