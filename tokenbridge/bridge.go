// Package tokenbridge is the custody layer. Native tokens are locked in
// per-mint custody accounts and foreign tokens are minted as wrapped assets;
// every transfer is announced through the wormhole messaging layer.
package tokenbridge

import (
	"fmt"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/ledger"
	"github.com/cordialsys/tokenrelay/pda"
	"github.com/cordialsys/tokenrelay/wormhole"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

const (
	SeedConfig          = "config"
	SeedAuthoritySigner = "authority_signer"
	SeedCustodySigner   = "custody_signer"
	SeedMintAuthority   = "mint_signer"
	SeedEmitter         = "emitter"
	SeedWrapped         = "wrapped"
	SeedWrappedMeta     = "meta"

	// SeedSender and SeedRedeemer are derived under the calling program, not
	// the bridge. They let a program prove it initiated or may receive a
	// transfer with payload.
	SeedSender   = "sender"
	SeedRedeemer = "redeemer"
)

// ConsistencyFinalized is the consistency level transfers are posted with.
const ConsistencyFinalized = 32

type Bridge struct {
	ProgramID solana.PublicKey

	wormhole *wormhole.Bridge
	ledger   *ledger.Ledger
}

func New(l *ledger.Ledger, programID solana.PublicKey, wh *wormhole.Bridge) *Bridge {
	return &Bridge{
		ProgramID: programID,
		wormhole:  wh,
		ledger:    l,
	}
}

func (b *Bridge) Wormhole() *wormhole.Bridge {
	return b.wormhole
}

func (b *Bridge) ChainID() relay.ChainID {
	return b.wormhole.ChainID
}

func (b *Bridge) find(seeds ...[]byte) solana.PublicKey {
	return pda.MustFind(b.ProgramID, seeds...).Address
}

func (b *Bridge) ConfigAddress() solana.PublicKey {
	return b.find(pda.Tag(SeedConfig))
}

func (b *Bridge) AuthoritySignerAddress() solana.PublicKey {
	return b.find(pda.Tag(SeedAuthoritySigner))
}

func (b *Bridge) CustodySignerAddress() solana.PublicKey {
	return b.find(pda.Tag(SeedCustodySigner))
}

func (b *Bridge) MintAuthorityAddress() solana.PublicKey {
	return b.find(pda.Tag(SeedMintAuthority))
}

func (b *Bridge) EmitterAddress() solana.PublicKey {
	return b.find(pda.Tag(SeedEmitter))
}

// SequenceAddress is the messaging layer sequence tracker of the bridge emitter.
func (b *Bridge) SequenceAddress() solana.PublicKey {
	return b.wormhole.SequenceAddress(b.EmitterAddress())
}

// CustodyAddress is the token account holding locked tokens of mint.
func (b *Bridge) CustodyAddress(mint solana.PublicKey) solana.PublicKey {
	return b.find(pda.Key(mint))
}

func (b *Bridge) EndpointAddress(chain relay.ChainID, emitter relay.ExternalAddress) solana.PublicKey {
	return b.find(pda.Uint16BE(uint16(chain)), emitter[:])
}

func (b *Bridge) ClaimAddress(emitter relay.ExternalAddress, chain relay.ChainID, sequence uint64) solana.PublicKey {
	return b.find(emitter[:], pda.Uint16BE(uint16(chain)), pda.Uint64BE(sequence))
}

func (b *Bridge) WrappedMintAddress(chain relay.ChainID, token relay.ExternalAddress) solana.PublicKey {
	return b.find(pda.Tag(SeedWrapped), pda.Uint16BE(uint16(chain)), token[:])
}

func (b *Bridge) WrappedMetaAddress(mint solana.PublicKey) solana.PublicKey {
	return b.find(pda.Tag(SeedWrappedMeta), pda.Key(mint))
}

// SenderAddress is the account a program signs transfers with.
func SenderAddress(program solana.PublicKey) solana.PublicKey {
	return pda.MustFind(program, pda.Tag(SeedSender)).Address
}

// RedeemerAddress is the account a program redeems transfers with.
func RedeemerAddress(program solana.PublicKey) solana.PublicKey {
	return pda.MustFind(program, pda.Tag(SeedRedeemer)).Address
}

// Capabilities are the addresses a program integrating with the bridge must
// present on every transfer.
type Capabilities struct {
	Config               solana.PublicKey
	AuthoritySigner      solana.PublicKey
	CustodySigner        solana.PublicKey
	MintAuthority        solana.PublicKey
	Emitter              solana.PublicKey
	Sequence             solana.PublicKey
	WormholeBridge       solana.PublicKey
	WormholeFeeCollector solana.PublicKey
}

func (b *Bridge) Capabilities() Capabilities {
	return Capabilities{
		Config:               b.ConfigAddress(),
		AuthoritySigner:      b.AuthoritySignerAddress(),
		CustodySigner:        b.CustodySignerAddress(),
		MintAuthority:        b.MintAuthorityAddress(),
		Emitter:              b.EmitterAddress(),
		Sequence:             b.SequenceAddress(),
		WormholeBridge:       b.wormhole.BridgeAddress(),
		WormholeFeeCollector: b.wormhole.FeeCollectorAddress(),
	}
}

func (b *Bridge) Initialize(payer solana.PublicKey) error {
	if _, err := b.wormhole.Data(); err != nil {
		return err
	}
	err := b.create(payer, b.ConfigAddress(), &Config{WormholeBridge: b.wormhole.BridgeAddress()})
	if err != nil {
		return err
	}
	logrus.WithField("program", b.ProgramID).Debug("initialized token bridge")
	return nil
}

// RegisterChain trusts emitter as the token bridge of chain.
func (b *Bridge) RegisterChain(payer solana.PublicKey, chain relay.ChainID, emitter relay.ExternalAddress) error {
	if chain == b.ChainID() || chain == relay.ChainUnset {
		return fmt.Errorf("%w: cannot register chain %s", ErrInvalidChain, chain)
	}
	address := b.EndpointAddress(chain, emitter)
	if b.ledger.Allocated(address) {
		return fmt.Errorf("%w: %s", ErrEndpointExists, address)
	}
	err := b.create(payer, address, &EndpointRegistration{
		EmitterChain:   uint16(chain),
		EmitterAddress: emitter,
	})
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"chain":    chain,
		"emitter":  emitter,
		"endpoint": address,
	}).Debug("registered token bridge endpoint")
	return nil
}

// CreateWrapped creates the local mint for a foreign token and returns it.
func (b *Bridge) CreateWrapped(payer solana.PublicKey, chain relay.ChainID, token relay.ExternalAddress, decimals uint8) (solana.PublicKey, error) {
	if chain == b.ChainID() {
		return solana.PublicKey{}, fmt.Errorf("%w: %s tokens are native", ErrInvalidChain, chain)
	}
	mint := b.WrappedMintAddress(chain, token)
	if err := b.ledger.CreateMint(payer, mint, b.MintAuthorityAddress(), WrappedDecimals(decimals)); err != nil {
		return mint, err
	}
	err := b.create(payer, b.WrappedMetaAddress(mint), &WrappedMeta{
		Chain:            uint16(chain),
		TokenAddress:     token,
		OriginalDecimals: decimals,
	})
	return mint, err
}
