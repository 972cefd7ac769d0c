package hellotoken

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/pda"
	"github.com/cordialsys/tokenrelay/tokenbridge"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	SeedSenderConfig    = tokenbridge.SeedSender
	SeedRedeemerConfig  = tokenbridge.SeedRedeemer
	SeedForeignContract = "foreign_contract"
	SeedTmp             = "tmp"
	SeedBridged         = "bridged"
)

// TokenBridgeAddresses are the capability addresses trusted at initialization.
type TokenBridgeAddresses struct {
	Config               solana.PublicKey
	AuthoritySigner      solana.PublicKey
	CustodySigner        solana.PublicKey
	MintAuthority        solana.PublicKey
	Emitter              solana.PublicKey
	Sequence             solana.PublicKey
	WormholeBridge       solana.PublicKey
	WormholeFeeCollector solana.PublicKey
}

func addressesFromCapabilities(caps tokenbridge.Capabilities) TokenBridgeAddresses {
	return TokenBridgeAddresses(caps)
}

// SenderConfig also acts as the program's sender account on the token bridge.
type SenderConfig struct {
	Owner       solana.PublicKey
	Bump        uint8
	TokenBridge TokenBridgeAddresses
}

// RedeemerConfig also acts as the program's redeemer account on the token bridge.
type RedeemerConfig struct {
	Owner               solana.PublicKey
	Bump                uint8
	RelayerFee          uint32
	RelayerFeePrecision uint32
	TokenBridge         TokenBridgeAddresses
}

type ForeignContract struct {
	Chain   uint16
	Address relay.ExternalAddress
	// TokenBridgeForeignEndpoint is the token bridge endpoint registration
	// for Chain, stored so redemptions can compare against it.
	TokenBridgeForeignEndpoint solana.PublicKey
}

// discriminator prefixes every record so one record type cannot be read as another.
func discriminator(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:8]
}

var (
	senderConfigDiscriminator    = discriminator("SenderConfig")
	redeemerConfigDiscriminator  = discriminator("RedeemerConfig")
	foreignContractDiscriminator = discriminator("ForeignContract")
)

func encodeRecord(disc []byte, v interface{}) ([]byte, error) {
	bz, err := bin.MarshalBorsh(v)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, disc...), bz...), nil
}

func decodeRecord(data []byte, disc []byte, v interface{}) error {
	if !bytes.HasPrefix(data, disc) {
		return fmt.Errorf("account discriminator mismatch")
	}
	return bin.UnmarshalBorsh(v, data[len(disc):])
}

func (p *Program) SenderConfigAddress() pda.Derived {
	return pda.MustFind(p.ID, pda.Tag(SeedSenderConfig))
}

func (p *Program) RedeemerConfigAddress() pda.Derived {
	return pda.MustFind(p.ID, pda.Tag(SeedRedeemerConfig))
}

func (p *Program) ForeignContractAddress(chain relay.ChainID) pda.Derived {
	return pda.MustFind(p.ID, pda.Tag(SeedForeignContract), pda.Uint16LE(uint16(chain)))
}

// TmpTokenAddress is the escrow token account used while moving mint.
func (p *Program) TmpTokenAddress(mint solana.PublicKey) pda.Derived {
	return pda.MustFind(p.ID, pda.Tag(SeedTmp), pda.Key(mint))
}

// MessageAddress is where the outbound message with the given token bridge
// sequence is posted.
func (p *Program) MessageAddress(sequence uint64) pda.Derived {
	return pda.MustFind(p.ID, pda.Tag(SeedBridged), pda.Uint64LE(sequence))
}

func (p *Program) readRecord(address solana.PublicKey, disc []byte, v interface{}) error {
	data, err := p.ledger.Data(address, p.ID)
	if err != nil {
		return err
	}
	return decodeRecord(data, disc, v)
}

// checkBump re-derives address from the bump stored in its record.
func (p *Program) checkBump(address solana.PublicKey, bump uint8, seeds ...[]byte) error {
	derived, err := pda.Create(p.ID, bump, seeds...)
	if err != nil || !derived.Equals(address) {
		return Errorf(InvalidDerivedAddress, "stored bump %d does not derive %s", bump, address)
	}
	return nil
}

func (p *Program) SenderConfig() (*SenderConfig, error) {
	address := p.SenderConfigAddress().Address
	config := &SenderConfig{}
	if err := p.readRecord(address, senderConfigDiscriminator, config); err != nil {
		return nil, Wrap(NotInitialized, err, "sender config")
	}
	if err := p.checkBump(address, config.Bump, pda.Tag(SeedSenderConfig)); err != nil {
		return nil, err
	}
	return config, nil
}

func (p *Program) RedeemerConfig() (*RedeemerConfig, error) {
	address := p.RedeemerConfigAddress().Address
	config := &RedeemerConfig{}
	if err := p.readRecord(address, redeemerConfigDiscriminator, config); err != nil {
		return nil, Wrap(NotInitialized, err, "redeemer config")
	}
	if err := p.checkBump(address, config.Bump, pda.Tag(SeedRedeemerConfig)); err != nil {
		return nil, err
	}
	return config, nil
}

// ForeignContract returns the contract registered for chain.
func (p *Program) ForeignContract(chain relay.ChainID) (*ForeignContract, error) {
	return p.foreignContractAt(p.ForeignContractAddress(chain).Address)
}

func (p *Program) foreignContractAt(address solana.PublicKey) (*ForeignContract, error) {
	contract := &ForeignContract{}
	if err := p.readRecord(address, foreignContractDiscriminator, contract); err != nil {
		return nil, Wrap(InvalidForeignContract, err, "no foreign contract at %s", address)
	}
	return contract, nil
}

// ForeignContracts lists every registered foreign contract.
func (p *Program) ForeignContracts() []ForeignContract {
	var out []ForeignContract
	for _, acct := range p.ledger.Accounts(p.ID) {
		contract := ForeignContract{}
		if decodeRecord(acct.Data, foreignContractDiscriminator, &contract) == nil {
			out = append(out, contract)
		}
	}
	return out
}
