package wormhole

import (
	"bytes"
	"fmt"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/ledger"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

type BridgeConfig struct {
	GuardianSetExpirationTime uint32
	Fee                       uint64
}

// BridgeData is the singleton bridge record.
type BridgeData struct {
	GuardianSetIndex uint32
	// LastLamports is the fee collector balance after the last accepted message.
	LastLamports uint64
	Config       BridgeConfig
}

// SequenceTracker holds the sequence the next message from an emitter gets.
type SequenceTracker struct {
	Sequence uint64
}

// MessageData is shared by outbound posted messages and inbound posted VAAs;
// the two are told apart by their magic prefix.
type MessageData struct {
	VaaVersion          uint8
	ConsistencyLevel    uint8
	VaaTime             uint32
	VaaSignatureAccount solana.PublicKey
	SubmissionTime      uint32
	Nonce               uint32
	Sequence            uint64
	EmitterChain        uint16
	EmitterAddress      relay.ExternalAddress
	Payload             []byte
}

var (
	postedMessageMagic = []byte("msg")
	postedVAAMagic     = []byte("vaa")
)

// Body returns the VAA body the message is (or will be) attested as.
func (m *MessageData) Body() Body {
	return Body{
		Timestamp:        m.VaaTime,
		Nonce:            m.Nonce,
		EmitterChain:     relay.ChainID(m.EmitterChain),
		EmitterAddress:   m.EmitterAddress,
		Sequence:         m.Sequence,
		ConsistencyLevel: m.ConsistencyLevel,
		Payload:          m.Payload,
	}
}

func encodeRecord(magic []byte, v interface{}) ([]byte, error) {
	bz, err := bin.MarshalBorsh(v)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, magic...), bz...), nil
}

func decodeRecord(data []byte, magic []byte, v interface{}) error {
	if !bytes.HasPrefix(data, magic) {
		return fmt.Errorf("%w: missing %q prefix", ErrInvalidAccount, magic)
	}
	if err := bin.UnmarshalBorsh(v, data[len(magic):]); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	return nil
}

func (b *Bridge) readRecord(address solana.PublicKey, v interface{}) error {
	data, err := b.ledger.Data(address, b.ProgramID)
	if err != nil {
		return err
	}
	if err := bin.UnmarshalBorsh(v, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidAccount, address, err)
	}
	return nil
}

func (b *Bridge) writeRecord(address solana.PublicKey, v interface{}) error {
	bz, err := bin.MarshalBorsh(v)
	if err != nil {
		return err
	}
	return b.ledger.WriteData(address, b.ProgramID, bz)
}

func (b *Bridge) createRecord(payer, address solana.PublicKey, v interface{}) error {
	bz, err := bin.MarshalBorsh(v)
	if err != nil {
		return err
	}
	return b.ledger.CreateAccount(payer, address, b.ProgramID, bz)
}

// Ledger exposes the host the bridge is deployed on.
func (b *Bridge) Ledger() *ledger.Ledger {
	return b.ledger
}
