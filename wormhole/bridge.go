// Package wormhole is the messaging layer: it assigns per-emitter sequence
// numbers to outbound messages and holds the verified inbound VAAs other
// programs consume.
package wormhole

import (
	"fmt"
	"time"

	relay "github.com/cordialsys/tokenrelay"
	"github.com/cordialsys/tokenrelay/ledger"
	"github.com/cordialsys/tokenrelay/pda"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

const (
	SeedBridge       = "Bridge"
	SeedFeeCollector = "fee_collector"
	SeedSequence     = "Sequence"
	SeedPostedVAA    = "PostedVAA"
)

// MaxPayloadLen bounds a message payload.
const MaxPayloadLen = 10 * 1024

const DefaultGuardianSetExpiration = 86400

type Bridge struct {
	ProgramID solana.PublicKey
	ChainID   relay.ChainID

	ledger *ledger.Ledger
	now    func() time.Time
}

type Option func(*Bridge)

// WithClock overrides the clock used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		b.now = now
	}
}

func New(l *ledger.Ledger, programID solana.PublicKey, chainID relay.ChainID, options ...Option) *Bridge {
	b := &Bridge{
		ProgramID: programID,
		ChainID:   chainID,
		ledger:    l,
		now:       time.Now,
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *Bridge) BridgeAddress() solana.PublicKey {
	return pda.MustFind(b.ProgramID, pda.Tag(SeedBridge)).Address
}

func (b *Bridge) FeeCollectorAddress() solana.PublicKey {
	return pda.MustFind(b.ProgramID, pda.Tag(SeedFeeCollector)).Address
}

func (b *Bridge) SequenceAddress(emitter solana.PublicKey) solana.PublicKey {
	return pda.MustFind(b.ProgramID, pda.Tag(SeedSequence), pda.Key(emitter)).Address
}

func (b *Bridge) PostedVAAAddress(hash [32]byte) solana.PublicKey {
	return pda.MustFind(b.ProgramID, pda.Tag(SeedPostedVAA), hash[:]).Address
}

// Initialize creates the bridge record and the fee collector. The fee
// collector is a bare lamport account owned by the bridge.
func (b *Bridge) Initialize(payer solana.PublicKey, fee uint64) error {
	if b.ledger.Allocated(b.BridgeAddress()) {
		return fmt.Errorf("%w: %s", ledger.ErrAccountExists, b.BridgeAddress())
	}
	feeCollector := b.FeeCollectorAddress()
	if err := b.ledger.CreateAccount(payer, feeCollector, b.ProgramID, nil); err != nil {
		return err
	}
	data := &BridgeData{
		LastLamports: b.ledger.Lamports(feeCollector),
		Config: BridgeConfig{
			GuardianSetExpirationTime: DefaultGuardianSetExpiration,
			Fee:                       fee,
		},
	}
	if err := b.createRecord(payer, b.BridgeAddress(), data); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"program": b.ProgramID,
		"chain":   b.ChainID,
		"fee":     fee,
	}).Debug("initialized wormhole bridge")
	return nil
}

func (b *Bridge) Data() (*BridgeData, error) {
	data := &BridgeData{}
	if err := b.readRecord(b.BridgeAddress(), data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotInitialized, err)
	}
	return data, nil
}

// Fee is the lamport fee a message must pay into the fee collector.
func (b *Bridge) Fee() (uint64, error) {
	data, err := b.Data()
	if err != nil {
		return 0, err
	}
	return data.Config.Fee, nil
}

// NextSequence returns the sequence the next message from emitter will be
// given; zero for an emitter that has never posted.
func (b *Bridge) NextSequence(emitter solana.PublicKey) (uint64, error) {
	address := b.SequenceAddress(emitter)
	if !b.ledger.Allocated(address) {
		return 0, nil
	}
	tracker := &SequenceTracker{}
	if err := b.readRecord(address, tracker); err != nil {
		return 0, err
	}
	return tracker.Sequence, nil
}

type PostMessageArgs struct {
	Payer        solana.PublicKey
	Emitter      solana.PublicKey
	Message      solana.PublicKey
	Bridge       solana.PublicKey
	FeeCollector solana.PublicKey
	Sequence     solana.PublicKey

	Nonce            uint32
	ConsistencyLevel uint8
	Payload          []byte
}

// PostMessage records an outbound message at args.Message and returns the
// sequence assigned to it. The fee must already have been paid into the fee
// collector.
func (b *Bridge) PostMessage(args PostMessageArgs) (uint64, error) {
	if !args.Bridge.Equals(b.BridgeAddress()) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidBridge, args.Bridge)
	}
	if !args.FeeCollector.Equals(b.FeeCollectorAddress()) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidFeeCollector, args.FeeCollector)
	}
	sequenceAddress := b.SequenceAddress(args.Emitter)
	if !args.Sequence.Equals(sequenceAddress) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSequence, args.Sequence)
	}
	if len(args.Payload) > MaxPayloadLen {
		return 0, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(args.Payload))
	}

	data, err := b.Data()
	if err != nil {
		return 0, err
	}
	collected := b.ledger.Lamports(args.FeeCollector)
	if collected < data.LastLamports+data.Config.Fee {
		return 0, fmt.Errorf("%w: collected %d, expected %d", ErrInsufficientFees, collected-data.LastLamports, data.Config.Fee)
	}
	data.LastLamports = collected
	if err := b.writeRecord(b.BridgeAddress(), data); err != nil {
		return 0, err
	}

	tracker := &SequenceTracker{}
	if b.ledger.Allocated(sequenceAddress) {
		if err := b.readRecord(sequenceAddress, tracker); err != nil {
			return 0, err
		}
	} else if err := b.createRecord(args.Payer, sequenceAddress, tracker); err != nil {
		return 0, err
	}

	now := uint32(b.now().Unix())
	message := &MessageData{
		ConsistencyLevel: args.ConsistencyLevel,
		SubmissionTime:   now,
		VaaTime:          now,
		Nonce:            args.Nonce,
		Sequence:         tracker.Sequence,
		EmitterChain:     uint16(b.ChainID),
		EmitterAddress:   relay.ExternalAddressFromPublicKey(args.Emitter),
		Payload:          args.Payload,
	}
	bz, err := encodeRecord(postedMessageMagic, message)
	if err != nil {
		return 0, err
	}
	if err := b.ledger.CreateAccount(args.Payer, args.Message, b.ProgramID, bz); err != nil {
		return 0, err
	}

	tracker.Sequence++
	if err := b.writeRecord(sequenceAddress, tracker); err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{
		"emitter":  args.Emitter,
		"sequence": message.Sequence,
		"message":  args.Message,
	}).Debug("posted message")
	return message.Sequence, nil
}

// Message decodes an outbound message posted with PostMessage.
func (b *Bridge) Message(address solana.PublicKey) (*MessageData, error) {
	data, err := b.ledger.Data(address, b.ProgramID)
	if err != nil {
		return nil, err
	}
	message := &MessageData{}
	if err := decodeRecord(data, postedMessageMagic, message); err != nil {
		return nil, err
	}
	return message, nil
}

// PostVAA stores body as a verified VAA and returns its address. Guardian
// signature verification happens before this point and is out of scope here.
func (b *Bridge) PostVAA(payer solana.PublicKey, body *Body) (solana.PublicKey, error) {
	address := b.PostedVAAAddress(body.Hash())
	if b.ledger.Allocated(address) {
		return address, fmt.Errorf("%w: %s", ErrVAAExists, address)
	}
	posted := &MessageData{
		VaaVersion:       1,
		ConsistencyLevel: body.ConsistencyLevel,
		VaaTime:          body.Timestamp,
		SubmissionTime:   uint32(b.now().Unix()),
		Nonce:            body.Nonce,
		Sequence:         body.Sequence,
		EmitterChain:     uint16(body.EmitterChain),
		EmitterAddress:   body.EmitterAddress,
		Payload:          body.Payload,
	}
	bz, err := encodeRecord(postedVAAMagic, posted)
	if err != nil {
		return address, err
	}
	if err := b.ledger.CreateAccount(payer, address, b.ProgramID, bz); err != nil {
		return address, err
	}
	return address, nil
}

// VerifiedMessageAt decodes the posted VAA stored at address.
func (b *Bridge) VerifiedMessageAt(address solana.PublicKey) (*MessageData, error) {
	data, err := b.ledger.Data(address, b.ProgramID)
	if err != nil {
		return nil, err
	}
	posted := &MessageData{}
	if err := decodeRecord(data, postedVAAMagic, posted); err != nil {
		return nil, err
	}
	return posted, nil
}

// PostedVAA looks a verified VAA up by the hash of its body.
func (b *Bridge) PostedVAA(hash [32]byte) (*MessageData, error) {
	return b.VerifiedMessageAt(b.PostedVAAAddress(hash))
}
