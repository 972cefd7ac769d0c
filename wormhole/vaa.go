package wormhole

import (
	"bytes"
	"errors"
	"fmt"

	relay "github.com/cordialsys/tokenrelay"
	bin "github.com/gagliardetto/binary"
	"golang.org/x/crypto/sha3"
)

// Body is the signed portion of a VAA. Guardian signatures are not modelled:
// a body becomes trusted once it is posted through PostVAA.
type Body struct {
	Timestamp        uint32
	Nonce            uint32
	EmitterChain     relay.ChainID
	EmitterAddress   relay.ExternalAddress
	Sequence         uint64
	ConsistencyLevel uint8
	Payload          []byte
}

// bodyHeaderLen is the size of the fixed fields preceding the payload.
const bodyHeaderLen = 4 + 4 + 2 + 32 + 8 + 1

var ErrShortBody = errors.New("vaa body is too short")

// Encode serializes the body big-endian, the way it is hashed and signed.
func (b *Body) Encode() []byte {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	// writes to a bytes.Buffer do not fail
	_ = enc.WriteUint32(b.Timestamp, bin.BE)
	_ = enc.WriteUint32(b.Nonce, bin.BE)
	_ = enc.WriteUint16(uint16(b.EmitterChain), bin.BE)
	_ = enc.WriteBytes(b.EmitterAddress[:], false)
	_ = enc.WriteUint64(b.Sequence, bin.BE)
	_ = enc.WriteUint8(b.ConsistencyLevel)
	_ = enc.WriteBytes(b.Payload, false)
	return buf.Bytes()
}

// Hash is keccak256 of the encoded body. Posted VAAs are addressed by it.
func (b *Body) Hash() [32]byte {
	var hash [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(b.Encode())
	copy(hash[:], h.Sum(nil))
	return hash
}

func ParseBody(data []byte) (*Body, error) {
	if len(data) < bodyHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortBody, len(data))
	}
	dec := bin.NewBinDecoder(data)
	body := &Body{}
	var err error
	if body.Timestamp, err = dec.ReadUint32(bin.BE); err != nil {
		return nil, err
	}
	if body.Nonce, err = dec.ReadUint32(bin.BE); err != nil {
		return nil, err
	}
	chain, err := dec.ReadUint16(bin.BE)
	if err != nil {
		return nil, err
	}
	body.EmitterChain = relay.ChainID(chain)
	emitter, err := dec.ReadNBytes(32)
	if err != nil {
		return nil, err
	}
	copy(body.EmitterAddress[:], emitter)
	if body.Sequence, err = dec.ReadUint64(bin.BE); err != nil {
		return nil, err
	}
	if body.ConsistencyLevel, err = dec.ReadUint8(); err != nil {
		return nil, err
	}
	if body.Payload, err = dec.ReadNBytes(dec.Remaining()); err != nil {
		return nil, err
	}
	return body, nil
}
