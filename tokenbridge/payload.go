package tokenbridge

import (
	"bytes"
	"fmt"

	relay "github.com/cordialsys/tokenrelay"
	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"
)

const PayloadIDTransferWithPayload = 3

// transferHeaderLen is the size of a transfer-with-payload message before the
// application payload.
const transferHeaderLen = 1 + 32 + 32 + 2 + 32 + 2 + 32

// TransferWithPayload is the message the token bridge emits for a transfer
// addressed to a contract. Amount is the normalized (8 decimal) value.
type TransferWithPayload struct {
	Amount       uint256.Int
	TokenAddress relay.ExternalAddress
	TokenChain   relay.ChainID
	To           relay.ExternalAddress
	ToChain      relay.ChainID
	FromAddress  relay.ExternalAddress
	Payload      []byte
}

func (t *TransferWithPayload) Encode() []byte {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	amount := t.Amount.Bytes32()
	_ = enc.WriteUint8(PayloadIDTransferWithPayload)
	_ = enc.WriteBytes(amount[:], false)
	_ = enc.WriteBytes(t.TokenAddress[:], false)
	_ = enc.WriteUint16(uint16(t.TokenChain), bin.BE)
	_ = enc.WriteBytes(t.To[:], false)
	_ = enc.WriteUint16(uint16(t.ToChain), bin.BE)
	_ = enc.WriteBytes(t.FromAddress[:], false)
	_ = enc.WriteBytes(t.Payload, false)
	return buf.Bytes()
}

func ParseTransferWithPayload(data []byte) (*TransferWithPayload, error) {
	if len(data) < transferHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrInvalidPayload, len(data))
	}
	if data[0] != PayloadIDTransferWithPayload {
		return nil, fmt.Errorf("%w: payload id %d", ErrInvalidPayload, data[0])
	}
	dec := bin.NewBinDecoder(data[1:])
	t := &TransferWithPayload{}

	readAddress := func(dst *relay.ExternalAddress) error {
		bz, err := dec.ReadNBytes(32)
		if err != nil {
			return err
		}
		copy(dst[:], bz)
		return nil
	}
	readChain := func(dst *relay.ChainID) error {
		v, err := dec.ReadUint16(bin.BE)
		*dst = relay.ChainID(v)
		return err
	}

	amount, err := dec.ReadNBytes(32)
	if err != nil {
		return nil, err
	}
	t.Amount.SetBytes(amount)
	if err := readAddress(&t.TokenAddress); err != nil {
		return nil, err
	}
	if err := readChain(&t.TokenChain); err != nil {
		return nil, err
	}
	if err := readAddress(&t.To); err != nil {
		return nil, err
	}
	if err := readChain(&t.ToChain); err != nil {
		return nil, err
	}
	if err := readAddress(&t.FromAddress); err != nil {
		return nil, err
	}
	if t.Payload, err = dec.ReadNBytes(dec.Remaining()); err != nil {
		return nil, err
	}
	return t, nil
}
