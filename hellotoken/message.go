package hellotoken

import (
	relay "github.com/cordialsys/tokenrelay"
)

const PayloadIDHello = 1

// HelloTokenMessage is the payload carried inside a token bridge transfer: the
// final recipient on the destination chain.
type HelloTokenMessage struct {
	Recipient relay.ExternalAddress
}

func (m *HelloTokenMessage) Encode() []byte {
	out := make([]byte, 0, 1+len(m.Recipient))
	out = append(out, PayloadIDHello)
	return append(out, m.Recipient[:]...)
}

func ParseHelloTokenMessage(data []byte) (*HelloTokenMessage, error) {
	m := &HelloTokenMessage{}
	if len(data) != 1+len(m.Recipient) {
		return nil, Errorf(InvalidMessage, "payload is %d bytes", len(data))
	}
	if data[0] != PayloadIDHello {
		return nil, Errorf(InvalidMessage, "unknown payload id %d", data[0])
	}
	copy(m.Recipient[:], data[1:])
	return m, nil
}
