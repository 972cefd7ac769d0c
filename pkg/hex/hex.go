package hex

import (
	"encoding/hex"
	"strings"
)

var EncodeToString = hex.EncodeToString

// Hex is binary data shown as 0x-prefixed hex in every text encoding.
type Hex []byte

func (h Hex) String() string {
	return "0x" + hex.EncodeToString(h)
}

func (h Hex) Bytes() []byte {
	return []byte(h)
}

// Decode accepts hex with or without a 0x prefix. Quotes are dropped.
func Decode(s string) (Hex, error) {
	s = strings.Trim(s, "\"'")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	bz, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return Hex(bz), nil
}

func (h Hex) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hex) UnmarshalText(data []byte) error {
	bz, err := Decode(string(data))
	if err != nil {
		return err
	}
	*h = bz
	return nil
}
