// Package pda implements the program-derived address scheme every record in the
// relay is addressed by.
//
// An address is a pure function of a program id and a list of seeds: a tag
// naming the record type followed by the fields identifying the record. The
// derivation searches bumps from 255 down and returns the first one whose hash
// is not a valid ed25519 point, so no private key can ever sign for it.
package pda

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Derived is an address together with the bump that produced it.
type Derived struct {
	Address solana.PublicKey
	Bump    uint8
}

// Find derives the canonical address for seeds under programID.
func Find(programID solana.PublicKey, seeds ...[]byte) (Derived, error) {
	for i, seed := range seeds {
		if len(seed) > solana.MaxSeedLength {
			return Derived{}, fmt.Errorf("seed %d is %d bytes, max is %d", i, len(seed), solana.MaxSeedLength)
		}
	}
	address, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return Derived{}, err
	}
	return Derived{Address: address, Bump: bump}, nil
}

// MustFind is Find for seeds known to be valid, e.g. program-constant records.
func MustFind(programID solana.PublicKey, seeds ...[]byte) Derived {
	d, err := Find(programID, seeds...)
	if err != nil {
		panic(err)
	}
	return d
}

// Create re-derives an address from a stored bump.
func Create(programID solana.PublicKey, bump uint8, seeds ...[]byte) (solana.PublicKey, error) {
	withBump := make([][]byte, 0, len(seeds)+1)
	withBump = append(withBump, seeds...)
	withBump = append(withBump, []byte{bump})
	return solana.CreateProgramAddress(withBump, programID)
}

func Tag(tag string) []byte {
	return []byte(tag)
}

func Key(key solana.PublicKey) []byte {
	return key[:]
}

func Uint16LE(v uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, v)
}

func Uint16BE(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

func Uint64LE(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

func Uint64BE(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}
