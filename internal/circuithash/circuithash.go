// Package circuithash is the off-circuit counterpart of the pour
// statement's in-circuit compression function: MiMC over BW6-761's
// scalar field, absorbing one argument per call exactly the way gnark's
// std/hash/mimc gadget absorbs one frontend.Variable per Write. Every
// value the rest of this module publishes as a serial number,
// commitment, MAC, or Merkle node must be computed here, so the same
// digest the pour circuit recomputes over its witness is the digest
// published on the wire.
package circuithash

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	mimcnative "github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"
)

// Size is the byte width of one absorbed block and of the digest this
// package's Hash produces. BW6-761 is built, per the Housni-Guillevic
// two-chain construction, so its scalar field equals BLS12-377's base
// field: a 377-bit prime, canonically serialized as 48 bytes by
// gnark-crypto. A value fed to Hash must fit in Size bytes.
const Size = 48

// Hash absorbs each element of parts as one MiMC round, in order, and
// returns the resulting digest. A part shorter than Size is zero-padded
// on the left before absorption, matching how a raw byte slice becomes
// a field element in internal/statement's witness assignment
// (big.Int.SetBytes): left-padding with zeros never changes the
// integer value. A block whose value is at or above the field modulus
// is reduced modulo it before absorption, the same reduction the
// witness assignment applies to an out-of-range big.Int.
func Hash(parts ...[]byte) ([Size]byte, error) {
	h := mimcnative.NewMiMC()
	block := make([]byte, Size)
	var e fr.Element
	for i, p := range parts {
		if len(p) > Size {
			return [Size]byte{}, fmt.Errorf("circuithash: part %d has length %d, exceeds %d-byte block", i, len(p), Size)
		}
		for k := range block {
			block[k] = 0
		}
		copy(block[Size-len(p):], p)
		e.SetBytes(block)
		reduced := e.Bytes()
		if _, err := h.Write(reduced[:]); err != nil {
			return [Size]byte{}, fmt.Errorf("circuithash: absorb part %d: %w", i, err)
		}
	}
	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}
