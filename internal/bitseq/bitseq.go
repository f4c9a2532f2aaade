// Package bitseq implements the bit-twiddling primitives shared by the
// rest of the zeropour protocol: byte<->bit conversion (MSB-first per
// byte, matching original_source/libzerocash's
// convertBytesVectorToVector), big-endian integer<->byte conversion,
// population count, and the raw SHA-256 primitive h_S is derived with.
// The protocol's serial numbers, commitments, MACs, and Merkle nodes are
// all MiMC digests (internal/circuithash) rather than SHA-256, since
// those values are recomputed inside the pour circuit's R1CS.
package bitseq

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// HashSize is the output size in bytes of the raw SHA-256 primitive
// used to derive h_S in the pour MAC construction.
const HashSize = 32

// Bits is a bit-sequence, index 0 being the most significant bit of the
// first byte of the corresponding byte-vector.
type Bits []bool

// FromBytes converts a byte slice into its MSB-first bit-sequence.
func FromBytes(b []byte) Bits {
	out := make(Bits, 0, len(b)*8)
	for _, by := range b {
		for i := 7; i >= 0; i-- {
			out = append(out, (by>>uint(i))&1 == 1)
		}
	}
	return out
}

// Bytes converts a bit-sequence back into bytes, MSB-first. The length
// must be a multiple of 8.
func (b Bits) Bytes() []byte {
	if len(b)%8 != 0 {
		panic(fmt.Sprintf("bitseq: Bytes: length %d is not a multiple of 8", len(b)))
	}
	out := make([]byte, len(b)/8)
	for i, bit := range b {
		if bit {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

// Zeros returns a zero-valued bit-sequence of the given length.
func Zeros(n int) Bits {
	return make(Bits, n)
}

// PopCount returns the number of set bits.
func (b Bits) PopCount() int {
	n := 0
	for _, bit := range b {
		if bit {
			n++
		}
	}
	return n
}

// SHA256 is the raw, non-domain-separated SHA-256 digest used to derive
// h_S = SHA-256(pubkeyHash) in the pour MAC construction (spec section 4.6).
func SHA256(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// Uint64ToBytes renders v as a big-endian 8-byte vector.
func Uint64ToBytes(v uint64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, v)
	return out
}

// BytesToUint64 parses an 8-byte big-endian vector.
func BytesToUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("bitseq: BytesToUint64: expected 8 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// Uint16ToBytes renders v as a big-endian 2-byte vector.
func Uint16ToBytes(v uint16) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, v)
	return out
}

// BytesToUint16 parses a 2-byte big-endian vector.
func BytesToUint16(b []byte) (uint16, error) {
	if len(b) != 2 {
		return 0, fmt.Errorf("bitseq: BytesToUint16: expected 2 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint16(b), nil
}
