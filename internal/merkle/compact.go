package merkle

import (
	"fmt"

	"zeropour/internal/bitseq"
	"zeropour/internal/zeropourerr"
)

// Compact is the minimal data needed to continue insertions and produce
// witnesses for subsequently inserted leaves: the next-insertion index
// as a depth-bit path (MSB at root), plus one sibling hash per set bit
// of that path, root-to-leaf order.
type Compact struct {
	Depth    uint8
	PathBits bitseq.Bits
	Siblings []bitseq.Bits
}

// GetCompactRepresentation extracts the tree's compact form.
func (t *Tree) GetCompactRepresentation() Compact {
	path := pathBits(t.numLeaves, t.depth)
	siblings := make([]bitseq.Bits, 0, path.PopCount())
	for d := t.depth - 1; d >= 0; d-- {
		if h, ok := t.frontier[d]; ok {
			siblings = append(siblings, h)
		}
	}
	return Compact{Depth: uint8(t.depth), PathBits: path, Siblings: siblings}
}

// FromCompact reconstructs a tree in the minimal state described by c:
// able to continue insertions and produce witnesses for leaves inserted
// from this point on, but not witnesses for anything inserted before.
func FromCompact(c Compact) (*Tree, error) {
	depth := int(c.Depth)
	if depth < 0 || depth > MaxDepth {
		return nil, zeropourerr.New(zeropourerr.KindInputShape, "merkle.FromCompact", fmt.Errorf("depth %d out of range", depth))
	}
	if len(c.PathBits) != depth {
		return nil, zeropourerr.New(zeropourerr.KindInputShape, "merkle.FromCompact", fmt.Errorf("path has %d bits, want %d", len(c.PathBits), depth))
	}
	if c.PathBits.PopCount() != len(c.Siblings) {
		return nil, zeropourerr.New(zeropourerr.KindInputShape, "merkle.FromCompact", fmt.Errorf("expected %d sibling hashes, got %d", c.PathBits.PopCount(), len(c.Siblings)))
	}
	t, err := New(depth)
	if err != nil {
		return nil, err
	}
	numLeaves := uint64(0)
	for i := 0; i < depth; i++ {
		numLeaves <<= 1
		if c.PathBits[i] {
			numLeaves |= 1
		}
	}
	t.numLeaves = numLeaves
	t.pruneBoundary = numLeaves
	si := 0
	for d := depth - 1; d >= 0; d-- {
		if (numLeaves>>uint(d))&1 == 1 {
			if si >= len(c.Siblings) {
				return nil, zeropourerr.New(zeropourerr.KindInputShape, "merkle.FromCompact", fmt.Errorf("sibling list shorter than path popcount"))
			}
			t.frontier[d] = c.Siblings[si]
			si++
		}
	}
	return t, nil
}

// Serialize renders the compact form per the protocol wire format: a
// 1-byte depth, ceil(depth/8) bytes of bit-packed path (MSB first, bit
// 0 at the MSB of the first byte), then popcount(path) LeafBits/8-byte
// hashes in root-to-leaf order.
func (c Compact) Serialize() []byte {
	packedLen := (int(c.Depth) + 7) / 8
	out := make([]byte, 0, 1+packedLen+len(c.Siblings)*LeafBits / 8)
	out = append(out, c.Depth)
	out = append(out, packBits(c.PathBits, packedLen)...)
	for _, s := range c.Siblings {
		out = append(out, s.Bytes()...)
	}
	return out
}

// Deserialize parses the wire format produced by Serialize. It fails
// with a truncation error on a short buffer and a trailing-garbage
// error when bytes remain unconsumed.
func Deserialize(data []byte) (Compact, error) {
	if len(data) < 1 {
		return Compact{}, zeropourerr.New(zeropourerr.KindDeserialization, "merkle.Deserialize", fmt.Errorf("truncated: missing depth byte"))
	}
	depth := data[0]
	if int(depth) > MaxDepth {
		return Compact{}, zeropourerr.New(zeropourerr.KindDeserialization, "merkle.Deserialize", fmt.Errorf("depth %d exceeds maximum %d", depth, MaxDepth))
	}
	packedLen := (int(depth) + 7) / 8
	pos := 1
	if len(data) < pos+packedLen {
		return Compact{}, zeropourerr.New(zeropourerr.KindDeserialization, "merkle.Deserialize", fmt.Errorf("truncated: missing path bytes"))
	}
	path := unpackBits(data[pos:pos+packedLen], int(depth))
	pos += packedLen
	popcount := path.PopCount()
	need := popcount * LeafBits / 8
	if len(data) < pos+need {
		return Compact{}, zeropourerr.New(zeropourerr.KindDeserialization, "merkle.Deserialize", fmt.Errorf("truncated: missing %d sibling hashes", popcount))
	}
	siblings := make([]bitseq.Bits, 0, popcount)
	for i := 0; i < popcount; i++ {
		chunk := data[pos : pos+LeafBits / 8]
		siblings = append(siblings, bitseq.FromBytes(chunk))
		pos += LeafBits / 8
	}
	if pos != len(data) {
		return Compact{}, zeropourerr.New(zeropourerr.KindDeserialization, "merkle.Deserialize", fmt.Errorf("trailing garbage: %d extra bytes", len(data)-pos))
	}
	return Compact{Depth: depth, PathBits: path, Siblings: siblings}, nil
}

// packBits packs bits MSB-first into totalBytes, zero-padding the tail.
func packBits(bits bitseq.Bits, totalBytes int) []byte {
	out := make([]byte, totalBytes)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

// unpackBits reverses packBits, reading exactly nBits MSB-first bits.
func unpackBits(data []byte, nBits int) bitseq.Bits {
	out := make(bitseq.Bits, nBits)
	for i := 0; i < nBits; i++ {
		out[i] = (data[i/8]>>uint(7-i%8))&1 == 1
	}
	return out
}
