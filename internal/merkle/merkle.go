// Package merkle implements the append-only commitment accumulator: a
// fixed-depth incremental Merkle tree over leaves the width of a coin
// commitment, its compact serializable snapshot, and witness extraction.
// The design follows the classic ripple-carry frontier construction that
// libzerocash's IncrementalMerkleTree is built on (exercised, on the C++
// side, by original_source/tests/merkleTest.cpp's
// testCompactRepresentation): a small "frontier" of at most D
// completed-subtree hashes, one per set bit of the current leaf count,
// is enough to compute the root, accept further insertions, and
// reconstruct witnesses for anything inserted from that point on —
// without retaining every historical leaf.
//
// Interior nodes are combined with internal/circuithash, the same MiMC
// compression function the pour circuit's Merkle-membership check uses,
// so a witness this tree produces actually authenticates against the
// root the circuit verifies.
package merkle

import (
	"fmt"

	"zeropour/internal/bitseq"
	"zeropour/internal/circuithash"
	"zeropour/internal/zeropourerr"
)

// LeafBits is the bit width of a leaf (a coin commitment).
const LeafBits = circuithash.Size * 8

// combine computes the parent of two child nodes with the circuit's
// Merkle-membership compression function.
func combine(left, right bitseq.Bits) bitseq.Bits {
	out, err := circuithash.Hash(left.Bytes(), right.Bytes())
	if err != nil {
		panic(fmt.Sprintf("merkle: combine: %v", err))
	}
	return bitseq.FromBytes(out[:])
}

// MaxDepth is the largest tree depth this package supports.
const MaxDepth = 64

type nodeKey struct {
	depth int
	index uint64
}

// Tree is an incremental Merkle tree of fixed depth. It is not
// goroutine-safe; concurrent callers must serialize access externally.
type Tree struct {
	depth         int
	numLeaves     uint64
	pruneBoundary uint64
	frontier      map[int]bitseq.Bits
	leaves        map[uint64]bitseq.Bits
	cache         map[nodeKey]bitseq.Bits
	empty         []bitseq.Bits
}

// New builds an empty tree of the given depth (0 <= depth <= MaxDepth).
func New(depth int) (*Tree, error) {
	if depth < 0 || depth > MaxDepth {
		return nil, zeropourerr.New(zeropourerr.KindInputShape, "merkle.New", fmt.Errorf("depth %d out of range [0,%d]", depth, MaxDepth))
	}
	empty := make([]bitseq.Bits, depth+1)
	empty[0] = bitseq.Zeros(LeafBits)
	for d := 1; d <= depth; d++ {
		empty[d] = combine(empty[d-1], empty[d-1])
	}
	return &Tree{
		depth:    depth,
		frontier: make(map[int]bitseq.Bits),
		leaves:   make(map[uint64]bitseq.Bits),
		cache:    make(map[nodeKey]bitseq.Bits),
		empty:    empty,
	}, nil
}

// Depth returns the tree's fixed depth.
func (t *Tree) Depth() int { return t.depth }

// NumLeaves returns the number of leaves inserted so far.
func (t *Tree) NumLeaves() uint64 { return t.numLeaves }

func (t *Tree) capacity() (uint64, bool) {
	if t.depth >= 64 {
		return 0, true // unbounded for practical purposes
	}
	return uint64(1) << uint(t.depth), false
}

// InsertElement appends a leaf at the next free slot and returns the
// insertion path as a depth-bit sequence, MSB at the root.
func (t *Tree) InsertElement(leaf bitseq.Bits) (bitseq.Bits, error) {
	if t.depth == 0 {
		return nil, zeropourerr.New(zeropourerr.KindTree, "merkle.InsertElement", fmt.Errorf("tree has depth 0"))
	}
	if len(leaf) != LeafBits {
		return nil, zeropourerr.New(zeropourerr.KindInputShape, "merkle.InsertElement", fmt.Errorf("leaf must be %d bits, got %d", LeafBits, len(leaf)))
	}
	if cap, unbounded := t.capacity(); !unbounded && t.numLeaves >= cap {
		return nil, zeropourerr.New(zeropourerr.KindTree, "merkle.InsertElement", fmt.Errorf("tree is full"))
	}
	idx := t.numLeaves
	t.leaves[idx] = leaf

	carry := leaf
	cur := idx
	d := 0
	for cur&1 == 1 {
		sib := t.frontier[d]
		// Keep the consumed completed subtree reachable, so witnesses for
		// leaves inserted after Prune or FromCompact can still use it.
		if d == 0 {
			t.leaves[cur^1] = sib
		} else {
			t.cache[nodeKey{d, cur ^ 1}] = sib
		}
		carry = combine(sib, carry)
		delete(t.frontier, d)
		cur >>= 1
		d++
	}
	t.frontier[d] = carry

	t.numLeaves++
	return pathBits(idx, t.depth), nil
}

// InsertVector inserts every leaf in leaves, atomically: on overflow, no
// leaf is inserted and the tree's observable state (including the root)
// is unchanged.
func (t *Tree) InsertVector(leaves []bitseq.Bits) (bool, error) {
	if cap, unbounded := t.capacity(); !unbounded && uint64(len(leaves)) > cap-t.numLeaves {
		return false, nil
	}
	for _, leaf := range leaves {
		if _, err := t.InsertElement(leaf); err != nil {
			return false, err
		}
	}
	return true, nil
}

// GetRootValue computes the current root, treating unfilled leaves as
// all-zero. It only consults the frontier and the empty-subtree
// constants, so it works identically before and after Prune.
func (t *Tree) GetRootValue() bitseq.Bits {
	if t.depth == 0 {
		return t.empty[0]
	}
	cur := t.empty[0]
	idx := t.numLeaves
	for d := 0; d < t.depth; d++ {
		if idx&1 == 1 {
			cur = combine(t.frontier[d], cur)
		} else {
			cur = combine(cur, t.empty[d])
		}
		idx >>= 1
	}
	return cur
}

func subtreeRange(depth int, index uint64) (start, end uint64) {
	size := uint64(1) << uint(depth)
	start = index * size
	end = start + size
	return
}

// frontierChunk reports whether (depth,index) is exactly the chunk
// currently held in the frontier at that level.
func (t *Tree) frontierChunk(depth int, index uint64) (bitseq.Bits, bool) {
	h, ok := t.frontier[depth]
	if !ok {
		return nil, false
	}
	if (t.numLeaves>>uint(depth))&1 != 1 {
		return nil, false
	}
	if index != (t.numLeaves>>uint(depth))-1 {
		return nil, false
	}
	return h, true
}

var errPruned = fmt.Errorf("witness data pruned away")

func (t *Tree) nodeHash(depth int, index uint64) (bitseq.Bits, error) {
	if depth == 0 {
		if v, ok := t.leaves[index]; ok {
			return v, nil
		}
		if index >= t.numLeaves {
			return t.empty[0], nil
		}
		if v, ok := t.frontierChunk(0, index); ok {
			return v, nil
		}
		return nil, errPruned
	}
	start, end := subtreeRange(depth, index)
	if start >= t.numLeaves {
		return t.empty[depth], nil
	}
	if v, ok := t.cache[nodeKey{depth, index}]; ok {
		return v, nil
	}
	if v, ok := t.frontierChunk(depth, index); ok {
		return v, nil
	}
	if end <= t.pruneBoundary {
		return nil, errPruned
	}
	left, err := t.nodeHash(depth-1, 2*index)
	if err != nil {
		return nil, err
	}
	right, err := t.nodeHash(depth-1, 2*index+1)
	if err != nil {
		return nil, err
	}
	combined := combine(left, right)
	if end <= t.numLeaves {
		t.cache[nodeKey{depth, index}] = combined
	}
	return combined, nil
}

// GetWitness returns the depth sibling hashes from the leaf at index up
// to (but not including) the root, leaf-to-root order. It fails if the
// leaf was never inserted, or if the data needed was discarded by Prune.
func (t *Tree) GetWitness(index uint64) ([]bitseq.Bits, error) {
	if index >= t.numLeaves {
		return nil, zeropourerr.New(zeropourerr.KindTree, "merkle.GetWitness", fmt.Errorf("index %d was never inserted", index))
	}
	siblings := make([]bitseq.Bits, t.depth)
	cur := index
	for d := 0; d < t.depth; d++ {
		s, err := t.nodeHash(d, cur^1)
		if err != nil {
			return nil, zeropourerr.New(zeropourerr.KindTree, "merkle.GetWitness", fmt.Errorf("witness for index %d: %w", index, err))
		}
		siblings[d] = s
		cur >>= 1
	}
	return siblings, nil
}

// VerifyWitness recomputes the root from leaf, its index, and a sibling
// path produced by GetWitness, and compares it against root.
func VerifyWitness(leaf bitseq.Bits, index uint64, siblings []bitseq.Bits, root bitseq.Bits) bool {
	if len(leaf) != LeafBits {
		return false
	}
	if len(siblings) == 0 {
		return bitseqEqual(leaf, root)
	}
	cur := leaf
	idx := index
	for _, sib := range siblings {
		if idx&1 == 1 {
			cur = combine(sib, cur)
		} else {
			cur = combine(cur, sib)
		}
		idx >>= 1
	}
	return bitseqEqual(cur, root)
}

func bitseqEqual(a, b bitseq.Bits) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Prune discards cached interior nodes and raw leaves not needed to (a)
// recompute the current root, or (b) continue future insertions and
// witnesses for leaves inserted from this point on. The root is
// unchanged; witnesses for already-inserted leaves may no longer be
// retrievable.
func (t *Tree) Prune() {
	t.leaves = make(map[uint64]bitseq.Bits)
	t.cache = make(map[nodeKey]bitseq.Bits)
	t.pruneBoundary = t.numLeaves
}

func pathBits(index uint64, depth int) bitseq.Bits {
	out := make(bitseq.Bits, depth)
	for i := 0; i < depth; i++ {
		out[i] = (index>>uint(depth-1-i))&1 == 1
	}
	return out
}
