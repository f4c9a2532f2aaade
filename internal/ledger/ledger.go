// Package ledger implements the append-only public record: the set of
// spent serial numbers, the commitment accumulator, and the ordered
// transaction history mint and pour transactions are checked against
// and appended to. Grounded on the teacher's Ledger
// (internal/zerocash/ledger.go) — same double-spend-by-serial-number
// check, same JSON persistence to a single file — generalized from one
// transaction type to the mint/pour pair and backed by
// internal/merkle's accumulator rather than a bare commitment list.
package ledger

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"zeropour/internal/bitseq"
	"zeropour/internal/merkle"
	"zeropour/internal/mint"
	"zeropour/internal/pour"
	"zeropour/internal/statement"
	"zeropour/internal/zeropourerr"
)

// Entry records one accepted transaction, in the order it was appended.
type Entry struct {
	Mint *mint.MintTransaction `json:"mint,omitempty"`
	Pour *pour.PourTransaction `json:"pour,omitempty"`
}

// Ledger is the canonical append-only record every participant
// validates transactions against. It tracks spent serial numbers for
// double-spend detection, feeds new commitments into a Merkle
// accumulator, and keeps the full transaction history. It is not
// goroutine-safe by itself; the embedded mutex is for callers that want
// to share one Ledger across goroutines by calling the locking methods.
type Ledger struct {
	mu sync.Mutex

	Tree    *merkle.Tree
	Entries []Entry

	snSeen map[string]bool
	cmSeen map[string]bool
}

// New creates an empty ledger backed by a commitment tree of the given
// depth (see internal/merkle.New for the valid range).
func New(depth int) (*Ledger, error) {
	t, err := merkle.New(depth)
	if err != nil {
		return nil, err
	}
	return &Ledger{
		Tree:   t,
		snSeen: make(map[string]bool),
		cmSeen: make(map[string]bool),
	}, nil
}

// AppendMint verifies m and, if valid and its commitment is new, inserts
// it into the tree and appends it to the history. It returns the
// leaf index the commitment was inserted at.
func (l *Ledger) AppendMint(m *mint.MintTransaction) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !m.Verify() {
		return 0, zeropourerr.New(zeropourerr.KindProof, "ledger.AppendMint", fmt.Errorf("mint transaction fails self-verification"))
	}
	cmHex := hex.EncodeToString(m.Cm[:])
	if l.cmSeen[cmHex] {
		return 0, zeropourerr.New(zeropourerr.KindTree, "ledger.AppendMint", fmt.Errorf("commitment already in ledger"))
	}

	path, err := l.Tree.InsertElement(bitseq.FromBytes(m.Cm[:]))
	if err != nil {
		return 0, err
	}
	l.cmSeen[cmHex] = true
	l.Entries = append(l.Entries, Entry{Mint: m})
	return pathToIndex(path), nil
}

// AppendPour verifies tx against pubkeyHash and the ledger's current
// root, rejects it on a double spend, and otherwise inserts its two new
// commitments and appends it to the history. Both new commitments are
// inserted, or neither is: partial insertion would leave the tree and
// the double-spend set out of step with the returned error.
func (l *Ledger) AppendPour(tx *pour.PourTransaction, pubkeyHash []byte, backend statement.Backend) (idx0, idx1 uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	root := l.Tree.GetRootValue()
	if !bytes.Equal(root.Bytes(), tx.Rt[:]) {
		return 0, 0, zeropourerr.New(zeropourerr.KindTree, "ledger.AppendPour", fmt.Errorf("anchor does not match current root"))
	}
	if !tx.VerifyProduction(pubkeyHash, backend) {
		return 0, 0, zeropourerr.New(zeropourerr.KindProof, "ledger.AppendPour", fmt.Errorf("pour transaction failed verification"))
	}

	sn0Hex := hex.EncodeToString(tx.Sn[0][:])
	sn1Hex := hex.EncodeToString(tx.Sn[1][:])
	if l.snSeen[sn0Hex] || l.snSeen[sn1Hex] {
		return 0, 0, zeropourerr.New(zeropourerr.KindProof, "ledger.AppendPour", fmt.Errorf("double-spend detected: serial number already in ledger"))
	}
	cm0Hex := hex.EncodeToString(tx.Cm[0][:])
	cm1Hex := hex.EncodeToString(tx.Cm[1][:])
	if l.cmSeen[cm0Hex] || l.cmSeen[cm1Hex] {
		return 0, 0, zeropourerr.New(zeropourerr.KindTree, "ledger.AppendPour", fmt.Errorf("commitment already in ledger"))
	}

	first := l.Tree.NumLeaves()
	ok, err := l.Tree.InsertVector([]bitseq.Bits{bitseq.FromBytes(tx.Cm[0][:]), bitseq.FromBytes(tx.Cm[1][:])})
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, zeropourerr.New(zeropourerr.KindTree, "ledger.AppendPour", fmt.Errorf("tree has no room for two commitments"))
	}

	l.snSeen[sn0Hex] = true
	l.snSeen[sn1Hex] = true
	l.cmSeen[cm0Hex] = true
	l.cmSeen[cm1Hex] = true
	l.Entries = append(l.Entries, Entry{Pour: tx})
	return first, first + 1, nil
}

// HasSerialNumber reports whether sn has already been spent.
func (l *Ledger) HasSerialNumber(sn []byte) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snSeen[hex.EncodeToString(sn)]
}

// HasCommitment reports whether cm is already committed.
func (l *Ledger) HasCommitment(cm []byte) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cmSeen[hex.EncodeToString(cm)]
}

// Root returns the ledger's current commitment tree root.
func (l *Ledger) Root() bitseq.Bits {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Tree.GetRootValue()
}

func pathToIndex(path bitseq.Bits) uint64 {
	var idx uint64
	for _, b := range path {
		idx <<= 1
		if b {
			idx |= 1
		}
	}
	return idx
}

// snapshot is the JSON persistence format: the tree's compact
// representation plus every accepted entry, in order, plus the sets
// SaveToFile needs to reconstruct double-spend detection on load.
// Persisting the compact tree representation rather than every
// historical leaf keeps the tree's share of the file to at most one
// hash per level of depth, however many leaves were inserted.
type snapshot struct {
	Tree    merkle.Compact `json:"tree"`
	Entries []Entry        `json:"entries"`
	SnSeen  []string       `json:"sn_seen"`
	CmSeen  []string       `json:"cm_seen"`
}

// SaveToFile persists the ledger to path as JSON, overwriting any
// existing file.
func (l *Ledger) SaveToFile(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := snapshot{
		Tree:    l.Tree.GetCompactRepresentation(),
		Entries: l.Entries,
		SnSeen:  keys(l.snSeen),
		CmSeen:  keys(l.cmSeen),
	}
	f, err := os.Create(path)
	if err != nil {
		return zeropourerr.New(zeropourerr.KindDeserialization, "ledger.SaveToFile", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return zeropourerr.New(zeropourerr.KindDeserialization, "ledger.SaveToFile", err)
	}
	return nil
}

// LoadFromFile restores a ledger previously written by SaveToFile. The
// restored tree can only produce witnesses for leaves inserted after
// the snapshot was taken, the same limitation internal/merkle.Compact
// documents.
func LoadFromFile(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindDeserialization, "ledger.LoadFromFile", err)
	}
	defer f.Close()

	var snap snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, zeropourerr.New(zeropourerr.KindDeserialization, "ledger.LoadFromFile", err)
	}
	tree, err := merkle.FromCompact(snap.Tree)
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindDeserialization, "ledger.LoadFromFile", err)
	}
	l := &Ledger{
		Tree:    tree,
		Entries: snap.Entries,
		snSeen:  toSet(snap.SnSeen),
		cmSeen:  toSet(snap.CmSeen),
	}
	return l, nil
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func toSet(vals []string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}
