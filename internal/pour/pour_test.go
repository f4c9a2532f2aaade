package pour

import (
	"bytes"
	"testing"

	"zeropour/internal/address"
	"zeropour/internal/bitseq"
	"zeropour/internal/coin"
	"zeropour/internal/merkle"
	"zeropour/internal/statement"
)

// harness builds two real spends by minting their coins into a real
// internal/merkle.Tree and taking its actual GetWitness output, so
// New/Verify exercise the same accumulator a deployment would: the
// circuit's Merkle-membership check authenticates against a root this
// package's own tree implementation produced, not a hand-built one.
type harness struct {
	backend *statement.Groth16Backend
	tree    *merkle.Tree
	spends  [2]*Spend
	rt      bitseq.Bits
}

func newHarness(t *testing.T, values [2]uint64) *harness {
	t.Helper()
	b, err := statement.NewGroth16Backend()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tree, err := merkle.New(statement.TreeDepth)
	if err != nil {
		t.Fatal(err)
	}

	var spends [2]*Spend
	for j := 0; j < 2; j++ {
		addr, err := address.New()
		if err != nil {
			t.Fatal(err)
		}
		c, err := coin.New(addr.Public.Apk, values[j])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := tree.InsertElement(bitseq.FromBytes(c.Cm[:])); err != nil {
			t.Fatal(err)
		}
		spends[j] = &Spend{Coin: c, Owner: addr, Index: uint64(j)}
	}
	for j := 0; j < 2; j++ {
		sib, err := tree.GetWitness(spends[j].Index)
		if err != nil {
			t.Fatalf("witness for spend %d: %v", j, err)
		}
		spends[j].Siblings = sib
	}

	return &harness{backend: b, tree: tree, spends: spends, rt: tree.GetRootValue()}
}

func newOutput(t *testing.T, v uint64) *Output {
	t.Helper()
	addr, err := address.New()
	if err != nil {
		t.Fatal(err)
	}
	c, err := coin.New(addr.Public.Apk, v)
	if err != nil {
		t.Fatal(err)
	}
	return &Output{Coin: c, Recipient: addr.Public}
}

func TestMintThenPourThenVerify(t *testing.T) {
	h := newHarness(t, [2]uint64{1, 3})
	outputs := [2]*Output{newOutput(t, 2), newOutput(t, 2)}
	pubkeyHash := bytes.Repeat([]byte("a"), 32)

	tx, err := New(VersionCurrent, h.rt, h.spends, outputs, 0, 0, pubkeyHash, h.backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !tx.Verify(pubkeyHash, h.backend) {
		t.Fatal("valid pour failed to verify")
	}
}

func TestValueImbalanceRejected(t *testing.T) {
	h := newHarness(t, [2]uint64{1, 3})
	outputs := [2]*Output{newOutput(t, 2), newOutput(t, 2)}
	pubkeyHash := bytes.Repeat([]byte("a"), 32)

	tx, err := New(VersionCurrent, h.rt, h.spends, outputs, 0, 2, pubkeyHash, h.backend)
	if err == nil {
		if tx.Verify(pubkeyHash, h.backend) {
			t.Fatal("value-imbalanced pour must not verify")
		}
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	h := newHarness(t, [2]uint64{1, 3})
	outputs := [2]*Output{newOutput(t, 2), newOutput(t, 2)}
	pubkeyHash := bytes.Repeat([]byte("a"), 32)

	tx, err := New(VersionCurrent, h.rt, h.spends, outputs, 0, 0, pubkeyHash, h.backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	blob := tx.Serialize()
	got, err := Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !got.Verify(pubkeyHash, h.backend) {
		t.Fatal("round-tripped pour failed to verify")
	}
}

func TestDeserializeTruncationAndTrailingGarbage(t *testing.T) {
	h := newHarness(t, [2]uint64{1, 3})
	outputs := [2]*Output{newOutput(t, 2), newOutput(t, 2)}
	pubkeyHash := bytes.Repeat([]byte("a"), 32)
	tx, err := New(VersionCurrent, h.rt, h.spends, outputs, 0, 0, pubkeyHash, h.backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	blob := tx.Serialize()
	for n := 0; n < len(blob); n += 7 {
		if _, err := Deserialize(blob[:n]); err == nil {
			t.Fatalf("expected truncation error at prefix length %d", n)
		}
	}
	if _, err := Deserialize(append(blob, 0x00)); err == nil {
		t.Fatal("expected a trailing-garbage error")
	}
}

func TestMutatingPublicFieldBreaksVerification(t *testing.T) {
	h := newHarness(t, [2]uint64{1, 3})
	outputs := [2]*Output{newOutput(t, 2), newOutput(t, 2)}
	pubkeyHash := bytes.Repeat([]byte("a"), 32)
	tx, err := New(VersionCurrent, h.rt, h.spends, outputs, 0, 0, pubkeyHash, h.backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tx.Cm[0][0] ^= 0xff
	if tx.Verify(pubkeyHash, h.backend) {
		t.Fatal("tampering with cm_1 must break verification")
	}
}

func TestVersionZeroPlaceholderAcceptedOnlyInTestMode(t *testing.T) {
	h := newHarness(t, [2]uint64{0, 0})
	outputs := [2]*Output{newOutput(t, 0), newOutput(t, 0)}
	pubkeyHash := bytes.Repeat([]byte("a"), 32)

	tx, err := New(VersionPlaceholder, h.rt, h.spends, outputs, 0, 0, pubkeyHash, h.backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !tx.Verify(pubkeyHash, h.backend) {
		t.Fatal("version-0 placeholder should verify under test-mode Verify")
	}
	if tx.VerifyProduction(pubkeyHash, h.backend) {
		t.Fatal("VerifyProduction must reject version-0 placeholder proofs")
	}
}

func TestDummyInputsAndOutputs(t *testing.T) {
	h := newHarness(t, [2]uint64{1, 0})
	realOutput := newOutput(t, 1)
	dummyOutput, err := NewDummyOutput()
	if err != nil {
		t.Fatal(err)
	}
	outputs := [2]*Output{realOutput, dummyOutput}
	pubkeyHash := bytes.Repeat([]byte("b"), 32)

	tx, err := New(VersionCurrent, h.rt, h.spends, outputs, 0, 0, pubkeyHash, h.backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !tx.Verify(pubkeyHash, h.backend) {
		t.Fatal("pour with one dummy input and one dummy output should verify")
	}
}

func TestVerifyRejectsNilBackend(t *testing.T) {
	tx := &PourTransaction{Version: VersionCurrent}
	if tx.Verify([]byte("x"), nil) {
		t.Fatal("verify with a nil backend must return false")
	}
}
