package ledger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"zeropour/internal/address"
	"zeropour/internal/coin"
	"zeropour/internal/mint"
	"zeropour/internal/pour"
	"zeropour/internal/statement"
)

func mustAddress(t *testing.T) *address.Address {
	t.Helper()
	a, err := address.New()
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func mustCoin(t *testing.T, apk [address.PkSize]byte, v uint64) *coin.Coin {
	t.Helper()
	c, err := coin.New(apk, v)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// setup mints two coins owned by fresh addresses into a fresh ledger and
// returns everything a pour spending both of them needs: the ledger, the
// two spends (with real Merkle paths against the ledger's current
// root), and a ready Groth16 backend.
func setup(t *testing.T, v0, v1 uint64) (*Ledger, [2]*pour.Spend, *statement.Groth16Backend) {
	t.Helper()
	l, err := New(statement.TreeDepth)
	if err != nil {
		t.Fatal(err)
	}

	a0, a1 := mustAddress(t), mustAddress(t)
	c0, c1 := mustCoin(t, a0.Public.Apk, v0), mustCoin(t, a1.Public.Apk, v1)

	m0, err := mint.New(c0)
	if err != nil {
		t.Fatal(err)
	}
	m1, err := mint.New(c1)
	if err != nil {
		t.Fatal(err)
	}
	idx0, err := l.AppendMint(m0)
	if err != nil {
		t.Fatalf("append mint 0: %v", err)
	}
	idx1, err := l.AppendMint(m1)
	if err != nil {
		t.Fatalf("append mint 1: %v", err)
	}

	sib0, err := l.Tree.GetWitness(idx0)
	if err != nil {
		t.Fatal(err)
	}
	sib1, err := l.Tree.GetWitness(idx1)
	if err != nil {
		t.Fatal(err)
	}

	spends := [2]*pour.Spend{
		{Coin: c0, Owner: a0, Index: idx0, Siblings: sib0},
		{Coin: c1, Owner: a1, Index: idx1, Siblings: sib1},
	}

	b, err := statement.NewGroth16Backend()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return l, spends, b
}

func mustOutput(t *testing.T, v uint64) *pour.Output {
	t.Helper()
	a := mustAddress(t)
	c := mustCoin(t, a.Public.Apk, v)
	return &pour.Output{Coin: c, Recipient: a.Public}
}

func TestAppendMintRejectsDuplicateCommitment(t *testing.T) {
	l, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	a := mustAddress(t)
	c := mustCoin(t, a.Public.Apk, 7)
	m, err := mint.New(c)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.AppendMint(m); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if _, err := l.AppendMint(m); err == nil {
		t.Fatal("appending the same commitment twice must fail")
	}
}

func TestPourAgainstLedgerRootThenDoubleSpendRejected(t *testing.T) {
	l, spends, b := setup(t, 5, 3)
	outputs := [2]*pour.Output{mustOutput(t, 4), mustOutput(t, 4)}
	pubkeyHash := bytes.Repeat([]byte("k"), 32)

	tx, err := pour.New(pour.VersionCurrent, l.Root(), spends, outputs, 0, 0, pubkeyHash, b)
	if err != nil {
		t.Fatalf("pour.New: %v", err)
	}
	if _, _, err := l.AppendPour(tx, pubkeyHash, b); err != nil {
		t.Fatalf("first AppendPour: %v", err)
	}
	if l.HasSerialNumber(tx.Sn[0][:]) == false || l.HasSerialNumber(tx.Sn[1][:]) == false {
		t.Fatal("spent serial numbers must be recorded")
	}

	if _, _, err := l.AppendPour(tx, pubkeyHash, b); err == nil {
		t.Fatal("replaying the same pour must be rejected as a double spend or a stale anchor")
	}
}

func TestAppendPourRejectsStaleAnchor(t *testing.T) {
	l, spends, b := setup(t, 5, 3)
	outputs := [2]*pour.Output{mustOutput(t, 4), mustOutput(t, 4)}
	pubkeyHash := bytes.Repeat([]byte("k"), 32)

	staleRoot := l.Root()

	// Mutate the tree so the ledger's root moves before the pour lands.
	extra := mustAddress(t)
	extraCoin := mustCoin(t, extra.Public.Apk, 1)
	extraMint, err := mint.New(extraCoin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.AppendMint(extraMint); err != nil {
		t.Fatal(err)
	}

	tx, err := pour.New(pour.VersionCurrent, staleRoot, spends, outputs, 0, 0, pubkeyHash, b)
	if err != nil {
		t.Fatalf("pour.New: %v", err)
	}
	if _, _, err := l.AppendPour(tx, pubkeyHash, b); err == nil {
		t.Fatal("a pour anchored to a stale root must be rejected")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	l, spends, b := setup(t, 5, 3)
	outputs := [2]*pour.Output{mustOutput(t, 4), mustOutput(t, 4)}
	pubkeyHash := bytes.Repeat([]byte("k"), 32)

	tx, err := pour.New(pour.VersionCurrent, l.Root(), spends, outputs, 0, 0, pubkeyHash, b)
	if err != nil {
		t.Fatalf("pour.New: %v", err)
	}
	if _, _, err := l.AppendPour(tx, pubkeyHash, b); err != nil {
		t.Fatalf("AppendPour: %v", err)
	}

	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := l.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if !bytes.Equal(loaded.Root().Bytes(), l.Root().Bytes()) {
		t.Fatal("loaded ledger root must match the saved root")
	}
	if !loaded.HasSerialNumber(tx.Sn[0][:]) {
		t.Fatal("loaded ledger must retain spent serial numbers")
	}
	if len(loaded.Entries) != len(l.Entries) {
		t.Fatalf("expected %d entries, got %d", len(l.Entries), len(loaded.Entries))
	}
}

func TestLoadFromFileMissingFile(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(os.TempDir(), "does-not-exist-zeropour-ledger.json")); err == nil {
		t.Fatal("loading a missing file must return an error")
	}
}
