// Package pour implements the two-input/two-output shielded spend: a
// PourTransaction spends two coins and creates two coins, hiding their
// values and owners behind commitments, serial numbers, and a zk-SNARK
// proof of the pour relation. Construction and verification are
// grounded on the teacher's CreateTx/VerifyTx (internal/zerocash/tx.go),
// generalized from one spend to two.
package pour

import (
	"crypto/rand"
	"fmt"

	"zeropour/internal/address"
	"zeropour/internal/bitseq"
	"zeropour/internal/circuithash"
	"zeropour/internal/coin"
	"zeropour/internal/merkle"
	"zeropour/internal/statement"
	"zeropour/internal/zeropourerr"
)

const (
	VersionPlaceholder = 0
	VersionCurrent     = 1

	// PlaceholderProofLen is the fixed length of the proof field on a
	// version-0 (testing-only) pour transaction.
	PlaceholderProofLen = 4

	// PlaintextLen is the length of the (v || r || rho) plaintext each
	// ciphertext encrypts, per the fixed field widths in internal/coin.
	PlaintextLen = coin.VSize + coin.RSize + coin.RhoSize
)

// computeMac derives mac_j = MiMC(a_sk, h_S, j), binding the pour to the
// externally supplied signature-key hash h_S and to which of the two
// spend slots this MAC authenticates, exactly as the circuit's own MAC
// check recomputes it.
func computeMac(sk [address.SkSize]byte, hS []byte, j int) ([coin.SnSize]byte, error) {
	if len(hS) != bitseq.HashSize {
		return [coin.SnSize]byte{}, zeropourerr.New(zeropourerr.KindInputShape, "pour.computeMac", fmt.Errorf("h_S must be %d bytes", bitseq.HashSize))
	}
	mac, err := circuithash.Hash(sk[:], hS, []byte{byte(j)})
	if err != nil {
		return [coin.SnSize]byte{}, zeropourerr.New(zeropourerr.KindCrypto, "pour.computeMac", err)
	}
	return mac, nil
}

// Spend describes one coin being consumed: its opening, the owning
// address's secret key, and its authentication path against the
// transaction's anchor root.
type Spend struct {
	Coin     *coin.Coin
	Owner    *address.Address
	Index    uint64
	Siblings []bitseq.Bits
}

// Output describes one coin being created and the recipient it is
// encrypted to.
type Output struct {
	Coin      *coin.Coin
	Recipient address.PublicAddress
}

// NewDummySpend synthesizes a value-zero coin under a fresh address, to
// be spent as a padding input. A dummy coin must still be a real leaf of
// the commitment tree (for instance minted with value zero) before it
// can be spent: the caller inserts its commitment and fills in Index
// and Siblings, the same as for any other Spend.
func NewDummySpend() (*Spend, error) {
	addr, err := address.New()
	if err != nil {
		return nil, err
	}
	c, err := coin.New(addr.Public.Apk, 0)
	if err != nil {
		return nil, err
	}
	return &Spend{Coin: c, Owner: addr}, nil
}

// NewDummyOutput synthesizes a value-zero output to a fresh address.
func NewDummyOutput() (*Output, error) {
	addr, err := address.New()
	if err != nil {
		return nil, err
	}
	c, err := coin.New(addr.Public.Apk, 0)
	if err != nil {
		return nil, err
	}
	return &Output{Coin: c, Recipient: addr.Public}, nil
}

// PourTransaction is the shielded spend published on the ledger.
type PourTransaction struct {
	Version    uint16
	Rt         [merkle.LeafBits / 8]byte
	Sn         [2][coin.SnSize]byte
	Cm         [2][coin.CmSize]byte
	VPublicIn  uint64
	VPublicOut uint64
	Mac        [2][coin.SnSize]byte
	Ct         [2][]byte
	Proof      []byte
}

// New constructs a pour transaction. spends and outputs must each have
// exactly two elements (use NewDummySpend/NewDummyOutput to pad). rt is
// the anchor root the spends' Merkle paths authenticate against, as a
// bit-sequence. pubkeyHash binds the pour to an enclosing signature key.
func New(
	version uint16,
	rt bitseq.Bits,
	spends [2]*Spend,
	outputs [2]*Output,
	vPubIn, vPubOut uint64,
	pubkeyHash []byte,
	backend statement.Backend,
) (*PourTransaction, error) {
	if len(rt) != merkle.LeafBits {
		return nil, zeropourerr.New(zeropourerr.KindInputShape, "pour.New", fmt.Errorf("rt must be %d bits", merkle.LeafBits))
	}

	tx := &PourTransaction{Version: version, VPublicIn: vPubIn, VPublicOut: vPubOut}
	copy(tx.Rt[:], rt.Bytes())

	hS := bitseq.SHA256(pubkeyHash)

	for j := 0; j < 2; j++ {
		sn, err := coin.SerialNumber(spends[j].Owner.Sk, spends[j].Coin.Rho)
		if err != nil {
			return nil, err
		}
		tx.Sn[j] = sn
		tx.Cm[j] = outputs[j].Coin.Cm

		mac, err := computeMac(spends[j].Owner.Sk, hS, j)
		if err != nil {
			return nil, err
		}
		tx.Mac[j] = mac

		plaintext := make([]byte, 0, PlaintextLen)
		plaintext = append(plaintext, bitseq.Uint64ToBytes(outputs[j].Coin.V)...)
		plaintext = append(plaintext, outputs[j].Coin.R[:]...)
		plaintext = append(plaintext, outputs[j].Coin.Rho[:]...)
		ct, err := backend.Encrypt(outputs[j].Recipient.EncPk, plaintext)
		if err != nil {
			return nil, zeropourerr.New(zeropourerr.KindCrypto, "pour.New: encrypt output", err)
		}
		tx.Ct[j] = ct
	}

	if version == VersionPlaceholder {
		tx.Proof = make([]byte, PlaceholderProofLen)
		return tx, nil
	}

	w, err := buildWitness(rt, spends, outputs, vPubIn, vPubOut, hS)
	if err != nil {
		return nil, err
	}
	proof, err := backend.Prove(w)
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindProof, "pour.New: prove", err)
	}
	tx.Proof = proof
	return tx, nil
}

func buildWitness(rt bitseq.Bits, spends [2]*Spend, outputs [2]*Output, vPubIn, vPubOut uint64, hS []byte) (statement.PourWitness, error) {
	var w statement.PourWitness
	w.Public.Rt = rt.Bytes()
	w.Public.VPubIn = vPubIn
	w.Public.VPubOut = vPubOut
	w.Public.HS = hS

	for j := 0; j < 2; j++ {
		s := spends[j]
		o := outputs[j]

		sn, err := coin.SerialNumber(s.Owner.Sk, s.Coin.Rho)
		if err != nil {
			return statement.PourWitness{}, err
		}
		w.Public.Sn[j] = sn[:]
		w.Public.CmNew[j] = o.Coin.Cm[:]

		mac, err := computeMac(s.Owner.Sk, hS, j)
		if err != nil {
			return statement.PourWitness{}, err
		}
		w.Public.Mac[j] = mac[:]

		w.SkOld[j] = s.Owner.Sk[:]
		w.RhoOld[j] = s.Coin.Rho[:]
		w.ROld[j] = s.Coin.R[:]
		w.VOld[j] = s.Coin.V

		if len(s.Siblings) != statement.TreeDepth {
			return statement.PourWitness{}, zeropourerr.New(zeropourerr.KindInputShape, "pour.buildWitness", fmt.Errorf("spend %d: expected %d siblings, got %d", j, statement.TreeDepth, len(s.Siblings)))
		}
		for d := 0; d < statement.TreeDepth; d++ {
			w.PathIndex[j][d] = (s.Index>>uint(d))&1 == 1
			w.PathSiblings[j][d] = s.Siblings[d].Bytes()
		}

		w.ApkNew[j] = o.Coin.Apk[:]
		w.RhoNew[j] = o.Coin.Rho[:]
		w.VNew[j] = o.Coin.V
		w.R[j] = o.Coin.R[:]
	}
	return w, nil
}

// Verify checks a pour transaction against pubkeyHash and returns a
// single boolean; no size mismatch or backend error ever escapes as a
// panic or an error return.
func (tx *PourTransaction) Verify(pubkeyHash []byte, backend statement.Backend) bool {
	if backend == nil {
		return false
	}
	for j := 0; j < 2; j++ {
		if len(tx.Ct[j]) != backend.CiphertextLength(PlaintextLen) {
			return false
		}
	}
	if tx.Version == VersionPlaceholder {
		return len(tx.Proof) == PlaceholderProofLen
	}

	hS := bitseq.SHA256(pubkeyHash)
	pub := statement.PublicInputs{
		Rt:      tx.Rt[:],
		Sn:      [2][]byte{tx.Sn[0][:], tx.Sn[1][:]},
		CmNew:   [2][]byte{tx.Cm[0][:], tx.Cm[1][:]},
		VPubIn:  tx.VPublicIn,
		VPubOut: tx.VPublicOut,
		HS:      hS,
		Mac:     [2][]byte{tx.Mac[0][:], tx.Mac[1][:]},
	}
	return backend.Verify(pub, tx.Proof)
}

// VerifyProduction is Verify but additionally rejects the version-0
// testing placeholder, as production deployments must.
func (tx *PourTransaction) VerifyProduction(pubkeyHash []byte, backend statement.Backend) bool {
	if tx.Version == VersionPlaceholder {
		return false
	}
	return tx.Verify(pubkeyHash, backend)
}

// RandomPubkeyHash draws a fresh 32-byte value standing in for the hash
// of an externally supplied signature verification key. This scheme
// does not implement or verify the enclosing transaction signature
// itself; the MAC only binds to whatever hash the caller supplies here.
func RandomPubkeyHash() ([32]byte, error) {
	var h [32]byte
	if _, err := rand.Read(h[:]); err != nil {
		return h, err
	}
	return h, nil
}
