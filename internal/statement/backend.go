package statement

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"zeropour/internal/ecies"
	"zeropour/internal/zeropourerr"
)

// Backend is the capability set the pour statement is proved and
// verified against: a Groth16/BW6-761 SNARK plus the ECIES primitive
// coin secrets travel under, bundled per the documented adapter contract
// (spec section 9's capability set groups both under one substitutable
// interface). Callers depend only on this interface, never on gnark's
// or gnark-crypto's concrete types, so an alternate proof system could
// be substituted without touching internal/pour.
type Backend interface {
	Prove(w PourWitness) ([]byte, error)
	Verify(pub PublicInputs, proof []byte) bool

	SerializeProvingKey() ([]byte, error)
	DeserializeProvingKey([]byte) error
	SerializeVerifyingKey() ([]byte, error)
	DeserializeVerifyingKey([]byte) error

	CiphertextLength(plaintextLen int) int
	Encrypt(pk ecies.PublicKey, plaintext []byte) ([]byte, error)
	LoadEncPK(b []byte) (ecies.PublicKey, error)
}

// PublicInputs mirrors PourCircuit's public fields, off-circuit.
type PublicInputs struct {
	Rt      []byte
	Sn      [2][]byte
	CmNew   [2][]byte
	VPubIn  uint64
	VPubOut uint64
	HS      []byte
	Mac     [2][]byte
}

// PourWitness mirrors PourCircuit's full field set, public and private.
// PathIndex[j][d] is true when the sibling at depth d sits on the left
// (i.e. the current node is the right child); PathSiblings is ordered
// leaf-to-root, matching internal/merkle.Tree.GetWitness.
type PourWitness struct {
	Public PublicInputs

	SkOld        [2][]byte
	RhoOld       [2][]byte
	ROld         [2][]byte
	VOld         [2]uint64
	PathIndex    [2][TreeDepth]bool
	PathSiblings [2][TreeDepth][]byte

	ApkNew [2][]byte
	RhoNew [2][]byte
	VNew   [2]uint64
	R      [2][]byte
}

// Groth16Backend implements Backend with gnark's Groth16 prover over
// BW6-761, matching the pairing curve pair (BLS12-377 embedded in
// BW6-761) the teacher's own circuit uses for its EC group operations.
type Groth16Backend struct {
	pk groth16.ProvingKey
	vk groth16.VerifyingKey
}

// NewGroth16Backend returns a backend with no keys loaded; call Setup
// (which compiles the pour circuit) or the Deserialize methods before use.
func NewGroth16Backend() (*Groth16Backend, error) {
	return &Groth16Backend{}, nil
}

func compile() (constraint.ConstraintSystem, error) {
	var circuit PourCircuit
	return frontend.Compile(ecc.BW6_761.ScalarField(), r1cs.NewBuilder, &circuit)
}

// Setup runs the Groth16 trusted setup for the pour circuit.
func (b *Groth16Backend) Setup() error {
	ccs, err := compile()
	if err != nil {
		return zeropourerr.New(zeropourerr.KindCrypto, "statement.Setup: compile", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return zeropourerr.New(zeropourerr.KindCrypto, "statement.Setup: groth16.Setup", err)
	}
	b.pk, b.vk = pk, vk
	return nil
}

func toWitnessAssignment(w PourWitness) *PourCircuit {
	toVar := func(b []byte) frontend.Variable { return new(big.Int).SetBytes(b) }
	c := &PourCircuit{
		Rt:      toVar(w.Public.Rt),
		VPubIn:  new(big.Int).SetUint64(w.Public.VPubIn),
		VPubOut: new(big.Int).SetUint64(w.Public.VPubOut),
		HS:      toVar(w.Public.HS),
	}
	for j := 0; j < 2; j++ {
		c.Sn[j] = toVar(w.Public.Sn[j])
		c.CmNew[j] = toVar(w.Public.CmNew[j])
		c.VOld[j] = new(big.Int).SetUint64(w.VOld[j])
		c.VNew[j] = new(big.Int).SetUint64(w.VNew[j])
		c.Mac[j] = toVar(w.Public.Mac[j])
		c.SkOld[j] = toVar(w.SkOld[j])
		c.RhoOld[j] = toVar(w.RhoOld[j])
		c.ROld[j] = toVar(w.ROld[j])
		c.ApkNew[j] = toVar(w.ApkNew[j])
		c.RhoNew[j] = toVar(w.RhoNew[j])
		c.R[j] = toVar(w.R[j])
		for d := 0; d < TreeDepth; d++ {
			bitVal := 0
			if w.PathIndex[j][d] {
				bitVal = 1
			}
			c.PathIndex[j][d] = bitVal
			c.PathSiblings[j][d] = toVar(w.PathSiblings[j][d])
		}
	}
	return c
}

// Prove produces a Groth16 proof for the given witness.
func (b *Groth16Backend) Prove(w PourWitness) ([]byte, error) {
	if b.pk == nil {
		return nil, zeropourerr.New(zeropourerr.KindProof, "statement.Prove", fmt.Errorf("no proving key loaded"))
	}
	ccs, err := compile()
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindProof, "statement.Prove: compile", err)
	}
	assignment := toWitnessAssignment(w)
	fullWitness, err := frontend.NewWitness(assignment, ecc.BW6_761.ScalarField())
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindProof, "statement.Prove: witness", err)
	}
	proof, err := groth16.Prove(ccs, b.pk, fullWitness)
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindProof, "statement.Prove: groth16.Prove", err)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, zeropourerr.New(zeropourerr.KindProof, "statement.Prove: serialize proof", err)
	}
	return buf.Bytes(), nil
}

// Verify checks a Groth16 proof against public inputs only.
func (b *Groth16Backend) Verify(pub PublicInputs, proofBytes []byte) bool {
	if b.vk == nil {
		return false
	}
	proof := groth16.NewProof(ecc.BW6_761)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return false
	}
	assignment := toWitnessAssignment(PourWitness{Public: pub})
	pubWitness, err := frontend.NewWitness(assignment, ecc.BW6_761.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false
	}
	return groth16.Verify(proof, b.vk, pubWitness) == nil
}

// SerializeProvingKey delegates to gnark's canonical encoding.
func (b *Groth16Backend) SerializeProvingKey() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := b.pk.WriteTo(&buf); err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "statement.SerializeProvingKey", err)
	}
	return buf.Bytes(), nil
}

// DeserializeProvingKey loads a proving key from gnark's canonical encoding.
func (b *Groth16Backend) DeserializeProvingKey(data []byte) error {
	pk := groth16.NewProvingKey(ecc.BW6_761)
	if _, err := pk.ReadFrom(bytes.NewReader(data)); err != nil {
		return zeropourerr.New(zeropourerr.KindCrypto, "statement.DeserializeProvingKey", err)
	}
	b.pk = pk
	return nil
}

// SerializeVerifyingKey delegates to gnark's canonical encoding.
func (b *Groth16Backend) SerializeVerifyingKey() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := b.vk.WriteTo(&buf); err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "statement.SerializeVerifyingKey", err)
	}
	return buf.Bytes(), nil
}

// DeserializeVerifyingKey loads a verifying key from gnark's canonical encoding.
func (b *Groth16Backend) DeserializeVerifyingKey(data []byte) error {
	vk := groth16.NewVerifyingKey(ecc.BW6_761)
	if _, err := vk.ReadFrom(bytes.NewReader(data)); err != nil {
		return zeropourerr.New(zeropourerr.KindCrypto, "statement.DeserializeVerifyingKey", err)
	}
	b.vk = vk
	return nil
}

// CiphertextLength, Encrypt, and LoadEncPK complete the adapter's
// bundled ECIES capability by delegating to internal/ecies.
func (b *Groth16Backend) CiphertextLength(plaintextLen int) int {
	return ecies.CiphertextLength(plaintextLen)
}

func (b *Groth16Backend) Encrypt(pk ecies.PublicKey, plaintext []byte) ([]byte, error) {
	return ecies.Encrypt(pk, plaintext)
}

func (b *Groth16Backend) LoadEncPK(data []byte) (ecies.PublicKey, error) {
	var p bls12377.G1Affine
	if _, err := p.SetBytes(data); err != nil {
		return ecies.PublicKey{}, zeropourerr.New(zeropourerr.KindCrypto, "statement.LoadEncPK", err)
	}
	return ecies.PublicKey{Point: p}, nil
}
