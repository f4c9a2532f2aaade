// Package statement adapts the pour relation to a zk-SNARK backend
// (Groth16 over BW6-761, via gnark), behind the Backend capability set:
// Prove, Verify, key (de)serialization, and the bundled ECIES methods;
// Groth16Backend adds Setup.
// The circuit shape is grounded on the teacher's CircuitTx
// (internal/zerocash/circuit.go) and its two-input/two-output sibling
// in the retrieval pack (zerocash_gnark.go's CircuitTxMulti), generalized
// from one to two spends and extended with a Merkle-membership check for
// each spent coin.
//
// Every value this circuit asserts equality against a public input --
// a_pk, a serial number, a commitment, a MAC, a Merkle node -- is a
// gnark std/hash/mimc digest, and every one of those values is computed
// off-circuit the identical way, with internal/circuithash's native MiMC
// over the same BW6-761 scalar field: the digest a prover publishes on
// the wire is bit-for-bit the digest this circuit recomputes from the
// witness, exactly as the teacher's own circuit keeps its in-circuit and
// off-circuit hashing aligned.
package statement

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// TreeDepth is the compile-time depth of the Merkle membership check
// this circuit performs. A deployment running a commitment tree of a
// different depth (internal/merkle.Tree supports up to 64) would need a
// circuit compiled for that depth; this fixed constant is a
// demonstration-scope simplification, documented in DESIGN.md.
const TreeDepth = 8

// PourCircuit is the two-input/two-output pour relation: given secret
// openings of two old coins and their Merkle authentication paths
// against the public anchor, and secret openings of two new coins, the
// serial numbers, commitments, and MACs published on the ledger were
// derived correctly and value is conserved. This is exactly the public
// input set spec section 4.6.1 lists: rt, sn_1, sn_2, cm_1, cm_2,
// v_pub_in, v_pub_out, h_S, mac_1, mac_2.
type PourCircuit struct {
	Rt      frontend.Variable    `gnark:",public"`
	Sn      [2]frontend.Variable `gnark:",public"`
	CmNew   [2]frontend.Variable `gnark:",public"`
	VPubIn  frontend.Variable    `gnark:",public"`
	VPubOut frontend.Variable    `gnark:",public"`
	HS      frontend.Variable    `gnark:",public"`
	Mac     [2]frontend.Variable `gnark:",public"`

	// Private witness: old coin openings and their tree membership.
	SkOld        [2]frontend.Variable
	RhoOld       [2]frontend.Variable
	ROld         [2]frontend.Variable
	VOld         [2]frontend.Variable
	PathIndex    [2][TreeDepth]frontend.Variable
	PathSiblings [2][TreeDepth]frontend.Variable

	// Private witness: new coin openings.
	ApkNew [2]frontend.Variable
	RhoNew [2]frontend.Variable
	VNew   [2]frontend.Variable
	R      [2]frontend.Variable
}

// Define encodes the pour relation. For each of the two spend slots it
// checks, in order: the serial number, the old coin's a_pk and
// commitment, that commitment's Merkle membership, the new coin's
// commitment, and the MAC; value conservation is checked last.
func (c *PourCircuit) Define(api frontend.API) error {
	for j := 0; j < 2; j++ {
		hasher, err := mimc.NewMiMC(api)
		if err != nil {
			return err
		}

		hasher.Write(c.SkOld[j])
		hasher.Write(c.RhoOld[j])
		snComputed := hasher.Sum()
		api.AssertIsEqual(c.Sn[j], snComputed)

		hasher.Reset()
		hasher.Write(c.SkOld[j])
		apkOldComputed := hasher.Sum()

		hasher.Reset()
		hasher.Write(apkOldComputed)
		hasher.Write(c.RhoOld[j])
		kOld := hasher.Sum()

		hasher.Reset()
		hasher.Write(kOld)
		hasher.Write(c.VOld[j])
		hasher.Write(c.ROld[j])
		leaf := hasher.Sum()

		cur := leaf
		for d := 0; d < TreeDepth; d++ {
			bit := c.PathIndex[j][d]
			api.AssertIsBoolean(bit)
			sib := c.PathSiblings[j][d]
			left := api.Select(bit, sib, cur)
			right := api.Select(bit, cur, sib)
			hasher.Reset()
			hasher.Write(left)
			hasher.Write(right)
			cur = hasher.Sum()
		}
		api.AssertIsEqual(cur, c.Rt)

		hasher.Reset()
		hasher.Write(c.ApkNew[j])
		hasher.Write(c.RhoNew[j])
		kNew := hasher.Sum()

		hasher.Reset()
		hasher.Write(kNew)
		hasher.Write(c.VNew[j])
		hasher.Write(c.R[j])
		cmComputed := hasher.Sum()
		api.AssertIsEqual(c.CmNew[j], cmComputed)

		hasher.Reset()
		hasher.Write(c.SkOld[j])
		hasher.Write(c.HS)
		hasher.Write(frontend.Variable(j))
		macComputed := hasher.Sum()
		api.AssertIsEqual(c.Mac[j], macComputed)
	}

	// Range-constrain every value to 64 bits before summing: BW6-761's
	// scalar field is far wider than 64 bits, so an unconstrained field
	// equality here would let a prover balance the sum with a
	// field-wrapped value (e.g. VNew[0] = p-1000, VNew[1] = 1004) while
	// publishing a commitment that opens to a value nothing on the input
	// side actually held.
	api.ToBinary(c.VOld[0], 64)
	api.ToBinary(c.VOld[1], 64)
	api.ToBinary(c.VNew[0], 64)
	api.ToBinary(c.VNew[1], 64)
	api.ToBinary(c.VPubIn, 64)
	api.ToBinary(c.VPubOut, 64)

	lhs := api.Add(c.VOld[0], c.VOld[1], c.VPubIn)
	rhs := api.Add(c.VNew[0], c.VNew[1], c.VPubOut)
	api.AssertIsEqual(lhs, rhs)

	return nil
}
