// Package coin implements the value-bearing Coin object and its
// CoinCommitment, along with the serial-number (nullifier) function.
// Grounded on internal/zerocash/note.go and crypto.go's Commitment/prf,
// generalized to the address-package-aware construction this scheme
// specifies, computed with internal/circuithash so that a commitment or
// serial number published here is bit-for-bit the value the pour
// circuit recomputes over its witness.
package coin

import (
	"crypto/rand"

	"zeropour/internal/address"
	"zeropour/internal/bitseq"
	"zeropour/internal/circuithash"
	"zeropour/internal/zeropourerr"
)

// Byte sizes of coin fields (spec section 6). CmSize and SnSize are
// circuithash.Size: commitments and serial numbers are MiMC digests.
const (
	RhoSize = 32
	RSize   = 48
	VSize   = 8
	CmSize  = circuithash.Size
	SnSize  = circuithash.Size
)

// Coin is a value-bearing object owned by whoever holds the matching
// Address secret for Apk.
type Coin struct {
	Apk [address.PkSize]byte
	V   uint64
	Rho [RhoSize]byte
	R   [RSize]byte
	Cm  [CmSize]byte
}

// New draws rho and r uniformly and computes the coin's commitment.
func New(apk [address.PkSize]byte, v uint64) (*Coin, error) {
	c := &Coin{Apk: apk, V: v}
	if _, err := rand.Read(c.Rho[:]); err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "coin.New: rng rho", err)
	}
	if _, err := rand.Read(c.R[:]); err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "coin.New: rng r", err)
	}
	cm, err := Commitment(apk, c.Rho, v, c.R)
	if err != nil {
		return nil, err
	}
	c.Cm = cm
	return c, nil
}

// InnerCommitment computes k = MiMC(apk, rho), the "inner" commitment
// layer that hides apk and rho behind one opaque value, also revealed by
// a MintTransaction so a verifier can recompute cm without learning who
// received the coin.
func InnerCommitment(apk [address.PkSize]byte, rho [RhoSize]byte) ([CmSize]byte, error) {
	k, err := circuithash.Hash(apk[:], rho[:])
	if err != nil {
		return [CmSize]byte{}, zeropourerr.New(zeropourerr.KindCrypto, "coin.InnerCommitment", err)
	}
	return k, nil
}

// Commitment computes cm = MiMC(k, v, r) given the coin's public
// address, rho, value, and randomness. This is exactly the leaf value
// the pour circuit recomputes for a spent coin and the value it asserts
// a new coin's public commitment equals.
func Commitment(apk [address.PkSize]byte, rho [RhoSize]byte, v uint64, r [RSize]byte) ([CmSize]byte, error) {
	k, err := InnerCommitment(apk, rho)
	if err != nil {
		return [CmSize]byte{}, err
	}
	return CommitmentFromInner(k, v, r)
}

// CommitmentFromInner computes cm = MiMC(k, v, r) from an already-computed
// inner layer k, as MintTransaction verification does.
func CommitmentFromInner(k [CmSize]byte, v uint64, r [RSize]byte) ([CmSize]byte, error) {
	cm, err := circuithash.Hash(k[:], bitseq.Uint64ToBytes(v), r[:])
	if err != nil {
		return [CmSize]byte{}, zeropourerr.New(zeropourerr.KindCrypto, "coin.CommitmentFromInner", err)
	}
	return cm, nil
}

// SerialNumber computes sn = MiMC(a_sk, rho), the nullifier revealing
// that a coin owned by a_sk with nonce rho has been spent, without
// revealing which coin.
func SerialNumber(sk [address.SkSize]byte, rho [RhoSize]byte) ([SnSize]byte, error) {
	sn, err := circuithash.Hash(sk[:], rho[:])
	if err != nil {
		return [SnSize]byte{}, zeropourerr.New(zeropourerr.KindCrypto, "coin.SerialNumber", err)
	}
	return sn, nil
}
