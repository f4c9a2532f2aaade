// Package address implements the spending-address data model: the secret
// Address a payer holds and the PublicAddress a payer publishes so others
// can send coins to them. Grounded on internal/zerocash's key handling in
// the teacher repository, adapted to the address-package-aware
// commitment construction this scheme requires. a_pk is derived with
// internal/circuithash's MiMC compression function: a_pk is recomputed
// inside the pour circuit from a spent coin's secret key, so its
// off-circuit derivation must use the same hash the circuit does.
package address

import (
	"crypto/rand"

	"zeropour/internal/circuithash"
	"zeropour/internal/ecies"
	"zeropour/internal/zeropourerr"
)

// SkSize is the byte size of a_sk (spec section 6). PkSize is
// circuithash.Size: a_pk is a MiMC digest.
const (
	SkSize = 32
	PkSize = circuithash.Size
)

// PublicAddress is the recipient-facing half of an Address: the hash
// commitment to the spending secret, plus an encryption public key so
// senders can seal coin secrets to this recipient.
type PublicAddress struct {
	Apk   [PkSize]byte
	EncPk ecies.PublicKey
}

// Equal reports field-wise equality.
func (p PublicAddress) Equal(o PublicAddress) bool {
	return p.Apk == o.Apk && p.EncPk.Equal(o.EncPk)
}

// Bytes concatenates the fixed-width fields of a PublicAddress.
func (p PublicAddress) Bytes() []byte {
	return append(append([]byte{}, p.Apk[:]...), p.EncPk.Bytes()...)
}

// Address is the full spending keypair: a secret a_sk, its derived public
// address, and the matching ECIES decryption key.
type Address struct {
	Sk     [SkSize]byte
	Public PublicAddress
	DecKey ecies.PrivateKey
}

// New draws a fresh Address: a_sk uniformly at random, an ECIES keypair,
// and derives a_pk via DeriveApk.
func New() (*Address, error) {
	var sk [SkSize]byte
	if _, err := rand.Read(sk[:]); err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "address.New: rng", err)
	}
	dec, enc, err := ecies.GenerateKeyPair()
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "address.New: ecies keygen", err)
	}
	apk, err := DeriveApk(sk)
	if err != nil {
		return nil, err
	}
	return &Address{
		Sk: sk,
		Public: PublicAddress{
			Apk:   apk,
			EncPk: enc,
		},
		DecKey: dec,
	}, nil
}

// DeriveApk computes a_pk = MiMC(a_sk), the same single-round
// compression the pour circuit performs on a spent coin's secret key
// when it recomputes that coin's owning address.
func DeriveApk(sk [SkSize]byte) ([PkSize]byte, error) {
	apk, err := circuithash.Hash(sk[:])
	if err != nil {
		return [PkSize]byte{}, zeropourerr.New(zeropourerr.KindCrypto, "address.DeriveApk", err)
	}
	return apk, nil
}
