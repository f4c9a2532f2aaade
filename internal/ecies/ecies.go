// Package ecies implements the elliptic-curve asymmetric encryption used
// to transmit coin secrets to a recipient. It is grounded on the
// teacher's own BLS12-377 Diffie-Hellman machinery
// (internal/zerocash/crypto.go's GenerateDHKeyPair/ComputeDHShared) but
// replaces the teacher's MiMC-hash-chain masking with an authenticated
// construction: an ECDH shared point over BLS12-377, hashed with SHA-256
// into an AES-256-GCM key. The MiMC-chain XOR mask the teacher uses is
// malleable and unauthenticated, which is unacceptable for opening a
// coin's value and randomness under adversarial ciphertext tampering.
package ecies

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"math/big"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	bls12377fr "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	"zeropour/internal/bitseq"
	"zeropour/internal/zeropourerr"
)

// PublicKey is a BLS12-377 G1 point used as an ECIES encryption key.
type PublicKey struct {
	Point bls12377.G1Affine
}

// PrivateKey is the matching scalar decryption key.
type PrivateKey struct {
	Scalar bls12377fr.Element
}

// Bytes serializes the public key in compressed form.
func (p PublicKey) Bytes() []byte {
	b := p.Point.Bytes()
	return b[:]
}

// Equal compares two public keys by their affine coordinates.
func (p PublicKey) Equal(o PublicKey) bool {
	return p.Point.Equal(&o.Point)
}

// GenerateKeyPair draws a fresh BLS12-377 scalar/point keypair, mirroring
// the teacher's GenerateDHKeyPair.
func GenerateKeyPair() (PrivateKey, PublicKey, error) {
	var sk bls12377fr.Element
	if _, err := sk.SetRandom(); err != nil {
		return PrivateKey{}, PublicKey{}, fmt.Errorf("ecies: keygen: %w", err)
	}
	g1, _, _, _ := bls12377.Generators()
	var pk bls12377.G1Affine
	pk.FromJacobian(&g1)
	pk.ScalarMultiplication(&pk, sk.BigInt(new(big.Int)))
	return PrivateKey{Scalar: sk}, PublicKey{Point: pk}, nil
}

// sharedKey derives the 32-byte AES-256 key from an ECDH shared point,
// the way the teacher's ComputeDHShared feeds a shared point into a
// symmetric-key derivation.
func sharedKey(sk PrivateKey, pk PublicKey) []byte {
	var shared bls12377.G1Affine
	shared.ScalarMultiplication(&pk.Point, sk.Scalar.BigInt(new(big.Int)))
	x := shared.X.Bytes()
	y := shared.Y.Bytes()
	return bitseq.SHA256(append(append([]byte{}, x[:]...), y[:]...))
}

// CiphertextLength reports the total length of what Encrypt produces for
// a plaintext of the given length: the compressed ephemeral public key,
// the AES-GCM nonce, the plaintext, and the AES-GCM tag.
func CiphertextLength(plaintextLen int) int {
	return ephemeralKeyLen + 12 + plaintextLen + 16
}

// Encrypt seals plaintext to recipientPk under a fresh ephemeral BLS12-377
// keypair, prepending the ephemeral public key so the recipient can
// recompute the shared secret without a prior handshake.
func Encrypt(recipientPk PublicKey, plaintext []byte) ([]byte, error) {
	ephSk, ephPk, err := GenerateKeyPair()
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "ecies.Encrypt: ephemeral keygen", err)
	}
	key := sharedKey(ephSk, recipientPk)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "ecies.Encrypt: aes", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "ecies.Encrypt: gcm", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "ecies.Encrypt: rng", err)
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	ephBytes := ephPk.Bytes()
	out := make([]byte, 0, len(ephBytes)+len(sealed))
	out = append(out, ephBytes[:]...)
	out = append(out, sealed...)
	return out, nil
}

// ephemeralKeyLen is the byte length of a compressed BLS12-377 G1 point,
// as produced by (bls12377.G1Affine).Bytes. Derived at package init from
// the zero point rather than a hardcoded constant, since it is a
// compile-time array length picked by gnark-crypto, not part of this
// package's own contract.
var ephemeralKeyLen = func() int {
	var zero bls12377.G1Affine
	return len(zero.Bytes())
}()

// Decrypt opens a ciphertext produced by Encrypt using the recipient's
// private key.
func Decrypt(sk PrivateKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < ephemeralKeyLen+12+16 {
		return nil, zeropourerr.New(zeropourerr.KindInputShape, "ecies.Decrypt", fmt.Errorf("ciphertext too short: %d bytes", len(ciphertext)))
	}
	ephBytes := ciphertext[:ephemeralKeyLen]
	var ephPk bls12377.G1Affine
	if _, err := ephPk.SetBytes(ephBytes); err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "ecies.Decrypt: parse ephemeral key", err)
	}
	key := sharedKey(sk, PublicKey{Point: ephPk})
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "ecies.Decrypt: aes", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "ecies.Decrypt: gcm", err)
	}
	rest := ciphertext[ephemeralKeyLen:]
	nonceSize := gcm.NonceSize()
	if len(rest) < nonceSize {
		return nil, zeropourerr.New(zeropourerr.KindInputShape, "ecies.Decrypt", fmt.Errorf("ciphertext missing nonce"))
	}
	nonce, sealed := rest[:nonceSize], rest[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, zeropourerr.New(zeropourerr.KindCrypto, "ecies.Decrypt: authentication failed", err)
	}
	return plaintext, nil
}
