// Package mint implements MintTransaction: the public-to-shielded move
// that reveals a coin's value and opens its inner commitment layer while
// keeping the recipient address hidden behind that layer. Grounded on
// the commitment-opening pattern in internal/zerocash/note.go and
// crypto.go's Commitment, restated in terms of the coin package's
// MiMC-based construction.
package mint

import (
	"zeropour/internal/coin"
)

// MintTransaction publicly reveals a coin's value alongside enough of
// its commitment opening to let anyone recompute cm, without revealing
// the recipient's address.
type MintTransaction struct {
	Cm      [coin.CmSize]byte
	VPublic uint64
	K       [coin.CmSize]byte
	S       [coin.RSize]byte
}

// New builds a MintTransaction from a coin, revealing its value, inner
// commitment layer k, and randomness s.
func New(c *coin.Coin) (*MintTransaction, error) {
	k, err := coin.InnerCommitment(c.Apk, c.Rho)
	if err != nil {
		return nil, err
	}
	return &MintTransaction{
		Cm:      c.Cm,
		VPublic: c.V,
		K:       k,
		S:       c.R,
	}, nil
}

// Verify recomputes cm' = MiMC(k, v_public, s) and checks it against the
// published commitment.
func (m *MintTransaction) Verify() bool {
	cmPrime, err := coin.CommitmentFromInner(m.K, m.VPublic, m.S)
	if err != nil {
		return false
	}
	return cmPrime == m.Cm
}
