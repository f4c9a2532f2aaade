package coin

import (
	"testing"

	"zeropour/internal/address"
)

func TestCommitmentDeterministic(t *testing.T) {
	var apk [address.PkSize]byte
	for i := range apk {
		apk[i] = byte(i)
	}
	var rho [RhoSize]byte
	for i := range rho {
		rho[i] = byte(2 * i)
	}
	var r [RSize]byte
	a, err := Commitment(apk, rho, 42, r)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Commitment(apk, rho, 42, r)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("commitment is not deterministic in (apk, rho, v, r)")
	}
}

func TestCommitmentChangesWithValue(t *testing.T) {
	var apk [address.PkSize]byte
	var rho [RhoSize]byte
	var r [RSize]byte
	a, _ := Commitment(apk, rho, 1, r)
	b, _ := Commitment(apk, rho, 2, r)
	if a == b {
		t.Fatal("commitment must depend on value")
	}
}

func TestCommitmentChangesWithR(t *testing.T) {
	var apk [address.PkSize]byte
	var rho [RhoSize]byte
	var r0, r1 [RSize]byte
	r1[0] = 0x01
	a, _ := Commitment(apk, rho, 1, r0)
	b, _ := Commitment(apk, rho, 1, r1)
	if a == b {
		t.Fatal("commitment must depend on r")
	}
}

func TestNewCoinCommitmentMatchesFields(t *testing.T) {
	var apk [address.PkSize]byte
	apk[0] = 0xaa
	c, err := New(apk, 7)
	if err != nil {
		t.Fatal(err)
	}
	want, err := Commitment(c.Apk, c.Rho, c.V, c.R)
	if err != nil {
		t.Fatal(err)
	}
	if want != c.Cm {
		t.Fatal("coin commitment inconsistent with its own fields")
	}
}

func TestSerialNumberDeterministic(t *testing.T) {
	var sk [address.SkSize]byte
	var rho [RhoSize]byte
	sk[0], rho[0] = 1, 2
	a, err := SerialNumber(sk, rho)
	if err != nil {
		t.Fatal(err)
	}
	b, err := SerialNumber(sk, rho)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("serial number is not deterministic")
	}
}

func TestSerialNumberDiffersFromCommitment(t *testing.T) {
	var sk [address.SkSize]byte
	var rho [RhoSize]byte
	sn, _ := SerialNumber(sk, rho)
	var apk [address.PkSize]byte
	var r [RSize]byte
	cm, _ := Commitment(apk, rho, 0, r)
	if sn == cm {
		t.Fatal("domain separation failed: sn and cm collide")
	}
}
