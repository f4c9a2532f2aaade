package mint

import (
	"testing"

	"zeropour/internal/address"
	"zeropour/internal/coin"
)

func TestMintRoundTripVerifies(t *testing.T) {
	var apk [address.PkSize]byte
	apk[3] = 0x77
	c, err := coin.New(apk, 5)
	if err != nil {
		t.Fatal(err)
	}
	m, err := New(c)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Verify() {
		t.Fatal("expected mint transaction of an honestly-constructed coin to verify")
	}
}

func TestMintRejectsTamperedValue(t *testing.T) {
	var apk [address.PkSize]byte
	c, err := coin.New(apk, 5)
	if err != nil {
		t.Fatal(err)
	}
	m, err := New(c)
	if err != nil {
		t.Fatal(err)
	}
	m.VPublic = 6
	if m.Verify() {
		t.Fatal("expected verify to fail after tampering with the public value")
	}
}
