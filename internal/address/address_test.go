package address

import "testing"

func TestDeriveApkDeterministic(t *testing.T) {
	var sk [SkSize]byte
	for i := range sk {
		sk[i] = byte(i)
	}
	a, err := DeriveApk(sk)
	if err != nil {
		t.Fatal(err)
	}
	b, err := DeriveApk(sk)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("a_pk derivation is not deterministic")
	}
}

func TestNewAddressDistinct(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatal(err)
	}
	b, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if a.Sk == b.Sk {
		t.Fatal("two freshly generated addresses must not share a_sk")
	}
	if a.Public.Apk == b.Public.Apk {
		t.Fatal("two freshly generated addresses must not share a_pk")
	}
	wantApk, err := DeriveApk(a.Sk)
	if err != nil {
		t.Fatal(err)
	}
	if wantApk != a.Public.Apk {
		t.Fatal("New must derive a_pk from a_sk consistently")
	}
}

func TestPublicAddressEqual(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if !a.Public.Equal(a.Public) {
		t.Fatal("a public address must equal itself")
	}
	b, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if a.Public.Equal(b.Public) {
		t.Fatal("distinct public addresses must not compare equal")
	}
}
