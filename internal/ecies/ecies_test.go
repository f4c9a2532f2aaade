package ecies

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	plaintext := bytes.Repeat([]byte{0x5a}, 88)
	ct, err := Encrypt(pk, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decrypt(sk, ct)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("decrypted plaintext does not match original")
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	sk, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	ct, err := Encrypt(pk, []byte("secret coin opening"))
	if err != nil {
		t.Fatal(err)
	}
	ct[len(ct)-1] ^= 0xff
	if _, err := Decrypt(sk, ct); err == nil {
		t.Fatal("expected authentication failure on tampered ciphertext")
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	_, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	otherSk, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	ct, err := Encrypt(pk, []byte("secret coin opening"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decrypt(otherSk, ct); err == nil {
		t.Fatal("expected decryption under the wrong key to fail")
	}
}

func TestCiphertextLength(t *testing.T) {
	_, pk, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	plaintext := make([]byte, 88)
	ct, err := Encrypt(pk, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if len(ct) != CiphertextLength(88) {
		t.Fatalf("unexpected ciphertext length: got %d", len(ct))
	}
}
