package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	pub, priv, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	plaintext := []byte(`{"personality":"curious","version":1}`)

	bundle, err := Seal(plaintext, pub, nil)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bundle.Alg != Algorithm {
		t.Fatalf("unexpected algorithm id: %q", bundle.Alg)
	}
	if bundle.EncryptedKey == "" || bundle.Nonce == "" || bundle.Ciphertext == "" {
		t.Fatalf("incomplete bundle: %+v", bundle)
	}
	if bundle.AAD != "" {
		t.Fatalf("aad should be empty when none supplied, got %q", bundle.AAD)
	}

	opened, err := Open(bundle, pub, priv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", opened, plaintext)
	}
}

func TestSealOpenRoundTripWithAAD(t *testing.T) {
	pub, priv, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	plaintext := []byte("profile")
	aad := []byte("job-42")

	bundle, err := Seal(plaintext, pub, aad)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bundle.AAD == "" {
		t.Fatalf("expected aad to be carried in the bundle")
	}
	opened, err := Open(bundle, pub, priv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", opened, plaintext)
	}
}

func TestOpenWithWrongKeyFails(t *testing.T) {
	pub, _, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	otherPub, otherPriv, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate second keypair: %v", err)
	}

	bundle, err := Seal([]byte("secret"), pub, nil)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := Open(bundle, otherPub, otherPriv); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed with wrong keypair, got %v", err)
	}
}

func TestSealRejectsMalformedPublicKey(t *testing.T) {
	cases := map[string]string{
		"not base64":  "%%%not-base64%%%",
		"wrong size":  "c2hvcnQ=",
		"empty input": "",
	}
	for name, key := range cases {
		if _, err := Seal([]byte("x"), key, nil); !errors.Is(err, ErrBadPublicKey) {
			t.Fatalf("%s: expected ErrBadPublicKey, got %v", name, err)
		}
	}
}

func TestSealUsesFreshNoncePerCall(t *testing.T) {
	pub, _, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	first, err := Seal([]byte("x"), pub, nil)
	if err != nil {
		t.Fatalf("seal first: %v", err)
	}
	second, err := Seal([]byte("x"), pub, nil)
	if err != nil {
		t.Fatalf("seal second: %v", err)
	}
	if first.Nonce == second.Nonce {
		t.Fatalf("nonce reused across seals")
	}
	if first.EncryptedKey == second.EncryptedKey {
		t.Fatalf("data key reused across seals")
	}
}

func TestOpenDetectsTamperedCiphertext(t *testing.T) {
	pub, priv, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	bundle, err := Seal([]byte("secret"), pub, nil)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	tampered := bundle
	raw := []byte(tampered.Ciphertext)
	raw[0] ^= 0x01
	tampered.Ciphertext = string(raw)
	if _, err := Open(tampered, pub, priv); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed on tampered ciphertext, got %v", err)
	}
}
