package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/nacl/box"
)

// Algorithm identifies the envelope scheme. Clients check it before
// attempting to decrypt.
const Algorithm = "sealedbox(X25519)+XChaCha20-Poly1305"

const bundleVersion = "1"

var (
	// ErrBadPublicKey indicates the recipient key is not a valid base64
	// X25519 public key.
	ErrBadPublicKey = errors.New("bad recipient public key")
	// ErrDecryptFailed indicates the bundle could not be opened with the
	// supplied keypair.
	ErrDecryptFailed = errors.New("decrypt failed")
)

// Bundle is the encrypted envelope returned to the client. Field names and
// base64 encoding match the browser keypair tooling.
type Bundle struct {
	Alg          string `json:"alg"`
	EncryptedKey string `json:"ek"`
	Nonce        string `json:"nonce"`
	Ciphertext   string `json:"ct"`
	AAD          string `json:"aad,omitempty"`
	Version      string `json:"ver"`
}

// Seal envelope-encrypts plaintext for the holder of recipientPublicKey
// (base64-encoded 32-byte X25519 key): a fresh data key encrypts the
// plaintext with XChaCha20-Poly1305 under a fresh nonce, then the data key is
// sealed anonymously to the recipient. Neither the data key nor the plaintext
// is retained after the call returns.
func Seal(plaintext []byte, recipientPublicKey string, aad []byte) (Bundle, error) {
	pk, err := decodeKey(recipientPublicKey)
	if err != nil {
		return Bundle{}, err
	}

	dek := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(dek); err != nil {
		return Bundle{}, fmt.Errorf("generate data key: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return Bundle{}, fmt.Errorf("generate nonce: %w", err)
	}

	aead, err := chacha20poly1305.NewX(dek)
	if err != nil {
		return Bundle{}, fmt.Errorf("init aead: %w", err)
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, aad)

	sealedKey, err := box.SealAnonymous(nil, dek, pk, rand.Reader)
	if err != nil {
		return Bundle{}, fmt.Errorf("seal data key: %w", err)
	}

	bundle := Bundle{
		Alg:          Algorithm,
		EncryptedKey: b64(sealedKey),
		Nonce:        b64(nonce),
		Ciphertext:   b64(ciphertext),
		Version:      bundleVersion,
	}
	if len(aad) > 0 {
		bundle.AAD = b64(aad)
	}
	return bundle, nil
}

// Open reverses Seal given the recipient keypair. The server never calls this
// in production; it exists for key holders and tests.
func Open(bundle Bundle, publicKey, privateKey string) ([]byte, error) {
	pk, err := decodeKey(publicKey)
	if err != nil {
		return nil, err
	}
	skRaw, err := base64.StdEncoding.DecodeString(privateKey)
	if err != nil || len(skRaw) != 32 {
		return nil, fmt.Errorf("%w: bad private key", ErrDecryptFailed)
	}
	var sk [32]byte
	copy(sk[:], skRaw)

	sealedKey, err := base64.StdEncoding.DecodeString(bundle.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: bad sealed key encoding", ErrDecryptFailed)
	}
	dek, ok := box.OpenAnonymous(nil, sealedKey, pk, &sk)
	if !ok {
		return nil, fmt.Errorf("%w: sealed key", ErrDecryptFailed)
	}

	nonce, err := base64.StdEncoding.DecodeString(bundle.Nonce)
	if err != nil || len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: bad nonce", ErrDecryptFailed)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(bundle.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext encoding", ErrDecryptFailed)
	}
	var aad []byte
	if bundle.AAD != "" {
		aad, err = base64.StdEncoding.DecodeString(bundle.AAD)
		if err != nil {
			return nil, fmt.Errorf("%w: bad aad encoding", ErrDecryptFailed)
		}
	}

	aead, err := chacha20poly1305.NewX(dek)
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return plaintext, nil
}

// GenerateKeypair returns a fresh base64 X25519 keypair suitable for
// Seal/Open.
func GenerateKeypair() (publicKey, privateKey string, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate keypair: %w", err)
	}
	return b64(pub[:]), b64(priv[:]), nil
}

func decodeKey(raw string) (*[32]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPublicKey, err)
	}
	if len(decoded) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes, want 32", ErrBadPublicKey, len(decoded))
	}
	var key [32]byte
	copy(key[:], decoded)
	return &key, nil
}

func b64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
