package near

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const ed25519Prefix = "ed25519:"

// KeyPair is an ed25519 signing key in NEAR encoding
type KeyPair struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

// ParseKeyPair accepts "ed25519:<base58>" holding either the 64-byte
// secret key (seed + public key) or a bare 32-byte seed
func ParseKeyPair(s string) (*KeyPair, error) {
	s = strings.TrimSpace(s)
	encoded, ok := strings.CutPrefix(s, ed25519Prefix)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported key type, expected %q prefix", ErrInvalidKey, ed25519Prefix)
	}

	raw := base58.Decode(encoded)
	switch len(raw) {
	case ed25519.PrivateKeySize:
		priv := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
		if !bytes.Equal(priv[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
			return nil, fmt.Errorf("%w: public half does not match seed", ErrInvalidKey)
		}
		return newKeyPair(priv), nil
	case ed25519.SeedSize:
		return newKeyPair(ed25519.NewKeyFromSeed(raw)), nil
	default:
		return nil, fmt.Errorf("%w: decoded %d bytes", ErrInvalidKey, len(raw))
	}
}

// KeyPairFromSeed builds a key pair from a 32-byte seed
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes", ErrInvalidKey, ed25519.SeedSize)
	}
	return newKeyPair(ed25519.NewKeyFromSeed(seed)), nil
}

func newKeyPair(priv ed25519.PrivateKey) *KeyPair {
	return &KeyPair{
		private: priv,
		public:  priv.Public().(ed25519.PublicKey),
	}
}

// PublicKey is the NEAR string form, "ed25519:<base58>"
func (k *KeyPair) PublicKey() string {
	return ed25519Prefix + base58.Encode(k.public)
}

// SecretKey is the NEAR string form of the 64-byte secret key
func (k *KeyPair) SecretKey() string {
	return ed25519Prefix + base58.Encode(k.private)
}

func (k *KeyPair) publicKeyBytes() [ed25519.PublicKeySize]byte {
	var out [ed25519.PublicKeySize]byte
	copy(out[:], k.public)
	return out
}

// Sign signs msg with the private key
func (k *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.private, msg)
}

// Verify checks sig against msg with the public key
func (k *KeyPair) Verify(msg, sig []byte) bool {
	return ed25519.Verify(k.public, msg, sig)
}
