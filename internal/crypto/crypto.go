// Package crypto provides the hashing and Ed25519 signature primitives used
// throughout the EmPower1 PoW chain: SHA-256 hashing for block and
// transaction digests, and Ed25519 key generation, signing, and
// verification for transaction inputs.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
)

// Errors returned by this package. Every failure mode funnels through one of
// these sentinels so callers can recover with errors.Is rather than string
// matching.
var (
	ErrKeyGeneration  = errors.New("crypto: key generation failed")
	ErrInvalidPubKey  = errors.New("crypto: invalid public key length")
	ErrInvalidSigLen  = errors.New("crypto: invalid signature length")
	ErrBadSignature   = errors.New("crypto: signature verification failed")
)

const (
	// HashSize is the length in bytes of a Hash (SHA-256 digest).
	HashSize = sha256.Size
	// PubKeySize is the length in bytes of an Ed25519 public key.
	PubKeySize = ed25519.PublicKeySize
	// SignatureSize is the length in bytes of an Ed25519 signature.
	SignatureSize = ed25519.SignatureSize
)

// Hash is a 32-byte SHA-256 digest. The zero value is the sentinel "zero
// hash" used as the genesis block's previous-block-hash.
type Hash [HashSize]byte

// ZeroHash is the all-zero sentinel hash.
var ZeroHash Hash

// Bytes returns the hash's big-endian byte representation.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Equal reports whether two hashes are byte-identical.
func (h Hash) Equal(other Hash) bool {
	return h == other
}

// Less reports whether h is strictly less than other when compared
// byte-wise, most significant byte first (big-endian). This is the
// comparison used to test a candidate block hash against a Difficulty
// threshold; implementations must never reinterpret the bytes as a native
// integer, since that silently reorders them on little-endian hosts.
func (h Hash) Less(other Hash) bool {
	for i := 0; i < HashSize; i++ {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

func (h Hash) String() string {
	return fmt.Sprintf("%x", h[:])
}

// Sum256 computes the SHA-256 hash of data.
func Sum256(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// PubKey is a 32-byte Ed25519 public key.
type PubKey [PubKeySize]byte

func (p PubKey) Bytes() []byte { return p[:] }

func (p PubKey) String() string { return fmt.Sprintf("%x", p[:]) }

// Signature is a 64-byte Ed25519 signature.
type Signature [SignatureSize]byte

func (s Signature) Bytes() []byte { return s[:] }

// KeyPair is an opaque holder of an Ed25519 signing key.
type KeyPair struct {
	priv ed25519.PrivateKey
	pub  PubKey
}

// RandomKeyPair generates a new Ed25519 key pair using a cryptographically
// strong source of randomness.
func RandomKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	var pk PubKey
	copy(pk[:], pub)
	return KeyPair{priv: priv, pub: pk}, nil
}

// PubKey returns the public half of the key pair.
func (kp KeyPair) PubKey() PubKey {
	return kp.pub
}

// Sign produces a deterministic Ed25519 signature over msg.
func (kp KeyPair) Sign(msg []byte) Signature {
	raw := ed25519.Sign(kp.priv, msg)
	var sig Signature
	copy(sig[:], raw)
	return sig
}

// Verify checks that sig is a valid Ed25519 signature over msg under pub.
// It returns ErrBadSignature when verification does not succeed.
func Verify(pub PubKey, msg []byte, sig Signature) error {
	if !ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig[:]) {
		return ErrBadSignature
	}
	return nil
}
