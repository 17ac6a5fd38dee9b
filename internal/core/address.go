package core

import "empower1.com/empower1blockchain/internal/crypto"

// Address identifies a payment recipient. It wraps the 32-byte hash of a
// public key and participates in equality, hashing, and serialization as
// that raw value.
type Address struct {
	hash crypto.Hash
}

// AddressFromPubKey derives the address that owns pub: SHA-256(pub_key_bytes).
func AddressFromPubKey(pub crypto.PubKey) Address {
	return Address{hash: crypto.Sum256(pub.Bytes())}
}

// AddressFromHash wraps an already-computed hash as an address, e.g. when
// decoding one off the wire.
func AddressFromHash(h crypto.Hash) Address {
	return Address{hash: h}
}

// Hash returns the address's underlying 32-byte value.
func (a Address) Hash() crypto.Hash {
	return a.hash
}

// Bytes returns the address's 32-byte wire representation.
func (a Address) Bytes() []byte {
	return a.hash.Bytes()
}

// Equal reports whether two addresses reference the same hash.
func (a Address) Equal(other Address) bool {
	return a.hash.Equal(other.hash)
}

func (a Address) String() string {
	return a.hash.String()
}
