package core

import "empower1.com/empower1blockchain/internal/codec"

// Nonce is the 64-bit counter varied during mining in search of a header
// hash that satisfies the current Difficulty.
type Nonce uint64

// Increment advances the counter by one.
func (n *Nonce) Increment() {
	*n++
}

// Encode writes the nonce as an 8-byte big-endian integer.
func (n Nonce) Encode(w *codec.Writer) {
	w.Uint64(uint64(n))
}

// DecodeNonce reads a Nonce previously written by Encode.
func DecodeNonce(r *codec.Reader) Nonce {
	return Nonce(r.Uint64())
}
