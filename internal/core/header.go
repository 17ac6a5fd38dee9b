package core

import (
	"empower1.com/empower1blockchain/internal/codec"
	"empower1.com/empower1blockchain/internal/crypto"
)

// HeaderCore is the hash pre-image: every field a Header commits to, in
// the declared order that §6 of the wire format fixes as normative.
type HeaderCore struct {
	Nonce             Nonce
	Difficulty        Difficulty
	PreviousBlockHash crypto.Hash
	Height            uint32
	BodyHash          crypto.Hash
}

// Encode appends HeaderCore's wire representation: nonce(8 BE) ||
// difficulty(32) || previous_block_hash(32) || height(4 BE) || body_hash(32).
func (hc HeaderCore) Encode(w *codec.Writer) {
	hc.Nonce.Encode(w)
	w.Bytes(hc.Difficulty.Threshold().Bytes())
	w.Bytes(hc.PreviousBlockHash.Bytes())
	w.Uint32(hc.Height)
	w.Bytes(hc.BodyHash.Bytes())
}

// Bytes returns the serialized form hashed to produce a header's cached hash.
func (hc HeaderCore) Bytes() []byte {
	w := codec.NewWriter()
	hc.Encode(w)
	return w.Out()
}

// DecodeHeaderCore reads a HeaderCore previously written by Encode.
func DecodeHeaderCore(r *codec.Reader) HeaderCore {
	nonce := DecodeNonce(r)
	thresholdBytes := r.Bytes(crypto.HashSize)
	var threshold crypto.Hash
	copy(threshold[:], thresholdBytes)
	prevBytes := r.Bytes(crypto.HashSize)
	var prev crypto.Hash
	copy(prev[:], prevBytes)
	height := r.Uint32()
	bodyHashBytes := r.Bytes(crypto.HashSize)
	var bodyHash crypto.Hash
	copy(bodyHash[:], bodyHashBytes)
	return HeaderCore{
		Nonce:             nonce,
		Difficulty:        DifficultyFromThreshold(threshold),
		PreviousBlockHash: prev,
		Height:            height,
		BodyHash:          bodyHash,
	}
}

// Header pairs a HeaderCore with its cached hash. The cached hash is
// computed once, at construction, and is never recomputed implicitly;
// Validate is the only place that checks it still matches.
type Header struct {
	Core HeaderCore
	Hash crypto.Hash
}

// NewHeader computes core's hash and wraps it into a Header. Construction
// never fails: whether the resulting hash satisfies core.Difficulty is a
// question for Validate, not for the caller building a candidate header.
func NewHeader(core HeaderCore) Header {
	return Header{Core: core, Hash: crypto.Sum256(core.Bytes())}
}

// Validate recomputes the header's hash from its HeaderCore and checks it
// against the cached value, then checks the cached hash against the
// core's own difficulty threshold.
func (h Header) Validate() error {
	recomputed := crypto.Sum256(h.Core.Bytes())
	if !recomputed.Equal(h.Hash) {
		return ErrInvalidHeaderHash
	}
	if !h.Core.Difficulty.Satisfies(h.Hash) {
		return ErrHashIsTooHigh
	}
	return nil
}
