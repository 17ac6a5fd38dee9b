package core

import "empower1.com/empower1blockchain/internal/crypto"

// Block is a header committed to a body: the unit the mining engine
// produces and the chain links together.
type Block struct {
	Header Header
	Body   Body
}

// NewBlock hashes body and builds the header that commits to it, given the
// remaining HeaderCore fields. This is the construction path in spec §4.4:
// serialize the body, hash it, then build and hash the HeaderCore.
func NewBlock(nonce Nonce, difficulty Difficulty, previousBlockHash crypto.Hash, height uint32, body Body) Block {
	bodyHash := crypto.Sum256(body.Bytes())
	core := HeaderCore{
		Nonce:             nonce,
		Difficulty:        difficulty,
		PreviousBlockHash: previousBlockHash,
		Height:            height,
		BodyHash:          bodyHash,
	}
	return Block{Header: NewHeader(core), Body: body}
}

// Validate checks the header (hash recomputation and difficulty), the
// body (every transaction plus the coinbase invariant against store), and
// that the body's hash matches what the header committed to.
func (b Block) Validate(store UTXOStore) error {
	if err := b.Header.Validate(); err != nil {
		return err
	}
	if _, err := b.Body.Validate(store); err != nil {
		return err
	}
	bodyHash := crypto.Sum256(b.Body.Bytes())
	if !bodyHash.Equal(b.Header.Core.BodyHash) {
		return ErrHeaderAndBodyHashMismatch
	}
	return nil
}
