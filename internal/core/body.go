package core

import (
	"fmt"
	"math"

	"empower1.com/empower1blockchain/internal/codec"
)

// Body is the payload a Header commits to: a coinbase reward plus an
// ordered list of signed transactions.
type Body struct {
	Coinbase     CoinbaseTx
	Transactions []SignedTx
}

// Encode appends the body's wire representation:
// coinbase(amount(4 BE) || to_address(32)) || count(8 BE) || [signed_tx ...].
func (b Body) Encode(w *codec.Writer) {
	b.Coinbase.Encode(w)
	w.Count(len(b.Transactions))
	for _, tx := range b.Transactions {
		tx.Encode(w)
	}
}

// Bytes returns the serialized form hashed into a Header's body_hash field.
func (b Body) Bytes() []byte {
	w := codec.NewWriter()
	b.Encode(w)
	return w.Out()
}

// DecodeBody reads a Body previously written by Encode.
func DecodeBody(r *codec.Reader) Body {
	coinbase := DecodeCoinbaseTx(r)
	count := r.Count()
	txs := make([]SignedTx, count)
	for i := range txs {
		txs[i] = DecodeSignedTx(r)
	}
	return Body{Coinbase: coinbase, Transactions: txs}
}

// Validate checks every transaction against store and returns the total
// fees collected, failing unless the coinbase pays out exactly
// BaseReward plus the sum of those fees.
func (b Body) Validate(store UTXOStore) (uint32, error) {
	var totalFees uint64
	for i, tx := range b.Transactions {
		fee, err := tx.Verify(store)
		if err != nil {
			return 0, fmt.Errorf("transaction %d: %w", i, err)
		}
		totalFees += uint64(fee)
		if totalFees > math.MaxUint32 {
			return 0, fmt.Errorf("%w: fee total", ErrAmountOverflow)
		}
	}

	expected := uint64(BaseReward) + totalFees
	if uint64(b.Coinbase.Output.Amount) != expected {
		return 0, ErrInvalidCoinbaseAmount
	}

	return uint32(totalFees), nil
}
