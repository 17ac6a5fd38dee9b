package core

import (
	"fmt"
	"math"

	"empower1.com/empower1blockchain/internal/codec"
	"empower1.com/empower1blockchain/internal/crypto"
)

// TxOut is an unspent transaction output: an amount payable to an address.
// Immutable once created.
type TxOut struct {
	Amount    uint32
	ToAddress Address
}

// Encode appends the output's wire representation: amount(4 BE) || to_address(32).
func (o TxOut) Encode(w *codec.Writer) {
	w.Uint32(o.Amount)
	w.Bytes(o.ToAddress.Bytes())
}

// DecodeTxOut reads a TxOut previously written by Encode.
func DecodeTxOut(r *codec.Reader) TxOut {
	amount := r.Uint32()
	addrBytes := r.Bytes(crypto.HashSize)
	var h crypto.Hash
	copy(h[:], addrBytes)
	return TxOut{Amount: amount, ToAddress: AddressFromHash(h)}
}

// RawTxIn references one unspent output by the hash of its owning
// transaction and its output index within that transaction.
type RawTxIn struct {
	PrevTxHash        crypto.Hash
	PrevTxOutputIndex uint8
}

// Encode appends the input reference's wire representation.
func (in RawTxIn) Encode(w *codec.Writer) {
	w.Bytes(in.PrevTxHash.Bytes())
	w.Uint8(in.PrevTxOutputIndex)
}

// DecodeRawTxIn reads a RawTxIn previously written by Encode.
func DecodeRawTxIn(r *codec.Reader) RawTxIn {
	hashBytes := r.Bytes(crypto.HashSize)
	var h crypto.Hash
	copy(h[:], hashBytes)
	index := r.Uint8()
	return RawTxIn{PrevTxHash: h, PrevTxOutputIndex: index}
}

// SignedTxIn is a RawTxIn plus the signature and public key that authorize
// spending the referenced output.
type SignedTxIn struct {
	RawTxIn
	TxSignature  crypto.Signature
	SigPublicKey crypto.PubKey
}

// Raw strips the signature and public key, returning the underlying
// unsigned reference.
func (in SignedTxIn) Raw() RawTxIn {
	return in.RawTxIn
}

// RawTx is the unsigned shape of a transaction: an ordered list of input
// references and an ordered list of outputs.
type RawTx struct {
	Inputs  []RawTxIn
	Outputs []TxOut
}

// Encode appends the deterministic serialization used both as the
// transaction's signing pre-image and, for SignedTx, as the basis of its
// unsigned form.
func (tx RawTx) Encode(w *codec.Writer) {
	w.Count(len(tx.Inputs))
	for _, in := range tx.Inputs {
		in.Encode(w)
	}
	w.Count(len(tx.Outputs))
	for _, out := range tx.Outputs {
		out.Encode(w)
	}
}

// Bytes returns the serialized form used as the signing pre-image.
func (tx RawTx) Bytes() []byte {
	w := codec.NewWriter()
	tx.Encode(w)
	return w.Out()
}

// DecodeRawTx reads a RawTx previously written by Encode.
func DecodeRawTx(r *codec.Reader) RawTx {
	inCount := r.Count()
	inputs := make([]RawTxIn, inCount)
	for i := range inputs {
		inputs[i] = DecodeRawTxIn(r)
	}
	outCount := r.Count()
	outputs := make([]TxOut, outCount)
	for i := range outputs {
		outputs[i] = DecodeTxOut(r)
	}
	return RawTx{Inputs: inputs, Outputs: outputs}
}

// SignedTx is a transaction whose inputs each carry the signature and
// public key that authorize spending the referenced output.
type SignedTx struct {
	Inputs  []SignedTxIn
	Outputs []TxOut
}

// Unsigned reconstructs the RawTx form by stripping each input's signature
// and public key, preserving order. This is exactly the message that was
// signed.
func (tx SignedTx) Unsigned() RawTx {
	inputs := make([]RawTxIn, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = in.Raw()
	}
	return RawTx{Inputs: inputs, Outputs: tx.Outputs}
}

// Encode appends the signed transaction's wire representation.
func (tx SignedTx) Encode(w *codec.Writer) {
	w.Count(len(tx.Inputs))
	for _, in := range tx.Inputs {
		in.RawTxIn.Encode(w)
		w.Bytes(in.TxSignature.Bytes())
		w.Bytes(in.SigPublicKey.Bytes())
	}
	w.Count(len(tx.Outputs))
	for _, out := range tx.Outputs {
		out.Encode(w)
	}
}

// DecodeSignedTx reads a SignedTx previously written by Encode.
func DecodeSignedTx(r *codec.Reader) SignedTx {
	inCount := r.Count()
	inputs := make([]SignedTxIn, inCount)
	for i := range inputs {
		raw := DecodeRawTxIn(r)
		sigBytes := r.Bytes(crypto.SignatureSize)
		var sig crypto.Signature
		copy(sig[:], sigBytes)
		pubBytes := r.Bytes(crypto.PubKeySize)
		var pub crypto.PubKey
		copy(pub[:], pubBytes)
		inputs[i] = SignedTxIn{RawTxIn: raw, TxSignature: sig, SigPublicKey: pub}
	}
	outCount := r.Count()
	outputs := make([]TxOut, outCount)
	for i := range outputs {
		outputs[i] = DecodeTxOut(r)
	}
	return SignedTx{Inputs: inputs, Outputs: outputs}
}

// SignRawTx signs raw with one keypair per input, in input order, and
// returns the resulting SignedTx. Every input is signed over the same
// message: the serialization of the unsigned RawTx.
func SignRawTx(raw RawTx, keyPairs []crypto.KeyPair) (SignedTx, error) {
	if len(keyPairs) != len(raw.Inputs) {
		return SignedTx{}, fmt.Errorf("%w: have %d inputs, %d key pairs", ErrInvalidNumberOfKeyPairs, len(raw.Inputs), len(keyPairs))
	}

	message := raw.Bytes()

	inputs := make([]SignedTxIn, len(raw.Inputs))
	for i, in := range raw.Inputs {
		kp := keyPairs[i]
		inputs[i] = SignedTxIn{
			RawTxIn:      in,
			TxSignature:  kp.Sign(message),
			SigPublicKey: kp.PubKey(),
		}
	}

	return SignedTx{Inputs: inputs, Outputs: raw.Outputs}, nil
}

// UTXOStore is the capability transaction validation needs to resolve an
// input's referenced output.
type UTXOStore interface {
	Find(prevTxHash crypto.Hash, outputIndex uint8) (TxOut, bool)
}

// Verify validates tx against store and returns the fee it pays: the
// difference between the sum of its referenced inputs and the sum of its
// outputs. It implements spec.md §4.3's seven-step algorithm exactly:
// resolve every input, sum amounts (checking for u32 overflow), require
// inputs to cover outputs, then check every input's signature over the
// transaction's unsigned form and that its signer owns the output it
// spends.
func (tx SignedTx) Verify(store UTXOStore) (uint32, error) {
	referenced := make([]TxOut, len(tx.Inputs))
	var inAmount uint64
	for i, in := range tx.Inputs {
		out, ok := store.Find(in.PrevTxHash, in.PrevTxOutputIndex)
		if !ok {
			return 0, fmt.Errorf("%w: %s:%d", ErrUtxoNotFound, in.PrevTxHash, in.PrevTxOutputIndex)
		}
		referenced[i] = out
		inAmount += uint64(out.Amount)
		if inAmount > math.MaxUint32 {
			return 0, fmt.Errorf("%w: input total", ErrAmountOverflow)
		}
	}

	var outAmount uint64
	for _, out := range tx.Outputs {
		outAmount += uint64(out.Amount)
		if outAmount > math.MaxUint32 {
			return 0, fmt.Errorf("%w: output total", ErrAmountOverflow)
		}
	}

	if inAmount < outAmount {
		return 0, fmt.Errorf("%w: inputs %d < outputs %d", ErrInvalidTxAmount, inAmount, outAmount)
	}
	fee := uint32(inAmount - outAmount)

	message := tx.Unsigned().Bytes()
	for i, in := range tx.Inputs {
		signerAddr := AddressFromPubKey(in.SigPublicKey)
		if !signerAddr.Equal(referenced[i].ToAddress) {
			return 0, fmt.Errorf("%w: input %d", ErrInvalidAddress, i)
		}
		if err := crypto.Verify(in.SigPublicKey, message, in.TxSignature); err != nil {
			return 0, fmt.Errorf("input %d: %w", i, err)
		}
	}

	return fee, nil
}

// CoinbaseTx is the block-creator reward: a transaction with no inputs,
// wrapping a single output.
type CoinbaseTx struct {
	Output TxOut
}

// Encode appends the coinbase's wire representation: amount(4 BE) ||
// to_address(32).
func (c CoinbaseTx) Encode(w *codec.Writer) {
	c.Output.Encode(w)
}

// DecodeCoinbaseTx reads a CoinbaseTx previously written by Encode.
func DecodeCoinbaseTx(r *codec.Reader) CoinbaseTx {
	return CoinbaseTx{Output: DecodeTxOut(r)}
}
