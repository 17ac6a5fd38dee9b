// Package walletutil provides a minimal greedy UTXO-selection helper for
// building spend transactions. It has no CLI and no persistence; only its
// own tests use it (the harness does not), and it sits outside the core
// validation hot path.
package walletutil

import (
	"errors"
	"fmt"

	"empower1.com/empower1blockchain/internal/core"
	"empower1.com/empower1blockchain/internal/crypto"
)

// ErrNotEnoughFunds is returned when an address's available UTXOs cannot
// cover the requested amount plus fees.
var ErrNotEnoughFunds = errors.New("walletutil: not enough funds to cover amount and fees")

// Funding references one spendable output together with the key pair that
// authorizes spending it.
type Funding struct {
	PrevTxHash        crypto.Hash
	PrevTxOutputIndex uint8
	Output            core.TxOut
	KeyPair           crypto.KeyPair
}

// NewSpendTx greedily selects fundings (in the order given) until their
// combined amount covers amount+fees, then builds and signs a RawTx paying
// amount to toAddress and sending any remainder to changeAddress. It mirrors
// the original wallet's greedy accumulate-then-change construction exactly,
// generalized to a caller-supplied funding list rather than an internal
// account list.
func NewSpendTx(fundings []Funding, amount, fees uint32, toAddress, changeAddress core.Address) (core.SignedTx, error) {
	totalCost, overflowed := addUint32(amount, fees)
	if overflowed {
		return core.SignedTx{}, fmt.Errorf("walletutil: %w: amount+fees overflows", ErrNotEnoughFunds)
	}

	var collected uint32
	var inputs []core.RawTxIn
	var keyPairs []crypto.KeyPair

	for _, f := range fundings {
		if collected >= totalCost {
			break
		}
		inputs = append(inputs, core.RawTxIn{
			PrevTxHash:        f.PrevTxHash,
			PrevTxOutputIndex: f.PrevTxOutputIndex,
		})
		keyPairs = append(keyPairs, f.KeyPair)

		sum, overflowed := addUint32(collected, f.Output.Amount)
		if overflowed {
			return core.SignedTx{}, fmt.Errorf("walletutil: %w: collected amount overflows", ErrNotEnoughFunds)
		}
		collected = sum
	}

	if collected < totalCost {
		return core.SignedTx{}, ErrNotEnoughFunds
	}

	change := collected - totalCost
	outputs := []core.TxOut{
		{Amount: change, ToAddress: changeAddress},
		{Amount: amount, ToAddress: toAddress},
	}

	raw := core.RawTx{Inputs: inputs, Outputs: outputs}
	return core.SignRawTx(raw, keyPairs)
}

func addUint32(a, b uint32) (sum uint32, overflowed bool) {
	sum = a + b
	return sum, sum < a
}
