package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"empower1.com/empower1blockchain/internal/codec"
	"empower1.com/empower1blockchain/internal/crypto"
)

func TestBodyEncodeDecodeRoundTrip(t *testing.T) {
	kp, err := crypto.RandomKeyPair()
	require.NoError(t, err)

	spender, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	raw := RawTx{
		Inputs:  []RawTxIn{{PrevTxHash: crypto.Sum256([]byte("x")), PrevTxOutputIndex: 0}},
		Outputs: []TxOut{{Amount: 5, ToAddress: AddressFromPubKey(kp.PubKey())}},
	}
	tx, err := SignRawTx(raw, []crypto.KeyPair{spender})
	require.NoError(t, err)

	body := Body{
		Coinbase:     CoinbaseTx{Output: TxOut{Amount: BaseReward, ToAddress: AddressFromPubKey(kp.PubKey())}},
		Transactions: []SignedTx{tx},
	}

	w := codec.NewWriter()
	body.Encode(w)
	r := codec.NewReader(w.Out())
	got := DecodeBody(r)
	require.NoError(t, r.Err())
	require.Equal(t, body, got)
}

func TestBodyValidateEmptyTransactionListRequiresBaseReward(t *testing.T) {
	kp, err := crypto.RandomKeyPair()
	require.NoError(t, err)

	body := Body{Coinbase: CoinbaseTx{Output: TxOut{Amount: BaseReward, ToAddress: AddressFromPubKey(kp.PubKey())}}}
	fees, err := body.Validate(newFakeStore())
	require.NoError(t, err)
	require.Equal(t, uint32(0), fees)
}

func TestBodyValidateRejectsCoinbaseNotMatchingFees(t *testing.T) {
	kp, err := crypto.RandomKeyPair()
	require.NoError(t, err)

	body := Body{Coinbase: CoinbaseTx{Output: TxOut{Amount: BaseReward + 1, ToAddress: AddressFromPubKey(kp.PubKey())}}}
	_, err = body.Validate(newFakeStore())
	require.ErrorIs(t, err, ErrInvalidCoinbaseAmount)
}

func TestBodyValidateIncludesTransactionFeesInCoinbaseRequirement(t *testing.T) {
	spender, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	payee, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	miner, err := crypto.RandomKeyPair()
	require.NoError(t, err)

	prevHash := crypto.Sum256([]byte("prior"))
	store := newFakeStore()
	store.put(prevHash, 0, TxOut{Amount: 100, ToAddress: AddressFromPubKey(spender.PubKey())})

	raw := RawTx{
		Inputs:  []RawTxIn{{PrevTxHash: prevHash, PrevTxOutputIndex: 0}},
		Outputs: []TxOut{{Amount: 90, ToAddress: AddressFromPubKey(payee.PubKey())}},
	}
	tx, err := SignRawTx(raw, []crypto.KeyPair{spender})
	require.NoError(t, err)

	body := Body{
		Coinbase:     CoinbaseTx{Output: TxOut{Amount: BaseReward + 10, ToAddress: AddressFromPubKey(miner.PubKey())}},
		Transactions: []SignedTx{tx},
	}

	fees, err := body.Validate(store)
	require.NoError(t, err)
	require.Equal(t, uint32(10), fees)
}

func TestBodyValidatePropagatesTransactionError(t *testing.T) {
	miner, err := crypto.RandomKeyPair()
	require.NoError(t, err)
	imposter, err := crypto.RandomKeyPair()
	require.NoError(t, err)

	raw := RawTx{
		Inputs:  []RawTxIn{{PrevTxHash: crypto.Sum256([]byte("nowhere")), PrevTxOutputIndex: 0}},
		Outputs: []TxOut{{Amount: 1, ToAddress: AddressFromPubKey(imposter.PubKey())}},
	}
	tx, err := SignRawTx(raw, []crypto.KeyPair{imposter})
	require.NoError(t, err)

	body := Body{
		Coinbase:     CoinbaseTx{Output: TxOut{Amount: BaseReward, ToAddress: AddressFromPubKey(miner.PubKey())}},
		Transactions: []SignedTx{tx},
	}

	_, err = body.Validate(newFakeStore())
	require.ErrorIs(t, err, ErrUtxoNotFound)
}
