// Package core contains the fundamental data structures of the EmPower1 PoW
// chain: addresses, the difficulty threshold and mining nonce, UTXO-style
// transactions, and the block header/body pair that the chain is built
// from. Hashing and signing primitives live in internal/crypto; this
// package only composes them into the records spec.md §3 describes.
package core

// BaseReward is the fixed coinbase reward paid to a block's miner, before
// transaction fees are added. See CoinbaseTx.
const BaseReward = 1000
