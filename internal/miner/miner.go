// Package miner implements the mining engine: a single-threaded state
// machine that repeatedly attempts to extend its current chain by one
// block, and rebases onto a taller chain whenever the node loop supplies
// one.
package miner

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/core"
)

// Engine is the mining state machine: { node_id, current_chain, nonce }.
// The node id only labels log lines; it is not part of any candidate
// block or header. Candidates built atop the same predecessor by distinct
// engines differ only when their payout addresses differ, since the
// coinbase output is the one per-engine field in the body.
type Engine struct {
	nodeID        string
	payoutAddress core.Address
	tickInterval  time.Duration

	current *chain.Chain
	nonce   core.Nonce

	updates chan *chain.Chain
	mined   chan *chain.Chain

	wg sync.WaitGroup
}

// New constructs an Engine that mines atop initial, paying rewards to
// payoutAddress, attempting one nonce per tickInterval.
func New(nodeID string, initial *chain.Chain, payoutAddress core.Address, tickInterval time.Duration) *Engine {
	return &Engine{
		nodeID:        nodeID,
		payoutAddress: payoutAddress,
		tickInterval:  tickInterval,
		current:       initial,
		updates:       make(chan *chain.Chain, 1),
		mined:         make(chan *chain.Chain, 1),
	}
}

// Updates returns the one-writer channel through which the node loop
// notifies the engine of a taller chain it has learned about. Callers
// should prefer NotifyUpdate, which never blocks; this accessor remains
// for tests that want to push a single update without contention.
func (e *Engine) Updates() chan<- *chain.Chain {
	return e.updates
}

// NotifyUpdate hands next to the engine without blocking: if the
// single-slot buffer already holds an update the engine hasn't consumed
// yet, it is replaced, since a newer update always supersedes a stale
// one. This is what Node.propagate calls; calling it from the node's own
// event loop can never wedge against the engine's Run loop blocking on a
// send to Mined (see Engine.emitMined), which was the source of a
// cross-goroutine deadlock between the two loops.
func (e *Engine) NotifyUpdate(next *chain.Chain) {
	replaceBuffered(e.updates, next)
}

// Mined returns the channel on which the engine emits each successfully
// mined chain.
func (e *Engine) Mined() <-chan *chain.Chain {
	return e.mined
}

// Run drives the engine's loop until ctx is canceled, then closes Mined
// and returns. Run is meant to be called from its own goroutine; Wait
// blocks until it has returned.
func (e *Engine) Run(ctx context.Context) {
	e.wg.Add(1)
	defer e.wg.Done()
	defer close(e.mined)

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("MINER [%s]: context canceled at height %d, stopping", e.nodeID, e.current.Height())
			return

		case next := <-e.updates:
			if next.Height() > e.current.Height() {
				e.current = next
				e.nonce = 0
			}

		case <-ticker.C:
			e.tryNonce()
		}
	}
}

// Wait blocks until Run has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// tryNonce builds one candidate block atop the current chain at the
// current nonce and attempts to expand the chain with it. A
// HashIsTooHigh failure just means the candidate didn't satisfy
// difficulty; the engine advances the nonce and waits for the next tick.
// Any other failure is a programming error in how the candidate was
// built, so it is fatal.
func (e *Engine) tryNonce() {
	e.nonce.Increment()

	head := e.current.Head()
	body := core.Body{
		Coinbase: core.CoinbaseTx{Output: core.TxOut{Amount: core.BaseReward, ToAddress: e.payoutAddress}},
	}
	block := core.NewBlock(e.nonce, head.Header.Core.Difficulty, e.current.HeadHash(), e.current.Height()+1, body)

	next, err := chain.Expand(e.current, block)
	if err != nil {
		if errors.Is(err, core.ErrHashIsTooHigh) {
			return
		}
		log.Panicf("MINER [%s]: fatal error expanding chain at height %d: %v", e.nodeID, e.current.Height()+1, err)
	}

	e.current = next
	e.emitMined(next)
}

// emitMined hands next to whoever is reading Mined() without blocking: if
// the single-slot buffer already holds a chain nobody has consumed yet,
// it is replaced, since a newer mined chain always supersedes a stale
// one. A blocking send here, paired with Node.propagate's blocking send
// into the engine's updates channel, could previously deadlock: both
// goroutines would be parked inside each other's select loop waiting to
// be read, with neither able to come back around to receive. Buffering
// and replacing instead of blocking removes that cycle entirely.
func (e *Engine) emitMined(next *chain.Chain) {
	replaceBuffered(e.mined, next)
}

// replaceBuffered sends v on a capacity-1 channel without ever blocking,
// discarding whatever value was already buffered (if any) in favor of v.
func replaceBuffered(ch chan *chain.Chain, v *chain.Chain) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
