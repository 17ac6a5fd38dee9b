// Package node implements the per-node event loop: it merges connection
// events, remote chain updates, and newly mined chains into a single
// sequential stream and propagates the longest chain it has seen to its
// peers and to its own mining engine.
package node

import (
	"context"
	"log"

	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/core"
	"empower1.com/empower1blockchain/internal/crypto"
	"empower1.com/empower1blockchain/internal/miner"
	"empower1.com/empower1blockchain/internal/transport"
)

// Chain is the message type carried over every connection: nodes only
// ever exchange whole chains.
type Chain = *chain.Chain

// peer tracks what a node knows about one connected peer: the channel
// used to reach it and the tallest chain height it is known to hold, so
// Propagate never resends a chain a peer has already surpassed.
type peer struct {
	sender      chan<- Chain
	knownHeight uint32
}

// remoteChainEvent tags a chain arriving on some peer's receive channel.
// One forwarder goroutine per peer funnels its receive channel into a
// single shared channel so the main loop never selects over a
// dynamically-sized slice of channels directly; this is the fan-in the
// node loop's merged stream relies on.
type remoteChainEvent struct {
	chain Chain
}

// Node owns one node's current chain, its peer list, its mining engine,
// and the transport connection stream it was built from. It has no
// locking: the chain is modified only from this type's own goroutine,
// which is the only writer of current.
type Node struct {
	id              string
	expectedGenesis crypto.Hash
	utxoStore       core.UTXOStore
	conns           <-chan transport.Connection[Chain]
	remote          chan remoteChainEvent
	engine          *miner.Engine
	current         *chain.Chain
	peers           []*peer
}

// New constructs a node identified by id, starting from initial, that
// validates incoming chains against expectedGenesis and utxoStore,
// consuming connections from conns and driven by engine.
func New(id string, initial *chain.Chain, expectedGenesis crypto.Hash, utxoStore core.UTXOStore, conns <-chan transport.Connection[Chain], engine *miner.Engine) *Node {
	return &Node{
		id:              id,
		expectedGenesis: expectedGenesis,
		utxoStore:       utxoStore,
		conns:           conns,
		remote:          make(chan remoteChainEvent, 64),
		engine:          engine,
		current:         initial,
	}
}

// CurrentChain returns the node's current chain. It is safe to call only
// after Run has returned (e.g. from a test after canceling ctx); calling
// it concurrently with Run races with the loop goroutine.
func (n *Node) CurrentChain() *chain.Chain {
	return n.current
}

// Run merges the three event sources — new connections, remote chain
// updates forwarded from peers, and newly mined chains — into one
// sequential loop until ctx is canceled.
func (n *Node) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Printf("NODE [%s]: context canceled at height %d, stopping", n.id, n.current.Height())
			return

		case conn, ok := <-n.conns:
			if !ok {
				n.conns = nil
				continue
			}
			n.onPeerConnected(ctx, conn)

		case ev := <-n.remote:
			n.onRemoteChain(ev.chain)

		case mined, ok := <-n.engine.Mined():
			if !ok {
				continue
			}
			n.onMinedChain(mined)
		}
	}
}

// onPeerConnected implements the PeerConnected effect: immediately send
// the current chain to the new peer, then append it to the peer list and
// start forwarding its inbound chains into the merged event stream.
func (n *Node) onPeerConnected(ctx context.Context, conn transport.Connection[Chain]) {
	sender, receiver := conn.Split()

	select {
	case sender <- n.current:
		p := &peer{sender: sender, knownHeight: n.current.Height()}
		n.peers = append(n.peers, p)
		log.Printf("NODE [%s]: new peer, total %d", n.id, len(n.peers))
		go n.forwardPeer(ctx, receiver)
	case <-ctx.Done():
	}
}

// forwardPeer reads chains off one peer's receive channel and relays
// them into the node's shared remote-event channel, tagging none of
// their provenance beyond the chain itself since Propagate needs only
// the chain's height.
func (n *Node) forwardPeer(ctx context.Context, receiver <-chan Chain) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-receiver:
			if !ok {
				return
			}
			select {
			case n.remote <- remoteChainEvent{chain: c}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// onRemoteChain implements the RemoteChain effect: validate the chain and,
// only on success, attempt to propagate it. An invalid remote chain is
// logged and discarded; it never brings the node down.
func (n *Node) onRemoteChain(c Chain) {
	if err := c.Verify(n.expectedGenesis, n.utxoStore); err != nil {
		log.Printf("NODE [%s]: discarding invalid remote chain at height %d: %v", n.id, c.Height(), err)
		return
	}
	n.propagate(c)
}

// onMinedChain implements the MinedChain effect: a locally mined chain
// always attempts propagation.
func (n *Node) onMinedChain(c Chain) {
	log.Printf("NODE [%s]: mined chain at height %d", n.id, c.Height())
	n.propagate(c)
}

// propagate is the policy from spec §4.7: forward c to every peer that
// has not already seen a chain at least this tall, drop peers whose send
// fails, and adopt c as the node's current chain — notifying the mining
// engine — if and only if c is strictly taller than what the node already
// has. Ties are never adopted: whichever chain of a given height the node
// accepted first is the one it keeps. Notifying the engine never blocks
// (Engine.NotifyUpdate), which is what keeps this loop from being able to
// deadlock against the engine's own loop blocking on a send to Mined.
func (n *Node) propagate(c Chain) {
	height := c.Height()

	alive := n.peers[:0]
	for _, p := range n.peers {
		if height > p.knownHeight {
			select {
			case p.sender <- c:
				p.knownHeight = height
				alive = append(alive, p)
			default:
				log.Printf("NODE [%s]: lost peer, send failed", n.id)
			}
		} else {
			alive = append(alive, p)
		}
	}
	n.peers = alive

	if height > n.current.Height() {
		n.current = c
		n.engine.NotifyUpdate(c)
	}
}
