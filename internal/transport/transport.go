// Package transport implements the in-process MPSC mesh nodes use to
// exchange chain updates: each Transport owns an address and a stream of
// Connections established either by dialing a seed or by accepting an
// incoming handshake.
package transport

import (
	"context"
	"log"
)

// chanBuffer approximates the original design's unbounded channels. Go has
// no unbounded channel primitive; a generous fixed buffer means sends
// essentially never suspend at the message volumes this simulation
// produces (chain updates, not per-transaction traffic).
const chanBuffer = 64

// Address identifies a Transport and carries the handle other transports
// use to reach its inbox.
type Address[M any] struct {
	id    int
	inbox chan<- handshake[M]
}

// ID returns the address's node id.
func (a Address[M]) ID() int {
	return a.id
}

type initMessage[M any] struct {
	from        Address[M]
	writeToMine chan M // remote writes here to reach the initiator
}

type ackMessage[M any] struct {
	fromID       int
	writeToTheir chan M // initiator writes here to reach the acceptor
}

// handshake is the sum type carried over a transport's inbox: either half
// of the Init/Ack exchange.
type handshake[M any] struct {
	init *initMessage[M]
	ack  *ackMessage[M]
}

// Connection is a bidirectional channel pair established between two
// transports. Split separates it into the directional halves a Node uses.
type Connection[M any] struct {
	sender   chan<- M
	receiver <-chan M
}

// Split returns the send and receive halves of the connection.
func (c Connection[M]) Split() (chan<- M, <-chan M) {
	return c.sender, c.receiver
}

// Transport is one node's handshake endpoint: it dials its configured
// seeds and accepts incoming dials, surfacing every resulting Connection
// on the channel Run returns.
type Transport[M any] struct {
	address Address[M]
	inbox   chan handshake[M]
	seeds   []Address[M]
}

// New constructs a Transport identified by id.
func New[M any](id int) *Transport[M] {
	inbox := make(chan handshake[M], chanBuffer)
	return &Transport[M]{
		address: Address[M]{id: id, inbox: inbox},
		inbox:   inbox,
	}
}

// Address returns the transport's own address, to be handed to other
// transports as a dial target.
func (t *Transport[M]) Address() Address[M] {
	return t.address
}

// IncludeSeed registers addr as a peer this transport will dial once Run
// starts.
func (t *Transport[M]) IncludeSeed(addr Address[M]) {
	t.seeds = append(t.seeds, addr)
}

// Run starts the handshake loop and returns a channel yielding one
// Connection per completed handshake, whether this transport dialed or
// was dialed. The returned channel is closed when ctx is canceled.
func (t *Transport[M]) Run(ctx context.Context) <-chan Connection[M] {
	out := make(chan Connection[M])

	go func() {
		defer close(out)

		pending := make(map[int]chan M)
		for _, seed := range t.seeds {
			writeToMine := make(chan M, chanBuffer)
			pending[seed.id] = writeToMine
			log.Printf("TRANSPORT [%d]: dialing %d", t.address.id, seed.id)
			select {
			case seed.inbox <- handshake[M]{init: &initMessage[M]{from: t.address, writeToMine: writeToMine}}:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case msg := <-t.inbox:
				conn, ok := t.handle(ctx, msg, pending)
				if !ok {
					continue
				}
				select {
				case out <- conn:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// handle processes one handshake message, returning the Connection it
// completes (if any). Init completes immediately, acting out the
// acceptor's half; Ack completes a dial this transport initiated earlier.
func (t *Transport[M]) handle(ctx context.Context, msg handshake[M], pending map[int]chan M) (Connection[M], bool) {
	switch {
	case msg.init != nil:
		writeToTheir := make(chan M, chanBuffer)
		conn := Connection[M]{sender: msg.init.writeToMine, receiver: writeToTheir}

		log.Printf("TRANSPORT [%d]: accepted connection from %d", t.address.id, msg.init.from.id)
		select {
		case msg.init.from.inbox <- handshake[M]{ack: &ackMessage[M]{fromID: t.address.id, writeToTheir: writeToTheir}}:
		case <-ctx.Done():
		}
		return conn, true

	case msg.ack != nil:
		writeToMine, ok := pending[msg.ack.fromID]
		if !ok {
			log.Panicf("TRANSPORT [%d]: received ack from %d with no matching dial", t.address.id, msg.ack.fromID)
		}
		delete(pending, msg.ack.fromID)
		log.Printf("TRANSPORT [%d]: completed dial to %d", t.address.id, msg.ack.fromID)
		return Connection[M]{sender: msg.ack.writeToTheir, receiver: writeToMine}, true

	default:
		return Connection[M]{}, false
	}
}
