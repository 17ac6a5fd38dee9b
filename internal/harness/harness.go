// Package harness builds a network of simulated nodes, wires a random
// undirected mesh of connections between their transports, and runs them
// cooperatively for a bounded duration.
package harness

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"empower1.com/empower1blockchain/internal/chain"
	"empower1.com/empower1blockchain/internal/core"
	"empower1.com/empower1blockchain/internal/crypto"
	"empower1.com/empower1blockchain/internal/miner"
	"empower1.com/empower1blockchain/internal/node"
	"empower1.com/empower1blockchain/internal/transport"
)

// Config parameterizes one harness run. It mirrors the CLI flags in §6 of
// the harness's external interface.
type Config struct {
	NumNodes                    int
	InitiatedConnectionsPerNode int
	DifficultyFactor            int
	Duration                    time.Duration
	MiningDelay                 time.Duration
}

// noopUTXOStore backs every node's transaction validation. Nodes in this
// simulation only ever mine coinbase-only blocks, so no input ever needs
// resolving; a lookup that always misses is the faithful contract.
type noopUTXOStore struct{}

func (noopUTXOStore) Find(crypto.Hash, uint8) (core.TxOut, bool) { return core.TxOut{}, false }

// Run constructs cfg.NumNodes nodes sharing one genesis chain, wires them
// into a random mesh, and runs every node until cfg.Duration elapses or
// parentCtx is canceled, whichever comes first.
func Run(parentCtx context.Context, cfg Config) error {
	runID := uuid.New()
	log.Printf("HARNESS: run %s starting", runID)

	difficulty := core.MinDifficulty()
	for i := 0; i < cfg.DifficultyFactor; i++ {
		if err := difficulty.Increase(); err != nil {
			return fmt.Errorf("harness: building genesis difficulty: %w", err)
		}
	}

	genesisKeyPair, err := crypto.RandomKeyPair()
	if err != nil {
		return fmt.Errorf("harness: generating genesis keypair: %w", err)
	}
	genesis := chain.Genesis(difficulty, core.AddressFromPubKey(genesisKeyPair.PubKey()))
	log.Printf("HARNESS: genesis mined, hash %s", genesis.HeadHash())

	transports := make([]*transport.Transport[node.Chain], cfg.NumNodes)
	for i := range transports {
		transports[i] = transport.New[node.Chain](i)
	}
	seedMesh(transports, cfg.InitiatedConnectionsPerNode)

	ctx, cancel := context.WithTimeout(parentCtx, cfg.Duration)
	defer cancel()

	store := noopUTXOStore{}
	for i, tr := range transports {
		conns := tr.Run(ctx)

		payoutKeyPair, err := crypto.RandomKeyPair()
		if err != nil {
			return fmt.Errorf("harness: generating payout keypair for node %d: %w", i, err)
		}
		payout := core.AddressFromPubKey(payoutKeyPair.PubKey())

		nodeID := fmt.Sprintf("%d/%s", i, uuid.New())
		eng := miner.New(nodeID, genesis, payout, cfg.MiningDelay)
		n := node.New(nodeID, genesis, genesis.HeadHash(), store, conns, eng)

		go eng.Run(ctx)
		go n.Run(ctx)
	}

	log.Printf("HARNESS: run %s: %d nodes running for %s", runID, cfg.NumNodes, cfg.Duration)
	<-ctx.Done()
	log.Printf("HARNESS: run %s: duration elapsed, all nodes canceled", runID)
	return nil
}

// seedMesh gives each transport cfg.InitiatedConnectionsPerNode seeds
// drawn from the pool of other transports it is not already paired with,
// recording every pairing symmetrically so neither side initiates it
// twice. If a transport's pool is exhausted before its quota is met, it
// simply receives fewer seeds.
func seedMesh[M any](transports []*transport.Transport[M], connectionsPerNode int) {
	addresses := make([]transport.Address[M], len(transports))
	for i, tr := range transports {
		addresses[i] = tr.Address()
	}

	pairs := newPairSet()
	for i, tr := range transports {
		candidates := make([]int, 0, len(transports)-1)
		for j := range transports {
			if j != i && !pairs.contains(i, j) {
				candidates = append(candidates, j)
			}
		}

		for k := 0; k < connectionsPerNode && len(candidates) > 0; k++ {
			idx := rand.Intn(len(candidates))
			chosen := candidates[idx]
			candidates = append(candidates[:idx], candidates[idx+1:]...)
			pairs.add(i, chosen)
			tr.IncludeSeed(addresses[chosen])
		}
	}
}
