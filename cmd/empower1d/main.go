// Command empower1d runs a simulated proof-of-work network of
// cooperating nodes in a single process, for a bounded duration, and
// exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"empower1.com/empower1blockchain/internal/harness"
)

const (
	defaultNumNodes    = 2048
	maxNumNodes        = 100000
	defaultConnections = 3
	maxConnections     = 255
	defaultDifficulty  = 15
	maxDifficulty      = 224
	defaultDuration    = 30
	maxDuration        = 999999
	defaultMiningDelay = 10
	maxMiningDelay     = 999999
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "empower1d: %v\n", err)
		os.Exit(1)
	}

	log.Printf("HARNESS: starting with n=%d c=%d d=%d s=%ds m=%dms",
		cfg.NumNodes, cfg.InitiatedConnectionsPerNode, cfg.DifficultyFactor,
		int(cfg.Duration/time.Second), int(cfg.MiningDelay/time.Millisecond))

	if err := harness.Run(context.Background(), cfg); err != nil {
		log.Fatalf("empower1d: %v", err)
	}

	log.Println("empower1d: clean exit after timeout")
}

// parseFlags parses and validates the five CLI flags in §6 of the
// harness's external interface, returning a ready-to-use harness.Config.
func parseFlags(args []string) (harness.Config, error) {
	fs := flag.NewFlagSet("empower1d", flag.ContinueOnError)

	numNodes := fs.Int("n", defaultNumNodes, "number of nodes to simulate")
	connections := fs.Int("c", defaultConnections, "initiated connections per node")
	difficulty := fs.Int("d", defaultDifficulty, "number of times increase() is called on min_difficulty")
	duration := fs.Int("s", defaultDuration, "duration of the simulation, in seconds")
	miningDelay := fs.Int("m", defaultMiningDelay, "mining tick delay, in milliseconds")

	if err := fs.Parse(args); err != nil {
		return harness.Config{}, err
	}

	if *numNodes < 1 || *numNodes > maxNumNodes {
		return harness.Config{}, fmt.Errorf("-n must be in [1, %d], got %d", maxNumNodes, *numNodes)
	}
	if *connections < 0 || *connections > maxConnections {
		return harness.Config{}, fmt.Errorf("-c must be in [0, %d], got %d", maxConnections, *connections)
	}
	if *difficulty < 0 || *difficulty > maxDifficulty {
		return harness.Config{}, fmt.Errorf("-d must be in [0, %d], got %d", maxDifficulty, *difficulty)
	}
	if *duration < 1 || *duration > maxDuration {
		return harness.Config{}, fmt.Errorf("-s must be in [1, %d], got %d", maxDuration, *duration)
	}
	if *miningDelay < 1 || *miningDelay > maxMiningDelay {
		return harness.Config{}, fmt.Errorf("-m must be in [1, %d], got %d", maxMiningDelay, *miningDelay)
	}

	return harness.Config{
		NumNodes:                    *numNodes,
		InitiatedConnectionsPerNode: *connections,
		DifficultyFactor:            *difficulty,
		Duration:                    time.Duration(*duration) * time.Second,
		MiningDelay:                 time.Duration(*miningDelay) * time.Millisecond,
	}, nil
}
