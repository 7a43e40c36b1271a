// Command merkle-tree-builder reads an allocation CSV and produces one
// shard artifact per bounded-size partition, ready for merkle_root to be
// embedded in each shard's create_distributor call.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/joho/godotenv"

	"github.com/malbeclabs/merkle-distributor/internal/logger"
	"github.com/malbeclabs/merkle-distributor/pkg/shard"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	csvPathFlag := flag.String("csv", "", "path to the allocation CSV (header: pubkey,unlocked,locked) (or set ALLOCATION_CSV env var)")
	outDirFlag := flag.String("out", "./shards", "directory to write shard-<n>.json artifacts into (or set SHARD_OUT_DIR env var)")
	maxShardSizeFlag := flag.Int("max-shard-size", shard.DefaultMaxShardSize, "maximum number of leaves per shard")
	flag.Parse()

	if v := os.Getenv("ALLOCATION_CSV"); v != "" {
		*csvPathFlag = v
	}
	if v := os.Getenv("SHARD_OUT_DIR"); v != "" {
		*outDirFlag = v
	}

	log := logger.New("merkle-tree-builder", *verboseFlag)

	if *csvPathFlag == "" {
		return fmt.Errorf("--csv is required")
	}

	f, err := os.Open(*csvPathFlag)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	leaves, err := shard.ParseCSV(f)
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}
	log.Info("parsed allocation csv", "leaves", len(leaves))

	artifacts, err := shard.Build(leaves, *maxShardSizeFlag)
	if err != nil {
		return fmt.Errorf("build shards: %w", err)
	}

	var totalClaim uint64
	for _, a := range artifacts {
		path, err := shard.WriteArtifact(*outDirFlag, a)
		if err != nil {
			return fmt.Errorf("write shard %d: %w", a.ShardIndex, err)
		}
		totalClaim += a.MaxTotalClaim
		log.Info("wrote shard artifact", "path", path, "nodes", len(a.TreeNodes), "max_total_claim", a.MaxTotalClaim)
	}

	log.Info("done", "shards", len(artifacts), "total_leaves", len(leaves), "max_total_claim", totalClaim)
	return nil
}
