package proofcache

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/malbeclabs/merkle-distributor/pkg/shard"
)

// Loader fetches the current set of published shard artifacts. A live
// deployment points this at wherever merkle-tree-builder publishes
// shard-<n>.json files; tests supply an in-memory Loader.
type Loader interface {
	LoadShards(ctx context.Context) ([]*shard.Artifact, error)
}

// DirLoader loads every shard-*.json artifact from a local directory —
// the default deployment shape, with the directory typically backed by a
// synced object-storage mount.
type DirLoader struct {
	Dir string

	// MaxConcurrency bounds how many shard files are parsed at once.
	// Defaults to 8 when unset.
	MaxConcurrency int
}

func (l DirLoader) LoadShards(ctx context.Context) ([]*shard.Artifact, error) {
	paths, err := filepath.Glob(filepath.Join(l.Dir, "shard-*.json"))
	if err != nil {
		return nil, fmt.Errorf("proofcache: glob shard artifacts: %w", err)
	}

	limit := l.MaxConcurrency
	if limit <= 0 {
		limit = 8
	}

	artifacts := make([]*shard.Artifact, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			a, err := shard.LoadArtifact(p)
			if err != nil {
				return fmt.Errorf("proofcache: load %s: %w", p, err)
			}
			artifacts[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}
