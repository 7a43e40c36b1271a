// Package proofcache keeps an in-memory, periodically refreshed index
// of every claimant's Merkle proof across all published shards, so the
// proof/claim API can answer lookups in-process without touching disk
// or object storage on the request path.
package proofcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/merkle-distributor/pkg/metrics"
	"github.com/malbeclabs/merkle-distributor/pkg/shard"
)

// Entry is everything the API needs to answer a proof lookup for one
// claimant.
type Entry struct {
	ShardIndex int
	MerkleRoot [32]byte
	Node       shard.TreeNode
}

type Config struct {
	Logger          *slog.Logger
	Clock           clockwork.Clock
	Loader          Loader
	RefreshInterval time.Duration
}

func (cfg *Config) validate() error {
	if cfg.Logger == nil {
		return errors.New("proofcache: logger is required")
	}
	if cfg.Loader == nil {
		return errors.New("proofcache: loader is required")
	}
	if cfg.RefreshInterval <= 0 {
		return errors.New("proofcache: refresh interval must be greater than 0")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// View is a read-mostly, background-refreshed proof index. Callers wait
// for the first successful load via WaitReady before serving traffic.
type View struct {
	log *slog.Logger
	cfg Config

	mu      sync.RWMutex
	byClaim map[solana.PublicKey]Entry

	readyOnce sync.Once
	readyCh   chan struct{}
}

func NewView(cfg Config) (*View, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &View{
		log:     cfg.Logger,
		cfg:     cfg,
		byClaim: make(map[solana.PublicKey]Entry),
		readyCh: make(chan struct{}),
	}, nil
}

func (v *View) Ready() bool {
	select {
	case <-v.readyCh:
		return true
	default:
		return false
	}
}

func (v *View) WaitReady(ctx context.Context) error {
	select {
	case <-v.readyCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("proofcache: context cancelled while waiting for readiness: %w", ctx.Err())
	}
}

// Lookup returns the proof entry for claimant, if one was present in the
// most recently loaded artifact set.
func (v *View) Lookup(claimant solana.PublicKey) (Entry, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	e, ok := v.byClaim[claimant]
	return e, ok
}

// Len reports how many claimants the cache currently indexes.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.byClaim)
}

func (v *View) Start(ctx context.Context) {
	go func() {
		v.log.Info("proofcache: starting refresh loop", "interval", v.cfg.RefreshInterval)
		v.safeRefresh(ctx)

		ticker := v.cfg.Clock.NewTicker(v.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				v.safeRefresh(ctx)
			}
		}
	}()
}

func (v *View) safeRefresh(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error("proofcache: refresh panicked", "panic", r)
			metrics.ViewRefreshTotal.WithLabelValues("proofcache", "panic").Inc()
		}
	}()

	if err := v.Refresh(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		v.log.Error("proofcache: refresh failed", "error", err)
		metrics.ViewRefreshTotal.WithLabelValues("proofcache", "error").Inc()
		return
	}
	metrics.ViewRefreshTotal.WithLabelValues("proofcache", "ok").Inc()
}

// Refresh loads the current shard artifact set and atomically swaps it
// in. A failed refresh leaves the previous snapshot in place.
func (v *View) Refresh(ctx context.Context) error {
	start := time.Now()

	artifacts, err := v.cfg.Loader.LoadShards(ctx)
	if err != nil {
		return fmt.Errorf("proofcache: load shards: %w", err)
	}

	index := make(map[solana.PublicKey]Entry, len(v.byClaim))
	for _, a := range artifacts {
		for _, n := range a.TreeNodes {
			leaf, err := n.ToLeaf()
			if err != nil {
				v.log.Warn("proofcache: skipping tree node with invalid claimant", "shard_index", a.ShardIndex, "error", err)
				continue
			}
			index[leaf.Claimant] = Entry{ShardIndex: a.ShardIndex, MerkleRoot: a.MerkleRoot, Node: n}
		}
		metrics.ProofCacheNodesLoaded.WithLabelValues(fmt.Sprint(a.ShardIndex)).Set(float64(len(a.TreeNodes)))
	}

	v.mu.Lock()
	v.byClaim = index
	v.mu.Unlock()

	v.readyOnce.Do(func() { close(v.readyCh) })

	metrics.ViewRefreshDuration.WithLabelValues("proofcache").Observe(time.Since(start).Seconds())
	v.log.Info("proofcache: refresh completed", "claimants", len(index), "shards", len(artifacts))
	return nil
}
