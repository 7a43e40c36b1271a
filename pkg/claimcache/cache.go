// Package claimcache keeps an in-memory, live-updated mirror of every
// ClaimStatus account for a distributor program: a bulk scan on
// startup, followed by a websocket subscription that applies updates as
// they land, with unbounded reconnect-with-backoff and full
// reconciliation on every resubscribe (a missed update during a
// disconnect must never go unnoticed).
package claimcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/malbeclabs/merkle-distributor/internal/retry"
	"github.com/malbeclabs/merkle-distributor/pkg/metrics"
	"github.com/malbeclabs/merkle-distributor/pkg/onchain"
)

// maxConcurrentDecodes bounds how many accounts a single scan decodes at
// once — a bulk getProgramAccounts response can run into the tens of
// thousands of accounts once a program has been live for a while.
const maxConcurrentDecodes = 16

// RawAccount is a claim-status account as read off the wire, before
// Borsh decoding.
type RawAccount struct {
	Pubkey solana.PublicKey
	Data   []byte
}

// Scanner performs a one-shot getProgramAccounts-style bulk fetch of
// every ClaimStatus account under a program.
type Scanner interface {
	ScanClaimStatuses(ctx context.Context, programID solana.PublicKey) ([]RawAccount, error)
}

// Subscriber opens a programSubscribe-style live feed of ClaimStatus
// account updates. The returned channel closes when the subscription
// drops; the returned close func releases the subscription's resources.
type Subscriber interface {
	SubscribeClaimStatuses(ctx context.Context, programID solana.PublicKey) (<-chan RawAccount, func() error, error)
}

type Config struct {
	Logger            *slog.Logger
	Clock             clockwork.Clock
	ProgramID         solana.PublicKey
	Scanner           Scanner
	Subscriber        Subscriber
	ReconcileInterval time.Duration // full re-scan cadence as a safety net against missed updates
}

func (cfg *Config) validate() error {
	if cfg.Logger == nil {
		return errors.New("claimcache: logger is required")
	}
	if cfg.Scanner == nil {
		return errors.New("claimcache: scanner is required")
	}
	if cfg.Subscriber == nil {
		return errors.New("claimcache: subscriber is required")
	}
	if cfg.ProgramID.IsZero() {
		return errors.New("claimcache: program id is required")
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = 10 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Cache is the live, concurrency-safe view of claim-status accounts.
type Cache struct {
	log *slog.Logger
	cfg Config

	mu      sync.RWMutex
	byClaim map[solana.PublicKey]*onchain.ClaimStatus // keyed by claimant, not by the PDA address

	readyOnce sync.Once
	readyCh   chan struct{}
}

func New(cfg Config) (*Cache, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Cache{
		log:     cfg.Logger,
		cfg:     cfg,
		byClaim: make(map[solana.PublicKey]*onchain.ClaimStatus),
		readyCh: make(chan struct{}),
	}, nil
}

func (c *Cache) Ready() bool {
	select {
	case <-c.readyCh:
		return true
	default:
		return false
	}
}

func (c *Cache) WaitReady(ctx context.Context) error {
	select {
	case <-c.readyCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("claimcache: context cancelled while waiting for readiness: %w", ctx.Err())
	}
}

// Get returns the cached claim status for claimant, if tracked.
func (c *Cache) Get(claimant solana.PublicKey) (*onchain.ClaimStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cs, ok := c.byClaim[claimant]
	return cs, ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byClaim)
}

// Start runs the bulk scan once synchronously, then launches the
// subscribe-and-reconcile supervisor in the background. Start returns once
// the initial scan has completed, with the cache already marked ready; it
// does not wait on the subscription.
func (c *Cache) Start(ctx context.Context) error {
	if err := c.scan(ctx); err != nil {
		return fmt.Errorf("claimcache: initial scan failed: %w", err)
	}
	c.readyOnce.Do(func() { close(c.readyCh) })

	go c.supervise(ctx)
	return nil
}

// supervise runs the subscription loop forever, reconnecting with
// unbounded backoff on every drop and performing a full reconciling
// re-scan immediately after each successful (re)connect — a dropped
// connection may have silently missed updates, so the cache can never
// trust that a stream resumed cleanly.
func (c *Cache) supervise(ctx context.Context) {
	cfg := retry.UnboundedConfig()
	for {
		if ctx.Err() != nil {
			return
		}
		err := retry.Do(ctx, cfg, func() error {
			return c.runOneSubscription(ctx)
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.log.Error("claimcache: subscription loop exited with error, retrying", "error", err)
			metrics.ClaimCacheReconnectsTotal.WithLabelValues("error").Inc()
		}
	}
}

func (c *Cache) runOneSubscription(ctx context.Context) error {
	updates, closeSub, err := c.cfg.Subscriber.SubscribeClaimStatuses(ctx, c.cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer closeSub()

	c.log.Info("claimcache: subscription established, reconciling")
	metrics.ClaimCacheReconnectsTotal.WithLabelValues("connected").Inc()
	if err := c.scan(ctx); err != nil {
		return fmt.Errorf("post-subscribe reconcile scan: %w", err)
	}

	ticker := c.cfg.Clock.NewTicker(c.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-updates:
			if !ok {
				return errors.New("subscription channel closed")
			}
			c.applyUpdate(raw)
		case <-ticker.Chan():
			if err := c.scan(ctx); err != nil {
				c.log.Warn("claimcache: periodic reconcile scan failed", "error", err)
			}
		}
	}
}

// scan performs one full bulk re-scan, decoding accounts with bounded
// concurrency since a mature program's account set can run into the tens
// of thousands. runID tags every log line from this pass so a reader can
// correlate "scan started"/"scan complete" and any decode warnings
// between them back to the same reconciliation pass.
func (c *Cache) scan(ctx context.Context) error {
	runID := uuid.NewString()

	raws, err := c.cfg.Scanner.ScanClaimStatuses(ctx, c.cfg.ProgramID)
	if err != nil {
		return err
	}
	c.log.Info("claimcache: scan started", "run_id", runID, "accounts_fetched", len(raws))

	decoded := make([]*onchain.ClaimStatus, len(raws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDecodes)
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			cs, err := onchain.UnmarshalClaimStatus(raw.Data)
			if err != nil {
				c.log.Warn("claimcache: skipping undecodable account", "run_id", runID, "pubkey", raw.Pubkey.String(), "error", err)
				return nil
			}
			decoded[i] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("claimcache: scan %s: %w", runID, err)
	}

	next := make(map[solana.PublicKey]*onchain.ClaimStatus, len(decoded))
	for _, cs := range decoded {
		if cs != nil {
			next[cs.Claimant] = cs
		}
	}

	c.mu.Lock()
	c.byClaim = next
	c.mu.Unlock()

	metrics.ClaimCacheAccountsTracked.Set(float64(len(next)))
	c.log.Info("claimcache: scan complete", "run_id", runID, "accounts", len(next))
	return nil
}

func (c *Cache) applyUpdate(raw RawAccount) {
	cs, err := onchain.UnmarshalClaimStatus(raw.Data)
	if err != nil {
		c.log.Warn("claimcache: skipping undecodable update", "pubkey", raw.Pubkey.String(), "error", err)
		return
	}

	c.mu.Lock()
	c.byClaim[cs.Claimant] = cs
	count := len(c.byClaim)
	c.mu.Unlock()

	metrics.ClaimCacheAccountsTracked.Set(float64(count))
}
