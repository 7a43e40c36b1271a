package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/malbeclabs/merkle-distributor/pkg/claimcache"
	"github.com/malbeclabs/merkle-distributor/pkg/proofcache"
)

// Config wires the cache server's dependencies. ShardDistributors maps
// each shard index to the on-chain address of the distributor created
// for it — the shard→distributor binding happens at new-distributor time
// and isn't recoverable from the shard artifact alone, so the operator
// supplies it.
type Config struct {
	Logger  *slog.Logger
	Clock   clockwork.Clock
	Proofs  *proofcache.View
	Claims  *claimcache.Cache

	DistributorScanner DistributorScanner
	ShardDistributors  map[int]solana.PublicKey

	DistributorRefreshInterval time.Duration
	RequestTimeout             time.Duration

	ListenAddr      string
	ShutdownTimeout time.Duration

	AllowedOrigins []string // CORS allowlist; "*" allows any origin

	RateLimit rate.Limit
	RateBurst int

	SentryDSN string
}

func (cfg *Config) validate() error {
	if cfg.Logger == nil {
		return errors.New("server: logger is required")
	}
	if cfg.Proofs == nil {
		return errors.New("server: proof cache is required")
	}
	if cfg.Claims == nil {
		return errors.New("server: claim cache is required")
	}
	if cfg.DistributorScanner == nil {
		return errors.New("server: distributor scanner is required")
	}
	if cfg.ListenAddr == "" {
		return errors.New("server: listen addr is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.DistributorRefreshInterval <= 0 {
		cfg.DistributorRefreshInterval = time.Minute
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = rate.Every(time.Minute / 300)
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 30
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return nil
}
