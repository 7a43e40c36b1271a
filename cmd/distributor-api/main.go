// Command distributor-api serves the read-only proof/claim query surface:
// it loads published shard artifacts into an in-memory proof cache, mirrors
// every ClaimStatus account from the configured program, and answers
// eligibility/claim/distributor lookups over HTTP.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/malbeclabs/merkle-distributor/internal/logger"
	"github.com/malbeclabs/merkle-distributor/pkg/claimcache"
	"github.com/malbeclabs/merkle-distributor/pkg/metrics"
	"github.com/malbeclabs/merkle-distributor/pkg/proofcache"
	"github.com/malbeclabs/merkle-distributor/pkg/server"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
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
	listenAddrFlag := flag.String("listen-addr", ":8080", "address to serve the query API on (or set LISTEN_ADDR)")
	metricsAddrFlag := flag.String("metrics-listen-addr", ":9090", "address to serve /metrics on (or set METRICS_LISTEN_ADDR)")
	shardDirFlag := flag.String("shard-dir", "./shards", "directory of published shard-<n>.json artifacts (or set SHARD_DIR)")
	rpcEndpointFlag := flag.String("rpc-endpoint", "https://api.mainnet-beta.solana.com", "Solana RPC HTTP endpoint (or set RPC_ENDPOINT)")
	wsEndpointFlag := flag.String("ws-endpoint", "wss://api.mainnet-beta.solana.com", "Solana RPC websocket endpoint (or set WS_ENDPOINT)")
	programIDFlag := flag.String("program-id", "", "distribution program id (or set PROGRAM_ID)")
	shardDistributorsFlag := flag.String("shard-distributors", "", "comma-separated shardIndex:distributorAddress pairs (or set SHARD_DISTRIBUTORS)")
	refreshIntervalFlag := flag.Duration("proof-refresh-interval", 30*time.Second, "how often to reload shard artifacts")
	sentryDSNFlag := flag.String("sentry-dsn", "", "Sentry DSN for panic/error reporting (or set SENTRY_DSN)")
	rateLimitFlag := flag.Float64("rate-limit-per-minute", 300, "per-IP request rate limit, in requests per minute")
	rateBurstFlag := flag.Int("rate-burst", 30, "per-IP burst allowance")
	allowedOriginsFlag := flag.String("allowed-origins", "*", "comma-separated CORS allowed origins")
	flag.Parse()

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		*listenAddrFlag = v
	}
	if v := os.Getenv("METRICS_LISTEN_ADDR"); v != "" {
		*metricsAddrFlag = v
	}
	if v := os.Getenv("SHARD_DIR"); v != "" {
		*shardDirFlag = v
	}
	if v := os.Getenv("RPC_ENDPOINT"); v != "" {
		*rpcEndpointFlag = v
	}
	if v := os.Getenv("WS_ENDPOINT"); v != "" {
		*wsEndpointFlag = v
	}
	if v := os.Getenv("PROGRAM_ID"); v != "" {
		*programIDFlag = v
	}
	if v := os.Getenv("SHARD_DISTRIBUTORS"); v != "" {
		*shardDistributorsFlag = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		*sentryDSNFlag = v
	}

	log := logger.New("distributor-api", *verboseFlag)
	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	if *programIDFlag == "" {
		return fmt.Errorf("--program-id is required")
	}
	programID, err := solana.PublicKeyFromBase58(*programIDFlag)
	if err != nil {
		return fmt.Errorf("parse --program-id: %w", err)
	}

	shardDistributors, err := parseShardDistributors(*shardDistributorsFlag)
	if err != nil {
		return fmt.Errorf("parse --shard-distributors: %w", err)
	}

	clock := clockwork.NewRealClock()
	rpcClient := rpc.New(*rpcEndpointFlag)

	proofs, err := proofcache.NewView(proofcache.Config{
		Logger:          log,
		Clock:           clock,
		Loader:          proofcache.DirLoader{Dir: *shardDirFlag},
		RefreshInterval: *refreshIntervalFlag,
	})
	if err != nil {
		return fmt.Errorf("build proof cache: %w", err)
	}

	claims, err := claimcache.New(claimcache.Config{
		Logger:     log,
		Clock:      clock,
		ProgramID:  programID,
		Scanner:    claimcache.SolanaScanner{Client: rpcClient},
		Subscriber: claimcache.SolanaSubscriber{WSEndpoint: *wsEndpointFlag},
	})
	if err != nil {
		return fmt.Errorf("build claim cache: %w", err)
	}

	srv, err := server.New(server.Config{
		Logger: log,
		Clock:  clock,
		Proofs: proofs,
		Claims: claims,
		DistributorScanner: server.SolanaDistributorScanner{
			Client:    rpcClient,
			ProgramID: programID,
		},
		ShardDistributors: shardDistributors,
		ListenAddr:        *listenAddrFlag,
		AllowedOrigins:    strings.Split(*allowedOriginsFlag, ","),
		RateLimit:         rate.Limit(*rateLimitFlag / 60),
		RateBurst:         *rateBurstFlag,
		SentryDSN:         *sentryDSNFlag,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	proofs.Start(ctx)
	if err := claims.Start(ctx); err != nil {
		return fmt.Errorf("start claim cache: %w", err)
	}

	metricsSrv := &http.Server{Addr: *metricsAddrFlag, Handler: promhttp.Handler()}
	go func() {
		log.Info("distributor-api: metrics listening", "address", *metricsAddrFlag)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("distributor-api: metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	return srv.Start(ctx)
}

func parseShardDistributors(s string) (map[int]solana.PublicKey, error) {
	out := map[int]solana.PublicKey{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid shard-distributor pair %q, want shardIndex:address", pair)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid shard index in %q: %w", pair, err)
		}
		addr, err := solana.PublicKeyFromBase58(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid distributor address in %q: %w", pair, err)
		}
		out[idx] = addr
	}
	return out, nil
}
