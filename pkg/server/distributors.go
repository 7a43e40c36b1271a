package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/malbeclabs/merkle-distributor/pkg/onchain"
)

// DistributorRecord pairs a Distributor account with the address it
// lives at — the account itself doesn't carry its own address.
type DistributorRecord struct {
	Address     solana.PublicKey
	Distributor *onchain.Distributor
}

// DistributorScanner performs a bulk fetch of every Distributor account
// under the program, the same shape as claimcache.Scanner but for a
// different discriminator. GET /distributors refreshes from this
// periodically rather than on every request.
type DistributorScanner interface {
	ScanDistributors(ctx context.Context) ([]DistributorRecord, error)
}

// SolanaDistributorScanner implements DistributorScanner against a live
// RPC endpoint.
type SolanaDistributorScanner struct {
	Client    *rpc.Client
	ProgramID solana.PublicKey
}

func (s SolanaDistributorScanner) ScanDistributors(ctx context.Context) ([]DistributorRecord, error) {
	out, err := s.Client.GetProgramAccountsWithOpts(ctx, s.ProgramID, &rpc.GetProgramAccountsOpts{
		Encoding: solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: 0, Bytes: onchain.DiscriminatorDistributor[:]}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("server: getProgramAccounts for distributors: %w", err)
	}

	records := make([]DistributorRecord, 0, len(out))
	for _, kv := range out {
		d, err := onchain.UnmarshalDistributor(kv.Account.Data.GetBinary())
		if err != nil {
			continue
		}
		records = append(records, DistributorRecord{Address: kv.Pubkey, Distributor: d})
	}
	return records, nil
}

// distributorsCache is a small periodically-refreshed read cache; unlike
// proofcache and claimcache it has no dedicated package since it's only
// consumed from within pkg/server.
type distributorsCache struct {
	mu      sync.RWMutex
	records []DistributorRecord
	byAddr  map[solana.PublicKey]*onchain.Distributor
}

func newDistributorsCache() *distributorsCache {
	return &distributorsCache{byAddr: make(map[solana.PublicKey]*onchain.Distributor)}
}

func (c *distributorsCache) set(records []DistributorRecord) {
	byAddr := make(map[solana.PublicKey]*onchain.Distributor, len(records))
	for _, r := range records {
		byAddr[r.Address] = r.Distributor
	}
	c.mu.Lock()
	c.records = records
	c.byAddr = byAddr
	c.mu.Unlock()
}

func (c *distributorsCache) list() []DistributorRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]DistributorRecord{}, c.records...)
}

func (c *distributorsCache) get(addr solana.PublicKey) (*onchain.Distributor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byAddr[addr]
	return d, ok
}
