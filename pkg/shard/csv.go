// Package shard partitions an allocation list into bounded shards and
// builds a self-describing Merkle artifact for each one.
package shard

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/malbeclabs/merkle-distributor/pkg/merkle"
)

// ParseCSV reads rows of `pubkey,unlocked,locked` (header required) in
// input order, the order leaves must appear under in the tree. An empty
// `locked` field defaults to 0, matching the original Rust builder's
// leniency for optional locked amounts.
func ParseCSV(r io.Reader) ([]merkle.Leaf, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("shard: failed to read CSV header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	var leaves []merkle.Leaf
	row := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("shard: failed to read CSV row %d: %w", row, err)
		}
		row++

		leaf, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("shard: row %d: %w", row, err)
		}
		leaves = append(leaves, leaf)
	}
	return leaves, nil
}

func validateHeader(header []string) error {
	if len(header) < 2 {
		return fmt.Errorf("shard: CSV header must have at least pubkey,unlocked columns, got %v", header)
	}
	if strings.TrimSpace(strings.ToLower(header[0])) != "pubkey" {
		return fmt.Errorf("shard: CSV header column 0 must be %q, got %q", "pubkey", header[0])
	}
	if strings.TrimSpace(strings.ToLower(header[1])) != "unlocked" {
		return fmt.Errorf("shard: CSV header column 1 must be %q, got %q", "unlocked", header[1])
	}
	return nil
}

func parseRow(rec []string) (merkle.Leaf, error) {
	if len(rec) < 2 {
		return merkle.Leaf{}, fmt.Errorf("expected at least pubkey,unlocked, got %v", rec)
	}

	pubkeyStr := strings.TrimSpace(rec[0])
	if pubkeyStr == "" {
		return merkle.Leaf{}, fmt.Errorf("pubkey column is required")
	}
	pubkey, err := solana.PublicKeyFromBase58(pubkeyStr)
	if err != nil {
		return merkle.Leaf{}, fmt.Errorf("invalid pubkey %q: %w", pubkeyStr, err)
	}

	unlockedStr := strings.TrimSpace(rec[1])
	if unlockedStr == "" {
		return merkle.Leaf{}, fmt.Errorf("unlocked column is required")
	}
	unlocked, err := strconv.ParseUint(unlockedStr, 10, 64)
	if err != nil {
		return merkle.Leaf{}, fmt.Errorf("invalid unlocked amount %q: %w", unlockedStr, err)
	}

	var locked uint64
	if len(rec) > 2 {
		lockedStr := strings.TrimSpace(rec[2])
		if lockedStr != "" {
			locked, err = strconv.ParseUint(lockedStr, 10, 64)
			if err != nil {
				return merkle.Leaf{}, fmt.Errorf("invalid locked amount %q: %w", lockedStr, err)
			}
		}
	}

	return merkle.Leaf{Claimant: pubkey, UnlockedAmount: unlocked, LockedAmount: locked}, nil
}
