package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/merkle-distributor/internal/testutil"
	"github.com/malbeclabs/merkle-distributor/pkg/claimcache"
	"github.com/malbeclabs/merkle-distributor/pkg/merkle"
	"github.com/malbeclabs/merkle-distributor/pkg/onchain"
	"github.com/malbeclabs/merkle-distributor/pkg/proofcache"
	"github.com/malbeclabs/merkle-distributor/pkg/shard"
)

func testClaimant(b byte) solana.PublicKey {
	var pk solana.PublicKey
	pk[31] = b
	return pk
}

type staticShardLoader struct{ artifacts []*shard.Artifact }

func (l staticShardLoader) LoadShards(ctx context.Context) ([]*shard.Artifact, error) {
	return l.artifacts, nil
}

type emptyScanner struct{}

func (emptyScanner) ScanClaimStatuses(ctx context.Context, programID solana.PublicKey) ([]claimcache.RawAccount, error) {
	return nil, nil
}

type noopSubscriber struct{}

func (noopSubscriber) SubscribeClaimStatuses(ctx context.Context, programID solana.PublicKey) (<-chan claimcache.RawAccount, func() error, error) {
	ch := make(chan claimcache.RawAccount)
	return ch, func() error { return nil }, nil
}

type staticDistributorScanner struct{ records []DistributorRecord }

func (s staticDistributorScanner) ScanDistributors(ctx context.Context) ([]DistributorRecord, error) {
	return s.records, nil
}

func newTestServer(t *testing.T) (*Server, solana.PublicKey, solana.PublicKey) {
	t.Helper()

	claimantWithProof := testClaimant(1)
	leaf := merkle.Leaf{Claimant: claimantWithProof, UnlockedAmount: 1000, LockedAmount: 4000}
	artifacts, err := shard.Build([]merkle.Leaf{leaf}, 10)
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	proofs, err := proofcache.NewView(proofcache.Config{
		Logger:          testutil.NewLogger(),
		Clock:           clock,
		Loader:          staticShardLoader{artifacts: artifacts},
		RefreshInterval: time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, proofs.Refresh(context.Background()))

	claims, err := claimcache.New(claimcache.Config{
		Logger:     testutil.NewLogger(),
		Clock:      clock,
		ProgramID:  testClaimant(250),
		Scanner:    emptyScanner{},
		Subscriber: noopSubscriber{},
	})
	require.NoError(t, err)
	require.NoError(t, claims.Start(context.Background()))

	distributorAddr := testClaimant(77)
	d := &onchain.Distributor{
		StartTs:         clock.Now().Unix() - 100,
		EndTs:           clock.Now().Unix() + 100,
		ClawbackStartTs: clock.Now().Unix() + 100 + onchain.MinClawbackDelay,
	}

	srv, err := New(Config{
		Logger: testutil.NewLogger(),
		Clock:  clock,
		Proofs: proofs,
		Claims: claims,
		DistributorScanner: staticDistributorScanner{records: []DistributorRecord{
			{Address: distributorAddr, Distributor: d},
		}},
		ShardDistributors: map[int]solana.PublicKey{0: distributorAddr},
		ListenAddr:        "127.0.0.1:0",
	})
	require.NoError(t, err)
	require.NoError(t, srv.refreshDistributors(context.Background()))

	return srv, claimantWithProof, distributorAddr
}

func TestServer_GetUser_ReturnsProofForKnownClaimant(t *testing.T) {
	t.Parallel()
	srv, claimant, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/user/"+claimant.String(), nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, uint64(1000), body.UnlockedAmount)
	require.Equal(t, uint64(4000), body.LockedAmount)
}

func TestServer_GetUser_404sForUnknownClaimant(t *testing.T) {
	t.Parallel()
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/user/"+testClaimant(200).String(), nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["error"])
}

func TestServer_GetClaim_404sWhenUntracked(t *testing.T) {
	t.Parallel()
	srv, claimant, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/claim/"+claimant.String(), nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_GetEligibility_ComputesStartAndEndAmounts(t *testing.T) {
	t.Parallel()
	srv, claimant, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/eligibility/"+claimant.String(), nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body EligibilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, uint64(5000), body.EndAmount)
	require.GreaterOrEqual(t, body.StartAmount, uint64(1000))
	require.LessOrEqual(t, body.StartAmount, body.EndAmount)
}

func TestServer_ListDistributors_ReturnsScannedRecords(t *testing.T) {
	t.Parallel()
	srv, _, distributorAddr := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/distributors", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []DistributorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	require.Equal(t, distributorAddr.String(), body[0].Address)
	require.Equal(t, "active", body[0].State)
}

func TestServer_Healthz_AlwaysOK(t *testing.T) {
	t.Parallel()
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Readyz_ReflectsCacheReadiness(t *testing.T) {
	t.Parallel()
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
