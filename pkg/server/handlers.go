package server

import (
	"encoding/json"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"

	"github.com/malbeclabs/merkle-distributor/pkg/onchain"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Proofs.Ready() || !s.cfg.Claims.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleListDistributors(w http.ResponseWriter, r *http.Request) {
	now := s.cfg.Clock.Now().Unix()
	records := s.distributors.list()
	dtos := make([]DistributorDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, newDistributorDTO(rec.Address.String(), rec.Distributor, now))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	claimant, err := parseClaimant(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claimant id")
		return
	}

	entry, ok := s.cfg.Proofs.Lookup(claimant)
	if !ok {
		writeError(w, http.StatusNotFound, "no proof found for claimant")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		MerkleTree:     entry.ShardIndex,
		Proof:          entry.Node.Proof,
		UnlockedAmount: entry.Node.AmountUnlocked,
		LockedAmount:   entry.Node.AmountLocked,
	})
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	claimant, err := parseClaimant(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claimant id")
		return
	}

	cs, ok := s.cfg.Claims.Get(claimant)
	if !ok {
		writeError(w, http.StatusNotFound, "no claim record found for claimant")
		return
	}
	writeJSON(w, http.StatusOK, newClaimResponse(cs))
}

func (s *Server) handleGetEligibility(w http.ResponseWriter, r *http.Request) {
	claimant, err := parseClaimant(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid claimant id")
		return
	}

	entry, ok := s.cfg.Proofs.Lookup(claimant)
	if !ok {
		writeError(w, http.StatusNotFound, "no proof found for claimant")
		return
	}

	now := s.cfg.Clock.Now().Unix()
	var startTs, endTs int64
	if addr, ok := s.cfg.ShardDistributors[entry.ShardIndex]; ok {
		if d, ok := s.distributors.get(addr); ok {
			startTs, endTs = d.StartTs, d.EndTs
		}
	}

	var claimedAmount uint64
	if cs, ok := s.cfg.Claims.Get(claimant); ok {
		claimedAmount = cs.UnlockedAmountClaimed + cs.LockedAmountWithdrawn
	}

	vested := onchain.VestedAmount(entry.Node.AmountLocked, startTs, endTs, now)

	var pctVested float64
	if entry.Node.AmountLocked > 0 {
		pctVested = float64(vested) / float64(entry.Node.AmountLocked)
	}

	writeJSON(w, http.StatusOK, EligibilityResponse{
		MerkleTree:    entry.ShardIndex,
		Proof:         entry.Node.Proof,
		ClaimedAmount: claimedAmount,
		StartTs:       startTs,
		EndTs:         endTs,
		StartAmount:   entry.Node.AmountUnlocked + vested,
		EndAmount:     entry.Node.AmountUnlocked + entry.Node.AmountLocked,
		PctVested:     pctVested,
		Consistency:   "eventual",
	})
}

func parseClaimant(id string) (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(id)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
