package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nchatharoo/FeaturesVote/internal/core/domain"
	"github.com/nchatharoo/FeaturesVote/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
}

func NewVoteHandler(service ports.VoteService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteResponse struct {
	FeatureID string    `json:"feature_id"`
	VotedAt   time.Time `json:"voted_at"`
	Notified  bool      `json:"notified"`
	Warning   string    `json:"warning,omitempty"`
}

func (h *VoteHandler) VoteOnFeature(w http.ResponseWriter, r *http.Request) {
	featureID := chi.URLParam(r, "id")
	if featureID == "" {
		http.Error(w, "feature id is required", http.StatusBadRequest)
		return
	}

	receipt, err := h.service.AttemptVote(r.Context(), featureID)
	if err != nil {
		if errors.Is(err, domain.ErrFeatureNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if errors.Is(err, domain.ErrAlreadyVoted) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if errors.Is(err, domain.ErrRateLimited) {
			http.Error(w, err.Error(), http.StatusTooManyRequests)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := voteResponse{
		FeatureID: receipt.FeatureID,
		VotedAt:   receipt.VotedAt,
		Notified:  receipt.Notified,
	}
	// The vote counted even when the relay failed; tell the caller
	// which of the two happened.
	if receipt.NotifyErr != nil {
		resp.Warning = receipt.NotifyErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *VoteHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.VotedFeatureIDs(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"voted_feature_ids": ids})
}
