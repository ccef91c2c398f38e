package http

import (
	"encoding/json"
	"net/http"

	"github.com/nchatharoo/FeaturesVote/internal/core/ports"
)

type FeatureHandler struct {
	service ports.VoteService
}

func NewFeatureHandler(service ports.VoteService) *FeatureHandler {
	return &FeatureHandler{
		service: service,
	}
}

type featureResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Voted       bool   `json:"voted"`
}

func (h *FeatureHandler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.Features(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	features := make([]featureResponse, 0, len(statuses))
	for _, s := range statuses {
		features = append(features, featureResponse{
			ID:          s.Feature.ID,
			Title:       s.Feature.Title,
			Description: s.Feature.Description,
			Voted:       s.Voted,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(features)
}
