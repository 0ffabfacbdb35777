package handlers

import (
	"net/http"
	"strconv"

	"github.com/printdesk/printdesk/internal/httpx"
	"github.com/printdesk/printdesk/internal/services"
)

// RecommendationHandler exposes supplier scoring and the weight configuration.
type RecommendationHandler struct {
	Scoring *services.ScoringService
}

func NewRecommendationHandler(s *services.ScoringService) *RecommendationHandler {
	return &RecommendationHandler{Scoring: s}
}

// BySKU: GET /api/recommendations/sku/{skuId}?quantity=N
func (h *RecommendationHandler) BySKU(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	skuID, ok := pathID(w, r, "skuId")
	if !ok {
		return
	}
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_quantity", nil)
		return
	}
	recs, err := h.Scoring.RecommendSuppliers(r.Context(), actor, skuID, quantity)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, recs)
}

// ByCategory: POST /api/recommendations/category
func (h *RecommendationHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Items []services.BundleItem `json:"items"`
	}
	if !decode(w, r, &req) {
		return
	}
	recs, err := h.Scoring.RecommendByCategory(r.Context(), actor, req.Items)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, recs)
}

// GetWeights: GET /api/weights
func (h *RecommendationHandler) GetWeights(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	weights, err := h.Scoring.Weights(r.Context())
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, weights)
}

// UpdateWeights: PUT /api/weights — admin only.
func (h *RecommendationHandler) UpdateWeights(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req services.WeightsInput
	if !decode(w, r, &req) {
		return
	}
	weights, err := h.Scoring.UpdateWeights(r.Context(), actor, req)
	if err != nil {
		httpx.DomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, weights)
}
