// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/gameselect/internal/domain/recommend"
)

const defaultRecommendCount = 5

// recommendRequest mirrors the request schema for POST /api/recommend.
type recommendRequest struct {
	LikedGameIDs []string `json:"liked_game_ids"`
	Days         int      `json:"days"`
	Games        int      `json:"games"`
}

func (r recommendRequest) validate(maxCount int) error {
	if r.Days < 0 {
		return fmt.Errorf("%w: days must not be negative", ErrBadRequest)
	}
	if r.Games < 0 {
		return fmt.Errorf("%w: games must not be negative", ErrBadRequest)
	}
	if r.Games > maxCount {
		return fmt.Errorf("%w: games must not exceed %d", ErrBadRequest, maxCount)
	}
	for _, id := range r.LikedGameIDs {
		if id == "" {
			return fmt.Errorf("%w: liked_game_ids must not contain empty ids", ErrBadRequest)
		}
	}
	return nil
}

// RecommendHandler handles recommendation requests.
type RecommendHandler struct {
	deps     Dependencies
	maxCount int
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(deps Dependencies, maxCount int) *RecommendHandler {
	return &RecommendHandler{deps: deps, maxCount: maxCount}
}

// HandleRecommend handles POST /api/recommend requests.
func (h *RecommendHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(h.maxCount); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Games == 0 {
		req.Games = defaultRecommendCount
	}

	rec, err := h.deps.Recommend(r.Context(), req.LikedGameIDs, req.Days, req.Games)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrInvalidTopN):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		case errors.Is(err, recommend.ErrEmptyCandidateWindow):
			writeError(w, http.StatusNotFound, "no_candidates", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
