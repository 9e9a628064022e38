package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/gameselect/internal/domain/types"
	"github.com/okian/gameselect/pkg/logger"
)

// Smoke exercises a running service end to end: health check, one
// excitement-mode recommendation and one similarity-mode recommendation
// seeded with the first result of the former.
func Smoke(ctx context.Context, cfg *Config) error {
	log := logger.Get()
	log.Info(ctx, "running smoke check", logger.String("baseURL", cfg.BaseURL))

	client := &http.Client{Timeout: cfg.Timeout}

	if err := checkHealth(ctx, client, cfg.BaseURL); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	rec, err := requestRecommendation(ctx, client, cfg, nil)
	if err != nil {
		return fmt.Errorf("excitement recommendation failed: %w", err)
	}
	if err := verifyRecommendation(rec, nil, cfg.TopN); err != nil {
		return fmt.Errorf("excitement recommendation invalid: %w", err)
	}
	if rec.Mode != "excitement" {
		return fmt.Errorf("expected excitement mode without liked games, got %q", rec.Mode)
	}
	log.Info(ctx, "excitement recommendation verified", logger.Int("games", len(rec.Games)))

	if len(rec.Games) == 0 {
		log.Warn(ctx, "no games returned, skipping similarity check")
		return nil
	}

	liked := []string{rec.Games[0].GameID}
	simRec, err := requestRecommendation(ctx, client, cfg, liked)
	if err != nil {
		return fmt.Errorf("similarity recommendation failed: %w", err)
	}
	if err := verifyRecommendation(simRec, liked, cfg.TopN); err != nil {
		return fmt.Errorf("similarity recommendation invalid: %w", err)
	}
	if simRec.Mode != "similarity" {
		return fmt.Errorf("expected similarity mode with liked games, got %q", simRec.Mode)
	}
	log.Info(ctx, "similarity recommendation verified", logger.Int("games", len(simRec.Games)))

	log.Info(ctx, "smoke check completed")
	return nil
}

func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func requestRecommendation(ctx context.Context, client *http.Client, cfg *Config, liked []string) (types.Recommendation, error) {
	body, err := json.Marshal(map[string]any{
		"liked_game_ids": liked,
		"days":           cfg.Days,
		"games":          cfg.TopN,
	})
	if err != nil {
		return types.Recommendation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/recommend", bytes.NewReader(body))
	if err != nil {
		return types.Recommendation{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return types.Recommendation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Recommendation{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var rec types.Recommendation
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return types.Recommendation{}, err
	}
	return rec, nil
}

// verifyRecommendation checks the structural invariants of a ranked
// response: contiguous ranks from one, bounded size, and no liked games
// echoed back.
func verifyRecommendation(rec types.Recommendation, liked []string, topN int) error {
	if len(rec.Games) > topN {
		return fmt.Errorf("got %d games, requested at most %d", len(rec.Games), topN)
	}
	likedSet := make(map[string]struct{}, len(liked))
	for _, id := range liked {
		likedSet[id] = struct{}{}
	}
	for i, g := range rec.Games {
		if g.Rank != i+1 {
			return fmt.Errorf("game %s has rank %d at position %d", g.GameID, g.Rank, i+1)
		}
		if g.GameID == "" {
			return fmt.Errorf("empty game id at rank %d", g.Rank)
		}
		if _, ok := likedSet[g.GameID]; ok {
			return fmt.Errorf("liked game %s echoed back at rank %d", g.GameID, g.Rank)
		}
	}
	return nil
}
