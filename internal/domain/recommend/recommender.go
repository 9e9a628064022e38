// Package recommend orchestrates the scoring pipeline: it resolves feature
// vectors through the read-through cache, scores every candidate by
// similarity to the liked set (or by excitement when no likes resolve),
// and returns the top-N game identifiers.
package recommend

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/okian/gameselect/internal/domain/model"
	"github.com/okian/gameselect/internal/domain/similarity"
)

// scoreEpsilon is the floating-point tolerance within which two candidate
// scores count as tied.
const scoreEpsilon = 1e-9

const defaultParallelism = 8

// Mode names which scoring path ranked a request.
type Mode string

// Scoring modes.
const (
	ModeSimilarity Mode = "similarity"
	ModeExcitement Mode = "excitement"
)

// FeatureSource resolves a game to its extracted state, computing and
// caching on demand.
type FeatureSource interface {
	GetOrCompute(ctx context.Context, gameID string) (model.FeatureVector, model.GameAttributes, error)
}

// Result carries the ranked identifiers plus the bookkeeping the caller
// needs for logging and metrics. Candidates whose extraction failed are
// excluded from the ranking, never scored as zero; Excluded records why,
// for both unresolvable candidates and unresolvable liked games.
type Result struct {
	RankedIDs []string
	Mode      Mode
	Excluded  map[string]error
}

// Option applies a configuration option to the Recommender.
type Option func(*Recommender)

// WithParallelism bounds the number of candidates scored concurrently.
func WithParallelism(n int) Option {
	return func(r *Recommender) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// WithSimilarityWeights overrides the similarity weight configuration.
func WithSimilarityWeights(w similarity.Weights) Option {
	return func(r *Recommender) {
		r.weights = w
	}
}

// Recommender ranks candidate games for one user request at a time. It is
// stateless between calls and safe for concurrent use.
type Recommender struct {
	source      FeatureSource
	weights     similarity.Weights
	parallelism int
}

// New builds a recommender over the given feature source. The similarity
// weights are validated on first use per request; invalid weights surface
// as an error from Recommend.
func New(source FeatureSource, opts ...Option) *Recommender {
	r := &Recommender{
		source:      source,
		weights:     similarity.DefaultWeights(),
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend scores every candidate and returns the top-N by score.
//
// When likedIDs is non-empty and at least one liked game resolves to a
// feature vector, candidates are scored by similarity to the liked set;
// otherwise ranking falls back to the excitement score. Ties within
// floating-point tolerance rank the more recent game first.
func (r *Recommender) Recommend(ctx context.Context, candidateIDs, likedIDs []string, topN int) (Result, error) {
	if len(candidateIDs) == 0 {
		return Result{}, ErrEmptyCandidateWindow
	}
	if topN < 1 {
		return Result{}, ErrInvalidTopN
	}

	excluded := make(map[string]error)

	liked := make([]similarity.Liked, 0, len(likedIDs))
	for _, id := range likedIDs {
		vec, attrs, err := r.source.GetOrCompute(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			excluded[id] = err
			continue
		}
		liked = append(liked, similarity.Liked{Vector: vec, Attributes: attrs})
	}

	mode := ModeExcitement
	var engine *similarity.Engine
	if len(liked) > 0 {
		var err error
		engine, err = similarity.NewEngine(r.weights, liked)
		if err != nil {
			return Result{}, err
		}
		mode = ModeSimilarity
	}

	scored, err := r.scoreAll(ctx, candidateIDs, engine, excluded)
	if err != nil {
		return Result{}, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if math.Abs(scored[i].score-scored[j].score) > scoreEpsilon {
			return scored[i].score > scored[j].score
		}
		if !scored[i].datetime.Equal(scored[j].datetime) {
			return scored[i].datetime.After(scored[j].datetime)
		}
		return scored[i].gameID < scored[j].gameID
	})

	if len(scored) > topN {
		scored = scored[:topN]
	}
	ranked := make([]string, len(scored))
	for i, s := range scored {
		ranked[i] = s.gameID
	}
	return Result{RankedIDs: ranked, Mode: mode, Excluded: excluded}, nil
}

type rankedEntry struct {
	gameID   string
	score    float64
	datetime time.Time
}

// scoreAll resolves and scores candidates with bounded parallelism. Each
// candidate depends only on its own vector and the shared read-only engine,
// so workers need no coordination beyond the semaphore.
func (r *Recommender) scoreAll(ctx context.Context, candidateIDs []string, engine *similarity.Engine, excluded map[string]error) ([]rankedEntry, error) {
	entries := make([]*rankedEntry, len(candidateIDs))
	sem := make(chan struct{}, r.parallelism)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i, id := range candidateIDs {
		wg.Add(1)
		go func(slot int, gameID string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			vec, attrs, err := r.source.GetOrCompute(ctx, gameID)
			if err != nil {
				mu.Lock()
				excluded[gameID] = err
				mu.Unlock()
				return
			}
			score := vec.ExcitementScore
			if engine != nil {
				score = engine.Score(vec, attrs)
			}
			entries[slot] = &rankedEntry{gameID: gameID, score: score, datetime: attrs.Datetime}
		}(i, id)
	}
	wg.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	scored := make([]rankedEntry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			scored = append(scored, *e)
		}
	}
	return scored, nil
}
