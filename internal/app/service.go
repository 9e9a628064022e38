// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/gameselect/internal/adapters/cache"
	warmqueue "github.com/okian/gameselect/internal/adapters/mq/queue"
	workerpool "github.com/okian/gameselect/internal/adapters/mq/worker"
	"github.com/okian/gameselect/internal/adapters/provider"
	"github.com/okian/gameselect/internal/adapters/repository"
	"github.com/okian/gameselect/internal/domain/feature"
	"github.com/okian/gameselect/internal/domain/model"
	"github.com/okian/gameselect/internal/domain/pbp"
	"github.com/okian/gameselect/internal/domain/recommend"
	"github.com/okian/gameselect/internal/domain/scoring"
	"github.com/okian/gameselect/internal/domain/similarity"
	"github.com/okian/gameselect/internal/domain/types"
	"github.com/okian/gameselect/pkg/logger"
	"github.com/okian/gameselect/pkg/metrics"
)

// Service wires the catalog, feature pipeline and recommender together.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog     *repository.Catalog
	features    *cache.FeatureCache
	recommender *recommend.Recommender
	warmQueue   *warmqueue.InMemoryQueue
	workerPool  *workerpool.Pool
	upstream    *provider.Client

	// Configuration
	dbPath            string
	providerBaseURL   string
	providerRate      float64
	workerCount       int
	queueSize         int
	topNMax           int
	refreshDays       int
	excitementWeights scoring.Weights
	similarityWeights similarity.Weights
	roster            feature.Roster

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the SQLite database path backing the catalog.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithProviderBaseURL overrides the upstream stats API base URL.
func WithProviderBaseURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.providerBaseURL = url
		}
	}
}

// WithProviderRate throttles upstream requests per second.
func WithProviderRate(perSecond float64) Option {
	return func(s *Service) {
		if perSecond > 0 {
			s.providerRate = perSecond
		}
	}
}

// WithWorkerCount sets the number of feature warm-up workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the warm-up queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithTopNMax caps the games count a single request may ask for.
func WithTopNMax(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topNMax = n
		}
	}
}

// WithRefreshDays sets how many trailing days of games Refresh pulls in.
func WithRefreshDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.refreshDays = days
		}
	}
}

// WithExcitementWeights sets the action feature blend.
func WithExcitementWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.excitementWeights = w
	}
}

// WithSimilarityWeights sets the cosine and overlap blend.
func WithSimilarityWeights(w similarity.Weights) Option {
	return func(s *Service) {
		s.similarityWeights = w
	}
}

// WithRoster supplies per-player importance weights for star-power
// extraction. Without one, every player weighs the same and star power
// reduces to event involvement.
func WithRoster(r feature.Roster) Option {
	return func(s *Service) {
		if r != nil {
			s.roster = r
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:            "gameselect.db",
		providerRate:      4,
		workerCount:       4,
		queueSize:         10_000,
		topNMax:           50,
		refreshDays:       30,
		excitementWeights: scoring.DefaultWeights(),
		similarityWeights: similarity.DefaultWeights(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting game recommendation service...")

	catalog, err := repository.Open(s.dbPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	s.catalog = catalog

	excite, err := scoring.NewScorer(s.excitementWeights)
	if err != nil {
		_ = catalog.Close()
		return fmt.Errorf("build excitement scorer: %w", err)
	}
	extractor := feature.NewExtractor(excite)

	s.features = cache.New(s.extractLoader(extractor), feature.ExtractionVersion,
		cache.WithPersistentStore(s.catalog),
		cache.WithLogger(s.logger.Named("cache")),
	)

	s.recommender = recommend.New(s.features,
		recommend.WithSimilarityWeights(s.similarityWeights),
	)

	s.warmQueue = warmqueue.NewInMemoryQueue(
		warmqueue.WithCapacity(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.warmQueue, s.features,
		workerpool.WithWorkerCount(s.workerCount),
		workerpool.WithLogger(s.logger.Named("warm")),
	)
	s.workerPool.Start(ctx)

	var providerOpts []provider.Option
	if s.providerBaseURL != "" {
		providerOpts = append(providerOpts, provider.WithBaseURL(s.providerBaseURL))
	}
	providerOpts = append(providerOpts, provider.WithRateLimit(s.providerRate, 2))
	s.upstream = provider.NewClient(providerOpts...)

	s.started = true
	s.logger.Info(ctx, "game recommendation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("dbPath", s.dbPath),
	)

	return nil
}

// extractLoader builds the read-through loader: play-by-play rows from the
// catalog, normalized, then run through the extractor.
func (s *Service) extractLoader(extractor *feature.Extractor) cache.LoaderFunc {
	return func(ctx context.Context, gameID string) (vector model.FeatureVector, attrs model.GameAttributes, err error) {
		game, err := s.catalog.Game(ctx, gameID)
		if err != nil {
			return vector, attrs, err
		}
		rows, err := s.catalog.PlayByPlay(ctx, gameID)
		if err != nil {
			return vector, attrs, err
		}
		events, err := pbp.Normalize(rows)
		if err != nil {
			return vector, attrs, err
		}
		return extractor.Extract(gameID, game.Tipoff, events, s.roster)
	}
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping game recommendation service...")

	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	if s.warmQueue != nil {
		_ = s.warmQueue.Close()
	}
	if s.catalog != nil {
		_ = s.catalog.Close()
	}

	s.started = false
	s.logger.Info(ctx, "game recommendation service stopped")
}

// Recommend ranks games from the trailing candidate window against the
// caller's liked games and returns the top count as API summaries.
func (s *Service) Recommend(ctx context.Context, likedIDs []string, days, count int) (types.Recommendation, error) {
	if days <= 0 {
		days = s.refreshDays
	}
	if count > s.topNMax {
		count = s.topNMax
	}

	start := time.Now()

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	games, err := s.catalog.GamesInRange(ctx, from, to)
	if err != nil {
		return types.Recommendation{}, err
	}

	liked := make(map[string]struct{}, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = struct{}{}
	}

	byID := make(map[string]repository.Game, len(games))
	candidates := make([]string, 0, len(games))
	for _, g := range games {
		byID[g.GameID] = g
		if _, ok := liked[g.GameID]; ok {
			continue
		}
		candidates = append(candidates, g.GameID)
	}

	result, err := s.recommender.Recommend(ctx, candidates, likedIDs, count)
	if err != nil {
		return types.Recommendation{}, err
	}

	metrics.RecordRecommendation(string(result.Mode))
	metrics.RecordRecommendationLatency(float64(time.Since(start).Milliseconds()))

	out := types.Recommendation{Mode: string(result.Mode)}
	for i, id := range result.RankedIDs {
		g, ok := byID[id]
		if !ok {
			continue
		}
		out.Games = append(out.Games, gameSummary(g, i+1))
	}

	for id, cause := range result.Excluded {
		metrics.RecordCandidateExcluded()
		s.logger.Warn(ctx, "candidate excluded from ranking",
			logger.String("gameID", id),
			logger.Error(cause),
		)
		out.Excluded = append(out.Excluded, id)
	}
	sort.Strings(out.Excluded)

	return out, nil
}

// GamesByDate returns the catalog games tipping off on the given UTC day.
func (s *Service) GamesByDate(ctx context.Context, day time.Time) ([]types.GameSummary, error) {
	games, err := s.catalog.GamesByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	out := make([]types.GameSummary, len(games))
	for i, g := range games {
		out[i] = gameSummary(g, 0)
	}
	return out, nil
}

// Refresh pulls the trailing refresh window into the catalog.
func (s *Service) Refresh(ctx context.Context) error {
	to := time.Now().UTC()
	return s.RefreshWindow(ctx, to.AddDate(0, 0, -s.refreshDays), to)
}

// RefreshWindow fetches games between from and to from the upstream
// provider, stores new ones in the catalog and queues them for feature
// warm-up. Games already in the catalog are skipped.
func (s *Service) RefreshWindow(ctx context.Context, from, to time.Time) error {
	ids, err := s.upstream.GameIDsForRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}

	var added int
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.catalog.Game(ctx, id); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrGameNotFound) {
			return err
		}

		meta, rows, err := s.upstream.GameSummary(ctx, id)
		if err != nil {
			s.logger.Warn(ctx, "fetching game summary failed",
				logger.String("gameID", id),
				logger.Error(err),
			)
			continue
		}

		if err := s.catalog.UpsertGame(ctx, repository.Game{
			GameID:    meta.GameID,
			HomeTeam:  meta.HomeTeam,
			AwayTeam:  meta.AwayTeam,
			Venue:     meta.Venue,
			Tipoff:    meta.Tipoff,
			HomeScore: meta.HomeScore,
			AwayScore: meta.AwayScore,
		}); err != nil {
			return fmt.Errorf("store game %s: %w", id, err)
		}
		if err := s.catalog.SavePlayByPlay(ctx, id, rows); err != nil {
			return fmt.Errorf("store play-by-play %s: %w", id, err)
		}

		if !s.warmQueue.Enqueue(ctx, warmqueue.Job{GameID: id}) {
			s.logger.Warn(ctx, "warm queue full, skipping warm-up",
				logger.String("gameID", id),
			)
		}
		added++
	}

	if total, err := s.catalog.CountGames(ctx); err == nil {
		metrics.UpdateCatalogGames(total)
	}

	s.logger.Info(ctx, "catalog refresh finished",
		logger.Int("listed", len(ids)),
		logger.Int("added", added),
	)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"topNMax":     s.topNMax,
	}

	if s.started {
		queueLen := s.warmQueue.Len(ctx)
		cacheSize := s.features.Size()

		stats["queueLength"] = queueLen
		stats["cachedFeatures"] = cacheSize
		if total, err := s.catalog.CountGames(ctx); err == nil {
			stats["totalGames"] = total
			metrics.UpdateCatalogGames(total)
		}

		metrics.UpdateWarmQueueSize(queueLen)
		metrics.UpdateCacheSize(cacheSize)
	}

	return stats
}

func gameSummary(g repository.Game, rank int) types.GameSummary {
	return types.GameSummary{
		Rank:      rank,
		GameID:    g.GameID,
		HomeTeam:  g.HomeTeam,
		AwayTeam:  g.AwayTeam,
		Venue:     g.Venue,
		Tipoff:    g.Tipoff,
		HomeScore: g.HomeScore,
		AwayScore: g.AwayScore,
	}
}
