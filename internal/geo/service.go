package geo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecocertain/metrics/internal/common/logger"
	"github.com/ecocertain/metrics/internal/common/redis"
)

const cacheKey = "metrics:geo"

type Service interface {
	GetGeoMetrics(ctx context.Context) (*GeoMetrics, error)
}

type service struct {
	repo       Repository
	classifier *Classifier
	redis      *redis.Client
	logger     *logger.Logger
	now        func() time.Time
	cacheTTL   time.Duration
}

func NewService(repo Repository, redisClient *redis.Client, log *logger.Logger, cacheTTL time.Duration) Service {
	return &service{
		repo:       repo,
		classifier: NewClassifier(),
		redis:      redisClient,
		logger:     log,
		now:        time.Now,
		cacheTTL:   cacheTTL,
	}
}

// GetGeoMetrics serves the geographic report. An unavailable enrichment table
// degrades to a fully zeroed report rather than an error.
func (s *service) GetGeoMetrics(ctx context.Context) (*GeoMetrics, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var metrics GeoMetrics
			if err := json.Unmarshal([]byte(cached), &metrics); err == nil {
				return &metrics, nil
			}
		}
	}

	now := s.now()
	rows, err := s.repo.GetEnrichmentRows(ctx)
	if err != nil {
		s.logger.Warnf("Failed to fetch geo enrichment rows: %v", err)
		return &GeoMetrics{
			LastUpdated:  now.UTC().Format(time.RFC3339),
			TopCountries: []CountryCount{},
		}, nil
	}

	metrics := Aggregate(rows, s.classifier, now)

	if s.redis != nil {
		if data, err := json.Marshal(metrics); err == nil {
			s.redis.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	return metrics, nil
}
