package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecocertain/metrics/internal/common/logger"
	"github.com/ecocertain/metrics/internal/common/redis"
)

// cacheKey holds the cached telemetry report
const cacheKey = "metrics:telemetry"

// queryTimeout bounds each event-store query so one slow table cannot stall
// the whole report
const queryTimeout = 5 * time.Second

type Service interface {
	// Report generation
	GetTelemetryMetrics(ctx context.Context) (*TelemetryMetrics, error)

	// Event ingestion
	ProcessKafkaEvent(ctx context.Context, value []byte) error
}

type service struct {
	repo     Repository
	redis    *redis.Client
	logger   *logger.Logger
	now      func() time.Time
	cacheTTL time.Duration
}

func NewService(repo Repository, redisClient *redis.Client, log *logger.Logger, cacheTTL time.Duration) Service {
	return &service{
		repo:     repo,
		redis:    redisClient,
		logger:   log,
		now:      time.Now,
		cacheTTL: cacheTTL,
	}
}

// GetTelemetryMetrics fetches the six event tables concurrently and reduces
// them into one report. A failed query degrades to an empty collection so a
// single unavailable source never fails the report.
func (s *service) GetTelemetryMetrics(ctx context.Context) (*TelemetryMetrics, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var metrics TelemetryMetrics
			if err := json.Unmarshal([]byte(cached), &metrics); err == nil {
				return &metrics, nil
			}
		}
	}

	now := s.now()
	input := s.fetchInput(ctx, WindowFrom(now))
	metrics := Aggregate(input, now)

	if s.redis != nil {
		if data, err := json.Marshal(metrics); err == nil {
			s.redis.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	return metrics, nil
}

// fetchInput issues all event-store queries in parallel and joins before
// aggregating. Each source fails independently: the failure is logged as a
// warning and that source contributes nothing.
func (s *service) fetchInput(ctx context.Context, window Window) AggregateInput {
	var input AggregateInput

	run := func(name string, fn func(ctx context.Context) error) func() {
		return func() {
			queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
			defer cancel()
			if err := fn(queryCtx); err != nil {
				s.logger.Warnf("Failed to fetch %s: %v", name, err)
			}
		}
	}

	tasks := []func(){
		run("wallet events", func(ctx context.Context) error {
			events, err := s.repo.GetWalletEvents(ctx, window.Since)
			input.WalletEvents = events
			return err
		}),
		run("form events", func(ctx context.Context) error {
			events, err := s.repo.GetFormEvents(ctx, window.Since)
			input.FormEvents = events
			return err
		}),
		run("swap events", func(ctx context.Context) error {
			events, err := s.repo.GetSwapEvents(ctx, window.Since)
			input.SwapEvents = events
			return err
		}),
		run("payment events", func(ctx context.Context) error {
			events, err := s.repo.GetPaymentEvents(ctx, window.Since)
			input.PaymentEvents = events
			return err
		}),
		run("upload logs", func(ctx context.Context) error {
			logs, err := s.repo.GetUploadLogs(ctx, window.Since)
			input.UploadLogs = logs
			return err
		}),
		run("sessions", func(ctx context.Context) error {
			sessions, err := s.repo.GetSessions(ctx, window.Since)
			input.Sessions = sessions
			return err
		}),
		run("wallet first seen", func(ctx context.Context) error {
			firstSeen, err := s.repo.GetWalletFirstSeen(ctx)
			input.WalletFirstSeen = firstSeen
			return err
		}),
	}

	done := make(chan int, len(tasks))
	for i, task := range tasks {
		go func(i int, task func()) {
			task()
			done <- i
		}(i, task)
	}
	for range tasks {
		<-done
	}

	return input
}

// invalidateReportCache drops every cached report after new events arrive
func (s *service) invalidateReportCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.DeletePattern(ctx, "metrics:*"); err != nil {
		s.logger.Warnf("Failed to invalidate report cache: %v", err)
	}
}
