package dashboard

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecocertain/metrics/internal/common/logger"
	"github.com/ecocertain/metrics/internal/common/redis"
	"github.com/ecocertain/metrics/internal/geo"
	"github.com/ecocertain/metrics/internal/hypercerts"
	"github.com/ecocertain/metrics/internal/pricefeed"
	"github.com/ecocertain/metrics/internal/telemetry"
)

const cacheKey = "metrics:dashboard"

// HypercertSource is the subset of the hypercerts API the composer needs
type HypercertSource interface {
	FetchHypercerts(ctx context.Context) ([]hypercerts.Hypercert, error)
	AttestationCount(ctx context.Context, from, to int64) (int, error)
}

type Service interface {
	GetDashboardMetrics(ctx context.Context) (*DashboardMetrics, error)
	GetTelemetryMetrics(ctx context.Context) (*telemetry.TelemetryMetrics, error)
	GetGeoMetrics(ctx context.Context) (*geo.GeoMetrics, error)
}

type service struct {
	hypercerts HypercertSource
	geo        geo.Service
	telemetry  telemetry.Service
	registry   *pricefeed.Registry
	prices     pricefeed.PriceSource
	redis      *redis.Client
	logger     *logger.Logger
	now        func() time.Time
	cacheTTL   time.Duration
}

func NewService(
	hypercertSource HypercertSource,
	geoService geo.Service,
	telemetryService telemetry.Service,
	registry *pricefeed.Registry,
	prices pricefeed.PriceSource,
	redisClient *redis.Client,
	log *logger.Logger,
	cacheTTL time.Duration,
) Service {
	return &service{
		hypercerts: hypercertSource,
		geo:        geoService,
		telemetry:  telemetryService,
		registry:   registry,
		prices:     prices,
		redis:      redisClient,
		logger:     log,
		now:        time.Now,
		cacheTTL:   cacheTTL,
	}
}

func (s *service) GetTelemetryMetrics(ctx context.Context) (*telemetry.TelemetryMetrics, error) {
	return s.telemetry.GetTelemetryMetrics(ctx)
}

func (s *service) GetGeoMetrics(ctx context.Context) (*geo.GeoMetrics, error) {
	return s.geo.GetGeoMetrics(ctx)
}

// sale is one flattened marketplace purchase
type sale struct {
	currency  string
	rawAmount string
	buyer     string
	timestamp int64
}

// usdSum is the exact total over the sales whose currency could be priced
type usdSum struct {
	total decimal.Decimal
	count int
}

// GetDashboardMetrics composes the financial, geographic and engagement
// reports. The three sources are queried concurrently; a failed hypercerts
// fetch degrades to zeroed financials instead of failing the whole report.
func (s *service) GetDashboardMetrics(ctx context.Context) (*DashboardMetrics, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var metrics DashboardMetrics
			if err := json.Unmarshal([]byte(cached), &metrics); err == nil {
				return &metrics, nil
			}
		}
	}

	now := s.now().UTC()
	nowSeconds := now.Unix()
	monthStartSeconds := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Unix()

	var (
		certs            []hypercerts.Hypercert
		geoMetrics       *geo.GeoMetrics
		telemetryMetrics *telemetry.TelemetryMetrics
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		fetched, err := s.hypercerts.FetchHypercerts(ctx)
		if err != nil {
			s.logger.Warnf("Failed to fetch hypercerts: %v", err)
			return
		}
		certs = fetched
	}()
	go func() {
		defer wg.Done()
		metrics, err := s.geo.GetGeoMetrics(ctx)
		if err != nil {
			s.logger.Warnf("Failed to build geo metrics: %v", err)
			metrics = &geo.GeoMetrics{LastUpdated: now.Format(time.RFC3339), TopCountries: []geo.CountryCount{}}
		}
		geoMetrics = metrics
	}()
	go func() {
		defer wg.Done()
		metrics, err := s.telemetry.GetTelemetryMetrics(ctx)
		if err != nil {
			s.logger.Warnf("Failed to build telemetry metrics: %v", err)
			metrics = telemetry.Aggregate(telemetry.AggregateInput{}, now)
		}
		telemetryMetrics = metrics
	}()
	wg.Wait()

	monthlyEvaluations := s.attestationCount(ctx, monthStartSeconds, nowSeconds)
	allTimeEvaluations := s.attestationCount(ctx, 0, nowSeconds)

	allSales := flattenSales(certs)
	var monthlySales []sale
	for _, sl := range allSales {
		if sl.timestamp >= monthStartSeconds {
			monthlySales = append(monthlySales, sl)
		}
	}

	listedForSale := 0
	mintedThisMonth := 0
	for _, cert := range certs {
		if cert.Listed() {
			listedForSale++
		}
		if cert.CreationBlockTimestamp >= monthStartSeconds {
			mintedThisMonth++
		}
	}

	// One quoter per report: prices are memoized for this composition and no
	// longer, so repeated currencies cost one feed lookup.
	quoter := pricefeed.NewQuoter(s.registry, s.prices)
	s.prefetchPrices(ctx, quoter, allSales)

	allTimeUSD := sumUSD(ctx, quoter, allSales)
	monthlyUSD := sumUSD(ctx, quoter, monthlySales)

	buyerCounts := map[string]int{}
	for _, sl := range allSales {
		buyer := strings.ToLower(sl.buyer)
		if buyer == "" {
			buyer = "0x0"
		}
		buyerCounts[buyer]++
	}
	repeatBuyers := 0
	for _, count := range buyerCounts {
		if count > 1 {
			repeatBuyers++
		}
	}
	repeatBuyerRate := 0.0
	if len(buyerCounts) > 0 {
		repeatBuyerRate = round2(float64(repeatBuyers) / float64(len(buyerCounts)) * 100)
	}

	averageTransactionUSD := decimal.Zero
	if allTimeUSD.count > 0 {
		averageTransactionUSD = allTimeUSD.total.Div(decimal.NewFromInt(int64(allTimeUSD.count)))
	}

	totalTransactions := len(certs) + len(allSales) + allTimeEvaluations

	volumeProgress, _ := allTimeUSD.total.Div(decimal.NewFromInt(SDGVolumeTargetUSD)).Float64()
	volumeProgress = math.Min(volumeProgress, 1)
	transactionProgress := math.Min(float64(totalTransactions)/float64(SDGTransactionTarget), 1)

	totalVolumeUSD := moneyFloat(allTimeUSD.total)

	metrics := &DashboardMetrics{
		LastUpdated: now.Format(time.RFC3339),
		Totals: Totals{
			Hypercerts:            len(certs),
			ListedForSale:         listedForSale,
			TotalVolumeUSD:        totalVolumeUSD,
			AverageTransactionUSD: moneyFloat(averageTransactionUSD),
			RepeatBuyerRate:       repeatBuyerRate,
			RepeatBuyerCount:      repeatBuyers,
			UniqueBuyerCount:      len(buyerCounts),
		},
		Monthly: Monthly{
			OnchainTransactions: mintedThisMonth + len(monthlySales) + monthlyEvaluations,
			Minted:              mintedThisMonth,
			Purchases:           len(monthlySales),
			Evaluations:         monthlyEvaluations,
			VolumeUSD:           moneyFloat(monthlyUSD.total),
		},
		SDG: SDGProgress{
			TransactionVolumeUSD: totalVolumeUSD,
			VolumeTargetUSD:      SDGVolumeTargetUSD,
			TransactionCount:     totalTransactions,
			TransactionTarget:    SDGTransactionTarget,
			VolumeProgress:       volumeProgress,
			TransactionProgress:  transactionProgress,
		},
		Geo:        geoMetrics,
		Engagement: telemetryMetrics,
	}

	if s.redis != nil {
		if data, err := json.Marshal(metrics); err == nil {
			s.redis.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	return metrics, nil
}

func (s *service) attestationCount(ctx context.Context, from, to int64) int {
	count, err := s.hypercerts.AttestationCount(ctx, from, to)
	if err != nil {
		s.logger.Warnf("Failed to fetch attestation count: %v", err)
		return 0
	}
	return count
}

// prefetchPrices warms the quoter for every distinct sale currency in
// parallel, so the serial conversion pass below never blocks on the feed
func (s *service) prefetchPrices(ctx context.Context, quoter *pricefeed.Quoter, sales []sale) {
	currencies := map[string]struct{}{}
	for _, sl := range sales {
		currencies[strings.ToLower(sl.currency)] = struct{}{}
	}

	var wg sync.WaitGroup
	for currency := range currencies {
		wg.Add(1)
		go func(currency string) {
			defer wg.Done()
			quoter.USDPrice(ctx, currency)
		}(currency)
	}
	wg.Wait()
}

func flattenSales(certs []hypercerts.Hypercert) []sale {
	var flattened []sale
	for _, cert := range certs {
		for _, s := range cert.Sales {
			flattened = append(flattened, sale{
				currency:  s.Currency,
				rawAmount: s.CurrencyAmount,
				buyer:     s.Buyer,
				timestamp: s.CreationBlockTimestamp,
			})
		}
	}
	return flattened
}

// sumUSD totals the sales that can be priced. Unpriced currencies are skipped
// here but still count toward raw transaction totals.
func sumUSD(ctx context.Context, quoter *pricefeed.Quoter, sales []sale) usdSum {
	sum := usdSum{total: decimal.Zero}
	for _, sl := range sales {
		if usd, ok := quoter.ConvertToUSD(ctx, sl.currency, sl.rawAmount); ok {
			sum.total = sum.total.Add(usd)
			sum.count++
		}
	}
	return sum
}

// moneyFloat rounds an exact decimal to 2 places at the serialization boundary
func moneyFloat(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
