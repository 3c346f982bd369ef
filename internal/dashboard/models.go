package dashboard

import (
	"github.com/ecocertain/metrics/internal/geo"
	"github.com/ecocertain/metrics/internal/telemetry"
)

// SDG campaign targets the dashboard tracks progress against
const (
	SDGVolumeTargetUSD   = 10000
	SDGTransactionTarget = 50
)

type Totals struct {
	Hypercerts            int     `json:"hypercerts"`
	ListedForSale         int     `json:"listed_for_sale"`
	TotalVolumeUSD        float64 `json:"total_volume_usd"`
	AverageTransactionUSD float64 `json:"average_transaction_usd"`
	RepeatBuyerRate       float64 `json:"repeat_buyer_rate"`
	RepeatBuyerCount      int     `json:"repeat_buyer_count"`
	UniqueBuyerCount      int     `json:"unique_buyer_count"`
}

// Monthly covers the current UTC calendar month to date, a different window
// than the telemetry report's rolling 30 days
type Monthly struct {
	OnchainTransactions int     `json:"onchain_transactions"`
	Minted              int     `json:"minted"`
	Purchases           int     `json:"purchases"`
	Evaluations         int     `json:"evaluations"`
	VolumeUSD           float64 `json:"volume_usd"`
}

type SDGProgress struct {
	TransactionVolumeUSD float64 `json:"transaction_volume_usd"`
	VolumeTargetUSD      float64 `json:"volume_target_usd"`
	TransactionCount     int     `json:"transaction_count"`
	TransactionTarget    int     `json:"transaction_target"`
	VolumeProgress       float64 `json:"volume_progress"`
	TransactionProgress  float64 `json:"transaction_progress"`
}

// DashboardMetrics is the composed report served to the dashboard
type DashboardMetrics struct {
	LastUpdated string                      `json:"last_updated"`
	Totals      Totals                      `json:"totals"`
	Monthly     Monthly                     `json:"monthly"`
	SDG         SDGProgress                 `json:"sdg"`
	Geo         *geo.GeoMetrics             `json:"geo"`
	Engagement  *telemetry.TelemetryMetrics `json:"engagement"`
}
