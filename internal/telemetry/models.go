package telemetry

import (
	"encoding/json"
	"time"
)

// Wallet event types
const (
	WalletEventConnect     = "connect"
	WalletEventDisconnect  = "disconnect"
	WalletEventChainSwitch = "chain_switch"
	WalletEventError       = "error"
)

// Form event statuses
const (
	FormStatusStarted    = "started"
	FormStatusInProgress = "in_progress"
	FormStatusCompleted  = "completed"
	FormStatusError      = "error"
)

// Form steps used by the minting funnel
const (
	FormStepHypercertForm = "hypercert_form"
	FormStepMintCompleted = "mint_completed"
)

// Swap event types
const (
	SwapEventRouteStarted   = "route_started"
	SwapEventRouteCompleted = "route_completed"
	SwapEventRouteFailed    = "route_failed"
)

// Payment flow statuses
const (
	PaymentStatusInProgress = "in_progress"
	PaymentStatusCompleted  = "completed"
	PaymentStatusError      = "error"
)

// Payment flow step indices. Steps 2/3 are token approval, 4/5 the purchase
// transaction, 6 the optional tip.
const (
	PaymentStepApproval     = 2
	PaymentStepConfirmation = 5
	PaymentStepTip          = 6
	PaymentStepPurchase     = 4
)

// PaymentStepOrderCompleted is the terminal step name of a purchase flow
const PaymentStepOrderCompleted = "Order completed"

// Upload statuses
const (
	UploadStatusSuccess = "success"
	UploadStatusError   = "error"
)

// WalletEvent is one wallet lifecycle transition observed on the client
type WalletEvent struct {
	ID            int64           `json:"id" db:"id"`
	SessionID     string          `json:"session_id" db:"session_id"`
	WalletAddress *string         `json:"wallet_address,omitempty" db:"wallet_address"`
	EventType     string          `json:"event_type" db:"event_type"`
	ChainID       *int64          `json:"chain_id,omitempty" db:"chain_id"`
	Connector     *string         `json:"connector,omitempty" db:"connector"`
	Message       *string         `json:"message,omitempty" db:"message"`
	Context       json.RawMessage `json:"context,omitempty" db:"context"`
	OccurredAt    time.Time       `json:"occurred_at" db:"occurred_at"`
}

// FormEvent is one step transition of the multi-step minting form.
// SubmissionID correlates the events of a single minting attempt.
type FormEvent struct {
	ID           int64           `json:"id" db:"id"`
	SessionID    string          `json:"session_id" db:"session_id"`
	SubmissionID *string         `json:"submission_id,omitempty" db:"submission_id"`
	Step         string          `json:"step" db:"step"`
	Status       string          `json:"status" db:"status"`
	HypercertID  *string         `json:"hypercert_id,omitempty" db:"hypercert_id"`
	Context      json.RawMessage `json:"context,omitempty" db:"context"`
	OccurredAt   time.Time       `json:"occurred_at" db:"occurred_at"`
}

// SwapEvent is one cross-chain swap lifecycle transition
type SwapEvent struct {
	ID           int64     `json:"id" db:"id"`
	SessionID    string    `json:"session_id" db:"session_id"`
	HypercertID  string    `json:"hypercert_id" db:"hypercert_id"`
	EventType    string    `json:"event_type" db:"event_type"`
	RouteID      *string   `json:"route_id,omitempty" db:"route_id"`
	FromChainID  *int64    `json:"from_chain_id,omitempty" db:"from_chain_id"`
	ToChainID    *int64    `json:"to_chain_id,omitempty" db:"to_chain_id"`
	FromToken    *string   `json:"from_token,omitempty" db:"from_token"`
	ToToken      *string   `json:"to_token,omitempty" db:"to_token"`
	AmountInUSD  *float64  `json:"amount_in,omitempty" db:"amount_in"`
	AmountOutUSD *float64  `json:"amount_out,omitempty" db:"amount_out"`
	DurationMs   *int64    `json:"duration_ms,omitempty" db:"duration_ms"`
	ErrorLabel   *string   `json:"error_label,omitempty" db:"error_label"`
	OccurredAt   time.Time `json:"occurred_at" db:"occurred_at"`
}

// PaymentFlowEvent is one step of a purchase attempt. The correlation key is
// context.flowId, falling back to session+hypercert or session+order composites.
type PaymentFlowEvent struct {
	ID          int64           `json:"id" db:"id"`
	SessionID   string          `json:"session_id" db:"session_id"`
	HypercertID string          `json:"hypercert_id" db:"hypercert_id"`
	OrderID     string          `json:"order_id" db:"order_id"`
	StepIndex   int             `json:"step_index" db:"step_index"`
	StepName    string          `json:"step_name" db:"step_name"`
	Status      string          `json:"status" db:"status"`
	TxHash      *string         `json:"tx_hash,omitempty" db:"tx_hash"`
	Context     json.RawMessage `json:"context,omitempty" db:"context"`
	OccurredAt  time.Time       `json:"occurred_at" db:"occurred_at"`
}

// UploadLog is one IPFS upload attempt
type UploadLog struct {
	ID            int64     `json:"id" db:"id"`
	SessionID     *string   `json:"session_id,omitempty" db:"session_id"`
	WalletAddress *string   `json:"wallet_address,omitempty" db:"wallet_address"`
	Status        string    `json:"status" db:"status"`
	CID           *string   `json:"cid,omitempty" db:"cid"`
	SizeBytes     *int64    `json:"size_bytes,omitempty" db:"size_bytes"`
	MimeType      *string   `json:"mime_type,omitempty" db:"mime_type"`
	OccurredAt    time.Time `json:"occurred_at" db:"occurred_at"`
}

// Session is one browser session
type Session struct {
	ID            string    `json:"id" db:"id"`
	WalletAddress *string   `json:"wallet_address,omitempty" db:"wallet_address"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	LastSeen      time.Time `json:"last_seen" db:"last_seen"`
	Referrer      *string   `json:"referrer,omitempty" db:"referrer"`
	UserAgent     *string   `json:"user_agent,omitempty" db:"user_agent"`
}

// TelemetryMetrics is the aggregated engagement report
type TelemetryMetrics struct {
	LastUpdated string           `json:"last_updated"`
	Wallets     WalletStats      `json:"wallets"`
	Forms       FormStats        `json:"forms"`
	Swaps       SwapStats        `json:"swaps"`
	Payments    PaymentStats     `json:"payments"`
	Uploads     UploadStats      `json:"uploads"`
	Performance PerformanceStats `json:"performance"`
	Behavior    BehaviorStats    `json:"behavior"`
	Onchain     OnchainStats     `json:"onchain"`
	Errors      ErrorStats       `json:"errors"`
	Patterns    PatternStats     `json:"patterns"`
	Traffic     TrafficStats     `json:"traffic"`
}

type WalletStats struct {
	MonthlyActive int `json:"monthly_active"`
	TotalConnects int `json:"total_connects"`
	ChainSwitches int `json:"chain_switches"`
}

type FormStats struct {
	Started          int     `json:"started"`
	Completed        int     `json:"completed"`
	CompletionRate   float64 `json:"completion_rate"`
	ValidationErrors int     `json:"validation_errors"`
}

type ChainPair struct {
	From  int64 `json:"from"`
	To    int64 `json:"to"`
	Count int   `json:"count"`
}

type TokenPair struct {
	FromToken    string  `json:"from_token"`
	ToToken      string  `json:"to_token"`
	Count        int     `json:"count"`
	AvgAmountUSD float64 `json:"avg_amount_usd"`
}

type SwapStats struct {
	Started               int         `json:"started"`
	Completed             int         `json:"completed"`
	CompletionRate        float64     `json:"completion_rate"`
	MedianDurationMs      int64       `json:"median_duration_ms"`
	MostUsedSourceChain   *int64      `json:"most_used_source_chain"`
	MostUsedDestChain     *int64      `json:"most_used_dest_chain"`
	ChainPairDistribution []ChainPair `json:"chain_pair_distribution"`
	PopularTokenPairs     []TokenPair `json:"popular_token_pairs"`
	AverageSwapAmountUSD  float64     `json:"average_swap_amount_usd"`
	TotalSwapVolumeUSD    float64     `json:"total_swap_volume_usd"`
	FailureRate           float64     `json:"failure_rate"`
	CommonFailureReasons  []string    `json:"common_failure_reasons"`
}

type PaymentStats struct {
	TotalFlows     int     `json:"total_flows"`
	CompletedFlows int     `json:"completed_flows"`
	CompletionRate float64 `json:"completion_rate"`
	DropOffRate    float64 `json:"drop_off_rate"`
}

type UploadStats struct {
	Total       int     `json:"total"`
	Failures    int     `json:"failures"`
	SuccessRate float64 `json:"success_rate"`
}

type StepDuration struct {
	Step          string `json:"step"`
	AvgDurationMs int64  `json:"avg_duration_ms"`
}

type PerformanceStats struct {
	AverageMintTimeSeconds    float64        `json:"average_mint_time_seconds"`
	SlowestSteps              []StepDuration `json:"slowest_steps"`
	AveragePaymentTimeSeconds float64        `json:"average_payment_time_seconds"`
	ApprovalTimeSeconds       float64        `json:"approval_time_seconds"`
	ConfirmationTimeSeconds   float64        `json:"confirmation_time_seconds"`
	AverageUploadSizeKB       float64        `json:"average_upload_size_kb"`
	AverageUploadTimeMs       float64        `json:"average_upload_time_ms"`
}

type BehaviorStats struct {
	AverageEventsPerSession float64 `json:"average_events_per_session"`
	BounceRate              float64 `json:"bounce_rate"`
	MultiChainUsers         int     `json:"multi_chain_users"`
	WalletDisconnectRate    float64 `json:"wallet_disconnect_rate"`
	ReturningUsers          int     `json:"returning_users"`
	NewUsers                int     `json:"new_users"`
	RetentionRate           float64 `json:"retention_rate"`
	TipAcceptanceRate       float64 `json:"tip_acceptance_rate"`
	TipDeclineRate          float64 `json:"tip_decline_rate"`
}

type OnchainStats struct {
	ApprovalTxCount              int `json:"approval_tx_count"`
	PurchaseTxCount              int `json:"purchase_tx_count"`
	TipTxCount                   int `json:"tip_tx_count"`
	UniqueHypercertsFromPayments int `json:"unique_hypercerts_from_payments"`
	UniqueOrdersCompleted        int `json:"unique_orders_completed"`
	PlatformFeesCollected        int `json:"platform_fees_collected"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type StepErrorRate struct {
	Step       string  `json:"step"`
	ErrorCount int     `json:"error_count"`
	ErrorRate  float64 `json:"error_rate"`
}

type ErrorStats struct {
	TopValidationErrors []ValidationError `json:"top_validation_errors"`
	ConnectionErrors    int               `json:"connection_errors"`
	ChainSwitchErrors   int               `json:"chain_switch_errors"`
	ErrorsByStep        []StepErrorRate   `json:"errors_by_step"`
	UploadErrorRate     float64           `json:"upload_error_rate"`
	LargeFileFailures   int               `json:"large_file_failures"`
}

type WeekdaySplit struct {
	WeekdayEvents int `json:"weekday_events"`
	WeekendEvents int `json:"weekend_events"`
}

type PatternStats struct {
	PeakHour           int          `json:"peak_hour"`
	PeakDay            string       `json:"peak_day"`
	WeekdayVsWeekend   WeekdaySplit `json:"weekday_vs_weekend"`
	DailyActiveUsers   int          `json:"daily_active_users"`
	WeeklyActiveUsers  int          `json:"weekly_active_users"`
	MonthlyActiveUsers int          `json:"monthly_active_users"`
}

type Referrer struct {
	Referrer       string  `json:"referrer"`
	Count          int     `json:"count"`
	ConversionRate float64 `json:"conversion_rate"`
}

type UserAgent struct {
	Browser string `json:"browser"`
	Count   int    `json:"count"`
}

type TrafficStats struct {
	TopReferrers  []Referrer  `json:"top_referrers"`
	TopUserAgents []UserAgent `json:"top_user_agents"`
}
