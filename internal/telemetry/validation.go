package telemetry

import (
	"fmt"
)

var validWalletEventTypes = map[string]bool{
	WalletEventConnect:     true,
	WalletEventDisconnect:  true,
	WalletEventChainSwitch: true,
	WalletEventError:       true,
}

var validFormStatuses = map[string]bool{
	FormStatusStarted:    true,
	FormStatusInProgress: true,
	FormStatusCompleted:  true,
	FormStatusError:      true,
}

var validSwapEventTypes = map[string]bool{
	SwapEventRouteStarted:   true,
	SwapEventRouteCompleted: true,
	SwapEventRouteFailed:    true,
}

var validPaymentStatuses = map[string]bool{
	PaymentStatusInProgress: true,
	PaymentStatusCompleted:  true,
	PaymentStatusError:      true,
}

var validUploadStatuses = map[string]bool{
	UploadStatusSuccess: true,
	UploadStatusError:   true,
}

// ValidateWalletEvent validates a wallet lifecycle event
func ValidateWalletEvent(event *WalletEvent) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}

	if event.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}

	if !validWalletEventTypes[event.EventType] {
		return fmt.Errorf("invalid wallet event type: %q", event.EventType)
	}

	if event.ChainID != nil && *event.ChainID <= 0 {
		return fmt.Errorf("chain_id must be positive")
	}

	if event.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}

	return nil
}

// ValidateFormEvent validates a minting form step event
func ValidateFormEvent(event *FormEvent) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}

	if event.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}

	if event.Step == "" {
		return fmt.Errorf("step is required")
	}

	if !validFormStatuses[event.Status] {
		return fmt.Errorf("invalid form status: %q", event.Status)
	}

	if event.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}

	return nil
}

// ValidateSwapEvent validates a cross-chain swap event
func ValidateSwapEvent(event *SwapEvent) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}

	if event.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}

	if event.HypercertID == "" {
		return fmt.Errorf("hypercert_id is required")
	}

	if !validSwapEventTypes[event.EventType] {
		return fmt.Errorf("invalid swap event type: %q", event.EventType)
	}

	if event.FromChainID != nil && *event.FromChainID <= 0 {
		return fmt.Errorf("from_chain_id must be positive")
	}

	if event.ToChainID != nil && *event.ToChainID <= 0 {
		return fmt.Errorf("to_chain_id must be positive")
	}

	if event.AmountInUSD != nil && *event.AmountInUSD < 0 {
		return fmt.Errorf("amount_in cannot be negative")
	}

	if event.DurationMs != nil && *event.DurationMs < 0 {
		return fmt.Errorf("duration_ms cannot be negative")
	}

	if event.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}

	return nil
}

// ValidatePaymentEvent validates a purchase flow step event
func ValidatePaymentEvent(event *PaymentFlowEvent) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}

	if event.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}

	if event.HypercertID == "" {
		return fmt.Errorf("hypercert_id is required")
	}

	if event.OrderID == "" {
		return fmt.Errorf("order_id is required")
	}

	if event.StepIndex < 0 {
		return fmt.Errorf("step_index cannot be negative")
	}

	if event.StepName == "" {
		return fmt.Errorf("step_name is required")
	}

	if !validPaymentStatuses[event.Status] {
		return fmt.Errorf("invalid payment status: %q", event.Status)
	}

	if event.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}

	return nil
}

// ValidateUploadLog validates an IPFS upload log entry
func ValidateUploadLog(log *UploadLog) error {
	if log == nil {
		return fmt.Errorf("log is nil")
	}

	if !validUploadStatuses[log.Status] {
		return fmt.Errorf("invalid upload status: %q", log.Status)
	}

	if log.SizeBytes != nil && *log.SizeBytes < 0 {
		return fmt.Errorf("size_bytes cannot be negative")
	}

	if log.Status == UploadStatusSuccess && (log.CID == nil || *log.CID == "") {
		return fmt.Errorf("cid is required for successful uploads")
	}

	if log.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}

	return nil
}
