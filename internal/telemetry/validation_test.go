package telemetry

import (
	"testing"
	"time"
)

func TestValidateWalletEvent(t *testing.T) {
	valid := func() *WalletEvent {
		return &WalletEvent{
			SessionID:  "s1",
			EventType:  WalletEventConnect,
			OccurredAt: time.Now(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*WalletEvent)
		wantErr bool
	}{
		{"valid connect", func(e *WalletEvent) {}, false},
		{"missing session", func(e *WalletEvent) { e.SessionID = "" }, true},
		{"unknown event type", func(e *WalletEvent) { e.EventType = "teleport" }, true},
		{"zero chain id", func(e *WalletEvent) { e.ChainID = int64Ptr(0) }, true},
		{"valid chain id", func(e *WalletEvent) { e.ChainID = int64Ptr(42220) }, false},
		{"zero timestamp", func(e *WalletEvent) { e.OccurredAt = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid()
			tt.mutate(event)
			err := ValidateWalletEvent(event)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWalletEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := ValidateWalletEvent(nil); err == nil {
		t.Error("expected error for nil event")
	}
}

func TestValidateFormEvent(t *testing.T) {
	valid := func() *FormEvent {
		return &FormEvent{
			SessionID:  "s1",
			Step:       FormStepHypercertForm,
			Status:     FormStatusStarted,
			OccurredAt: time.Now(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*FormEvent)
		wantErr bool
	}{
		{"valid", func(e *FormEvent) {}, false},
		{"missing session", func(e *FormEvent) { e.SessionID = "" }, true},
		{"missing step", func(e *FormEvent) { e.Step = "" }, true},
		{"unknown status", func(e *FormEvent) { e.Status = "paused" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid()
			tt.mutate(event)
			err := ValidateFormEvent(event)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSwapEvent(t *testing.T) {
	valid := func() *SwapEvent {
		return &SwapEvent{
			SessionID:   "s1",
			HypercertID: "hc-1",
			EventType:   SwapEventRouteStarted,
			OccurredAt:  time.Now(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*SwapEvent)
		wantErr bool
	}{
		{"valid", func(e *SwapEvent) {}, false},
		{"missing hypercert", func(e *SwapEvent) { e.HypercertID = "" }, true},
		{"unknown event type", func(e *SwapEvent) { e.EventType = "route_paused" }, true},
		{"negative amount", func(e *SwapEvent) { e.AmountInUSD = floatPtr(-1) }, true},
		{"negative duration", func(e *SwapEvent) { e.DurationMs = int64Ptr(-1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid()
			tt.mutate(event)
			err := ValidateSwapEvent(event)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSwapEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePaymentEvent(t *testing.T) {
	valid := func() *PaymentFlowEvent {
		return &PaymentFlowEvent{
			SessionID:   "s1",
			HypercertID: "hc-1",
			OrderID:     "o1",
			StepIndex:   1,
			StepName:    "Initializing",
			Status:      PaymentStatusInProgress,
			OccurredAt:  time.Now(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*PaymentFlowEvent)
		wantErr bool
	}{
		{"valid", func(e *PaymentFlowEvent) {}, false},
		{"missing order", func(e *PaymentFlowEvent) { e.OrderID = "" }, true},
		{"negative step index", func(e *PaymentFlowEvent) { e.StepIndex = -1 }, true},
		{"missing step name", func(e *PaymentFlowEvent) { e.StepName = "" }, true},
		{"unknown status", func(e *PaymentFlowEvent) { e.Status = "pending" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid()
			tt.mutate(event)
			err := ValidatePaymentEvent(event)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePaymentEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUploadLog(t *testing.T) {
	valid := func() *UploadLog {
		return &UploadLog{
			Status:     UploadStatusSuccess,
			CID:        strPtr("bafy123"),
			OccurredAt: time.Now(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*UploadLog)
		wantErr bool
	}{
		{"valid success", func(l *UploadLog) {}, false},
		{"unknown status", func(l *UploadLog) { l.Status = "queued" }, true},
		{"success without cid", func(l *UploadLog) { l.CID = nil }, true},
		{"error without cid", func(l *UploadLog) { l.Status = UploadStatusError; l.CID = nil }, false},
		{"negative size", func(l *UploadLog) { l.SizeBytes = int64Ptr(-1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := valid()
			tt.mutate(log)
			err := ValidateUploadLog(log)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUploadLog() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
