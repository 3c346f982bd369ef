package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Client event type discriminators, matching the web client's payloads
const (
	EventTypeWallet  = "wallet"
	EventTypeForm    = "form"
	EventTypeSwap    = "lifi_swap"
	EventTypePayment = "payment_flow"
	EventTypeUpload  = "ipfs_upload"
)

// IngestPayload is one batch of client events as published to Kafka
type IngestPayload struct {
	Events []json.RawMessage `json:"events"`
}

// envelope carries the fields shared by every client event
type envelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Timestamp string          `json:"timestamp"`
	Context   json.RawMessage `json:"context,omitempty"`
	Referrer  *string         `json:"referrer,omitempty"`
	UserAgent *string         `json:"userAgent,omitempty"`
}

type walletPayload struct {
	Event         string  `json:"event"`
	WalletAddress *string `json:"walletAddress,omitempty"`
	ChainID       *int64  `json:"chainId,omitempty"`
	Connector     *string `json:"connector,omitempty"`
	Message       *string `json:"message,omitempty"`
}

type formPayload struct {
	SubmissionID *string `json:"submissionId,omitempty"`
	Step         string  `json:"step"`
	Status       string  `json:"status"`
	HypercertID  *string `json:"hypercertId,omitempty"`
}

type swapPayload struct {
	HypercertID string   `json:"hypercertId"`
	Event       string   `json:"event"`
	RouteID     *string  `json:"routeId,omitempty"`
	FromChainID *int64   `json:"fromChainId,omitempty"`
	ToChainID   *int64   `json:"toChainId,omitempty"`
	FromToken   *string  `json:"fromToken,omitempty"`
	ToToken     *string  `json:"toToken,omitempty"`
	AmountIn    *float64 `json:"amountIn,omitempty"`
	AmountOut   *float64 `json:"amountOut,omitempty"`
	DurationMs  *int64   `json:"durationMs,omitempty"`
	ErrorLabel  *string  `json:"errorLabel,omitempty"`
}

type paymentPayload struct {
	HypercertID string  `json:"hypercertId"`
	OrderID     string  `json:"orderId"`
	StepIndex   int     `json:"stepIndex"`
	StepName    string  `json:"stepName"`
	Status      string  `json:"status"`
	TxHash      *string `json:"txHash,omitempty"`
}

type uploadPayload struct {
	WalletAddress *string `json:"walletAddress,omitempty"`
	FileName      *string `json:"fileName,omitempty"`
	SizeBytes     *int64  `json:"sizeBytes,omitempty"`
	MimeType      *string `json:"mimeType,omitempty"`
	Status        string  `json:"status"`
	CID           *string `json:"cid,omitempty"`
}

// ProcessKafkaEvent ingests one batch of telemetry events. Individual bad
// events are logged and skipped; the batch as a whole only fails when the
// payload itself cannot be decoded.
func (s *service) ProcessKafkaEvent(ctx context.Context, value []byte) error {
	var payload IngestPayload
	if err := json.Unmarshal(value, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal telemetry payload: %w", err)
	}

	ingested := 0
	for _, raw := range payload.Events {
		if err := s.ingestEvent(ctx, raw); err != nil {
			s.logger.Warnf("Skipping telemetry event: %v", err)
			continue
		}
		ingested++
	}

	if ingested > 0 {
		s.invalidateReportCache(ctx)
	}

	return nil
}

func (s *service) ingestEvent(ctx context.Context, raw json.RawMessage) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("malformed event envelope: %w", err)
	}

	sessionID := env.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	occurredAt := s.now().UTC()
	if env.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, env.Timestamp); err == nil {
			occurredAt = parsed.UTC()
		}
	}

	session := &Session{
		ID:        sessionID,
		CreatedAt: occurredAt,
		LastSeen:  occurredAt,
		Referrer:  env.Referrer,
		UserAgent: env.UserAgent,
	}

	switch env.Type {
	case EventTypeWallet:
		var p walletPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("malformed wallet event: %w", err)
		}
		event := &WalletEvent{
			SessionID:     sessionID,
			WalletAddress: p.WalletAddress,
			EventType:     p.Event,
			ChainID:       p.ChainID,
			Connector:     p.Connector,
			Message:       p.Message,
			Context:       env.Context,
			OccurredAt:    occurredAt,
		}
		if err := ValidateWalletEvent(event); err != nil {
			return err
		}
		session.WalletAddress = p.WalletAddress
		if err := s.repo.UpsertSession(ctx, session); err != nil {
			return err
		}
		return s.repo.InsertWalletEvent(ctx, event)

	case EventTypeForm:
		var p formPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("malformed form event: %w", err)
		}
		event := &FormEvent{
			SessionID:    sessionID,
			SubmissionID: p.SubmissionID,
			Step:         p.Step,
			Status:       p.Status,
			HypercertID:  p.HypercertID,
			Context:      env.Context,
			OccurredAt:   occurredAt,
		}
		if err := ValidateFormEvent(event); err != nil {
			return err
		}
		if err := s.repo.UpsertSession(ctx, session); err != nil {
			return err
		}
		return s.repo.InsertFormEvent(ctx, event)

	case EventTypeSwap:
		var p swapPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("malformed swap event: %w", err)
		}
		event := &SwapEvent{
			SessionID:    sessionID,
			HypercertID:  p.HypercertID,
			EventType:    p.Event,
			RouteID:      p.RouteID,
			FromChainID:  p.FromChainID,
			ToChainID:    p.ToChainID,
			FromToken:    p.FromToken,
			ToToken:      p.ToToken,
			AmountInUSD:  p.AmountIn,
			AmountOutUSD: p.AmountOut,
			DurationMs:   p.DurationMs,
			ErrorLabel:   p.ErrorLabel,
			OccurredAt:   occurredAt,
		}
		if err := ValidateSwapEvent(event); err != nil {
			return err
		}
		if err := s.repo.UpsertSession(ctx, session); err != nil {
			return err
		}
		return s.repo.InsertSwapEvent(ctx, event)

	case EventTypePayment:
		var p paymentPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("malformed payment event: %w", err)
		}
		event := &PaymentFlowEvent{
			SessionID:   sessionID,
			HypercertID: p.HypercertID,
			OrderID:     p.OrderID,
			StepIndex:   p.StepIndex,
			StepName:    p.StepName,
			Status:      p.Status,
			TxHash:      p.TxHash,
			Context:     env.Context,
			OccurredAt:  occurredAt,
		}
		if err := ValidatePaymentEvent(event); err != nil {
			return err
		}
		if err := s.repo.UpsertSession(ctx, session); err != nil {
			return err
		}
		return s.repo.InsertPaymentEvent(ctx, event)

	case EventTypeUpload:
		var p uploadPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("malformed upload event: %w", err)
		}
		log := &UploadLog{
			SessionID:     &sessionID,
			WalletAddress: p.WalletAddress,
			Status:        p.Status,
			CID:           p.CID,
			SizeBytes:     p.SizeBytes,
			MimeType:      p.MimeType,
			OccurredAt:    occurredAt,
		}
		if err := ValidateUploadLog(log); err != nil {
			return err
		}
		if err := s.repo.UpsertSession(ctx, session); err != nil {
			return err
		}
		return s.repo.InsertUploadLog(ctx, log)

	default:
		return fmt.Errorf("unknown event type: %q", env.Type)
	}
}
