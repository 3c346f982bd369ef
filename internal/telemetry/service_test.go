package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/ecocertain/metrics/internal/common/logger"
)

// mockRepository records writes and serves canned rows
type mockRepository struct {
	walletEvents  []WalletEvent
	formEvents    []FormEvent
	swapEvents    []SwapEvent
	paymentEvents []PaymentFlowEvent
	uploadLogs    []UploadLog
	sessions      map[string]*Session

	insertedWallets  []*WalletEvent
	insertedForms    []*FormEvent
	insertedSwaps    []*SwapEvent
	insertedPayments []*PaymentFlowEvent
	insertedUploads  []*UploadLog
}

func newMockRepository() *mockRepository {
	return &mockRepository{sessions: map[string]*Session{}}
}

func (m *mockRepository) GetWalletEvents(ctx context.Context, since time.Time) ([]WalletEvent, error) {
	return m.walletEvents, nil
}

func (m *mockRepository) GetFormEvents(ctx context.Context, since time.Time) ([]FormEvent, error) {
	return m.formEvents, nil
}

func (m *mockRepository) GetSwapEvents(ctx context.Context, since time.Time) ([]SwapEvent, error) {
	return m.swapEvents, nil
}

func (m *mockRepository) GetPaymentEvents(ctx context.Context, since time.Time) ([]PaymentFlowEvent, error) {
	return m.paymentEvents, nil
}

func (m *mockRepository) GetUploadLogs(ctx context.Context, since time.Time) ([]UploadLog, error) {
	return m.uploadLogs, nil
}

func (m *mockRepository) GetSessions(ctx context.Context, since time.Time) ([]Session, error) {
	sessions := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

func (m *mockRepository) GetWalletFirstSeen(ctx context.Context) (map[string]time.Time, error) {
	return map[string]time.Time{}, nil
}

func (m *mockRepository) InsertWalletEvent(ctx context.Context, event *WalletEvent) error {
	m.insertedWallets = append(m.insertedWallets, event)
	return nil
}

func (m *mockRepository) InsertFormEvent(ctx context.Context, event *FormEvent) error {
	m.insertedForms = append(m.insertedForms, event)
	return nil
}

func (m *mockRepository) InsertSwapEvent(ctx context.Context, event *SwapEvent) error {
	m.insertedSwaps = append(m.insertedSwaps, event)
	return nil
}

func (m *mockRepository) InsertPaymentEvent(ctx context.Context, event *PaymentFlowEvent) error {
	m.insertedPayments = append(m.insertedPayments, event)
	return nil
}

func (m *mockRepository) InsertUploadLog(ctx context.Context, log *UploadLog) error {
	m.insertedUploads = append(m.insertedUploads, log)
	return nil
}

func (m *mockRepository) UpsertSession(ctx context.Context, session *Session) error {
	m.sessions[session.ID] = session
	return nil
}

func newTestService(repo Repository) *service {
	return &service{
		repo:     repo,
		logger:   logger.New("telemetry-test"),
		now:      func() time.Time { return testNow },
		cacheTTL: time.Minute,
	}
}

func TestProcessKafkaEvent(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	payload := []byte(`{
		"events": [
			{"type": "wallet", "sessionId": "s1", "timestamp": "2025-06-15T11:00:00Z", "event": "connect", "walletAddress": "0xABC", "chainId": 42220},
			{"type": "form", "sessionId": "s1", "timestamp": "2025-06-15T11:01:00Z", "step": "hypercert_form", "status": "started"},
			{"type": "payment_flow", "sessionId": "s2", "timestamp": "2025-06-15T11:02:00Z", "hypercertId": "hc-1", "orderId": "o1", "stepIndex": 1, "stepName": "Initializing", "status": "in_progress"},
			{"type": "ipfs_upload", "sessionId": "s2", "timestamp": "2025-06-15T11:03:00Z", "status": "success", "cid": "bafy1", "sizeBytes": 2048}
		]
	}`)

	if err := svc.ProcessKafkaEvent(context.Background(), payload); err != nil {
		t.Fatalf("ProcessKafkaEvent failed: %v", err)
	}

	if len(repo.insertedWallets) != 1 {
		t.Errorf("expected 1 wallet event, got %d", len(repo.insertedWallets))
	}
	if len(repo.insertedForms) != 1 {
		t.Errorf("expected 1 form event, got %d", len(repo.insertedForms))
	}
	if len(repo.insertedPayments) != 1 {
		t.Errorf("expected 1 payment event, got %d", len(repo.insertedPayments))
	}
	if len(repo.insertedUploads) != 1 {
		t.Errorf("expected 1 upload log, got %d", len(repo.insertedUploads))
	}

	wallet := repo.insertedWallets[0]
	if wallet.SessionID != "s1" || wallet.EventType != WalletEventConnect {
		t.Errorf("unexpected wallet event: %+v", wallet)
	}
	if wallet.ChainID == nil || *wallet.ChainID != 42220 {
		t.Errorf("expected chain id 42220, got %v", wallet.ChainID)
	}
	if !wallet.OccurredAt.Equal(time.Date(2025, 6, 15, 11, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected occurred_at: %v", wallet.OccurredAt)
	}

	// Both sessions must have been upserted.
	if len(repo.sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(repo.sessions))
	}
	if s := repo.sessions["s1"]; s == nil || s.WalletAddress == nil || *s.WalletAddress != "0xABC" {
		t.Errorf("expected session s1 with wallet address, got %+v", s)
	}
}

func TestProcessKafkaEventSkipsBadEvents(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	payload := []byte(`{
		"events": [
			{"type": "wallet", "sessionId": "s1", "event": "teleport"},
			{"type": "unknown_kind", "sessionId": "s1"},
			{"type": "form", "sessionId": "s1", "step": "hypercert_form", "status": "started"}
		]
	}`)

	if err := svc.ProcessKafkaEvent(context.Background(), payload); err != nil {
		t.Fatalf("ProcessKafkaEvent failed: %v", err)
	}

	if len(repo.insertedWallets) != 0 {
		t.Errorf("invalid wallet event was inserted: %+v", repo.insertedWallets)
	}
	if len(repo.insertedForms) != 1 {
		t.Errorf("expected the valid form event to be inserted, got %d", len(repo.insertedForms))
	}
}

func TestProcessKafkaEventMalformedPayload(t *testing.T) {
	svc := newTestService(newMockRepository())

	if err := svc.ProcessKafkaEvent(context.Background(), []byte(`not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestProcessKafkaEventGeneratesSessionID(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	payload := []byte(`{"events": [{"type": "form", "step": "hypercert_form", "status": "started"}]}`)

	if err := svc.ProcessKafkaEvent(context.Background(), payload); err != nil {
		t.Fatalf("ProcessKafkaEvent failed: %v", err)
	}

	if len(repo.insertedForms) != 1 {
		t.Fatalf("expected 1 form event, got %d", len(repo.insertedForms))
	}
	if repo.insertedForms[0].SessionID == "" {
		t.Error("expected a generated session id for an anonymous event")
	}
}

func TestGetTelemetryMetricsWithoutCache(t *testing.T) {
	repo := newMockRepository()
	repo.walletEvents = []WalletEvent{
		{SessionID: "s1", EventType: WalletEventConnect, WalletAddress: strPtr("0xAAA"), OccurredAt: testNow.Add(-time.Hour)},
	}
	svc := newTestService(repo)

	metrics, err := svc.GetTelemetryMetrics(context.Background())
	if err != nil {
		t.Fatalf("GetTelemetryMetrics failed: %v", err)
	}

	if metrics.Wallets.TotalConnects != 1 {
		t.Errorf("expected 1 connect, got %d", metrics.Wallets.TotalConnects)
	}
	if metrics.Wallets.MonthlyActive != 1 {
		t.Errorf("expected 1 monthly active wallet, got %d", metrics.Wallets.MonthlyActive)
	}
	if metrics.LastUpdated != testNow.Format(time.RFC3339) {
		t.Errorf("expected deterministic last_updated, got %s", metrics.LastUpdated)
	}
}
