package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Repository interface {
	// Range queries for report generation
	GetWalletEvents(ctx context.Context, since time.Time) ([]WalletEvent, error)
	GetFormEvents(ctx context.Context, since time.Time) ([]FormEvent, error)
	GetSwapEvents(ctx context.Context, since time.Time) ([]SwapEvent, error)
	GetPaymentEvents(ctx context.Context, since time.Time) ([]PaymentFlowEvent, error)
	GetUploadLogs(ctx context.Context, since time.Time) ([]UploadLog, error)
	GetSessions(ctx context.Context, since time.Time) ([]Session, error)
	GetWalletFirstSeen(ctx context.Context) (map[string]time.Time, error)

	// Ingestion writes
	InsertWalletEvent(ctx context.Context, event *WalletEvent) error
	InsertFormEvent(ctx context.Context, event *FormEvent) error
	InsertSwapEvent(ctx context.Context, event *SwapEvent) error
	InsertPaymentEvent(ctx context.Context, event *PaymentFlowEvent) error
	InsertUploadLog(ctx context.Context, log *UploadLog) error
	UpsertSession(ctx context.Context, session *Session) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetWalletEvents(ctx context.Context, since time.Time) ([]WalletEvent, error) {
	query := `
		SELECT id, session_id, wallet_address, event_type, chain_id, connector, message, context, occurred_at
		FROM wallet_events
		WHERE occurred_at >= $1
		ORDER BY occurred_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet events: %w", err)
	}
	defer rows.Close()

	var events []WalletEvent
	for rows.Next() {
		var e WalletEvent
		var rawContext []byte
		if err := rows.Scan(&e.ID, &e.SessionID, &e.WalletAddress, &e.EventType, &e.ChainID, &e.Connector, &e.Message, &rawContext, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet event: %w", err)
		}
		e.Context = rawContext
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *repository) GetFormEvents(ctx context.Context, since time.Time) ([]FormEvent, error) {
	query := `
		SELECT id, session_id, submission_id, step, status, hypercert_id, context, occurred_at
		FROM form_events
		WHERE occurred_at >= $1
		ORDER BY occurred_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get form events: %w", err)
	}
	defer rows.Close()

	var events []FormEvent
	for rows.Next() {
		var e FormEvent
		var rawContext []byte
		if err := rows.Scan(&e.ID, &e.SessionID, &e.SubmissionID, &e.Step, &e.Status, &e.HypercertID, &rawContext, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan form event: %w", err)
		}
		e.Context = rawContext
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *repository) GetSwapEvents(ctx context.Context, since time.Time) ([]SwapEvent, error) {
	query := `
		SELECT id, session_id, hypercert_id, event_type, route_id, from_chain_id, to_chain_id,
			   from_token, to_token, amount_in, amount_out, duration_ms, error_label, occurred_at
		FROM lifi_swap_events
		WHERE occurred_at >= $1
		ORDER BY occurred_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get swap events: %w", err)
	}
	defer rows.Close()

	var events []SwapEvent
	for rows.Next() {
		var e SwapEvent
		if err := rows.Scan(&e.ID, &e.SessionID, &e.HypercertID, &e.EventType, &e.RouteID, &e.FromChainID, &e.ToChainID,
			&e.FromToken, &e.ToToken, &e.AmountInUSD, &e.AmountOutUSD, &e.DurationMs, &e.ErrorLabel, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan swap event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *repository) GetPaymentEvents(ctx context.Context, since time.Time) ([]PaymentFlowEvent, error) {
	query := `
		SELECT id, session_id, hypercert_id, order_id, step_index, step_name, status, tx_hash, context, occurred_at
		FROM payment_flow_events
		WHERE occurred_at >= $1
		ORDER BY occurred_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment events: %w", err)
	}
	defer rows.Close()

	var events []PaymentFlowEvent
	for rows.Next() {
		var e PaymentFlowEvent
		var rawContext []byte
		if err := rows.Scan(&e.ID, &e.SessionID, &e.HypercertID, &e.OrderID, &e.StepIndex, &e.StepName, &e.Status, &e.TxHash, &rawContext, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment event: %w", err)
		}
		e.Context = rawContext
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *repository) GetUploadLogs(ctx context.Context, since time.Time) ([]UploadLog, error) {
	query := `
		SELECT id, session_id, wallet_address, status, cid, size_bytes, mime_type, occurred_at
		FROM ipfs_upload_logs
		WHERE occurred_at >= $1
		ORDER BY occurred_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get upload logs: %w", err)
	}
	defer rows.Close()

	var logs []UploadLog
	for rows.Next() {
		var l UploadLog
		if err := rows.Scan(&l.ID, &l.SessionID, &l.WalletAddress, &l.Status, &l.CID, &l.SizeBytes, &l.MimeType, &l.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload log: %w", err)
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

func (r *repository) GetSessions(ctx context.Context, since time.Time) ([]Session, error) {
	query := `
		SELECT id, wallet_address, created_at, last_seen, referrer, user_agent
		FROM telemetry_sessions
		WHERE created_at >= $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.WalletAddress, &s.CreatedAt, &s.LastSeen, &s.Referrer, &s.UserAgent); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// GetWalletFirstSeen returns the earliest session creation time per wallet
// address across all time. Retention classification needs history beyond the
// report window.
func (r *repository) GetWalletFirstSeen(ctx context.Context) (map[string]time.Time, error) {
	query := `
		SELECT LOWER(wallet_address), MIN(created_at)
		FROM telemetry_sessions
		WHERE wallet_address IS NOT NULL
		GROUP BY LOWER(wallet_address)
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet first seen: %w", err)
	}
	defer rows.Close()

	firstSeen := make(map[string]time.Time)
	for rows.Next() {
		var address string
		var createdAt time.Time
		if err := rows.Scan(&address, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet first seen: %w", err)
		}
		firstSeen[address] = createdAt
	}

	return firstSeen, rows.Err()
}

func (r *repository) InsertWalletEvent(ctx context.Context, event *WalletEvent) error {
	query := `
		INSERT INTO wallet_events (session_id, wallet_address, event_type, chain_id, connector, message, context, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		event.SessionID,
		event.WalletAddress,
		event.EventType,
		event.ChainID,
		event.Connector,
		event.Message,
		nullableJSON(event.Context),
		event.OccurredAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert wallet event: %w", err)
	}

	return nil
}

func (r *repository) InsertFormEvent(ctx context.Context, event *FormEvent) error {
	query := `
		INSERT INTO form_events (session_id, submission_id, step, status, hypercert_id, context, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		event.SessionID,
		event.SubmissionID,
		event.Step,
		event.Status,
		event.HypercertID,
		nullableJSON(event.Context),
		event.OccurredAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert form event: %w", err)
	}

	return nil
}

func (r *repository) InsertSwapEvent(ctx context.Context, event *SwapEvent) error {
	query := `
		INSERT INTO lifi_swap_events (session_id, hypercert_id, event_type, route_id, from_chain_id, to_chain_id,
			from_token, to_token, amount_in, amount_out, duration_ms, error_label, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		event.SessionID,
		event.HypercertID,
		event.EventType,
		event.RouteID,
		event.FromChainID,
		event.ToChainID,
		event.FromToken,
		event.ToToken,
		event.AmountInUSD,
		event.AmountOutUSD,
		event.DurationMs,
		event.ErrorLabel,
		event.OccurredAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert swap event: %w", err)
	}

	return nil
}

func (r *repository) InsertPaymentEvent(ctx context.Context, event *PaymentFlowEvent) error {
	query := `
		INSERT INTO payment_flow_events (session_id, hypercert_id, order_id, step_index, step_name, status, tx_hash, context, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		event.SessionID,
		event.HypercertID,
		event.OrderID,
		event.StepIndex,
		event.StepName,
		event.Status,
		event.TxHash,
		nullableJSON(event.Context),
		event.OccurredAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert payment event: %w", err)
	}

	return nil
}

func (r *repository) InsertUploadLog(ctx context.Context, log *UploadLog) error {
	query := `
		INSERT INTO ipfs_upload_logs (session_id, wallet_address, status, cid, size_bytes, mime_type, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		log.SessionID,
		log.WalletAddress,
		log.Status,
		log.CID,
		log.SizeBytes,
		log.MimeType,
		log.OccurredAt,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("failed to insert upload log: %w", err)
	}

	return nil
}

// UpsertSession creates the session row on first sight and advances last_seen
// on every subsequent event. The wallet address sticks once known.
func (r *repository) UpsertSession(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO telemetry_sessions (id, wallet_address, created_at, last_seen, referrer, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			wallet_address = COALESCE(telemetry_sessions.wallet_address, EXCLUDED.wallet_address),
			last_seen = GREATEST(telemetry_sessions.last_seen, EXCLUDED.last_seen)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.WalletAddress,
		session.CreatedAt,
		session.LastSeen,
		session.Referrer,
		session.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

// nullableJSON maps an absent context blob to NULL instead of an empty string
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "" {
		return nil
	}
	return []byte(raw)
}
