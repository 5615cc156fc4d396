// Package postgres is the pgx/v5-backed conversation.Store, grounded on
// leanlp-BTC-coinjoin's internal/db/postgres.go: a thin wrapper around a
// pgxpool.Pool, transactions opened per call, SQL kept inline rather than
// behind an ORM. AppendMessage uses SELECT ... FOR UPDATE to take the same
// per-conversation exclusive lock the in-memory Store's mutex gives it
// (spec §4.12).
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gateway/internal/apperr"
	"gateway/internal/types"
)

// Store is a pgx/v5-backed implementation of conversation.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, connStr string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return &Store{pool: pool}, nil
}

// New wraps an already-constructed pool, used by tests with a pgxmock/
// pgxpool-compatible fake.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateConversation inserts a new conversation row.
func (s *Store) CreateConversation(ctx context.Context, conv types.Conversation) (types.Conversation, error) {
	conv.ID = uuid.New()
	const q = `
		INSERT INTO conversations
			(id, owner_user_id, tenant_id, title, model_name, temperature, last_sequence_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, q,
		conv.ID, conv.OwnerUserID, conv.TenantID, conv.Title, conv.ModelName,
		conv.Temperature, conv.LastSequenceNumber, conv.Status,
	)
	if err != nil {
		return types.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return conv, nil
}

// GetConversation reads a conversation row without locking it.
func (s *Store) GetConversation(ctx context.Context, id uuid.UUID) (types.Conversation, error) {
	const q = `
		SELECT id, owner_user_id, tenant_id, title, model_name, temperature, last_sequence_number, status
		FROM conversations WHERE id = $1
	`
	var conv types.Conversation
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&conv.ID, &conv.OwnerUserID, &conv.TenantID, &conv.Title, &conv.ModelName,
		&conv.Temperature, &conv.LastSequenceNumber, &conv.Status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Conversation{}, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return types.Conversation{}, fmt.Errorf("select conversation: %w", err)
	}
	return conv, nil
}

// ListMessages returns a conversation's messages ordered by sequence number.
func (s *Store) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]types.Message, error) {
	const q = `
		SELECT id, conversation_id, role, sequence_number, input_type, content, content_hash,
		       content_masked, scan_status, final_action, risk_score, ambiguous, matched_rule_ids,
		       entities_json, latency_ms
		FROM messages WHERE conversation_id = $1 ORDER BY sequence_number ASC
	`
	rows, err := s.pool.Query(ctx, q, conversationID)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	var msgs []types.Message
	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessageRow(row rowScanner) (types.Message, error) {
	var m types.Message
	var entitiesJSON []byte
	if err := row.Scan(
		&m.ID, &m.ConversationID, &m.Role, &m.SequenceNumber, &m.InputType, &m.Content, &m.ContentHash,
		&m.ContentMasked, &m.ScanStatus, &m.FinalAction, &m.RiskScore, &m.Ambiguous, &m.MatchedRuleIDs,
		&entitiesJSON, &m.LatencyMS,
	); err != nil {
		return types.Message{}, fmt.Errorf("scan message row: %w", err)
	}
	if len(entitiesJSON) > 0 {
		if err := json.Unmarshal(entitiesJSON, &m.EntitiesJSON); err != nil {
			return types.Message{}, fmt.Errorf("decode entities_json: %w", err)
		}
	}
	return m, nil
}

// AppendMessage opens a transaction, takes SELECT ... FOR UPDATE on the
// conversation row so no concurrent append to the same conversation can
// read a stale LastSequenceNumber, runs fn, and commits both the updated
// conversation and the new message row together. If fn returns an error the
// transaction is rolled back and nothing is persisted.
func (s *Store) AppendMessage(ctx context.Context, conversationID uuid.UUID, fn func(ctx context.Context, conv *types.Conversation) (types.Message, error)) (types.Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Message{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const lockQ = `
		SELECT id, owner_user_id, tenant_id, title, model_name, temperature, last_sequence_number, status
		FROM conversations WHERE id = $1 FOR UPDATE
	`
	var conv types.Conversation
	err = tx.QueryRow(ctx, lockQ, conversationID).Scan(
		&conv.ID, &conv.OwnerUserID, &conv.TenantID, &conv.Title, &conv.ModelName,
		&conv.Temperature, &conv.LastSequenceNumber, &conv.Status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Message{}, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return types.Message{}, fmt.Errorf("lock conversation: %w", err)
	}

	msg, err := fn(ctx, &conv)
	if err != nil {
		return types.Message{}, err
	}

	const updateConvQ = `UPDATE conversations SET last_sequence_number = $1 WHERE id = $2`
	if _, err := tx.Exec(ctx, updateConvQ, conv.LastSequenceNumber, conv.ID); err != nil {
		return types.Message{}, fmt.Errorf("update conversation: %w", err)
	}

	entitiesJSON, err := json.Marshal(msg.EntitiesJSON)
	if err != nil {
		return types.Message{}, fmt.Errorf("encode entities_json: %w", err)
	}

	const insertMsgQ = `
		INSERT INTO messages
			(id, conversation_id, role, sequence_number, input_type, content, content_hash,
			 content_masked, scan_status, final_action, risk_score, ambiguous, matched_rule_ids,
			 entities_json, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = tx.Exec(ctx, insertMsgQ,
		msg.ID, msg.ConversationID, msg.Role, msg.SequenceNumber, msg.InputType, msg.Content, msg.ContentHash,
		msg.ContentMasked, msg.ScanStatus, msg.FinalAction, msg.RiskScore, msg.Ambiguous, msg.MatchedRuleIDs,
		entitiesJSON, msg.LatencyMS,
	)
	if err != nil {
		return types.Message{}, fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Message{}, fmt.Errorf("commit tx: %w", err)
	}
	return msg, nil
}
