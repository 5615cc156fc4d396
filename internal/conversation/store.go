// Package conversation implements the append-only conversation/message log
// and the atomic append protocol, grounded on the original service's
// conversation/service.py: append_user_message, create_personal_conversation,
// create_company_conversation, and list_messages.
package conversation

import (
	"context"

	"github.com/google/uuid"

	"gateway/internal/types"
)

// AuthGate authorizes tenant-scoped operations. It is an external
// collaborator: the gateway core never looks inside a membership table
// itself, it only asks this interface whether a user may act within a
// tenant. Implementations typically wrap a company-membership table.
type AuthGate interface {
	// IsActiveMember reports whether userID is an active member of tenantID.
	IsActiveMember(ctx context.Context, tenantID uuid.UUID, userID uuid.UUID) (bool, error)
}

// Store persists conversations and messages. AppendMessage is the only
// write path that needs a transaction: it must hold an exclusive lock on
// the conversation row for the duration of fn, so two concurrent appends to
// the same conversation can never race on SequenceNumber (spec §4.12,
// Testable Property "sequence monotonicity under concurrency").
type Store interface {
	// CreateConversation persists a new conversation and returns it with its
	// generated ID.
	CreateConversation(ctx context.Context, conv types.Conversation) (types.Conversation, error)

	// GetConversation returns a conversation by ID without locking it.
	GetConversation(ctx context.Context, id uuid.UUID) (types.Conversation, error)

	// ListMessages returns every message in a conversation, ordered by
	// SequenceNumber ascending.
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]types.Message, error)

	// AppendMessage locks conversationID's row, invokes fn with the locked
	// conversation, and — if fn succeeds — persists both fn's returned
	// message and the (possibly mutated) conversation in the same
	// transaction before releasing the lock. If fn returns an error, nothing
	// is persisted and the lock is released.
	AppendMessage(ctx context.Context, conversationID uuid.UUID, fn func(ctx context.Context, conv *types.Conversation) (types.Message, error)) (types.Message, error)
}
