package types

import "github.com/google/uuid"

// ConversationStatus is the lifecycle state of a Conversation.
type ConversationStatus string

// Known conversation statuses.
const (
	ConversationActive   ConversationStatus = "active"
	ConversationArchived ConversationStatus = "archived"
)

// Conversation is an ordered, append-only log of messages with a monotonic
// sequence number (spec §3). TenantID nil means a personal conversation;
// non-nil means it belongs to a tenant-isolation scope.
type Conversation struct {
	ID                 uuid.UUID
	OwnerUserID         uuid.UUID
	TenantID            *uuid.UUID
	Title               string
	ModelName           string
	Temperature         float64
	LastSequenceNumber  int64
	Status              ConversationStatus
}
