package types

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies who authored a message.
type MessageRole string

// Known message roles.
const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// MessageInputType classifies how a message entered the conversation.
type MessageInputType string

// Known input types.
const (
	InputUserInput    MessageInputType = "user_input"
	InputSystemPrompt MessageInputType = "system_prompt"
	InputToolResult   MessageInputType = "tool_result"
)

// ScanStatus tracks where a message's scan stands relative to persistence.
type ScanStatus string

// Known scan statuses.
const (
	ScanPending ScanStatus = "pending"
	ScanDone    ScanStatus = "done"
	ScanFailed  ScanStatus = "failed"
)

// Message is one row in a conversation's append-only log (spec §3).
//
// Invariants enforced by the appender, not by this struct:
//   - (ConversationID, SequenceNumber) is unique and dense from 1.
//   - ContentHash is computed over the original input even when Content is nil.
//   - FinalAction == block implies Content is nil.
//   - FinalAction == mask implies ContentMasked is non-nil.
type Message struct {
	ID               uuid.UUID
	ConversationID   uuid.UUID
	Role             MessageRole
	SequenceNumber   int64
	InputType        MessageInputType
	Content          *string
	ContentHash      string
	ContentMasked    *string
	ScanStatus       ScanStatus
	ScanVersion      int
	PreRAGAction     *RuleAction
	FinalAction      RuleAction
	RiskScore        float64
	Ambiguous        bool
	MatchedRuleIDs   []string
	EntitiesJSON     EntitiesSummary
	RAGEvidenceJSON  map[string]string
	LatencyMS        int64
	CreatedAt        time.Time
}

// Blocked derives the caller-facing blocked flag from FinalAction.
func (m Message) Blocked() bool { return m.FinalAction == ActionBlock }

// EntitiesSummary is the shape persisted into messages.entities_json: the
// detector findings, the signal snapshot, and which rules matched, kept
// together so an auditor can reconstruct a scan's reasoning without re-running
// detectors against (now possibly redacted) content.
type EntitiesSummary struct {
	Entities     []Entity    `json:"entities"`
	Signals      Signals     `json:"signals"`
	MatchedRules []RuleMatch `json:"matched_rules"`
}
