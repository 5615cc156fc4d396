package conversation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"

	"gateway/internal/apperr"
	"gateway/internal/mask"
	"gateway/internal/scan"
	"gateway/internal/types"
)

// Service is the conversation/message application surface: conversation
// creation, the atomic append protocol, and message listing.
type Service struct {
	store             Store
	auth              AuthGate
	scanner           *scan.Engine
	masker            *mask.Service
	nullContentOnMask bool
}

// New builds a Service. nullContentOnMask mirrors config.NullContentOnMask:
// when true, a masked message's original Content is nulled out rather than
// kept alongside ContentMasked (spec §9's stricter retention policy).
func New(store Store, auth AuthGate, scanner *scan.Engine, masker *mask.Service, nullContentOnMask bool) *Service {
	return &Service{store: store, auth: auth, scanner: scanner, masker: masker, nullContentOnMask: nullContentOnMask}
}

// CreateConversationInput carries the fields a caller supplies when opening
// a new conversation.
type CreateConversationInput struct {
	OwnerUserID uuid.UUID
	TenantID    *uuid.UUID // nil = personal conversation
	Title       string
	ModelName   string
	Temperature float64
}

// CreateConversation opens a new conversation. A tenant-scoped conversation
// requires active membership in that tenant — the only place Forbidden is
// used in this package (spec §7): existence is never in question here, the
// caller is creating something new, so "you may not do this" is the honest
// answer rather than "not found".
func (s *Service) CreateConversation(ctx context.Context, in CreateConversationInput) (types.Conversation, error) {
	if in.TenantID != nil {
		ok, err := s.auth.IsActiveMember(ctx, *in.TenantID, in.OwnerUserID)
		if err != nil {
			return types.Conversation{}, err
		}
		if !ok {
			return types.Conversation{}, apperr.Forbidden("active tenant membership required")
		}
	}

	conv := types.Conversation{
		OwnerUserID:        in.OwnerUserID,
		TenantID:           in.TenantID,
		Title:              in.Title,
		ModelName:          in.ModelName,
		Temperature:        in.Temperature,
		LastSequenceNumber: 0,
		Status:             types.ConversationActive,
	}
	return s.store.CreateConversation(ctx, conv)
}

// ListMessages returns a conversation's messages in sequence order.
func (s *Service) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]types.Message, error) {
	return s.store.ListMessages(ctx, conversationID)
}

// AppendUserMessageInput carries one append_user_message call's arguments.
type AppendUserMessageInput struct {
	ConversationID uuid.UUID
	UserID         uuid.UUID
	Content        string
	InputType      types.MessageInputType
}

// AppendUserMessage runs the full atomic append protocol (spec §4.12):
// lock the conversation row, verify the caller may write to it, bump the
// sequence number, scan the content, decide the persisted content shape,
// hash the original content, and commit the new message row and the
// updated conversation together. A block-decision surfaces as
// apperr.PolicyBlocked only AFTER the row has committed — the audit trail
// must reflect what happened even when the content itself does not reach
// the caller (spec §7 and Testable Property "block-implies-null-content").
func (s *Service) AppendUserMessage(ctx context.Context, in AppendUserMessageInput) (types.Message, error) {
	inputType := in.InputType
	if inputType == "" {
		inputType = types.InputUserInput
	}

	msg, err := s.store.AppendMessage(ctx, in.ConversationID, func(ctx context.Context, conv *types.Conversation) (types.Message, error) {
		if err := s.authorizeAppend(ctx, conv, in.UserID); err != nil {
			return types.Message{}, err
		}

		conv.LastSequenceNumber++
		seq := conv.LastSequenceNumber

		result, err := s.scanner.Scan(ctx, in.Content, conv.TenantID)
		if err != nil {
			return types.Message{}, err
		}

		blocked := result.FinalAction == types.ActionBlock
		isMasked := result.FinalAction == types.ActionMask

		var content *string
		if !blocked && !(isMasked && s.nullContentOnMask) {
			c := in.Content
			content = &c
		}

		var masked *string
		if isMasked {
			m, err := s.masker.Mask(in.Content, result.Entities)
			if err != nil {
				return types.Message{}, err
			}
			masked = &m
		}

		matchedIDs := make([]string, len(result.Matches))
		for i, m := range result.Matches {
			matchedIDs[i] = m.RuleID.String()
		}

		return types.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			Role:           types.RoleUser,
			SequenceNumber: seq,
			InputType:      inputType,
			Content:        content,
			ContentHash:    sha256Hex(in.Content),
			ContentMasked:  masked,
			ScanStatus:     types.ScanDone,
			FinalAction:    result.FinalAction,
			RiskScore:      result.RiskScore,
			Ambiguous:      result.Ambiguous,
			MatchedRuleIDs: matchedIDs,
			EntitiesJSON: types.EntitiesSummary{
				Entities:     result.Entities,
				Signals:      result.Signals,
				MatchedRules: result.Matches,
			},
			LatencyMS: result.LatencyMS,
		}, nil
	})
	if err != nil {
		return types.Message{}, err
	}

	if msg.Blocked() {
		return msg, apperr.PolicyBlocked("message blocked by policy")
	}
	return msg, nil
}

// authorizeAppend mirrors the original service's two ownership checks: a
// personal conversation requires the caller to be its owner; a tenant
// conversation requires active tenant membership. Both failures return
// NotFound, not Forbidden — conversation existence must never leak to a
// caller who cannot access it (spec §7).
func (s *Service) authorizeAppend(ctx context.Context, conv *types.Conversation, userID uuid.UUID) error {
	if conv.TenantID == nil {
		if conv.OwnerUserID != userID {
			return apperr.NotFound("conversation not found")
		}
		return nil
	}

	ok, err := s.auth.IsActiveMember(ctx, *conv.TenantID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("conversation not found")
	}
	return nil
}

func sha256Hex(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
