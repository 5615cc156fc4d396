// Package memory is an in-memory conversation.Store, used in tests and as
// the default when no database is configured. Per-conversation mutexes
// stand in for the Postgres implementation's SELECT ... FOR UPDATE row
// lock, giving the same "one writer at a time per conversation" guarantee.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gateway/internal/apperr"
	"gateway/internal/types"
)

// Store is an in-memory implementation of conversation.Store.
type Store struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*types.Conversation
	locks         map[uuid.UUID]*sync.Mutex
	messages      map[uuid.UUID][]types.Message
}

// New builds an empty Store.
func New() *Store {
	return &Store{
		conversations: make(map[uuid.UUID]*types.Conversation),
		locks:         make(map[uuid.UUID]*sync.Mutex),
		messages:      make(map[uuid.UUID][]types.Message),
	}
}

// CreateConversation persists a new conversation with a freshly generated ID.
func (s *Store) CreateConversation(_ context.Context, conv types.Conversation) (types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv.ID = uuid.New()
	stored := conv
	s.conversations[conv.ID] = &stored
	s.locks[conv.ID] = &sync.Mutex{}
	return stored, nil
}

// GetConversation returns a conversation by ID.
func (s *Store) GetConversation(_ context.Context, id uuid.UUID) (types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return types.Conversation{}, apperr.NotFound("conversation not found")
	}
	return *conv, nil
}

// ListMessages returns every message for conversationID, ordered by
// sequence number ascending.
func (s *Store) ListMessages(_ context.Context, conversationID uuid.UUID) ([]types.Message, error) {
	s.mu.Lock()
	msgs := make([]types.Message, len(s.messages[conversationID]))
	copy(msgs, s.messages[conversationID])
	s.mu.Unlock()

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SequenceNumber < msgs[j].SequenceNumber
	})
	return msgs, nil
}

// AppendMessage locks conversationID's per-conversation mutex for the
// duration of fn, mirroring the exclusivity a Postgres SELECT ... FOR
// UPDATE provides: only one AppendMessage call per conversation can be
// inside fn at a time, so sequence-number assignment can never race.
func (s *Store) AppendMessage(ctx context.Context, conversationID uuid.UUID, fn func(ctx context.Context, conv *types.Conversation) (types.Message, error)) (types.Message, error) {
	s.mu.Lock()
	lock, ok := s.locks[conversationID]
	if !ok {
		s.mu.Unlock()
		return types.Message{}, apperr.NotFound("conversation not found")
	}
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	s.mu.Unlock()
	if !ok {
		return types.Message{}, apperr.NotFound("conversation not found")
	}

	// Work on a copy so a failed fn never mutates shared state.
	working := *conv
	msg, err := fn(ctx, &working)
	if err != nil {
		return types.Message{}, err
	}

	s.mu.Lock()
	s.conversations[conversationID] = &working
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	s.mu.Unlock()

	return msg, nil
}
