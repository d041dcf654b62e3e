package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one recorded conversation turn, kept for the conversation
// history endpoint and debugging. Transcripts live in memory only; they are
// not persisted across restarts.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is an in-memory transcript log keyed by conversation identifier.
type Store struct {
	mu       sync.RWMutex
	messages map[string][]Message
}

// NewStore bootstraps an empty transcript store.
func NewStore() *Store {
	return &Store{messages: make(map[string][]Message)}
}

// Append records one turn for a conversation.
func (s *Store) Append(conversationID, sender, content string) {
	if conversationID == "" || content == "" {
		return
	}

	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}

	s.mu.Lock()
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	s.mu.Unlock()
}

// History returns the recorded turns for a conversation in order.
func (s *Store) History(conversationID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.messages[conversationID]
	copied := make([]Message, len(messages))
	copy(copied, messages)
	return copied
}

// Drop discards a conversation's transcript.
func (s *Store) Drop(conversationID string) {
	s.mu.Lock()
	delete(s.messages, conversationID)
	s.mu.Unlock()
}
