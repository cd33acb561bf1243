// Package session keeps per-conversation history and rolling summaries in
// memory, keyed by session id.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"docqa/internal/logging"
	"docqa/internal/pipeline"
)

// Conversation is the stored record for one session.
type Conversation struct {
	ID        string
	History   []pipeline.Turn
	Summary   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store holds conversations for the lifetime of the process. Values
// returned to callers are copies; mutation happens only through Store
// methods.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Conversation
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Conversation)}
}

// GetOrCreate returns the conversation for id, creating it first if
// needed. An empty id gets a fresh UUID.
func (s *Store) GetOrCreate(id string) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	conv, ok := s.sessions[id]
	if !ok {
		now := time.Now()
		conv = &Conversation{ID: id, CreatedAt: now, UpdatedAt: now}
		s.sessions[id] = conv
		logging.Session("Created session %s", id)
	}
	return copyConversation(conv)
}

// Get returns a copy of the conversation, if it exists.
func (s *Store) Get(id string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.sessions[id]
	if !ok {
		return Conversation{}, false
	}
	return copyConversation(conv), true
}

// AppendTurn records a completed question/answer exchange.
func (s *Store) AppendTurn(id string, turn pipeline.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.sessions[id]
	if !ok {
		now := time.Now()
		conv = &Conversation{ID: id, CreatedAt: now}
		s.sessions[id] = conv
	}
	conv.History = append(conv.History, turn)
	conv.UpdatedAt = time.Now()
}

// SetSummary replaces the conversation's rolling summary.
func (s *Store) SetSummary(id, summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.sessions[id]; ok {
		conv.Summary = summary
		conv.UpdatedAt = time.Now()
	}
}

// List returns copies of all conversations, most recently updated first.
func (s *Store) List() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Conversation, 0, len(s.sessions))
	for _, conv := range s.sessions {
		out = append(out, copyConversation(conv))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Reset clears a conversation's history and summary while keeping the
// session itself. Returns whether it existed.
func (s *Store) Reset(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.sessions[id]
	if !ok {
		return false
	}
	conv.History = nil
	conv.Summary = ""
	conv.UpdatedAt = time.Now()
	logging.Session("Reset session %s", id)
	return true
}

// Delete removes a conversation. Returns whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	logging.Session("Deleted session %s", id)
	return true
}

func copyConversation(conv *Conversation) Conversation {
	out := *conv
	out.History = make([]pipeline.Turn, len(conv.History))
	copy(out.History, conv.History)
	return out
}
