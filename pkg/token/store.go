package token

import (
	"sync"
)

// DefaultCapacity is the number of outstanding tokens a session keeps.
const DefaultCapacity = 10

// Store keeps the tokens issued to one client session.
type Store interface {
	// Register records an issued token, evicting the oldest when full.
	Register(token string) error
	// Verify reports whether token was issued and removes it.
	Verify(token string) (bool, error)
	// ClientSalt returns the client fingerprint mixed into token hashes.
	ClientSalt() string
}

// MemoryStore is an in-process Store for a single session.
type MemoryStore struct {
	mu       sync.Mutex
	tokens   []string
	capacity int
	salt     string
}

// NewMemoryStore returns a store bound to the given client fingerprint. A
// capacity below one selects DefaultCapacity.
func NewMemoryStore(clientSalt string, capacity int) *MemoryStore {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity, salt: clientSalt}
}

// Register implements Store.
func (s *MemoryStore) Register(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = append(s.tokens, token)
	if over := len(s.tokens) - s.capacity; over > 0 {
		s.tokens = append([]string(nil), s.tokens[over:]...)
	}
	return nil
}

// Verify implements Store.
func (s *MemoryStore) Verify(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, candidate := range s.tokens {
		if candidate == token {
			s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ClientSalt implements Store.
func (s *MemoryStore) ClientSalt() string {
	return s.salt
}

// Len returns the number of outstanding tokens.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// Sessions hands out one MemoryStore per session id.
type Sessions struct {
	mu       sync.Mutex
	stores   map[string]*MemoryStore
	capacity int
}

// NewSessions returns an empty session registry.
func NewSessions(capacity int) *Sessions {
	return &Sessions{stores: make(map[string]*MemoryStore), capacity: capacity}
}

// Store returns the store for session, creating it on first use. The
// fingerprint is fixed when the store is created.
func (s *Sessions) Store(session, fingerprint string) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.stores[session]
	if !ok {
		store = NewMemoryStore(fingerprint+session, s.capacity)
		s.stores[session] = store
	}
	return store
}

// Forget drops the store for session.
func (s *Sessions) Forget(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stores, session)
}
