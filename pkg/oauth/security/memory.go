package security

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and single-instance dev
// setups. Entries expire lazily on access.
type MemoryStore struct {
	name string
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	sc      SecurityContext
	expires time.Time
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(name string, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		name:    name,
		ttl:     ttl,
		entries: map[string]memoryEntry{},
	}
}

// Save implements Store.
func (s *MemoryStore) Save(w http.ResponseWriter, r *http.Request, sc *SecurityContext) error {
	key := s.sessionKey(r)
	if key == "" {
		key = uuid.NewString()
	}

	s.mu.Lock()
	s.entries[key] = memoryEntry{sc: *sc, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    key,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(r *http.Request) (*SecurityContext, error) {
	key := s.sessionKey(r)
	if key == "" {
		return nil, nil
	}

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expires) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, nil
	}

	sc := entry.sc
	return &sc, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(w http.ResponseWriter, r *http.Request) error {
	if key := s.sessionKey(r); key != "" {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:   s.name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return nil
}

func (s *MemoryStore) sessionKey(r *http.Request) string {
	cookie, err := r.Cookie(s.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
