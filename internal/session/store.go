// Package session holds the in-process conversation state the turn router
// reads and updates between turns. Entries expire lazily: staleness is
// checked on access and stale entries are evicted there, so the store needs
// no background sweeper and no timers in tests.
package session

import (
	"sync"
	"time"
)

// Domain is the conversation's established subject area. It only moves
// forward (unknown → medical/wellness) and never reverts except through
// expiry, which starts a fresh session.
type Domain string

const (
	DomainUnknown  Domain = "unknown"
	DomainMedical  Domain = "medical"
	DomainWellness Domain = "wellness"
)

// Turn is one history entry.
type Turn struct {
	Role    string
	Content string
}

type state struct {
	language    string
	domain      Domain
	lastAllowed bool
	history     []Turn
	lastTouched time.Time
}

// Store maps session identifiers to conversation state with a TTL. It is
// safe for concurrent use, but concurrent requests for the same session
// identifier may interleave history reads and writes; sessions are expected
// to have one in-flight request at a time and the store makes no atomicity
// guarantee beyond its own locking.
type Store struct {
	mu           sync.Mutex
	sessions     map[string]*state
	ttl          time.Duration
	historyLimit int
	now          func() time.Time
}

func NewStore(ttl time.Duration, historyLimit int) *Store {
	return &Store{
		sessions:     make(map[string]*state),
		ttl:          ttl,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// Snapshot is the read view handed to the router. It is a copy; mutating it
// does not touch the store.
type Snapshot struct {
	Language string
	Domain   Domain
	History  []Turn
}

// get returns the live entry, evicting it first if the TTL has lapsed.
// Callers must hold s.mu.
func (s *Store) get(id string) *state {
	st, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.now().Sub(st.lastTouched) > s.ttl {
		delete(s.sessions, id)
		return nil
	}
	return st
}

// Get returns a snapshot of the session, or false when it does not exist or
// has expired.
func (s *Store) Get(id string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(id)
	if st == nil {
		return Snapshot{}, false
	}
	st.lastTouched = s.now()

	history := make([]Turn, len(st.history))
	copy(history, st.history)
	return Snapshot{Language: st.language, Domain: st.domain, History: history}, true
}

// Create ensures a live entry exists for id, starting from a blank state
// when absent or expired.
func (s *Store) Create(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.get(id); st != nil {
		st.lastTouched = s.now()
		return
	}
	s.sessions[id] = &state{domain: DomainUnknown, lastTouched: s.now()}
}

// SetLanguage records the session language. First detection wins: once a
// language is established it is never overwritten, so a single misclassified
// turn cannot flip the conversation's language.
func (s *Store) SetLanguage(id, language string) {
	if language == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(id)
	if st == nil {
		return
	}
	if st.language == "" {
		st.language = language
	}
	st.lastTouched = s.now()
}

// SetDomain records the latest routing decision for the session.
func (s *Store) SetDomain(id string, domain Domain, allowed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(id)
	if st == nil {
		return
	}
	st.domain = domain
	st.lastAllowed = allowed
	st.lastTouched = s.now()
}

// AppendHistory appends one turn and truncates to the history limit,
// dropping the oldest entries first.
func (s *Store) AppendHistory(id, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(id)
	if st == nil {
		return
	}
	st.history = append(st.history, Turn{Role: role, Content: content})
	if n := len(st.history); n > s.historyLimit {
		st.history = st.history[n-s.historyLimit:]
	}
	st.lastTouched = s.now()
}

// History returns the bounded history, or an empty slice for an absent or
// expired session.
func (s *Store) History(id string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(id)
	if st == nil {
		return nil
	}
	st.lastTouched = s.now()

	history := make([]Turn, len(st.history))
	copy(history, st.history)
	return history
}

// Len reports the number of live entries. Expired entries that have not
// been read yet still count; only reads evict.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
