package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sokolabs/sokobot-backend/internal/models"
	"github.com/sokolabs/sokobot-backend/internal/phone"
	"github.com/sokolabs/sokobot-backend/internal/storage"
)

const (
	// DefaultTTL is how long a session survives without activity.
	DefaultTTL = 30 * time.Minute
	// defaultSyncTimeout bounds a single write-through to durable storage.
	defaultSyncTimeout = 5 * time.Second
)

// Store owns the in-memory map of live sessions. The in-memory copy is
// authoritative while a session is alive; every mutation queues a
// best-effort write-through to durable storage.
type Store struct {
	durable     storage.Store
	sessions    map[string]*Session
	mu          sync.RWMutex
	ttl         time.Duration
	syncTimeout time.Duration
	syncWG      sync.WaitGroup
}

// NewStore creates a session store backed by the given durable store.
func NewStore(durable storage.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		durable:     durable,
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		syncTimeout: defaultSyncTimeout,
	}
}

// Create inserts a fresh session for key, overwriting any existing entry.
// The key must be a canonical address key (see internal/phone); empty or
// malformed keys are rejected.
func (s *Store) Create(key string) (*Session, error) {
	if canonical, err := phone.Normalize(key); err != nil || canonical != key {
		return nil, fmt.Errorf("invalid address key %q", key)
	}

	now := time.Now()
	sess := &Session{
		AddressKey:     key,
		CurrentFlow:    FlowMainMenu,
		Role:           models.RoleUnset,
		Scratch:        Scratch{},
		CreatedAt:      now,
		LastActivityAt: now,
	}

	s.mu.Lock()
	s.sessions[key] = sess
	out := sess.clone()
	s.mu.Unlock()

	log.Printf("Session created for %s", key)
	return out, nil
}

// Get returns the live session for key if present and not expired, touching
// its activity timestamp. An expired session is removed and reported as a
// miss. On a miss it attempts a best-effort restore from the durable user
// record; restore failures degrade to a miss, never propagate.
func (s *Store) Get(key string) (*Session, bool) {
	s.mu.Lock()
	if sess, ok := s.sessions[key]; ok {
		if time.Since(sess.LastActivityAt) > s.ttl {
			delete(s.sessions, key)
			s.mu.Unlock()
			log.Printf("Session expired for %s", key)
			return nil, false
		}
		sess.LastActivityAt = time.Now()
		out := sess.clone()
		s.mu.Unlock()
		return out, true
	}
	s.mu.Unlock()

	return s.restore(key)
}

// restore rebuilds a session from the durable user record, if one exists.
// Only role and community survive a restart; the flow resets to the main
// menu and scratch starts empty.
func (s *Store) restore(key string) (*Session, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer cancel()

	user, err := s.durable.GetUserByPhone(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("Session restore failed for %s: %v", key, err)
		}
		return nil, false
	}

	now := time.Now()
	sess := &Session{
		AddressKey:     key,
		CurrentFlow:    FlowMainMenu,
		Role:           user.Role,
		Community:      user.Community,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	s.mu.Lock()
	// A concurrent event may have restored or created the session already.
	if existing, ok := s.sessions[key]; ok {
		existing.LastActivityAt = now
		out := existing.clone()
		s.mu.Unlock()
		return out, true
	}
	s.sessions[key] = sess
	out := sess.clone()
	s.mu.Unlock()

	log.Printf("Session restored for %s (role=%s community=%s)", key, user.Role, user.Community)
	return out, true
}

// Update merges the partial into the live session for key. Identity fields
// (AddressKey, CreatedAt) are never overwritten and Community is set-once.
// Returns a miss if no live session exists. The merge happens under the
// write lock, so concurrent updates with disjoint fields both land.
func (s *Store) Update(key string, u Update) (*Session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok || time.Since(sess.LastActivityAt) > s.ttl {
		if ok {
			delete(s.sessions, key)
		}
		s.mu.Unlock()
		return nil, false
	}

	if u.CurrentFlow != nil {
		sess.CurrentFlow = *u.CurrentFlow
	}
	if u.Role != nil {
		sess.Role = *u.Role
	}
	if u.Community != nil && sess.Community == "" {
		sess.Community = *u.Community
	}
	if u.Scratch != nil {
		sess.Scratch = u.Scratch.clone()
	}
	sess.LastActivityAt = time.Now()

	out := sess.clone()
	snapshot := s.snapshotOf(sess)
	s.mu.Unlock()

	// Best-effort write-through; the in-memory copy stays authoritative.
	s.syncWG.Add(1)
	go func() {
		defer s.syncWG.Done()
		s.syncSnapshot(snapshot)
	}()

	return out, true
}

// Delete removes the live session for key and drops its durable snapshot,
// so no stale conversation state is left behind in storage. Idempotent.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	_, existed := s.sessions[key]
	delete(s.sessions, key)
	s.mu.Unlock()

	s.syncWG.Add(1)
	go func() {
		defer s.syncWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
		defer cancel()
		if err := s.durable.DeleteSessionSnapshot(ctx, key); err != nil {
			log.Printf("Failed to delete session snapshot for %s: %v", key, err)
		}
	}()

	return existed
}

// SweepExpired removes every session past the timeout, syncing a final
// snapshot for each before removal. Sync failures are logged, not retried.
// Returns the number of sessions removed.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	var expired []*models.SessionSnapshot
	for key, sess := range s.sessions {
		if time.Since(sess.LastActivityAt) > s.ttl {
			expired = append(expired, s.snapshotOf(sess))
			delete(s.sessions, key)
		}
	}
	s.mu.Unlock()

	for _, snapshot := range expired {
		s.syncSnapshot(snapshot)
		log.Printf("Swept expired session for %s", snapshot.Phone)
	}

	return len(expired)
}

// ActiveSessions returns a snapshot of all live, unexpired sessions.
func (s *Store) ActiveSessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := []*Session{}
	for _, sess := range s.sessions {
		if time.Since(sess.LastActivityAt) <= s.ttl {
			active = append(active, sess.clone())
		}
	}
	return active
}

// Stats summarizes live sessions for monitoring.
type Stats struct {
	ActiveSessions int            `json:"active_sessions"`
	TotalSessions  int            `json:"total_sessions"`
	SessionsByFlow map[string]int `json:"sessions_by_flow"`
	SessionsByRole map[string]int `json:"sessions_by_role"`
}

// GetStats returns current session statistics
func (s *Store) GetStats() *Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		TotalSessions:  len(s.sessions),
		SessionsByFlow: make(map[string]int),
		SessionsByRole: make(map[string]int),
	}

	for _, sess := range s.sessions {
		if time.Since(sess.LastActivityAt) > s.ttl {
			continue
		}
		stats.ActiveSessions++
		stats.SessionsByFlow[string(sess.CurrentFlow)]++
		role := sess.Role
		if role == models.RoleUnset {
			role = "unset"
		}
		stats.SessionsByRole[role]++
	}

	return stats
}

// Wait blocks until all queued snapshot syncs have finished. Used on
// shutdown and in tests.
func (s *Store) Wait() {
	s.syncWG.Wait()
}

// snapshotOf must be called with the store lock held.
func (s *Store) snapshotOf(sess *Session) *models.SessionSnapshot {
	scratch, err := json.Marshal(sess.Scratch)
	if err != nil {
		// Scratch is a plain struct; this cannot realistically fail.
		scratch = []byte("{}")
	}
	return &models.SessionSnapshot{
		Phone:          sess.AddressKey,
		CurrentFlow:    string(sess.CurrentFlow),
		Role:           sess.Role,
		Community:      sess.Community,
		Scratch:        string(scratch),
		LastActivityAt: sess.LastActivityAt,
		ExpiresAt:      sess.LastActivityAt.Add(s.ttl),
	}
}

func (s *Store) syncSnapshot(snapshot *models.SessionSnapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	defer cancel()

	if err := s.durable.UpsertSessionSnapshot(ctx, snapshot); err != nil {
		log.Printf("Failed to sync session snapshot for %s: %v", snapshot.Phone, err)
	}
}
