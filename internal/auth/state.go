package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/omihq/twitter-bridge/internal/errs"
	"github.com/omihq/twitter-bridge/internal/logger"
	"go.uber.org/zap"
)

// stateTokenLength is the number of random bytes behind a state token,
// giving 256 bits of entropy.
const stateTokenLength = 32

// StateStore correlates an authorization attempt across the provider
// redirect. Entries are single-use: Consume removes the entry it returns.
// The in-memory implementation below is process-local; a deployment with
// more than one instance needs a shared TTL-capable backend behind this
// interface.
type StateStore interface {
	// Put generates a verifier and a state token, stores them against uid,
	// and returns both.
	Put(ctx context.Context, uid string) (state, verifier string, err error)

	// Consume atomically looks up and removes the entry for state. Absent,
	// already-consumed, and expired entries all fail with InvalidState.
	Consume(ctx context.Context, state string) (verifier, uid string, err error)
}

type stateEntry struct {
	verifier  string
	uid       string
	createdAt time.Time
	expiresAt time.Time
}

// MemoryStateStore keeps pending authorization states in process memory
// with a bounded lifetime.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryStateStore creates a state store whose entries expire after ttl.
func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	return &MemoryStateStore{
		entries: make(map[string]stateEntry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

func (s *MemoryStateStore) Put(_ context.Context, uid string) (string, string, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return "", "", errs.Wrap(errs.KindInternal, "could not generate code verifier", err)
	}

	state, err := newStateToken()
	if err != nil {
		return "", "", errs.Wrap(errs.KindInternal, "could not generate state token", err)
	}

	now := s.now()
	s.mu.Lock()
	s.entries[state] = stateEntry{
		verifier:  verifier,
		uid:       uid,
		createdAt: now,
		expiresAt: now.Add(s.ttl),
	}
	s.mu.Unlock()

	return state, verifier, nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (string, string, error) {
	s.mu.Lock()
	entry, ok := s.entries[state]
	if ok {
		delete(s.entries, state)
	}
	s.mu.Unlock()

	// An expired entry is never consumable, even before the janitor runs.
	if !ok || s.now().After(entry.expiresAt) {
		return "", "", errs.New(errs.KindInvalidState, "unknown, used, or expired state token")
	}

	return entry.verifier, entry.uid, nil
}

// StartJanitor begins a periodic sweep of expired entries. It returns
// immediately; call Stop to end the sweep.
func (s *MemoryStateStore) StartJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.sweep(); n > 0 {
					logger.Debug("purged expired authorization states", zap.Int("count", n))
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop ends the janitor goroutine.
func (s *MemoryStateStore) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStateStore) sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for state, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, state)
			purged++
		}
	}
	return purged
}

func newStateToken() (string, error) {
	b := make([]byte, stateTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("could not read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
