package http

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/sirupsen/logrus"
)

var ErrTooManySessions = errors.New("too many cart sessions")

type sessionEntry struct {
	session  *cart.Session
	lastSeen time.Time
}

// SessionRegistry owns one cart.Session per browser session id, closes
// sessions that stay idle longer than ttl and holds at most limit sessions.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	create   func() *cart.Session
	ttl      time.Duration
	limit    int
	now      func() time.Time
	log      logrus.FieldLogger
}

// NewSessionRegistry builds a registry; maxSessions <= 0 means unbounded.
func NewSessionRegistry(create func() *cart.Session, ttl time.Duration, maxSessions int, log logrus.FieldLogger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*sessionEntry),
		create:   create,
		ttl:      ttl,
		limit:    maxSessions,
		now:      time.Now,
		log:      log,
	}
}

// Get returns the session for id, creating an anonymous one on first use.
// A new id on a full registry first evicts idle sessions and fails with
// ErrTooManySessions when none were idle.
func (r *SessionRegistry) Get(id string) (*cart.Session, error) {
	if s, ok := r.lookup(id); ok {
		return s, nil
	}
	if evicted := r.Evict(); evicted > 0 {
		r.log.WithField("evicted", evicted).Debug("idle cart sessions closed on demand")
	}
	if s, ok := r.lookup(id); ok {
		return s, nil
	}
	r.log.WithField("limit", r.limit).Warn("cart session limit reached")
	return nil, ErrTooManySessions
}

// lookup returns the session for id, creating it while there is room.
func (r *SessionRegistry) lookup(id string) (*cart.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		if r.limit > 0 && len(r.sessions) >= r.limit {
			return nil, false
		}
		e = &sessionEntry{session: r.create()}
		r.sessions[id] = e
	}
	e.lastSeen = r.now()
	return e.session, true
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict closes and drops idle sessions and returns how many went.
func (r *SessionRegistry) Evict() int {
	r.mu.Lock()
	cutoff := r.now().Add(-r.ttl)
	var idle []*cart.Session
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

// Run evicts idle sessions every tick until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.log.WithField("evicted", n).Debug("idle cart sessions closed")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *SessionRegistry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*sessionEntry)
	r.mu.Unlock()

	for _, e := range all {
		e.session.Close()
	}
}
