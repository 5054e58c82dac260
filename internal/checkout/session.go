package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-storefront/internal/cart"
)

var (
	// ErrSessionNotFound is returned for unknown, expired or foreign sessions.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrSubmissionInFlight is returned when an order submission is already running for the session.
	ErrSubmissionInFlight = errors.New("order submission already in flight")
)

const defaultSessionTTL = 30 * time.Minute

// Session is one checkout page visit. Its controller is only touched while the
// session mutex is held.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	mu         sync.Mutex
	controller Controller
	touchedAt  time.Time
	inFlight   bool
}

// Do runs fn with exclusive access to the session controller.
func (s *Session) Do(fn func(c *Controller) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.controller)
}

// Update applies fn to the session controller under the session lock.
func (s *Session) Update(fn func(c *Controller)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.controller)
}

// State returns a copy of the current step and draft.
func (s *Session) State() Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller
}

// BeginSubmit marks a submission as running. It fails when one already is.
func (s *Session) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrSubmissionInFlight
	}
	s.inFlight = true
	return nil
}

// EndSubmit clears the in-flight flag.
func (s *Session) EndSubmit() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// InFlight reports whether a submission is running.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Submittable re-runs the submission guard against the snapshot and returns the
// draft that would be submitted.
func (s *Session) Submittable(snapshot cart.Cart) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.controller.Submittable(snapshot); err != nil {
		return Draft{}, err
	}
	return s.controller.Draft, nil
}

// Store keeps checkout sessions in process memory. A session is bound to the
// user that created it and expires after TTL without activity.
type Store struct {
	TTL time.Duration
	Now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func (st *Store) now() time.Time {
	if st.Now != nil {
		return st.Now()
	}
	return time.Now()
}

func (st *Store) ttl() time.Duration {
	if st.TTL > 0 {
		return st.TTL
	}
	return defaultSessionTTL
}

// Create starts a fresh session with an empty draft.
func (st *Store) Create(userID string) *Session {
	now := st.now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		touchedAt: now,
	}
	st.mu.Lock()
	if st.sessions == nil {
		st.sessions = make(map[string]*Session)
	}
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

// Get returns the user's session and refreshes its idle timer.
func (st *Store) Get(id, userID string) (*Session, error) {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if now.Sub(sess.touchedAt) > st.ttl() && !sess.inFlight {
		delete(st.sessions, id)
		return nil, ErrSessionNotFound
	}
	sess.touchedAt = now
	return sess, nil
}

// Discard drops the session and its draft.
func (st *Store) Discard(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes idle sessions and returns how many were dropped. Sessions with
// a submission in flight are kept.
func (st *Store) Sweep() int {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, sess := range st.sessions {
		sess.mu.Lock()
		expired := now.Sub(sess.touchedAt) > st.ttl() && !sess.inFlight
		sess.mu.Unlock()
		if expired {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}
