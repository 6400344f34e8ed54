package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/sirupsen/logrus"
)

var ErrEmptyUserID = errors.New("user id is required")

type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// RemoteFactory builds the Remote strategy for a signed-in user.
type RemoteFactory func(userID string) Strategy

// Session drives a Store through sign-in and sign-out. Transitions are
// serialized; the cart queue keeps them ordered against mutations.
type Session struct {
	store  *Store
	repo   repository.CartRepository
	remote RemoteFactory
	log    logrus.FieldLogger

	mu     sync.Mutex
	state  State
	userID string
}

// NewSession starts anonymous on a fresh Local store.
func NewSession(repo repository.CartRepository, remote RemoteFactory, log logrus.FieldLogger) *Session {
	return &Session{
		store:  NewStore(NewLocalStrategy(), log),
		repo:   repo,
		remote: remote,
		log:    log,
		state:  Anonymous,
	}
}

func (s *Session) Store() *Store {
	return s.store
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID returns the signed-in user, if any.
func (s *Session) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.state == Authenticated
}

// SignIn merges a non-empty guest cart into userID's persisted cart, switches
// to the Remote strategy and reloads. Signing in again as the same user is a
// no-op; signing in as another user first signs out.
//
// A failed reload is logged and the session still ends Authenticated with an
// empty cart; a later Reload can recover.
func (s *Session) SignIn(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Authenticated {
		if s.userID == userID {
			return nil
		}
		if err := s.signOut(ctx); err != nil {
			return err
		}
	}

	s.state = Authenticating
	s.userID = userID

	merge := func(ctx context.Context, lines []domain.CartLine, saved []domain.SavedItem) {
		if len(lines) == 0 && len(saved) == 0 {
			return
		}
		Merge(ctx, s.repo, userID, lines, saved, s.log)
	}

	err := s.store.Rebind(ctx, s.remote(userID), merge)
	if err != nil && s.store.Mode() != ModeRemote {
		// the rebind never got a turn in the queue
		s.state, s.userID = Anonymous, ""
		return err
	}

	s.state = Authenticated
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("sign-in reload failed")
	}
	return nil
}

// SignOut returns to an empty Local cart. The signed-in cart stays persisted.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Anonymous {
		return nil
	}
	return s.signOut(ctx)
}

func (s *Session) signOut(ctx context.Context) error {
	if err := s.store.Rebind(ctx, NewLocalStrategy(), nil); err != nil {
		return err
	}
	s.state, s.userID = Anonymous, ""
	return nil
}

// Close releases the store.
func (s *Session) Close() {
	s.store.Close()
}
