// Package session tracks who is signed in to the backend and holds their
// token pair across the refresh cycle.
package session

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-faster/errors"
)

// State is a stage of the session lifecycle.
type State int

const (
	Anonymous State = iota
	Authenticated
	Refreshing
	Expired
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TransitionError is returned for a state change the lifecycle does not allow.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("session: cannot go from %s to %s", e.From, e.To)
}

var transitions = map[State][]State{
	Anonymous:     {Authenticated},
	Authenticated: {Refreshing, Expired, Anonymous},
	Refreshing:    {Authenticated, Expired, Anonymous},
	Expired:       {Authenticated, Anonymous},
}

func canMove(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// ErrNoRefreshToken is returned when a refresh is attempted without one.
var ErrNoRefreshToken = errors.New("no refresh token")

// Session is the signed-in state shared by the client and its callers.
type Session struct {
	mu       sync.Mutex
	state    State
	tokens   Tokens
	identity *Identity
	store    Store
}

// New restores a session from store. A missing or unreadable token leaves the
// session anonymous.
func New(store Store) (*Session, error) {
	s := &Session{store: store}

	t, err := store.Load()
	if errors.Is(err, ErrNoTokens) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load tokens")
	}

	id, err := DecodeIdentity(t.Access)
	if err != nil {
		if cerr := store.Clear(); cerr != nil {
			return nil, errors.Wrap(cerr, "clear unreadable tokens")
		}
		return s, nil
	}
	s.state, s.tokens, s.identity = Authenticated, t, id
	return s, nil
}

func (s *Session) move(to State) error {
	if !canMove(s.state, to) {
		return &TransitionError{From: s.state, To: to}
	}
	s.state = to
	return nil
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the signed-in user, or nil when there is none.
func (s *Session) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// Token returns the current access token; empty when signed out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Anonymous || s.state == Expired {
		return ""
	}
	return s.tokens.Access
}

// Login stores a freshly issued token pair.
func (s *Session) Login(t Tokens) error {
	id, err := DecodeIdentity(t.Access)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.move(Authenticated); err != nil {
		return err
	}
	s.tokens, s.identity = t, id
	if err := s.save(); err != nil {
		return errors.Wrap(err, "save tokens")
	}
	return nil
}

// BeginRefresh marks the session as refreshing and hands out the refresh
// token to exchange.
func (s *Session) BeginRefresh() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Authenticated && s.tokens.Refresh == "" {
		return "", ErrNoRefreshToken
	}
	if err := s.move(Refreshing); err != nil {
		return "", err
	}
	return s.tokens.Refresh, nil
}

// CompleteRefresh installs the rotated token pair.
func (s *Session) CompleteRefresh(t Tokens) error {
	id, err := DecodeIdentity(t.Access)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Refreshing {
		return &TransitionError{From: s.state, To: Authenticated}
	}
	s.state = Authenticated
	if t.Refresh == "" {
		t.Refresh = s.tokens.Refresh
	}
	s.tokens, s.identity = t, id
	if err := s.save(); err != nil {
		return errors.Wrap(err, "save tokens")
	}
	return nil
}

// Expire drops the token pair and the identity after a failed refresh.
func (s *Session) Expire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.move(Expired); err != nil {
		return err
	}
	return s.clear()
}

// Logout signs out from any state.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Anonymous {
		return nil
	}
	s.state = Anonymous
	return s.clear()
}

func (s *Session) save() error {
	if s.store == nil {
		return nil
	}
	return s.store.Save(s.tokens)
}

func (s *Session) clear() error {
	s.tokens, s.identity = Tokens{}, nil
	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(); err != nil {
		return errors.Wrap(err, "clear tokens")
	}
	return nil
}

// StaticToken is a fixed bearer token that cannot be refreshed. The console
// server forwards each caller's token this way.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

func (StaticToken) BeginRefresh() (string, error) { return "", ErrNoRefreshToken }

func (StaticToken) CompleteRefresh(Tokens) error { return ErrNoRefreshToken }

func (StaticToken) Expire() error { return nil }
