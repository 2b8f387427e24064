package game

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SessionState is the per-connection lifecycle position. Transitions move
// forward only, except logout and character-switch which fall back to
// Authenticated.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateCharacterSelected
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateCharacterSelected:
		return "character_selected"
	default:
		return "disconnected"
	}
}

// Session is the server side of one client connection. The world holds a
// registry of sessions for broadcast; gameplay state stays on Commander.
type Session struct {
	ID string

	mu        sync.Mutex
	state     SessionState
	account   string
	commander string

	out     chan []byte
	limiter *rate.Limiter
	opened  time.Time
}

// NewSession builds a connection session in the unauthenticated state.
func NewSession(id string, cfg *Config, now time.Time) *Session {
	return &Session{
		ID:      id,
		state:   StateUnauthenticated,
		out:     make(chan []byte, 64),
		limiter: rate.NewLimiter(rate.Limit(cfg.ActionRateLimitPerSecond), cfg.ActionRateLimitBurst),
		opened:  now,
	}
}

// State reports the current lifecycle position.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Account returns the authenticated account name, empty before login.
func (s *Session) Account() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// Commander returns the selected character name, empty before selection.
func (s *Session) Commander() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commander
}

// Authenticate transitions Unauthenticated → Authenticated.
func (s *Session) Authenticate(account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnauthenticated {
		return reject(RejectNotReady, "already authenticated")
	}
	s.state = StateAuthenticated
	s.account = account
	return nil
}

// SelectCommander transitions Authenticated → CharacterSelected, and also
// handles character-switch from CharacterSelected.
func (s *Session) SelectCommander(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateAuthenticated, StateCharacterSelected:
		s.state = StateCharacterSelected
		s.commander = name
		return nil
	case StateUnauthenticated:
		return reject(RejectNotReady, "authenticate first")
	default:
		return reject(RejectNotReady, "session closed")
	}
}

// Logout drops back to Authenticated, releasing the selected character.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCharacterSelected {
		return reject(RejectNotReady, "no character selected")
	}
	s.state = StateAuthenticated
	s.commander = ""
	return nil
}

// Disconnect is terminal.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDisconnected
}

// RequireCommander returns the selected character or a NotReady rejection;
// every gameplay action calls this before touching the world.
func (s *Session) RequireCommander() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCharacterSelected || s.commander == "" {
		return "", reject(RejectNotReady, "select a character first")
	}
	return s.commander, nil
}

// Allow applies the per-session action rate limit.
func (s *Session) Allow() bool {
	return s.limiter.Allow()
}

// Send queues an encoded frame for the connection writer, dropping the
// frame when the client cannot keep up.
func (s *Session) Send(frame []byte) bool {
	select {
	case s.out <- frame:
		return true
	default:
		return false
	}
}
