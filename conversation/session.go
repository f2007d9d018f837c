package conversation

import (
	"sync"
	"time"

	"wallpostbot/core/telegram/calendar"
)

// Session is the mutable data of one conversation. Fields are populated
// monotonically as the dialog advances and discarded on any terminal state.
type Session struct {
	State     State
	Caption   string
	PublishAt time.Time
	HasDate   bool
	MediaPath string
	Cursor    calendar.Cursor
}

// sessionStore keeps sessions keyed by chat ID behind a mutex so events
// from different chats never share state.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*Session)}
}

// get returns the session for a chat, creating an idle one if absent.
func (s *sessionStore) get(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		sess = &Session{State: StateIdle}
		s.sessions[chatID] = sess
	}
	return sess
}

// peek returns the session without creating one.
func (s *sessionStore) peek(chatID int64) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[chatID]
	return sess, ok
}

// drop discards the chat's session entirely.
func (s *sessionStore) drop(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

// state reports the current FSM state for a chat.
func (s *sessionStore) state(chatID int64) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[chatID]; ok {
		return sess.State
	}
	return StateIdle
}
