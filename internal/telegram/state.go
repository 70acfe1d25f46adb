package telegram

import (
	"sync"
	"time"

	"github.com/zohouse/questbot/internal/models"
)

type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingWallet
	StateAwaitingTitle
	StateAwaitingDescription
	StateAwaitingValidationType
	StateAwaitingParty
	StateAwaitingCategory
	StateAwaitingPoints
	StateAwaitingDeadline
	StateAwaitingImageChoice
	StateAwaitingImageUpload
	StateAwaitingIconCategory
	StateAwaitingConfirm
)

// Session is one user's in-flight conversation: either the wallet prompt or
// the multi-step quest creation wizard.
type Session struct {
	State        SessionState
	Draft        models.Quest
	PartyPage    int
	IconCategory string
	PhotoFileID  string
	UpdatedAt    time.Time
}

// StateManager keeps per-user sessions in memory, keyed by Telegram user ID
// so two admins working in the same group never share a wizard. Sessions
// idle longer than the TTL are dropped on access so abandoned wizards don't
// linger.
type StateManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStateManager(ttl time.Duration) *StateManager {
	return &StateManager{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *StateManager) Get(userID int64) *Session {
	m.mu.RLock()
	session, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		if m.ttl > 0 && m.now().Sub(session.UpdatedAt) > m.ttl {
			m.Reset(userID)
			return &Session{State: StateIdle}
		}
		return session
	}
	return &Session{State: StateIdle}
}

func (m *StateManager) Set(userID int64, session *Session) {
	session.UpdatedAt = m.now()
	m.mu.Lock()
	m.sessions[userID] = session
	m.mu.Unlock()
}

func (m *StateManager) Reset(userID int64) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}
