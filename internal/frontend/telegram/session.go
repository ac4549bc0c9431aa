package telegram

import (
	"log/slog"
	"sync"

	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

// session is one chat's pair of screens. The controllers live as long as the
// session so a chat's navigation supersedes its own in-flight fetches.
type session struct {
	list   *viewstate.List
	detail *viewstate.Detail
}

func newSession(catalog core.Catalog, logger *slog.Logger) *session {
	return &session{
		list:   viewstate.NewList(catalog, logger),
		detail: viewstate.NewDetail(catalog, logger),
	}
}

func (s *session) close() {
	s.list.Deactivate()
	s.detail.Deactivate()
}

// sessionManager manages per-chat sessions and access control.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[int64]*session
	allowed  map[int64]bool // nil or empty = allow all
}

// newSessionManager creates a session manager.
// If allowedUserIDs is empty, all users are allowed.
func newSessionManager(allowedUserIDs []int64) *sessionManager {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &sessionManager{
		sessions: make(map[int64]*session),
		allowed:  allowed,
	}
}

// isAllowed checks if a user is authorized to use the bot.
func (sm *sessionManager) isAllowed(userID int64) bool {
	if len(sm.allowed) == 0 {
		return true
	}
	return sm.allowed[userID]
}

// getOrCreate returns the chat's session, creating it with factory on first use.
func (sm *sessionManager) getOrCreate(chatID int64, factory func() *session) *session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[chatID]; ok {
		return s
	}
	s := factory()
	sm.sessions[chatID] = s
	return s
}

// reset discards a chat's session and any fetch it has in flight.
func (sm *sessionManager) reset(chatID int64) {
	sm.mu.Lock()
	s, ok := sm.sessions[chatID]
	delete(sm.sessions, chatID)
	sm.mu.Unlock()
	if ok {
		s.close()
	}
}

// closeAll deactivates every session.
func (sm *sessionManager) closeAll() {
	sm.mu.Lock()
	sessions := sm.sessions
	sm.sessions = make(map[int64]*session)
	sm.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}
