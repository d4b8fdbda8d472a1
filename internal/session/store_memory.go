package session

import (
	"context"
	"sync"

	"passport/internal/account/models"
	"passport/pkg/platform/sentinel"
)

// InMemoryGateway backs unit tests and single-process development. It mirrors
// the redis gateway's behavior without TTL handling.
type InMemoryGateway struct {
	mu       sync.RWMutex
	codes    map[string]string
	sessions map[string]int64
	users    map[int64]models.User
}

func NewInMemory() *InMemoryGateway {
	return &InMemoryGateway{
		codes:    make(map[string]string),
		sessions: make(map[string]int64),
		users:    make(map[int64]models.User),
	}
}

func (g *InMemoryGateway) VerificationCode(_ context.Context, sessionID string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if code, ok := g.codes[sessionID]; ok {
		return code, nil
	}
	return "", sentinel.ErrNotFound
}

func (g *InMemoryGateway) SetVerificationCode(_ context.Context, sessionID, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.codes[sessionID] = code
	return nil
}

func (g *InMemoryGateway) ClearVerificationCode(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.codes, sessionID)
	return nil
}

func (g *InMemoryGateway) Bind(_ context.Context, sessionID string, user *models.User) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[sessionID] = user.ID
	g.users[user.ID] = *user
	return nil
}

func (g *InMemoryGateway) Clear(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, sessionID)
	return nil
}

func (g *InMemoryGateway) UserID(_ context.Context, sessionID string) (int64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if id, ok := g.sessions[sessionID]; ok {
		return id, nil
	}
	return 0, sentinel.ErrNotFound
}

func (g *InMemoryGateway) RefreshUser(_ context.Context, user *models.User) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[user.ID] = *user
	return nil
}

func (g *InMemoryGateway) User(_ context.Context, userID int64) (*models.User, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if u, ok := g.users[userID]; ok {
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}
