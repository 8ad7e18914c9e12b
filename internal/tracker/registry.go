package tracker

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RegistryConfig holds the dependencies shared by every session of a registry.
type RegistryConfig struct {
	Gateway    DayGateway
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
	Notify     func(Event)
}

// Registry hands out one Session per user, creating it on first use.
type Registry struct {
	cfg      RegistryConfig
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry validates the shared dependencies.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.Gateway == nil {
		return nil, newServiceError(opSessionNew, reasonMissingGateway, errMissingGateway)
	}
	if cfg.IDProvider == nil {
		cfg.IDProvider = NewUUIDProvider()
	}
	return &Registry{cfg: cfg, sessions: make(map[string]*Session)}, nil
}

// Session returns the user's session.
func (registry *Registry) Session(userID string) (*Session, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if session, ok := registry.sessions[userID]; ok {
		return session, nil
	}
	session, err := NewSession(SessionConfig{
		UserID:     userID,
		Gateway:    registry.cfg.Gateway,
		IDProvider: registry.cfg.IDProvider,
		Clock:      registry.cfg.Clock,
		Logger:     registry.cfg.Logger,
		Notify:     registry.cfg.Notify,
	})
	if err != nil {
		return nil, err
	}
	registry.sessions[userID] = session
	return session, nil
}

// Len returns the number of sessions created so far.
func (registry *Registry) Len() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.sessions)
}
