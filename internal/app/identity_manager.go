package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/quickdl-go/internal/domain"
	"go.uber.org/zap"
)

// IdentityManager guarantees a stable anonymous session token per client store
type IdentityManager struct {
	store    domain.IdentityStore
	name     string
	lifetime time.Duration
	secure   bool
	logger   *zap.Logger

	// overridable in tests
	newToken func() string
	now      func() time.Time
}

// NewIdentityManager creates an identity manager over store
func NewIdentityManager(store domain.IdentityStore, config domain.IdentityConfig, secure bool, logger *zap.Logger) *IdentityManager {
	name := config.CookieName
	if name == "" {
		name = domain.DefaultConfig().Identity.CookieName
	}
	lifetime := config.Lifetime
	if lifetime <= 0 {
		lifetime = domain.DefaultConfig().Identity.Lifetime
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityManager{
		store:    store,
		name:     name,
		lifetime: lifetime,
		secure:   secure,
		logger:   logger,
		newToken: NewSessionToken,
		now:      time.Now,
	}
}

// NewSessionToken returns a fresh opaque token: a v4 UUID without dashes
func NewSessionToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// GetOrCreate returns the stored token, creating and persisting one when the
// store holds none. An existing token is reused verbatim.
func (m *IdentityManager) GetOrCreate(ctx context.Context) (domain.SessionIdentity, error) {
	existing, err := m.store.Get(ctx, m.name, "/")
	if err != nil {
		return domain.SessionIdentity{}, fmt.Errorf("failed to read session identity: %w", err)
	}
	if existing != nil && existing.Value != "" && !existing.Expired(m.now()) {
		return domain.SessionIdentity{Token: existing.Value}, nil
	}

	now := m.now()
	cookie := &domain.Cookie{
		Name:      m.name,
		Path:      "/",
		Value:     m.newToken(),
		Secure:    m.secure,
		SameSite:  domain.SameSiteLax,
		ExpiresAt: now.Add(m.lifetime),
		CreatedAt: now,
	}
	stored, err := m.store.SetIfAbsent(ctx, cookie)
	if err != nil {
		return domain.SessionIdentity{}, fmt.Errorf("failed to store session identity: %w", err)
	}
	if stored == nil || stored.Value == "" {
		stored = cookie
	}

	if stored.Value == cookie.Value {
		m.logger.Info("Created session identity",
			zap.String("cookie", m.name),
			zap.Time("expires_at", cookie.ExpiresAt))
	} else {
		m.logger.Debug("Session identity created concurrently, reusing stored token",
			zap.String("cookie", m.name))
	}

	return domain.SessionIdentity{Token: stored.Value}, nil
}
