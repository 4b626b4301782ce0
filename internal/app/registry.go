package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/quickdl-go/internal/domain"
	"github.com/yourusername/quickdl-go/pkg/logger"
	"go.uber.org/zap"
)

// RegistryConfig controls how long idle gateway modules live
type RegistryConfig struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

type registryKey struct {
	token    string
	platform domain.Platform
}

type registryEntry struct {
	module   *Module
	lastSeen time.Time
}

// Registry holds the mounted modules of every gateway session, one per
// (identity, platform), and unmounts the ones left idle.
type Registry struct {
	config      *domain.Config
	deps        ModuleDeps
	settings    RegistryConfig
	multiLogger *logger.MultiLogger

	mu       sync.RWMutex
	entries  map[registryKey]*registryEntry
	running  bool
	stopChan chan struct{}
	workerWg sync.WaitGroup
	now      func() time.Time
}

// NewRegistry creates a registry building modules from deps. deps.Identity is
// replaced per session.
func NewRegistry(config *domain.Config, deps ModuleDeps, settings RegistryConfig, multiLogger *logger.MultiLogger) *Registry {
	if settings.IdleTimeout <= 0 {
		settings.IdleTimeout = 30 * time.Minute
	}
	if settings.SweepInterval <= 0 {
		settings.SweepInterval = time.Minute
	}
	return &Registry{
		config:      config,
		deps:        deps,
		settings:    settings,
		multiLogger: multiLogger,
		entries:     make(map[registryKey]*registryEntry),
		stopChan:    make(chan struct{}),
		now:         time.Now,
	}
}

func (r *Registry) workflowLogger() *zap.Logger {
	if r.multiLogger != nil {
		return r.multiLogger.Workflow()
	}
	return logger.OrNop(r.deps.Logger)
}

// Mount returns a freshly mounted module for the session and platform,
// replacing any module mounted before.
func (r *Registry) Mount(ctx context.Context, identity domain.SessionIdentity, platform domain.Platform) (*Module, error) {
	desc, ok := r.config.Descriptor(platform)
	if !ok {
		return nil, fmt.Errorf("unsupported platform %q: %w", platform, domain.ErrInvalidURL)
	}

	key := registryKey{token: identity.Token, platform: platform}

	r.mu.Lock()
	entry, exists := r.entries[key]
	if !exists {
		deps := r.deps
		deps.Identity = FixedIdentity(identity)
		deps.Logger = r.workflowLogger()
		entry = &registryEntry{module: NewModule(desc, deps)}
		r.entries[key] = entry
	}
	entry.lastSeen = r.now()
	r.mu.Unlock()

	if err := entry.module.Mount(ctx); err != nil {
		if !exists {
			r.mu.Lock()
			delete(r.entries, key)
			r.mu.Unlock()
		}
		return nil, err
	}

	r.workflowLogger().Debug("module_mounted",
		zap.String("platform", string(platform)),
		zap.Bool("remount", exists))
	return entry.module, nil
}

// Get returns the session's mounted module for platform
func (r *Registry) Get(identity domain.SessionIdentity, platform domain.Platform) (*Module, bool) {
	key := registryKey{token: identity.Token, platform: platform}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	entry.lastSeen = r.now()
	return entry.module, true
}

// Unmount unmounts and forgets the session's module for platform
func (r *Registry) Unmount(identity domain.SessionIdentity, platform domain.Platform) bool {
	key := registryKey{token: identity.Token, platform: platform}

	r.mu.Lock()
	entry, ok := r.entries[key]
	delete(r.entries, key)
	r.mu.Unlock()

	if ok {
		entry.module.Unmount()
	}
	return ok
}

// Len returns the number of mounted modules
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Start starts the idle sweeper
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("registry already running")
	}
	r.running = true
	r.mu.Unlock()

	r.workerWg.Add(1)
	go r.sweepLoop(ctx)
	return nil
}

// Stop stops the sweeper and unmounts every module
func (r *Registry) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return fmt.Errorf("registry not running")
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopChan)
	r.workerWg.Wait()

	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[registryKey]*registryEntry)
	r.mu.Unlock()

	for _, entry := range entries {
		entry.module.Unmount()
	}
	return nil
}

// IsRunning returns whether the sweeper is running
func (r *Registry) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

func (r *Registry) sweepLoop(ctx context.Context) {
	defer r.workerWg.Done()

	ticker := time.NewTicker(r.settings.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.workflowLogger().Debug("registry_sweeper_stopped", zap.String("reason", "context_cancelled"))
			return
		case <-r.stopChan:
			r.workflowLogger().Debug("registry_sweeper_stopped", zap.String("reason", "stop_signal"))
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep unmounts modules idle for longer than the idle timeout and returns
// how many were removed
func (r *Registry) sweep() int {
	cutoff := r.now().Add(-r.settings.IdleTimeout)

	var idle []*Module
	r.mu.Lock()
	for key, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			idle = append(idle, entry.module)
			delete(r.entries, key)
		}
	}
	r.mu.Unlock()

	for _, m := range idle {
		m.Unmount()
	}
	if len(idle) > 0 {
		r.workflowLogger().Info("idle_modules_unmounted", zap.Int("count", len(idle)))
	}
	return len(idle)
}
