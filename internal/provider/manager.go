package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var ErrUnknownProvider = errors.New("unknown provider")

// Manager maps provider names to implementations and tracks the one currently
// serving generations. All access goes through the mutex, so admin switches
// are safe against concurrent requests.
type Manager struct {
	mu        sync.RWMutex
	providers map[string]Provider
	current   Provider
	logger    *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		providers: make(map[string]Provider),
		logger:    logger,
	}
}

// Register adds a provider. The first registered provider becomes current.
func (m *Manager) Register(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.providers[p.Name()] = p
	if m.current == nil {
		m.current = p
	}
}

func (m *Manager) Current() Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) Get(name string) (Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

func (m *Manager) Switch(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.providers[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	m.current = p
	m.logger.Info("switched image provider", zap.String("provider", name))
	return nil
}

// Test probes a provider's status without touching the current pointer, so a
// probe can never leave the manager pointing at a broken back end.
func (m *Manager) Test(ctx context.Context, name string) error {
	p, err := m.Get(name)
	if err != nil {
		return err
	}
	return p.Status(ctx)
}

func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
