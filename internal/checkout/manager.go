package checkout

import (
	"sync"
	"time"

	"github.com/gemlane/storefront-bff/pkg/logger"
	"github.com/gemlane/storefront-bff/pkg/metrics"
)

// Manager hands out one Builder per cart token so the re-entrancy
// guard holds across requests hitting the same process.
type Manager struct {
	gateway        sessionCreator
	locks          locker
	logg           *logger.Logger
	metrics        *metrics.StorefrontMetrics
	lockTTL        time.Duration
	sessionTimeout time.Duration

	mu       sync.Mutex
	builders map[string]*Builder
}

// NewManager wires the per-cart builder registry.
func NewManager(gateway sessionCreator, locks locker, logg *logger.Logger, m *metrics.StorefrontMetrics, lockTTL, sessionTimeout time.Duration) (*Manager, error) {
	if gateway == nil {
		return nil, errSessionCreatorRequired
	}
	if locks == nil {
		return nil, errLockerRequired
	}
	return &Manager{
		gateway:        gateway,
		locks:          locks,
		logg:           logg,
		metrics:        m,
		lockTTL:        lockTTL,
		sessionTimeout: sessionTimeout,
		builders:       map[string]*Builder{},
	}, nil
}

// For returns the builder for a cart token, creating it on first use.
func (m *Manager) For(cartToken string) (*Builder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if builder, ok := m.builders[cartToken]; ok {
		return builder, nil
	}
	builder, err := NewBuilder(m.gateway, m.locks, m.logg, m.metrics, cartToken, m.lockTTL, m.sessionTimeout)
	if err != nil {
		return nil, err
	}
	m.builders[cartToken] = builder
	return builder, nil
}

// Forget drops the builder for a cart token, e.g. after completion.
func (m *Manager) Forget(cartToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.builders, cartToken)
}
