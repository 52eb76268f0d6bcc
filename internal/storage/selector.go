package storage

import (
	"fmt"
	"sync"
)

// Selector chooses the active storage backend for the process. It is
// constructed once in main and handed to everything that persists
// game state; there is no hidden global. The hosted backend is built
// lazily on the first switch to BackendHosted and reused afterwards,
// so repeated type switches never open a second connection pool.
type Selector struct {
	mu      sync.RWMutex
	current BackendType

	buildHosted func() (Backend, error)
	once        sync.Once
	hosted      Backend
	buildErr    error
}

// NewSelector returns a Selector starting in local mode. buildHosted
// is invoked at most once, on the first switch to the hosted type.
func NewSelector(buildHosted func() (Backend, error)) *Selector {
	return &Selector{
		current:     BackendLocal,
		buildHosted: buildHosted,
	}
}

// SetBackendType records the active backend type. Switching to the
// hosted type constructs the hosted handle if it does not exist yet;
// the construction runs at most once even under concurrent callers.
func (s *Selector) SetBackendType(t BackendType) error {
	if t != BackendLocal && t != BackendHosted {
		return fmt.Errorf("unknown backend type: %s", t)
	}

	if t == BackendHosted {
		s.once.Do(func() {
			s.hosted, s.buildErr = s.buildHosted()
		})
		if s.buildErr != nil {
			return fmt.Errorf("failed to construct hosted backend: %w", s.buildErr)
		}
	}

	s.mu.Lock()
	s.current = t
	s.mu.Unlock()
	return nil
}

// Active returns the hosted backend when it is the active type.
// Callers needing plain local storage use the LocalStore directly;
// it is not reachable through this accessor.
func (s *Selector) Active() (Backend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current != BackendHosted || s.hosted == nil {
		return nil, ErrHostedNotActive
	}
	return s.hosted, nil
}

// BackendType returns the currently active backend type tag.
func (s *Selector) BackendType() BackendType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// HostedEnabled reports whether the hosted backend is the active type.
func (s *Selector) HostedEnabled() bool {
	return s.BackendType() == BackendHosted
}
