package offline

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-views/pkg/bundle"
	"github.com/goliatone/go-views/pkg/viewengine"
)

// Service owns the renderer registry and the ordered list of engines
// consulted during rendering. One renderer exists per distinct bundle name
// for the lifetime of the service, no matter how many callers race on the
// first request.
type Service struct {
	mu        sync.RWMutex
	renderers map[string]*Renderer
	engines   []viewengine.Engine
	closed    bool
}

// NewService creates an empty service instance.
func NewService() *Service {
	return &Service{
		renderers: make(map[string]*Renderer),
	}
}

var (
	defaultOnce    sync.Once
	defaultService *Service
)

// Default returns the shared process-wide service. It lives until process
// exit; applications wanting an explicit lifecycle construct their own via
// NewService.
func Default() *Service {
	defaultOnce.Do(func() {
		defaultService = NewService()
	})
	return defaultService
}

// For returns the renderer for a bundle, creating it on first request.
// Creation inserts the bundle's engine at the front of the service's engine
// chain so it is consulted first; both the map insert and the chain insert
// happen under one lock, so concurrent first-time callers observe exactly one
// renderer and one registration.
func (s *Service) For(b *bundle.Bundle) (*Renderer, error) {
	if b == nil {
		return nil, fmt.Errorf("offline: bundle is required")
	}

	s.mu.RLock()
	if r, ok := s.renderers[b.Name()]; ok {
		s.mu.RUnlock()
		return r, nil
	}
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return nil, ErrServiceClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrServiceClosed
	}
	if r, ok := s.renderers[b.Name()]; ok {
		return r, nil
	}

	r := &Renderer{service: s, bundle: b}
	s.renderers[b.Name()] = r
	s.insertEngineLocked(b.Engine())
	return r, nil
}

// RegisterEngine inserts an engine at the front of the chain ahead of lazy
// creation, so setup can happen eagerly at process start. Registration is
// idempotent: an engine already present keeps its position.
func (s *Service) RegisterEngine(engine viewengine.Engine) error {
	if engine == nil {
		return fmt.Errorf("offline: engine is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServiceClosed
	}
	s.insertEngineLocked(engine)
	return nil
}

// Engines returns a snapshot of the chain in consultation order.
func (s *Service) Engines() []viewengine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]viewengine.Engine, len(s.engines))
	copy(out, s.engines)
	return out
}

// Close empties the registry and chain. Subsequent For and RegisterEngine
// calls fail with ErrServiceClosed; renderers already handed out keep
// working against their own bundle engine.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.renderers = make(map[string]*Renderer)
	s.engines = nil
	s.closed = true
	return nil
}

func (s *Service) insertEngineLocked(engine viewengine.Engine) {
	for _, existing := range s.engines {
		if existing == engine {
			return
		}
	}
	s.engines = append([]viewengine.Engine{engine}, s.engines...)
}
