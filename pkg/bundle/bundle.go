// Package bundle models a named, precompiled set of view templates usable as
// a unit. A bundle pairs a view-lookup engine with an explicit registration
// table mapping model types to virtual paths, populated at startup rather
// than discovered through struct tags.
package bundle

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/goliatone/go-views/internal/vpath"
	"github.com/goliatone/go-views/pkg/viewengine"
)

// Bundle identifies a compiled set of templates. Its name is the cache key
// used by the offline rendering service.
type Bundle struct {
	name   string
	engine viewengine.Engine

	mu    sync.RWMutex
	types map[reflect.Type]string
	names map[string]string
}

// New creates a bundle bound to a view-lookup engine.
func New(name string, engine viewengine.Engine) (*Bundle, error) {
	if name == "" {
		return nil, fmt.Errorf("bundle: name is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("bundle: engine is required")
	}
	return &Bundle{
		name:   name,
		engine: engine,
		types:  make(map[reflect.Type]string),
		names:  make(map[string]string),
	}, nil
}

// Name returns the bundle identity.
func (b *Bundle) Name() string { return b.name }

// Engine returns the bundle's view-lookup engine.
func (b *Bundle) Engine() viewengine.Engine { return b.engine }

// RegisterType maps a model type to the virtual path of the template that
// renders it. Pointer and value forms of the same type share one entry.
// Registering a type twice with a different path is an error so wiring
// mistakes surface at startup.
func (b *Bundle) RegisterType(model any, virtualPath string) error {
	if model == nil {
		return fmt.Errorf("bundle: model is required")
	}
	canonical, err := vpath.Canon(virtualPath)
	if err != nil {
		return fmt.Errorf("bundle: register type: %w", err)
	}

	key := normalizeType(reflect.TypeOf(model))

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.types[key]; ok && existing != canonical {
		return fmt.Errorf("bundle: type %s already registered to %q", key, existing)
	}
	b.types[key] = canonical
	if name := key.Name(); name != "" {
		b.names[name] = canonical
	}
	return nil
}

// RegisterName maps a logical model name to a virtual path. Manifests use
// this form since YAML cannot name Go types directly; the key matches the
// model type's name at lookup time.
func (b *Bundle) RegisterName(name, virtualPath string) error {
	if name == "" {
		return fmt.Errorf("bundle: model name is required")
	}
	canonical, err := vpath.Canon(virtualPath)
	if err != nil {
		return fmt.Errorf("bundle: register name: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.names[name]; ok && existing != canonical {
		return fmt.Errorf("bundle: name %q already registered to %q", name, existing)
	}
	b.names[name] = canonical
	return nil
}

// PathFor returns the virtual path registered for the model's type. The
// second return is false when the type was never registered.
func (b *Bundle) PathFor(model any) (string, bool) {
	if model == nil {
		return "", false
	}
	key := normalizeType(reflect.TypeOf(model))

	b.mu.RLock()
	defer b.mu.RUnlock()

	if p, ok := b.types[key]; ok {
		return p, true
	}
	if name := key.Name(); name != "" {
		if p, ok := b.names[name]; ok {
			return p, true
		}
	}
	return "", false
}

// RegisteredPaths returns the virtual paths known to the bundle, useful for
// discovery surfaces such as the CLI's interactive picker.
func (b *Bundle) RegisteredPaths() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[string]struct{}, len(b.names))
	out := make([]string, 0, len(b.names))
	for _, p := range b.names {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, p := range b.types {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func normalizeType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
