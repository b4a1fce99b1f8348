package offline

import (
	"bufio"
	"bytes"
	"fmt"
	"net/url"
	"reflect"

	"github.com/goliatone/go-views/internal/vpath"
	"github.com/goliatone/go-views/pkg/bundle"
	"github.com/goliatone/go-views/pkg/viewengine"
)

// Renderer renders a bundle's templates against caller-supplied models and
// base URLs. Instances are created by Service.For and are safe for concurrent
// use; rendering keeps no state between invocations and never caches output.
type Renderer struct {
	service *Service
	bundle  *bundle.Bundle
}

// Bundle returns the bundle this renderer serves.
func (r *Renderer) Bundle() *bundle.Bundle { return r.bundle }

// Render resolves a template by virtual path, fabricates a synthetic request
// scoped to baseURL and the resolved path, and returns the rendered text.
// Resolution failures surface as ErrTemplateNotFound; errors raised by the
// template itself propagate to the caller and no partial output is returned.
func (r *Renderer) Render(name string, model any, baseURL string, opts ...RenderOption) (string, error) {
	view, err := r.resolve(name)
	if err != nil {
		return "", err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("offline: parse base url %q: %w", baseURL, err)
	}

	req := viewengine.NewSynthetic(base, view.Path())

	var buf bytes.Buffer
	sink := bufio.NewWriter(&buf)

	// flush before reading captured content, render error or not
	err = func() error {
		defer sink.Flush()
		return view.Render(req, model, sink)
	}()
	if err != nil {
		return "", err
	}

	return applyRenderOptions(buf.String(), opts)
}

// RenderType looks the template up through the bundle's type registration
// table and renders the model against it. A model whose type carries no
// registered path fails with ErrNotTemplate before any resolution happens.
func (r *Renderer) RenderType(model any, baseURL string, opts ...RenderOption) (string, error) {
	path, ok := r.bundle.PathFor(model)
	if !ok {
		return "", fmt.Errorf("%w: %s has no registered view path", ErrNotTemplate, typeName(model))
	}
	return r.Render(path, model, baseURL, opts...)
}

// resolve consults the bundle's own engine first, then the rest of the
// service chain. Engines answer (nil, nil) for paths they do not know.
func (r *Renderer) resolve(name string) (viewengine.View, error) {
	canonical, err := vpath.Canon(name)
	if err != nil {
		return nil, fmt.Errorf("offline: resolve %q: %w", name, err)
	}

	own := r.bundle.Engine()
	chain := append([]viewengine.Engine{own}, r.service.Engines()...)

	seen := make(map[viewengine.Engine]struct{}, len(chain))
	for _, engine := range chain {
		if _, dup := seen[engine]; dup {
			continue
		}
		seen[engine] = struct{}{}

		view, err := engine.Resolve(canonical)
		if err != nil {
			return nil, fmt.Errorf("offline: resolve %q: %w", name, err)
		}
		if view != nil {
			return view, nil
		}
	}

	return nil, fmt.Errorf("offline: resolve %q: %w", name, ErrTemplateNotFound)
}

func typeName(model any) string {
	if model == nil {
		return "<nil>"
	}
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
