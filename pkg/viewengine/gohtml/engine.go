// Package gohtml implements the viewengine contract on top of html/template,
// with the sprig function map preloaded. Bundles whose templates use Go
// template syntax pick this backend in their manifest.
package gohtml

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/Masterminds/sprig/v3"

	"github.com/goliatone/go-views/internal/vpath"
	"github.com/goliatone/go-views/pkg/viewengine"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	templates fs.FS
	extension string
	funcs     template.FuncMap
}

// WithFS loads templates from an fs.FS. Required.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension sets the extension appended to virtual paths that lack one.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithFuncs registers additional template functions on top of the sprig set.
func WithFuncs(funcs template.FuncMap) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.funcs == nil {
			cfg.funcs = make(template.FuncMap, len(funcs))
		}
		for name, fn := range funcs {
			cfg.funcs[name] = fn
		}
	}
}

// Engine satisfies viewengine.Engine using html/template with a per-path view
// cache.
type Engine struct {
	mu    sync.RWMutex
	files fs.FS
	views map[string]*view
	ext   string
	funcs template.FuncMap
}

var _ viewengine.Engine = (*Engine)(nil)

// New constructs an Engine from the provided options.
func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: ".tmpl"}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.templates == nil {
		return nil, errors.New("gohtml: need to provide an fs.FS")
	}

	funcs := sprig.HtmlFuncMap()
	for name, fn := range cfg.funcs {
		funcs[name] = fn
	}

	return &Engine{
		files: cfg.templates,
		views: make(map[string]*view),
		ext:   cfg.extension,
		funcs: funcs,
	}, nil
}

// Name implements viewengine.Engine.
func (e *Engine) Name() string { return "gohtml" }

// Resolve parses and caches the view for a canonical virtual path. A missing
// file yields (nil, nil) so the caller can try other engines.
func (e *Engine) Resolve(path string) (viewengine.View, error) {
	if e == nil || e.files == nil {
		return nil, errors.New("gohtml: engine is nil")
	}

	canonical, err := vpath.Canon(path)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(canonical[strings.LastIndex(canonical, "/"):], ".") {
		canonical += e.ext
	}

	e.mu.RLock()
	if v, ok := e.views[canonical]; ok {
		e.mu.RUnlock()
		return v, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if v, ok := e.views[canonical]; ok {
		return v, nil
	}

	content, err := fs.ReadFile(e.files, vpath.Rel(canonical))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("gohtml: read view %q: %w", canonical, err)
	}

	tmpl, err := template.New(vpath.Rel(canonical)).Funcs(e.funcs).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("gohtml: parse view %q: %w", canonical, err)
	}

	v := &view{tmpl: tmpl, path: canonical}
	e.views[canonical] = v
	return v, nil
}

type view struct {
	tmpl *template.Template
	path string
}

var _ viewengine.View = (*view)(nil)

func (v *view) Path() string { return v.path }

// Render executes the template. The model appears as .Model, request-scoped
// data as .Request. Output is staged in a buffer so a failing template writes
// nothing to w.
func (v *view) Render(req viewengine.RequestContext, model any, w io.Writer) error {
	data := map[string]any{
		"Model":   model,
		"Request": viewengine.ContextData(req),
	}

	var buf strings.Builder
	if err := v.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("gohtml: execute view %q: %w", v.path, err)
	}
	if _, err := io.WriteString(w, buf.String()); err != nil {
		return err
	}
	return nil
}
