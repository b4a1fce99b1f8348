// Package django implements the viewengine contract on top of pongo2's
// Django-style template language. It is the default backend for precompiled
// bundles.
package django

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-views/internal/vpath"
	"github.com/goliatone/go-views/pkg/viewengine"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
	extension string
	globals   map[string]any
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS, typically an embed.FS holding the
// precompiled bundle sources.
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

// WithGlobals seeds context values available to every view.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// Engine satisfies viewengine.Engine using a pongo2 template set with a
// per-path view cache.
type Engine struct {
	mu    sync.RWMutex
	set   *pongo2.TemplateSet
	views map[string]*view
	ext   string
}

var _ viewengine.Engine = (*Engine)(nil)

// New constructs an Engine from the provided options. One of WithBaseDir or
// WithFS is required.
func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: ".html"}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("django: need to provide either base dir or fs.FS")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("django: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	engine := &Engine{
		set:   pongo2.NewSet("views", loaders...),
		views: make(map[string]*view),
		ext:   cfg.extension,
	}

	if len(cfg.globals) > 0 {
		ctx, err := convertToContext(cfg.globals)
		if err != nil {
			return nil, fmt.Errorf("django: apply globals: %w", err)
		}
		engine.set.Globals = ctx
	}

	return engine, nil
}

// Name implements viewengine.Engine.
func (e *Engine) Name() string { return "django" }

// Resolve loads and caches the view for a canonical virtual path. A path the
// loader cannot find yields (nil, nil) so the caller can try other engines.
func (e *Engine) Resolve(path string) (viewengine.View, error) {
	if e == nil || e.set == nil {
		return nil, errors.New("django: engine is nil")
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

	tmpl, err := e.set.FromFile(vpath.Rel(canonical))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("django: load view %q: %w", canonical, err)
	}

	v := &view{tmpl: tmpl, path: canonical}
	e.views[canonical] = v
	return v, nil
}

type view struct {
	tmpl *pongo2.Template
	path string
}

var _ viewengine.View = (*view)(nil)

func (v *view) Path() string { return v.path }

// Render executes the template. Model fields are exposed at the top level of
// the pongo2 context; request-scoped data is reachable under "request".
func (v *view) Render(req viewengine.RequestContext, model any, w io.Writer) error {
	ctx, err := convertToContext(model)
	if err != nil {
		return fmt.Errorf("django: convert model: %w", err)
	}
	ctx["request"] = viewengine.ContextData(req)

	if err := v.tmpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("django: execute view %q: %w", v.path, err)
	}
	return nil
}

func isNotFound(err error) bool {
	if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
		return true
	}
	var perr *pongo2.Error
	if errors.As(err, &perr) && perr.OrigError != nil {
		return errors.Is(perr.OrigError, fs.ErrNotExist) || os.IsNotExist(perr.OrigError)
	}
	// pongo2 loaders stringify some loader failures; fall back to a message
	// check so a missing file is never surfaced as a hard error.
	msg := err.Error()
	return strings.Contains(msg, "no such file") || strings.Contains(msg, "file does not exist") ||
		strings.Contains(msg, "unable to resolve template")
}

func convertToContext(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return v, nil
	case map[string]any:
		out := make(pongo2.Context, len(v))
		for key, value := range v {
			out[key] = value
		}
		return out, nil
	default:
		m, err := jsonToMap(v)
		if err != nil {
			return nil, err
		}
		out := make(pongo2.Context, len(m))
		for key, value := range m {
			out[key] = value
		}
		return out, nil
	}
}

func jsonToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
