package offline

import (
	"fmt"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

// RenderOption post-processes the captured text of a successful render.
// Options never run when rendering fails.
type RenderOption func(*renderConfig)

type renderConfig struct {
	sanitizer *bluemonday.Policy
	minify    bool
}

// WithSanitizer runs the rendered output through a bluemonday policy before
// returning it, for templates fed with untrusted model data.
func WithSanitizer(policy *bluemonday.Policy) RenderOption {
	return func(cfg *renderConfig) {
		cfg.sanitizer = policy
	}
}

// WithMinify minifies the rendered output as HTML.
func WithMinify() RenderOption {
	return func(cfg *renderConfig) {
		cfg.minify = true
	}
}

var (
	minifierOnce sync.Once
	minifier     *minify.M
)

func htmlMinifier() *minify.M {
	minifierOnce.Do(func() {
		m := minify.New()
		m.AddFunc("text/html", html.Minify)
		minifier = m
	})
	return minifier
}

func applyRenderOptions(text string, opts []RenderOption) (string, error) {
	if len(opts) == 0 {
		return text, nil
	}

	var cfg renderConfig
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	out := text
	if cfg.sanitizer != nil {
		out = cfg.sanitizer.Sanitize(out)
	}
	if cfg.minify {
		minified, err := htmlMinifier().String("text/html", out)
		if err != nil {
			return "", fmt.Errorf("offline: minify output: %w", err)
		}
		out = minified
	}
	return out, nil
}
