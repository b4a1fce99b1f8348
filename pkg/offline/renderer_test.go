package offline_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-views/pkg/bundle"
	"github.com/goliatone/go-views/pkg/offline"
	"github.com/goliatone/go-views/pkg/viewengine"
	"github.com/goliatone/go-views/pkg/viewengine/django"
)

type welcomeEmail struct {
	Name string `json:"name"`
}

type unregisteredModel struct{}

func TestRenderContainsModelContent(t *testing.T) {
	r := newRenderer(t, fstest.MapFS{
		"letters/hello.html": &fstest.MapFile{
			Data: []byte(`Hello {{ name }}! <a href="{{ request.base_url }}/letters">all letters</a>`),
		},
	})

	out, err := r.Render("letters/hello.html", map[string]any{"name": "Ada"}, "https://example.com")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out == "" {
		t.Fatal("render: empty output")
	}
	if !strings.Contains(out, "Ada") {
		t.Fatalf("render: model content missing from %q", out)
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	r := newRenderer(t, fstest.MapFS{})

	out, err := r.Render("letters/nope.html", nil, "https://example.com")
	if !errors.Is(err, offline.ErrTemplateNotFound) {
		t.Fatalf("render missing: want ErrTemplateNotFound, got %v", err)
	}
	if out != "" {
		t.Fatalf("render missing: want empty output, got %q", out)
	}
}

// Outputs for different base URLs differ only where base-URL-derived links
// appear.
func TestRenderBaseURLOnlyAffectsLinks(t *testing.T) {
	r := newRenderer(t, fstest.MapFS{
		"letters/hello.html": &fstest.MapFile{
			Data: []byte(`Hello {{ name }}! <a href="{{ request.base_url }}/letters">all letters</a>`),
		},
	})

	model := map[string]any{"name": "Ada"}

	first, err := r.Render("letters/hello.html", model, "https://a.example")
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := r.Render("letters/hello.html", model, "https://b.example")
	if err != nil {
		t.Fatalf("second render: %v", err)
	}

	if first == second {
		t.Fatal("different base URLs produced identical output")
	}
	if got := strings.ReplaceAll(first, "https://a.example", "https://b.example"); got != second {
		t.Fatalf("outputs differ beyond links\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestRenderType(t *testing.T) {
	r := newRenderer(t, fstest.MapFS{
		"emails/welcome.html": &fstest.MapFile{Data: []byte(`Welcome, {{ name }}.`)},
	})
	if err := r.Bundle().RegisterType(welcomeEmail{}, "emails/welcome.html"); err != nil {
		t.Fatalf("register type: %v", err)
	}

	out, err := r.RenderType(welcomeEmail{Name: "Ada"}, "https://example.com")
	if err != nil {
		t.Fatalf("render type: %v", err)
	}
	if !strings.Contains(out, "Ada") {
		t.Fatalf("render type: model content missing from %q", out)
	}
}

func TestRenderTypeUnregistered(t *testing.T) {
	engine := &stubEngine{name: "emails"}
	b, err := bundle.New("emails", engine)
	if err != nil {
		t.Fatalf("new bundle: %v", err)
	}
	r, err := offline.NewService().For(b)
	if err != nil {
		t.Fatalf("for: %v", err)
	}

	_, err = r.RenderType(unregisteredModel{}, "https://example.com")
	if !errors.Is(err, offline.ErrNotTemplate) {
		t.Fatalf("render type: want ErrNotTemplate, got %v", err)
	}
	// the type check fires before any resolution is attempted
	if got := engine.resolves.Load(); got != 0 {
		t.Fatalf("render type consulted the engine %d times before failing", got)
	}
}

func TestRenderConsultsEngineChain(t *testing.T) {
	service := offline.NewService()

	// the reports bundle owns the template the emails bundle will ask for
	reportsEngine, err := django.New(django.WithFS(fstest.MapFS{
		"reports/monthly.html": &fstest.MapFile{Data: []byte(`Report for {{ month }}`)},
	}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	reports, err := bundle.New("reports", reportsEngine)
	if err != nil {
		t.Fatalf("new bundle: %v", err)
	}
	if _, err := service.For(reports); err != nil {
		t.Fatalf("for reports: %v", err)
	}

	emailsEngine, err := django.New(django.WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	emails, err := bundle.New("emails", emailsEngine)
	if err != nil {
		t.Fatalf("new bundle: %v", err)
	}
	r, err := service.For(emails)
	if err != nil {
		t.Fatalf("for emails: %v", err)
	}

	out, err := r.Render("reports/monthly.html", map[string]any{"month": "May"}, "https://example.com")
	if err != nil {
		t.Fatalf("render through chain: %v", err)
	}
	if !strings.Contains(out, "May") {
		t.Fatalf("render through chain: got %q", out)
	}
}

func TestRenderErrorReturnsNoOutput(t *testing.T) {
	errBoom := errors.New("boom")
	b, err := bundle.New("emails", &failingEngine{err: errBoom})
	if err != nil {
		t.Fatalf("new bundle: %v", err)
	}
	r, err := offline.NewService().For(b)
	if err != nil {
		t.Fatalf("for: %v", err)
	}

	out, err := r.Render("emails/welcome.html", nil, "https://example.com")
	if !errors.Is(err, errBoom) {
		t.Fatalf("render: want the template's own error, got %v", err)
	}
	if out != "" {
		t.Fatalf("render: partial output returned on failure: %q", out)
	}
}

func TestRenderWithSanitizer(t *testing.T) {
	r := newRenderer(t, fstest.MapFS{
		"pages/body.html": &fstest.MapFile{Data: []byte(`{{ content|safe }}`)},
	})

	out, err := r.Render("pages/body.html",
		map[string]any{"content": `<script>alert(1)</script><b>ok</b>`},
		"https://example.com",
		offline.WithSanitizer(bluemonday.UGCPolicy()),
	)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "script") {
		t.Fatalf("sanitizer kept script markup: %q", out)
	}
	if !strings.Contains(out, "<b>ok</b>") {
		t.Fatalf("sanitizer dropped allowed markup: %q", out)
	}
}

func TestRenderWithMinify(t *testing.T) {
	r := newRenderer(t, fstest.MapFS{
		"pages/spaced.html": &fstest.MapFile{Data: []byte("<p>\n  spaced   out\n</p>\n")},
	})

	out, err := r.Render("pages/spaced.html", nil, "https://example.com", offline.WithMinify())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "\n") {
		t.Fatalf("minified output keeps newlines: %q", out)
	}
	if !strings.Contains(out, "spaced out") {
		t.Fatalf("minified output lost text: %q", out)
	}
}

func TestRenderInvalidVirtualPath(t *testing.T) {
	r := newRenderer(t, fstest.MapFS{})

	if _, err := r.Render("", nil, "https://example.com"); err == nil {
		t.Fatal("render empty path: want error")
	}
}

type failingEngine struct{ err error }

var _ viewengine.Engine = (*failingEngine)(nil)

func (e *failingEngine) Name() string { return "failing" }

func (e *failingEngine) Resolve(path string) (viewengine.View, error) {
	return &failingView{path: path, err: e.err}, nil
}

type failingView struct {
	path string
	err  error
}

func (v *failingView) Path() string { return v.path }

func (v *failingView) Render(_ viewengine.RequestContext, _ any, w io.Writer) error {
	fmt.Fprint(w, "partial content")
	return v.err
}

func newRenderer(t *testing.T, files fstest.MapFS) *offline.Renderer {
	t.Helper()

	engine, err := django.New(django.WithFS(files))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	b, err := bundle.New("emails", engine)
	if err != nil {
		t.Fatalf("new bundle: %v", err)
	}
	r, err := offline.NewService().For(b)
	if err != nil {
		t.Fatalf("for: %v", err)
	}
	return r
}
