package viewengine

import (
	"io"
)

// Engine resolves application-rooted virtual paths into runnable views.
// Resolve returns (nil, nil) when the engine does not know the path so
// callers can consult the next engine in an ordered chain; a non-nil error
// signals a genuine failure (parse error, unreadable source) and stops the
// lookup.
type Engine interface {
	// Name identifies the engine backend ("django", "gohtml", ...).
	Name() string
	// Resolve returns a runnable view for a canonical virtual path.
	Resolve(path string) (View, error)
}

// View is a single resolved template ready to execute.
type View interface {
	// Path returns the canonical virtual path the view was resolved from.
	Path() string
	// Render executes the template against model data, writing output to w.
	// The request context supplies base-URL and route information; templates
	// derive absolute links from it.
	Render(req RequestContext, model any, w io.Writer) error
}
