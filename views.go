// Package views renders precompiled template bundles outside a live web
// request and absolutizes application paths against a request's scheme and
// host. The root package re-exports the common entry points; the pieces live
// in pkg/offline, pkg/bundle, pkg/viewengine and pkg/urlkit.
package views

import (
	"net/http"

	"github.com/goliatone/go-views/pkg/bundle"
	"github.com/goliatone/go-views/pkg/offline"
	"github.com/goliatone/go-views/pkg/urlkit"
	"github.com/goliatone/go-views/pkg/viewengine"
)

// RenderOption aliases offline.RenderOption for callers wiring sanitize or
// minify post-processing through the root package.
type RenderOption = offline.RenderOption

// RequestContext aliases the capability set shared by live and synthetic
// requests.
type RequestContext = viewengine.RequestContext

// For returns the process-wide renderer for a bundle, creating it on first
// use. Safe under concurrent callers.
func For(b *bundle.Bundle) (*offline.Renderer, error) {
	return offline.Default().For(b)
}

// Render resolves and renders a template from the bundle against model data
// and a base URL, without a live request.
func Render(b *bundle.Bundle, name string, model any, baseURL string, opts ...RenderOption) (string, error) {
	r, err := For(b)
	if err != nil {
		return "", err
	}
	return r.Render(name, model, baseURL, opts...)
}

// RenderType renders the template registered for the model's type.
func RenderType(b *bundle.Bundle, model any, baseURL string, opts ...RenderOption) (string, error) {
	r, err := For(b)
	if err != nil {
		return "", err
	}
	return r.RenderType(model, baseURL, opts...)
}

// Absolutize converts a relative application path into an absolute URL using
// the live request's scheme and host. appRoot is the application mount point
// ("" when the app is served at the host root).
func Absolutize(r *http.Request, appRoot, path string) (string, error) {
	return urlkit.AbsolutizeRequest(r, appRoot, path)
}
