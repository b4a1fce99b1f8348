package viewengine

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// RequestContext is the slice of request-scoped data the rendering pipeline
// actually consumes. Live requests and synthetic (offline) requests both
// satisfy it, so views never know which one is behind a render call.
type RequestContext interface {
	// BaseURL returns scheme, host and application root of the request.
	BaseURL() *url.URL
	// VirtualPath returns the application-rooted path being rendered.
	VirtualPath() string
	// RouteValues returns the routing identifiers for the request. Synthetic
	// requests carry fixed placeholders since no routing occurred.
	RouteValues() map[string]string
}

// Placeholder route identifiers used when no real routing produced the
// request.
const (
	OfflineController = "offline"
	OfflineAction     = "render"
)

// SyntheticRequest is an ephemeral stand-in for a live network request,
// created fresh per render call and discarded after. Headers, query string
// and body are absent by construction.
type SyntheticRequest struct {
	id          string
	baseURL     *url.URL
	virtualPath string
	routeValues map[string]string
}

var _ RequestContext = (*SyntheticRequest)(nil)

// NewSynthetic builds a synthetic request scoped to a base URL and the
// virtual path of the view being rendered.
func NewSynthetic(baseURL *url.URL, virtualPath string) *SyntheticRequest {
	return &SyntheticRequest{
		id:          uuid.NewString(),
		baseURL:     baseURL,
		virtualPath: virtualPath,
		routeValues: map[string]string{
			"controller": OfflineController,
			"action":     OfflineAction,
		},
	}
}

// ID returns the generated identifier for this render invocation.
func (r *SyntheticRequest) ID() string { return r.id }

// BaseURL implements RequestContext.
func (r *SyntheticRequest) BaseURL() *url.URL { return r.baseURL }

// VirtualPath implements RequestContext.
func (r *SyntheticRequest) VirtualPath() string { return r.virtualPath }

// RouteValues implements RequestContext.
func (r *SyntheticRequest) RouteValues() map[string]string { return r.routeValues }

// LiveRequest adapts an in-flight *http.Request to the RequestContext
// contract.
type LiveRequest struct {
	req     *http.Request
	appRoot string
}

var _ RequestContext = (*LiveRequest)(nil)

// FromHTTP wraps a live request. appRoot is the application mount point
// ("" or "/" for apps served at the host root).
func FromHTTP(req *http.Request, appRoot string) *LiveRequest {
	return &LiveRequest{req: req, appRoot: appRoot}
}

// BaseURL derives scheme://host/approot from the wrapped request.
func (r *LiveRequest) BaseURL() *url.URL {
	scheme := "http"
	if r.req.TLS != nil {
		scheme = "https"
	}
	if r.req.URL != nil && r.req.URL.Scheme != "" {
		scheme = r.req.URL.Scheme
	}
	root := r.appRoot
	if root == "/" {
		root = ""
	}
	return &url.URL{Scheme: scheme, Host: r.req.Host, Path: root}
}

// VirtualPath implements RequestContext.
func (r *LiveRequest) VirtualPath() string {
	if r.req.URL == nil {
		return "/"
	}
	return r.req.URL.Path
}

// RouteValues implements RequestContext. Plain net/http carries no route
// table, so the map is empty; routers can shadow LiveRequest with their own
// RequestContext implementation.
func (r *LiveRequest) RouteValues() map[string]string { return map[string]string{} }

// ContextData flattens a RequestContext into the map engines expose to
// template authors under the "request" key.
func ContextData(req RequestContext) map[string]any {
	data := map[string]any{
		"base_url": req.BaseURL().String(),
		"path":     req.VirtualPath(),
		"route":    req.RouteValues(),
	}
	if sr, ok := req.(*SyntheticRequest); ok {
		data["id"] = sr.ID()
	}
	return data
}
