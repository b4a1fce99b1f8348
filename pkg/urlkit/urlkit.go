// Package urlkit converts relative application paths into fully qualified
// absolute URLs using the scheme, host and application root of the current
// request.
package urlkit

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/goliatone/go-views/pkg/viewengine"
)

// ErrInvalidPath reports input that cannot be parsed as a path.
var ErrInvalidPath = errors.New("urlkit: invalid path")

// Absolutize resolves a relative or application-rooted path against the
// request's application root and combines it with the request's scheme and
// host. Any query string or fragment on the input is dropped.
func Absolutize(req viewengine.RequestContext, ref string) (string, error) {
	base := req.BaseURL()
	if base == nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("%w: request carries no scheme/host", ErrInvalidPath)
	}

	cleaned, err := stripQueryFragment(ref)
	if err != nil {
		return "", err
	}

	resolved, err := resolveAgainstRoot(base.Path, cleaned)
	if err != nil {
		return "", err
	}

	return base.Scheme + "://" + base.Host + resolved, nil
}

// AbsolutizeRequest is the net/http convenience form of Absolutize. appRoot
// is the application mount point ("" or "/" for apps served at the host
// root).
func AbsolutizeRequest(r *http.Request, appRoot, ref string) (string, error) {
	return Absolutize(viewengine.FromHTTP(r, appRoot), ref)
}

func stripQueryFragment(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.Contains(trimmed, "://") {
		return "", fmt.Errorf("%w: %q is already absolute", ErrInvalidPath, ref)
	}
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "", fmt.Errorf("%w: %q names no path", ErrInvalidPath, ref)
	}
	if strings.ContainsAny(trimmed, " \t\n") {
		return "", fmt.Errorf("%w: %q contains whitespace", ErrInvalidPath, ref)
	}
	return trimmed, nil
}

// resolveAgainstRoot turns ref into a root-relative path. "~/x" and bare
// relative paths join the application root; "/x" is already root-relative
// and passes through.
func resolveAgainstRoot(appRoot, ref string) (string, error) {
	root := strings.TrimSuffix(appRoot, "/")

	var joined string
	switch {
	case strings.HasPrefix(ref, "~/"):
		joined = path.Join(root, strings.TrimPrefix(ref, "~/"))
	case strings.HasPrefix(ref, "/"):
		joined = ref
	default:
		joined = path.Join(root, ref)
	}

	clean := path.Clean(joined)
	if !strings.HasPrefix(clean, "/") {
		clean = "/" + clean
	}
	if strings.HasPrefix(clean, "/..") {
		return "", fmt.Errorf("%w: %q escapes the host root", ErrInvalidPath, ref)
	}
	return clean, nil
}
