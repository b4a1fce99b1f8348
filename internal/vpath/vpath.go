// Package vpath normalizes the virtual paths used to address templates inside
// a bundle. A virtual path is application-rooted: "~/emails/welcome.html",
// "/emails/welcome.html" and "emails/welcome.html" all canonicalize to
// "/emails/welcome.html".
package vpath

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalid reports a virtual path that cannot be canonicalized.
var ErrInvalid = errors.New("vpath: invalid virtual path")

// Canon returns the canonical form of a virtual path: forward slashes, a
// single leading slash, no "~" prefix, and no "." or ".." segments. Paths
// that escape the root or carry a scheme/host are rejected.
func Canon(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalid)
	}
	if strings.Contains(trimmed, "://") {
		return "", fmt.Errorf("%w: %q carries a scheme", ErrInvalid, raw)
	}

	trimmed = strings.ReplaceAll(trimmed, "\\", "/")
	trimmed = strings.TrimPrefix(trimmed, "~")

	// clean before rooting so ".." segments cannot hide behind the slash
	clean := path.Clean(trimmed)
	if clean == "/" || clean == "." {
		return "", fmt.Errorf("%w: %q names no template", ErrInvalid, raw)
	}
	if strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: %q escapes the bundle root", ErrInvalid, raw)
	}
	if !strings.HasPrefix(clean, "/") {
		clean = "/" + clean
	}
	return clean, nil
}

// Rel converts a canonical virtual path into the root-relative form engines
// use against their template filesystem ("/emails/welcome.html" becomes
// "emails/welcome.html").
func Rel(canonical string) string {
	return strings.TrimPrefix(canonical, "/")
}
