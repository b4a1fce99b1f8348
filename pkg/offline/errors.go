package offline

import "errors"

var (
	// ErrNotTemplate reports a render-by-type model whose type has no virtual
	// path registered in the bundle.
	ErrNotTemplate = errors.New("offline: not a precompiled template")

	// ErrTemplateNotFound reports a virtual path no engine in the chain could
	// resolve.
	ErrTemplateNotFound = errors.New("offline: template not found")

	// ErrServiceClosed reports use of a service after Close.
	ErrServiceClosed = errors.New("offline: service closed")
)
