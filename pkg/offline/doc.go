// Package offline renders precompiled view templates without a live network
// request. A Service owns the process-wide renderer registry and the ordered
// engine chain; each bundle gets exactly one lazily created Renderer that
// fabricates a synthetic request context per render call.
package offline
