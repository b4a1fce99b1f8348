// Package viewengine defines the view-lookup contract shared by every
// template backend: an Engine resolves a virtual path into a runnable View,
// and a View renders model data into an output sink. The package also carries
// the RequestContext capability set with both a live (net/http backed) and a
// synthetic variant, so consumers of the rendering pipeline stay agnostic to
// whether an actual network request is in flight.
package viewengine
