package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics so that components can be
// asserted against in tests (see Recorder).
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that broke in a way that needs a human.
	//
	// `id` names the broken component, not the line that broke: a page that failed
	// to load during a walk is `walker.walk`, and the HTTP detail goes into params
	// or a wrapped error. Ids are lowercase, underscores separate words of a large
	// component and dashes separate method names. Scoping (NewScopedAPI) adds the
	// package prefix, so ids only need `<struct>.<method>`.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that is not broken yet but deserves a look.
	ReportWarning(id string, params ...any)

	// ReportDebug reports debug information that is dropped in production.
	ReportDebug(msg string, params ...any)

	// ReportCount reports a point-in-time count for `id`. Counts are samples,
	// not deltas.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every report with a namespace, the way log.New takes a prefix.
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI creates a ScopedAPI out of a given namespace and another api.
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scope(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scope(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scope(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scope(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scope(id), count)
}
