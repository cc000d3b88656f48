package web

import "net/http"

// Filter is an interface to be implemented by components that can wrap one
// http.HandlerFunc around another.
type Filter interface {
	// Decorate decorates one http.HandlerFunc with another
	Decorate(http.HandlerFunc) http.HandlerFunc
}

// chain applies filters so that the first filter is the outermost.
func chain(handle http.HandlerFunc, filters ...Filter) http.HandlerFunc {
	for i := len(filters) - 1; i >= 0; i-- {
		handle = filters[i].Decorate(handle)
	}
	return handle
}
