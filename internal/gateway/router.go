package gateway

import (
	"net/http"
)

// RouteMiddleware wraps the handler registered for pattern.
type RouteMiddleware func(pattern string, next http.Handler) http.Handler

// Router wraps http.ServeMux. Routes added with Route pass through the
// middleware chain; Handle registers a handler as is.
type Router struct {
	mux   *http.ServeMux
	chain []RouteMiddleware
}

// NewRouter creates a router applying chain to every Route, outermost first.
func NewRouter(chain ...RouteMiddleware) *Router {
	return &Router{
		mux:   http.NewServeMux(),
		chain: chain,
	}
}

// ServeHTTP dispatches to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handle registers handler for pattern without the middleware chain.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

// Route registers handler for pattern behind the middleware chain.
func (r *Router) Route(pattern string, handler http.HandlerFunc) {
	var h http.Handler = handler
	for i := len(r.chain) - 1; i >= 0; i-- {
		h = r.chain[i](pattern, h)
	}
	r.mux.Handle(pattern, h)
}
