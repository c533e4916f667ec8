package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiRouter implements [Router] on top of [chi.Router].
type ChiRouter struct {
	mux chi.Router
}

// NewRouter creates a new [ChiRouter] instance.
func NewRouter() *ChiRouter {
	return &ChiRouter{mux: chi.NewRouter()}
}

// Use adds [Middleware] to the router's stack, applied in the order it's added.
//
// Must be called before any route is registered.
func (r *ChiRouter) Use(middleware ...Middleware) {
	for _, m := range middleware {
		r.mux.Use(m)
	}
}

// Handle registers a handler for the specified HTTP method and path.
//
// Unmatched methods on a known path get 405 from chi.
func (r *ChiRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, handler)
}

// With returns an inline router that runs middleware for its routes only.
func (r *ChiRouter) With(middleware ...Middleware) Router {
	fns := make([]func(http.Handler) http.Handler, 0, len(middleware))
	for _, m := range middleware {
		fns = append(fns, m)
	}
	return &ChiRouter{mux: r.mux.With(fns...)}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *ChiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
