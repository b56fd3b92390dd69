// Package builder composes the middleware that runs when a page is activated.
package builder

import (
	"context"

	"github.com/vidyasagar/pagenav/internal/routing"
)

// HandlerFunc activates the page described by rc.
type HandlerFunc func(ctx context.Context, rc *routing.RouteContext) error

// Middleware wraps the rest of the activation chain.
type Middleware func(next HandlerFunc) HandlerFunc

// App collects middleware in registration order.
type App struct {
	middleware []Middleware
}

// New creates an empty App.
func New() *App {
	return &App{}
}

// Use appends mw to the chain.
func (a *App) Use(mw Middleware) *App {
	a.middleware = append(a.middleware, mw)
	return a
}

// UseFunc appends a middleware that calls next to continue the chain with
// the same ctx and rc.
func (a *App) UseFunc(fn func(ctx context.Context, rc *routing.RouteContext, next func() error) error) *App {
	return a.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, rc *routing.RouteContext) error {
			return fn(ctx, rc, func() error { return next(ctx, rc) })
		}
	})
}

// Build returns a handler that runs the middleware, first registered
// outermost, and then final.
func (a *App) Build(final HandlerFunc) HandlerFunc {
	h := final
	if h == nil {
		h = func(context.Context, *routing.RouteContext) error { return nil }
	}
	for i := len(a.middleware) - 1; i >= 0; i-- {
		h = a.middleware[i](h)
	}
	return h
}
