package obs

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type routeKey struct{}

// WithRoute pins the route label for a request, overriding the chi pattern.
func WithRoute(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routeKey{}, pattern)
}

// Route returns the matched pattern for r. chi only fills the pattern once the
// request has been routed, so call this after the handler ran.
func Route(r *http.Request, fallback string) string {
	ctx := r.Context()
	if v, ok := ctx.Value(routeKey{}).(string); ok && v != "" {
		return v
	}
	if rc := chi.RouteContext(ctx); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && pattern != "/*" {
			return pattern
		}
	}
	return fallback
}

// Surface buckets a route into the storefront area it belongs to.
func Surface(route string) string {
	switch {
	case strings.HasPrefix(route, "/api/v1/admin"):
		return "admin"
	case strings.HasPrefix(route, "/api/"):
		return "storefront"
	case strings.HasPrefix(route, "/health"), route == "/metrics":
		return "ops"
	default:
		return "other"
	}
}
