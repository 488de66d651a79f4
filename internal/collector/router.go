package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"MacroLens/internal/model"
)

// Router dispatches each series to the provider registered for its kind.
type Router struct {
	routes map[model.SeriesKind]SeriesProvider
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{routes: make(map[model.SeriesKind]SeriesProvider)}
}

// Route registers p for every series of the given kind.
func (r *Router) Route(kind model.SeriesKind, p SeriesProvider) *Router {
	r.routes[kind] = p
	return r
}

func (r *Router) Name() string {
	names := make([]string, 0, len(r.routes))
	for kind, p := range r.routes {
		names = append(names, fmt.Sprintf("%s=%s", kind, p.Name()))
	}
	sort.Strings(names)
	return "router(" + strings.Join(names, ",") + ")"
}

func (r *Router) Fetch(ctx context.Context, c model.Country, id model.SeriesID, rng model.DateRange) (model.TimeSeries, error) {
	if !id.Valid() {
		return model.TimeSeries{}, model.NewFetchError(c, id, fmt.Errorf("%w: %s", model.ErrUnknownSeries, id))
	}
	p, ok := r.routes[id.Kind()]
	if !ok {
		return model.TimeSeries{}, model.NewFetchError(c, id, fmt.Errorf("%w: no provider for %s series", model.ErrUnknownSeries, id.Kind()))
	}
	return p.Fetch(ctx, c, id, rng)
}
