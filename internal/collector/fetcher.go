package collector

import (
	"context"

	"MacroLens/internal/model"
)

// SeriesProvider resolves a country, series and window to a TimeSeries by
// querying an external source.
type SeriesProvider interface {
	Fetch(ctx context.Context, country model.Country, id model.SeriesID, r model.DateRange) (model.TimeSeries, error)
	Name() string
}

// PriceFetcher fetches daily price bars for a market symbol.
type PriceFetcher interface {
	FetchBars(ctx context.Context, symbol string, r model.DateRange) ([]model.OHLCV, error)
	Name() string
}
