package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MacroLens/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
type MockProvider struct {
	mu     sync.Mutex
	Series map[string]model.TimeSeries
	Errors map[string]error
	Calls  int
}

// NewMockProvider creates an empty MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Series: make(map[string]model.TimeSeries),
		Errors: make(map[string]error),
	}
}

func mockKey(c model.Country, id model.SeriesID) string { return string(c) + "|" + string(id) }

// Set registers the series returned for country and id.
func (m *MockProvider) Set(c model.Country, id model.SeriesID, ts model.TimeSeries) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Series[mockKey(c, id)] = ts
	return m
}

// Fail registers the error returned for country and id.
func (m *MockProvider) Fail(c model.Country, id model.SeriesID, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[mockKey(c, id)] = err
	return m
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Fetch(ctx context.Context, c model.Country, id model.SeriesID, r model.DateRange) (model.TimeSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if !id.Valid() {
		return model.TimeSeries{}, model.NewFetchError(c, id, fmt.Errorf("%w: %s", model.ErrUnknownSeries, id))
	}
	if err := ctx.Err(); err != nil {
		return model.TimeSeries{}, model.NewFetchError(c, id, err)
	}
	if err, ok := m.Errors[mockKey(c, id)]; ok {
		return model.TimeSeries{}, model.NewFetchError(c, id, err)
	}
	ts, ok := m.Series[mockKey(c, id)]
	if !ok {
		return model.TimeSeries{}, model.NewFetchError(c, id, model.Unavailable("mock: nothing registered"))
	}
	return ts, nil
}

// MockFetcher returns fixed or generated bars.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.OHLCV
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol string, r model.DateRange) ([]model.OHLCV, error) {
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	if m.Price == 0 {
		return nil, model.Unavailable("mock: no bars for %s", symbol)
	}
	days := int(r.End.Sub(r.Start).Hours()/24) + 1
	return generateMockBars(m.Price, r.Start, days), nil
}

func generateMockBars(basePrice float64, start time.Time, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:     start.AddDate(0, 0, i),
			Open:     p * 0.999,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    p,
			AdjClose: p,
			Volume:   1000000,
		}
	}
	return bars
}
