package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MacroLens/internal/model"
)

// RESTProvider implements SeriesProvider against a self-hosted series
// service exposing GET /api/v1/series.
type RESTProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTProvider creates a new provider with optional proxy support.
func NewRESTProvider(baseURL, apiKey, proxyURL string, timeout time.Duration) *RESTProvider {
	return &RESTProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (p *RESTProvider) Name() string { return "rest" }

// restPoint is the expected JSON shape from the series service.
type restPoint struct {
	Timestamp int64    `json:"timestamp"`
	Value     *float64 `json:"value"`
}

func (p *RESTProvider) Fetch(ctx context.Context, country model.Country, id model.SeriesID, r model.DateRange) (model.TimeSeries, error) {
	if !id.Valid() {
		return model.TimeSeries{}, model.NewFetchError(country, id, fmt.Errorf("%w: %s", model.ErrUnknownSeries, id))
	}
	params := url.Values{}
	params.Set("country", string(country))
	params.Set("series", string(id))
	params.Set("start", r.Start.Format(model.DateLayout))
	params.Set("end", r.End.Format(model.DateLayout))
	endpoint := fmt.Sprintf("%s/api/v1/series?%s", p.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.TimeSeries{}, model.NewFetchError(country, id, err)
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return model.TimeSeries{}, model.NewFetchError(country, id, classifyTransport("rest fetch", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.TimeSeries{}, model.NewFetchError(country, id, classifyStatus("rest", resp.StatusCode, body))
	}

	var raw []restPoint
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return model.TimeSeries{}, model.NewFetchError(country, id, model.Unavailable("rest decode: %v", err))
	}
	if len(raw) == 0 {
		return model.TimeSeries{}, model.NewFetchError(country, id, model.Unavailable("rest: no data for %s/%s", country, id))
	}
	points := make([]model.Point, 0, len(raw))
	for _, rp := range raw {
		if rp.Value == nil {
			continue
		}
		t := time.Unix(rp.Timestamp, 0).UTC()
		if !r.Contains(t) {
			continue
		}
		points = append(points, model.Point{Date: t, Value: *rp.Value})
	}
	return model.NewTimeSeries(points), nil
}
