package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MacroLens/internal/model"
)

const (
	DefaultWorldBankURL = "https://api.worldbank.org/v2"
	worldBankPerPage    = 1000
	worldBankMaxPages   = 20
)

// WorldBankProvider implements SeriesProvider using the World Bank
// indicators API (v2, JSON).
type WorldBankProvider struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
}

// NewWorldBankProvider creates a provider with optional proxy support.
func NewWorldBankProvider(baseURL, proxyURL string, timeout time.Duration) *WorldBankProvider {
	if baseURL == "" {
		baseURL = DefaultWorldBankURL
	}
	return &WorldBankProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Client:    newHTTPClient(proxyURL, timeout),
		UserAgent: "MacroLens/0.1",
	}
}

func (p *WorldBankProvider) Name() string { return "worldbank" }

// wbMeta is the first element of every World Bank response array. Error
// responses carry Message instead of paging fields.
type wbMeta struct {
	Page    flexInt `json:"page"`
	Pages   flexInt `json:"pages"`
	PerPage flexInt `json:"per_page"`
	Total   flexInt `json:"total"`
	Message []struct {
		ID    string `json:"id"`
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"message"`
}

type wbRecord struct {
	Indicator struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"indicator"`
	CountryISO3 string   `json:"countryiso3code"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
}

// flexInt decodes paging fields the API sends either as numbers or strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("decode paging field %s: %w", data, err)
	}
	*f = flexInt(n)
	return nil
}

func (p *WorldBankProvider) Fetch(ctx context.Context, country model.Country, id model.SeriesID, r model.DateRange) (model.TimeSeries, error) {
	if !id.Valid() || id.Kind() != model.KindMacro {
		return model.TimeSeries{}, model.NewFetchError(country, id, fmt.Errorf("%w: %s is not a World Bank indicator", model.ErrUnknownSeries, id))
	}

	var points []model.Point
	sawRecords := false
	for page := 1; page <= worldBankMaxPages; page++ {
		meta, records, err := p.fetchPage(ctx, country, id.Indicator(), r, page)
		if err != nil {
			return model.TimeSeries{}, model.NewFetchError(country, id, err)
		}
		if len(records) > 0 {
			sawRecords = true
		}
		for _, rec := range records {
			if rec.Value == nil {
				continue
			}
			start, _, ok := parseWorldBankDate(rec.Date)
			if !ok {
				log.Printf("[WARN] worldbank: skip %s/%s record with date %q", country, id, rec.Date)
				continue
			}
			// Points are dated at the period start; the API filters by year only.
			if !r.Contains(start) {
				continue
			}
			points = append(points, model.Point{Date: start, Value: *rec.Value})
		}
		if int(meta.Pages) <= page {
			break
		}
	}

	if !sawRecords {
		return model.TimeSeries{}, model.NewFetchError(country, id, model.Unavailable("worldbank: no records for %s %s in %s", country, id.Indicator(), r))
	}
	return model.NewTimeSeries(points), nil
}

func (p *WorldBankProvider) fetchPage(ctx context.Context, country model.Country, indicator string, r model.DateRange, page int) (wbMeta, []wbRecord, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("date", fmt.Sprintf("%d:%d", r.Start.Year(), r.End.Year()))
	params.Set("per_page", strconv.Itoa(worldBankPerPage))
	params.Set("page", strconv.Itoa(page))
	endpoint := fmt.Sprintf("%s/country/%s/indicator/%s?%s",
		p.BaseURL, url.PathEscape(strings.ToLower(string(country))), url.PathEscape(indicator), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return wbMeta{}, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return wbMeta{}, nil, classifyTransport("worldbank", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return wbMeta{}, nil, classifyTransport("worldbank read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return wbMeta{}, nil, classifyStatus("worldbank", resp.StatusCode, body)
	}
	return decodeWorldBank(body)
}

// decodeWorldBank splits the [meta, records] response array.
func decodeWorldBank(body []byte) (wbMeta, []wbRecord, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &parts); err != nil {
		return wbMeta{}, nil, model.Unavailable("worldbank decode: %v", err)
	}
	if len(parts) == 0 {
		return wbMeta{}, nil, model.Unavailable("worldbank: empty response")
	}

	var meta wbMeta
	if err := json.Unmarshal(parts[0], &meta); err != nil {
		return wbMeta{}, nil, model.Unavailable("worldbank decode meta: %v", err)
	}
	if len(meta.Message) > 0 {
		m := meta.Message[0]
		return meta, nil, model.Unavailable("worldbank api error %s: %s", m.ID, strings.TrimSpace(m.Value))
	}
	if len(parts) < 2 {
		return meta, nil, nil
	}

	var records []wbRecord
	if err := json.Unmarshal(parts[1], &records); err != nil {
		return meta, nil, model.Unavailable("worldbank decode records: %v", err)
	}
	return meta, records, nil
}

// parseWorldBankDate handles annual ("2020"), quarterly ("2020Q2") and
// monthly ("2020M07") dates and returns the first and last day they cover.
func parseWorldBankDate(s string) (start, end time.Time, ok bool) {
	s = strings.TrimSpace(s)
	switch {
	case len(s) == 4:
		year, err := strconv.Atoi(s)
		if err != nil {
			return start, end, false
		}
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, -1), true
	case len(s) == 6 && (s[4] == 'Q' || s[4] == 'q'):
		year, err1 := strconv.Atoi(s[:4])
		quarter, err2 := strconv.Atoi(s[5:])
		if err1 != nil || err2 != nil || quarter < 1 || quarter > 4 {
			return start, end, false
		}
		start = time.Date(year, time.Month(3*(quarter-1)+1), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 3, -1), true
	case len(s) == 7 && (s[4] == 'M' || s[4] == 'm'):
		year, err1 := strconv.Atoi(s[:4])
		month, err2 := strconv.Atoi(s[5:])
		if err1 != nil || err2 != nil || month < 1 || month > 12 {
			return start, end, false
		}
		start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1), true
	}
	return start, end, false
}
