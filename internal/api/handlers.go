package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"MacroLens/internal/compare"
	"MacroLens/internal/country"
	"MacroLens/internal/model"
	"MacroLens/internal/report"
	"MacroLens/internal/stock"
	"MacroLens/internal/viz"
)

type seriesInfo struct {
	ID        model.SeriesID   `json:"id"`
	Kind      model.SeriesKind `json:"kind"`
	Label     string           `json:"label"`
	Unit      string           `json:"unit"`
	Indicator string           `json:"indicator,omitempty"`
}

func (s *Server) handleSeries(w http.ResponseWriter, _ *http.Request) {
	ids := model.AllSeries()
	out := make([]seriesInfo, len(ids))
	for i, id := range ids {
		out[i] = seriesInfo{ID: id, Kind: id.Kind(), Label: id.Label(), Unit: id.Unit(), Indicator: id.Indicator()}
	}
	writeJSON(w, http.StatusOK, out)
}

type macrosResponse struct {
	Country model.Country             `json:"country"`
	Period  string                    `json:"period"`
	Range   string                    `json:"range"`
	Series  model.SeriesTable         `json:"series"`
	Status  map[model.SeriesID]string `json:"status"`
	Errors  map[string]string         `json:"errors,omitempty"`
}

func (s *Server) handleCountryMacros(w http.ResponseWriter, r *http.Request) {
	c, err := model.ParseCountry(chi.URLParam(r, "country"))
	if err != nil {
		writeError(w, err)
		return
	}
	period, err := model.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, err)
		return
	}
	names := splitList(r.URL.Query().Get("series"))
	if len(names) == 0 {
		for _, id := range model.AllSeries() {
			if id.Kind() == model.KindMacro {
				names = append(names, string(id))
			}
		}
	}

	cs := s.country(c)
	table, fetchErr := cs.GetMacrosByName(r.Context(), period, names...)
	status := make(map[model.SeriesID]string, len(names))
	for _, name := range names {
		if id, err := model.ParseSeriesID(name); err == nil {
			status[id] = cs.Status(id).String()
		} else {
			status[model.SeriesID(name)] = model.StatusFailed.String()
		}
	}
	writeJSON(w, http.StatusOK, macrosResponse{
		Country: c,
		Period:  period.String(),
		Range:   period.Resolve(s.now()).String(),
		Series:  table,
		Status:  status,
		Errors:  fetchErrors(fetchErr),
	})
}

// comparison is a loaded view plus the fetch failures hit while loading it.
type comparison struct {
	view    *compare.ComparativeView
	id      model.SeriesID
	loadErr error
}

// compare parses the shared compare query and loads the view.
func (s *Server) compare(r *http.Request) (comparison, error) {
	id, err := model.ParseSeriesID(chi.URLParam(r, "series"))
	if err != nil {
		return comparison{}, err
	}
	q := r.URL.Query()
	countries, err := model.ParseCountries(q["countries"]...)
	if err != nil {
		return comparison{}, err
	}
	if len(countries) == 0 {
		return comparison{}, fmt.Errorf("%w: countries query parameter is required", errBadRequest)
	}
	period, err := model.ParsePeriod(q.Get("period"))
	if err != nil {
		return comparison{}, err
	}
	join, err := model.ParseJoinPolicy(q.Get("join"))
	if err != nil {
		return comparison{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	members := make([]*country.CountrySeries, len(countries))
	for i, c := range countries {
		members[i] = s.country(c)
	}
	view := compare.New(members...).WithJoin(join)
	return comparison{view: view, id: id, loadErr: view.Load(r.Context(), period, id)}, nil
}

type compareResponse struct {
	Series    model.SeriesID    `json:"series"`
	Label     string            `json:"label"`
	Unit      string            `json:"unit"`
	Join      model.JoinPolicy  `json:"join"`
	Countries []model.Country   `json:"countries"`
	Rows      []model.MergedRow `json:"rows"`
	Summaries []compare.Summary `json:"summaries"`
	Errors    map[string]string `json:"errors,omitempty"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.compare(r)
	if err != nil {
		writeError(w, err)
		return
	}
	view, id := cmp.view, cmp.id
	merged, err := view.GetMergedMacro(id)
	if err != nil {
		writeError(w, err)
		return
	}
	sums, err := view.Summarize(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{
		Series:    id,
		Label:     id.Label(),
		Unit:      id.Unit(),
		Join:      merged.Join,
		Countries: merged.Countries,
		Rows:      merged.Rows(),
		Summaries: sums,
		Errors:    fetchErrors(cmp.loadErr),
	})
}

func (s *Server) handleCompareChart(w http.ResponseWriter, r *http.Request) {
	format, err := viz.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	cmp, err := s.compare(r)
	if err != nil {
		writeError(w, err)
		return
	}
	fig, err := cmp.view.Visualize(cmp.id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeFigure(w, r, fig, format)
}

func (s *Server) handleCompareExport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	cmp, err := s.compare(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id := cmp.id
	rep, err := report.New(cmp.view, id, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, format, rep); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, id, format))
	_, _ = w.Write(buf.Bytes())
}

type stockResponse struct {
	stock.Snapshot
	Benchmark string   `json:"benchmark,omitempty"`
	Beta      *float64 `json:"beta,omitempty"`
	Alpha     *float64 `json:"alpha,omitempty"`
	Warning   string   `json:"warning,omitempty"`
}

// ticker loads the symbol named in the path over the requested period.
func (s *Server) ticker(r *http.Request, symbol string) (*stock.Ticker, error) {
	if s.prices == nil {
		return nil, fmt.Errorf("%w: stock quotes are not configured", model.ErrDataUnavailable)
	}
	p := r.URL.Query().Get("period")
	if p == "" {
		p = "1Y"
	}
	period, err := model.ParsePeriod(p)
	if err != nil {
		return nil, err
	}
	return stock.Load(r.Context(), s.prices, symbol, period.Resolve(s.now()))
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	t, err := s.ticker(r, chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := t.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	resp := stockResponse{Snapshot: snap}

	if bench := stock.BenchmarkSymbol(r.URL.Query().Get("benchmark")); bench != "" {
		resp.Benchmark = bench
		riskFree := stock.DefaultRiskFree
		if v := r.URL.Query().Get("risk_free"); v != "" {
			if riskFree, err = strconv.ParseFloat(v, 64); err != nil {
				writeError(w, fmt.Errorf("%w: risk_free %q", errBadRequest, v))
				return
			}
		}
		if bt, err := s.ticker(r, bench); err != nil {
			resp.Warning = err.Error()
		} else if beta, err := t.Beta(bt); err != nil {
			resp.Warning = err.Error()
		} else {
			alpha, _ := t.Alpha(bt, riskFree)
			resp.Beta, resp.Alpha = &beta, &alpha
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStockChart(w http.ResponseWriter, r *http.Request) {
	format, err := viz.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	t, err := s.ticker(r, chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, err)
		return
	}
	investment := 10000.0
	if v := r.URL.Query().Get("investment"); v != "" {
		if investment, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, fmt.Errorf("%w: investment %q", errBadRequest, v))
			return
		}
	}
	fig, err := t.Figure(r.URL.Query().Get("kind"), investment)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	writeFigure(w, r, fig, format)
}

func writeFigure(w http.ResponseWriter, r *http.Request, fig *viz.Figure, format string) {
	width, _ := strconv.ParseFloat(r.URL.Query().Get("width"), 64)
	height, _ := strconv.ParseFloat(r.URL.Query().Get("height"), 64)
	var buf bytes.Buffer
	if err := viz.Render(fig, &buf, format, width, height); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", viz.ContentType(format))
	_, _ = w.Write(buf.Bytes())
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
