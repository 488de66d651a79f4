package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"MacroLens/internal/collector"
	"MacroLens/internal/country"
	"MacroLens/internal/model"
)

// Server exposes series, comparisons and stock analytics over HTTP.
type Server struct {
	router   *chi.Mux
	provider collector.SeriesProvider
	prices   collector.PriceFetcher
	now      func() time.Time
}

// NewServer wires the routes. prices may be nil, which disables /api/stocks.
func NewServer(provider collector.SeriesProvider, prices collector.PriceFetcher) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		provider: provider,
		prices:   prices,
		now:      time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(2 * time.Minute))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/series", s.handleSeries)
		r.Get("/countries/{country}/macros", s.handleCountryMacros)
		r.Get("/compare/{series}", s.handleCompare)
		r.Get("/compare/{series}/chart.{format}", s.handleCompareChart)
		r.Get("/compare/{series}/export.{format}", s.handleCompareExport)
		r.Get("/stocks/{symbol}", s.handleStock)
		r.Get("/stocks/{symbol}/chart.{format}", s.handleStockChart)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Println("[INFO] API stopped")
		return nil
	}
}

// country returns a CountrySeries scoped to one request; entries never leak
// across periods.
func (s *Server) country(c model.Country) *country.CountrySeries {
	return country.New(c, s.provider).WithClock(s.now)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "provider": s.provider.Name()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrUnknownSeries),
		errors.Is(err, model.ErrInvalidPeriod),
		errors.Is(err, model.ErrInvalidCountry),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNoDataToVisualize), errors.Is(err, model.ErrDataUnavailable):
		return http.StatusNotFound
	case errors.Is(err, model.ErrTransientFetch):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

// fetchErrors maps every *model.FetchError inside err to "COUNTRY/SERIES".
func fetchErrors(err error) map[string]string {
	if err == nil {
		return nil
	}
	out := make(map[string]string)
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var fe *model.FetchError
		if errors.As(e, &fe) {
			out[string(fe.Country)+"/"+string(fe.Series)] = fe.Err.Error()
			return
		}
		out["_"] = e.Error()
	}
	walk(err)
	return out
}
