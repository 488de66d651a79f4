package model

import (
	"fmt"
	"sort"
	"strings"
)

// Country is an upper-case ISO 3166 alpha-2 or alpha-3 code.
type Country string

// ParseCountry normalizes and validates a country code.
func ParseCountry(s string) (Country, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) < 2 || len(code) > 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCountry, s)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCountry, s)
		}
	}
	return Country(code), nil
}

// ParseCountries parses a comma separated or repeated list of codes.
func ParseCountries(values ...string) ([]Country, error) {
	var out []Country
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := ParseCountry(part)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func (c Country) String() string { return string(c) }

// SeriesKind groups identifiers by the kind of source that serves them.
type SeriesKind string

const (
	KindMacro  SeriesKind = "macro"
	KindMarket SeriesKind = "market"
)

// SeriesID names a requested macro or market quantity.
type SeriesID string

const (
	SeriesGDP          SeriesID = "GDP"
	SeriesGDPGrowth    SeriesID = "GDP_GROWTH"
	SeriesGDPPerCapita SeriesID = "GDP_PER_CAPITA"
	SeriesGNI          SeriesID = "GNI"
	SeriesGNIPerCapita SeriesID = "GNI_PER_CAPITA"
	SeriesInflation    SeriesID = "INFLATION"
	SeriesUnemployment SeriesID = "UNEMPLOYMENT"
	SeriesPopulation   SeriesID = "POPULATION"
	SeriesExports      SeriesID = "EXPORTS"
	SeriesImports      SeriesID = "IMPORTS"
	SeriesStockIndex   SeriesID = "STOCK_INDEX"
)

type seriesInfo struct {
	Kind      SeriesKind
	Label     string
	Unit      string
	Indicator string // World Bank indicator code, macro series only
}

var catalog = map[SeriesID]seriesInfo{
	SeriesGDP:          {KindMacro, "GDP", "current US$", "NY.GDP.MKTP.CD"},
	SeriesGDPGrowth:    {KindMacro, "GDP growth", "annual %", "NY.GDP.MKTP.KD.ZG"},
	SeriesGDPPerCapita: {KindMacro, "GDP per capita", "current US$", "NY.GDP.PCAP.CD"},
	SeriesGNI:          {KindMacro, "GNI", "current US$", "NY.GNP.MKTP.CD"},
	SeriesGNIPerCapita: {KindMacro, "GNI per capita", "current US$", "NY.GNP.PCAP.CD"},
	SeriesInflation:    {KindMacro, "Inflation, consumer prices", "annual %", "FP.CPI.TOTL.ZG"},
	SeriesUnemployment: {KindMacro, "Unemployment", "% of labor force", "SL.UEM.TOTL.ZS"},
	SeriesPopulation:   {KindMacro, "Population", "people", "SP.POP.TOTL"},
	SeriesExports:      {KindMacro, "Exports of goods and services", "current US$", "NE.EXP.GNFS.CD"},
	SeriesImports:      {KindMacro, "Imports of goods and services", "current US$", "NE.IMP.GNFS.CD"},
	SeriesStockIndex:   {KindMarket, "Benchmark stock index", "index points", ""},
}

// ParseSeriesID maps a case-insensitive name to a known identifier.
func ParseSeriesID(s string) (SeriesID, error) {
	id := SeriesID(strings.ToUpper(strings.TrimSpace(s)))
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSeries, s)
	}
	return id, nil
}

// AllSeries returns every known identifier in name order.
func AllSeries() []SeriesID {
	out := make([]SeriesID, 0, len(catalog))
	for id := range catalog {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (id SeriesID) Valid() bool {
	_, ok := catalog[id]
	return ok
}

func (id SeriesID) Kind() SeriesKind { return catalog[id].Kind }

func (id SeriesID) Label() string {
	if info, ok := catalog[id]; ok {
		return info.Label
	}
	return string(id)
}

func (id SeriesID) Unit() string { return catalog[id].Unit }

// Indicator returns the World Bank indicator code, or "" for non-macro ids.
func (id SeriesID) Indicator() string { return catalog[id].Indicator }

func (id SeriesID) String() string { return string(id) }

// SeriesTable maps identifiers to the series fetched for one country.
type SeriesTable map[SeriesID]TimeSeries

// Clone returns a shallow copy; TimeSeries values are immutable.
func (t SeriesTable) Clone() SeriesTable {
	out := make(SeriesTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// IDs returns the table keys in name order.
func (t SeriesTable) IDs() []SeriesID {
	out := make([]SeriesID, 0, len(t))
	for id := range t {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FetchStatus tells apart "never fetched", "fetch failed" and
// "fetched but legitimately empty".
type FetchStatus int

const (
	StatusNotFetched FetchStatus = iota
	StatusFailed
	StatusFetched
	StatusEmpty
)

func (s FetchStatus) String() string {
	switch s {
	case StatusFailed:
		return "failed"
	case StatusFetched:
		return "fetched"
	case StatusEmpty:
		return "empty"
	default:
		return "not_fetched"
	}
}
