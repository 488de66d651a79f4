package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSeries means the caller asked for an identifier outside the
	// known set, or one the provider cannot serve. Not retryable.
	ErrUnknownSeries = errors.New("unknown series")
	// ErrDataUnavailable means the source has no data for the request.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrTransientFetch means the source could not be reached or failed
	// temporarily. Callers may retry.
	ErrTransientFetch = errors.New("transient fetch error")
	// ErrNoDataToVisualize is returned when a comparison has nothing to plot.
	ErrNoDataToVisualize = errors.New("no data to visualize")

	ErrInvalidPeriod  = errors.New("invalid period")
	ErrInvalidCountry = errors.New("invalid country")
)

// FetchError describes a failed fetch of one series for one country.
type FetchError struct {
	Country Country
	Series  SeriesID
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s/%s: %v", e.Country, e.Series, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the same request may succeed.
func (e *FetchError) Temporary() bool {
	return errors.Is(e.Err, ErrTransientFetch)
}

// NewFetchError wraps err for the given country and series. An error that is
// already a *FetchError is returned unchanged.
func NewFetchError(country Country, id SeriesID, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Country: country, Series: id, Err: err}
}

// Unavailable builds a DataUnavailable error carrying a reason.
func Unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataUnavailable, fmt.Sprintf(format, args...))
}

// Transient builds a TransientFetch error carrying a reason.
func Transient(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransientFetch, fmt.Sprintf(format, args...))
}
