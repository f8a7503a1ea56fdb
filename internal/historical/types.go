package historical

import (
	"context"
	"fmt"
	"time"

	"github.com/sabarim/gapfeed/internal/model"
)

// Provider returns daily bars for one symbol in [from, to]
type Provider interface {
	Name() string
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error)
}

// FetchError records a symbol that was skipped
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error fetching data for %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NoDataError is returned when no symbol could be fetched
type NoDataError struct {
	Requested int
	Failures  []*FetchError
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no stock data fetched (%d symbols requested, %d failed)", e.Requested, len(e.Failures))
}

// Report summarizes one fetch
type Report struct {
	Requested int
	Fetched   []string
	Failed    []*FetchError
	Rows      int
}
