package historical

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sabarim/gapfeed/internal/model"
)

type fakeProvider struct {
	bars   map[string][]model.Bar
	errs   map[string]error
	from   time.Time
	to     time.Time
	called []string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	p.called = append(p.called, symbol)
	p.from, p.to = from, to
	if err := p.errs[symbol]; err != nil {
		return nil, err
	}
	return p.bars[symbol], nil
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestFetchConcatenatesInSymbolOrder(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]model.Bar{
		"AAPL": {
			{Date: day(1), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
			{Date: day(4), Open: 2, High: 3, Low: 1.5, Close: 2.5, Volume: -1},
		},
		"MSFT": {
			{Date: day(1), Open: 10, High: 12, Low: 9, Close: 11, Volume: 20},
		},
	}}
	d := NewDownloader(provider, 365, zaptest.NewLogger(t))
	now := time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	f, report, err := d.Fetch(context.Background(), []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, now, provider.to)
	assert.Equal(t, now.AddDate(0, 0, -365), provider.from)

	assert.Equal(t, 2, report.Requested)
	assert.Equal(t, []string{"AAPL", "MSFT"}, report.Fetched)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 3, report.Rows)

	require.Equal(t, 3, f.Len())
	assert.Equal(t, model.ColDate, f.IndexName())

	stock, err := f.Strings(model.ColSymbol)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "AAPL", "MSFT"}, stock)

	high, err := f.Floats(model.ColHigh)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 12}, high)

	volume, err := f.Floats(model.ColVolume)
	require.NoError(t, err)
	assert.Equal(t, 10.0, volume[0])
	assert.True(t, math.IsNaN(volume[1]))
}

func TestFetchSkipsFailingSymbols(t *testing.T) {
	provider := &fakeProvider{
		bars: map[string][]model.Bar{
			"AAPL":  {{Date: day(1), Open: 1, High: 2, Low: 1, Close: 2}},
			"EMPTY": {},
		},
		errs: map[string]error{"BTC": errors.New("no timezone found, symbol may be delisted")},
	}
	d := NewDownloader(provider, 365, zaptest.NewLogger(t))

	f, report, err := d.Fetch(context.Background(), []string{"BTC", "AAPL", "EMPTY"})
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "AAPL", "EMPTY"}, provider.called)
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, []string{"AAPL"}, report.Fetched)

	require.Len(t, report.Failed, 2)
	assert.Equal(t, "BTC", report.Failed[0].Symbol)
	assert.Contains(t, report.Failed[0].Error(), "delisted")
	assert.Equal(t, "EMPTY", report.Failed[1].Symbol)
}

func TestFetchNoData(t *testing.T) {
	boom := errors.New("boom")
	provider := &fakeProvider{errs: map[string]error{"A": boom, "B": boom}}
	d := NewDownloader(provider, 365, zaptest.NewLogger(t))

	f, report, err := d.Fetch(context.Background(), []string{"A", "B"})
	assert.Nil(t, f)

	var noData *NoDataError
	require.ErrorAs(t, err, &noData)
	assert.Equal(t, 2, noData.Requested)
	require.Len(t, noData.Failures, 2)
	assert.ErrorIs(t, noData.Failures[0], boom)
	assert.Empty(t, report.Fetched)
}

func TestFetchEmptySymbolList(t *testing.T) {
	d := NewDownloader(&fakeProvider{}, 365, zaptest.NewLogger(t))
	_, _, err := d.Fetch(context.Background(), nil)
	var noData *NoDataError
	assert.ErrorAs(t, err, &noData)
}

func TestFetchCancelled(t *testing.T) {
	provider := &fakeProvider{bars: map[string][]model.Bar{
		"AAPL": {{Date: day(1), Open: 1, High: 2, Low: 1, Close: 2}},
	}}
	d := NewDownloader(provider, 365, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := d.Fetch(ctx, []string{"AAPL"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, provider.called)
}
