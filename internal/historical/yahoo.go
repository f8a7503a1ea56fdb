package historical

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/sabarim/gapfeed/internal/model"
)

const (
	// DefaultYahooBaseURL is the Yahoo Finance chart API host
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"
	// DefaultUserAgent is sent with every Yahoo request; the API rejects empty agents
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) gapfeed/1.0"
)

// YahooConfig configures the Yahoo provider
type YahooConfig struct {
	BaseURL    string
	UserAgent  string
	AutoAdjust bool
	Timeout    time.Duration
}

// YahooProvider reads daily bars from the Yahoo Finance chart API
type YahooProvider struct {
	client     *resty.Client
	autoAdjust bool
	logger     *zap.Logger
}

// NewYahooProvider creates a Yahoo chart API provider
func NewYahooProvider(cfg YahooConfig, logger *zap.Logger) *YahooProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	return &YahooProvider{
		client:     client,
		autoAdjust: cfg.AutoAdjust,
		logger:     logger,
	}
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// DailyBars fetches daily candles for symbol between from and to
func (p *YahooProvider) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"period1":              strconv.FormatInt(from.Unix(), 10),
			"period2":              strconv.FormatInt(to.Unix(), 10),
			"interval":             "1d",
			"events":               "div,splits",
			"includeAdjustedClose": "true",
		}).
		SetResult(&chartResponse{}).
		SetError(&chartResponse{}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("chart request failed: %w", err)
	}

	if resp.IsError() {
		if body, ok := resp.Error().(*chartResponse); ok && body.Chart.Error != nil {
			return nil, fmt.Errorf("chart API status %d: %s", resp.StatusCode(), body.Chart.Error)
		}
		return nil, fmt.Errorf("chart API status %d: %s", resp.StatusCode(), http.StatusText(resp.StatusCode()))
	}

	body, ok := resp.Result().(*chartResponse)
	if !ok || body == nil {
		return nil, fmt.Errorf("unexpected chart response")
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s", body.Chart.Error)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart API returned no result")
	}

	bars, err := body.Chart.Result[0].bars(p.autoAdjust)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("chart fetched", zap.String("symbol", symbol), zap.Int("bars", len(bars)))
	return bars, nil
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *chartError) String() string {
	return e.Code + ": " + e.Description
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// location is the exchange timezone; bar dates are calendar days there
func (r *chartResult) location() *time.Location {
	if r.Meta.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(r.Meta.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", r.Meta.GMTOffset)
}

func (r *chartResult) bars(autoAdjust bool) ([]model.Bar, error) {
	if len(r.Timestamp) == 0 {
		return nil, nil
	}
	if len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart result has no quote indicators")
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if autoAdjust && len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	loc := r.location()
	bars := make([]model.Bar, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		b := model.Bar{
			Date:   time.Unix(ts, 0).In(loc),
			Open:   valueAt(q.Open, i),
			High:   valueAt(q.High, i),
			Low:    valueAt(q.Low, i),
			Close:  valueAt(q.Close, i),
			Volume: -1,
		}
		if v := valueAt(q.Volume, i); !math.IsNaN(v) {
			b.Volume = int64(v)
		}
		if adj != nil {
			if a := valueAt(adj, i); !math.IsNaN(a) && b.Close != 0 && !math.IsNaN(b.Close) {
				ratio := a / b.Close
				b.Open *= ratio
				b.High *= ratio
				b.Low *= ratio
				b.Close = a
			}
		}
		bars[i] = b
	}
	return bars, nil
}

// valueAt returns NaN for missing or null entries
func valueAt(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}
