package historical

import (
	"context"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"go.uber.org/zap"

	"github.com/sabarim/gapfeed/internal/model"
)

// HistoricalClient is the part of the Kite Connect client the provider uses
type HistoricalClient interface {
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

// TokenResolver maps a trading symbol to its instrument token
type TokenResolver interface {
	TokenFor(symbol string) (int64, error)
}

// KiteProvider reads daily candles from Kite Connect
type KiteProvider struct {
	client      HistoricalClient
	instruments TokenResolver
	logger      *zap.Logger
}

// NewKiteProvider creates a Kite Connect provider
func NewKiteProvider(client HistoricalClient, instruments TokenResolver, logger *zap.Logger) *KiteProvider {
	return &KiteProvider{
		client:      client,
		instruments: instruments,
		logger:      logger,
	}
}

// Name returns the provider name
func (p *KiteProvider) Name() string {
	return "kite"
}

// DailyBars fetches day candles for symbol between from and to
func (p *KiteProvider) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	token, err := p.instruments.TokenFor(symbol)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := p.client.GetHistoricalData(int(token), "day", from, to, false, false)
	if err != nil {
		return nil, fmt.Errorf("historical data request for token %d failed: %w", token, err)
	}

	bars := make([]model.Bar, 0, len(data))
	for _, d := range data {
		bars = append(bars, model.Bar{
			Date:   d.Date.Time,
			Open:   d.Open,
			High:   d.High,
			Low:    d.Low,
			Close:  d.Close,
			Volume: int64(d.Volume),
		})
	}
	p.logger.Debug("candles fetched", zap.String("symbol", symbol), zap.Int64("token", token), zap.Int("bars", len(bars)))
	return bars, nil
}
