package instruments

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// InstrumentManager loads the NSE instrument dump and resolves symbols to tokens
type InstrumentManager struct {
	client      *resty.Client
	url         string
	fs          afero.Fs
	cachePath   string
	instruments map[string]Instrument
	logger      *zap.Logger
}

// NewInstrumentManager creates a manager that downloads from url. When
// cachePath is set the raw dump is also saved there on fs.
func NewInstrumentManager(client *resty.Client, url string, fs afero.Fs, cachePath string, logger *zap.Logger) *InstrumentManager {
	if client == nil {
		client = resty.New()
	}
	return &InstrumentManager{
		client:      client,
		url:         url,
		fs:          fs,
		cachePath:   cachePath,
		instruments: make(map[string]Instrument),
		logger:      logger,
	}
}

// DownloadInstruments downloads the NSE dump and loads it into memory
func (im *InstrumentManager) DownloadInstruments(ctx context.Context) error {
	im.logger.Info("downloading instruments", zap.String("url", im.url))

	resp, err := im.client.R().SetContext(ctx).Get(im.url)
	if err != nil {
		return fmt.Errorf("failed to download NSE instruments: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to download NSE instruments, status code: %d", resp.StatusCode())
	}

	body := resp.Body()
	if im.fs != nil && im.cachePath != "" {
		if err := im.saveDump(body); err != nil {
			return err
		}
	}

	count, err := im.Load(body)
	if err != nil {
		return err
	}
	im.logger.Info("instruments loaded", zap.Int("count", count), zap.String("exchange", ExchangeNSE))
	return nil
}

func (im *InstrumentManager) saveDump(body []byte) error {
	if err := im.fs.MkdirAll(filepath.Dir(im.cachePath), 0o755); err != nil {
		return fmt.Errorf("failed to create instruments directory: %w", err)
	}
	if err := afero.WriteFile(im.fs, im.cachePath, body, 0o644); err != nil {
		return fmt.Errorf("failed to save NSE instruments: %w", err)
	}
	return nil
}

// Load parses a CSV dump and keeps the NSE rows, keyed by trading symbol.
// It returns the number of instruments kept.
func (im *InstrumentManager) Load(dump []byte) (int, error) {
	var rows []Instrument
	if err := gocsv.UnmarshalBytes(dump, &rows); err != nil {
		return 0, fmt.Errorf("failed to parse instruments CSV: %w", err)
	}

	count := 0
	for _, inst := range rows {
		if inst.Exchange != ExchangeNSE {
			continue
		}
		im.instruments[inst.TradingSymbol] = inst
		count++
	}
	return count, nil
}

// LoadFile loads a dump saved by an earlier download
func (im *InstrumentManager) LoadFile(path string) (int, error) {
	data, err := afero.ReadFile(im.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("instruments file %s does not exist", path)
		}
		return 0, err
	}
	return im.Load(data)
}

// GetInstrumentBySymbol returns an instrument by its trading symbol
func (im *InstrumentManager) GetInstrumentBySymbol(symbol string) (Instrument, error) {
	instrument, ok := im.instruments[symbol]
	if !ok {
		return Instrument{}, &NotFoundError{Symbol: symbol}
	}
	return instrument, nil
}

// GetInstrumentsForSymbols returns the instruments that exist, skipping unknown symbols
func (im *InstrumentManager) GetInstrumentsForSymbols(symbols []string) []Instrument {
	var instruments []Instrument
	for _, symbol := range symbols {
		instrument, err := im.GetInstrumentBySymbol(symbol)
		if err != nil {
			im.logger.Warn("skipping symbol", zap.Error(err))
			continue
		}
		instruments = append(instruments, instrument)
	}
	return instruments
}

// TokenFor returns the instrument token of symbol
func (im *InstrumentManager) TokenFor(symbol string) (int64, error) {
	instrument, err := im.GetInstrumentBySymbol(symbol)
	if err != nil {
		return 0, err
	}
	return instrument.InstrumentToken, nil
}
