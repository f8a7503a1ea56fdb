// Package pipeline runs one fetch, transform and write cycle.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sabarim/gapfeed/internal/features"
	"github.com/sabarim/gapfeed/internal/frame"
	"github.com/sabarim/gapfeed/internal/historical"
)

// Fetcher downloads the raw price frame for a list of symbols
type Fetcher interface {
	Fetch(ctx context.Context, symbols []string) (*frame.Frame, historical.Report, error)
}

// Writer stores feature rows and returns the number of partitions written
type Writer interface {
	Write(ctx context.Context, rows []features.FeatureRow) (int, error)
}

// Config is everything a run needs besides its collaborators
type Config struct {
	RunID   string
	Symbols []string
	Window  int
	Order   features.Order
}

// Report summarizes a run
type Report struct {
	RunID      string
	Fetch      historical.Report
	Rows       int
	Partitions int
	Duration   time.Duration
}

// Pipeline wires a fetcher, the feature transform and a writer
type Pipeline struct {
	cfg     Config
	fetcher Fetcher
	writer  Writer
	logger  *zap.Logger
}

// New creates a pipeline. A run id is generated when cfg has none.
func New(cfg Config, fetcher Fetcher, writer Writer, logger *zap.Logger) *Pipeline {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		writer:  writer,
		logger:  logger.With(zap.String("run_id", cfg.RunID)),
	}
}

// RunID identifies this pipeline's run in logs and object metadata
func (p *Pipeline) RunID() string {
	return p.cfg.RunID
}

// Run fetches, transforms and writes. Any error is returned to the caller
// with the stage it came from; partitions written before a failed upload
// stay written.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{RunID: p.cfg.RunID}
	p.logger.Info("pipeline started",
		zap.Strings("symbols", p.cfg.Symbols),
		zap.Int("window", p.cfg.Window),
		zap.Stringer("order", p.cfg.Order))

	raw, fetchReport, err := p.fetcher.Fetch(ctx, p.cfg.Symbols)
	report.Fetch = fetchReport
	if err != nil {
		p.logger.Error("fetch stage failed", zap.Error(err))
		return report, fmt.Errorf("fetch: %w", err)
	}

	rows, err := features.Transform(raw, features.Options{Window: p.cfg.Window, Order: p.cfg.Order})
	if err != nil {
		p.logger.Error("transform stage failed", zap.Error(err))
		return report, fmt.Errorf("transform: %w", err)
	}
	report.Rows = len(rows)
	p.logger.Info("features computed", zap.Int("raw_rows", raw.Len()), zap.Int("rows", len(rows)))

	if err := ctx.Err(); err != nil {
		return report, err
	}

	written, err := p.writer.Write(ctx, rows)
	report.Partitions = written
	if err != nil {
		p.logger.Error("write stage failed", zap.Int("partitions_written", written), zap.Error(err))
		return report, fmt.Errorf("write: %w", err)
	}

	report.Duration = time.Since(start)
	p.logger.Info("pipeline finished",
		zap.Int("fetched", len(fetchReport.Fetched)),
		zap.Int("skipped", len(fetchReport.Failed)),
		zap.Int("rows", report.Rows),
		zap.Int("partitions", report.Partitions),
		zap.Duration("duration", report.Duration))
	return report, nil
}
