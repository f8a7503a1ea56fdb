package partition

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sabarim/gapfeed/internal/features"
	"github.com/sabarim/gapfeed/internal/frame"
	"github.com/sabarim/gapfeed/internal/storage"
)

// ObjectName is the file name every partition is stored under
const ObjectName = "stock_data"

// UploadError reports the partition that could not be stored.
// Partitions written before it stay written.
type UploadError struct {
	Date string
	Key  string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of partition %s (%s) failed: %v", e.Date, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Writer stores feature rows as one object per date
type Writer struct {
	store    storage.ObjectStore
	encoder  Encoder
	metadata map[string]string
	logger   *zap.Logger
}

// NewWriter creates a writer. metadata is attached to every object.
func NewWriter(store storage.ObjectStore, encoder Encoder, metadata map[string]string, logger *zap.Logger) *Writer {
	return &Writer{
		store:    store,
		encoder:  encoder,
		metadata: metadata,
		logger:   logger,
	}
}

// Key returns the object key of a date partition
func (w *Writer) Key(date string) string {
	return fmt.Sprintf("%s/%s.%s", date, ObjectName, w.encoder.Extension())
}

// Write groups rows by date and puts one object per date, in order of first
// appearance. It stops at the first failure and returns the number of
// partitions stored so far.
func (w *Writer) Write(ctx context.Context, rows []features.FeatureRow) (int, error) {
	groups := frame.GroupBy(rows, func(r features.FeatureRow) string { return r.Date })
	w.logger.Info("writing partitions",
		zap.Int("rows", len(rows)),
		zap.Int("partitions", len(groups)),
		zap.String("destination", w.store.Location()))

	written := 0
	for _, g := range groups {
		key := w.Key(g.Key)
		body, err := w.encoder.Encode(g.Items)
		if err != nil {
			return written, &UploadError{Date: g.Key, Key: key, Err: err}
		}

		obj := storage.Object{
			Key:         key,
			Body:        body,
			ContentType: w.encoder.ContentType(),
			Metadata:    w.metadata,
		}
		if err := w.store.Put(ctx, obj); err != nil {
			w.logger.Error("upload failed",
				zap.String("date", g.Key),
				zap.String("key", key),
				zap.Int("written", written),
				zap.Error(err))
			return written, &UploadError{Date: g.Key, Key: key, Err: err}
		}
		written++
		w.logger.Debug("partition stored", zap.String("key", key), zap.Int("rows", len(g.Items)))
	}

	w.logger.Info("data successfully uploaded",
		zap.String("destination", w.store.Location()),
		zap.Int("partitions", written))
	return written, nil
}
