package partition

import (
	"bytes"
	"fmt"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/sabarim/gapfeed/internal/features"
)

// Record is the on-disk layout of one feature row. The date is not stored;
// it is carried by the object key.
type Record struct {
	Open             float64 `parquet:"name=open, type=DOUBLE, encoding=PLAIN"`
	High             float64 `parquet:"name=high, type=DOUBLE, encoding=PLAIN"`
	Low              float64 `parquet:"name=low, type=DOUBLE, encoding=PLAIN"`
	Close            float64 `parquet:"name=close, type=DOUBLE, encoding=PLAIN"`
	Gap              float64 `parquet:"name=gap, type=DOUBLE, encoding=PLAIN"`
	GapCategory      string  `parquet:"name=gap_category, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	GapMovingAverage float64 `parquet:"name=gap_moving_average, type=DOUBLE, encoding=PLAIN"`
	GapStdDev        float64 `parquet:"name=gap_std_dev, type=DOUBLE, encoding=PLAIN"`
}

// NewRecord drops the date of a feature row
func NewRecord(r features.FeatureRow) Record {
	return Record{
		Open:             r.Open,
		High:             r.High,
		Low:              r.Low,
		Close:            r.Close,
		Gap:              r.Gap,
		GapCategory:      r.GapCategory.String(),
		GapMovingAverage: r.GapMovingAverage,
		GapStdDev:        r.GapStdDev,
	}
}

// Encoder serializes the rows of one partition
type Encoder interface {
	Encode(rows []features.FeatureRow) ([]byte, error)
	Extension() string
	ContentType() string
}

// ParquetEncoder encodes partitions as snappy compressed Parquet
type ParquetEncoder struct {
	// Parallelism is the number of goroutines the parquet writer uses per row group
	Parallelism int64
}

func (ParquetEncoder) Extension() string { return "parquet" }

func (ParquetEncoder) ContentType() string { return "application/vnd.apache.parquet" }

// Encode writes rows into an in-memory Parquet file
func (e ParquetEncoder) Encode(rows []features.FeatureRow) ([]byte, error) {
	np := e.Parallelism
	if np < 1 {
		np = 1
	}

	buf := new(bytes.Buffer)
	fw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewParquetWriter(fw, new(Record), np)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	pw.PageSize = 8 * 1024

	for _, r := range rows {
		if err := pw.Write(NewRecord(r)); err != nil {
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet data: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet buffer: %w", err)
	}
	return buf.Bytes(), nil
}
