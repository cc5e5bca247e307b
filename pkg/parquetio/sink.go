package parquetio

import (
	"context"
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/tjs392/otters/pkg/columnar"
)

// Sink writes a stream of record batches to a single parquet file. The
// writer is created lazily from the first batch's schema, since no schema
// is known before then; every later batch must carry that same schema. The
// file stores the columns in field-name order, so reading it back yields
// the same fields sorted by name.
type Sink struct {
	path string
}

// NewSink returns a Sink writing to path.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Run drains batches from in, writing each to the sink file in order. The
// file is created and its schema fixed on the first batch; a later batch
// whose schema differs is a fatal error (columnar.ErrSchemaMismatch). The
// file is finalized and closed when in is closed or ctx is cancelled.
func (s *Sink) Run(ctx context.Context, in <-chan *columnar.Batch) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("parquetio: creating sink file %q: %w", s.path, err)
	}
	defer f.Close()

	var writer *parquet.Writer
	var schema columnar.Schema
	closeWriter := func() error {
		if writer == nil {
			return nil
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("parquetio: closing writer: %w", err)
		}
		return nil
	}

	for {
		select {
		case batch, ok := <-in:
			if !ok {
				return closeWriter()
			}
			if writer == nil {
				schema = batch.Schema()
				writer = parquet.NewWriter(f, toParquetSchema(schema))
			} else if !batch.Schema().Equal(schema) {
				_ = closeWriter()
				return fmt.Errorf("parquetio: %w: sink batch schema diverged from the first batch written", columnar.ErrSchemaMismatch)
			}
			rows := batchToRows(batch)
			if _, err := writer.WriteRows(rows); err != nil {
				return fmt.Errorf("parquetio: writing rows: %w", err)
			}
		case <-ctx.Done():
			_ = closeWriter()
			return ctx.Err()
		}
	}
}
