package parquetio

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/parquet-go/parquet-go"

	"github.com/tjs392/otters/pkg/columnar"
)

// Source reads one or more parquet files and produces a stream of record
// batches sized by the pipeline's configured batch size. Memory consumption
// is O(batch size), independent of file size, because rows are read off
// disk in fixed-size chunks rather than materialized whole.
//
// Path may be a plain filesystem path or a glob
// (github.com/bmatcuk/doublestar/v4 pattern, e.g. "data/*.parquet" or
// "data/**/*.parquet"); matched files are read and concatenated, in
// sorted-path order, into one output batch stream.
type Source struct {
	path      string
	batchSize int
}

// NewSource builds a parquet Source reading path at the given batch size.
func NewSource(path string, batchSize int) *Source {
	return &Source{path: path, batchSize: batchSize}
}

// Run drains every matched file in file order, sending each batch to out.
// On I/O or decode error it returns immediately with a fatal error, which
// unwinds the pipeline via the worker's errgroup.
func (s *Source) Run(ctx context.Context, out chan<- *columnar.Batch) error {
	files, err := s.resolveFiles()
	if err != nil {
		return fmt.Errorf("parquetio: resolving source path %q: %w", s.path, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("parquetio: no files matched source path %q", s.path)
	}

	for _, file := range files {
		if err := s.runFile(ctx, file, out); err != nil {
			return fmt.Errorf("parquetio: reading %q: %w", file, err)
		}
	}
	return nil
}

func (s *Source) resolveFiles() ([]string, error) {
	if !doublestar.ValidatePattern(s.path) {
		return []string{s.path}, nil
	}
	matches, err := doublestar.FilepathGlob(s.path)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		// Not a glob in practice (no metacharacters matched anything);
		// treat as a literal single path so a non-existent plain path
		// still surfaces the expected "file not found" error below.
		return []string{s.path}, nil
	}
	sort.Strings(matches)
	return matches, nil
}

func (s *Source) runFile(ctx context.Context, path string, out chan<- *columnar.Batch) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := parquet.NewReader(f)
	defer reader.Close()

	schema, err := fromParquetSchema(reader.Schema())
	if err != nil {
		return err
	}

	buf := make([]parquet.Row, s.batchSize)
	for {
		n, err := reader.ReadRows(buf)
		if n > 0 {
			batch, convErr := rowsToBatch(schema, buf[:n])
			if convErr != nil {
				return fmt.Errorf("decoding batch: %w", convErr)
			}
			select {
			case out <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			if err.Error() == "EOF" {
				return nil
			}
			return fmt.Errorf("reading rows: %w", err)
		}
	}
}
