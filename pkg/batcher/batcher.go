// Package batcher converts a stream of host row values into columnar
// record batches of a configured size.
package batcher

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/tjs392/otters/pkg/columnar"
)

// Batcher buffers host-produced rows and emits columnar.Batch values of a
// configured row count. It never holds more than one row buffer and one
// in-flight output batch at a time.
type Batcher struct {
	batchSize int

	schema     columnar.Schema
	columns    []string // schema column names, in schema order
	haveSchema bool
}

// New returns a Batcher that emits batches of batchSize rows (the final
// batch of a run may be shorter, on input close).
func New(batchSize int) *Batcher {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Batcher{batchSize: batchSize}
}

// Run drains rows from in, buffering until batchSize rows accumulate, then
// sends one Batch on out per full buffer. On close of in, any remaining
// buffered rows are flushed as a final short batch. Run returns when in is
// closed and the last batch (if any) has been sent, or when ctx is
// cancelled.
func (b *Batcher) Run(ctx context.Context, in <-chan columnar.Row, out chan<- *columnar.Batch) error {
	buffer := make([]columnar.Row, 0, b.batchSize)

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		batch, err := b.toBatch(buffer)
		if err != nil {
			return err
		}
		select {
		case out <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		buffer = buffer[:0]
		return nil
	}

	for {
		select {
		case row, ok := <-in:
			if !ok {
				return flush()
			}
			buffer = append(buffer, row)
			if len(buffer) >= b.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// toBatch converts one buffer of rows into a columnar.Batch, inferring the
// canonical schema from the first buffer it ever sees: the first batch's
// schema becomes the canonical schema for the remainder of the run.
func (b *Batcher) toBatch(rows []columnar.Row) (*columnar.Batch, error) {
	if !b.haveSchema {
		b.columns = unionKeys(rows)
		fields := make([]columnar.Field, len(b.columns))
		for i, name := range b.columns {
			fields[i] = columnar.Field{Name: name, Type: columnar.Float64, Nullable: true}
		}
		b.schema = columnar.Schema{Fields: fields}
		b.haveSchema = true
	}

	cols := make([][]float64, len(b.columns))
	for i := range cols {
		cols[i] = make([]float64, len(rows))
	}

	for r, row := range rows {
		for c, name := range b.columns {
			val, present := row[name]
			if !present {
				cols[c][r] = nanValue
				continue
			}
			f, ok := toFloat64(val)
			if !ok {
				return nil, coerceErr(name, val)
			}
			cols[c][r] = f
		}
	}

	columns := make([]columnar.Column, len(b.columns))
	for i, name := range b.columns {
		columns[i] = columnar.Column{Name: name, Values: cols[i]}
	}

	batch, err := columnar.NewBatch(b.schema, columns)
	if err != nil {
		return nil, fmt.Errorf("batcher: building batch: %w", err)
	}
	return batch, nil
}

// unionKeys computes the union of row keys across rows, deduped and then
// sorted for determinism, built with samber/lo rather than a hand-rolled
// dedup loop.
func unionKeys(rows []columnar.Row) []string {
	allKeys := lo.FlatMap(rows, func(row columnar.Row, _ int) []string {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		return keys
	})
	unique := lo.Uniq(allKeys)
	sort.Strings(unique)
	return unique
}
