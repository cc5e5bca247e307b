package ops

import "github.com/tjs392/otters/pkg/columnar"

// appendColumn is the shared append-column helper all four built-in
// operators use: given an input batch, a vector of doubles with length
// equal to the batch's row count, and a target column name, it produces a
// new batch whose schema equals the input schema plus one nullable double
// column, sharing the input batch's existing column buffers unchanged.
func appendColumn(batch *columnar.Batch, values []float64, name string) (*columnar.Batch, error) {
	return batch.AppendColumn(name, values)
}
