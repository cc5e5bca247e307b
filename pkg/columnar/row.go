package columnar

// Row is a single host row: a mapping from column name to a value coercible
// to float64. It is the unit the RowSource/RowSink/HostTransform bridge
// shims exchange with the host runtime.
type Row map[string]any

// RowIterator pulls the next row from a host iterator. It returns
// ErrEndOfStream (wrapped) when exhausted.
type RowIterator func() (Row, error)

// RowSourceFactory is the host-supplied, zero-argument callable that
// produces a fresh RowIterator handle. It is invoked exactly once per
// pipeline run, from the row-source worker.
type RowSourceFactory func() (RowIterator, error)

// RowSinkFunc is the host-supplied per-row callback for a row sink. Errors
// are non-fatal: the offending row is dropped and processing continues.
type RowSinkFunc func(Row) error

// HostTransformFunc is the host-supplied per-row transform. Returning
// ok=false drops the row. A non-nil error is treated the same as the host
// callback errors in a row sink: non-fatal, the row is dropped and
// processing continues.
type HostTransformFunc func(Row) (Row, bool, error)
