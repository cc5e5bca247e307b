package columnar

import "errors"

// Sentinel errors. Configuration and operator-precondition errors are fatal
// at the point they're raised; channel-closed conditions are expected
// termination, not surfaced as errors at all.
var (
	// ErrEndOfStream signals a RowIterator has no more rows.
	ErrEndOfStream = errors.New("columnar: end of stream")

	ErrColumnNotFound     = errors.New("columnar: column not found")
	ErrColumnTypeMismatch = errors.New("columnar: column type mismatch")
	ErrDuplicateColumn    = errors.New("columnar: duplicate column name")
	ErrRowCountMismatch   = errors.New("columnar: row count mismatch")
	ErrSchemaMismatch     = errors.New("columnar: schema mismatch")

	ErrNoSource       = errors.New("columnar: no source stage registered")
	ErrNoSink         = errors.New("columnar: no sink stage registered")
	ErrMisplacedStage = errors.New("columnar: source must be first stage and sink must be last")
	ErrAlreadyRunning = errors.New("columnar: already running")
)
