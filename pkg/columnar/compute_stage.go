package columnar

// ComputeStage is the uniform abstraction every streaming operator
// satisfies: given one record batch, produce one record batch, typically
// with appended columns. Process is stateful across calls within a single
// worker goroutine and is not required to be safe for concurrent use,
// because each ComputeStage instance is confined to exactly one worker for
// its lifetime.
//
// Process must preserve the input row order and row count, preserve all
// input columns by name and position, and may append zero or more new
// columns whose names don't collide with existing ones. A non-nil error is
// a fatal misuse signal (missing input column, wrong column type) that
// unwinds the pipeline — it is never used for per-row validation failures,
// since operators must tolerate any finite or non-finite value without
// aborting.
type ComputeStage interface {
	// Name identifies the stage in error messages.
	Name() string

	// Process consumes one batch and returns the transformed batch.
	Process(batch *Batch) (*Batch, error)
}
