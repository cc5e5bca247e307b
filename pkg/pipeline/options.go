package pipeline

// config holds the tunables a Pipeline is built with.
type config struct {
	capacity  int
	batchSize int
}

func defaultConfig() config {
	return config{capacity: 1024, batchSize: 2500}
}

// Option configures a Pipeline at construction time.
type Option func(*config)

// WithCapacity sets the bounded channel capacity C between stages.
func WithCapacity(c int) Option {
	return func(cfg *config) {
		if c > 0 {
			cfg.capacity = c
		}
	}
}

// WithBatchSize sets the batch size B: the row count of the batches the
// batcher worker emits for a row source, and of the batches a parquet
// source reads.
func WithBatchSize(b int) Option {
	return func(cfg *config) {
		if b > 0 {
			cfg.batchSize = b
		}
	}
}
