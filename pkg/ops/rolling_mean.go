package ops

import (
	"fmt"

	"github.com/tjs392/otters/pkg/columnar"
)

// RollingMean maintains a FIFO of the last Window seen values and their
// running sum. Output column: "{Column}_rolling_mean_{W}". Window state
// persists across batches: an instance that has seen W-1 values across two
// batches starts emitting a real mean on the W-th value, regardless of
// batch boundaries.
type RollingMean struct {
	column string
	window int
	sum    float64
	hist   *ring[float64]
}

// NewRollingMean builds a RollingMean operator over column with the given
// window size. window must be >= 1.
func NewRollingMean(column string, window int) *RollingMean {
	return &RollingMean{
		column: column,
		window: window,
		hist:   newRing[float64](window),
	}
}

func (r *RollingMean) Name() string {
	return fmt.Sprintf("rolling_mean(%s, %d)", r.column, r.window)
}

func (r *RollingMean) Process(batch *columnar.Batch) (*columnar.Batch, error) {
	values, err := batch.Float64Column(r.column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Name(), err)
	}

	out := make([]float64, len(values))
	for i, v := range values {
		r.sum += v
		if evicted, ok := r.hist.pushEvict(v); ok {
			r.sum -= evicted
		}
		if r.hist.full() {
			out[i] = r.sum / float64(r.window)
		} else {
			out[i] = nan
		}
	}

	return appendColumn(batch, out, fmt.Sprintf("%s_rolling_mean_%d", r.column, r.window))
}
