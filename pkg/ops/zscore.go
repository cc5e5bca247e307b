package ops

import (
	"fmt"
	"math"

	"github.com/tjs392/otters/pkg/columnar"
)

// ZScore maintains a FIFO of the last Lookback values. Once the window is
// full it emits the sample z-score (v-mean)/stddev, using Bessel's
// correction (divisor L-1, not L); if stddev is exactly zero it emits 0
// rather than dividing by zero.
//
// Mean and variance are tracked with a running sum and running
// sum-of-squares rather than recomputed in O(L) per row, giving O(1)
// updates per row at a ≤1e-9 relative tolerance on well-conditioned inputs.
type ZScore struct {
	column   string
	lookback int
	sum      float64
	sumSq    float64
	hist     *ring[float64]
}

// NewZScore builds a ZScore operator over column with the given lookback.
// lookback must be >= 2 (Bessel's correction divides by lookback-1).
func NewZScore(column string, lookback int) *ZScore {
	return &ZScore{
		column:   column,
		lookback: lookback,
		hist:     newRing[float64](lookback),
	}
}

func (z *ZScore) Name() string {
	return fmt.Sprintf("zscore(%s, %d)", z.column, z.lookback)
}

func (z *ZScore) Process(batch *columnar.Batch) (*columnar.Batch, error) {
	values, err := batch.Float64Column(z.column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", z.Name(), err)
	}

	out := make([]float64, len(values))
	for i, v := range values {
		z.sum += v
		z.sumSq += v * v
		if evicted, ok := z.hist.pushEvict(v); ok {
			z.sum -= evicted
			z.sumSq -= evicted * evicted
		}

		if !z.hist.full() {
			out[i] = nan
			continue
		}

		l := float64(z.lookback)
		mean := z.sum / l
		variance := (z.sumSq - z.sum*z.sum/l) / (l - 1)
		if variance < 0 {
			// Floating point cancellation can push a true-zero variance
			// slightly negative; clamp rather than take sqrt of a
			// negative number.
			variance = 0
		}
		stddev := math.Sqrt(variance)

		if stddev == 0 {
			out[i] = 0
		} else {
			out[i] = (v - mean) / stddev
		}
	}

	return appendColumn(batch, out, fmt.Sprintf("%s_zscore_%d", z.column, z.lookback))
}
