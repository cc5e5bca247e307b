package ops

import (
	"fmt"

	"github.com/tjs392/otters/pkg/columnar"
)

// Ema is an exponentially weighted moving average with smoothing factor
// alpha = 2 / (Span + 1). The first observed value seeds the EMA (emitted
// as-is) rather than emitting NaN — a deliberate first-value-seeding
// design, not an oversight.
type Ema struct {
	column  string
	span    int
	alpha   float64
	current float64
	seeded  bool
}

// NewEma builds an Ema operator over column with the given span.
func NewEma(column string, span int) *Ema {
	return &Ema{
		column: column,
		span:   span,
		alpha:  2.0 / (float64(span) + 1.0),
	}
}

func (e *Ema) Name() string {
	return fmt.Sprintf("ema(%s, %d)", e.column, e.span)
}

func (e *Ema) Process(batch *columnar.Batch) (*columnar.Batch, error) {
	values, err := batch.Float64Column(e.column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}

	out := make([]float64, len(values))
	for i, v := range values {
		if !e.seeded {
			e.current = v
			e.seeded = true
		} else {
			e.current = e.alpha*v + (1-e.alpha)*e.current
		}
		out[i] = e.current
	}

	return appendColumn(batch, out, fmt.Sprintf("%s_ema_%d", e.column, e.span))
}
