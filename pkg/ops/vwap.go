package ops

import (
	"fmt"

	"github.com/tjs392/otters/pkg/columnar"
)

// Vwap maintains a FIFO of (price*volume, volume) pairs of length <= Window.
// Once full it emits the volume-weighted average price over the window, or
// NaN if the summed volume is zero.
type Vwap struct {
	priceCol  string
	volumeCol string
	window    int
	pvSum     float64
	vSum      float64
	hist      *ring[pvPair]
}

type pvPair struct {
	pv float64
	v  float64
}

// NewVwap builds a Vwap operator over priceCol/volumeCol with the given
// window size.
func NewVwap(priceCol, volumeCol string, window int) *Vwap {
	return &Vwap{
		priceCol:  priceCol,
		volumeCol: volumeCol,
		window:    window,
		hist:      newRing[pvPair](window),
	}
}

func (v *Vwap) Name() string {
	return fmt.Sprintf("vwap(%s, %s, %d)", v.priceCol, v.volumeCol, v.window)
}

func (v *Vwap) Process(batch *columnar.Batch) (*columnar.Batch, error) {
	prices, err := batch.Float64Column(v.priceCol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v.Name(), err)
	}
	volumes, err := batch.Float64Column(v.volumeCol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v.Name(), err)
	}
	if len(prices) != len(volumes) {
		return nil, fmt.Errorf("%s: %w: price column has %d rows, volume column has %d",
			v.Name(), columnar.ErrRowCountMismatch, len(prices), len(volumes))
	}

	out := make([]float64, len(prices))
	for i := range prices {
		pair := pvPair{pv: prices[i] * volumes[i], v: volumes[i]}
		v.pvSum += pair.pv
		v.vSum += pair.v
		if evicted, ok := v.hist.pushEvict(pair); ok {
			v.pvSum -= evicted.pv
			v.vSum -= evicted.v
		}

		switch {
		case !v.hist.full():
			out[i] = nan
		case v.vSum == 0:
			out[i] = nan
		default:
			out[i] = v.pvSum / v.vSum
		}
	}

	return appendColumn(batch, out, fmt.Sprintf("vwap_%d", v.window))
}
