package ops

import (
	"math"
	"testing"

	"github.com/tjs392/otters/pkg/columnar"
)

func floatBatch(t *testing.T, name string, values ...float64) *columnar.Batch {
	t.Helper()
	schema := columnar.Schema{Fields: []columnar.Field{{Name: name, Type: columnar.Float64}}}
	batch, err := columnar.NewBatch(schema, []columnar.Column{{Name: name, Values: values}})
	if err != nil {
		t.Fatalf("building batch: %v", err)
	}
	return batch
}

func twoColumnBatch(t *testing.T, aName string, a []float64, bName string, b []float64) *columnar.Batch {
	t.Helper()
	schema := columnar.Schema{Fields: []columnar.Field{
		{Name: aName, Type: columnar.Float64},
		{Name: bName, Type: columnar.Float64},
	}}
	batch, err := columnar.NewBatch(schema, []columnar.Column{{Name: aName, Values: a}, {Name: bName, Values: b}})
	if err != nil {
		t.Fatalf("building batch: %v", err)
	}
	return batch
}

func assertColumn(t *testing.T, batch *columnar.Batch, name string, want []float64) {
	t.Helper()
	got, err := batch.Float64Column(name)
	if err != nil {
		t.Fatalf("column %q: %v", name, err)
	}
	if len(got) != len(want) {
		t.Fatalf("column %q: got %d values, want %d", name, len(got), len(want))
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("column %q[%d] = %v, want NaN", name, i, got[i])
			}
			continue
		}
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("column %q[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

// RollingMean(p,3) on [1,2,3,4,5].
func TestRollingMeanScenario(t *testing.T) {
	batch := floatBatch(t, "p", 1, 2, 3, 4, 5)
	op := NewRollingMean("p", 3)
	out, err := op.Process(batch)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertColumn(t, out, "p_rolling_mean_3", []float64{math.NaN(), math.NaN(), 2.0, 3.0, 4.0})
}

// RollingMean window state persists across batch boundaries.
func TestRollingMeanCrossBatch(t *testing.T) {
	op := NewRollingMean("p", 3)

	b1 := floatBatch(t, "p", 1, 2)
	out1, err := op.Process(b1)
	if err != nil {
		t.Fatalf("Process batch1: %v", err)
	}
	assertColumn(t, out1, "p_rolling_mean_3", []float64{math.NaN(), math.NaN()})

	b2 := floatBatch(t, "p", 3, 4, 5)
	out2, err := op.Process(b2)
	if err != nil {
		t.Fatalf("Process batch2: %v", err)
	}
	assertColumn(t, out2, "p_rolling_mean_3", []float64{2.0, 3.0, 4.0})
}

// Ema(p,3), alpha=0.5 on [10,20,30].
func TestEmaScenario(t *testing.T) {
	batch := floatBatch(t, "p", 10, 20, 30)
	op := NewEma("p", 3)
	out, err := op.Process(batch)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertColumn(t, out, "p_ema_3", []float64{10, 15, 22.5})
}

// ZScore(p,4) on [1,1,1,1,5].
func TestZScoreScenario(t *testing.T) {
	batch := floatBatch(t, "p", 1, 1, 1, 1, 5)
	op := NewZScore("p", 4)
	out, err := op.Process(batch)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertColumn(t, out, "p_zscore_4", []float64{math.NaN(), math.NaN(), math.NaN(), 0.0, 1.5})
}

// Vwap(price,vol,2) on price=[10,20,30], vol=[1,1,2].
func TestVwapScenario(t *testing.T) {
	batch := twoColumnBatch(t, "price", []float64{10, 20, 30}, "vol", []float64{1, 1, 2})
	op := NewVwap("price", "vol", 2)
	out, err := op.Process(batch)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertColumn(t, out, "vwap_2", []float64{math.NaN(), 15.0, 26.0 + 2.0/3.0})
}

func TestVwapZeroVolumeWindowEmitsNaN(t *testing.T) {
	batch := twoColumnBatch(t, "price", []float64{10, 20}, "vol", []float64{0, 0})
	op := NewVwap("price", "vol", 2)
	out, err := op.Process(batch)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertColumn(t, out, "vwap_2", []float64{math.NaN(), math.NaN()})
}

// Each single-column operator preserves row count and appends exactly one
// nullable double column after the input columns.
func TestOperatorsPreserveSchemaAndRowCount(t *testing.T) {
	values := []float64{1, 2, math.Inf(1), math.NaN(), -3.5, 0, 100}
	cases := []struct {
		name   string
		stage  columnar.ComputeStage
		column string
	}{
		{"rolling_mean", NewRollingMean("x", 3), "x_rolling_mean_3"},
		{"ema", NewEma("x", 5), "x_ema_5"},
		{"zscore", NewZScore("x", 3), "x_zscore_3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batch := floatBatch(t, "x", values...)
			out, err := tc.stage.Process(batch)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if out.NumRows() != batch.NumRows() {
				t.Fatalf("row count changed: got %d, want %d", out.NumRows(), batch.NumRows())
			}
			if out.NumColumns() != batch.NumColumns()+1 {
				t.Fatalf("column count: got %d, want %d", out.NumColumns(), batch.NumColumns()+1)
			}
			idx := out.Schema().IndexOf(tc.column)
			if idx != batch.NumColumns() {
				t.Fatalf("appended column %q not at expected position", tc.column)
			}
			if !out.Schema().Fields[idx].Nullable {
				t.Fatalf("appended column %q should be nullable", tc.column)
			}
		})
	}
}

func TestOperatorMissingColumnIsFatal(t *testing.T) {
	batch := floatBatch(t, "x", 1, 2, 3)
	_, err := NewRollingMean("y", 3).Process(batch)
	if err == nil {
		t.Fatal("expected error for missing column")
	}
}

func TestAppendColumnNameCollisionIsFatal(t *testing.T) {
	batch := floatBatch(t, "x", 1, 2, 3)
	op := NewRollingMean("x", 3)
	once, err := op.Process(batch)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	// Running the same stage again over its own output collides on the
	// column name it already appended.
	_, err = op.Process(once)
	if err == nil {
		t.Fatal("expected a name-collision error re-appending the same column")
	}
}
