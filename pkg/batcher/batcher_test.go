package batcher

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/tjs392/otters/pkg/columnar"
)

func TestBatcherFlushesOnFullBuffer(t *testing.T) {
	in := make(chan columnar.Row, 10)
	out := make(chan *columnar.Batch, 10)

	for i := 0; i < 5; i++ {
		in <- columnar.Row{"x": float64(i)}
	}
	close(in)

	b := New(2)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Run(ctx, in, out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(out)

	var sizes []int
	for batch := range out {
		sizes = append(sizes, batch.NumRows())
	}
	// 5 rows at batch size 2: two full batches of 2, one short final batch of 1.
	if got, want := sizes, []int{2, 2, 1}; !equal(got, want) {
		t.Fatalf("batch sizes = %v, want %v", got, want)
	}
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBatcherSchemaFromFirstBatchAppliesToRest(t *testing.T) {
	in := make(chan columnar.Row, 10)
	out := make(chan *columnar.Batch, 10)

	in <- columnar.Row{"x": 1.0, "y": 2.0}
	in <- columnar.Row{"x": 3.0, "y": 4.0}
	// Missing "y", extra "z" — should not affect the canonical schema.
	in <- columnar.Row{"x": 5.0, "z": 99.0}
	close(in)

	b := New(2)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Run(ctx, in, out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(out)

	var batches []*columnar.Batch
	for batch := range out {
		batches = append(batches, batch)
	}
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}

	first := batches[0]
	if first.Schema().IndexOf("z") >= 0 {
		t.Fatalf("canonical schema should not include a column only seen later")
	}

	second := batches[1]
	if !second.Schema().Equal(first.Schema()) {
		t.Fatalf("second batch schema diverged from the canonical first-batch schema")
	}
	yVals, err := second.Float64Column("y")
	if err != nil {
		t.Fatalf("Float64Column(y): %v", err)
	}
	if !math.IsNaN(yVals[0]) {
		t.Fatalf("row missing y should yield NaN, got %v", yVals[0])
	}
}

func TestBatcherNonCoercibleValueIsFatal(t *testing.T) {
	in := make(chan columnar.Row, 1)
	out := make(chan *columnar.Batch, 1)
	in <- columnar.Row{"x": "not-a-number"}
	close(in)

	b := New(1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Run(ctx, in, out); err == nil {
		t.Fatal("expected an error for a non-numeric row value")
	}
}
