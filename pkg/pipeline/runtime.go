// Package pipeline assembles registered stages into a running graph of
// bounded channels and worker goroutines: one source, zero or more
// transforms, one sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tjs392/otters/pkg/batcher"
	"github.com/tjs392/otters/pkg/columnar"
	"github.com/tjs392/otters/pkg/ops"
	"github.com/tjs392/otters/pkg/parquetio"
)

// Re-export the shared contract types so callers only need to import
// pipeline, not pipeline and columnar both.
type (
	Row               = columnar.Row
	RowIterator       = columnar.RowIterator
	RowSourceFactory  = columnar.RowSourceFactory
	RowSinkFunc       = columnar.RowSinkFunc
	HostTransformFunc = columnar.HostTransformFunc
	ComputeStage      = columnar.ComputeStage
)

var (
	ErrEndOfStream    = columnar.ErrEndOfStream
	ErrNoSource       = columnar.ErrNoSource
	ErrNoSink         = columnar.ErrNoSink
	ErrMisplacedStage = columnar.ErrMisplacedStage
	ErrSchemaMismatch = columnar.ErrSchemaMismatch
)

// Pipeline holds a registered stage list and assembles it into a running
// worker graph on Run. It moves through Empty -> Configuring -> Running ->
// Empty: after a Run call returns, the stage list is drained and the
// Pipeline is ready to be reconfigured and run again.
type Pipeline struct {
	cfg    config
	stages []stage
	host   *HostRuntime
}

// New returns a Pipeline ready for stage registration.
func New(opts ...Option) *Pipeline {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Pipeline{cfg: cfg, host: NewHostRuntime()}
}

// Source registers the pipeline's single source. handle is a string path
// ending in ".parquet" for a parquet source, or a RowSourceFactory for an
// opaque host-iterator source.
func (p *Pipeline) Source(handle any) error {
	switch v := handle.(type) {
	case string:
		if !strings.HasSuffix(v, ".parquet") {
			return fmt.Errorf("pipeline: string source handle %q must name a .parquet file", v)
		}
		p.stages = append(p.stages, stage{kind: stageParquetSource, parquetPath: v})
		return nil
	case RowSourceFactory:
		p.stages = append(p.stages, stage{kind: stageRowSource, rowSourceFactory: v})
		return nil
	default:
		return fmt.Errorf("pipeline: unsupported source handle type %T", handle)
	}
}

// Sink registers the pipeline's single sink. handle is a string path
// ending in ".parquet" for a parquet sink, or a RowSinkFunc for an opaque
// host per-row callback.
func (p *Pipeline) Sink(handle any) error {
	switch v := handle.(type) {
	case string:
		if !strings.HasSuffix(v, ".parquet") {
			return fmt.Errorf("pipeline: string sink handle %q must name a .parquet file", v)
		}
		p.stages = append(p.stages, stage{kind: stageParquetSink, parquetPath: v})
		return nil
	case RowSinkFunc:
		p.stages = append(p.stages, stage{kind: stageRowSink, rowSink: v})
		return nil
	default:
		return fmt.Errorf("pipeline: unsupported sink handle type %T", handle)
	}
}

// RollingMean registers a rolling-mean transform over column with the
// given window.
func (p *Pipeline) RollingMean(column string, window int) {
	p.stages = append(p.stages, stage{kind: stageTransform, compute: ops.NewRollingMean(column, window)})
}

// Ema registers an exponential-moving-average transform over column with
// the given span.
func (p *Pipeline) Ema(column string, span int) {
	p.stages = append(p.stages, stage{kind: stageTransform, compute: ops.NewEma(column, span)})
}

// ZScore registers a z-score transform over column with the given
// lookback.
func (p *Pipeline) ZScore(column string, lookback int) {
	p.stages = append(p.stages, stage{kind: stageTransform, compute: ops.NewZScore(column, lookback)})
}

// Vwap registers a volume-weighted-average-price transform over priceCol
// and volumeCol with the given window.
func (p *Pipeline) Vwap(priceCol, volumeCol string, window int) {
	p.stages = append(p.stages, stage{kind: stageTransform, compute: ops.NewVwap(priceCol, volumeCol, window)})
}

// HostTransform registers a per-row host callback transform. Returning
// ok=false for a row drops it.
func (p *Pipeline) HostTransform(fn HostTransformFunc) {
	p.stages = append(p.stages, stage{kind: stageHostTransform, hostTransform: fn})
}

// Run wires the registered stages into channels and worker goroutines and
// blocks until the source has terminated and the termination signal has
// propagated to the sink, or a fatal error occurs in any worker. It always
// drains the stage list on entry, so the Pipeline can be reused for a
// fresh run regardless of whether this run succeeds.
func (p *Pipeline) Run(ctx context.Context) error {
	stages := p.stages
	p.stages = nil

	if err := validateStages(stages); err != nil {
		return err
	}

	rlog := newRunLogger()
	rlog.Printf("RUN_START", "stages=%d capacity=%d batch_size=%d", len(stages), p.cfg.capacity, p.cfg.batchSize)

	transforms := stages[1 : len(stages)-1]
	batchChannels := make([]chan *columnar.Batch, len(transforms)+1)
	for i := range batchChannels {
		batchChannels[i] = make(chan *columnar.Batch, p.cfg.capacity)
	}

	g, gctx := errgroup.WithContext(ctx)

	p.spawnSource(g, gctx, stages[0], batchChannels[0], rlog)
	for i, t := range transforms {
		p.spawnTransform(g, gctx, t, batchChannels[i], batchChannels[i+1], rlog)
	}
	p.spawnSink(g, gctx, stages[len(stages)-1], batchChannels[len(batchChannels)-1], rlog)

	err := g.Wait()
	rlog.Printf("RUN_DONE", "err=%v", err)
	return err
}

// validateStages enforces exactly one source at position 0, exactly one
// sink at the last position, and zero or more transforms in between.
func validateStages(stages []stage) error {
	if len(stages) == 0 {
		return fmt.Errorf("pipeline: %w", ErrNoSource)
	}
	if !stages[0].isSource() {
		return fmt.Errorf("pipeline: %w", ErrMisplacedStage)
	}
	last := stages[len(stages)-1]
	if !last.isSink() {
		return fmt.Errorf("pipeline: %w", ErrNoSink)
	}
	for _, s := range stages[1 : len(stages)-1] {
		if !s.isTransform() {
			return fmt.Errorf("pipeline: %w: stage %q found between source and sink", ErrMisplacedStage, s.name())
		}
	}
	return nil
}

func (p *Pipeline) spawnSource(g *errgroup.Group, ctx context.Context, s stage, out chan<- *columnar.Batch, rlog *runLogger) {
	switch s.kind {
	case stageRowSource:
		rowCh := make(chan columnar.Row, p.cfg.capacity)
		g.Go(func() error {
			return p.runRowSource(ctx, s.rowSourceFactory, rowCh, rlog)
		})
		b := batcher.New(p.cfg.batchSize)
		g.Go(func() error {
			defer close(out)
			if err := b.Run(ctx, rowCh, out); err != nil {
				return fmt.Errorf("pipeline: batcher: %w", err)
			}
			return nil
		})
	case stageParquetSource:
		g.Go(func() error {
			defer close(out)
			src := parquetio.NewSource(s.parquetPath, p.cfg.batchSize)
			if err := src.Run(ctx, out); err != nil {
				return err
			}
			rlog.Printf("SOURCE_DONE", "path=%s", s.parquetPath)
			return nil
		})
	}
}

func (p *Pipeline) runRowSource(ctx context.Context, factory RowSourceFactory, out chan<- columnar.Row, rlog *runLogger) error {
	defer close(out)

	var iter RowIterator
	if err := p.host.Call(func() error {
		var e error
		iter, e = factory()
		return e
	}); err != nil {
		return fmt.Errorf("pipeline: row source factory: %w", err)
	}

	for {
		var row columnar.Row
		err := p.host.Call(func() error {
			var e error
			row, e = iter()
			return e
		})
		if err != nil {
			if errors.Is(err, ErrEndOfStream) {
				rlog.Printf("SOURCE_DONE", "row source exhausted")
				return nil
			}
			return fmt.Errorf("pipeline: row source: %w", err)
		}
		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pipeline) spawnTransform(g *errgroup.Group, ctx context.Context, s stage, in <-chan *columnar.Batch, out chan<- *columnar.Batch, rlog *runLogger) {
	switch s.kind {
	case stageTransform:
		g.Go(func() error {
			defer close(out)
			return p.runComputeTransform(ctx, s.compute, in, out)
		})
	case stageHostTransform:
		g.Go(func() error {
			defer close(out)
			return p.runHostTransform(ctx, s.hostTransform, in, out, rlog)
		})
	}
}

func (p *Pipeline) runComputeTransform(ctx context.Context, op ComputeStage, in <-chan *columnar.Batch, out chan<- *columnar.Batch) error {
	for {
		select {
		case batch, ok := <-in:
			if !ok {
				return nil
			}
			result, err := op.Process(batch)
			if err != nil {
				return fmt.Errorf("pipeline: transform %s: %w", op.Name(), err)
			}
			select {
			case out <- result:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pipeline) runHostTransform(ctx context.Context, fn HostTransformFunc, in <-chan *columnar.Batch, out chan<- *columnar.Batch, rlog *runLogger) error {
	for {
		select {
		case batch, ok := <-in:
			if !ok {
				return nil
			}
			surviving := make([]columnar.Row, 0, batch.NumRows())
			for _, row := range batchToRows(batch) {
				row := row
				var transformed columnar.Row
				var keep bool
				err := p.host.Call(func() error {
					var e error
					transformed, keep, e = fn(row)
					return e
				})
				if err != nil {
					rlog.Printf("HOST_TRANSFORM_DROP", "row dropped: %v", err)
					continue
				}
				if !keep {
					continue
				}
				surviving = append(surviving, transformed)
			}
			if len(surviving) == 0 {
				continue
			}
			result, err := rowsToBatch(surviving)
			if err != nil {
				return fmt.Errorf("pipeline: host transform: reassembling batch: %w", err)
			}
			select {
			case out <- result:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pipeline) spawnSink(g *errgroup.Group, ctx context.Context, s stage, in <-chan *columnar.Batch, rlog *runLogger) {
	switch s.kind {
	case stageRowSink:
		g.Go(func() error {
			return p.runRowSink(ctx, s.rowSink, in, rlog)
		})
	case stageParquetSink:
		g.Go(func() error {
			sink := parquetio.NewSink(s.parquetPath)
			if err := sink.Run(ctx, in); err != nil {
				return err
			}
			rlog.Printf("SINK_DONE", "path=%s", s.parquetPath)
			return nil
		})
	}
}

func (p *Pipeline) runRowSink(ctx context.Context, fn RowSinkFunc, in <-chan *columnar.Batch, rlog *runLogger) error {
	for {
		select {
		case batch, ok := <-in:
			if !ok {
				rlog.Printf("SINK_DONE", "row sink exhausted")
				return nil
			}
			for _, row := range batchToRows(batch) {
				row := row
				err := p.host.Call(func() error {
					return fn(row)
				})
				if err != nil {
					rlog.Printf("SINK_ROW_DROP", "row sink callback failed: %v", err)
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
