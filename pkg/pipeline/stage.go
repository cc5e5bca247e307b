package pipeline

import "github.com/tjs392/otters/pkg/columnar"

type stageKind int

const (
	stageRowSource stageKind = iota
	stageParquetSource
	stageTransform
	stageHostTransform
	stageRowSink
	stageParquetSink
)

// stage is a tagged descriptor for one registered pipeline step. A Pipeline
// holds stages in registration order; only one field of the payload is
// populated, matching the kind.
type stage struct {
	kind stageKind

	rowSourceFactory columnar.RowSourceFactory
	parquetPath      string
	compute          columnar.ComputeStage
	hostTransform    columnar.HostTransformFunc
	rowSink          columnar.RowSinkFunc
}

func (s stage) isSource() bool {
	return s.kind == stageRowSource || s.kind == stageParquetSource
}

func (s stage) isSink() bool {
	return s.kind == stageRowSink || s.kind == stageParquetSink
}

func (s stage) isTransform() bool {
	return s.kind == stageTransform || s.kind == stageHostTransform
}

func (s stage) name() string {
	switch s.kind {
	case stageRowSource:
		return "row_source"
	case stageParquetSource:
		return "parquet_source(" + s.parquetPath + ")"
	case stageTransform:
		return s.compute.Name()
	case stageHostTransform:
		return "host_transform"
	case stageRowSink:
		return "row_sink"
	case stageParquetSink:
		return "parquet_sink(" + s.parquetPath + ")"
	default:
		return "unknown_stage"
	}
}
