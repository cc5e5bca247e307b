// Package parquetio implements the parquet source and sink: columnar I/O
// that stays in columnar form end-to-end, backed by
// github.com/parquet-go/parquet-go.
package parquetio

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/tjs392/otters/pkg/columnar"
)

// toParquetSchema builds a parquet group schema with one nullable double
// leaf per field — every column this package carries is a 64-bit float.
func toParquetSchema(schema columnar.Schema) *parquet.Schema {
	group := make(parquet.Group, len(schema.Fields))
	for _, f := range schema.Fields {
		node := parquet.Leaf(parquet.DoubleType)
		if f.Nullable {
			node = parquet.Optional(node)
		}
		group[f.Name] = node
	}
	return parquet.NewSchema("batch", group)
}

// fromParquetSchema recovers a columnar.Schema from a parquet file's own
// footer, in the file's column order.
func fromParquetSchema(ps *parquet.Schema) (columnar.Schema, error) {
	fields := make([]columnar.Field, 0, len(ps.Fields()))
	for _, col := range ps.Fields() {
		if col.Type().Kind() != parquet.Double {
			return columnar.Schema{}, fmt.Errorf("parquetio: column %q has kind %v, only float64 columns are supported", col.Name(), col.Type().Kind())
		}
		fields = append(fields, columnar.Field{
			Name:     col.Name(),
			Type:     columnar.Float64,
			Nullable: col.Optional(),
		})
	}
	return columnar.Schema{Fields: fields}, nil
}
