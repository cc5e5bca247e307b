package parquetio

import (
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/tjs392/otters/pkg/columnar"
)

// batchToRows converts a Batch into parquet rows, column-major data made
// row-major only for the duration of the write — the Batch itself is never
// mutated or copied beyond this conversion.
func batchToRows(batch *columnar.Batch) []parquet.Row {
	numRows := batch.NumRows()
	numCols := batch.NumColumns()
	schema := batch.Schema()

	// The parquet group built by toParquetSchema orders its leaf columns by
	// field name, so each value goes to its field's position in name order.
	order := make([]int, numCols)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return schema.Fields[order[a]].Name < schema.Fields[order[b]].Name })

	rows := make([]parquet.Row, numRows)
	for r := 0; r < numRows; r++ {
		row := make(parquet.Row, numCols)
		for leaf, c := range order {
			definitionLevel := 0
			if schema.Fields[c].Nullable {
				definitionLevel = 1 // present; every value in this core is a literal double, NaN included
			}
			row[leaf] = parquet.ValueOf(batch.Column(c).Values[r]).Level(0, definitionLevel, leaf)
		}
		rows[r] = row
	}
	return rows
}

// rowsToBatch converts parquet rows read back off disk into a Batch using
// the given (file-derived) schema.
func rowsToBatch(schema columnar.Schema, rows []parquet.Row) (*columnar.Batch, error) {
	numCols := len(schema.Fields)
	columns := make([]columnar.Column, numCols)
	for c, f := range schema.Fields {
		columns[c] = columnar.Column{Name: f.Name, Values: make([]float64, len(rows))}
	}

	for r, row := range rows {
		for c := 0; c < numCols && c < len(row); c++ {
			columns[c].Values[r] = row[c].Double()
		}
	}

	return columnar.NewBatch(schema, columns)
}
