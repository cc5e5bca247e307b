package pipeline

import (
	"sort"

	"github.com/samber/lo"

	"github.com/tjs392/otters/pkg/columnar"
)

// batchToRows flattens a Batch into row values, one columnar.Row per input
// row, used by the row sink worker and the host-transform worker to hand
// data to host callables.
func batchToRows(batch *columnar.Batch) []columnar.Row {
	numRows := batch.NumRows()
	numCols := batch.NumColumns()
	schema := batch.Schema()

	rows := make([]columnar.Row, numRows)
	for r := 0; r < numRows; r++ {
		row := make(columnar.Row, numCols)
		for c := 0; c < numCols; c++ {
			row[schema.Fields[c].Name] = batch.Column(c).Values[r]
		}
		rows[r] = row
	}
	return rows
}

// rowsToBatch reassembles host-transform output rows into a Batch. The
// schema is inferred fresh from the union of the surviving rows' keys,
// just as the batcher infers a batch's schema from host rows; a row
// missing a key present in another row gets NaN in that column.
func rowsToBatch(rows []columnar.Row) (*columnar.Batch, error) {
	names := unionKeys(rows)
	fields := make([]columnar.Field, len(names))
	for i, name := range names {
		fields[i] = columnar.Field{Name: name, Type: columnar.Float64, Nullable: true}
	}
	schema := columnar.Schema{Fields: fields}

	columns := make([]columnar.Column, len(names))
	for i, name := range names {
		values := make([]float64, len(rows))
		for r, row := range rows {
			v, ok := row[name]
			if !ok {
				values[r] = nanValue
				continue
			}
			f, ok := toFloat64(v)
			if !ok {
				values[r] = nanValue
				continue
			}
			values[r] = f
		}
		columns[i] = columnar.Column{Name: name, Values: values}
	}

	return columnar.NewBatch(schema, columns)
}

func unionKeys(rows []columnar.Row) []string {
	allKeys := lo.FlatMap(rows, func(row columnar.Row, _ int) []string {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		return keys
	})
	unique := lo.Uniq(allKeys)
	sort.Strings(unique)
	return unique
}

func toFloat64(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
