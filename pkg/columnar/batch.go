package columnar

import "fmt"

// ColumnType enumerates the column types a Batch can carry. Only Float64 is
// implemented today, but the type tag is kept so operators can reject a
// wrong-typed column explicitly rather than silently misreading it.
type ColumnType int

const (
	Float64 ColumnType = iota
)

func (t ColumnType) String() string {
	switch t {
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// Field is one (name, type, nullable) entry in a Schema.
type Field struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Schema is an ordered list of fields. Column names within a schema are
// unique; schema equality is structural.
type Schema struct {
	Fields []Field
}

// IndexOf returns the positional index of name, or -1 if absent.
func (s Schema) IndexOf(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether name is present in the schema.
func (s Schema) Has(name string) bool {
	return s.IndexOf(name) >= 0
}

// Equal reports structural equality between two schemas.
func (s Schema) Equal(other Schema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range s.Fields {
		o := other.Fields[i]
		if f.Name != o.Name || f.Type != o.Type || f.Nullable != o.Nullable {
			return false
		}
	}
	return true
}

// clone returns a copy of the field list, so appending to it never aliases
// another schema's backing array.
func (s Schema) clone() []Field {
	out := make([]Field, len(s.Fields))
	copy(out, s.Fields)
	return out
}

// Column is one contiguous typed buffer within a Batch.
type Column struct {
	Name   string
	Values []float64
}

// Batch is an immutable columnar slab: an ordered list of named, typed
// columns of identical length. Stages append columns by building a new
// Batch that shares the underlying column buffers of the input plus the
// new column(s) — never mutating columns in place.
type Batch struct {
	schema  Schema
	columns []Column
}

// NewBatch builds a Batch from a schema and matching columns. All columns
// must share the same row count and line up positionally with schema.Fields.
func NewBatch(schema Schema, columns []Column) (*Batch, error) {
	if len(schema.Fields) != len(columns) {
		return nil, fmt.Errorf("columnar: schema has %d fields but %d columns given", len(schema.Fields), len(columns))
	}
	seen := make(map[string]struct{}, len(schema.Fields))
	for i, f := range schema.Fields {
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, f.Name)
		}
		seen[f.Name] = struct{}{}
		if columns[i].Name != f.Name {
			return nil, fmt.Errorf("columnar: column %d named %q does not match schema field %q", i, columns[i].Name, f.Name)
		}
	}
	if len(columns) > 0 {
		n := len(columns[0].Values)
		for _, c := range columns[1:] {
			if len(c.Values) != n {
				return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrRowCountMismatch, c.Name, len(c.Values), n)
			}
		}
	}
	return &Batch{schema: schema, columns: columns}, nil
}

// Schema returns the batch's schema.
func (b *Batch) Schema() Schema { return b.schema }

// NumRows returns the batch's row count (0 for a zero-column batch).
func (b *Batch) NumRows() int {
	if len(b.columns) == 0 {
		return 0
	}
	return len(b.columns[0].Values)
}

// NumColumns returns the number of columns in the batch.
func (b *Batch) NumColumns() int { return len(b.columns) }

// Column returns the column at the given position.
func (b *Batch) Column(i int) Column { return b.columns[i] }

// ColumnByName returns the named column, and whether it was found.
func (b *Batch) ColumnByName(name string) (Column, bool) {
	idx := b.schema.IndexOf(name)
	if idx < 0 {
		return Column{}, false
	}
	return b.columns[idx], true
}

// Float64Column returns the raw values of a named float64 column. It is the
// contract every built-in operator uses to reach its input column: a
// missing column or wrong type is a fatal misuse, reported as an error
// rather than panicking.
func (b *Batch) Float64Column(name string) ([]float64, error) {
	idx := b.schema.IndexOf(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	if b.schema.Fields[idx].Type != Float64 {
		return nil, fmt.Errorf("%w: column %q is %s, want float64", ErrColumnTypeMismatch, name, b.schema.Fields[idx].Type)
	}
	return b.columns[idx].Values, nil
}

// AppendColumn returns a new Batch whose schema equals the input schema plus
// one nullable column named name, and whose columns equal the input columns
// plus values. The input Batch's column slices are shared by reference, not
// copied.
func (b *Batch) AppendColumn(name string, values []float64) (*Batch, error) {
	if b.schema.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	if n := b.NumRows(); n != 0 && len(values) != n {
		return nil, fmt.Errorf("%w: appended column %q has %d rows, batch has %d", ErrRowCountMismatch, name, len(values), n)
	}

	fields := append(b.schema.clone(), Field{Name: name, Type: Float64, Nullable: true})
	cols := make([]Column, len(b.columns), len(b.columns)+1)
	copy(cols, b.columns)
	cols = append(cols, Column{Name: name, Values: values})

	return &Batch{schema: Schema{Fields: fields}, columns: cols}, nil
}
