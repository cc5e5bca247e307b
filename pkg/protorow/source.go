// Package protorow supplies a columnar.RowSourceFactory that decodes a
// stream of length-delimited dynamic protobuf messages into rows.
package protorow

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/tjs392/otters/pkg/columnar"
)

// Source reads length-delimited protobuf messages off r, decoding each with
// desc, and exposes them as a columnar.RowSourceFactory. Every scalar numeric
// field becomes a row entry coercible to float64 by the batcher; message,
// string, bytes, and enum fields are dropped, since a row in this system is
// a flat mapping to doubles.
type Source struct {
	r    io.Reader
	desc protoreflect.MessageDescriptor
}

// NewSource builds a protorow Source reading messages of the given
// descriptor from r.
func NewSource(r io.Reader, desc protoreflect.MessageDescriptor) *Source {
	return &Source{r: r, desc: desc}
}

// Factory returns a columnar.RowSourceFactory producing one RowIterator
// bound to this source's reader. It may only be invoked once, matching the
// single-pass contract of the pipeline's row-source worker.
func (s *Source) Factory() columnar.RowSourceFactory {
	return func() (columnar.RowIterator, error) {
		return s.next, nil
	}
}

func (s *Source) next() (columnar.Row, error) {
	length, err := readVarint(s.r)
	if err != nil {
		if err == io.EOF {
			return nil, columnar.ErrEndOfStream
		}
		return nil, fmt.Errorf("protorow: reading message length: %w", err)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(s.r, data); err != nil {
		return nil, fmt.Errorf("protorow: reading message body: %w", err)
	}

	msg := dynamicpb.NewMessage(s.desc)
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("protorow: unmarshalling message: %w", err)
	}

	return toRow(msg), nil
}

// toRow flattens a decoded message's scalar numeric and boolean fields into
// a row keyed by field name. Repeated, map, message, string, bytes, and enum
// fields are skipped. A field not set in the encoded message contributes its
// default value (0 or false).
func toRow(msg protoreflect.Message) columnar.Row {
	row := make(columnar.Row)
	fields := msg.Descriptor().Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if fd.IsList() || fd.IsMap() {
			continue
		}
		if f, ok := scalarValue(fd, msg.Get(fd)); ok {
			row[string(fd.Name())] = f
		}
	}
	return row
}

func scalarValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) (float64, bool) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return float64(v.Int()), true
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return float64(v.Uint()), true
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return v.Float(), true
	default:
		return 0, false
	}
}

// readVarint reads a protobuf base-128 varint length prefix from r.
func readVarint(r io.Reader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		var b [1]byte
		if _, err := r.Read(b[:]); err != nil {
			return 0, err
		}
		result |= uint64(b[0]&0x7F) << shift
		if b[0]&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, fmt.Errorf("protorow: varint too long")
		}
	}
	return result, nil
}
