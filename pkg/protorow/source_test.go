package protorow

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/tjs392/otters/pkg/columnar"
)

// buildTestDescriptor constructs a minimal message descriptor with one
// double field and one int64 field, entirely in-process (no .proto file, no
// protoc), so the test needs nothing beyond the protobuf runtime already
// wired into this module.
func buildTestDescriptor(t *testing.T) protoreflect.MessageDescriptor {
	t.Helper()

	fd := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("protorow_test.proto"),
		Package: proto.String("protorowtest"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Tick"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:     proto.String("price"),
						Number:   proto.Int32(1),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_DOUBLE.Enum(),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						JsonName: proto.String("price"),
					},
					{
						Name:     proto.String("volume"),
						Number:   proto.Int32(2),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_INT64.Enum(),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						JsonName: proto.String("volume"),
					},
				},
			},
		},
	}

	file, err := protodesc.NewFile(fd, nil)
	if err != nil {
		t.Fatalf("protodesc.NewFile: %v", err)
	}
	return file.Messages().ByName("Tick")
}

func encodeDelimited(t *testing.T, desc protoreflect.MessageDescriptor, price float64, volume int64) []byte {
	t.Helper()
	msg := dynamicpb.NewMessage(desc)
	msg.Set(desc.Fields().ByName("price"), protoreflect.ValueOfFloat64(price))
	msg.Set(desc.Fields().ByName("volume"), protoreflect.ValueOfInt64(volume))

	data, err := proto.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var buf bytes.Buffer
	writeVarint(&buf, uint64(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func writeVarint(buf *bytes.Buffer, v uint64) {
	for v >= 0x80 {
		buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	buf.WriteByte(byte(v))
}

func TestSourceDecodesScalarFields(t *testing.T) {
	desc := buildTestDescriptor(t)

	var stream bytes.Buffer
	stream.Write(encodeDelimited(t, desc, 10.5, 100))
	stream.Write(encodeDelimited(t, desc, 20.25, 200))

	src := NewSource(&stream, desc)
	iter, err := src.Factory()()
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	row1, err := iter()
	if err != nil {
		t.Fatalf("row1: %v", err)
	}
	if row1["price"] != 10.5 || row1["volume"] != float64(100) {
		t.Fatalf("row1 = %+v, want price=10.5 volume=100", row1)
	}

	row2, err := iter()
	if err != nil {
		t.Fatalf("row2: %v", err)
	}
	if row2["price"] != 20.25 || row2["volume"] != float64(200) {
		t.Fatalf("row2 = %+v, want price=20.25 volume=200", row2)
	}

	if _, err := iter(); err != columnar.ErrEndOfStream {
		t.Fatalf("expected ErrEndOfStream at end of stream, got %v", err)
	}
}
