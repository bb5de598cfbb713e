package avro

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sluiceio/sluice/pkg/sluiceerrors"
	"github.com/sluiceio/sluice/pkg/value"
)

const rowSchema = `{
	"type": "record",
	"name": "Row",
	"fields": [
		{"name": "flag", "type": "boolean"},
		{"name": "count", "type": "int"},
		{"name": "total", "type": "long"},
		{"name": "ratio", "type": "float"},
		{"name": "score", "type": "double"},
		{"name": "name", "type": "string"},
		{"name": "payload", "type": "bytes"}
	]
}`

func rowValue() value.Value {
	return value.Map([]value.Pair{
		{Key: value.String("flag"), Val: value.Bool(true)},
		{Key: value.String("count"), Val: value.I32(-5)},
		{Key: value.String("total"), Val: value.I64(1 << 40)},
		{Key: value.String("ratio"), Val: value.F32(0.25)},
		{Key: value.String("score"), Val: value.F64(2.5)},
		{Key: value.String("name"), Val: value.String("alpha")},
		{Key: value.String("payload"), Val: value.Bytes([]byte{0xca, 0xfe})},
	})
}

func TestRoundTripPrimitives(t *testing.T) {
	var buf bytes.Buffer

	sink, err := NewSink(&buf, rowSchema, CompressionNull)
	require.NoError(t, err)
	require.NoError(t, sink.Write(rowValue()))
	require.NoError(t, sink.Close())

	src, err := NewSource(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	got, err := src.Read()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, rowValue().Equal(*got), "round trip mismatch: %s", got)

	// End of stream is idempotent.
	for i := 0; i < 3; i++ {
		got, err = src.Read()
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestRoundTripDeflate(t *testing.T) {
	var buf bytes.Buffer

	sink, err := NewSink(&buf, rowSchema, CompressionDeflate)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, sink.Write(rowValue()))
	}
	require.NoError(t, sink.Close())

	src, err := NewSource(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	var n int
	for {
		got, err := src.Read()
		require.NoError(t, err)
		if got == nil {
			break
		}
		assert.True(t, rowValue().Equal(*got))
		n++
	}
	assert.Equal(t, 10, n)
}

// Avro has no unsigned 64-bit type: values above the signed range fail
// explicitly, values inside it come back as I64. Width and signedness
// are not preserved through this format.
func TestU64Narrowing(t *testing.T) {
	schema := `{"type": "record", "name": "U", "fields": [{"name": "n", "type": "long"}]}`

	var buf bytes.Buffer
	sink, err := NewSink(&buf, schema, CompressionNull)
	require.NoError(t, err)

	err = sink.Write(value.Map([]value.Pair{
		{Key: value.String("n"), Val: value.U64(math.MaxUint64)},
	}))
	require.Error(t, err)
	assert.True(t, sluiceerrors.IsType(err, sluiceerrors.ErrorTypeFormat))
	assert.Contains(t, err.Error(), "unsigned 64-bit integer")

	require.NoError(t, sink.Write(value.Map([]value.Pair{
		{Key: value.String("n"), Val: value.U64(42)},
	})))
	require.NoError(t, sink.Close())

	src, err := NewSource(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	got, err := src.Read()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Pairs()[0].Val.Equal(value.I64(42)))
}

func TestNonStringKeyRejected(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewSink(&buf, rowSchema, CompressionNull)
	require.NoError(t, err)

	err = sink.Write(value.Map([]value.Pair{
		{Key: value.I32(1), Val: value.Bool(true)},
	}))
	require.Error(t, err)
	assert.True(t, sluiceerrors.IsType(err, sluiceerrors.ErrorTypeFormat))
	assert.Contains(t, err.Error(), "i32(1)")
}

func TestCharKeyCoerced(t *testing.T) {
	schema := `{"type": "record", "name": "C", "fields": [{"name": "x", "type": "long"}]}`

	var buf bytes.Buffer
	sink, err := NewSink(&buf, schema, CompressionNull)
	require.NoError(t, err)
	require.NoError(t, sink.Write(value.Map([]value.Pair{
		{Key: value.Char('x'), Val: value.I64(1)},
	})))
	require.NoError(t, sink.Close())

	src, err := NewSource(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	got, err := src.Read()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Pairs()[0].Key.Equal(value.String("x")))
}

// Decoding a union yields the selected branch's value; the
// discriminant is not recoverable.
func TestUnionFlattening(t *testing.T) {
	schema := `{"type": "record", "name": "U", "fields": [{"name": "v", "type": ["null", "long"]}]}`
	codec, err := goavro.NewCodec(schema)
	require.NoError(t, err)

	var buf bytes.Buffer
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{W: &buf, Codec: codec})
	require.NoError(t, err)
	require.NoError(t, ocf.Append([]interface{}{
		map[string]interface{}{"v": map[string]interface{}{"long": int64(7)}},
		map[string]interface{}{"v": nil},
	}))

	src, err := NewSource(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	first, err := src.Read()
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.Pairs()[0].Val.Equal(value.I64(7)))

	second, err := src.Read()
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.True(t, second.Pairs()[0].Val.Equal(value.Unit()))
}

// A union branch carrying a logical type is tagged with
// "<type>.<logicalType>" on the wire; the nullable timestamp is the
// common case and must unwrap like any other union.
func TestUnionWithLogicalTypeBranch(t *testing.T) {
	schema := `{
		"type": "record",
		"name": "Stamped",
		"fields": [
			{"name": "ts", "type": ["null", {"type": "long", "logicalType": "timestamp-millis"}]}
		]
	}`
	codec, err := goavro.NewCodec(schema)
	require.NoError(t, err)

	at := time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC)

	var buf bytes.Buffer
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{W: &buf, Codec: codec})
	require.NoError(t, err)
	require.NoError(t, ocf.Append([]interface{}{
		map[string]interface{}{"ts": map[string]interface{}{"long.timestamp-millis": at}},
		map[string]interface{}{"ts": nil},
	}))

	src, err := NewSource(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	first, err := src.Read()
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.Pairs()[0].Val.Equal(value.I64(at.UnixMilli())))

	second, err := src.Read()
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.True(t, second.Pairs()[0].Val.Equal(value.Unit()))
}

// An Avro record cannot express the duplicate keys the model permits;
// encoding must fail explicitly instead of silently dropping one.
func TestDuplicateKeyRejected(t *testing.T) {
	schema := `{"type": "record", "name": "D", "fields": [{"name": "n", "type": "long"}]}`

	var buf bytes.Buffer
	sink, err := NewSink(&buf, schema, CompressionNull)
	require.NoError(t, err)

	err = sink.Write(value.Map([]value.Pair{
		{Key: value.String("n"), Val: value.I64(1)},
		{Key: value.String("n"), Val: value.I64(2)},
	}))
	require.Error(t, err)
	assert.True(t, sluiceerrors.IsType(err, sluiceerrors.ErrorTypeFormat))
	assert.Contains(t, err.Error(), `"n"`)

	// A Char key colliding with an equal String key is the same
	// duplicate after coercion.
	err = sink.Write(value.Map([]value.Pair{
		{Key: value.Char('n'), Val: value.I64(1)},
		{Key: value.String("n"), Val: value.I64(2)},
	}))
	require.Error(t, err)
	assert.True(t, sluiceerrors.IsType(err, sluiceerrors.ErrorTypeFormat))
}

func TestNestedStructures(t *testing.T) {
	schema := `{
		"type": "record",
		"name": "Nested",
		"fields": [
			{"name": "tags", "type": {"type": "array", "items": "string"}},
			{"name": "attrs", "type": {"type": "map", "values": "int"}}
		]
	}`

	var buf bytes.Buffer
	sink, err := NewSink(&buf, schema, CompressionNull)
	require.NoError(t, err)
	require.NoError(t, sink.Write(value.Map([]value.Pair{
		{Key: value.String("tags"), Val: value.Sequence([]value.Value{
			value.String("a"), value.String("b"),
		})},
		{Key: value.String("attrs"), Val: value.Map([]value.Pair{
			{Key: value.String("x"), Val: value.I32(1)},
			{Key: value.String("y"), Val: value.I32(2)},
		})},
	})))
	require.NoError(t, sink.Close())

	src, err := NewSource(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	got, err := src.Read()
	require.NoError(t, err)
	require.NotNil(t, got)

	tags := got.Pairs()[0].Val
	require.Equal(t, value.KindSequence, tags.Kind())
	assert.True(t, tags.Sequence()[0].Equal(value.String("a")))

	// Avro maps are unordered on the wire; the adapter sorts keys.
	attrs := got.Pairs()[1].Val
	require.Equal(t, value.KindMap, attrs.Kind())
	require.Len(t, attrs.Pairs(), 2)
	assert.True(t, attrs.Pairs()[0].Key.Equal(value.String("x")))
	assert.True(t, attrs.Pairs()[1].Key.Equal(value.String("y")))
}

func TestDateIsUnimplemented(t *testing.T) {
	schema := `{"type": "record", "name": "D", "fields": [{"name": "d", "type": {"type": "int", "logicalType": "date"}}]}`
	codec, err := goavro.NewCodec(schema)
	require.NoError(t, err)

	var buf bytes.Buffer
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{W: &buf, Codec: codec})
	require.NoError(t, err)
	require.NoError(t, ocf.Append([]interface{}{
		map[string]interface{}{"d": time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}))

	src, err := NewSource(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	_, err = src.Read()
	require.Error(t, err)
	assert.True(t, sluiceerrors.IsType(err, sluiceerrors.ErrorTypeUnimplemented))
}

func TestTimestampMillis(t *testing.T) {
	schema := `{"type": "record", "name": "T", "fields": [{"name": "ts", "type": {"type": "long", "logicalType": "timestamp-millis"}}]}`
	codec, err := goavro.NewCodec(schema)
	require.NoError(t, err)

	at := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{W: &buf, Codec: codec})
	require.NoError(t, err)
	require.NoError(t, ocf.Append([]interface{}{
		map[string]interface{}{"ts": at},
	}))

	src, err := NewSource(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	got, err := src.Read()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Pairs()[0].Val.Equal(value.I64(at.UnixMilli())))
}

func TestMalformedContainer(t *testing.T) {
	_, err := NewSource(bytes.NewReader([]byte("not an avro container")))
	require.Error(t, err)
	assert.True(t, sluiceerrors.IsType(err, sluiceerrors.ErrorTypeAvro))
}

func TestUnknownCompression(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewSink(&buf, rowSchema, "zstd")
	require.Error(t, err)
	assert.True(t, sluiceerrors.IsType(err, sluiceerrors.ErrorTypeFormat))
}

func TestCloseIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewSink(&buf, rowSchema, CompressionNull)
	require.NoError(t, err)
	require.NoError(t, sink.Write(rowValue()))
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	err = sink.Write(rowValue())
	require.Error(t, err)
	assert.True(t, sluiceerrors.IsType(err, sluiceerrors.ErrorTypeIllegalState))
}
