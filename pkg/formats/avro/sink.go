package avro

import (
	"bufio"
	"io"
	"math"

	"github.com/linkedin/goavro/v2"

	"github.com/sluiceio/sluice/pkg/sluiceerrors"
	"github.com/sluiceio/sluice/pkg/value"
)

// Block compression codecs accepted by NewSink.
const (
	CompressionNull    = goavro.CompressionNullLabel
	CompressionDeflate = goavro.CompressionDeflateLabel
	CompressionSnappy  = goavro.CompressionSnappyLabel
)

// defaultBatchSize is the number of records appended per container
// block.
const defaultBatchSize = 100

// Sink encodes records into an Avro object container file. Records are
// batched into container blocks; Close writes the pending batch and
// flushes the buffered writer. Close is idempotent and must be called
// exactly once when the Sink is no longer needed, including on
// cancellation.
type Sink struct {
	ocf    *goavro.OCFWriter
	buf    *bufio.Writer
	batch  []interface{}
	closed bool
}

// NewSink creates a container writer with the given schema and block
// compression codec ("" selects no compression).
func NewSink(w io.Writer, schemaJSON string, compression string) (*Sink, error) {
	codec, err := goavro.NewCodec(schemaJSON)
	if err != nil {
		return nil, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeAvro, "creating Avro codec")
	}

	name, err := compressionName(compression)
	if err != nil {
		return nil, err
	}

	buf := bufio.NewWriter(w)
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               buf,
		Codec:           codec,
		CompressionName: name,
	})
	if err != nil {
		return nil, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeAvro, "creating Avro container writer")
	}

	return &Sink{
		ocf:   ocf,
		buf:   buf,
		batch: make([]interface{}, 0, defaultBatchSize),
	}, nil
}

func compressionName(compression string) (string, error) {
	switch compression {
	case "", CompressionNull:
		return goavro.CompressionNullLabel, nil
	case CompressionDeflate:
		return goavro.CompressionDeflateLabel, nil
	case CompressionSnappy:
		return goavro.CompressionSnappyLabel, nil
	}
	return "", sluiceerrors.Formatf("unsupported Avro compression codec: %s", compression)
}

// Write encodes one record. The record may be buffered until the
// current block fills or the Sink is closed.
func (s *Sink) Write(v value.Value) error {
	if s.closed {
		return sluiceerrors.IllegalState("write to closed Avro sink")
	}

	native, err := toNative(v)
	if err != nil {
		return err
	}

	s.batch = append(s.batch, native)
	if len(s.batch) >= defaultBatchSize {
		return s.flushBatch()
	}
	return nil
}

// Close writes any buffered records and flushes the underlying writer.
// Subsequent calls return nil.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.flushBatch(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeIO, "flushing Avro container")
	}
	return nil
}

func (s *Sink) flushBatch() error {
	if len(s.batch) == 0 {
		return nil
	}
	if err := s.ocf.Append(s.batch); err != nil {
		return sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeAvro, "appending Avro block")
	}
	s.batch = s.batch[:0]
	return nil
}

// toNative converts a Value into goavro's native representation.
// Integers widen to the matching signed Avro category; U64 is checked
// against the signed 64-bit range because Avro has no unsigned type of
// that width.
func toNative(v value.Value) (interface{}, error) {
	switch v.Kind() {
	case value.KindUnit:
		return nil, nil
	case value.KindBool:
		return v.Bool(), nil

	case value.KindI8, value.KindI16, value.KindI32:
		return int32(v.Int64()), nil
	case value.KindI64:
		return v.Int64(), nil

	case value.KindU8, value.KindU16:
		return int32(v.Uint64()), nil
	case value.KindU32:
		return int64(v.Uint64()), nil
	case value.KindU64:
		if v.Uint64() > math.MaxInt64 {
			return nil, sluiceerrors.Formatf("Avro output does not support unsigned 64-bit integer: %d", v.Uint64())
		}
		return int64(v.Uint64()), nil

	case value.KindF32:
		return v.Float32(), nil
	case value.KindF64:
		return v.Float64(), nil

	case value.KindChar:
		return string(v.Rune()), nil
	case value.KindString:
		return v.Text(), nil
	case value.KindBytes:
		return v.Bytes(), nil

	case value.KindSequence:
		items := make([]interface{}, 0, len(v.Sequence()))
		for _, el := range v.Sequence() {
			native, err := toNative(el)
			if err != nil {
				return nil, err
			}
			items = append(items, native)
		}
		return items, nil

	case value.KindMap:
		// The model permits duplicate keys; an Avro record cannot
		// express them, so a repeat must fail loudly rather than
		// last-wins into the native map.
		rec := make(map[string]interface{}, len(v.Pairs()))
		for _, p := range v.Pairs() {
			key, err := keyString(p.Key)
			if err != nil {
				return nil, err
			}
			if _, dup := rec[key]; dup {
				return nil, sluiceerrors.Formatf("Avro record output cannot contain duplicate key: %q", key)
			}
			native, err := toNative(p.Val)
			if err != nil {
				return nil, err
			}
			rec[key] = native
		}
		return rec, nil
	}
	return nil, sluiceerrors.IllegalState("unknown value kind")
}

// keyString coerces a map key for Avro record output. Only Char and
// String keys are legal.
func keyString(k value.Value) (string, error) {
	switch k.Kind() {
	case value.KindChar:
		return string(k.Rune()), nil
	case value.KindString:
		return k.Text(), nil
	}
	return "", sluiceerrors.Formatf("Avro can only output string keys, got: %s", k)
}
