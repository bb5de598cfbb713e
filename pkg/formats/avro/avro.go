// Package avro implements the Source and Sink contracts over the Avro
// object container file format using github.com/linkedin/goavro.
//
// Decoding is schema-directed: the schema embedded in the container is
// parsed once and walked alongside each datum, so record fields come
// out in declared order, union branches are flattened to the value of
// the selected branch (the discriminant is discarded and not
// recoverable), and logical types map onto the closest universal
// variant. Date and decimal values are recognized but not supported and
// surface an unimplemented-category error.
package avro

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/linkedin/goavro/v2"

	"github.com/sluiceio/sluice/pkg/sluiceerrors"
	"github.com/sluiceio/sluice/pkg/value"
)

// Source decodes records from an Avro object container file. The
// schema is embedded in the container, so construction needs only the
// byte source.
type Source struct {
	ocf   *goavro.OCFReader
	root  interface{}
	named map[string]map[string]interface{}
	done  bool
}

// NewSource opens an Avro container for reading.
func NewSource(r io.Reader) (*Source, error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeAvro, "opening Avro container")
	}

	var root interface{}
	if err := gojson.Unmarshal([]byte(ocf.Codec().Schema()), &root); err != nil {
		return nil, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeAvro, "parsing container schema")
	}

	s := &Source{
		ocf:   ocf,
		root:  root,
		named: make(map[string]map[string]interface{}),
	}
	s.registerNamed(root)
	return s, nil
}

// Read decodes the next record. It returns (nil, nil) exactly at end
// of stream and keeps doing so on subsequent calls.
func (s *Source) Read() (*value.Value, error) {
	if s.done {
		return nil, nil
	}
	if !s.ocf.Scan() {
		if err := s.ocf.Err(); err != nil {
			return nil, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeAvro, "reading Avro block")
		}
		s.done = true
		return nil, nil
	}

	datum, err := s.ocf.Read()
	if err != nil {
		return nil, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeAvro, "decoding Avro datum")
	}

	v, err := s.decode(s.root, datum)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// registerNamed walks the schema once, recording record, enum and
// fixed definitions so later references by name resolve.
func (s *Source) registerNamed(schema interface{}) {
	switch sc := schema.(type) {
	case []interface{}:
		for _, branch := range sc {
			s.registerNamed(branch)
		}
	case map[string]interface{}:
		t, _ := sc["type"].(string)
		switch t {
		case "record":
			s.named[fullName(sc)] = sc
			fields, _ := sc["fields"].([]interface{})
			for _, f := range fields {
				if fm, ok := f.(map[string]interface{}); ok {
					s.registerNamed(fm["type"])
				}
			}
		case "enum", "fixed":
			s.named[fullName(sc)] = sc
		case "array":
			s.registerNamed(sc["items"])
		case "map":
			s.registerNamed(sc["values"])
		}
	}
}

func (s *Source) decode(schema, datum interface{}) (value.Value, error) {
	switch sc := schema.(type) {
	case string:
		return s.decodeNamed(sc, datum)
	case []interface{}:
		return s.decodeUnion(sc, datum)
	case map[string]interface{}:
		return s.decodeComplex(sc, datum)
	}
	return value.Value{}, sluiceerrors.IllegalState(fmt.Sprintf("unrecognized Avro schema node: %v", schema))
}

func (s *Source) decodeNamed(name string, datum interface{}) (value.Value, error) {
	switch name {
	case "null":
		return value.Unit(), nil
	case "boolean":
		v, ok := datum.(bool)
		if !ok {
			return value.Value{}, badDatum("boolean", datum)
		}
		return value.Bool(v), nil
	case "int":
		v, err := toInt32(datum)
		if err != nil {
			return value.Value{}, err
		}
		return value.I32(v), nil
	case "long":
		v, err := toInt64(datum)
		if err != nil {
			return value.Value{}, err
		}
		return value.I64(v), nil
	case "float":
		v, ok := datum.(float32)
		if !ok {
			return value.Value{}, badDatum("float", datum)
		}
		return value.F32(v), nil
	case "double":
		v, ok := datum.(float64)
		if !ok {
			return value.Value{}, badDatum("double", datum)
		}
		return value.F64(v), nil
	case "bytes":
		v, ok := datum.([]byte)
		if !ok {
			return value.Value{}, badDatum("bytes", datum)
		}
		return value.Bytes(v), nil
	case "string":
		v, ok := datum.(string)
		if !ok {
			return value.Value{}, badDatum("string", datum)
		}
		return value.String(v), nil
	}

	if def, ok := s.named[name]; ok {
		return s.decodeComplex(def, datum)
	}
	return value.Value{}, sluiceerrors.IllegalState(fmt.Sprintf("reference to undefined Avro type %q", name))
}

func (s *Source) decodeComplex(schema map[string]interface{}, datum interface{}) (value.Value, error) {
	if lt, ok := schema["logicalType"].(string); ok {
		return s.decodeLogical(lt, schema, datum)
	}

	t, _ := schema["type"].(string)
	switch t {
	case "record":
		rec, ok := datum.(map[string]interface{})
		if !ok {
			return value.Value{}, badDatum("record", datum)
		}
		fields, _ := schema["fields"].([]interface{})
		pairs := make([]value.Pair, 0, len(fields))
		for _, f := range fields {
			fm, ok := f.(map[string]interface{})
			if !ok {
				return value.Value{}, sluiceerrors.IllegalState("malformed Avro record field schema")
			}
			name, _ := fm["name"].(string)
			fv, err := s.decode(fm["type"], rec[name])
			if err != nil {
				return value.Value{}, err
			}
			pairs = append(pairs, value.Pair{Key: value.String(name), Val: fv})
		}
		return value.Map(pairs), nil

	case "enum":
		// goavro hands the symbol through as its string form; the
		// symbol index is discarded.
		v, ok := datum.(string)
		if !ok {
			return value.Value{}, badDatum("enum", datum)
		}
		return value.String(v), nil

	case "fixed":
		v, ok := datum.([]byte)
		if !ok {
			return value.Value{}, badDatum("fixed", datum)
		}
		return value.Bytes(v), nil

	case "array":
		items, ok := datum.([]interface{})
		if !ok {
			return value.Value{}, badDatum("array", datum)
		}
		seq := make([]value.Value, 0, len(items))
		for _, item := range items {
			ev, err := s.decode(schema["items"], item)
			if err != nil {
				return value.Value{}, err
			}
			seq = append(seq, ev)
		}
		return value.Sequence(seq), nil

	case "map":
		m, ok := datum.(map[string]interface{})
		if !ok {
			return value.Value{}, badDatum("map", datum)
		}
		// Avro maps carry no entry order; sort keys for a
		// deterministic Value.
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]value.Pair, 0, len(keys))
		for _, k := range keys {
			mv, err := s.decode(schema["values"], m[k])
			if err != nil {
				return value.Value{}, err
			}
			pairs = append(pairs, value.Pair{Key: value.String(k), Val: mv})
		}
		return value.Map(pairs), nil
	}

	// Object form of a primitive or a reference, e.g. {"type": "long"}.
	if t != "" {
		return s.decodeNamed(t, datum)
	}
	return value.Value{}, sluiceerrors.IllegalState("Avro schema node without a type")
}

func (s *Source) decodeLogical(logical string, schema map[string]interface{}, datum interface{}) (value.Value, error) {
	switch logical {
	case "date":
		return value.Value{}, sluiceerrors.Unimplemented("Avro date values are not supported")
	case "decimal":
		return value.Value{}, sluiceerrors.Unimplemented("Avro decimal values are not supported")

	case "time-millis":
		// goavro converts to time.Duration when it recognizes the
		// logical type; older containers hand the raw int through.
		switch d := datum.(type) {
		case time.Duration:
			return value.I32(int32(d / time.Millisecond)), nil
		case int32:
			return value.I32(d), nil
		}
		return value.Value{}, badDatum("time-millis", datum)

	case "time-micros":
		switch d := datum.(type) {
		case time.Duration:
			return value.I64(int64(d / time.Microsecond)), nil
		case int64:
			return value.I64(d), nil
		}
		return value.Value{}, badDatum("time-micros", datum)

	case "timestamp-millis":
		switch d := datum.(type) {
		case time.Time:
			return value.I64(d.UnixMilli()), nil
		case int64:
			return value.I64(d), nil
		}
		return value.Value{}, badDatum("timestamp-millis", datum)

	case "timestamp-micros":
		switch d := datum.(type) {
		case time.Time:
			return value.I64(d.UnixMicro()), nil
		case int64:
			return value.I64(d), nil
		}
		return value.Value{}, badDatum("timestamp-micros", datum)

	case "duration":
		// fixed(12): little-endian months, days, milliseconds.
		raw, ok := datum.([]byte)
		if !ok || len(raw) != 12 {
			return value.Value{}, badDatum("duration", datum)
		}
		months := binary.LittleEndian.Uint32(raw[0:4])
		days := binary.LittleEndian.Uint32(raw[4:8])
		millis := binary.LittleEndian.Uint32(raw[8:12])
		seconds := float64(months)*30*86400 + float64(days)*86400 + float64(millis)/1000
		return value.F64(seconds), nil

	case "uuid":
		str, ok := datum.(string)
		if !ok {
			return value.Value{}, badDatum("uuid", datum)
		}
		u, err := uuid.Parse(str)
		if err != nil {
			return value.Value{}, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeAvro, "parsing uuid value")
		}
		return value.Bytes(u[:]), nil
	}

	// Unknown logical type: fall back to the underlying type.
	if t, ok := schema["type"].(string); ok {
		return s.decodeNamed(t, datum)
	}
	return value.Value{}, sluiceerrors.IllegalState(fmt.Sprintf("Avro logical type %q on schema without a type", logical))
}

// decodeUnion flattens a union to the value of its selected branch.
// goavro represents a non-null union datum as a single-entry map keyed
// by the branch's full name.
func (s *Source) decodeUnion(branches []interface{}, datum interface{}) (value.Value, error) {
	if datum == nil {
		return value.Unit(), nil
	}

	wrapper, ok := datum.(map[string]interface{})
	if !ok || len(wrapper) != 1 {
		return value.Value{}, sluiceerrors.IllegalState(fmt.Sprintf("unexpected Avro union datum: %v", datum))
	}

	var key string
	var inner interface{}
	for k, v := range wrapper {
		key, inner = k, v
	}

	for _, branch := range branches {
		if unionKey(branch) == key {
			return s.decode(branch, inner)
		}
	}
	return value.Value{}, sluiceerrors.IllegalState(fmt.Sprintf("Avro union datum names unknown branch %q", key))
}

// unionKey computes the name goavro uses to tag a union branch. A
// branch carrying a logical type is tagged "<type>.<logicalType>",
// e.g. "long.timestamp-millis" for a nullable timestamp.
func unionKey(schema interface{}) string {
	switch sc := schema.(type) {
	case string:
		return sc
	case map[string]interface{}:
		t, _ := sc["type"].(string)
		switch t {
		case "record", "enum", "fixed":
			return fullName(sc)
		default:
			if lt, ok := sc["logicalType"].(string); ok && lt != "" {
				return t + "." + lt
			}
			return t
		}
	}
	return ""
}

func fullName(schema map[string]interface{}) string {
	name, _ := schema["name"].(string)
	if ns, ok := schema["namespace"].(string); ok && ns != "" {
		return ns + "." + name
	}
	return name
}

func toInt32(datum interface{}) (int32, error) {
	switch v := datum.(type) {
	case int32:
		return v, nil
	case int:
		return int32(v), nil
	case int64:
		return int32(v), nil
	}
	return 0, badDatum("int", datum)
}

func toInt64(datum interface{}) (int64, error) {
	switch v := datum.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	}
	return 0, badDatum("long", datum)
}

func badDatum(want string, datum interface{}) error {
	return sluiceerrors.IllegalState(fmt.Sprintf("Avro datum does not match schema: want %s, got %T", want, datum))
}
