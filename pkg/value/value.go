// Package value defines the universal record representation shared by
// every format adapter, together with the Source and Sink contracts
// that adapters implement. A pipeline is one adapter's Source feeding a
// sequence of Value into another adapter's Sink; the hub itself never
// transforms values.
package value

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the closed set of Value variants.
type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindChar
	KindString
	KindBytes
	KindSequence
	KindMap
)

var kindNames = [...]string{
	KindUnit:     "unit",
	KindBool:     "bool",
	KindI8:       "i8",
	KindI16:      "i16",
	KindI32:      "i32",
	KindI64:      "i64",
	KindU8:       "u8",
	KindU16:      "u16",
	KindU32:      "u32",
	KindU64:      "u64",
	KindF32:      "f32",
	KindF64:      "f64",
	KindChar:     "char",
	KindString:   "string",
	KindBytes:    "bytes",
	KindSequence: "sequence",
	KindMap:      "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Pair is one entry of an ordered Map. Keys are arbitrary values, not
// restricted to strings; whether a target format tolerates a given key
// kind is the encoding adapter's decision.
type Pair struct {
	Key Value
	Val Value
}

// Value is one decoded record or nested substructure: a finite, acyclic
// tagged union. Scalars are packed into num (integers two's-complement,
// floats and chars by bit pattern), so scalar equality is a plain field
// comparison and float comparisons are bit-exact through NaN.
//
// Numeric variants retain the exact width and signedness observed at
// decode time. Narrowing happens only on the way out to a format with a
// smaller type repertoire, and is always explicit and checked there.
type Value struct {
	kind  Kind
	num   uint64
	str   string
	raw   []byte
	seq   []Value
	pairs []Pair
}

// Unit returns the null/absent value.
func Unit() Value { return Value{kind: KindUnit} }

// Bool returns a boolean value.
func Bool(v bool) Value {
	var n uint64
	if v {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

func I8(v int8) Value   { return Value{kind: KindI8, num: uint64(v)} }
func I16(v int16) Value { return Value{kind: KindI16, num: uint64(v)} }
func I32(v int32) Value { return Value{kind: KindI32, num: uint64(v)} }
func I64(v int64) Value { return Value{kind: KindI64, num: uint64(v)} }

func U8(v uint8) Value   { return Value{kind: KindU8, num: uint64(v)} }
func U16(v uint16) Value { return Value{kind: KindU16, num: uint64(v)} }
func U32(v uint32) Value { return Value{kind: KindU32, num: uint64(v)} }
func U64(v uint64) Value { return Value{kind: KindU64, num: v} }

// F32 returns a 32-bit float value, stored by raw bit pattern.
func F32(v float32) Value {
	return Value{kind: KindF32, num: uint64(math.Float32bits(v))}
}

// F64 returns a 64-bit float value, stored by raw bit pattern.
func F64(v float64) Value {
	return Value{kind: KindF64, num: math.Float64bits(v)}
}

// Char returns a single-character value.
func Char(v rune) Value { return Value{kind: KindChar, num: uint64(uint32(v))} }

// String returns a text value.
func String(v string) Value { return Value{kind: KindString, str: v} }

// Bytes returns a raw octet sequence value. The slice is not copied;
// the caller hands over ownership.
func Bytes(v []byte) Value { return Value{kind: KindBytes, raw: v} }

// Sequence returns an ordered list value.
func Sequence(items []Value) Value { return Value{kind: KindSequence, seq: items} }

// Map returns an ordered key-value collection. Insertion order is
// preserved and duplicate keys are permitted structurally.
func Map(pairs []Pair) Value { return Value{kind: KindMap, pairs: pairs} }

// Kind returns the variant discriminant.
func (v Value) Kind() Kind { return v.kind }

// Bool reports the payload of a KindBool value.
func (v Value) Bool() bool { return v.num != 0 }

// Int64 reports the payload of a signed integer value, widened to 64
// bits. Widening to int64 for inspection does not alter the stored
// width; Kind still reports the original variant.
func (v Value) Int64() int64 { return int64(v.num) }

// Uint64 reports the payload of an unsigned integer value, widened to
// 64 bits.
func (v Value) Uint64() uint64 { return v.num }

// Float32 reports the payload of a KindF32 value.
func (v Value) Float32() float32 { return math.Float32frombits(uint32(v.num)) }

// Float64 reports the payload of a KindF64 value.
func (v Value) Float64() float64 { return math.Float64frombits(v.num) }

// Rune reports the payload of a KindChar value.
func (v Value) Rune() rune { return rune(uint32(v.num)) }

// Text reports the payload of a KindString value.
func (v Value) Text() string { return v.str }

// Bytes reports the payload of a KindBytes value.
func (v Value) Bytes() []byte { return v.raw }

// Sequence reports the elements of a KindSequence value.
func (v Value) Sequence() []Value { return v.seq }

// Pairs reports the entries of a KindMap value.
func (v Value) Pairs() []Pair { return v.pairs }

// IsSigned reports whether v is one of the signed integer variants.
func (v Value) IsSigned() bool {
	return v.kind >= KindI8 && v.kind <= KindI64
}

// IsUnsigned reports whether v is one of the unsigned integer variants.
func (v Value) IsUnsigned() bool {
	return v.kind >= KindU8 && v.kind <= KindU64
}

// Equal reports structural equality. Floats compare by raw bit pattern,
// so NaN values of identical bits are equal. A Value has no identity
// beyond this.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.pairs) != len(o.pairs) {
			return false
		}
		for i := range v.pairs {
			if !v.pairs[i].Key.Equal(o.pairs[i].Key) || !v.pairs[i].Val.Equal(o.pairs[i].Val) {
				return false
			}
		}
		return true
	default:
		return v.num == o.num
	}
}

// String renders a compact debug form, used in error messages such as
// "Avro can only output string keys, got: i32(1)".
func (v Value) String() string {
	var b strings.Builder
	v.debug(&b)
	return b.String()
}

func (v Value) debug(b *strings.Builder) {
	switch v.kind {
	case KindUnit:
		b.WriteString("unit")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case KindI8, KindI16, KindI32, KindI64:
		b.WriteString(v.kind.String())
		b.WriteByte('(')
		b.WriteString(strconv.FormatInt(v.Int64(), 10))
		b.WriteByte(')')
	case KindU8, KindU16, KindU32, KindU64:
		b.WriteString(v.kind.String())
		b.WriteByte('(')
		b.WriteString(strconv.FormatUint(v.Uint64(), 10))
		b.WriteByte(')')
	case KindF32:
		b.WriteString("f32(")
		b.WriteString(strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32))
		b.WriteByte(')')
	case KindF64:
		b.WriteString("f64(")
		b.WriteString(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
		b.WriteByte(')')
	case KindChar:
		b.WriteString("char(")
		b.WriteString(strconv.QuoteRune(v.Rune()))
		b.WriteByte(')')
	case KindString:
		b.WriteString(strconv.Quote(v.str))
	case KindBytes:
		b.WriteString("bytes(")
		b.WriteString(strconv.Itoa(len(v.raw)))
		b.WriteByte(')')
	case KindSequence:
		b.WriteByte('[')
		for i := range v.seq {
			if i > 0 {
				b.WriteString(", ")
			}
			v.seq[i].debug(b)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i := range v.pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			v.pairs[i].Key.debug(b)
			b.WriteString(": ")
			v.pairs[i].Val.debug(b)
		}
		b.WriteByte('}')
	}
}
