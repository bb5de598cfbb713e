// Package json implements the Source and Sink contracts over streaming
// JSON using github.com/goccy/go-json.
//
// The Source treats its input as a sequence of whitespace-separated
// JSON documents and decodes them through the token API so that object
// key order survives into the value model. Three Sink styles share one
// structural encoder walk and differ only in the formatter driving the
// output: compact, two-space indented, and a colorized readable form.
// Every sink terminates each record with exactly one newline, so
// streamed output is line-delimited and re-parseable document by
// document.
//
// JSON is a lossy numeric target: it has no integer widths, no
// unsigned types, no byte strings and no non-string map keys. Bytes
// encode as base64 text and non-string keys coerce to their textual
// form without error; integer precision beyond the IEEE-754 double
// range survives encoding but not every consumer will preserve it.
// NaN and infinities, which JSON numbers cannot express, encode as
// null.
package json

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/sluiceio/sluice/pkg/sluiceerrors"
	"github.com/sluiceio/sluice/pkg/value"
)

// Source decodes a stream of JSON documents, one Value per document.
type Source struct {
	dec  *gojson.Decoder
	done bool
}

// NewSource creates a streaming multi-document reader over r.
func NewSource(r io.Reader) *Source {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return &Source{dec: dec}
}

// Read decodes the next top-level document. Truly empty remaining
// input yields (nil, nil), idempotently; a malformed or truncated
// document is an error, never a silent end of stream.
func (s *Source) Read() (*value.Value, error) {
	if s.done {
		return nil, nil
	}

	tok, err := s.dec.Token()
	if errors.Is(err, io.EOF) {
		s.done = true
		return nil, nil
	}
	if err != nil {
		return nil, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeJSON, "decoding JSON document")
	}

	v, err := s.fromToken(tok)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Source) fromToken(tok gojson.Token) (value.Value, error) {
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '[':
			return s.readArray()
		case '{':
			return s.readObject()
		}
		return value.Value{}, sluiceerrors.IllegalState(fmt.Sprintf("unexpected JSON delimiter %q", rune(t)))
	case nil:
		return value.Unit(), nil
	case bool:
		return value.Bool(t), nil
	case string:
		return value.String(t), nil
	case gojson.Number:
		return numberValue(t)
	}
	return value.Value{}, sluiceerrors.IllegalState(fmt.Sprintf("unexpected JSON token %T", tok))
}

func (s *Source) readArray() (value.Value, error) {
	var seq []value.Value
	for s.dec.More() {
		tok, err := s.dec.Token()
		if err != nil {
			return value.Value{}, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeJSON, "decoding JSON array element")
		}
		el, err := s.fromToken(tok)
		if err != nil {
			return value.Value{}, err
		}
		seq = append(seq, el)
	}
	if _, err := s.dec.Token(); err != nil { // consume ']'
		return value.Value{}, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeJSON, "decoding JSON array end")
	}
	return value.Sequence(seq), nil
}

func (s *Source) readObject() (value.Value, error) {
	var pairs []value.Pair
	for s.dec.More() {
		keyTok, err := s.dec.Token()
		if err != nil {
			return value.Value{}, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeJSON, "decoding JSON object key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return value.Value{}, sluiceerrors.IllegalState(fmt.Sprintf("JSON object key is not a string: %v", keyTok))
		}

		valTok, err := s.dec.Token()
		if err != nil {
			return value.Value{}, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeJSON, "decoding JSON object value")
		}
		val, err := s.fromToken(valTok)
		if err != nil {
			return value.Value{}, err
		}
		pairs = append(pairs, value.Pair{Key: value.String(key), Val: val})
	}
	if _, err := s.dec.Token(); err != nil { // consume '}'
		return value.Value{}, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeJSON, "decoding JSON object end")
	}
	return value.Map(pairs), nil
}

// numberValue keeps integer-looking numbers integral: signed first,
// unsigned above the signed range, float otherwise.
func numberValue(n gojson.Number) (value.Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.I64(i), nil
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return value.U64(u), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return value.Value{}, sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeJSON, "parsing JSON number")
	}
	return value.F64(f), nil
}

// Sink encodes records as JSON documents, one per line. The output
// style is fixed by the formatter chosen at construction.
type Sink struct {
	w      *bufio.Writer
	f      formatter
	closed bool
}

// NewCompactSink writes records with no insignificant whitespace.
func NewCompactSink(w io.Writer) *Sink {
	return &Sink{w: bufio.NewWriter(w), f: &compactFormatter{}}
}

// NewIndentSink writes records pretty-printed with two-space indents.
func NewIndentSink(w io.Writer) *Sink {
	return &Sink{w: bufio.NewWriter(w), f: &indentFormatter{}}
}

// NewReadableSink writes records pretty-printed and colorized for
// terminals.
func NewReadableSink(w io.Writer) *Sink {
	return &Sink{w: bufio.NewWriter(w), f: newReadableFormatter()}
}

// Write encodes one record followed by a newline.
func (s *Sink) Write(v value.Value) error {
	if s.closed {
		return sluiceerrors.IllegalState("write to closed JSON sink")
	}
	if err := encode(s.w, s.f, v); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeIO, "writing record terminator")
	}
	return nil
}

// Close flushes buffered output. Subsequent calls return nil.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.w.Flush(); err != nil {
		return sluiceerrors.Wrap(err, sluiceerrors.ErrorTypeIO, "flushing JSON output")
	}
	return nil
}

// encode walks the value tree, driving the formatter callbacks. The
// same walk produces all three output styles.
func encode(w *bufio.Writer, f formatter, v value.Value) error {
	switch v.Kind() {
	case value.KindUnit:
		return f.WriteNull(w)
	case value.KindBool:
		return f.WriteBool(w, v.Bool())
	case value.KindI8, value.KindI16, value.KindI32, value.KindI64:
		return f.WriteInt(w, v.Int64())
	case value.KindU8, value.KindU16, value.KindU32, value.KindU64:
		return f.WriteUint(w, v.Uint64())
	case value.KindF32:
		return writeFloat(w, f, float64(v.Float32()), 32)
	case value.KindF64:
		return writeFloat(w, f, v.Float64(), 64)
	case value.KindChar:
		return encodeString(w, f, string(v.Rune()))
	case value.KindString:
		return encodeString(w, f, v.Text())
	case value.KindBytes:
		return encodeString(w, f, base64.StdEncoding.EncodeToString(v.Bytes()))

	case value.KindSequence:
		if err := f.BeginArray(w); err != nil {
			return err
		}
		for i, el := range v.Sequence() {
			if err := f.BeginArrayValue(w, i == 0); err != nil {
				return err
			}
			if err := encode(w, f, el); err != nil {
				return err
			}
			if err := f.EndArrayValue(w); err != nil {
				return err
			}
		}
		return f.EndArray(w)

	case value.KindMap:
		if err := f.BeginObject(w); err != nil {
			return err
		}
		for i, p := range v.Pairs() {
			if err := f.BeginObjectKey(w, i == 0); err != nil {
				return err
			}
			if err := encodeString(w, f, keyText(p.Key)); err != nil {
				return err
			}
			if err := f.EndObjectKey(w); err != nil {
				return err
			}
			if err := f.BeginObjectValue(w); err != nil {
				return err
			}
			if err := encode(w, f, p.Val); err != nil {
				return err
			}
			if err := f.EndObjectValue(w); err != nil {
				return err
			}
		}
		return f.EndObject(w)
	}
	return sluiceerrors.IllegalState("unknown value kind")
}

// writeFloat emits a number, or null for NaN and infinities, which
// JSON cannot represent. The non-finite bit patterns are valid model
// values, so the coercion keeps the output re-parseable instead of
// producing an unreadable document.
func writeFloat(w *bufio.Writer, f formatter, v float64, bitSize int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return f.WriteNull(w)
	}
	return f.WriteFloat(w, v, bitSize)
}

// encodeString splits s into safe fragments and escape sequences and
// hands them to the formatter. Control characters without a dedicated
// escape use the \u00XX form.
func encodeString(w *bufio.Writer, f formatter, s string) error {
	if err := f.BeginString(w); err != nil {
		return err
	}

	start := 0
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 0x20 && b != '"' && b != '\\' {
			continue
		}
		if start < i {
			if err := f.WriteStringFragment(w, s[start:i]); err != nil {
				return err
			}
		}
		if err := f.WriteCharEscape(w, escapeFor(b)); err != nil {
			return err
		}
		start = i + 1
	}
	if start < len(s) {
		if err := f.WriteStringFragment(w, s[start:]); err != nil {
			return err
		}
	}

	return f.EndString(w)
}

const hexDigits = "0123456789abcdef"

func escapeFor(b byte) string {
	switch b {
	case '"':
		return `\"`
	case '\\':
		return `\\`
	case '\b':
		return `\b`
	case '\f':
		return `\f`
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	}
	return string([]byte{'\\', 'u', '0', '0', hexDigits[b>>4], hexDigits[b&0xF]})
}

// keyText coerces an arbitrary map key to object-key text. Non-string
// keys lose their kind here; JSON object keys are always strings.
func keyText(k value.Value) string {
	switch k.Kind() {
	case value.KindChar:
		return string(k.Rune())
	case value.KindString:
		return k.Text()
	case value.KindUnit:
		return "null"
	case value.KindBool:
		return strconv.FormatBool(k.Bool())
	case value.KindI8, value.KindI16, value.KindI32, value.KindI64:
		return strconv.FormatInt(k.Int64(), 10)
	case value.KindU8, value.KindU16, value.KindU32, value.KindU64:
		return strconv.FormatUint(k.Uint64(), 10)
	case value.KindF32:
		return strconv.FormatFloat(float64(k.Float32()), 'g', -1, 32)
	case value.KindF64:
		return strconv.FormatFloat(k.Float64(), 'g', -1, 64)
	case value.KindBytes:
		return base64.StdEncoding.EncodeToString(k.Bytes())
	}
	return compactText(k)
}

// compactText renders a composite key as its compact JSON form.
func compactText(v value.Value) string {
	var b bytes.Buffer
	w := bufio.NewWriter(&b)
	_ = encode(w, &compactFormatter{}, v)
	_ = w.Flush()
	return b.String()
}
