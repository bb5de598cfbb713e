package json

import (
	"bufio"
	"strconv"
)

// formatter receives the structural callbacks of the encoder walk and
// decides how each piece is rendered. Swapping the formatter is the
// only difference between the compact, indented and readable sinks.
type formatter interface {
	WriteNull(w *bufio.Writer) error
	WriteBool(w *bufio.Writer, v bool) error
	WriteInt(w *bufio.Writer, v int64) error
	WriteUint(w *bufio.Writer, v uint64) error
	WriteFloat(w *bufio.Writer, v float64, bitSize int) error

	BeginString(w *bufio.Writer) error
	EndString(w *bufio.Writer) error
	WriteStringFragment(w *bufio.Writer, s string) error
	WriteCharEscape(w *bufio.Writer, esc string) error

	BeginArray(w *bufio.Writer) error
	EndArray(w *bufio.Writer) error
	BeginArrayValue(w *bufio.Writer, first bool) error
	EndArrayValue(w *bufio.Writer) error

	BeginObject(w *bufio.Writer) error
	EndObject(w *bufio.Writer) error
	BeginObjectKey(w *bufio.Writer, first bool) error
	EndObjectKey(w *bufio.Writer) error
	BeginObjectValue(w *bufio.Writer) error
	EndObjectValue(w *bufio.Writer) error
}

// formatFloat renders the shortest decimal text that reproduces the
// exact binary value.
func formatFloat(v float64, bitSize int) string {
	return strconv.FormatFloat(v, 'g', -1, bitSize)
}

// compactFormatter emits no insignificant whitespace.
type compactFormatter struct{}

func (*compactFormatter) WriteNull(w *bufio.Writer) error {
	_, err := w.WriteString("null")
	return err
}

func (*compactFormatter) WriteBool(w *bufio.Writer, v bool) error {
	_, err := w.WriteString(strconv.FormatBool(v))
	return err
}

func (*compactFormatter) WriteInt(w *bufio.Writer, v int64) error {
	_, err := w.WriteString(strconv.FormatInt(v, 10))
	return err
}

func (*compactFormatter) WriteUint(w *bufio.Writer, v uint64) error {
	_, err := w.WriteString(strconv.FormatUint(v, 10))
	return err
}

func (*compactFormatter) WriteFloat(w *bufio.Writer, v float64, bitSize int) error {
	_, err := w.WriteString(formatFloat(v, bitSize))
	return err
}

func (*compactFormatter) BeginString(w *bufio.Writer) error { return w.WriteByte('"') }
func (*compactFormatter) EndString(w *bufio.Writer) error   { return w.WriteByte('"') }

func (*compactFormatter) WriteStringFragment(w *bufio.Writer, s string) error {
	_, err := w.WriteString(s)
	return err
}

func (*compactFormatter) WriteCharEscape(w *bufio.Writer, esc string) error {
	_, err := w.WriteString(esc)
	return err
}

func (*compactFormatter) BeginArray(w *bufio.Writer) error { return w.WriteByte('[') }
func (*compactFormatter) EndArray(w *bufio.Writer) error   { return w.WriteByte(']') }

func (*compactFormatter) BeginArrayValue(w *bufio.Writer, first bool) error {
	if first {
		return nil
	}
	return w.WriteByte(',')
}

func (*compactFormatter) EndArrayValue(*bufio.Writer) error { return nil }

func (*compactFormatter) BeginObject(w *bufio.Writer) error { return w.WriteByte('{') }
func (*compactFormatter) EndObject(w *bufio.Writer) error   { return w.WriteByte('}') }

func (*compactFormatter) BeginObjectKey(w *bufio.Writer, first bool) error {
	if first {
		return nil
	}
	return w.WriteByte(',')
}

func (*compactFormatter) EndObjectKey(*bufio.Writer) error { return nil }

func (*compactFormatter) BeginObjectValue(w *bufio.Writer) error { return w.WriteByte(':') }

func (*compactFormatter) EndObjectValue(*bufio.Writer) error { return nil }

// indentFormatter pretty-prints with two-space indents and newlines
// between elements. State: the current depth and whether the current
// container has emitted at least one child, which controls the
// newline+indent before the closing bracket.
type indentFormatter struct {
	depth    int
	hasValue bool
}

func (f *indentFormatter) WriteNull(w *bufio.Writer) error {
	_, err := w.WriteString("null")
	return err
}

func (f *indentFormatter) WriteBool(w *bufio.Writer, v bool) error {
	_, err := w.WriteString(strconv.FormatBool(v))
	return err
}

func (f *indentFormatter) WriteInt(w *bufio.Writer, v int64) error {
	_, err := w.WriteString(strconv.FormatInt(v, 10))
	return err
}

func (f *indentFormatter) WriteUint(w *bufio.Writer, v uint64) error {
	_, err := w.WriteString(strconv.FormatUint(v, 10))
	return err
}

func (f *indentFormatter) WriteFloat(w *bufio.Writer, v float64, bitSize int) error {
	_, err := w.WriteString(formatFloat(v, bitSize))
	return err
}

func (f *indentFormatter) BeginString(w *bufio.Writer) error { return w.WriteByte('"') }
func (f *indentFormatter) EndString(w *bufio.Writer) error   { return w.WriteByte('"') }

func (f *indentFormatter) WriteStringFragment(w *bufio.Writer, s string) error {
	_, err := w.WriteString(s)
	return err
}

func (f *indentFormatter) WriteCharEscape(w *bufio.Writer, esc string) error {
	_, err := w.WriteString(esc)
	return err
}

func (f *indentFormatter) BeginArray(w *bufio.Writer) error {
	f.depth++
	f.hasValue = false
	return w.WriteByte('[')
}

func (f *indentFormatter) EndArray(w *bufio.Writer) error {
	f.depth--
	if f.hasValue {
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		if err := writeIndent(w, f.depth); err != nil {
			return err
		}
	}
	return w.WriteByte(']')
}

func (f *indentFormatter) BeginArrayValue(w *bufio.Writer, first bool) error {
	if !first {
		if err := w.WriteByte(','); err != nil {
			return err
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return writeIndent(w, f.depth)
}

func (f *indentFormatter) EndArrayValue(*bufio.Writer) error {
	f.hasValue = true
	return nil
}

func (f *indentFormatter) BeginObject(w *bufio.Writer) error {
	f.depth++
	f.hasValue = false
	return w.WriteByte('{')
}

func (f *indentFormatter) EndObject(w *bufio.Writer) error {
	f.depth--
	if f.hasValue {
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		if err := writeIndent(w, f.depth); err != nil {
			return err
		}
	}
	return w.WriteByte('}')
}

func (f *indentFormatter) BeginObjectKey(w *bufio.Writer, first bool) error {
	if !first {
		if err := w.WriteByte(','); err != nil {
			return err
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return writeIndent(w, f.depth)
}

func (f *indentFormatter) EndObjectKey(*bufio.Writer) error { return nil }

func (f *indentFormatter) BeginObjectValue(w *bufio.Writer) error {
	_, err := w.WriteString(": ")
	return err
}

func (f *indentFormatter) EndObjectValue(*bufio.Writer) error {
	f.hasValue = true
	return nil
}

func writeIndent(w *bufio.Writer, depth int) error {
	for i := 0; i < depth; i++ {
		if _, err := w.WriteString("  "); err != nil {
			return err
		}
	}
	return nil
}
