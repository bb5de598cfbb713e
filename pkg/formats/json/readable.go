package json

import (
	"bufio"
	"strconv"

	"github.com/gookit/color"
)

// readableFormatter colorizes pretty-printed output. It carries the
// same indent state as indentFormatter plus a flag marking whether the
// writer is currently inside an object key, since keys carry their own
// palette for quotes, characters and escapes.
type readableFormatter struct {
	depth       int
	inObjectKey bool
	hasValue    bool

	nullStyle color.Style

	trueStyle  color.Style
	falseStyle color.Style

	numberStyle color.Style

	stringQuoteStyle  color.Style
	stringCharStyle   color.Style
	stringEscapeStyle color.Style

	arrayBracketStyle color.Style
	arrayCommaStyle   color.Style

	objectBraceStyle     color.Style
	objectColonStyle     color.Style
	objectCommaStyle     color.Style
	objectKeyQuoteStyle  color.Style
	objectKeyCharStyle   color.Style
	objectKeyEscapeStyle color.Style
}

func newReadableFormatter() *readableFormatter {
	return &readableFormatter{
		nullStyle: color.Style{color.FgBlack, color.OpFuzzy, color.OpBold, color.OpItalic},

		trueStyle:  color.Style{color.FgGreen, color.OpBold, color.OpItalic},
		falseStyle: color.Style{color.FgRed, color.OpBold, color.OpItalic},

		numberStyle: color.Style{color.FgBlue},

		stringQuoteStyle:  color.Style{color.FgGreen, color.OpFuzzy},
		stringCharStyle:   color.Style{color.FgGreen},
		stringEscapeStyle: color.Style{color.FgGreen, color.OpFuzzy},

		arrayBracketStyle: color.Style{color.OpBold},
		arrayCommaStyle:   color.Style{color.OpBold},

		objectBraceStyle:     color.Style{color.OpBold},
		objectColonStyle:     color.Style{color.OpBold},
		objectCommaStyle:     color.Style{color.OpBold},
		objectKeyQuoteStyle:  color.Style{color.FgBlue, color.OpFuzzy},
		objectKeyCharStyle:   color.Style{color.FgBlue},
		objectKeyEscapeStyle: color.Style{color.FgBlue, color.OpFuzzy},
	}
}

func paint(w *bufio.Writer, style color.Style, s string) error {
	_, err := w.WriteString(style.Render(s))
	return err
}

func (f *readableFormatter) WriteNull(w *bufio.Writer) error {
	return paint(w, f.nullStyle, "null")
}

func (f *readableFormatter) WriteBool(w *bufio.Writer, v bool) error {
	if v {
		return paint(w, f.trueStyle, "true")
	}
	return paint(w, f.falseStyle, "false")
}

func (f *readableFormatter) WriteInt(w *bufio.Writer, v int64) error {
	return paint(w, f.numberStyle, strconv.FormatInt(v, 10))
}

func (f *readableFormatter) WriteUint(w *bufio.Writer, v uint64) error {
	return paint(w, f.numberStyle, strconv.FormatUint(v, 10))
}

func (f *readableFormatter) WriteFloat(w *bufio.Writer, v float64, bitSize int) error {
	return paint(w, f.numberStyle, formatFloat(v, bitSize))
}

func (f *readableFormatter) BeginString(w *bufio.Writer) error {
	if f.inObjectKey {
		return paint(w, f.objectKeyQuoteStyle, `"`)
	}
	return paint(w, f.stringQuoteStyle, `"`)
}

func (f *readableFormatter) EndString(w *bufio.Writer) error {
	if f.inObjectKey {
		return paint(w, f.objectKeyQuoteStyle, `"`)
	}
	return paint(w, f.stringQuoteStyle, `"`)
}

func (f *readableFormatter) WriteStringFragment(w *bufio.Writer, s string) error {
	if f.inObjectKey {
		return paint(w, f.objectKeyCharStyle, s)
	}
	return paint(w, f.stringCharStyle, s)
}

func (f *readableFormatter) WriteCharEscape(w *bufio.Writer, esc string) error {
	if f.inObjectKey {
		return paint(w, f.objectKeyEscapeStyle, esc)
	}
	return paint(w, f.stringEscapeStyle, esc)
}

func (f *readableFormatter) BeginArray(w *bufio.Writer) error {
	f.depth++
	f.hasValue = false
	return paint(w, f.arrayBracketStyle, "[")
}

func (f *readableFormatter) EndArray(w *bufio.Writer) error {
	f.depth--
	if f.hasValue {
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		if err := writeIndent(w, f.depth); err != nil {
			return err
		}
	}
	return paint(w, f.arrayBracketStyle, "]")
}

func (f *readableFormatter) BeginArrayValue(w *bufio.Writer, first bool) error {
	if !first {
		if err := paint(w, f.arrayCommaStyle, ","); err != nil {
			return err
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return writeIndent(w, f.depth)
}

func (f *readableFormatter) EndArrayValue(*bufio.Writer) error {
	f.hasValue = true
	return nil
}

func (f *readableFormatter) BeginObject(w *bufio.Writer) error {
	f.depth++
	f.hasValue = false
	return paint(w, f.objectBraceStyle, "{")
}

func (f *readableFormatter) EndObject(w *bufio.Writer) error {
	f.depth--
	if f.hasValue {
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		if err := writeIndent(w, f.depth); err != nil {
			return err
		}
	}
	return paint(w, f.objectBraceStyle, "}")
}

func (f *readableFormatter) BeginObjectKey(w *bufio.Writer, first bool) error {
	f.inObjectKey = true
	if !first {
		if err := paint(w, f.objectCommaStyle, ","); err != nil {
			return err
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return writeIndent(w, f.depth)
}

func (f *readableFormatter) EndObjectKey(*bufio.Writer) error {
	f.inObjectKey = false
	return nil
}

func (f *readableFormatter) BeginObjectValue(w *bufio.Writer) error {
	return paint(w, f.objectColonStyle, ": ")
}

func (f *readableFormatter) EndObjectValue(*bufio.Writer) error {
	f.hasValue = true
	return nil
}
