package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/respkv/internal/resp"
)

// TextFormatter renders replies the way redis-cli does in a terminal.
type TextFormatter struct{}

// Format writes f followed by a newline.
func (t *TextFormatter) Format(w io.Writer, f resp.Frame) error {
	_, err := io.WriteString(w, Text(f)+"\n")
	return err
}

// Text renders f without a trailing newline.
func Text(f resp.Frame) string {
	var b strings.Builder
	writeText(&b, f, 0)
	return b.String()
}

func writeText(b *strings.Builder, f resp.Frame, indent int) {
	switch v := f.(type) {
	case resp.SimpleString:
		b.WriteString(string(v))
	case resp.SimpleError:
		b.WriteString("(error) ")
		b.WriteString(string(v))
	case resp.Integer:
		fmt.Fprintf(b, "(integer) %d", int64(v))
	case resp.BulkString:
		b.WriteString(quote(v))
	case resp.Null, resp.NullArray, resp.NullBulkString:
		b.WriteString("(nil)")
	case resp.Boolean:
		fmt.Fprintf(b, "(%t)", bool(v))
	case resp.Double:
		b.WriteString("(double) ")
		b.WriteString(resp.FormatDouble(float64(v)))
	case resp.Array:
		writeList(b, []resp.Frame(v), "(empty array)", indent)
	case resp.Set:
		writeList(b, []resp.Frame(v), "(empty set)", indent)
	case resp.Map:
		writeMap(b, v, indent)
	case nil:
		b.WriteString("(nil)")
	default:
		fmt.Fprintf(b, "(%s)", f.Kind())
	}
}

// writeList numbers elements from 1. Continuation lines of a nested
// element are indented past the number so columns line up.
func writeList(b *strings.Builder, items []resp.Frame, empty string, indent int) {
	if len(items) == 0 {
		b.WriteString(empty)
		return
	}
	width := len(strconv.Itoa(len(items)))
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", indent))
		}
		prefix := fmt.Sprintf("%*d) ", width, i+1)
		b.WriteString(prefix)
		writeText(b, item, indent+len(prefix))
	}
}

func writeMap(b *strings.Builder, m resp.Map, indent int) {
	if len(m) == 0 {
		b.WriteString("(empty hash)")
		return
	}
	keys := m.Keys()
	width := len(strconv.Itoa(len(keys)))
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", indent))
		}
		prefix := fmt.Sprintf("%*d# %s => ", width, i+1, quote([]byte(k)))
		b.WriteString(prefix)
		writeText(b, m[k], indent+len(prefix))
	}
}

// quote renders a byte string in double quotes, escaping control
// characters and non-ASCII bytes as redis-cli does.
func quote(p []byte) string {
	var b strings.Builder
	b.Grow(len(p) + 2)
	b.WriteByte('"')
	for _, c := range p {
		switch c {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\a':
			b.WriteString(`\a`)
		case '\b':
			b.WriteString(`\b`)
		default:
			if c < 0x20 || c >= 0x7f {
				fmt.Fprintf(&b, `\x%02x`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
