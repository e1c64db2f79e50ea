package resp

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

const crlf = "\r\n"

// Fixed encodings.
const (
	nullLiteral           = "_\r\n"
	nullArrayLiteral      = "*-1\r\n"
	nullBulkStringLiteral = "$-1\r\n"
	trueLiteral           = "#t\r\n"
	falseLiteral          = "#f\r\n"
)

// Encode returns the wire encoding of f.
func Encode(f Frame) []byte {
	return f.AppendRESP(make([]byte, 0, 64))
}

// AppendFrame appends the wire encoding of f to dst.
func AppendFrame(dst []byte, f Frame) []byte {
	return f.AppendRESP(dst)
}

// +<text>\r\n
func (s SimpleString) AppendRESP(dst []byte) []byte {
	dst = append(dst, '+')
	dst = append(dst, s...)
	return append(dst, crlf...)
}

// -<text>\r\n
func (e SimpleError) AppendRESP(dst []byte) []byte {
	dst = append(dst, '-')
	dst = append(dst, e...)
	return append(dst, crlf...)
}

// :[+|-]<digits>\r\n, the sign is always written.
func (n Integer) AppendRESP(dst []byte) []byte {
	dst = append(dst, ':')
	if n >= 0 {
		dst = append(dst, '+')
	}
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, crlf...)
}

// $<len>\r\n<bytes>\r\n
func (b BulkString) AppendRESP(dst []byte) []byte {
	dst = appendHeader(dst, '$', len(b))
	dst = append(dst, b...)
	return append(dst, crlf...)
}

// *<count>\r\n<element-1>...<element-n>
func (a Array) AppendRESP(dst []byte) []byte {
	dst = appendHeader(dst, '*', len(a))
	for _, f := range a {
		dst = f.AppendRESP(dst)
	}
	return dst
}

func (Null) AppendRESP(dst []byte) []byte {
	return append(dst, nullLiteral...)
}

func (NullArray) AppendRESP(dst []byte) []byte {
	return append(dst, nullArrayLiteral...)
}

func (NullBulkString) AppendRESP(dst []byte) []byte {
	return append(dst, nullBulkStringLiteral...)
}

func (b Boolean) AppendRESP(dst []byte) []byte {
	if b {
		return append(dst, trueLiteral...)
	}
	return append(dst, falseLiteral...)
}

// ,<value>\r\n, see FormatDouble.
func (d Double) AppendRESP(dst []byte) []byte {
	dst = append(dst, ',')
	dst = append(dst, FormatDouble(float64(d))...)
	return append(dst, crlf...)
}

// %<count>\r\n followed by key/value pairs sorted by key. Keys are
// written as simple strings.
func (m Map) AppendRESP(dst []byte) []byte {
	dst = appendHeader(dst, '%', len(m))
	for _, k := range m.Keys() {
		dst = SimpleString(k).AppendRESP(dst)
		dst = m[k].AppendRESP(dst)
	}
	return dst
}

// ~<count>\r\n<element-1>...<element-n>, in construction order.
func (s Set) AppendRESP(dst []byte) []byte {
	dst = appendHeader(dst, '~', len(s))
	for _, f := range s {
		dst = f.AppendRESP(dst)
	}
	return dst
}

// Keys returns the map keys in ascending order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func appendHeader(dst []byte, prefix byte, n int) []byte {
	dst = append(dst, prefix)
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, crlf...)
}

// Double formatting thresholds.
const (
	doubleSciAbove = 1e8
	doubleSciBelow = 1e-8
)

// FormatDouble renders v the way Double frames carry it on the wire.
//
// Values whose magnitude is above 1e8 or, when non-zero, below 1e-8 use
// signed scientific notation with a bare exponent ("+1.5e8",
// "-1.234e-9"). Everything else is fixed point with the shortest
// round-tripping digits and an explicit '+' for non-negative values
// ("+123.456"). Infinities and NaN use the RESP3 spellings.
func FormatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs > doubleSciAbove || (abs < doubleSciBelow && v != 0) {
		return formatScientific(v)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !math.Signbit(v) {
		s = "+" + s
	}
	return s
}

// formatScientific turns strconv's "1.5e+08" into "+1.5e8".
func formatScientific(v float64) string {
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	n, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	if v > 0 {
		b.WriteByte('+')
	}
	b.WriteString(mantissa)
	b.WriteByte('e')
	b.WriteString(strconv.Itoa(n))
	return b.String()
}
