package resp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Default decoder limits.
const (
	// DefaultMaxBulkLen bounds a single bulk string and any header line (512 MiB).
	DefaultMaxBulkLen = 512 * 1024 * 1024

	// DefaultMaxAggregateLen bounds the element count of an array, set or map.
	DefaultMaxAggregateLen = 1 << 20

	// DefaultMaxDepth bounds aggregate nesting.
	DefaultMaxDepth = 512
)

// Limits bounds what a Decoder accepts. Zero fields fall back to the defaults.
type Limits struct {
	MaxBulkLen      int
	MaxAggregateLen int
	MaxDepth        int
}

// DefaultLimits returns the limits used by the package-level functions.
func DefaultLimits() Limits {
	return Limits{
		MaxBulkLen:      DefaultMaxBulkLen,
		MaxAggregateLen: DefaultMaxAggregateLen,
		MaxDepth:        DefaultMaxDepth,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxBulkLen <= 0 {
		l.MaxBulkLen = def.MaxBulkLen
	}
	if l.MaxAggregateLen <= 0 {
		l.MaxAggregateLen = def.MaxAggregateLen
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = def.MaxDepth
	}
	return l
}

// Decoder turns buffered bytes into frames. It holds no per-stream state
// and is safe for concurrent use.
type Decoder struct {
	limits Limits
}

// NewDecoder returns a decoder enforcing l.
func NewDecoder(l Limits) *Decoder {
	return &Decoder{limits: l.withDefaults()}
}

var std = NewDecoder(DefaultLimits())

// Decode decodes the frame at the front of buf using the default limits.
func Decode(buf []byte) (Frame, int, error) {
	return std.Decode(buf)
}

// ReadFrame decodes and consumes one frame from buf using the default limits.
func ReadFrame(buf *bytes.Buffer) (Frame, error) {
	return std.ReadFrame(buf)
}

// Measure reports the encoded size of the frame at the front of buf
// using the default limits.
func Measure(buf []byte) (int, error) {
	return std.Measure(buf)
}

// Decode decodes the frame at the front of buf and reports how many bytes
// it occupies. buf is never modified. When buf holds only part of a frame
// the error is ErrNotComplete.
func (d *Decoder) Decode(buf []byte) (Frame, int, error) {
	n, err := d.measure(buf, 0)
	if err != nil {
		return nil, 0, err
	}
	f, err := d.parseMeasured(buf[:n])
	if err != nil {
		return nil, 0, err
	}
	return f, n, nil
}

// parseMeasured parses buf, which must hold exactly one measured frame.
func (d *Decoder) parseMeasured(buf []byte) (Frame, error) {
	f, m, err := d.parse(buf)
	if err != nil {
		return nil, err
	}
	if m != len(buf) {
		return nil, fmt.Errorf("%w: decoded %d bytes of a %d byte frame", ErrInvalidFrame, m, len(buf))
	}
	return f, nil
}

// ReadFrame decodes one frame from the front of buf and advances buf past
// it. On any error, including ErrNotComplete, buf is left untouched.
func (d *Decoder) ReadFrame(buf *bytes.Buffer) (Frame, error) {
	f, n, err := d.Decode(buf.Bytes())
	if err != nil {
		return nil, err
	}
	buf.Next(n)
	return f, nil
}

// Measure reports the encoded size of the frame at the front of buf
// without materializing it. It returns ErrNotComplete unless buf holds
// the entire frame, nested elements included.
func (d *Decoder) Measure(buf []byte) (int, error) {
	return d.measure(buf, 0)
}

// measure is the first pass: it inspects only prefixes, header lines and
// declared lengths. The result never exceeds len(buf).
func (d *Decoder) measure(buf []byte, depth int) (int, error) {
	if len(buf) == 0 {
		return 0, ErrNotComplete
	}

	switch buf[0] {
	case '+', '-', ':', ',':
		end, err := d.lineEnd(buf)
		if err != nil {
			return 0, err
		}
		return end + len(crlf), nil

	case '_':
		return measureLiteral(buf, nullLiteral)

	case '#':
		_, n, err := matchBoolean(buf)
		return n, err

	case '$':
		if n, ok, err := matchLiteral(buf, nullBulkStringLiteral); ok || err != nil {
			return n, err
		}
		hdr, n, err := d.header(buf)
		if err != nil {
			return 0, err
		}
		if n > d.limits.MaxBulkLen {
			return 0, fmt.Errorf("%w: bulk length %d exceeds %d", ErrLimitExceeded, n, d.limits.MaxBulkLen)
		}
		total := hdr + n + len(crlf)
		if total > len(buf) {
			return 0, ErrNotComplete
		}
		return total, nil

	case '*', '~':
		if buf[0] == '*' {
			if n, ok, err := matchLiteral(buf, nullArrayLiteral); ok || err != nil {
				return n, err
			}
		}
		hdr, count, err := d.aggregateHeader(buf, depth)
		if err != nil {
			return 0, err
		}
		off := hdr
		for i := 0; i < count; i++ {
			n, err := d.measure(buf[off:], depth+1)
			if err != nil {
				return 0, err
			}
			off += n
		}
		return off, nil

	case '%':
		hdr, count, err := d.aggregateHeader(buf, depth)
		if err != nil {
			return 0, err
		}
		off := hdr
		for i := 0; i < count; i++ {
			n, err := d.measureKey(buf[off:])
			if err != nil {
				return 0, err
			}
			off += n

			n, err = d.measure(buf[off:], depth+1)
			if err != nil {
				return 0, err
			}
			off += n
		}
		return off, nil
	}

	return 0, fmt.Errorf("%w: unknown prefix %q", ErrInvalidFrameType, buf[0])
}

// measureKey measures a map key, which must be a simple string.
func (d *Decoder) measureKey(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrNotComplete
	}
	if buf[0] != '+' {
		return 0, fmt.Errorf("%w: map key must be a simple string, got prefix %q", ErrInvalidFrameType, buf[0])
	}
	end, err := d.lineEnd(buf)
	if err != nil {
		return 0, err
	}
	return end + len(crlf), nil
}

// parse is the second pass. buf holds exactly one measured frame.
func (d *Decoder) parse(buf []byte) (Frame, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrNotComplete
	}

	switch buf[0] {
	case '+':
		text, n, err := d.line(buf)
		if err != nil {
			return nil, 0, err
		}
		return SimpleString(lossyString(text)), n, nil

	case '-':
		text, n, err := d.line(buf)
		if err != nil {
			return nil, 0, err
		}
		return SimpleError(lossyString(text)), n, nil

	case ':':
		text, n, err := d.line(buf)
		if err != nil {
			return nil, 0, err
		}
		v, err := strconv.ParseInt(lossyString(text), 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrParseInteger, err)
		}
		return Integer(v), n, nil

	case ',':
		text, n, err := d.line(buf)
		if err != nil {
			return nil, 0, err
		}
		v, err := strconv.ParseFloat(lossyString(text), 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrParseDouble, err)
		}
		return Double(v), n, nil

	case '_':
		n, err := measureLiteral(buf, nullLiteral)
		if err != nil {
			return nil, 0, err
		}
		return Null{}, n, nil

	case '#':
		v, n, err := matchBoolean(buf)
		if err != nil {
			return nil, 0, err
		}
		return Boolean(v), n, nil

	case '$':
		n, ok, err := matchLiteral(buf, nullBulkStringLiteral)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			return NullBulkString{}, n, nil
		}
		return d.parseBulkString(buf)

	case '*':
		n, ok, err := matchLiteral(buf, nullArrayLiteral)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			return NullArray{}, n, nil
		}
		elems, n, err := d.parseElements(buf)
		if err != nil {
			return nil, 0, err
		}
		return Array(elems), n, nil

	case '~':
		elems, n, err := d.parseElements(buf)
		if err != nil {
			return nil, 0, err
		}
		return Set(elems), n, nil

	case '%':
		return d.parseMap(buf)
	}

	return nil, 0, fmt.Errorf("%w: unknown prefix %q", ErrInvalidFrameType, buf[0])
}

func (d *Decoder) parseBulkString(buf []byte) (Frame, int, error) {
	hdr, n, err := d.header(buf)
	if err != nil {
		return nil, 0, err
	}
	end := hdr + n
	if end+len(crlf) > len(buf) {
		return nil, 0, ErrNotComplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return nil, 0, fmt.Errorf("%w: bulk string of length %d is not terminated by CRLF", ErrInvalidFrame, n)
	}
	payload := make([]byte, n)
	copy(payload, buf[hdr:end])
	return BulkString(payload), end + len(crlf), nil
}

func (d *Decoder) parseElements(buf []byte) ([]Frame, int, error) {
	hdr, count, err := d.header(buf)
	if err != nil {
		return nil, 0, err
	}
	elems := make([]Frame, 0, count)
	off := hdr
	for i := 0; i < count; i++ {
		f, n, err := d.parse(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		elems = append(elems, f)
		off += n
	}
	return elems, off, nil
}

func (d *Decoder) parseMap(buf []byte) (Frame, int, error) {
	hdr, count, err := d.header(buf)
	if err != nil {
		return nil, 0, err
	}
	m := make(Map, count)
	off := hdr
	for i := 0; i < count; i++ {
		if buf[off] != '+' {
			return nil, 0, fmt.Errorf("%w: map key must be a simple string, got prefix %q", ErrInvalidFrameType, buf[off])
		}
		key, n, err := d.line(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n

		value, n, err := d.parse(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		m[lossyString(key)] = value
	}
	return m, off, nil
}

// aggregateHeader reads the element count of an aggregate and checks it,
// together with the nesting depth, against the limits.
func (d *Decoder) aggregateHeader(buf []byte, depth int) (int, int, error) {
	if depth >= d.limits.MaxDepth {
		return 0, 0, fmt.Errorf("%w: nesting deeper than %d", ErrLimitExceeded, d.limits.MaxDepth)
	}
	hdr, count, err := d.header(buf)
	if err != nil {
		return 0, 0, err
	}
	if count > d.limits.MaxAggregateLen {
		return 0, 0, fmt.Errorf("%w: %d elements exceeds %d", ErrLimitExceeded, count, d.limits.MaxAggregateLen)
	}
	return hdr, count, nil
}

// header parses "<prefix><length>\r\n" and returns the header size and
// the declared length. Declared lengths are never negative: the only
// negative headers are the null literals, matched before this is called.
func (d *Decoder) header(buf []byte) (int, int, error) {
	text, hdr, err := d.line(buf)
	if err != nil {
		return 0, 0, err
	}
	n, err := strconv.Atoi(lossyString(text))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: %w", ErrInvalidFrameLength, text, err)
	}
	if n < 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidFrameLength, n)
	}
	return hdr, n, nil
}

// line returns the payload between the prefix byte and the first CRLF,
// and the size of the whole line including the terminator.
func (d *Decoder) line(buf []byte) ([]byte, int, error) {
	end, err := d.lineEnd(buf)
	if err != nil {
		return nil, 0, err
	}
	return buf[1:end], end + len(crlf), nil
}

// lineEnd returns the index of the first CRLF after the prefix byte.
func (d *Decoder) lineEnd(buf []byte) (int, error) {
	i := bytes.Index(buf[1:], []byte(crlf))
	if i < 0 {
		if len(buf) > d.limits.MaxBulkLen {
			return 0, fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, d.limits.MaxBulkLen)
		}
		return 0, ErrNotComplete
	}
	return i + 1, nil
}

// matchLiteral checks buf against a fixed encoding. ok is true when buf
// starts with lit. When buf is a strict prefix of lit the frame could still
// turn out to be lit, so the error is ErrNotComplete.
func matchLiteral(buf []byte, lit string) (int, bool, error) {
	if len(buf) >= len(lit) {
		if string(buf[:len(lit)]) == lit {
			return len(lit), true, nil
		}
		return 0, false, nil
	}
	if string(buf) == lit[:len(buf)] {
		return 0, false, ErrNotComplete
	}
	return 0, false, nil
}

// measureLiteral requires buf to start with lit.
func measureLiteral(buf []byte, lit string) (int, error) {
	n, ok, err := matchLiteral(buf, lit)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: expected %q", ErrInvalidFrameType, lit)
	}
	return n, nil
}

// matchBoolean accepts exactly "#t\r\n" or "#f\r\n".
func matchBoolean(buf []byte) (bool, int, error) {
	n, ok, err := matchLiteral(buf, trueLiteral)
	if ok || err != nil {
		return true, n, err
	}
	n, ok, err = matchLiteral(buf, falseLiteral)
	if ok || err != nil {
		return false, n, err
	}
	return false, 0, fmt.Errorf("%w: expected %q or %q", ErrInvalidFrameType, trueLiteral, falseLiteral)
}

// lossyString converts b to a string, replacing invalid UTF-8 sequences
// with U+FFFD.
func lossyString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
