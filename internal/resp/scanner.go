package resp

import (
	"bytes"
	"fmt"
)

// Scanner reads frames from a buffer that only grows at its end between
// calls, such as the receive buffer of one connection. It remembers how
// much of a partial frame it has already measured, so a large aggregate
// arriving in many small reads is measured once in total rather than once
// per read.
//
// A Scanner is not safe for concurrent use.
type Scanner struct {
	d *Decoder

	// off is the size of the measured prefix of the pending frame.
	off   int
	stack []pending
	// scanned is how far past off a CRLF has already been searched for.
	scanned int
}

type pending struct {
	left    int
	isMap   bool
	wantKey bool
}

// NewScanner returns a scanner that measures and parses with d.
func NewScanner(d *Decoder) *Scanner {
	if d == nil {
		d = std
	}
	return &Scanner{d: d}
}

// Reset forgets any partially measured frame. Call it when the buffer is
// discarded or replaced.
func (s *Scanner) Reset() {
	s.off = 0
	s.stack = s.stack[:0]
	s.scanned = 0
}

// ReadFrame decodes one frame from the front of buf and advances buf past
// it. On ErrNotComplete buf is left untouched and the measured prefix is
// kept for the next call. Any other error also resets the scanner.
func (s *Scanner) ReadFrame(buf *bytes.Buffer) (Frame, error) {
	b := buf.Bytes()
	n, err := s.measure(b)
	if err != nil {
		return nil, err
	}
	f, err := s.d.parseMeasured(b[:n])
	if err != nil {
		return nil, err
	}
	buf.Next(n)
	return f, nil
}

// measure advances through buf one element at a time. Each step either
// completes an element and moves off forward, or leaves the state as is.
func (s *Scanner) measure(buf []byte) (int, error) {
	if s.off > len(buf) {
		s.Reset()
	}
	for {
		rest := buf[s.off:]
		top := s.top()
		wantKey := top != nil && top.wantKey
		if !wantKey || (len(rest) > 0 && rest[0] == '+') {
			if err := s.waitLine(rest); err != nil {
				return 0, s.fail(err)
			}
		}

		if wantKey {
			n, err := s.d.measureKey(rest)
			if err != nil {
				return 0, s.fail(err)
			}
			s.advance(n)
			top.wantKey = false
			continue
		}

		n, count, aggregate, err := s.head(rest)
		if err != nil {
			return 0, s.fail(err)
		}
		s.advance(n)
		if aggregate && count > 0 {
			s.stack = append(s.stack, pending{left: count, isMap: rest[0] == '%', wantKey: rest[0] == '%'})
			continue
		}
		if s.complete() {
			total := s.off
			s.Reset()
			return total, nil
		}
	}
}

// head measures a scalar element whole, or only the header line of an
// aggregate.
func (s *Scanner) head(buf []byte) (n, count int, aggregate bool, err error) {
	if len(buf) == 0 {
		return 0, 0, false, ErrNotComplete
	}
	switch buf[0] {
	case '*':
		if n, ok, err := matchLiteral(buf, nullArrayLiteral); ok || err != nil {
			return n, 0, false, err
		}
		fallthrough
	case '~', '%':
		n, count, err = s.d.aggregateHeader(buf, len(s.stack))
		return n, count, true, err
	}
	n, err = s.d.measure(buf, len(s.stack))
	return n, 0, false, err
}

// waitLine reports ErrNotComplete while the first line of a line-framed
// element has no CRLF yet. The search resumes where the previous call
// stopped.
func (s *Scanner) waitLine(buf []byte) error {
	if len(buf) == 0 {
		return ErrNotComplete
	}
	switch buf[0] {
	case '+', '-', ':', ',', '$', '*', '~', '%':
	default:
		return nil
	}
	from := max(1, s.scanned-1)
	if from < len(buf) && bytes.Contains(buf[from:], []byte(crlf)) {
		return nil
	}
	if len(buf) > s.d.limits.MaxBulkLen {
		return fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, s.d.limits.MaxBulkLen)
	}
	s.scanned = len(buf)
	return ErrNotComplete
}

func (s *Scanner) advance(n int) {
	s.off += n
	s.scanned = 0
}

func (s *Scanner) top() *pending {
	if len(s.stack) == 0 {
		return nil
	}
	return &s.stack[len(s.stack)-1]
}

// complete records a finished element and closes every aggregate it
// fills. It reports whether the outermost frame is done.
func (s *Scanner) complete() bool {
	for len(s.stack) > 0 {
		top := &s.stack[len(s.stack)-1]
		top.left--
		if top.left > 0 {
			top.wantKey = top.isMap
			return false
		}
		s.stack = s.stack[:len(s.stack)-1]
	}
	return true
}

func (s *Scanner) fail(err error) error {
	if IsFatal(err) {
		s.Reset()
	}
	return err
}
