package resp

import "errors"

var (
	// ErrNotComplete means the buffer holds the prefix of a frame and more
	// bytes are needed. It is a control-flow signal, not a fault.
	ErrNotComplete = errors.New("resp: frame not complete")

	// ErrInvalidFrame means a frame is malformed past its header, such as
	// a bulk string whose payload is not followed by CRLF.
	ErrInvalidFrame = errors.New("resp: invalid frame")
	// ErrInvalidFrameType means an unknown prefix byte or a literal frame
	// (null, boolean, map key) with the wrong content.
	ErrInvalidFrameType = errors.New("resp: invalid frame type")
	// ErrInvalidFrameLength means a declared length is not a number or is
	// negative outside the null literals.
	ErrInvalidFrameLength = errors.New("resp: invalid frame length")
	// ErrParseInteger means an integer frame does not hold an int64.
	ErrParseInteger = errors.New("resp: invalid integer")
	// ErrParseDouble means a double frame does not hold a float.
	ErrParseDouble = errors.New("resp: invalid double")
	// ErrLimitExceeded means a frame is larger or deeper than the decoder
	// limits allow.
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// IsFatal reports whether err leaves the byte stream unusable. Every
// decode error except ErrNotComplete is fatal: framing is lost and the
// stream cannot be resynchronized.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrNotComplete)
}
