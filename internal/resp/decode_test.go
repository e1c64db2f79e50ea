package resp

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleFrames covers every kind, including aggregates nested in each other.
func sampleFrames() []Frame {
	return []Frame{
		SimpleString("hello"),
		SimpleString(""),
		SimpleError("ERR something went wrong"),
		Integer(0),
		Integer(42),
		Integer(-42),
		BulkString("hello world"),
		BulkString{},
		BulkString("bin\r\n\x00\xff"),
		NullBulkString{},
		NullArray{},
		Null{},
		Boolean(true),
		Boolean(false),
		Double(123.456),
		Double(-2.5),
		Double(1.5e8),
		Double(-1.234e-9),
		Array{},
		NewArray("hset", "user:1", "name", "alice"),
		Array{Integer(1), Array{SimpleString("a"), Null{}, NullBulkString{}}, Boolean(true)},
		Array{NullArray{}, Array{}, Set{}, Map{}},
		Set{},
		Set{Integer(1), Integer(1), BulkString("x")},
		Map{},
		Map{"f": BulkString("v")},
		Map{"b": Integer(2), "a": Array{Double(0.5)}, "c": Map{"nested": Set{Null{}}}},
	}
}

// ============================================================
// Decode Tests - Single Frames
// ============================================================

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Frame
	}{
		{name: "simple string", input: "+OK\r\n", want: SimpleString("OK")},
		{name: "simple error", input: "-ERR bad\r\n", want: SimpleError("ERR bad")},
		{name: "integer without sign", input: ":1000\r\n", want: Integer(1000)},
		{name: "integer with plus", input: ":+7\r\n", want: Integer(7)},
		{name: "negative integer", input: ":-7\r\n", want: Integer(-7)},
		{name: "bulk string", input: "$5\r\nhello\r\n", want: BulkString("hello")},
		{name: "empty bulk string", input: "$0\r\n\r\n", want: BulkString{}},
		{name: "bulk string with CRLF inside", input: "$4\r\na\r\nb\r\n", want: BulkString("a\r\nb")},
		{name: "null bulk string", input: "$-1\r\n", want: NullBulkString{}},
		{name: "null array", input: "*-1\r\n", want: NullArray{}},
		{name: "empty array", input: "*0\r\n", want: Array{}},
		{name: "null", input: "_\r\n", want: Null{}},
		{name: "true", input: "#t\r\n", want: Boolean(true)},
		{name: "false", input: "#f\r\n", want: Boolean(false)},
		{name: "double", input: ",1000.0\r\n", want: Double(1000)},
		{name: "double scientific", input: ",+1.5e8\r\n", want: Double(1.5e8)},
		{
			name:  "array of mixed frames",
			input: "*2\r\n+hello\r\n-error\r\n",
			want:  Array{SimpleString("hello"), SimpleError("error")},
		},
		{
			name:  "map",
			input: "%2\r\n+hello\r\n+world\r\n+n\r\n:+1\r\n",
			want:  Map{"hello": SimpleString("world"), "n": Integer(1)},
		},
		{
			name:  "set",
			input: "~3\r\n+hello\r\n-error\r\n:1000\r\n",
			want:  Set{SimpleString("hello"), SimpleError("error"), Integer(1000)},
		},
		{
			name:  "array with nested nulls",
			input: "*3\r\n$-1\r\n*-1\r\n_\r\n",
			want:  Array{NullBulkString{}, NullArray{}, Null{}},
		},
		{
			name:  "invalid utf8 simple string is replaced",
			input: "+a\xffb\r\n",
			want:  SimpleString("a�b"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.input), n)
		})
	}
}

func TestDecode_LeavesTrailingBytes(t *testing.T) {
	input := []byte("+first\r\n+second\r\n")
	got, n, err := Decode(input)
	require.NoError(t, err)
	assert.Equal(t, SimpleString("first"), got)
	assert.Equal(t, 8, n)
	assert.Equal(t, "+first\r\n+second\r\n", string(input))
}

// ============================================================
// Decode Tests - Errors
// ============================================================

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "unknown prefix", input: "?abc\r\n", wantErr: ErrInvalidFrameType},
		{name: "integer not numeric", input: ":abc\r\n", wantErr: ErrParseInteger},
		{name: "integer overflow", input: ":99999999999999999999\r\n", wantErr: ErrParseInteger},
		{name: "double not numeric", input: ",x\r\n", wantErr: ErrParseDouble},
		{name: "bulk length not numeric", input: "$abc\r\n", wantErr: ErrInvalidFrameLength},
		{name: "bulk length empty", input: "$\r\n", wantErr: ErrInvalidFrameLength},
		{name: "negative bulk length", input: "$-2\r\n", wantErr: ErrInvalidFrameLength},
		{name: "negative array length", input: "*-5\r\n", wantErr: ErrInvalidFrameLength},
		{name: "negative map length", input: "%-1\r\n", wantErr: ErrInvalidFrameLength},
		{name: "bulk without terminator", input: "$3\r\nabcXY", wantErr: ErrInvalidFrame},
		{name: "bad boolean", input: "#x\r\n", wantErr: ErrInvalidFrameType},
		{name: "bad null", input: "_x\r\n", wantErr: ErrInvalidFrameType},
		{name: "map key not simple string", input: "%1\r\n:1\r\n+v\r\n", wantErr: ErrInvalidFrameType},
		{name: "unknown prefix inside array", input: "*2\r\n:+1\r\n?\r\n", wantErr: ErrInvalidFrameType},
		{name: "bad integer inside complete array", input: "*2\r\n:+1\r\n:x\r\n", wantErr: ErrParseInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			buf.WriteString(tt.input)

			got, err := ReadFrame(&buf)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
			assert.True(t, IsFatal(err))
			assert.Equal(t, tt.input, buf.String(), "buffer must not be consumed on error")
		})
	}
}

func TestDecode_NotComplete(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "prefix only", input: "+"},
		{name: "simple string without LF", input: "+OK\r"},
		{name: "bulk header only", input: "$5\r\n"},
		{name: "bulk payload short", input: "$5\r\nhel"},
		{name: "bulk missing terminator", input: "$5\r\nhello"},
		{name: "null bulk string prefix", input: "$-"},
		{name: "null array prefix", input: "*-1\r"},
		{name: "boolean prefix", input: "#t"},
		{name: "null prefix", input: "_"},
		{name: "array missing element", input: "*2\r\n$3\r\nget\r\n"},
		{name: "array inner bulk short", input: "*2\r\n$3\r\nget\r\n$5\r\nab"},
		{name: "map missing value", input: "%1\r\n+key\r\n"},
		{name: "set nested short", input: "~1\r\n*2\r\n:+1\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			buf.WriteString(tt.input)

			got, err := ReadFrame(&buf)
			require.ErrorIs(t, err, ErrNotComplete)
			assert.Nil(t, got)
			assert.False(t, IsFatal(err))
			assert.Equal(t, tt.input, buf.String())
		})
	}
}

// ============================================================
// Streaming Tests
// ============================================================

func TestReadFrame_ByteAtATime(t *testing.T) {
	for _, f := range sampleFrames() {
		enc := Encode(f)
		t.Run(fmt.Sprintf("%s/%q", f.Kind(), enc), func(t *testing.T) {
			var buf bytes.Buffer
			for i, b := range enc {
				buf.WriteByte(b)
				got, err := ReadFrame(&buf)
				if i < len(enc)-1 {
					require.ErrorIs(t, err, ErrNotComplete, "after %d of %d bytes", i+1, len(enc))
					require.Equal(t, enc[:i+1], buf.Bytes())
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, f, got)
				assert.Zero(t, buf.Len())
			}
		})
	}
}

func TestReadFrame_Pipelined(t *testing.T) {
	frames := sampleFrames()
	for i := 0; i+1 < len(frames); i++ {
		first, second := frames[i], frames[i+1]

		var buf bytes.Buffer
		buf.Write(Encode(first))
		buf.Write(Encode(second))

		got, err := ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, first, got)

		got, err = ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, second, got)
		assert.Zero(t, buf.Len())
	}
}

func TestReadFrame_PipelinedCommands(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("*3\r\n$3\r\nset\r\n$1\r\nk\r\n$1\r\nv\r\n*2\r\n$3\r\nget\r\n$1\r\nk\r\n*2\r\n$3\r\nget")

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, NewArray("set", "k", "v"), got)

	got, err = ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, NewArray("get", "k"), got)

	_, err = ReadFrame(&buf)
	require.ErrorIs(t, err, ErrNotComplete)
	assert.Equal(t, "*2\r\n$3\r\nget", buf.String())

	buf.WriteString("\r\n$1\r\nk\r\n")
	got, err = ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, NewArray("get", "k"), got)
	assert.Zero(t, buf.Len())
}

func TestReadFrame_RoundTrip(t *testing.T) {
	for _, f := range sampleFrames() {
		var buf bytes.Buffer
		buf.Write(Encode(f))
		got, err := ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestReadFrame_MapLosesInsertionOrder(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%2\r\n+z\r\n:+1\r\n+a\r\n:+2\r\n")

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	m, ok := got.(Map)
	require.True(t, ok)
	assert.Equal(t, Map{"a": Integer(2), "z": Integer(1)}, m)
	assert.Equal(t, "%2\r\n+a\r\n:+2\r\n+z\r\n:+1\r\n", string(Encode(m)))
}

// ============================================================
// Measure and Limits
// ============================================================

func TestMeasure(t *testing.T) {
	n, err := Measure([]byte("*1\r\n$3\r\nfoo\r\n+rest\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	n, err = Measure([]byte("%1\r\n+k\r\n*-1\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	_, err = Measure([]byte("*2\r\n$3\r\nfoo\r\n"))
	assert.ErrorIs(t, err, ErrNotComplete)
}

func TestDecoder_Limits(t *testing.T) {
	tests := []struct {
		name   string
		limits Limits
		input  string
	}{
		{name: "bulk too long", limits: Limits{MaxBulkLen: 4}, input: "$5\r\nhello\r\n"},
		{name: "bulk header over limit before payload", limits: Limits{MaxBulkLen: 4}, input: "$1000\r\n"},
		{name: "array too long", limits: Limits{MaxAggregateLen: 2}, input: "*3\r\n"},
		{name: "map too long", limits: Limits{MaxAggregateLen: 1}, input: "%2\r\n"},
		{name: "nested too deep", limits: Limits{MaxDepth: 2}, input: "*1\r\n*1\r\n*1\r\n:+1\r\n"},
		{name: "line without CRLF", limits: Limits{MaxBulkLen: 8}, input: "+0123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(tt.limits)
			_, _, err := d.Decode([]byte(tt.input))
			assert.ErrorIs(t, err, ErrLimitExceeded)
		})
	}

	t.Run("zero limits use defaults", func(t *testing.T) {
		d := NewDecoder(Limits{})
		got, _, err := d.Decode([]byte("*1\r\n*1\r\n:+1\r\n"))
		require.NoError(t, err)
		assert.Equal(t, Array{Array{Integer(1)}}, got)
	})
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(ErrNotComplete))
	assert.True(t, IsFatal(ErrInvalidFrameType))
	assert.True(t, IsFatal(fmt.Errorf("%w: detail", ErrParseDouble)))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", ErrNotComplete), ErrNotComplete))
}
