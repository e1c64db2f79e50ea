package repl

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnbalancedQuotes is returned for a line with an open quote.
var ErrUnbalancedQuotes = errors.New("unbalanced quotes")

// SplitArgs splits a line into arguments. Double-quoted arguments accept
// the escapes \n \r \t \\ \" and \xHH; single-quoted arguments are
// verbatim except for \'. A closing quote must be followed by a space or
// the end of the line.
func SplitArgs(line string) ([]string, error) {
	var args []string
	i := 0
	for {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i >= len(line) {
			return args, nil
		}

		var cur strings.Builder
		switch line[i] {
		case '"':
			i++
			closed := false
			for i < len(line) && !closed {
				c := line[i]
				switch {
				case c == '\\' && i+3 < len(line) && line[i+1] == 'x' && isHex(line[i+2]) && isHex(line[i+3]):
					v, _ := strconv.ParseUint(line[i+2:i+4], 16, 8)
					cur.WriteByte(byte(v))
					i += 4
				case c == '\\' && i+1 < len(line):
					cur.WriteByte(unescape(line[i+1]))
					i += 2
				case c == '"':
					closed = true
					i++
				default:
					cur.WriteByte(c)
					i++
				}
			}
			if !closed || (i < len(line) && !isSpace(line[i])) {
				return nil, ErrUnbalancedQuotes
			}
		case '\'':
			i++
			closed := false
			for i < len(line) && !closed {
				c := line[i]
				switch {
				case c == '\\' && i+1 < len(line) && line[i+1] == '\'':
					cur.WriteByte('\'')
					i += 2
				case c == '\'':
					closed = true
					i++
				default:
					cur.WriteByte(c)
					i++
				}
			}
			if !closed || (i < len(line) && !isSpace(line[i])) {
				return nil, ErrUnbalancedQuotes
			}
		default:
			for i < len(line) && !isSpace(line[i]) {
				cur.WriteByte(line[i])
				i++
			}
		}
		args = append(args, cur.String())
	}
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	default:
		return c
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
