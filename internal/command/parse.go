package command

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/yndnr/respkv/internal/resp"
)

var (
	// ErrInvalidCommand means the frame is not shaped like a request.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrInvalidArgument means a known command got the wrong arity or an
	// argument of the wrong kind.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidUTF8 means a key or field name is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8")
)

// arity is the number of arguments after the command name.
var arity = map[string]int{
	NameGet:     1,
	NameSet:     2,
	NameHGet:    2,
	NameHSet:    3,
	NameHGetAll: 1,
}

// Parse validates a decoded request frame.
func Parse(f resp.Frame) (Command, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: no frame", ErrInvalidCommand)
	}
	arr, ok := f.(resp.Array)
	if !ok {
		return nil, fmt.Errorf("%w: expected array, got %s", ErrInvalidCommand, f.Kind())
	}
	return FromArray(arr)
}

// FromArray validates the elements of a request array.
func FromArray(arr resp.Array) (Command, error) {
	if len(arr) == 0 {
		return nil, fmt.Errorf("%w: empty request", ErrInvalidCommand)
	}
	nameFrame, ok := arr[0].(resp.BulkString)
	if !ok {
		return nil, fmt.Errorf("%w: command name must be a bulk string, got %s", ErrInvalidCommand, arr[0].Kind())
	}
	name := string(nameFrame)
	args := arr[1:]

	want, known := arity[name]
	if !known {
		return Unrecognized{Command: name, Args: args}, nil
	}
	if len(args) != want {
		return nil, fmt.Errorf("%w: wrong number of arguments for '%s' command: want %d, got %d",
			ErrInvalidArgument, name, want, len(args))
	}

	switch name {
	case NameGet:
		key, err := text(name, "key", args[0])
		if err != nil {
			return nil, err
		}
		return Get{Key: key}, nil

	case NameSet:
		key, err := text(name, "key", args[0])
		if err != nil {
			return nil, err
		}
		return Set{Key: key, Value: args[1]}, nil

	case NameHGet:
		key, field, err := keyField(name, args)
		if err != nil {
			return nil, err
		}
		return HGet{Key: key, Field: field}, nil

	case NameHSet:
		key, field, err := keyField(name, args)
		if err != nil {
			return nil, err
		}
		return HSet{Key: key, Field: field, Value: args[2]}, nil

	default: // NameHGetAll
		key, err := text(name, "key", args[0])
		if err != nil {
			return nil, err
		}
		return HGetAll{Key: key}, nil
	}
}

func keyField(cmd string, args []resp.Frame) (string, string, error) {
	key, err := text(cmd, "key", args[0])
	if err != nil {
		return "", "", err
	}
	field, err := text(cmd, "field", args[1])
	if err != nil {
		return "", "", err
	}
	return key, field, nil
}

// text extracts a key or field name, which must be a single-line UTF-8
// bulk string.
func text(cmd, what string, f resp.Frame) (string, error) {
	b, ok := f.(resp.BulkString)
	if !ok {
		return "", fmt.Errorf("%w: '%s' %s must be a bulk string, got %s", ErrInvalidArgument, cmd, what, f.Kind())
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: '%s' %s", ErrInvalidUTF8, cmd, what)
	}
	// Field names are written back as map keys, which are simple strings.
	if bytes.ContainsAny(b, "\r\n") {
		return "", fmt.Errorf("%w: '%s' %s must not contain CR or LF", ErrInvalidArgument, cmd, what)
	}
	return string(b), nil
}
