package command

import (
	"github.com/yndnr/respkv/internal/resp"
)

// Command names as they appear on the wire.
const (
	NameGet     = "get"
	NameSet     = "set"
	NameHGet    = "hget"
	NameHSet    = "hset"
	NameHGetAll = "hgetall"
)

// Backend is the store a Command is applied to. Implementations must be
// safe for concurrent use.
type Backend interface {
	Get(key string) (resp.Frame, bool)
	Set(key string, value resp.Frame)
	HGet(key, field string) (resp.Frame, bool)
	HSet(key, field string, value resp.Frame)
	// HGetAll returns a snapshot of the key's fields. ok is false when the
	// key has no field table.
	HGetAll(key string) (fields map[string]resp.Frame, ok bool)
}

// Command is one validated request.
type Command interface {
	// Name returns the wire name, or the raw name for Unrecognized.
	Name() string
	// Execute applies the command to b and returns the reply. It never fails.
	Execute(b Backend) resp.Frame
}

// Get reads a plain value.
type Get struct {
	Key string
}

// Set overwrites a plain value.
type Set struct {
	Key   string
	Value resp.Frame
}

// HGet reads one field of a hash.
type HGet struct {
	Key   string
	Field string
}

// HSet writes one field of a hash, creating the hash when needed.
type HSet struct {
	Key   string
	Field string
	Value resp.Frame
}

// HGetAll reads every field of a hash.
type HGetAll struct {
	Key string
}

// Unrecognized is any request naming an unknown command.
type Unrecognized struct {
	Command string
	Args    []resp.Frame
}

func (Get) Name() string            { return NameGet }
func (Set) Name() string            { return NameSet }
func (HGet) Name() string           { return NameHGet }
func (HSet) Name() string           { return NameHSet }
func (HGetAll) Name() string        { return NameHGetAll }
func (u Unrecognized) Name() string { return u.Command }
