package resp

import "strconv"

// Kind identifies one of the frame variants.
type Kind uint8

// Frame kinds.
const (
	KindSimpleString Kind = iota + 1
	KindSimpleError
	KindInteger
	KindBulkString
	KindArray
	KindNull
	KindNullArray
	KindNullBulkString
	KindBoolean
	KindDouble
	KindMap
	KindSet
)

var kindNames = [...]string{
	KindSimpleString:   "simple-string",
	KindSimpleError:    "simple-error",
	KindInteger:        "integer",
	KindBulkString:     "bulk-string",
	KindArray:          "array",
	KindNull:           "null",
	KindNullArray:      "null-array",
	KindNullBulkString: "null-bulk-string",
	KindBoolean:        "boolean",
	KindDouble:         "double",
	KindMap:            "map",
	KindSet:            "set",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Frame is one protocol value. The set of implementations is closed:
// only the types declared in this package satisfy it.
type Frame interface {
	// Kind reports the variant of the frame.
	Kind() Kind
	// AppendRESP appends the wire encoding of the frame to dst.
	AppendRESP(dst []byte) []byte

	sealed()
}

// SimpleString is a short CRLF-terminated text. It must not contain CR or LF.
type SimpleString string

// SimpleError is an error message sent as a simple string with a '-' prefix.
type SimpleError string

// Integer is a signed 64-bit number.
type Integer int64

// BulkString is a binary-safe, length-prefixed byte string.
type BulkString []byte

// Array is an ordered sequence of frames; elements may be aggregates.
type Array []Frame

// Null is the generic null marker.
type Null struct{}

// NullArray is the legacy null array marker ("*-1").
type NullArray struct{}

// NullBulkString is the legacy null bulk string marker ("$-1").
type NullBulkString struct{}

// Boolean is a true/false value.
type Boolean bool

// Double is a 64-bit floating point value.
type Double float64

// Map associates unique string keys with frames. It is always encoded in
// ascending key order, whatever order the entries were inserted in.
type Map map[string]Frame

// Set is an ordered sequence of frames. Elements are not deduplicated;
// they are encoded in the order they were added.
type Set []Frame

func (SimpleString) Kind() Kind   { return KindSimpleString }
func (SimpleError) Kind() Kind    { return KindSimpleError }
func (Integer) Kind() Kind        { return KindInteger }
func (BulkString) Kind() Kind     { return KindBulkString }
func (Array) Kind() Kind          { return KindArray }
func (Null) Kind() Kind           { return KindNull }
func (NullArray) Kind() Kind      { return KindNullArray }
func (NullBulkString) Kind() Kind { return KindNullBulkString }
func (Boolean) Kind() Kind        { return KindBoolean }
func (Double) Kind() Kind         { return KindDouble }
func (Map) Kind() Kind            { return KindMap }
func (Set) Kind() Kind            { return KindSet }

func (SimpleString) sealed()   {}
func (SimpleError) sealed()    {}
func (Integer) sealed()        {}
func (BulkString) sealed()     {}
func (Array) sealed()          {}
func (Null) sealed()           {}
func (NullArray) sealed()      {}
func (NullBulkString) sealed() {}
func (Boolean) sealed()        {}
func (Double) sealed()         {}
func (Map) sealed()            {}
func (Set) sealed()            {}

// OK is the "+OK" reply shared by every successful write.
var OK Frame = SimpleString("OK")

// NewBulkString returns a bulk string holding s.
func NewBulkString(s string) BulkString {
	return BulkString(s)
}

// NewArray returns an array of bulk strings, the shape of a client request.
func NewArray(args ...string) Array {
	a := make(Array, len(args))
	for i, arg := range args {
		a[i] = BulkString(arg)
	}
	return a
}

// String returns the payload as text.
func (b BulkString) String() string {
	return string(b)
}
