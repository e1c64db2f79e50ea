// Package command turns decoded request frames into typed commands and
// applies them to a Backend.
//
// A request is an Array whose first element is a BulkString naming the
// command. Names are matched case-sensitively against get, set, hget, hset
// and hgetall; any other name yields Unrecognized, which replies OK and
// touches nothing. Parse is the only fallible step: once a Command exists,
// Execute always produces a reply frame.
package command
