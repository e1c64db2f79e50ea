// Package resp implements the wire codec of respkv.
//
// The protocol is the Redis serialization protocol: every value is a
// self-describing frame introduced by a one byte prefix and terminated
// by CRLF. Twelve frame kinds are supported:
//
//	+  SimpleString     -  SimpleError     :  Integer
//	$  BulkString       $-1 NullBulkString
//	*  Array            *-1 NullArray
//	_  Null             #  Boolean         ,  Double
//	%  Map              ~  Set
//
// Encoding is a total function of a frame value (see AppendFrame).
// Decoding works on an accumulating buffer: Decode reports ErrNotComplete
// until the buffer holds a whole frame and never consumes bytes on that
// path, so a connection loop can simply append what it reads and retry.
//
// Aggregates (Array, Map, Set) are decoded in two passes. The measurement
// pass walks prefixes and declared lengths to find the size of the whole
// nested frame; values are only materialized once that many bytes are
// buffered. A Scanner runs the same measurement incrementally for one
// stream, picking up where the previous read left off.
package resp
