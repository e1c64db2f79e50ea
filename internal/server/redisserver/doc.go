// Package redisserver serves the RESP protocol over TCP and, optionally, a
// unix socket.
//
// Every accepted connection runs in its own goroutine with its own
// service.Session. Bytes are read into the session, every complete request
// is executed in order, and all replies produced by one read are written
// back together, so pipelined clients get one write per batch. A protocol
// error is answered with "-ERR protocol error: ..." and the connection is
// closed; validation errors are answered and the connection stays open.
package redisserver
