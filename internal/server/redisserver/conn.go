package redisserver

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// Conn is one client connection.
type Conn struct {
	id     string
	nc     net.Conn
	remote string
	unix   bool

	stopping atomic.Bool
	closed   atomic.Bool
}

func newConn(nc net.Conn) *Conn {
	_, unix := nc.(*net.UnixConn)
	var remote string
	if ra := nc.RemoteAddr(); ra != nil {
		remote = ra.String()
	}
	if unix && remote == "" {
		remote = "unix"
	}
	return &Conn{
		id:     ulid.Make().String(),
		nc:     nc,
		remote: remote,
		unix:   unix,
	}
}

// ID returns the connection's ULID.
func (c *Conn) ID() string {
	return c.id
}

// Close closes the socket once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.nc.Close()
}

// clientKey identifies the client for rate limiting: the IP for TCP and a
// shared key for unix sockets.
func (c *Conn) clientKey() string {
	if c.unix {
		return "unix"
	}
	host, _, err := net.SplitHostPort(c.remote)
	if err != nil {
		return c.remote
	}
	return host
}

func (c *Conn) setIdleDeadline(idle time.Duration) error {
	if c.stopping.Load() {
		return c.nc.SetReadDeadline(time.Now())
	}
	if idle <= 0 {
		return c.nc.SetReadDeadline(time.Time{})
	}
	return c.nc.SetReadDeadline(time.Now().Add(idle))
}

// interrupt wakes a blocked Read so the serving goroutine can exit after
// finishing the request it is handling.
func (c *Conn) interrupt() {
	c.stopping.Store(true)
	_ = c.nc.SetReadDeadline(time.Now())
}

func (c *Conn) write(p []byte, timeout time.Duration) error {
	if timeout > 0 {
		if err := c.nc.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	_, err := c.nc.Write(p)
	return err
}
