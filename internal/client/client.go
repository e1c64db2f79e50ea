package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/respkv/internal/resp"
)

// ErrClosed is returned by requests on a closed or broken client.
var ErrClosed = errors.New("client: connection closed")

// ServerError is a SimpleError reply surfaced as an error by Do.
type ServerError string

func (e ServerError) Error() string { return string(e) }

// Options configures Dial.
type Options struct {
	// DialTimeout bounds connection setup. Zero means 5s.
	DialTimeout time.Duration
	// Limits bound reply decoding. Zero fields use the decoder defaults.
	Limits resp.Limits
}

// Client is one RESP connection.
type Client struct {
	addr string
	conn net.Conn
	dec  *resp.Decoder

	mu     sync.Mutex
	buf    bytes.Buffer
	rd     []byte
	broken bool
}

// Dial connects to addr. An address starting with "unix:" or "/" is a
// unix socket path; anything else is a TCP host:port.
func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	network, address := splitAddr(addr)
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{
		addr: addr,
		conn: conn,
		dec:  resp.NewDecoder(opts.Limits),
		rd:   make([]byte, 4096),
	}, nil
}

func splitAddr(addr string) (network, address string) {
	switch {
	case strings.HasPrefix(addr, "unix:"):
		return "unix", strings.TrimPrefix(addr, "unix:")
	case strings.HasPrefix(addr, "/"):
		return "unix", addr
	default:
		return "tcp", addr
	}
}

// Addr returns the address the client dialed.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends args as an array of bulk strings and returns the reply. A
// SimpleError reply is returned as the frame and as a ServerError.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Frame, error) {
	f, err := c.Send(ctx, resp.NewArray(args...))
	if err != nil {
		return nil, err
	}
	if e, ok := f.(resp.SimpleError); ok {
		return f, ServerError(e)
	}
	return f, nil
}

// Send writes one frame and reads one reply.
func (c *Client) Send(ctx context.Context, req resp.Frame) (resp.Frame, error) {
	replies, err := c.Pipeline(ctx, []resp.Frame{req})
	if err != nil {
		return nil, err
	}
	return replies[0], nil
}

// Pipeline writes all requests in one write and reads one reply per
// request, in order.
func (c *Client) Pipeline(ctx context.Context, reqs []resp.Frame) ([]resp.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return nil, ErrClosed
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, c.fail(err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer stop()

	var out []byte
	for _, r := range reqs {
		out = r.AppendRESP(out)
	}
	if _, err := c.conn.Write(out); err != nil {
		return nil, c.fail(ctxErr(ctx, err))
	}

	replies := make([]resp.Frame, 0, len(reqs))
	for len(replies) < len(reqs) {
		f, err := c.readFrame()
		if err != nil {
			return nil, c.fail(ctxErr(ctx, err))
		}
		replies = append(replies, f)
	}
	return replies, nil
}

func (c *Client) readFrame() (resp.Frame, error) {
	for {
		f, err := c.dec.ReadFrame(&c.buf)
		if err == nil {
			return f, nil
		}
		if resp.IsFatal(err) {
			return nil, err
		}
		n, err := c.conn.Read(c.rd)
		c.buf.Write(c.rd[:n])
		if err != nil {
			if errors.Is(err, io.EOF) && n > 0 {
				continue
			}
			return nil, err
		}
	}
}

// fail marks the connection unusable: a reply may be half read.
func (c *Client) fail(err error) error {
	c.broken = true
	_ = c.conn.Close()
	return err
}

func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}

// Healthy reports whether the connection can still be used.
func (c *Client) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.broken
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return nil
	}
	c.broken = true
	return c.conn.Close()
}
