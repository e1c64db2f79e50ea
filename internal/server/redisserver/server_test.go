package redisserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/respkv/internal/core/service"
	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// ============================================================
// Helpers
// ============================================================

type testServer struct {
	*Server
	store   *memory.Store
	metrics *metric.Registry
}

func startServer(t *testing.T, mutate func(*Config)) *testServer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	if mutate != nil {
		mutate(&cfg)
	}

	store := memory.New()
	reg := metric.NewRegistry()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewKVService(store, service.WithMetrics(reg), service.WithLogger(log))
	srv := New(cfg, svc, WithLogger(log), WithMetrics(reg))

	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return &testServer{Server: srv, store: store, metrics: reg}
}

type testClient struct {
	t  *testing.T
	nc net.Conn
	br *bufio.Reader
}

func dial(t *testing.T, network, addr string) *testClient {
	t.Helper()
	nc, err := net.DialTimeout(network, addr, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { nc.Close() })
	return &testClient{t: t, nc: nc, br: bufio.NewReader(nc)}
}

func (c *testClient) send(p string) {
	c.t.Helper()
	_, err := c.nc.Write([]byte(p))
	require.NoError(c.t, err)
}

func (c *testClient) do(args ...string) {
	c.t.Helper()
	c.send(string(resp.Encode(resp.NewArray(args...))))
}

// expect reads exactly len(want) bytes.
func (c *testClient) expect(want string) {
	c.t.Helper()
	_ = c.nc.SetReadDeadline(time.Now().Add(2 * time.Second))
	got := make([]byte, len(want))
	_, err := io.ReadFull(c.br, got)
	require.NoError(c.t, err, "waiting for %q", want)
	require.Equal(c.t, want, string(got))
}

// expectClosed asserts the server closed the connection.
func (c *testClient) expectClosed() {
	c.t.Helper()
	_ = c.nc.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := c.br.ReadByte()
	require.ErrorIs(c.t, err, io.EOF)
}

// ============================================================
// Request handling
// ============================================================

func TestServer_Commands(t *testing.T) {
	srv := startServer(t, nil)
	c := dial(t, "tcp", srv.Addr().String())

	c.do("get", "k")
	c.expect("_\r\n")
	c.do("set", "k", "v")
	c.expect("+OK\r\n")
	c.do("get", "k")
	c.expect("$1\r\nv\r\n")

	c.do("hgetall", "h")
	c.expect("*0\r\n")
	c.do("hset", "h", "f", "v")
	c.expect("+OK\r\n")
	c.do("hget", "h", "f")
	c.expect("$1\r\nv\r\n")
	c.do("hgetall", "h")
	c.expect("%1\r\n+f\r\n$1\r\nv\r\n")

	c.do("PING")
	c.expect("+OK\r\n")
}

func TestServer_Pipelining(t *testing.T) {
	srv := startServer(t, nil)
	c := dial(t, "tcp", srv.Addr().String())

	var batch []byte
	for i := 0; i < 100; i++ {
		batch = append(batch, resp.Encode(resp.NewArray("set", fmt.Sprintf("k%d", i), "v"))...)
	}
	batch = append(batch, resp.Encode(resp.NewArray("get", "k99"))...)
	c.send(string(batch))

	for i := 0; i < 100; i++ {
		c.expect("+OK\r\n")
	}
	c.expect("$1\r\nv\r\n")
	assert.Equal(t, 100, srv.store.Stats().Keys)
}

func TestServer_SplitAcrossWrites(t *testing.T) {
	srv := startServer(t, nil)
	c := dial(t, "tcp", srv.Addr().String())

	req := string(resp.Encode(resp.NewArray("set", "split", "value")))
	for i := 0; i < len(req); i += 3 {
		end := min(i+3, len(req))
		c.send(req[i:end])
		time.Sleep(2 * time.Millisecond)
	}
	c.expect("+OK\r\n")
}

func TestServer_ValidationErrorKeepsConnection(t *testing.T) {
	srv := startServer(t, nil)
	c := dial(t, "tcp", srv.Addr().String())

	c.do("set", "k")
	c.expect("-ERR invalid argument: wrong number of arguments for 'set' command: want 2, got 1\r\n")
	c.do("set", "k", "v")
	c.expect("+OK\r\n")
}

func TestServer_ProtocolErrorClosesConnection(t *testing.T) {
	srv := startServer(t, nil)
	c := dial(t, "tcp", srv.Addr().String())

	c.send("$abc\r\n")
	_ = c.nc.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.br.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "-ERR protocol error: resp: invalid frame length"), line)
	c.expectClosed()
}

func TestServer_SharedStoreAcrossConnections(t *testing.T) {
	srv := startServer(t, nil)
	const clients = 8

	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nc, err := net.Dial("tcp", srv.Addr().String())
			if err != nil {
				t.Error(err)
				return
			}
			defer nc.Close()
			nc.Write(resp.Encode(resp.NewArray("hset", "shared", fmt.Sprintf("f%d", i), "x")))
			buf := make([]byte, 5)
			io.ReadFull(nc, buf)
		}(i)
	}
	wg.Wait()

	c := dial(t, "tcp", srv.Addr().String())
	c.do("hget", "shared", "f3")
	c.expect("$1\r\nx\r\n")

	fields, ok := srv.store.HGetAll("shared")
	require.True(t, ok)
	assert.Len(t, fields, clients)
}

// ============================================================
// Limits and lifecycle
// ============================================================

func TestServer_MaxConnections(t *testing.T) {
	srv := startServer(t, func(c *Config) { c.MaxConnections = 1 })

	first := dial(t, "tcp", srv.Addr().String())
	first.do("get", "k")
	first.expect("_\r\n")

	second := dial(t, "tcp", srv.Addr().String())
	second.expect("-ERR max number of clients reached\r\n")
	second.expectClosed()

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.ConnectionsRejected.WithLabelValues("max_clients")))
}

func TestServer_RateLimit(t *testing.T) {
	srv := startServer(t, func(c *Config) {
		c.RateLimit = 0.001
		c.RateBurst = 2
	})
	c := dial(t, "tcp", srv.Addr().String())

	c.send(string(resp.Encode(resp.NewArray("set", "a", "1"))) +
		string(resp.Encode(resp.NewArray("set", "b", "2"))) +
		string(resp.Encode(resp.NewArray("set", "c", "3"))))
	c.expect("+OK\r\n+OK\r\n-ERR rate limit exceeded\r\n")

	_, ok := srv.store.Get("c")
	assert.False(t, ok)
}

func TestServer_IdleTimeout(t *testing.T) {
	srv := startServer(t, func(c *Config) { c.IdleTimeout = 100 * time.Millisecond })
	c := dial(t, "tcp", srv.Addr().String())

	c.do("get", "k")
	c.expect("_\r\n")
	c.expectClosed()
}

func TestServer_UnixSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "respkv.sock")
	srv := startServer(t, func(c *Config) { c.UnixSocket = sock })

	c := dial(t, "unix", sock)
	c.do("set", "k", "unix")
	c.expect("+OK\r\n")

	v, ok := srv.store.Get("k")
	require.True(t, ok)
	assert.Equal(t, resp.BulkString("unix"), v)
}

func TestServer_Shutdown(t *testing.T) {
	srv := startServer(t, nil)
	c := dial(t, "tcp", srv.Addr().String())
	c.do("get", "k")
	c.expect("_\r\n")

	require.Eventually(t, func() bool { return srv.ActiveConnections() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	c.expectClosed()
	assert.Zero(t, srv.ActiveConnections())

	_, err := net.DialTimeout("tcp", srv.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err)
	assert.NoError(t, srv.Shutdown(ctx), "second Shutdown is a no-op")
}

func TestServer_StartBindError(t *testing.T) {
	srv := startServer(t, nil)

	other := New(Config{Addr: srv.Addr().String()}, service.NewKVService(memory.New()))
	assert.Error(t, other.Start(context.Background()))
}

func TestConn_ClientKey(t *testing.T) {
	c := &Conn{remote: "10.1.2.3:5555"}
	assert.Equal(t, "10.1.2.3", c.clientKey())
	c = &Conn{remote: "garbage"}
	assert.Equal(t, "garbage", c.clientKey())
	c = &Conn{unix: true}
	assert.Equal(t, "unix", c.clientKey())
}
