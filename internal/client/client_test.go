package client

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/respkv/internal/core/service"
	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
)

func startServer(t *testing.T, mutate func(*redisserver.Config)) *redisserver.Server {
	t.Helper()
	cfg := redisserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := redisserver.New(cfg, service.NewKVService(memory.New(), service.WithLogger(log)), redisserver.WithLogger(log))
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func dial(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), addr, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_Do(t *testing.T) {
	srv := startServer(t, nil)
	c := dial(t, srv.Addr().String())
	ctx := context.Background()

	f, err := c.Do(ctx, "get", "k")
	require.NoError(t, err)
	assert.Equal(t, resp.Null{}, f)

	f, err = c.Do(ctx, "set", "k", "v")
	require.NoError(t, err)
	assert.Equal(t, resp.SimpleString("OK"), f)

	f, err = c.Do(ctx, "get", "k")
	require.NoError(t, err)
	assert.Equal(t, resp.BulkString("v"), f)

	_, err = c.Do(ctx, "hset", "h", "f", "1")
	require.NoError(t, err)
	f, err = c.Do(ctx, "hgetall", "h")
	require.NoError(t, err)
	assert.Equal(t, resp.Map{"f": resp.BulkString("1")}, f)
}

func TestClient_ServerError(t *testing.T) {
	srv := startServer(t, nil)
	c := dial(t, srv.Addr().String())

	f, err := c.Do(context.Background(), "get")
	var se ServerError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "wrong number of arguments")
	assert.IsType(t, resp.SimpleError(""), f)
	assert.True(t, c.Healthy(), "a validation error keeps the connection")
}

func TestClient_Pipeline(t *testing.T) {
	srv := startServer(t, nil)
	c := dial(t, srv.Addr().String())

	replies, err := c.Pipeline(context.Background(), []resp.Frame{
		resp.NewArray("set", "a", "1"),
		resp.NewArray("set", "b", "2"),
		resp.NewArray("get", "a"),
		resp.NewArray("get", "missing"),
	})
	require.NoError(t, err)
	assert.Equal(t, []resp.Frame{resp.OK, resp.OK, resp.BulkString("1"), resp.Null{}}, replies)
}

func TestClient_SendAndClose(t *testing.T) {
	srv := startServer(t, nil)
	c := dial(t, srv.Addr().String())
	ctx := context.Background()

	f, err := c.Send(ctx, resp.Integer(1))
	require.NoError(t, err, "a non-array request is a validation error")
	assert.IsType(t, resp.SimpleError(""), f)

	_, err = c.Send(ctx, resp.Array{resp.BulkString("set"), resp.BulkString("k"), resp.Double(1)})
	require.NoError(t, err)

	c.Close()
	_, err = c.Do(ctx, "get", "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClient_ContextTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		nc, err := ln.Accept()
		if err == nil {
			defer nc.Close()
			_, _ = io.Copy(io.Discard, nc)
		}
	}()

	c := dial(t, ln.Addr().String())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Do(ctx, "get", "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, c.Healthy())
}

func TestClient_UnixSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "respkv.sock")
	startServer(t, func(c *redisserver.Config) { c.UnixSocket = sock })

	for _, addr := range []string{sock, "unix:" + sock} {
		c := dial(t, addr)
		f, err := c.Do(context.Background(), "set", "k", "v")
		require.NoError(t, err)
		assert.Equal(t, resp.SimpleString("OK"), f)
	}
}

func TestDial_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = Dial(context.Background(), addr, Options{DialTimeout: time.Second})
	assert.Error(t, err)
}

// ============================================================
// Pool
// ============================================================

func TestPool_Concurrent(t *testing.T) {
	srv := startServer(t, nil)
	ctx := context.Background()
	p := NewPool(ctx, PoolConfig{Addr: srv.Addr().String(), MaxTotal: 4})
	defer p.Close(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Do(ctx, "hset", "h", "f", "v"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, p.Active())
	assert.LessOrEqual(t, p.Idle(), 4)
	assert.Positive(t, p.Idle())

	f, err := p.Do(ctx, "hget", "h", "f")
	require.NoError(t, err)
	assert.Equal(t, resp.BulkString("v"), f)
}

func TestPool_BrokenClientIsDiscarded(t *testing.T) {
	srv := startServer(t, nil)
	ctx := context.Background()
	p := NewPool(ctx, PoolConfig{Addr: srv.Addr().String(), MaxTotal: 1})
	defer p.Close(ctx)

	c, err := p.Borrow(ctx)
	require.NoError(t, err)
	c.Close()
	require.NoError(t, p.Return(ctx, c))
	assert.Zero(t, p.Idle())

	c2, err := p.Borrow(ctx)
	require.NoError(t, err)
	assert.NotSame(t, c, c2)
	require.NoError(t, p.Return(ctx, c2))
}
