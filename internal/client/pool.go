package client

import (
	"context"
	"fmt"

	pool "github.com/jolestar/go-commons-pool/v2"

	"github.com/yndnr/respkv/internal/resp"
)

// PoolConfig sizes a Pool.
type PoolConfig struct {
	Addr    string
	Options Options
	// MaxTotal caps open connections. Zero means 8.
	MaxTotal int
	// MaxIdle caps idle connections kept for reuse. Zero means MaxTotal.
	MaxIdle int
}

// Pool hands out Clients to concurrent callers.
type Pool struct {
	objects *pool.ObjectPool
}

// NewPool creates a pool. Connections are dialed lazily on Borrow.
func NewPool(ctx context.Context, cfg PoolConfig) *Pool {
	pc := pool.NewDefaultPoolConfig()
	pc.MaxTotal = cfg.MaxTotal
	if pc.MaxTotal <= 0 {
		pc.MaxTotal = 8
	}
	pc.MaxIdle = cfg.MaxIdle
	if pc.MaxIdle <= 0 {
		pc.MaxIdle = pc.MaxTotal
	}
	pc.TestOnBorrow = true
	pc.TestOnReturn = true
	pc.BlockWhenExhausted = true

	return &Pool{
		objects: pool.NewObjectPool(ctx, &clientFactory{addr: cfg.Addr, opts: cfg.Options}, pc),
	}
}

// Borrow returns an idle client or dials a new one, blocking while
// MaxTotal clients are out and ctx allows.
func (p *Pool) Borrow(ctx context.Context) (*Client, error) {
	obj, err := p.objects.BorrowObject(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := obj.(*Client)
	if !ok {
		return nil, fmt.Errorf("client: pool returned %T", obj)
	}
	return c, nil
}

// Return gives c back to the pool. Broken clients are destroyed.
func (p *Pool) Return(ctx context.Context, c *Client) error {
	if !c.Healthy() {
		return p.objects.InvalidateObject(ctx, c)
	}
	return p.objects.ReturnObject(ctx, c)
}

// Do borrows a client, runs one request and returns the client.
func (p *Pool) Do(ctx context.Context, args ...string) (f resp.Frame, err error) {
	c, err := p.Borrow(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := p.Return(ctx, c); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return c.Do(ctx, args...)
}

// Active returns the number of borrowed clients.
func (p *Pool) Active() int {
	return p.objects.GetNumActive()
}

// Idle returns the number of pooled idle clients.
func (p *Pool) Idle() int {
	return p.objects.GetNumIdle()
}

// Close closes all idle clients and rejects further borrows.
func (p *Pool) Close(ctx context.Context) {
	p.objects.Close(ctx)
}

type clientFactory struct {
	addr string
	opts Options
}

func (f *clientFactory) MakeObject(ctx context.Context) (*pool.PooledObject, error) {
	c, err := Dial(ctx, f.addr, f.opts)
	if err != nil {
		return nil, err
	}
	return pool.NewPooledObject(c), nil
}

func (f *clientFactory) DestroyObject(_ context.Context, obj *pool.PooledObject) error {
	if c, ok := obj.Object.(*Client); ok {
		return c.Close()
	}
	return nil
}

func (f *clientFactory) ValidateObject(_ context.Context, obj *pool.PooledObject) bool {
	c, ok := obj.Object.(*Client)
	return ok && c.Healthy()
}

func (f *clientFactory) ActivateObject(context.Context, *pool.PooledObject) error {
	return nil
}

func (f *clientFactory) PassivateObject(context.Context, *pool.PooledObject) error {
	return nil
}
