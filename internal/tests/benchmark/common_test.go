package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/yndnr/respkv/internal/core/service"
	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
)

// KeyCounts are the store sizes benchmarks preload.
var KeyCounts = []int{1000, 10000, 100000}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func key(i int) string {
	return fmt.Sprintf("key:%d", i)
}

// prefillStore writes count string keys and count/10 hashes of ten fields.
func prefillStore(store *memory.Store, count int) {
	value := resp.BulkString("value")
	for i := 0; i < count; i++ {
		store.Set(key(i), value)
	}
	for i := 0; i < count/10; i++ {
		for f := 0; f < 10; f++ {
			store.HSet(fmt.Sprintf("hash:%d", i), fmt.Sprintf("f%d", f), value)
		}
	}
}

// startServer runs a RESP server on a random port for the benchmark.
func startServer(b *testing.B) (string, *memory.Store) {
	b.Helper()
	cfg := redisserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	store := memory.New()
	srv := redisserver.New(cfg, service.NewKVService(store, service.WithLogger(discard)), redisserver.WithLogger(discard))
	if err := srv.Start(context.Background()); err != nil {
		b.Fatalf("start server: %v", err)
	}
	b.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv.Addr().String(), store
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs a benchmark function with various store sizes.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
