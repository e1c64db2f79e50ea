package benchmark

import (
	"fmt"
	"testing"

	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/internal/storage/memory"
)

func BenchmarkStoreSet(b *testing.B) {
	runWithKeyCounts(b, KeyCounts, func(b *testing.B, count int) {
		store := memory.New()
		prefillStore(store, count)
		value := resp.BulkString("value")

		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			store.Set(key(i%count), value)
		}
		b.StopTimer()
		reportMemory(b, "mem")
	})
}

func BenchmarkStoreGet(b *testing.B) {
	runWithKeyCounts(b, KeyCounts, func(b *testing.B, count int) {
		store := memory.New()
		prefillStore(store, count)

		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, ok := store.Get(key(i % count)); !ok {
				b.Fatal("missing key")
			}
		}
	})
}

func BenchmarkStoreHGetAll(b *testing.B) {
	runWithKeyCounts(b, KeyCounts, func(b *testing.B, count int) {
		store := memory.New()
		prefillStore(store, count)
		hashes := count / 10

		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, ok := store.HGetAll(fmt.Sprintf("hash:%d", i%hashes)); !ok {
				b.Fatal("missing hash")
			}
		}
	})
}

// BenchmarkStoreParallel mixes reads and writes from GOMAXPROCS
// goroutines at several shard counts.
func BenchmarkStoreParallel(b *testing.B) {
	for _, shards := range []int{1, 16, 64} {
		b.Run(fmt.Sprintf("shards_%d", shards), func(b *testing.B) {
			store := memory.New(memory.WithShardCount(shards))
			prefillStore(store, 10000)
			value := resp.BulkString("value")

			b.ResetTimer()
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					k := key(i % 10000)
					if i%4 == 0 {
						store.Set(k, value)
					} else {
						store.Get(k)
					}
					i++
				}
			})
		})
	}
}
