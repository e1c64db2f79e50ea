package service

import (
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// StoreStats adapts a memory.Store to the metric collector.
type StoreStats struct {
	Store *memory.Store
}

var _ metric.StatsSource = StoreStats{}

func (s StoreStats) CollectStats() metric.StoreStats {
	st := s.Store.Stats()
	return metric.StoreStats{Keys: st.Keys, Hashes: st.Hashes, HashFields: st.HashFields}
}

func (s StoreStats) ShardLoad() []int {
	return s.Store.ShardLoad()
}
