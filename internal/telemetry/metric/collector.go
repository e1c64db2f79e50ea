package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreStats is what StoreCollector reads from the backend at scrape time.
type StoreStats struct {
	Keys       int `json:"keys"`
	Hashes     int `json:"hashes"`
	HashFields int `json:"hash_fields"`
}

// StatsSource supplies store statistics.
type StatsSource interface {
	CollectStats() StoreStats
	ShardLoad() []int
}

// StoreCollector reports store sizes without the store pushing updates.
type StoreCollector struct {
	src StatsSource

	keys       *prometheus.Desc
	hashes     *prometheus.Desc
	hashFields *prometheus.Desc
	shardKeys  *prometheus.Desc
}

// NewStoreCollector creates a collector reading from src.
func NewStoreCollector(src StatsSource) *StoreCollector {
	return &StoreCollector{
		src: src,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "keys"),
			"Plain keys stored.", nil, nil),
		hashes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "hashes"),
			"Hash keys stored.", nil, nil),
		hashFields: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "hash_fields"),
			"Fields across all hashes.", nil, nil),
		shardKeys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "shard_keys"),
			"Plain keys per shard.", []string{"shard"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.hashes
	ch <- c.hashFields
	ch <- c.shardKeys
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.CollectStats()
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(st.Keys))
	ch <- prometheus.MustNewConstMetric(c.hashes, prometheus.GaugeValue, float64(st.Hashes))
	ch <- prometheus.MustNewConstMetric(c.hashFields, prometheus.GaugeValue, float64(st.HashFields))
	for i, n := range c.src.ShardLoad() {
		ch <- prometheus.MustNewConstMetric(c.shardKeys, prometheus.GaugeValue, float64(n), strconv.Itoa(i))
	}
}
