// Package metric exposes server metrics in Prometheus format.
//
//   - prometheus.go: the Registry of counters, gauges and histograms
//     plus the /metrics handler
//   - collector.go: a collector that reads store statistics at scrape time
//
// All metrics are prefixed with respkv_. Each Registry owns its own
// prometheus.Registry, so tests can create as many as they like.
package metric
