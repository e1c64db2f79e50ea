package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/output"
	"github.com/yndnr/respkv/internal/client"
)

// BenchConfig describes one benchmark run.
type BenchConfig struct {
	Addr     string
	Clients  int
	Requests int
	// Ratio is the fraction of requests that are writes (set); the rest
	// are reads (get).
	Ratio    float64
	Keyspace int
	DataSize int
	Timeout  time.Duration
}

// BenchResult summarizes a run.
type BenchResult struct {
	Clients    int           `json:"clients"`
	Requests   int           `json:"requests"`
	Errors     int           `json:"errors"`
	Duration   time.Duration `json:"duration_ns"`
	Throughput float64       `json:"requests_per_sec"`
	P50        time.Duration `json:"p50_ns"`
	P90        time.Duration `json:"p90_ns"`
	P99        time.Duration `json:"p99_ns"`
	Max        time.Duration `json:"max_ns"`
}

// BenchCommand returns the bench command.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Run a get/set load test",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "clients", Aliases: []string{"c"}, Value: 8, Usage: "concurrent connections"},
			&cli.IntFlag{Name: "requests", Aliases: []string{"n"}, Value: 10000, Usage: "total requests"},
			&cli.Float64Flag{Name: "ratio", Value: 0.5, Usage: "fraction of requests that are writes, 0 to 1"},
			&cli.IntFlag{Name: "keyspace", Value: 1000, Usage: "number of distinct keys"},
			&cli.IntFlag{Name: "data-size", Aliases: []string{"d"}, Value: 16, Usage: "value size in bytes"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "hide the progress bar"},
		},
		Action: func(c *cli.Context) error {
			flags := ParseGlobalFlags(c)
			cfg := BenchConfig{
				Addr:     flags.Addr,
				Clients:  c.Int("clients"),
				Requests: c.Int("requests"),
				Ratio:    c.Float64("ratio"),
				Keyspace: c.Int("keyspace"),
				DataSize: c.Int("data-size"),
				Timeout:  flags.Timeout,
			}
			var progress io.Writer
			if !c.Bool("quiet") && flags.Output == output.FormatText {
				progress = c.App.ErrWriter
			}
			res, err := RunBench(c.Context, cfg, progress)
			if err != nil {
				return err
			}
			return printBench(c.App.Writer, flags.Output, res)
		},
	}
}

// Validate checks the run parameters.
func (b BenchConfig) Validate() error {
	switch {
	case b.Clients < 1:
		return fmt.Errorf("clients must be at least 1, got %d", b.Clients)
	case b.Requests < 1:
		return fmt.Errorf("requests must be at least 1, got %d", b.Requests)
	case b.Ratio < 0 || b.Ratio > 1:
		return fmt.Errorf("ratio must be within [0, 1], got %v", b.Ratio)
	case b.Keyspace < 1:
		return fmt.Errorf("keyspace must be at least 1, got %d", b.Keyspace)
	case b.DataSize < 0:
		return fmt.Errorf("data-size must not be negative, got %d", b.DataSize)
	}
	return nil
}

// RunBench runs the benchmark over a connection pool of cfg.Clients. When
// progress is non-nil a progress bar is drawn on it.
func RunBench(ctx context.Context, cfg BenchConfig, progress io.Writer) (BenchResult, error) {
	if err := cfg.Validate(); err != nil {
		return BenchResult{}, err
	}
	p := client.NewPool(ctx, client.PoolConfig{
		Addr:     cfg.Addr,
		Options:  client.Options{DialTimeout: cfg.Timeout},
		MaxTotal: cfg.Clients,
	})
	defer p.Close(ctx)

	// Fail fast on an unreachable server instead of counting every
	// request as an error.
	if _, err := p.Do(ctx, "get", "bench:probe"); err != nil {
		return BenchResult{}, err
	}

	var bar *output.ProgressBar
	if progress != nil {
		bar = output.NewProgressBar(progress, "bench", int64(cfg.Requests))
	}

	value := strings.Repeat("x", cfg.DataSize)
	latencies := make([][]time.Duration, cfg.Clients)
	errs := make([]int, cfg.Clients)

	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < cfg.Clients; w++ {
		n := cfg.Requests / cfg.Clients
		if w < cfg.Requests%cfg.Clients {
			n++
		}
		wg.Add(1)
		go func(w, n int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(uint64(w), uint64(start.UnixNano())))
			lat := make([]time.Duration, 0, n)
			for i := 0; i < n; i++ {
				key := "bench:" + strconv.Itoa(rng.IntN(cfg.Keyspace))
				args := []string{"get", key}
				if rng.Float64() < cfg.Ratio {
					args = []string{"set", key, value}
				}

				reqCtx, cancel := ctx, context.CancelFunc(func() {})
				if cfg.Timeout > 0 {
					reqCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
				}
				t0 := time.Now()
				_, err := p.Do(reqCtx, args...)
				lat = append(lat, time.Since(t0))
				cancel()
				if err != nil {
					errs[w]++
				}
				if bar != nil {
					bar.Increment(1)
				}
			}
			latencies[w] = lat
		}(w, n)
	}
	wg.Wait()
	elapsed := time.Since(start)
	if bar != nil {
		bar.Finish()
	}

	all := slices.Concat(latencies...)
	slices.Sort(all)
	res := BenchResult{
		Clients:  cfg.Clients,
		Requests: len(all),
		Duration: elapsed,
		P50:      percentile(all, 0.50),
		P90:      percentile(all, 0.90),
		P99:      percentile(all, 0.99),
	}
	for _, e := range errs {
		res.Errors += e
	}
	if len(all) > 0 {
		res.Max = all[len(all)-1]
	}
	if elapsed > 0 {
		res.Throughput = float64(len(all)) / elapsed.Seconds()
	}
	return res, nil
}

// percentile returns the nearest-rank percentile of sorted samples.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q*float64(len(sorted)) + 0.5)
	idx = max(idx-1, 0)
	return sorted[min(idx, len(sorted)-1)]
}

func printBench(w io.Writer, format output.Format, r BenchResult) error {
	if format == output.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	_, err := fmt.Fprintf(w,
		"requests:   %d (%d errors)\nclients:    %d\nduration:   %s\nthroughput: %.0f requests/s\nlatency:    p50=%s p90=%s p99=%s max=%s\n",
		r.Requests, r.Errors, r.Clients, r.Duration.Round(time.Millisecond), r.Throughput,
		r.P50, r.P90, r.P99, r.Max)
	return err
}
