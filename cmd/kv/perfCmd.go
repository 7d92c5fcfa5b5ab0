package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/redkv/cmd/util"
	"github.com/ValentinKolb/redkv/rpc/client"
	"github.com/ValentinKolb/redkv/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for redkv servers",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per CPU to use for the benchmark, each with its own connection"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// benchmark is one perf test. op runs a single command with the i-th key.
type benchmark struct {
	name    string
	prepare func(keys []string) error
	op      func(c *client.Client, key string, i int) error
}

func runPerf(cmd *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for redkv servers")

	config := util.GetClientConfig()
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	pool, err := newClientPool(cmd.Context(), config, perfNumThreads*runtime.GOMAXPROCS(0))
	if err != nil {
		return err
	}
	defer pool.close()

	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)
	seed := func(keys []string) error {
		for _, k := range keys {
			if err := rpcClient.Set(k, "test", 0); err != nil {
				return err
			}
		}
		return nil
	}

	benchmarks := []benchmark{
		{name: "ping", op: func(c *client.Client, _ string, _ int) error {
			_, err := c.Ping()
			return err
		}},
		{name: "set", op: func(c *client.Client, key string, _ int) error {
			return c.Set(key, "test", 0)
		}},
		{name: "set-large", op: func(c *client.Client, key string, _ int) error {
			return c.Set(key, largeValue, 0)
		}},
		{name: "set-px", op: func(c *client.Client, key string, _ int) error {
			return c.Set(key, "test", time.Minute)
		}},
		{name: "get", prepare: seed, op: func(c *client.Client, key string, _ int) error {
			_, _, err := c.Get(key)
			return err
		}},
		{name: "get-missing", op: func(c *client.Client, key string, _ int) error {
			_, _, err := c.Get(key + "-missing")
			return err
		}},
		{name: "xadd", op: func(c *client.Client, _ string, i int) error {
			_, err := c.XAdd(perfKeyPrefix+"-stream", "*", "n", strconv.Itoa(i))
			return err
		}},
		{name: "mixed", prepare: seed, op: func(c *client.Client, key string, i int) error {
			var err error
			switch i % 3 {
			case 0:
				err = c.Set(key, "test", 0)
			case 1:
				_, _, err = c.Get(key)
			case 2:
				_, err = c.Type(key)
			}
			return err
		}},
	}

	results := make(map[string]testing.BenchmarkResult)
	for _, bm := range benchmarks {
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bm.name) {
				return
			}

			keys := getKeys(bm.name)
			if bm.prepare != nil {
				if err := bm.prepare(keys); err != nil {
					log.Printf("(%s) - error preparing keys: %v\n", bm.name, err)
					return
				}
			}

			b.SetParallelism(perfNumThreads)
			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				c := pool.get()
				defer pool.put(c)

				counter := 0
				for pb.Next() {
					if err := bm.op(c, keys[counter%len(keys)], counter); err != nil {
						log.Printf("(%s) - error: %v\n", bm.name, err)
					}
					counter++
				}
			})
		})
		results[bm.name] = result
		printResult(bm.name, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// clientPool hands out one connection per benchmark goroutine
type clientPool struct {
	clients chan *client.Client
}

func newClientPool(ctx context.Context, config *common.ClientConfig, size int) (*clientPool, error) {
	t, err := util.GetClientTransport()
	if err != nil {
		return nil, err
	}
	p := &clientPool{clients: make(chan *client.Client, size)}
	for i := 0; i < size; i++ {
		c, err := dial(ctx, t, config)
		if err != nil {
			p.close()
			return nil, fmt.Errorf("failed to open connection %d: %w", i+1, err)
		}
		p.clients <- c
	}
	return p, nil
}

func (p *clientPool) get() *client.Client  { return <-p.clients }
func (p *clientPool) put(c *client.Client) { p.clients <- c }

func (p *clientPool) close() {
	for {
		select {
		case c := <-p.clients:
			_ = c.Close()
		default:
			return
		}
	}
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// getKeys creates the test keys of a benchmark
func getKeys(prefix string) []string {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}
	return keys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoint", "Transport", "TimeoutSec", "Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for test, result := range results {
		var nsPerOp, opsPerSec float64
		skipped := "true"
		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			config.Endpoint,
			string(config.Transport),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
