package doc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hyperio-mc/hyper/cmd/util"
	"github.com/hyperio-mc/hyper/lib/docstore"
	"github.com/hyperio-mc/hyper/rpc/common"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for hyper servers",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfNamespace  = "__perf"
	perfNumThreads = 10
	perfNumOps     = 1000
	perfKeySpread  = 100
	perfSkip       = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. create,query)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("How many operations to perform per benchmark"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different document ids to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfNumOps = viper.GetInt("ops")
	perfKeySpread = viper.GetInt("keys")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for hyper servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Operations: %d\n", perfNumOps)
	fmt.Println()

	// The benchmarks run against a scratch namespace that is dropped afterwards
	if err := rpcStore.CreateNamespace(perfNamespace); err != nil {
		return fmt.Errorf("failed to create benchmark namespace: %v", err)
	}
	defer func() {
		if err := rpcStore.RemoveNamespace(perfNamespace); err != nil {
			log.Printf("error removing benchmark namespace: %v\n", err)
		}
	}()

	fmt.Println("starting tests...")

	body := docstore.Document{"name": "test", "age": 42, "tags": []any{"a", "b"}}
	results := make(map[string]metrics.Timer)

	// create (update semantics, so repeated ids do not conflict)
	results["create"] = runBenchmark("create", func(i int) error {
		_, err := rpcStore.UpdateDocument(perfNamespace, perfKey(i), body)
		return err
	})
	printResult("create", results["create"])

	// seed documents for the read benchmarks
	for i := 0; i < perfKeySpread; i++ {
		if _, err := rpcStore.UpdateDocument(perfNamespace, perfKey(i), body); err != nil {
			log.Printf("(seed) - error writing document: %v\n", err)
		}
	}

	// get
	results["get"] = runBenchmark("get", func(i int) error {
		_, err := rpcStore.RetrieveDocument(perfNamespace, perfKey(i))
		return err
	})
	printResult("get", results["get"])

	// list
	results["list"] = runBenchmark("list", func(i int) error {
		_, err := rpcStore.ListDocuments(perfNamespace, docstore.ListOptions{Limit: 10})
		return err
	})
	printResult("list", results["list"])

	// query
	query := docstore.Query{Selector: map[string]any{"age": map[string]any{"$gte": 40}}, Limit: 10}
	results["query"] = runBenchmark("query", func(i int) error {
		_, err := rpcStore.QueryDocuments(perfNamespace, query)
		return err
	})
	printResult("query", results["query"])

	// bulk (batches of ten documents per operation)
	batch := make([]docstore.Document, 10)
	for i := range batch {
		batch[i] = docstore.Document{"_id": perfKey(i), "name": "bulk"}
	}
	results["bulk"] = runBenchmark("bulk", func(i int) error {
		_, err := rpcStore.BulkDocuments(perfNamespace, batch)
		return err
	})
	printResult("bulk", results["bulk"])

	// mixed usage
	results["mixed"] = runBenchmark("mixed", func(i int) error {
		switch i % 4 {
		case 0:
			_, err := rpcStore.UpdateDocument(perfNamespace, perfKey(i), body)
			return err
		case 1:
			_, err := rpcStore.RetrieveDocument(perfNamespace, perfKey(i))
			return err
		case 2:
			_, err := rpcStore.QueryDocuments(perfNamespace, query)
			return err
		default:
			_, err := rpcStore.ListDocuments(perfNamespace, docstore.ListOptions{Limit: 10})
			return err
		}
	})
	printResult("mixed", results["mixed"])

	// delete
	results["delete"] = runBenchmark("delete", func(i int) error {
		_, err := rpcStore.RemoveDocument(perfNamespace, perfKey(i))
		// repeated ids are already gone, which is expected here
		var storeErr *docstore.Error
		if errors.As(err, &storeErr) && storeErr.Kind == docstore.KindNotFound {
			return nil
		}
		return err
	})
	printResult("delete", results["delete"])

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// perfKey returns a benchmark document id by index (with wraparound)
func perfKey(i int) string {
	return fmt.Sprintf("%s-%d", perfNamespace, i%perfKeySpread)
}

// runBenchmark runs fn perfNumOps times across perfNumThreads workers
// and records the latency of each call in a timer
func runBenchmark(name string, fn func(i int) error) metrics.Timer {
	timer := metrics.NewTimer()
	if shouldSkip(name) {
		return timer
	}

	var wg sync.WaitGroup
	opsPerThread := perfNumOps / perfNumThreads
	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < opsPerThread; i++ {
				idx := offset + i
				timer.Time(func() {
					if err := fn(idx); err != nil {
						log.Printf("(%s) - error performing operation: %v\n", name, err)
					}
				})
			}
		}(t * opsPerThread)
	}
	wg.Wait()

	return timer
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, timer metrics.Timer) {
	if timer.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	mean := time.Duration(int64(timer.Mean()))
	p95 := time.Duration(int64(timer.Percentile(0.95)))
	p99 := time.Duration(int64(timer.Percentile(0.99)))

	// Print the formatted result
	fmt.Printf("%-20smean=%s\tp95=%s\tp99=%s\t%.0f ops/sec\n", test, mean, p95, p99, timer.RateMean())
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]metrics.Timer, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Count", "MeanNs", "P95Ns", "P99Ns", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Serializer", "Transport",
		"Threads", "Ops", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, timer := range results {
		skipped := "false"
		if timer.Count() == 0 {
			skipped = "true"
		}

		row := []string{
			test,
			strconv.FormatInt(timer.Count(), 10),
			fmt.Sprintf("%.0f", timer.Mean()),
			fmt.Sprintf("%.0f", timer.Percentile(0.95)),
			fmt.Sprintf("%.0f", timer.Percentile(0.99)),
			fmt.Sprintf("%.0f", timer.RateMean()),
			skipped,
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(config.ConnectionsPerEndpoint),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfNumOps),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
