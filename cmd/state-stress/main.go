package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plus3/callstate/hooks"
	"github.com/plus3/callstate/pass"
	"github.com/plus3/callstate/state"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	itemCount := flag.Int("items", 1000, "The number of keyed items rendered each pass.")
	depth := flag.Int("depth", 4, "The nesting depth below each item.")
	churn := flag.Float64("churn", 0.05, "The fraction of items replaced between passes.")
	seed := flag.Int64("seed", 1, "The random seed used for churn.")
	workers := flag.Int("workers", 1, "The number of independent stores driven in parallel.")
	format := flag.String("format", "text", "The report format: text or yaml.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	verbose := flag.Bool("v", false, "Log every pass and sweep.")
	flag.Parse()

	if *churn < 0 || *churn > 1 {
		log.Fatalf("churn must be between 0 and 1, got %v", *churn)
	}
	if *workers < 1 {
		log.Fatalf("workers must be at least 1, got %d", *workers)
	}
	if *format != "text" && *format != "yaml" {
		log.Fatalf("unknown report format %q", *format)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	log.Println("Starting state stress test...")

	report := &Report{
		Duration:       *duration,
		Items:          *itemCount,
		Depth:          *depth,
		Churn:          *churn,
		Workers:        make([]WorkerReport, *workers),
		GCPauseMetrics: *gcPauseMetrics,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running simulation for %s on %d worker(s)...\n", *duration, *workers)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()

	// Stores are not safe for concurrent use, so every worker owns its own
	// store, tree and runner. Only the merged samples are shared.
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i := range report.Workers {
		g.Go(func() error {
			wr, samples := runWorker(ctx, logger.With("worker", i), *itemCount, *depth, *churn, *seed+int64(i))
			mu.Lock()
			defer mu.Unlock()
			report.Workers[i] = wr
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, samples...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}

	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Println("Simulation finished.")

	if *format == "yaml" {
		if err := report.WriteYAML(os.Stdout); err != nil {
			log.Fatalf("Failed to generate report: %v", err)
		}
		return
	}

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")

	log.Println("Stress test complete.")
}

// runWorker drives one store until ctx is done and returns its results along
// with the duration of every pass.
func runWorker(ctx context.Context, logger *slog.Logger, items, depth int, churn float64, seed int64) (WorkerReport, []time.Duration) {
	store := state.New(state.WithLogger(logger), state.WithCapacity(items*(depth+1)*4))
	tr := newTree(items, depth, churn, seed)
	runner := pass.NewRunner(store, tr.render,
		pass.WithLogger(logger),
		pass.WithBeforeSweep(func(s *state.Store) { hooks.RunUnmounts(s) }),
	)

	var samples []time.Duration
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			runner.Once(ctx, deltaTime.Seconds())
			samples = append(samples, time.Since(updateStart))

			tr.mutate()
		}
	}

	return WorkerReport{
		Runner:    runner.GetStats(),
		Store:     store.CollectStats(),
		Mounted:   tr.mounted,
		Unmounted: tr.unmounted,
	}, samples
}
