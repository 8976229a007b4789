package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/signal"
)

// Progress snapshots scan advancement after a batch completes.
type Progress struct {
	Processed int
	Total     int
	Elapsed   time.Duration
	Remaining time.Duration // extrapolated from elapsed time per symbol
}

// Scheduler partitions the symbol universe into fixed-size batches and runs
// them across a bounded worker pool. Workers process their batch sequentially;
// parallelism is bounded by the worker count, and the shared market client
// paces requests across all of them.
type Scheduler struct {
	log       zerolog.Logger
	batchSize int
	workers   int
}

// NewScheduler applies defaults for non-positive geometry.
func NewScheduler(log zerolog.Logger, batchSize, workers int) *Scheduler {
	if batchSize <= 0 {
		batchSize = 30
	}
	if workers <= 0 {
		workers = 10
	}
	return &Scheduler{log: log, batchSize: batchSize, workers: workers}
}

// Partition splits symbols into contiguous batches of at most size, order
// preserved, last batch possibly shorter.
func Partition(symbols []string, size int) [][]string {
	if size <= 0 || len(symbols) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(symbols)+size-1)/size)
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		batches = append(batches, symbols[start:end])
	}
	return batches
}

type batchResult struct {
	signals []signal.Signal
	count   int
}

// Run scans every symbol and returns the aggregated signals sorted by symbol.
// Batches complete in arbitrary order; onProgress (optional) fires once per
// completed batch. A batch whose worker panics is logged and contributes zero
// signals without disturbing its siblings.
func (s *Scheduler) Run(ctx context.Context, symbols []string, analyze func(context.Context, string) *signal.Signal, onProgress func(Progress)) []signal.Signal {
	batches := Partition(symbols, s.batchSize)
	if len(batches) == 0 {
		return nil
	}

	jobs := make(chan []string)
	results := make(chan batchResult)
	start := time.Now()

	var wg sync.WaitGroup
	workers := s.workers
	if workers > len(batches) {
		workers = len(batches)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				results <- s.processBatch(ctx, batch, analyze)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, batch := range batches {
			select {
			case jobs <- batch:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	total := len(symbols)
	processed := 0
	var all []signal.Signal
	for res := range results {
		processed += res.count
		all = append(all, res.signals...)
		if onProgress != nil && processed > 0 {
			elapsed := time.Since(start)
			remaining := time.Duration(float64(elapsed) / float64(processed) * float64(total-processed))
			onProgress(Progress{Processed: processed, Total: total, Elapsed: elapsed, Remaining: remaining})
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Symbol < all[j].Symbol })
	return all
}

// processBatch walks one batch sequentially. A panic is contained here so the
// pool keeps draining the remaining batches.
func (s *Scheduler) processBatch(ctx context.Context, batch []string, analyze func(context.Context, string) *signal.Signal) (res batchResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("error", fmt.Sprint(r)).Int("batch_size", len(batch)).Msg("batch worker panicked, dropping its signals")
			res = batchResult{count: len(batch)}
		}
	}()

	res.count = len(batch)
	for _, symbol := range batch {
		if ctx.Err() != nil {
			return res
		}
		if sig := analyze(ctx, symbol); sig != nil {
			res.signals = append(res.signals, *sig)
		}
	}
	return res
}
