package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"comboenum/engine"
	"comboenum/experiments/metrics"
	"comboenum/results"
	"comboenum/searcher"

	"github.com/rs/zerolog/log"
)

// Config describes one enumeration sweep: the combinatorial space of
// opening hands, how to search each one, and how many workers to fan the
// hands out across.
type Config struct {
	Pool     []int // card pool to draw opening hands from
	HandSize int   // cards per opening hand

	Workers  int
	MaxDepth int
	MaxPaths int // per-hand path budget

	TableSize int // per-worker transposition table capacity

	Deepening bool // search each hand shortest-first instead of plain DFS

	// NewSource builds one private decision source per worker. Workers
	// never share a source instance, a table, or any other mutable state.
	NewSource func() engine.Source

	// Skip lists hand keys already completed by an earlier run; the sweep
	// resumes past them.
	Skip map[string]bool

	// Progress, if set, receives throttled progress reports. Delivery never
	// blocks worker throughput.
	Progress func(Progress)
}

// HandRecord is the outcome for one opening hand.
type HandRecord struct {
	Hand      []int
	Worker    int
	Completed bool
	Err       string
	Metric    metrics.SearchMetric
	Terminals int
	Paths     int
	MaxDepth  int
	Partial   bool
}

// Sweep is the merged outcome of a whole run.
type Sweep struct {
	Records   []HandRecord
	Terminals *results.Collection
	Total     int
	Completed int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Coordinator partitions the C(n, k) space of opening hands across a pool
// of workers, each running an independent engine against its own decision
// source, and merges what they find.
type Coordinator struct {
	config Config
}

func New(config Config) *Coordinator {
	if config.NewSource == nil {
		panic("Must provide a decision source factory")
	}
	if config.HandSize <= 0 || config.HandSize > len(config.Pool) {
		panic(fmt.Sprintf("hand size %d is impossible with a pool of %d", config.HandSize, len(config.Pool)))
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &Coordinator{config: config}
}

type workerOutput struct {
	records []HandRecord
	passes  []*searcher.Result
	skipped int
}

// Run executes the sweep. A worker failure is isolated: its remaining batch
// is marked incomplete and the other workers carry on.
func (c *Coordinator) Run(ctx context.Context) (*Sweep, error) {
	start := time.Now()

	combos := Combinations(c.config.Pool, c.config.HandSize)
	batches := Partition(combos, c.config.Workers)

	log.Info().Int("combinations", len(combos)).Int("workers", len(batches)).
		Msg("starting enumeration sweep")

	var done atomic.Int64
	stopProgress := c.reportProgress(start, len(combos), &done)
	defer stopProgress()

	outputs := make([]workerOutput, len(batches))
	var wg sync.WaitGroup
	for i := range batches {
		wg.Add(1)
		go func(worker int, batch [][]int) {
			defer wg.Done()
			outputs[worker] = c.runWorker(ctx, worker, batch, &done)
		}(i, batches[i])
	}
	wg.Wait()

	sweep := &Sweep{
		Terminals: results.NewCollection(),
		Total:     len(combos),
		Duration:  time.Since(start),
	}
	// Merging happens here, after every worker is done, so the collection
	// is only ever touched from one goroutine.
	for _, out := range outputs {
		for _, rec := range out.records {
			sweep.Records = append(sweep.Records, rec)
			if rec.Completed {
				sweep.Completed++
			} else {
				sweep.Failed++
			}
		}
		for _, result := range out.passes {
			sweep.Terminals.AddAll(result)
		}
		sweep.Skipped += out.skipped
	}

	log.Info().Int("completed", sweep.Completed).Int("failed", sweep.Failed).
		Int("skipped", sweep.Skipped).Dur("elapsed", sweep.Duration).
		Msg("enumeration sweep finished")
	return sweep, ctx.Err()
}

// runWorker explores one batch of hands on one private engine stack. The
// worker acquires its decision source and transposition table at start and
// owns them until it returns; nothing here is shared with other workers.
func (c *Coordinator) runWorker(ctx context.Context, worker int, batch [][]int, done *atomic.Int64) (out workerOutput) {
	source := c.config.NewSource()
	table := searcher.NewTable(c.config.TableSize)

	var current int
	defer func() {
		if cause := recover(); cause != nil {
			// Isolate the failure: everything this worker did not finish is
			// marked incomplete and the sweep carries on without it.
			log.Error().Int("worker", worker).Interface("cause", cause).
				Ints("hand", batch[current]).Msg("worker failed; batch marked incomplete")
			out.records = append(out.records, HandRecord{
				Hand:      batch[current],
				Worker:    worker,
				Completed: false,
				Err:       fmt.Sprint(cause),
			})
			for _, hand := range batch[current+1:] {
				out.records = append(out.records, HandRecord{
					Hand:      hand,
					Worker:    worker,
					Completed: false,
					Err:       "not attempted: worker failed earlier in its batch",
				})
			}
		}
	}()

	for i, hand := range batch {
		current = i
		if ctx.Err() != nil {
			return out
		}
		if c.config.Skip[results.HandKey(hand)] {
			out.skipped++
			done.Add(1)
			continue
		}

		record, result := c.searchHand(ctx, source, table, worker, hand)
		out.records = append(out.records, record)
		if result != nil {
			out.passes = append(out.passes, result)
		}
		done.Add(1)
	}
	return out
}

func (c *Coordinator) searchHand(ctx context.Context, source engine.Source, table *searcher.Table, worker int, hand []int) (HandRecord, *searcher.Result) {
	collector := metrics.NewCollector()
	config := engine.Config{Hand: hand}

	var result *searcher.Result
	var err error
	if c.config.Deepening {
		deepening := searcher.NewDeepening(source, config,
			searcher.WithLadder(c.config.MaxDepth),
			searcher.WithPathBudget(c.config.MaxPaths),
			searcher.WithSharedTable(table),
			searcher.WithEngineOptions(searcher.WithCollector(collector)),
		)
		result, err = deepening.Search(ctx)
	} else {
		eng := searcher.NewEngine(source, config,
			searcher.WithMaxDepth(c.config.MaxDepth),
			searcher.WithMaxPaths(c.config.MaxPaths),
			searcher.WithTable(table),
			searcher.WithCollector(collector),
		)
		result, err = eng.Run(ctx)
	}

	record := HandRecord{
		Hand:   hand,
		Worker: worker,
		Metric: collector.Complete(),
	}
	if err != nil {
		record.Err = err.Error()
		return record, nil
	}

	record.Completed = true
	record.Terminals = len(result.Terminals)
	record.Paths = result.Paths
	record.MaxDepth = result.MaxDepth
	record.Partial = result.Partial
	return record, result
}
