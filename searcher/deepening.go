package searcher

import (
	"context"
	"math"
	"time"

	"comboenum/engine"
	"comboenum/game"

	"github.com/rs/zerolog/log"
)

type DeepeningOption func(d *Deepening)

// WithLadder caps the depth ladder. Passes run with limits 1, 2, ... up to
// this maximum.
func WithLadder(maxDepth int) DeepeningOption {
	return func(d *Deepening) {
		if maxDepth > 0 {
			d.maxDepth = maxDepth
		}
	}
}

// WithTargetValue stops the ladder as soon as any terminal at least this
// good has been found.
func WithTargetValue(target float64) DeepeningOption {
	return func(d *Deepening) {
		d.target = target
		d.hasTarget = true
	}
}

// WithTimeBudget stops the ladder once the elapsed time is spent. The
// budget is checked between paths and between passes, so the in-flight path
// always finishes first.
func WithTimeBudget(budget time.Duration) DeepeningOption {
	return func(d *Deepening) {
		if budget > 0 {
			d.timeBudget = budget
		}
	}
}

// WithPathBudget bounds the total number of explored paths, cumulative
// across all passes of the ladder.
func WithPathBudget(paths int) DeepeningOption {
	return func(d *Deepening) {
		if paths > 0 {
			d.pathBudget = paths
		}
	}
}

// WithSharedTable supplies the transposition table the passes share. By
// default a fresh table is created and carried across all passes.
func WithSharedTable(table *Table) DeepeningOption {
	return func(d *Deepening) {
		if table != nil {
			d.table = table
		}
	}
}

// WithEngineOptions forwards options (orderer, evaluator, collector) to
// every per-pass engine.
func WithEngineOptions(options ...Option) DeepeningOption {
	return func(d *Deepening) {
		d.engineOptions = append(d.engineOptions, options...)
	}
}

// Deepening runs the engine through depth-bounded passes of increasing
// limit, preserving the transposition table and failed-action set across
// passes. Because depth grows monotonically, the shallowest terminals are
// discovered first: stopping after any pass still yields the shortest
// results found so far, which is what makes the search anytime.
type Deepening struct {
	source        engine.Source
	config        engine.Config
	table         *Table
	failed        *failedSet
	engineOptions []Option
	maxDepth      int
	target        float64
	hasTarget     bool
	timeBudget    time.Duration
	pathBudget    int
}

func NewDeepening(source engine.Source, config engine.Config, options ...DeepeningOption) *Deepening {
	if source == nil {
		panic("Must provide a decision source")
	}
	d := &Deepening{ // Default values
		source:   source,
		config:   config,
		failed:   newFailedSet(),
		maxDepth: DefaultMaxDepth,
	}
	for _, option := range options {
		option(d)
	}
	if d.table == nil {
		d.table = NewTable(DefaultTableSize)
	}
	return d
}

// Search climbs the depth ladder until the tree is exhausted, the ladder
// tops out, or a stopping criterion fires. Results are merged across
// passes: each distinct final board is reported once, at the shallowest
// depth it was ever reached, in non-decreasing depth order of discovery.
func (d *Deepening) Search(ctx context.Context) (*Result, error) {
	start := time.Now()

	seen := make(map[game.StateHash]struct{})
	var finished []Terminal // voluntary ends, shallowest first
	var open []Terminal     // lines still truncated at the deepest attempted limit

	agg := &Result{Partial: true}
	pathsLeft := d.pathBudget
	budgetStopped := false

	for limit := 1; limit <= d.maxDepth; limit++ {
		if ctx.Err() != nil {
			break
		}
		if d.pathBudget > 0 && pathsLeft <= 0 {
			budgetStopped = true
			break
		}
		if d.timeBudget > 0 && time.Since(start) >= d.timeBudget {
			budgetStopped = true
			break
		}

		passCtx := ctx
		cancel := context.CancelFunc(func() {})
		if d.timeBudget > 0 {
			passCtx, cancel = context.WithDeadline(ctx, start.Add(d.timeBudget))
		}

		options := append([]Option{WithTable(d.table), WithMaxDepth(limit)}, d.engineOptions...)
		if d.pathBudget > 0 {
			options = append(options, WithMaxPaths(pathsLeft))
		}
		eng := NewEngine(d.source, d.config, options...)
		eng.failed = d.failed // failed (state, action) pairs are permanent facts

		result, err := eng.Run(passCtx)
		cancel() // release this pass's deadline before the next pass starts
		if err != nil {
			return nil, err
		}

		agg.Paths += result.Paths
		pathsLeft -= result.Paths
		agg.Aborted += result.Aborted
		if result.MaxDepth > agg.MaxDepth {
			agg.MaxDepth = result.MaxDepth
		}

		open = open[:0]
		reachedTarget := false
		for _, t := range result.Terminals {
			if t.Reason != VoluntaryStop {
				// Still truncated at this limit; the next pass continues it.
				open = append(open, t)
				continue
			}
			if _, ok := seen[t.Signature.Hash]; ok {
				continue
			}
			seen[t.Signature.Hash] = struct{}{}
			finished = append(finished, t)
			if d.hasTarget && engineEvaluate(eng)(t.Signature) >= d.target {
				reachedTarget = true
			}
		}

		log.Debug().Int("limit", limit).Int("terminals", len(finished)).
			Int("open", len(open)).Msg("deepening pass complete")

		if !result.Partial {
			// Every branch ended voluntarily within this limit: deeper
			// passes cannot add anything.
			agg.Partial = false
			break
		}
		if reachedTarget {
			break
		}
	}

	if budgetStopped {
		// These lines were not stopped by depth; the ladder would have gone
		// deeper if the budget had not run out.
		for i := range open {
			open[i].Reason = BudgetCutoff
		}
	}
	agg.Terminals = append(finished, open...)
	agg.Table = d.table.Stats()
	return agg, nil
}

// engineEvaluate exposes a pass engine's evaluator for target checks.
func engineEvaluate(e *Engine) game.Evaluate {
	if e.evaluate == nil {
		return func(game.Signature) float64 { return math.Inf(-1) }
	}
	return e.evaluate
}
