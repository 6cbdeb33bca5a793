package searcher

import (
	"context"
	"errors"
	"fmt"
	"math"

	"comboenum/engine"
	"comboenum/experiments/metrics"
	"comboenum/game"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxDepth = 24
	DefaultMaxPaths = 1 << 20
)

// Orderer reprioritizes which candidate branch is tried first at a
// position. It is advisory only: it may reorder candidates but never prunes
// them, so every branch is still eventually tried.
type Orderer interface {
	Order(board game.Signature, actions []game.ActionID) []game.ActionID
}

type Option func(e *Engine)

func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

func WithMaxPaths(paths int) Option {
	return func(e *Engine) {
		if paths > 0 {
			e.maxPaths = paths
		}
	}
}

func WithTable(table *Table) Option {
	return func(e *Engine) {
		if table != nil {
			e.table = table
		}
	}
}

func WithOrderer(orderer Orderer) Option {
	return func(e *Engine) {
		e.orderer = orderer
	}
}

func WithEvaluate(evaluate game.Evaluate) Option {
	return func(e *Engine) {
		if evaluate != nil {
			e.evaluate = evaluate
		}
	}
}

func WithCollector(collector metrics.Collector) Option {
	return func(e *Engine) {
		if collector != nil {
			e.metrics = collector
		}
	}
}

// Engine exhaustively explores the legal-action tree from one fixed start,
// within its depth and path budgets, and records every terminal it reaches.
// It is single-threaded and synchronous: parallelism lives one level up, in
// the coordinator, as independent engines.
type Engine struct {
	source   engine.Source
	config   engine.Config
	table    *Table
	failed   *failedSet
	orderer  Orderer
	evaluate game.Evaluate
	maxDepth int
	maxPaths int
	metrics  metrics.Collector
}

func NewEngine(source engine.Source, config engine.Config, options ...Option) *Engine {
	if source == nil {
		panic("Must provide a decision source")
	}
	e := &Engine{ // Default values
		source:   source,
		config:   config,
		failed:   newFailedSet(),
		evaluate: game.EvaluateFieldPresence,
		maxDepth: DefaultMaxDepth,
		maxPaths: DefaultMaxPaths,
		metrics:  metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(e)
	}
	if e.table == nil {
		e.table = NewTable(DefaultTableSize)
	}
	return e
}

// errBudgetExhausted unwinds the traversal when the path budget runs out.
// It is a controlled early stop, not a failure.
var errBudgetExhausted = errors.New("path budget exhausted")

type run struct {
	terminals []Terminal
	paths     int
	maxDepth  int
	aborted   int  // paths abandoned on unreadable or malformed positions
	truncated int  // lines that hit the depth cutoff
	cancelled bool // cooperative stop requested
}

// Run explores the tree until it is exhausted or a budget fires. The
// context is polled only between path explorations, never mid-path, so a
// requested stop finishes the in-flight path and returns partial results
// with the table in a consistent state.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.metrics.Start()
	r := &run{}

	root, err := e.replay(nil)
	if err != nil {
		return nil, err
	}
	_, _, err = e.expand(ctx, r, root, nil, 0)

	// An abandoned branch counts against completeness too: a pass that
	// skipped a malformed position did not prove exhaustion.
	partial := r.truncated > 0 || r.aborted > 0 || r.cancelled
	if errors.Is(err, errBudgetExhausted) {
		partial = true
	} else if err != nil {
		return nil, err
	}

	e.metrics.SetPartial(partial)
	return &Result{
		Terminals: r.terminals,
		Partial:   partial,
		Paths:     r.paths,
		MaxDepth:  r.maxDepth,
		Aborted:   r.aborted,
		Table:     e.table.Stats(),
	}, nil
}

// expand processes the node that handle has been advanced to. It returns
// the best terminal value found below the node and the deepest level
// reached, for the node's transposition entry. The handle is always
// released, whatever happens: children rebuild their own positions by
// forward replay.
func (e *Engine) expand(ctx context.Context, r *run, h engine.Handle, path []game.ActionID, depth int) (float64, int, error) {
	snap, actions, err := inspect(h)
	if err != nil {
		if errors.Is(err, engine.ErrStateCorrupt) {
			return math.Inf(-1), depth, err
		}
		// Anything else poisons only this path; siblings continue.
		log.Warn().Err(err).Int("depth", depth).Msg("abandoning path: position unreadable")
		r.aborted++
		return math.Inf(-1), depth, nil
	}

	key, err := game.BuildStateKey(snap, actions)
	if err != nil {
		log.Warn().Err(err).Int("depth", depth).Msg("abandoning path: malformed snapshot")
		r.aborted++
		return math.Inf(-1), depth, nil
	}

	e.metrics.ObserveDepth(depth)
	if depth > r.maxDepth {
		r.maxDepth = depth
	}

	remaining := e.maxDepth - depth
	if entry := e.table.Lookup(key.Hash); entry != nil {
		e.metrics.AddCacheHit()
		if entry.Exhausted || entry.Depth >= remaining {
			// This exact state was already explored at least as far as we
			// could go now; its terminals are on record.
			e.metrics.AddDuplicateSkip()
			return entry.Value, depth + entry.Depth, nil
		}
	} else {
		e.metrics.AddCacheMiss()
	}

	actions = e.failed.filter(key.Hash, actions)

	if len(actions) == 0 {
		return e.emit(ctx, r, Terminal{
			Sequence:  clonePath(path),
			Signature: key.Board,
			Depth:     depth,
			Reason:    VoluntaryStop,
		})
	}

	if remaining <= 0 {
		// A cutoff, explicitly labeled as such: not proof of exhaustion.
		return e.emit(ctx, r, Terminal{
			Sequence:  clonePath(path),
			Signature: key.Board,
			Depth:     depth,
			Reason:    DepthCutoff,
		})
	}

	best, deepest := math.Inf(-1), depth
	prevTruncated, prevAborted := r.truncated, r.aborted
	for _, action := range e.order(key.Board, actions) {
		if r.cancelled {
			break
		}

		if action.IsStop() {
			value, reached, err := e.emit(ctx, r, Terminal{
				Sequence:  appendAction(path, action),
				Signature: key.Board,
				Depth:     depth,
				Reason:    VoluntaryStop,
			})
			best, deepest = accumulate(best, deepest, value, reached)
			if err != nil {
				return best, deepest, err
			}
			continue
		}

		child, err := e.advance(path, action)
		if errors.Is(err, engine.ErrUnresolvable) {
			// Never retry this action at this state, however the state is
			// reached later.
			e.failed.record(key.Hash, action)
			e.metrics.AddFailedAction()
			log.Debug().Stringer("action", action).Int("depth", depth).Msg("offered action failed to resolve")
			continue
		}
		if err != nil {
			return best, deepest, err
		}

		value, reached, err := e.expand(ctx, r, child, appendAction(path, action), depth+1)
		best, deepest = accumulate(best, deepest, value, reached)
		if err != nil {
			return best, deepest, err
		}
	}

	// The root never transposes with itself, so only non-root states are
	// worth caching. Cancelled subtrees are incomplete and must not be
	// cached as if they were explored.
	if depth > 0 && !math.IsInf(best, -1) && !r.cancelled {
		exhausted := r.truncated == prevTruncated && r.aborted == prevAborted
		e.table.Store(key.Hash, best, deepest-depth, exhausted)
	}
	return best, deepest, nil
}

// emit records one fully explored path. The context is polled here, between
// paths, which is the only cancellation point in the traversal.
func (e *Engine) emit(ctx context.Context, r *run, t Terminal) (float64, int, error) {
	r.terminals = append(r.terminals, t)
	r.paths++
	if t.Reason == DepthCutoff {
		r.truncated++
	}
	e.metrics.AddPath()
	e.metrics.AddTerminal()

	if ctx.Err() != nil {
		r.cancelled = true
	}

	value := e.evaluate(t.Signature)
	if e.maxPaths > 0 && r.paths >= e.maxPaths {
		return value, t.Depth, errBudgetExhausted
	}
	return value, t.Depth, nil
}

// advance rebuilds the position at the end of path and probes one more
// action on it. The probe's failure mode is the caller's signal to record a
// failed action.
func (e *Engine) advance(path []game.ActionID, action game.ActionID) (engine.Handle, error) {
	h, err := e.replay(path)
	if err != nil {
		return nil, err
	}
	if err := h.Apply(action); err != nil {
		h.Release()
		return nil, err
	}
	return h, nil
}

// replay re-executes the full action prefix from the configured start. With
// no save/restore in the decision source, this is the only way back to a
// prior position.
func (e *Engine) replay(path []game.ActionID) (engine.Handle, error) {
	h, err := e.source.StartPosition(e.config)
	if err != nil {
		return nil, fmt.Errorf("start position: %w", err)
	}
	for i, action := range path {
		if err := h.Apply(action); err != nil {
			h.Release()
			// An action that resolved before must resolve again; if not,
			// the source no longer agrees with itself.
			return nil, fmt.Errorf("replay diverged at step %d (%s): %w", i, action, engine.ErrStateCorrupt)
		}
	}
	e.metrics.AddReplay()
	return h, nil
}

func (e *Engine) order(board game.Signature, actions []game.ActionID) []game.ActionID {
	if e.orderer == nil {
		return actions
	}
	ordered := e.orderer.Order(board, actions)
	if !sameCandidates(actions, ordered) {
		log.Warn().Msg("ordering hint changed the candidate set; ignoring it")
		return actions
	}
	return ordered
}

// sameCandidates checks that a hint only permuted the candidates.
func sameCandidates(actions, ordered []game.ActionID) bool {
	if len(actions) != len(ordered) {
		return false
	}
	counts := make(map[game.ActionID]int, len(actions))
	for _, a := range actions {
		counts[a]++
	}
	for _, a := range ordered {
		counts[a]--
		if counts[a] < 0 {
			return false
		}
	}
	return true
}

func inspect(h engine.Handle) (game.Snapshot, []game.ActionID, error) {
	defer h.Release()
	snap, err := h.Snapshot()
	if err != nil {
		return game.Snapshot{}, nil, err
	}
	actions, err := h.LegalActions()
	if err != nil {
		return game.Snapshot{}, nil, err
	}
	return snap, actions, nil
}

func accumulate(best float64, deepest int, value float64, reached int) (float64, int) {
	if value > best {
		best = value
	}
	if reached > deepest {
		deepest = reached
	}
	return best, deepest
}

func clonePath(path []game.ActionID) []game.ActionID {
	out := make([]game.ActionID, len(path))
	copy(out, path)
	return out
}

func appendAction(path []game.ActionID, action game.ActionID) []game.ActionID {
	out := make([]game.ActionID, len(path)+1)
	copy(out, path)
	out[len(path)] = action
	return out
}

// Replay re-executes a terminal's action sequence from a fresh start and
// returns the signature of the final position. Any returned terminal's
// sequence reproduces its recorded signature this way.
func Replay(source engine.Source, config engine.Config, sequence []game.ActionID) (game.Signature, error) {
	h, err := source.StartPosition(config)
	if err != nil {
		return game.Signature{}, err
	}
	defer h.Release()
	for i, action := range sequence {
		if err := h.Apply(action); err != nil {
			return game.Signature{}, fmt.Errorf("replay failed at step %d (%s): %w", i, action, err)
		}
	}
	snap, err := h.Snapshot()
	if err != nil {
		return game.Signature{}, err
	}
	return game.BuildSignature(snap)
}
