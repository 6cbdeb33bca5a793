package coordinator

import (
	"context"
	"testing"

	"comboenum/engine"
	"comboenum/game"
	"comboenum/results"

	"github.com/stretchr/testify/require"
)

// handScript opens every hand on a stop-only position, so each hand yields
// exactly one terminal with a board unique to that hand.
func handScript() engine.Source {
	return engine.NewScriptedFunc(func(config engine.Config) *engine.ScriptNode {
		node := &engine.ScriptNode{Snapshot: game.Snapshot{Hand: config.Hand}}
		return node.Stop()
	})
}

// panicOnHand blows up mid-search for one specific hand, standing in for a
// worker crash.
type panicOnHand struct {
	inner engine.Source
	hand  string
}

func (s *panicOnHand) StartPosition(config engine.Config) (engine.Handle, error) {
	if results.HandKey(config.Hand) == s.hand {
		panic("scripted worker crash")
	}
	return s.inner.StartPosition(config)
}

func TestCoordinatorRun(t *testing.T) {
	t.Run("every hand is searched exactly once across workers", func(t *testing.T) {
		coord := New(Config{
			Pool:      []int{1, 2, 3, 4, 5},
			HandSize:  2, // 10 hands
			Workers:   3,
			MaxDepth:  4,
			MaxPaths:  100,
			TableSize: 64,
			NewSource: func() engine.Source { return handScript() },
		})

		sweep, err := coord.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, 10, sweep.Total)
		require.Equal(t, 10, sweep.Completed)
		require.Equal(t, 0, sweep.Failed)
		require.Equal(t, 0, sweep.Skipped)
		require.Len(t, sweep.Records, 10)

		searched := make(map[string]int)
		for _, record := range sweep.Records {
			require.True(t, record.Completed)
			require.Equal(t, 1, record.Terminals)
			require.False(t, record.Partial)
			searched[results.HandKey(record.Hand)]++
		}
		require.Len(t, searched, 10, "No hand may be searched twice or dropped")

		require.Equal(t, 10, sweep.Terminals.Len(), "Each hand reaches a board unique to it")
	})

	t.Run("completed hands from a previous run are skipped", func(t *testing.T) {
		combos := Combinations([]int{1, 2, 3, 4}, 2) // 6 hands
		skip := map[string]bool{
			results.HandKey(combos[0]): true,
			results.HandKey(combos[5]): true,
		}

		coord := New(Config{
			Pool:      []int{1, 2, 3, 4},
			HandSize:  2,
			Workers:   2,
			MaxDepth:  4,
			TableSize: 64,
			NewSource: func() engine.Source { return handScript() },
			Skip:      skip,
		})

		sweep, err := coord.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, 2, sweep.Skipped)
		require.Equal(t, 4, sweep.Completed)
		require.Len(t, sweep.Records, 4)
		for _, record := range sweep.Records {
			require.False(t, skip[results.HandKey(record.Hand)], "A skipped hand must not be re-searched")
		}
	})

	t.Run("one crashing worker does not sink the sweep", func(t *testing.T) {
		// Hands in lexicographic order: the second worker's batch starts at
		// [2 3], which is the hand rigged to crash.
		coord := New(Config{
			Pool:      []int{1, 2, 3, 4},
			HandSize:  2,
			Workers:   2,
			MaxDepth:  4,
			TableSize: 64,
			NewSource: func() engine.Source {
				return &panicOnHand{inner: handScript(), hand: results.HandKey([]int{2, 3})}
			},
		})

		sweep, err := coord.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, 3, sweep.Completed, "The healthy worker finishes its whole batch")
		require.Equal(t, 3, sweep.Failed, "The crashed worker's whole batch is visibly incomplete")
		require.Len(t, sweep.Records, 6, "Every hand in the sweep is accounted for")

		failed := make(map[string]string)
		for _, record := range sweep.Records {
			if !record.Completed {
				require.NotEmpty(t, record.Err)
				failed[results.HandKey(record.Hand)] = record.Err
			}
		}
		require.Contains(t, failed[results.HandKey([]int{2, 3})], "crash")
		require.Contains(t, failed, results.HandKey([]int{2, 4}))
		require.Contains(t, failed, results.HandKey([]int{3, 4}))
	})

	t.Run("deepening mode sweeps the same space", func(t *testing.T) {
		coord := New(Config{
			Pool:      []int{1, 2, 3, 4},
			HandSize:  2,
			Workers:   2,
			MaxDepth:  4,
			TableSize: 64,
			Deepening: true,
			NewSource: func() engine.Source { return handScript() },
		})

		sweep, err := coord.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, 6, sweep.Completed)
		require.Equal(t, 6, sweep.Terminals.Len())
	})

	t.Run("cancellation stops the sweep and is reported", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		coord := New(Config{
			Pool:      []int{1, 2, 3, 4},
			HandSize:  2,
			Workers:   2,
			MaxDepth:  4,
			TableSize: 64,
			NewSource: func() engine.Source { return handScript() },
		})

		sweep, err := coord.Run(ctx)

		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 0, sweep.Completed)
	})
}

func TestCoordinatorConfig(t *testing.T) {
	t.Run("a missing source factory is a programming error", func(t *testing.T) {
		require.Panics(t, func() {
			New(Config{Pool: []int{1, 2}, HandSize: 1})
		})
	})

	t.Run("an impossible hand size is a programming error", func(t *testing.T) {
		require.Panics(t, func() {
			New(Config{
				Pool:      []int{1, 2},
				HandSize:  3,
				NewSource: func() engine.Source { return handScript() },
			})
		})
	})
}
