package searcher

import (
	"context"
	"testing"
	"time"

	"comboenum/engine"
	"comboenum/game"

	"github.com/stretchr/testify/require"
)

// ladderFixture has a voluntary end at depth 1 and another at depth 3.
func ladderFixture() *engine.ScriptNode {
	b3 := stopOnly(game.Snapshot{Field: []int{2, 3, 4}})
	b2 := &engine.ScriptNode{Snapshot: game.Snapshot{Field: []int{2, 3}, Hand: []int{4}}}
	b2.Choices = []engine.Choice{{Action: summon(4), Next: b3}}
	b1 := &engine.ScriptNode{Snapshot: game.Snapshot{Field: []int{2}, Hand: []int{3, 4}}}
	b1.Choices = []engine.Choice{{Action: summon(3), Next: b2}}

	root := &engine.ScriptNode{Snapshot: game.Snapshot{Hand: []int{1, 2}}}
	root.Choices = []engine.Choice{
		{Action: summon(1), Next: stopOnly(game.Snapshot{Field: []int{1}})},
		{Action: summon(2), Next: b1},
	}
	return root
}

func TestDeepeningSearch(t *testing.T) {
	t.Run("results surface in non-decreasing depth order", func(t *testing.T) {
		source := engine.NewScripted(ladderFixture())
		deepening := NewDeepening(source, engine.Config{}, WithLadder(5))

		result, err := deepening.Search(context.Background())

		require.NoError(t, err)
		require.Len(t, result.Terminals, 2)
		require.Equal(t, 1, result.Terminals[0].Depth, "The shallowest result must come first")
		require.Equal(t, 3, result.Terminals[1].Depth)
		require.False(t, result.Partial, "Every branch ended voluntarily within the ladder")
	})

	t.Run("a board seen shallow is never re-reported deeper", func(t *testing.T) {
		// The same final board is reachable in 2 moves or in 3.
		end := stopOnly(game.Snapshot{Field: []int{7}})
		c1 := &engine.ScriptNode{Snapshot: game.Snapshot{Grave: []int{1}}}
		c1.Choices = []engine.Choice{{Action: summon(7), Next: end}}
		d2 := &engine.ScriptNode{Snapshot: game.Snapshot{Grave: []int{1, 2}}}
		d2.Choices = []engine.Choice{{Action: summon(7), Next: end}}
		d1 := &engine.ScriptNode{Snapshot: game.Snapshot{Grave: []int{2}}}
		d1.Choices = []engine.Choice{{Action: activate(2), Next: d2}}
		root := &engine.ScriptNode{Snapshot: game.Snapshot{Hand: []int{1, 2}}}
		root.Choices = []engine.Choice{
			{Action: activate(1), Next: c1},
			{Action: activate(2), Next: d1},
		}

		source := engine.NewScripted(root)
		deepening := NewDeepening(source, engine.Config{}, WithLadder(6))

		result, err := deepening.Search(context.Background())

		require.NoError(t, err)

		endSig, buildErr := game.BuildSignature(game.Snapshot{Field: []int{7}})
		require.NoError(t, buildErr)

		matches := 0
		for _, terminal := range result.Terminals {
			if terminal.Signature.Hash == endSig.Hash {
				matches++
				require.Equal(t, 2, terminal.Depth, "The shallower discovery wins")
			}
		}
		require.Equal(t, 1, matches)
	})

	t.Run("a target value stops the ladder early", func(t *testing.T) {
		// Extend the deep line past the target board so the ladder would
		// otherwise keep going.
		b4 := stopOnly(game.Snapshot{Field: []int{2, 3, 4, 5}})
		b3 := &engine.ScriptNode{Snapshot: game.Snapshot{Field: []int{2, 3, 4}, Hand: []int{5}}}
		b3.Stop()
		b3.Choices = append(b3.Choices, engine.Choice{Action: summon(5), Next: b4})
		b2 := &engine.ScriptNode{Snapshot: game.Snapshot{Field: []int{2, 3}, Hand: []int{4, 5}}}
		b2.Choices = []engine.Choice{{Action: summon(4), Next: b3}}
		b1 := &engine.ScriptNode{Snapshot: game.Snapshot{Field: []int{2}, Hand: []int{3, 4, 5}}}
		b1.Choices = []engine.Choice{{Action: summon(3), Next: b2}}
		root := &engine.ScriptNode{Snapshot: game.Snapshot{Hand: []int{2}}}
		root.Choices = []engine.Choice{{Action: summon(2), Next: b1}}

		source := engine.NewScripted(root)
		deepening := NewDeepening(source, engine.Config{},
			WithLadder(10), WithTargetValue(3))

		result, err := deepening.Search(context.Background())

		require.NoError(t, err)
		require.True(t, result.Partial, "Stopping on target is a controlled early stop")

		found := false
		for _, terminal := range result.Terminals {
			if terminal.Reason != VoluntaryStop {
				continue
			}
			if game.EvaluateFieldPresence(terminal.Signature) >= 3 {
				found = true
			}
			require.NotEqual(t, 4, terminal.Depth, "Nothing past the target pass should be finished")
		}
		require.True(t, found, "The terminal that met the target must be reported")
	})

	t.Run("the cumulative path budget stops the ladder", func(t *testing.T) {
		source := engine.NewScripted(ladderFixture())
		deepening := NewDeepening(source, engine.Config{},
			WithLadder(5), WithPathBudget(2))

		result, err := deepening.Search(context.Background())

		require.NoError(t, err)
		require.Equal(t, 2, result.Paths)
		require.True(t, result.Partial)
		for _, terminal := range result.Terminals {
			require.Equal(t, BudgetCutoff, terminal.Reason,
				"These lines were stopped by the budget, not by their depth")
		}
	})

	t.Run("a generous time budget leaves the ladder unharmed", func(t *testing.T) {
		// Each pass runs under its own deadline context; releasing one pass's
		// deadline must not disturb the next pass.
		source := engine.NewScripted(ladderFixture())
		deepening := NewDeepening(source, engine.Config{},
			WithLadder(5), WithTimeBudget(time.Minute))

		result, err := deepening.Search(context.Background())

		require.NoError(t, err)
		require.Len(t, result.Terminals, 2)
		require.False(t, result.Partial)
	})

	t.Run("searching twice is deterministic", func(t *testing.T) {
		search := func() *Result {
			deepening := NewDeepening(engine.NewScripted(ladderFixture()), engine.Config{}, WithLadder(5))
			result, err := deepening.Search(context.Background())
			require.NoError(t, err)
			return result
		}

		require.Equal(t, search().Terminals, search().Terminals)
	})
}
