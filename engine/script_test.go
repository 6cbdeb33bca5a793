package engine

import (
	"testing"

	"comboenum/game"

	"github.com/stretchr/testify/require"
)

func TestScriptedHandle(t *testing.T) {
	summon := game.ActionID{Kind: game.SummonAction, Card: 1, From: game.ZoneHand}

	script := func() *ScriptNode {
		next := (&ScriptNode{Snapshot: game.Snapshot{Field: []int{1}}}).Stop()
		root := &ScriptNode{Snapshot: game.Snapshot{Hand: []int{1}}}
		root.Choices = []Choice{{Action: summon, Next: next}}
		return root
	}

	t.Run("a handle walks the tree forward", func(t *testing.T) {
		source := NewScripted(script())
		h, err := source.StartPosition(Config{})
		require.NoError(t, err)
		defer h.Release()

		actions, err := h.LegalActions()
		require.NoError(t, err)
		require.Equal(t, []game.ActionID{summon}, actions)

		require.NoError(t, h.Apply(summon))
		snap, err := h.Snapshot()
		require.NoError(t, err)
		require.Equal(t, []int{1}, snap.Field)
	})

	t.Run("applying stop leaves the position unchanged", func(t *testing.T) {
		source := NewScripted(script())
		h, err := source.StartPosition(Config{})
		require.NoError(t, err)
		defer h.Release()

		require.NoError(t, h.Apply(summon))
		require.NoError(t, h.Apply(game.Stop))

		snap, err := h.Snapshot()
		require.NoError(t, err)
		require.Equal(t, []int{1}, snap.Field)
	})

	t.Run("an action that was never offered is unresolvable", func(t *testing.T) {
		source := NewScripted(script())
		h, err := source.StartPosition(Config{})
		require.NoError(t, err)
		defer h.Release()

		err = h.Apply(game.ActionID{Kind: game.ActivateAction, Card: 99})
		require.ErrorIs(t, err, ErrUnresolvable)
	})

	t.Run("an offered action with nowhere to go is unresolvable", func(t *testing.T) {
		root := &ScriptNode{Snapshot: game.Snapshot{Hand: []int{1}}}
		root.Choices = []Choice{{Action: summon}} // Next == nil
		source := NewScripted(root)

		h, err := source.StartPosition(Config{})
		require.NoError(t, err)
		defer h.Release()

		require.ErrorIs(t, h.Apply(summon), ErrUnresolvable)
	})

	t.Run("a corrupt choice reports corrupted state", func(t *testing.T) {
		root := &ScriptNode{Snapshot: game.Snapshot{Hand: []int{1}}}
		root.Choices = []Choice{{Action: summon, Corrupt: true}}
		source := NewScripted(root)

		h, err := source.StartPosition(Config{})
		require.NoError(t, err)
		defer h.Release()

		require.ErrorIs(t, h.Apply(summon), ErrStateCorrupt)
	})

	t.Run("a released handle refuses everything", func(t *testing.T) {
		source := NewScripted(script())
		h, err := source.StartPosition(Config{})
		require.NoError(t, err)
		h.Release()

		_, err = h.LegalActions()
		require.ErrorIs(t, err, ErrStateCorrupt)
		_, err = h.Snapshot()
		require.ErrorIs(t, err, ErrStateCorrupt)
		require.ErrorIs(t, h.Apply(summon), ErrStateCorrupt)
	})

	t.Run("start counting observes forward replays", func(t *testing.T) {
		source := NewScripted(script())
		for i := 0; i < 3; i++ {
			h, err := source.StartPosition(Config{})
			require.NoError(t, err)
			h.Release()
		}
		require.Equal(t, 3, source.Starts)
	})
}
