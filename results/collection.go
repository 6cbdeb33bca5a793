package results

import (
	"comboenum/game"
	"comboenum/searcher"
)

// Collection deduplicates terminal lines by their final board signature:
// two distinct action sequences converging on the same board count as one
// result, and the shortest line to that board is the one kept. Board-level
// equivalence is deliberately coarser than the mid-path memoization key;
// for end-state reporting the legal menu no longer matters.
type Collection struct {
	order      []game.StateHash
	bySig      map[game.StateHash]searcher.Terminal
	duplicates int
	partial    bool
}

func NewCollection() *Collection {
	return &Collection{bySig: make(map[game.StateHash]searcher.Terminal)}
}

// Add folds one terminal in. A new board is appended in discovery order; a
// known board keeps whichever line is better: a voluntary end beats a
// cutoff, then the shallower line wins, and ties keep the incumbent.
func (c *Collection) Add(t searcher.Terminal) {
	existing, ok := c.bySig[t.Signature.Hash]
	if !ok {
		c.order = append(c.order, t.Signature.Hash)
		c.bySig[t.Signature.Hash] = t
		return
	}

	c.duplicates++
	if betterLine(t, existing) {
		c.bySig[t.Signature.Hash] = t
	}
}

func betterLine(candidate, incumbent searcher.Terminal) bool {
	voluntary := func(t searcher.Terminal) bool { return t.Reason == searcher.VoluntaryStop }
	if voluntary(candidate) != voluntary(incumbent) {
		return voluntary(candidate)
	}
	return candidate.Depth < incumbent.Depth
}

// AddAll folds in a whole pass result, carrying its partial flag.
func (c *Collection) AddAll(result *searcher.Result) {
	for _, t := range result.Terminals {
		c.Add(t)
	}
	if result.Partial {
		c.partial = true
	}
}

// Terminals lists the kept lines in the order their boards were first
// discovered.
func (c *Collection) Terminals() []searcher.Terminal {
	out := make([]searcher.Terminal, len(c.order))
	for i, h := range c.order {
		out[i] = c.bySig[h]
	}
	return out
}

func (c *Collection) Len() int {
	return len(c.order)
}

// Duplicates counts lines that converged on an already-known board.
func (c *Collection) Duplicates() int {
	return c.duplicates
}

// MarkPartial flags the collection as built from a cut-off search, so it is
// never mistaken for a proof of exhaustiveness.
func (c *Collection) MarkPartial() {
	c.partial = true
}

func (c *Collection) Partial() bool {
	return c.partial
}
