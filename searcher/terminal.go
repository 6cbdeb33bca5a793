package searcher

import (
	"fmt"

	"comboenum/game"
)

// Reason explains why a path stopped where it did.
type Reason int

const (
	// VoluntaryStop means the line genuinely ended: the source offered no
	// actions, or an explicit stop was taken.
	VoluntaryStop Reason = iota
	// DepthCutoff means the depth limit truncated the line. It is a cutoff,
	// not proof the line was exhausted.
	DepthCutoff
	// BudgetCutoff means a path or time budget stopped the search before the
	// line could be taken deeper.
	BudgetCutoff
)

func (r Reason) String() string {
	switch r {
	case VoluntaryStop:
		return "voluntary_stop"
	case DepthCutoff:
		return "depth_cutoff"
	case BudgetCutoff:
		return "budget_cutoff"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Terminal records one fully explored line: the ordered actions that
// produced it, the board it ends on, how deep it went and why it stopped.
// Replaying Sequence from a fresh start reproduces Signature.
type Terminal struct {
	Sequence  []game.ActionID
	Signature game.Signature
	Depth     int
	Reason    Reason
}

// Result is everything one enumeration pass produced. Partial distinguishes
// a depth-, budget- or abort-capped pass from a genuinely exhausted one, so
// a cut off search is never mistaken for a proof of exhaustion.
type Result struct {
	Terminals []Terminal
	Partial   bool
	Paths     int
	MaxDepth  int
	Aborted   int // paths abandoned on unreadable or malformed positions
	Table     TableStats
}
