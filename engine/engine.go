package engine

import (
	"errors"

	"comboenum/game"
)

var (
	// ErrUnresolvable reports that an offered action failed to resolve
	// mid-execution. The caller records the (state, action) pair as failed
	// and continues with the remaining siblings.
	ErrUnresolvable = errors.New("action failed to resolve")

	// ErrStateCorrupt reports that the decision source's shared state is no
	// longer trustworthy. The whole pass aborts.
	ErrStateCorrupt = errors.New("decision source state corrupted")
)

// Config fixes the opening position a handle starts from.
type Config struct {
	Hand []int // opening hand card codes
}

// Source is the external rules engine: the sole origin of domain
// correctness. It hands out live positions and resolves actions on them. It
// offers no save/restore primitive; replaying from the configured start is
// the only way back to a prior position.
type Source interface {
	StartPosition(config Config) (Handle, error)
}

// Handle is one live position inside a decision source. A handle only moves
// forward: Apply advances it and there is no way back. Handles are passed
// explicitly down the traversal call chain, never held in globals, and are
// released when the traversal is done with them.
type Handle interface {
	// LegalActions reports the currently legal actions in the source's
	// order. The order is stable across replays of the same path.
	LegalActions() ([]game.ActionID, error)

	// Apply resolves one offered action, advancing the handle. It returns
	// ErrUnresolvable if the action turns out not to resolve, and
	// ErrStateCorrupt if the source's state can no longer be trusted.
	Apply(action game.ActionID) error

	// Snapshot reports the raw positional contents for signature building.
	Snapshot() (game.Snapshot, error)

	// Release frees the position. The handle must not be used afterwards.
	Release()
}
