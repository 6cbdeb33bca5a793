package searcher

import "comboenum/game"

// failedSet remembers (state, action) pairs that did not resolve when
// applied. It is consulted every time legal actions are re-enumerated at a
// revisited state, however that state was reached, so a known-dead choice is
// never retried. This matters as much as the positive cache: without it,
// re-expansion after backtracking can loop forever on the same doomed
// action.
type failedSet struct {
	byState map[game.StateHash]map[game.ActionID]struct{}
}

func newFailedSet() *failedSet {
	return &failedSet{byState: make(map[game.StateHash]map[game.ActionID]struct{})}
}

// record marks action as permanently failed at the state identified by key.
func (f *failedSet) record(key game.StateHash, action game.ActionID) {
	actions, ok := f.byState[key]
	if !ok {
		actions = make(map[game.ActionID]struct{})
		f.byState[key] = actions
	}
	actions[action] = struct{}{}
}

// filter drops actions previously recorded as failed at this state,
// preserving the source's reported order of the rest.
func (f *failedSet) filter(key game.StateHash, actions []game.ActionID) []game.ActionID {
	excluded, ok := f.byState[key]
	if !ok || len(excluded) == 0 {
		return actions
	}
	kept := actions[:0:0]
	for _, a := range actions {
		if _, dead := excluded[a]; !dead {
			kept = append(kept, a)
		}
	}
	return kept
}
