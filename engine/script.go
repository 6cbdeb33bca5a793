package engine

import (
	"fmt"

	"comboenum/game"
)

// ScriptNode describes one position of a scripted game: the snapshot the
// source reports there and the choices it offers. Scripted sources drive
// the enumeration tests and the demo binary; a real rules engine satisfies
// the same Source interface.
type ScriptNode struct {
	Snapshot game.Snapshot
	Choices  []Choice
}

// Choice is one offered action and what applying it does. A nil Next with
// neither flag set means the action fails to resolve when applied, which is
// exactly how a real engine surfaces an unresolvable offer.
type Choice struct {
	Action  game.ActionID
	Next    *ScriptNode
	Corrupt bool // applying reports corrupted shared state
}

// Stop appends an explicit stop choice to a node's menu.
func (n *ScriptNode) Stop() *ScriptNode {
	n.Choices = append(n.Choices, Choice{Action: game.Stop})
	return n
}

// Scripted is an in-process decision source backed by a script tree. It is
// deterministic and forward-only, like the engines it stands in for: a
// handle walks the tree and never backs up.
type Scripted struct {
	root func(Config) *ScriptNode

	// Starts counts StartPosition calls; tests use it to observe how many
	// forward replays a traversal performed.
	Starts int
}

// NewScripted builds a source that starts every position at root,
// regardless of config.
func NewScripted(root *ScriptNode) *Scripted {
	return &Scripted{root: func(Config) *ScriptNode { return root }}
}

// NewScriptedFunc builds a source whose opening position depends on the
// config, typically on the opening hand.
func NewScriptedFunc(root func(Config) *ScriptNode) *Scripted {
	return &Scripted{root: root}
}

func (s *Scripted) StartPosition(config Config) (Handle, error) {
	node := s.root(config)
	if node == nil {
		return nil, fmt.Errorf("no scripted position for config %+v", config)
	}
	s.Starts++
	return &scriptHandle{node: node}, nil
}

type scriptHandle struct {
	node     *ScriptNode
	released bool
}

func (h *scriptHandle) LegalActions() ([]game.ActionID, error) {
	if h.released {
		return nil, fmt.Errorf("%w: handle used after release", ErrStateCorrupt)
	}
	actions := make([]game.ActionID, len(h.node.Choices))
	for i, c := range h.node.Choices {
		actions[i] = c.Action
	}
	return actions, nil
}

func (h *scriptHandle) Apply(action game.ActionID) error {
	if h.released {
		return fmt.Errorf("%w: handle used after release", ErrStateCorrupt)
	}
	for _, c := range h.node.Choices {
		if c.Action != action {
			continue
		}
		if c.Corrupt {
			return fmt.Errorf("%w: applying %s", ErrStateCorrupt, action)
		}
		if c.Next == nil {
			if c.Action.IsStop() {
				// Ending the turn leaves the board as-is.
				return nil
			}
			return fmt.Errorf("%w: %s", ErrUnresolvable, action)
		}
		h.node = c.Next
		return nil
	}
	return fmt.Errorf("%w: %s was not offered here", ErrUnresolvable, action)
}

func (h *scriptHandle) Snapshot() (game.Snapshot, error) {
	if h.released {
		return game.Snapshot{}, fmt.Errorf("%w: handle used after release", ErrStateCorrupt)
	}
	return h.node.Snapshot, nil
}

func (h *scriptHandle) Release() {
	h.released = true
}
