package game

import "fmt"

// ActionKind categorizes what a legal action does when resolved.
type ActionKind int

const (
	ActivateAction ActionKind = iota
	SummonAction
	SetAction
	SearchAction
	StopAction
)

func (k ActionKind) String() string {
	switch k {
	case ActivateAction:
		return "activate"
	case SummonAction:
		return "summon"
	case SetAction:
		return "set"
	case SearchAction:
		return "search"
	case StopAction:
		return "stop"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ActionID identifies one legal action offered by the decision source.
// It is stable across any number of replays of the same path, so it can
// be recorded, compared and replayed safely.
type ActionID struct {
	Kind   ActionKind
	Card   int  // card code, 0 for actions with no associated card
	Effect int  // effect index on the card
	From   Zone // where the acting card currently sits
}

// Stop is the explicit end-of-turn action.
var Stop = ActionID{Kind: StopAction}

func (a ActionID) IsStop() bool {
	return a.Kind == StopAction
}

func (a ActionID) String() string {
	if a.IsStop() {
		return "stop"
	}
	return fmt.Sprintf("%s:%d/%d@%s", a.Kind, a.Card, a.Effect, a.From)
}
