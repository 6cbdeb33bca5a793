package game

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDataIntegrity flags a malformed positional snapshot. The builder fails
// loudly rather than emitting a corrupted signature, because a corrupted
// signature would poison every cache keyed by it.
var ErrDataIntegrity = errors.New("positional snapshot failed integrity check")

// Signature is the canonical fingerprint of a position: every zone's
// contents as a sorted multiset plus the equip relationships, independent of
// which physical sub-slot a card occupies. Two positions with equal
// Signatures are interchangeable for result reporting.
//
// Build one with BuildSignature; a hand-assembled Signature has no valid Hash.
type Signature struct {
	Field    []int
	Grave    []int
	Hand     []int
	Banished []int
	Extra    []int
	Equips   []EquipPair
	Hash     StateHash
}

// BuildSignature canonicalizes a raw snapshot. It returns ErrDataIntegrity
// if the snapshot is malformed, e.g. an equip reference to a card absent
// from every zone.
func BuildSignature(snap Snapshot) (Signature, error) {
	for _, p := range snap.Equips {
		if !snap.contains(p.Equip) {
			return Signature{}, fmt.Errorf("%w: equip card %d absent from every zone", ErrDataIntegrity, p.Equip)
		}
		if !snap.contains(p.Host) {
			return Signature{}, fmt.Errorf("%w: equip host %d absent from every zone", ErrDataIntegrity, p.Host)
		}
	}

	sig := Signature{
		Field:    sortedCopy(snap.Field),
		Grave:    sortedCopy(snap.Grave),
		Hand:     sortedCopy(snap.Hand),
		Banished: sortedCopy(snap.Banished),
		Extra:    sortedCopy(snap.Extra),
		Equips:   sortedEquips(snap.Equips),
		Hash:     HashSnapshot(snap),
	}
	return sig, nil
}

// Empty zones stay nil rather than zero-length, so a signature that went
// through an encode/decode cycle compares equal to the original.
func sortedCopy(cards []int) []int {
	if len(cards) == 0 {
		return nil
	}
	out := make([]int, len(cards))
	copy(out, cards)
	sort.Ints(out)
	return out
}

func sortedEquips(pairs []EquipPair) []EquipPair {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]EquipPair, len(pairs))
	copy(out, pairs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Equip != out[j].Equip {
			return out[i].Equip < out[j].Equip
		}
		return out[i].Host < out[j].Host
	})
	return out
}

// Equal compares signatures structurally. Hash equality alone is not proof;
// this is the ground truth the hash approximates.
func (s Signature) Equal(other Signature) bool {
	return intsEqual(s.Field, other.Field) &&
		intsEqual(s.Grave, other.Grave) &&
		intsEqual(s.Hand, other.Hand) &&
		intsEqual(s.Banished, other.Banished) &&
		intsEqual(s.Extra, other.Extra) &&
		equipsEqual(s.Equips, other.Equips)
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equipsEqual(a, b []EquipPair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	return fmt.Sprintf("field=%v grave=%v hand=%v banished=%v extra=%v equips=%v",
		s.Field, s.Grave, s.Hand, s.Banished, s.Extra, s.Equips)
}

// StateKey is a Signature plus the currently legal action menu. It is
// strictly finer-grained than the Signature alone: two positions with equal
// board contents but different legal menus are not interchangeable mid-path,
// so mid-path memoization keys on StateKey, never on Signature.
type StateKey struct {
	Board   Signature
	Actions []ActionID
	Hash    StateHash
}

// BuildStateKey canonicalizes a snapshot together with its legal action
// menu. The menu is folded into the hash order-independently.
func BuildStateKey(snap Snapshot, actions []ActionID) (StateKey, error) {
	sig, err := BuildSignature(snap)
	if err != nil {
		return StateKey{}, err
	}

	h := uint64(sig.Hash)
	seen := make(map[ActionID]int, len(actions))
	for _, a := range actions {
		h ^= actionKey(a, seen[a])
		seen[a]++
	}

	menu := make([]ActionID, len(actions))
	copy(menu, actions)

	return StateKey{
		Board:   sig,
		Actions: menu,
		Hash:    StateHash(h),
	}, nil
}

// Evaluate scores a terminal board for "best known value" bookkeeping.
type Evaluate func(Signature) float64

// EvaluateFieldPresence is the default evaluator: developed boards are ones
// with more material on the field and more equips attached.
func EvaluateFieldPresence(sig Signature) float64 {
	return float64(len(sig.Field)) + 0.5*float64(len(sig.Equips))
}
