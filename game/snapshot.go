package game

import "fmt"

// Zone identifies which pile of the board a card sits in.
type Zone int

const (
	ZoneField Zone = iota
	ZoneGrave
	ZoneHand
	ZoneBanished
	ZoneExtra
)

func (z Zone) String() string {
	switch z {
	case ZoneField:
		return "field"
	case ZoneGrave:
		return "grave"
	case ZoneHand:
		return "hand"
	case ZoneBanished:
		return "banished"
	case ZoneExtra:
		return "extra"
	default:
		return fmt.Sprintf("zone(%d)", int(z))
	}
}

// EquipPair records an equip card attached to a host card, both by card code.
type EquipPair struct {
	Equip int
	Host  int
}

// Snapshot is the raw positional report the decision source produces for a
// position. Each zone lists card codes in whatever internal slot order the
// source happens to use; that order carries no meaning and the signature
// builder discards it.
type Snapshot struct {
	Field    []int
	Grave    []int
	Hand     []int
	Banished []int
	Extra    []int
	Equips   []EquipPair
}

// zones iterates the snapshot's piles with their zone tags.
func (s Snapshot) zones() []struct {
	Zone  Zone
	Cards []int
} {
	return []struct {
		Zone  Zone
		Cards []int
	}{
		{ZoneField, s.Field},
		{ZoneGrave, s.Grave},
		{ZoneHand, s.Hand},
		{ZoneBanished, s.Banished},
		{ZoneExtra, s.Extra},
	}
}

// contains reports whether the card code appears in any zone.
func (s Snapshot) contains(card int) bool {
	for _, z := range s.zones() {
		for _, c := range z.Cards {
			if c == card {
				return true
			}
		}
	}
	return false
}
