package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasher(t *testing.T) {
	t.Run("incremental updates agree with whole-value recomputation", func(t *testing.T) {
		h := NewHasher()
		h.Add(101, ZoneHand)
		h.Add(102, ZoneHand)
		h.Move(101, ZoneHand, ZoneField)
		h.Add(103, ZoneGrave)
		h.AddEquip(EquipPair{Equip: 103, Host: 101})

		want := HashSnapshot(Snapshot{
			Field:  []int{101},
			Hand:   []int{102},
			Grave:  []int{103},
			Equips: []EquipPair{{Equip: 103, Host: 101}},
		})

		require.Equal(t, want, h.Sum(), "A hash built element by element must match one built from scratch")
	})

	t.Run("add then remove restores the previous hash", func(t *testing.T) {
		h := NewHasher()
		h.Add(7, ZoneField)
		before := h.Sum()

		h.Add(8, ZoneGrave)
		h.Remove(8, ZoneGrave)

		require.Equal(t, before, h.Sum(), "The combining operator must be reversible")
	})

	t.Run("duplicate copies in one zone do not cancel out", func(t *testing.T) {
		one := NewHasher()
		one.Add(5, ZoneGrave)

		two := NewHasher()
		two.Add(5, ZoneGrave)
		two.Add(5, ZoneGrave)

		empty := NewHasher()

		require.NotEqual(t, empty.Sum(), two.Sum(), "Two copies must not XOR back to zero")
		require.NotEqual(t, one.Sum(), two.Sum(), "Multiplicity is part of the position")
	})

	t.Run("duplicate equip pairs do not cancel out", func(t *testing.T) {
		pair := EquipPair{Equip: 3, Host: 4}

		one := NewHasher()
		one.AddEquip(pair)

		two := NewHasher()
		two.AddEquip(pair)
		two.AddEquip(pair)

		require.NotEqual(t, NewHasher().Sum(), two.Sum(), "Two copies must not XOR back to zero")
		require.NotEqual(t, one.Sum(), two.Sum())

		two.RemoveEquip(pair)
		require.Equal(t, one.Sum(), two.Sum(), "Removing one copy leaves the other")
	})

	t.Run("independent hashers derive identical keys", func(t *testing.T) {
		// This is what lets parallel workers hash compatibly with no
		// coordination: derivation depends only on the shared seed.
		a := NewHasher()
		b := NewHasher()

		b.Add(900, ZoneBanished) // different derivation order on b
		b.Remove(900, ZoneBanished)
		a.Add(31, ZoneField)
		b.Add(31, ZoneField)
		a.AddEquip(EquipPair{Equip: 31, Host: 31})
		b.AddEquip(EquipPair{Equip: 31, Host: 31})

		require.Equal(t, a.Sum(), b.Sum())
	})

	t.Run("equip pairs hash by the exact pair", func(t *testing.T) {
		a := NewHasher()
		a.AddEquip(EquipPair{Equip: 1, Host: 2})

		b := NewHasher()
		b.AddEquip(EquipPair{Equip: 2, Host: 1})

		require.NotEqual(t, a.Sum(), b.Sum(), "Equip and host roles are not interchangeable")
	})
}
