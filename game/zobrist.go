package game

import "golang.org/x/exp/rand"

// StateHash is a 64-bit fingerprint of a position.
type StateHash uint64

// zobristSeed is the shared seed for per-element key derivation. It is a
// fixed constant, never process-local randomness: every worker must derive
// the same key for the same element with no coordination, or hashes computed
// by independently-run workers would be incompatible.
const zobristSeed uint64 = 0x7c3a9d2f51e846b1

// Derivation roles keep the key spaces of zone placements, equip pairs and
// legal actions disjoint.
const (
	roleEquip  = 100
	roleAction = 101
)

// deriveKey maps an element to its fixed 64-bit key. Each key is drawn from
// a PCG stream seeded by the element itself, so derivation order does not
// matter and two hashers always agree. Keys are never zero (zero is a no-op
// under XOR).
func deriveKey(card, aux, role int) uint64 {
	seed := zobristSeed
	seed ^= uint64(card) * 0x9e3779b97f4a7c15
	seed ^= uint64(aux) * 0xc2b2ae3d27d4eb4f
	seed ^= uint64(role) * 0x165667b19e3779f9
	rng := rand.New(rand.NewSource(seed))
	v := rng.Uint64()
	for v == 0 {
		v = rng.Uint64()
	}
	return v
}

// withOccurrence folds an occurrence index into an aux value so repeated
// copies of the same element get distinct keys. Two identical keys would
// XOR-cancel, making a pair of copies indistinguishable from none.
func withOccurrence(aux, occurrence int) int {
	return aux | occurrence<<32
}

type cardZone struct {
	card int
	zone Zone
}

type elementKey struct {
	card, aux, role int
}

// Hasher maintains an incremental position hash. Adding, removing or moving
// a single card updates the hash in O(1) by XOR-toggling that element's key
// instead of recomputing over the whole board. Duplicate copies of a card in
// the same zone get distinct keys per occurrence, so they do not cancel out.
//
// A Hasher is not safe for concurrent use; each worker owns its own.
type Hasher struct {
	keys   map[elementKey]uint64
	counts map[cardZone]int
	equips map[EquipPair]int
	hash   uint64
}

func NewHasher() *Hasher {
	return &Hasher{
		keys:   make(map[elementKey]uint64),
		counts: make(map[cardZone]int),
		equips: make(map[EquipPair]int),
	}
}

func (h *Hasher) key(card, aux, role int) uint64 {
	ek := elementKey{card, aux, role}
	if k, ok := h.keys[ek]; ok {
		return k
	}
	k := deriveKey(card, aux, role)
	h.keys[ek] = k
	return k
}

// Add places one copy of card into zone.
func (h *Hasher) Add(card int, zone Zone) {
	cz := cardZone{card, zone}
	occ := h.counts[cz]
	h.hash ^= h.key(card, occ, int(zone))
	h.counts[cz] = occ + 1
}

// Remove takes one copy of card out of zone. Removing a card that is not
// there is a caller bug and corrupts the hash; the signature builder guards
// against it upstream.
func (h *Hasher) Remove(card int, zone Zone) {
	cz := cardZone{card, zone}
	occ := h.counts[cz] - 1
	h.hash ^= h.key(card, occ, int(zone))
	if occ <= 0 {
		delete(h.counts, cz)
	} else {
		h.counts[cz] = occ
	}
}

// Move transfers one copy of card between zones in O(1).
func (h *Hasher) Move(card int, from, to Zone) {
	h.Remove(card, from)
	h.Add(card, to)
}

// AddEquip folds an equip relationship into the hash. Like Add, repeated
// identical pairs get per-occurrence keys so they do not cancel out.
func (h *Hasher) AddEquip(p EquipPair) {
	occ := h.equips[p]
	h.hash ^= h.key(p.Equip, withOccurrence(p.Host, occ), roleEquip)
	h.equips[p] = occ + 1
}

// RemoveEquip reverses AddEquip.
func (h *Hasher) RemoveEquip(p EquipPair) {
	occ := h.equips[p] - 1
	h.hash ^= h.key(p.Equip, withOccurrence(p.Host, occ), roleEquip)
	if occ <= 0 {
		delete(h.equips, p)
	} else {
		h.equips[p] = occ
	}
}

func (h *Hasher) Sum() StateHash {
	return StateHash(h.hash)
}

// HashSnapshot recomputes a position hash from scratch. It always agrees
// with a Hasher that was fed the same contents incrementally.
func HashSnapshot(s Snapshot) StateHash {
	h := NewHasher()
	for _, z := range s.zones() {
		for _, c := range z.Cards {
			h.Add(c, z.Zone)
		}
	}
	for _, p := range s.Equips {
		h.AddEquip(p)
	}
	return h.Sum()
}

// actionKey gives each legal action a fixed key so an action menu can be
// folded into a state hash order-independently. The occurrence index keeps a
// menu offering the same action twice distinct from one offering it once.
func actionKey(a ActionID, occurrence int) uint64 {
	aux := a.Effect<<8 | int(a.From)<<4 | int(a.Kind)
	return deriveKey(a.Card, withOccurrence(aux, occurrence), roleAction)
}
