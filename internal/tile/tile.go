// Package tile implements the 34-kind, 136-tile domain model shared by
// the wall, hands, discards and melds.
package tile

import (
	"fmt"

	"mahjongcore/internal/gameerr"
)

// Kind is the stable wire-facing tile identity. Bamboos occupy 11-19,
// circles 21-29, characters 31-39, dragons 41-43, winds 44-47.
type Kind uint8

const (
	Bamboo1 Kind = 11 + iota
	Bamboo2
	Bamboo3
	Bamboo4
	Bamboo5
	Bamboo6
	Bamboo7
	Bamboo8
	Bamboo9
)

const (
	Circle1 Kind = 21 + iota
	Circle2
	Circle3
	Circle4
	Circle5
	Circle6
	Circle7
	Circle8
	Circle9
)

const (
	Character1 Kind = 31 + iota
	Character2
	Character3
	Character4
	Character5
	Character6
	Character7
	Character8
	Character9
)

const (
	Red   Kind = 41
	White Kind = 42
	Green Kind = 43
)

const (
	East Kind = 44
	West Kind = 45
	North Kind = 46
	South Kind = 47
)

// Kinds lists all 34 valid kinds in wire order.
var Kinds = [34]Kind{
	Bamboo1, Bamboo2, Bamboo3, Bamboo4, Bamboo5, Bamboo6, Bamboo7, Bamboo8, Bamboo9,
	Circle1, Circle2, Circle3, Circle4, Circle5, Circle6, Circle7, Circle8, Circle9,
	Character1, Character2, Character3, Character4, Character5, Character6, Character7, Character8, Character9,
	Red, White, Green,
	East, West, North, South,
}

// ParseKind validates a wire byte into a Kind, rejecting values outside
// the 34-member set (including the abandoned draft's 1..9 codes; that
// draft's other codes overlap the current 11..39 ranges and parse as
// their current kinds).
func ParseKind(b byte) (Kind, bool) {
	k := Kind(b)
	switch {
	case k >= Bamboo1 && k <= Bamboo9:
		return k, true
	case k >= Circle1 && k <= Circle9:
		return k, true
	case k >= Character1 && k <= Character9:
		return k, true
	case k == Red || k == White || k == Green:
		return k, true
	case k >= East && k <= South:
		return k, true
	default:
		return 0, false
	}
}

func (k Kind) String() string {
	switch {
	case k >= Bamboo1 && k <= Bamboo9:
		return fmt.Sprintf("%ds", k-Bamboo1+1)
	case k >= Circle1 && k <= Circle9:
		return fmt.Sprintf("%dp", k-Circle1+1)
	case k >= Character1 && k <= Character9:
		return fmt.Sprintf("%dm", k-Character1+1)
	case k == Red:
		return "Red"
	case k == White:
		return "White"
	case k == Green:
		return "Green"
	case k == East:
		return "East"
	case k == West:
		return "West"
	case k == North:
		return "North"
	case k == South:
		return "South"
	default:
		return "?"
	}
}

// Tile is a single physical tile: one of 34 kinds, one of 4 copies.
type Tile struct {
	Kind Kind
	Copy uint8 // 0-3
}

// FromBytes parses a (kind, copy) wire pair, matching original_source's
// Tile::from_bytes.
func FromBytes(k, c byte) (Tile, error) {
	kind, ok := ParseKind(k)
	if !ok {
		return Tile{}, gameerr.New(gameerr.TileParsingFailed, 0)
	}
	if c > 3 {
		return Tile{}, gameerr.New(gameerr.TileParsingFailed, 0)
	}
	return Tile{Kind: kind, Copy: c}, nil
}

func (t Tile) String() string {
	return fmt.Sprintf("%s#%d", t.Kind, t.Copy)
}

// Equal reports identity by (kind, copy), the wall's uniqueness key.
func (t Tile) Equal(o Tile) bool {
	return t.Kind == o.Kind && t.Copy == o.Copy
}
