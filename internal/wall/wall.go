// Package wall owns the shuffled draw pile shared by a single match.
// Grounded on the teacher's DeckManager (runtime/game/engines/mahjong/material.go)
// and original_source's GameState.wall, simplified to the 136-tile
// mahjong set spec.md requires (no red-five substitution, no dead
// wall split — Kan draws come from the same tail per spec.md §4.3).
package wall

import (
	"math/rand"

	"mahjongcore/internal/gameerr"
	"mahjongcore/internal/tile"
)

// Wall is the ordered draw pile. Draw pops from the tail per spec.md §4.2.
type Wall struct {
	tiles []tile.Tile
}

// New builds the canonical 136-tile set (34 kinds x 4 copies) and
// shuffles it with the given source, matching spec.md's "uniform random
// permutation seeded from the server's entropy source".
func New(rng *rand.Rand) *Wall {
	tiles := make([]tile.Tile, 0, 136)
	for _, k := range tile.Kinds {
		for c := uint8(0); c < 4; c++ {
			tiles = append(tiles, tile.Tile{Kind: k, Copy: c})
		}
	}
	rng.Shuffle(len(tiles), func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })
	return &Wall{tiles: tiles}
}

// Len reports the number of tiles remaining.
func (w *Wall) Len() int { return len(w.tiles) }

// Draw pops one tile from the tail. DrawFailed(162) if the wall is empty.
func (w *Wall) Draw() (tile.Tile, error) {
	if len(w.tiles) == 0 {
		return tile.Tile{}, gameerr.New(gameerr.DrawFailed, gameerr.CodeDrawWallEmpty)
	}
	last := len(w.tiles) - 1
	t := w.tiles[last]
	w.tiles = w.tiles[:last]
	return t, nil
}

// DrawMany pops n tiles from the tail, in pop order (first popped is
// element 0). Used for the initial 13-tile deal.
func (w *Wall) DrawMany(n int) ([]tile.Tile, error) {
	out := make([]tile.Tile, 0, n)
	for i := 0; i < n; i++ {
		t, err := w.Draw()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
