package wall

import (
	"math/rand"
	"testing"
)

func TestNewHasAllOneThirtySixTilesUnique(t *testing.T) {
	w := New(rand.New(rand.NewSource(1)))
	if w.Len() != 136 {
		t.Fatalf("got %d tiles", w.Len())
	}
	seen := make(map[string]bool, 136)
	for _, tl := range w.tiles {
		key := tl.String()
		if seen[key] {
			t.Fatalf("duplicate tile %s", key)
		}
		seen[key] = true
	}
}

func TestDrawManyPopsFromTail(t *testing.T) {
	w := New(rand.New(rand.NewSource(1)))
	want := w.tiles[len(w.tiles)-1]
	got, err := w.DrawMany(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != want {
		t.Fatalf("got %v want %v", got[0], want)
	}
	if w.Len() != 135 {
		t.Fatalf("got %d remaining", w.Len())
	}
}

func TestDrawOnEmptyWallFails(t *testing.T) {
	w := &Wall{}
	if _, err := w.Draw(); err == nil {
		t.Fatal("expected error on empty wall")
	}
}
