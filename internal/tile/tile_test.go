package tile

import "testing"

func TestParseKindAcceptsAllThirtyFour(t *testing.T) {
	for _, k := range Kinds {
		if _, ok := ParseKind(byte(k)); !ok {
			t.Fatalf("kind %v rejected", k)
		}
	}
}

func TestParseKindRejectsAbandonedDraftRange(t *testing.T) {
	for _, b := range []byte{1, 9, 37} {
		if _, ok := ParseKind(b); ok {
			t.Fatalf("byte %d from the abandoned draft range should not parse", b)
		}
	}
}

func TestFromBytesRejectsBadCopy(t *testing.T) {
	if _, err := FromBytes(byte(Red), 4); err == nil {
		t.Fatal("expected error for copy index 4")
	}
}

func TestFromBytesRoundTrip(t *testing.T) {
	tl, err := FromBytes(byte(Bamboo5), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tl.Kind != Bamboo5 || tl.Copy != 2 {
		t.Fatalf("got %+v", tl)
	}
	if tl.String() != "5s#2" {
		t.Fatalf("got %q", tl.String())
	}
}

func TestEqual(t *testing.T) {
	a := Tile{Kind: Red, Copy: 1}
	b := Tile{Kind: Red, Copy: 1}
	c := Tile{Kind: Red, Copy: 2}
	if !a.Equal(b) {
		t.Fatal("expected equal")
	}
	if a.Equal(c) {
		t.Fatal("expected not equal")
	}
}
