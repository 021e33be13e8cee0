package protocol

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := Packet{ID: 7, Kind: Broadcast, Body: []byte("hello")}
	bytes := Encode(p)
	got, err := Decode(bytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != p.ID || got.Kind != p.Kind || string(got.Body) != string(p.Body) {
		t.Fatalf("got %+v", got)
	}
	if string(Encode(got)) != string(bytes) {
		t.Fatal("encode(decode(bytes)) != bytes")
	}
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	if _, err := Decode(make([]byte, 13)); err == nil {
		t.Fatal("expected error for frame shorter than 14 bytes")
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	p := Packet{ID: 1, Kind: Kind(9), Body: nil}
	raw := Encode(p)
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
