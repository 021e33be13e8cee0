package router

import (
	"testing"
	"time"

	"mahjongcore/internal/match"
	"mahjongcore/internal/oracle"
	"mahjongcore/internal/protocol"
	"mahjongcore/internal/tile"
)

type stubOracle struct{ flags oracle.Flags }

func (s stubOracle) CheckCalls(hand []tile.Tile, discard tile.Tile, offset int) (oracle.Flags, error) {
	return s.flags, nil
}

func (s stubOracle) CheckTsumo(hand []tile.Tile) (bool, error) {
	return s.flags.Ron, nil
}

type stubBroadcaster struct {
	broadcasts []protocol.Packet
	unicasts   map[uint64][]protocol.Packet
}

func newStubBroadcaster() *stubBroadcaster {
	return &stubBroadcaster{unicasts: make(map[uint64][]protocol.Packet)}
}

func (b *stubBroadcaster) Broadcast(p protocol.Packet) { b.broadcasts = append(b.broadcasts, p) }
func (b *stubBroadcaster) Unicast(playerID uint64, p protocol.Packet) error {
	b.unicasts[playerID] = append(b.unicasts[playerID], p)
	return nil
}

func newTestRouter(t *testing.T) (*Router, *match.Manager, *stubBroadcaster) {
	t.Helper()
	mgr := match.NewManager(stubOracle{}, match.Config{CallWindowDeadline: 20 * time.Millisecond})
	bc := newStubBroadcaster()
	r := New(mgr, bc)
	return r, mgr, bc
}

func seatFourPlayers(t *testing.T, mgr *match.Manager) {
	t.Helper()
	for i, alias := range []string{"e", "n", "w", "s"} {
		p, err := mgr.AssignPlayer(uint64(i+1), alias)
		if err != nil {
			t.Fatalf("assign %d: %v", i, err)
		}
		p.SetReady()
	}
	if err := mgr.CheckReady(); err != nil {
		t.Fatalf("check ready: %v", err)
	}
}

func TestDrawOutOfTurnFails(t *testing.T) {
	_, mgr, _ := newTestRouter(t)
	seatFourPlayers(t, mgr)

	south, _ := mgr.Player(4)
	if south.Seat == mgr.CurrentSeat() {
		t.Fatalf("test setup assumption broken: south is current seat")
	}
	if _, err := mgr.Draw(south); err == nil {
		t.Fatalf("expected draw-out-of-turn to fail")
	}
}

func TestAwaitCallResolutionAdvancesTurnOnNoCall(t *testing.T) {
	r, mgr, bc := newTestRouter(t)
	seatFourPlayers(t, mgr)

	east, _ := mgr.PlayerAt(mgr.CurrentSeat())
	hand := east.HandView()
	target := hand[0]

	discarded, err := mgr.Discard(east, target)
	if err != nil {
		t.Fatalf("discard: %v", err)
	}

	_, resultCh := mgr.OpenCallWindow(east.Seat, discarded)
	r.awaitCallResolution(resultCh)

	if len(bc.broadcasts) != 1 {
		t.Fatalf("expected one broadcast for the resolved call window, got %d", len(bc.broadcasts))
	}
	next := mgr.CurrentSeat()
	if next == east.Seat {
		t.Fatalf("expected turn to advance past the discarder")
	}
}

func TestParseActionOpRoundTrip(t *testing.T) {
	body := actionBody(protocol.ActionDraw, nil)
	op, rest, err := protocol.ParseActionOp(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if op != protocol.ActionDraw || len(rest) != 0 {
		t.Fatalf("got op=%v rest=%v", op, rest)
	}
}

// actionBody builds a minimal Action body: 4-byte LE op code followed
// by an optional payload.
func actionBody(op protocol.ActionOp, rest []byte) []byte {
	out := make([]byte, 4+len(rest))
	out[0] = byte(op)
	copy(out[4:], rest)
	return out
}
