package match

import (
	"math/rand"
	"testing"
	"time"

	"mahjongcore/internal/oracle"
	"mahjongcore/internal/tile"
)

// stubOracle offers the same fixed flags to every seat (the zero value
// offers no call), letting these tests run without an embedded Lua VM.
type stubOracle struct {
	flags oracle.Flags
}

func (s stubOracle) CheckCalls(hand []tile.Tile, discard tile.Tile, offset int) (oracle.Flags, error) {
	return s.flags, nil
}

func (s stubOracle) CheckTsumo(hand []tile.Tile) (bool, error) {
	return s.flags.Ron, nil
}

func newTestManager(t *testing.T, ev oracle.Evaluator) *Manager {
	t.Helper()
	return NewManager(ev, Config{
		CallWindowDeadline: 50 * time.Millisecond,
		RNG:                rand.New(rand.NewSource(42)),
	})
}

func seatAllFourReady(t *testing.T, m *Manager) map[Seat]*Player {
	t.Helper()
	players := make(map[Seat]*Player, 4)
	for i := 0; i < 4; i++ {
		p, err := m.AssignPlayer(uint64(i+1), "p")
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		if p.HandLen() != 13 {
			t.Fatalf("initial hand should be 13, got %d", p.HandLen())
		}
		players[p.Seat] = p
		p.SetReady()
	}
	if err := m.CheckReady(); err != nil {
		t.Fatalf("check ready: %v", err)
	}
	if m.Status() != StatusOngoing {
		t.Fatalf("expected Ongoing, got %v", m.Status())
	}
	if m.CurrentSeat() != SeatEast {
		t.Fatalf("expected East to start, got %v", m.CurrentSeat())
	}
	return players
}

func TestJoinOrderIsEastNorthWestSouth(t *testing.T) {
	m := newTestManager(t, stubOracle{})
	want := []Seat{SeatEast, SeatNorth, SeatWest, SeatSouth}
	for i, w := range want {
		p, err := m.AssignPlayer(uint64(i+1), "p")
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		if p.Seat != w {
			t.Fatalf("join %d: got seat %v want %v", i, p.Seat, w)
		}
	}
	if _, err := m.AssignPlayer(5, "overflow"); err == nil {
		t.Fatal("expected NoAvailableSeats on fifth join")
	}
}

func TestTurnRotationNoCalls(t *testing.T) {
	m := newTestManager(t, stubOracle{}) // no flags ever offered
	players := seatAllFourReady(t, m)

	east := players[SeatEast]
	if _, err := m.Draw(east); err != nil {
		t.Fatalf("draw: %v", err)
	}
	target := east.Hand[0]
	if _, err := m.Discard(east, target); err != nil {
		t.Fatalf("discard: %v", err)
	}

	_, resultCh := m.OpenCallWindow(SeatEast, target)
	res := <-resultCh
	if !res.NoCall {
		t.Fatalf("expected no call, got %+v", res)
	}

	next, err := m.NextTurn()
	if err != nil {
		t.Fatalf("next turn: %v", err)
	}
	if next != SeatNorth {
		t.Fatalf("expected North next, got %v", next)
	}
	if m.TurnNumber() != 1 {
		t.Fatalf("expected turn_number=1, got %d", m.TurnNumber())
	}
}

func TestPonCallAwardsTurnToCaller(t *testing.T) {
	ev := stubOracle{flags: oracle.Flags{Pon: true}}
	m := newTestManager(t, ev)
	players := seatAllFourReady(t, m)

	east := players[SeatEast]
	if _, err := m.Draw(east); err != nil {
		t.Fatalf("draw: %v", err)
	}
	target := east.Hand[0]
	if _, err := m.Discard(east, target); err != nil {
		t.Fatalf("discard: %v", err)
	}

	_, resultCh := m.OpenCallWindow(SeatEast, target)
	if err := m.SubmitCall(SeatSouth, CallPon); err != nil {
		t.Fatalf("submit pon: %v", err)
	}
	res := <-resultCh
	if res.NoCall || res.CallWinner != SeatSouth || res.CallType != CallPon {
		t.Fatalf("expected South pon win, got %+v", res)
	}
	if m.CurrentSeat() != SeatSouth {
		t.Fatalf("expected current seat South, got %v", m.CurrentSeat())
	}
}

func TestRonPriorityBeatsChi(t *testing.T) {
	ev := stubOracle{flags: oracle.Flags{Chi: true, Ron: true}}
	m := newTestManager(t, ev)
	players := seatAllFourReady(t, m)

	east := players[SeatEast]
	if _, err := m.Draw(east); err != nil {
		t.Fatalf("draw: %v", err)
	}
	target := east.Hand[0]
	if _, err := m.Discard(east, target); err != nil {
		t.Fatalf("discard: %v", err)
	}

	_, resultCh := m.OpenCallWindow(SeatEast, target)
	if err := m.SubmitCall(SeatNorth, CallChi); err != nil {
		t.Fatalf("submit chi: %v", err)
	}
	if err := m.SubmitCall(SeatWest, CallRon); err != nil {
		t.Fatalf("submit ron: %v", err)
	}
	if err := m.SubmitCall(SeatSouth, CallPass); err != nil {
		t.Fatalf("submit pass: %v", err)
	}

	res := <-resultCh
	if len(res.RonWinners) != 1 || res.RonWinners[0] != SeatWest {
		t.Fatalf("expected West to win by ron, got %+v", res)
	}
	if m.Status() != StatusFinished {
		t.Fatalf("expected Finished, got %v", m.Status())
	}
}

func TestUnauthorizedCallRejected(t *testing.T) {
	ev := stubOracle{flags: oracle.Flags{Pon: true}}
	m := newTestManager(t, ev)
	players := seatAllFourReady(t, m)

	east := players[SeatEast]
	if _, err := m.Draw(east); err != nil {
		t.Fatalf("draw: %v", err)
	}
	target := east.Hand[0]
	if _, err := m.Discard(east, target); err != nil {
		t.Fatalf("discard: %v", err)
	}

	m.OpenCallWindow(SeatEast, target)
	if err := m.SubmitCall(SeatSouth, CallRon); err == nil {
		t.Fatal("expected GameActionFailed for an unoffered flag")
	}
}

func TestCallWindowTimesOutWithNoResponses(t *testing.T) {
	ev := stubOracle{flags: oracle.Flags{Pon: true}}
	m := newTestManager(t, ev)
	players := seatAllFourReady(t, m)

	east := players[SeatEast]
	if _, err := m.Draw(east); err != nil {
		t.Fatalf("draw: %v", err)
	}
	target := east.Hand[0]
	if _, err := m.Discard(east, target); err != nil {
		t.Fatalf("discard: %v", err)
	}

	_, resultCh := m.OpenCallWindow(SeatEast, target)
	select {
	case res := <-resultCh:
		if !res.NoCall {
			t.Fatalf("expected no call after timeout, got %+v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("call window never resolved")
	}
}

func TestDrawWrongTurnFails(t *testing.T) {
	m := newTestManager(t, stubOracle{})
	players := seatAllFourReady(t, m)
	north := players[SeatNorth]
	if _, err := m.Draw(north); err == nil {
		t.Fatal("expected DrawFailed for out-of-turn draw")
	}
}
