package match

import (
	"sync"
	"time"

	"mahjongcore/internal/gameerr"
	"mahjongcore/internal/oracle"
	"mahjongcore/internal/tile"
)

// CallAction is a seat's response within an open call window.
type CallAction int

const (
	CallPass CallAction = iota
	CallChi
	CallPon
	CallKan
	CallRon
)

// Resolution is the call window's single outcome, computed exactly
// once per discard per spec.md §4.3.
type Resolution struct {
	NoCall        bool
	TripleRonDraw bool
	RonWinners    []Seat
	CallWinner    Seat
	CallType      CallAction
	CalledTile    tile.Tile

	// KanDrawn and KanReplacement carry the dead-wall tile a winning Kan
	// owes its caller before their next discard (spec.md §4.3 step 4).
	KanDrawn       bool
	KanReplacement tile.Tile
}

// callWindow is the single arbitration instance for one discard. Its
// state is only ever touched while holding the owning Manager's mu,
// matching spec.md §5's rule that call-window resolution holds the
// match-state lock across the resolution step.
type callWindow struct {
	discarder Seat
	tile      tile.Tile
	flags     map[Seat]oracle.Flags
	responses map[Seat]CallAction
	resolved  bool
	once      sync.Once
	timer     *time.Timer
	resultCh  chan Resolution
}

// OpenCallWindow computes callability for the three non-discarding
// seats and starts the bounded arbitration window. If no seat has any
// flag set, it resolves immediately with NoCall and no timer is
// started.
func (m *Manager) OpenCallWindow(discarder Seat, discarded tile.Tile) (map[Seat]oracle.Flags, <-chan Resolution) {
	m.mu.Lock()

	flags := make(map[Seat]oracle.Flags, 3)
	s := discarder
	for i := 0; i < 3; i++ {
		s = NextSeat(s)
		p, ok := m.seats[s]
		if !ok {
			continue
		}
		offset := offsetFrom(discarder, s)
		f, err := m.oracle.CheckCalls(p.HandView(), discarded, offset)
		if err != nil {
			// Oracle errors degrade to "no calls possible" for this
			// discard, per spec.md §7.
			continue
		}
		if f.Chi || f.Pon || f.Kan || f.Ron {
			flags[s] = f
		}
	}

	if len(flags) == 0 {
		m.mu.Unlock()
		ch := make(chan Resolution, 1)
		ch <- Resolution{NoCall: true}
		close(ch)
		return flags, ch
	}

	cw := &callWindow{
		discarder: discarder,
		tile:      discarded,
		flags:     flags,
		responses: make(map[Seat]CallAction, len(flags)),
		timer:     time.NewTimer(m.cfg.CallWindowDeadline),
		resultCh:  make(chan Resolution, 1),
	}
	m.cw = cw
	m.mu.Unlock()

	go func() {
		<-cw.timer.C
		m.resolveCallWindow(cw)
	}()

	return flags, cw.resultCh
}

func actionAllowed(f oracle.Flags, a CallAction) bool {
	switch a {
	case CallPass:
		return true
	case CallChi:
		return f.Chi
	case CallPon:
		return f.Pon
	case CallKan:
		return f.Kan
	case CallRon:
		return f.Ron
	default:
		return false
	}
}

// SubmitCall records seat's response to the currently open call window.
// Unauthorized claims (wrong seat, flag not offered, duplicate response)
// are rejected with GameActionFailed and treated as a pass. Late
// responses after resolution are dropped the same way.
func (m *Manager) SubmitCall(seat Seat, action CallAction) error {
	m.mu.Lock()
	cw := m.cw
	if cw == nil || cw.resolved {
		m.mu.Unlock()
		return gameerr.New(gameerr.GameActionFailed, 0)
	}
	flags, eligible := cw.flags[seat]
	if !eligible {
		m.mu.Unlock()
		return gameerr.New(gameerr.GameActionFailed, 0)
	}
	if _, already := cw.responses[seat]; already {
		m.mu.Unlock()
		return gameerr.New(gameerr.GameActionFailed, 0)
	}
	allowed := actionAllowed(flags, action)
	if !allowed {
		action = CallPass
	}
	cw.responses[seat] = action
	allResponded := len(cw.responses) == len(cw.flags)
	m.mu.Unlock()

	if allResponded {
		m.resolveCallWindow(cw)
	}
	if !allowed {
		return gameerr.New(gameerr.GameActionFailed, 0)
	}
	return nil
}

// PruneDisconnected marks a disconnected seat as having implicitly
// passed, letting resolution proceed without waiting for the deadline
// when every remaining eligible seat has responded or been pruned.
func (m *Manager) PruneDisconnected(seat Seat) {
	m.mu.Lock()
	cw := m.cw
	if cw == nil || cw.resolved {
		m.mu.Unlock()
		return
	}
	if _, eligible := cw.flags[seat]; !eligible {
		m.mu.Unlock()
		return
	}
	if _, already := cw.responses[seat]; !already {
		cw.responses[seat] = CallPass
	}
	allResponded := len(cw.responses) == len(cw.flags)
	m.mu.Unlock()

	if allResponded {
		m.resolveCallWindow(cw)
	}
}

func (m *Manager) resolveCallWindow(cw *callWindow) {
	cw.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		cw.timer.Stop()
		res := m.computeResolutionLocked(cw)
		m.applyResolutionLocked(cw, &res)

		cw.resolved = true
		if m.cw == cw {
			m.cw = nil
		}
		cw.resultCh <- res
		close(cw.resultCh)
	})
}

// computeResolutionLocked implements spec.md §4.3's priority: Ron (up
// to three simultaneous winners) beats Kan beats Pon beats Chi.
func (m *Manager) computeResolutionLocked(cw *callWindow) Resolution {
	var ronSeats []Seat
	for seat, action := range cw.responses {
		if action == CallRon {
			ronSeats = append(ronSeats, seat)
		}
	}
	if len(ronSeats) >= 3 {
		return Resolution{TripleRonDraw: true, RonWinners: ronSeats}
	}
	if len(ronSeats) >= 1 {
		return Resolution{RonWinners: ronSeats}
	}

	for _, want := range []CallAction{CallKan, CallPon, CallChi} {
		for seat, action := range cw.responses {
			if action == want {
				return Resolution{CallWinner: seat, CallType: want, CalledTile: cw.tile}
			}
		}
	}
	return Resolution{NoCall: true}
}

// applyResolutionLocked mutates match state for the resolved call. Ron
// ends the match; a winning meld call hands the turn to the caller (and,
// for Kan, owes the caller a dead-wall replacement draw before their next
// discard); no winner leaves next_turn() to the caller (the router
// invokes it). res is mutated in place so the caller observes the
// replacement tile on the same value sent to resultCh.
func (m *Manager) applyResolutionLocked(cw *callWindow, res *Resolution) {
	switch {
	case res.TripleRonDraw:
		m.changeStatus(StatusFinished)
	case len(res.RonWinners) > 0:
		m.changeStatus(StatusFinished)
	case !res.NoCall:
		discarder, ok := m.seats[cw.discarder]
		if ok {
			discarder.PopLastDiscard()
		}
		caller, ok := m.seats[res.CallWinner]
		if ok {
			claimMeld(caller, res.CallType, cw.tile, cw.discarder)
			if res.CallType == CallKan {
				if t, err := m.drawDeadWallTileLocked(caller); err == nil {
					res.KanReplacement = t
					res.KanDrawn = true
				}
			}
		}
		m.currentSeat = res.CallWinner
		m.turnNumber++
		m.lastDiscard = nil
	}
}

// claimMeld removes the tiles consumed by a winning call from the
// caller's hand and appends the resulting meld. The oracle only
// reports legality, not which exact tiles match (spec.md §4.5); this
// performs the same-kind selection the teacher's opt_selector.go uses
// for its candidate enumeration.
func claimMeld(caller *Player, action CallAction, called tile.Tile, from Seat) {
	var meldType MeldType
	var need int
	switch action {
	case CallPon:
		meldType, need = MeldPon, 2
	case CallKan:
		meldType, need = MeldKan, 3
	case CallChi:
		meldType = MeldChi
	default:
		return
	}

	tiles := []tile.Tile{called}
	if action == CallChi {
		lower := tile.Tile{Kind: called.Kind - 1}
		upper := tile.Tile{Kind: called.Kind + 1}
		if found, ok := removeByKind(caller, lower.Kind); ok {
			tiles = append(tiles, found)
		}
		if found, ok := removeByKind(caller, upper.Kind); ok {
			tiles = append(tiles, found)
		}
	} else {
		for i := 0; i < need; i++ {
			if found, ok := removeByKind(caller, called.Kind); ok {
				tiles = append(tiles, found)
			}
		}
	}
	caller.AddMeld(Meld{Type: meldType, Tiles: tiles, FromSeat: from})
}

func removeByKind(p *Player, kind tile.Kind) (tile.Tile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, t := range p.Hand {
		if t.Kind == kind {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return t, true
		}
	}
	return tile.Tile{}, false
}
