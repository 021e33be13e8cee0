// Package match is the authoritative owner of all mutable match state:
// the wall, the four player records, current_seat, turn_number,
// last_discard and status. Grounded method-for-method on
// original_source/src/game/match_manager.rs, with the call-window
// arbitration (callwindow.go) grounded on the teacher's
// riichi_mahjong_4p_engine.go actor-loop and handleReactionComplete.
package match

import (
	"math/rand"
	"sync"
	"time"

	"mahjongcore/internal/gameerr"
	"mahjongcore/internal/oracle"
	"mahjongcore/internal/tile"
	"mahjongcore/internal/wall"
)

// Status is the match lifecycle state. spec.md adds the intermediate
// Ready state that original_source's MatchStatus lacks.
type Status int

const (
	StatusWaiting Status = iota
	StatusReady
	StatusOngoing
	StatusFinished
	StatusInterrupted
)

// Bytes renders the 4-byte LE broadcast body for a status transition,
// per spec.md §4.3.
func (s Status) Bytes() [4]byte {
	return [4]byte{byte(s), 0, 0, 0}
}

// LastDiscard records the most recent discard, cleared when the turn
// advances (NextTurn), on the next draw, or when a call claims the tile.
type LastDiscard struct {
	Seat Seat
	Tile tile.Tile
}

// Config bounds the call window and wall construction.
type Config struct {
	CallWindowDeadline time.Duration
	RNG                *rand.Rand
}

// Manager owns match state. All mutation happens through its methods;
// callers never reach into seats/wall directly, matching spec.md §3's
// ownership rule.
type Manager struct {
	mu sync.RWMutex

	seats       map[Seat]*Player
	currentSeat Seat
	turnNumber  int
	lastDiscard *LastDiscard
	wall        *wall.Wall
	status      Status

	oracle oracle.Evaluator
	cfg    Config

	statusCh chan Status // capacity-1, latest-wins watch channel
	cw       *callWindow
}

// NewManager builds an empty, Waiting-status manager. The wall is built
// lazily by the first AssignPlayer, which deals from it, not at
// construction.
func NewManager(ev oracle.Evaluator, cfg Config) *Manager {
	if cfg.RNG == nil {
		cfg.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.CallWindowDeadline == 0 {
		cfg.CallWindowDeadline = 1500 * time.Millisecond
	}
	return &Manager{
		seats:    make(map[Seat]*Player, 4),
		status:   StatusWaiting,
		oracle:   ev,
		cfg:      cfg,
		statusCh: make(chan Status, 1),
	}
}

// Subscribe returns the status watch channel. Only one subscriber is
// expected (the protocol router); it refills on every change with the
// latest value only, mirroring the teacher's watch::Sender usage.
func (m *Manager) Subscribe() <-chan Status { return m.statusCh }

func (m *Manager) publishStatus(s Status) {
	select {
	case <-m.statusCh:
	default:
	}
	m.statusCh <- s
}

// Status reports the current match status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) changeStatus(s Status) {
	m.status = s
	m.publishStatus(s)
}

// GetFreeSeat returns the first unoccupied seat in join order
// (East, North, West, South), or false if the table is full.
func (m *Manager) GetFreeSeat() (Seat, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.freeSeatLocked()
}

func (m *Manager) freeSeatLocked() (Seat, bool) {
	for _, s := range seatOrder {
		if _, ok := m.seats[s]; !ok {
			return s, true
		}
	}
	return 0, false
}

// AssignPlayer seats a newly joined player, dealing an initial 13-tile
// hand once the wall exists. NoAvailableSeats if the table is full.
func (m *Manager) AssignPlayer(id uint64, alias string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, ok := m.freeSeatLocked()
	if !ok {
		return nil, gameerr.New(gameerr.NoAvailableSeats, 0)
	}
	if m.wall == nil {
		m.wall = wall.New(m.cfg.RNG)
	}

	hand, err := m.wall.DrawMany(13)
	if err != nil {
		return nil, err
	}
	p := NewPlayer(id, alias, seat)
	p.AddTiles(hand...)
	m.seats[seat] = p
	return p, nil
}

// CheckSeats validates all four seats are filled, matching
// original_source's per-seat MatchStartFailed codes (151-154).
func (m *Manager) CheckSeats() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := map[Seat]int{
		SeatEast:  gameerr.CodeMatchStartEastFree,
		SeatSouth: gameerr.CodeMatchStartSouth,
		SeatWest:  gameerr.CodeMatchStartWest,
		SeatNorth: gameerr.CodeMatchStartNorth,
	}
	for _, s := range seatOrder {
		if _, ok := m.seats[s]; !ok {
			return gameerr.New(gameerr.MatchStartFailed, codes[s])
		}
	}
	return nil
}

// CheckReady transitions Waiting -> Ready once all four seats are
// filled and every player is READY. Idempotent; emits nothing on its
// own, the status watch channel carries the transition.
func (m *Manager) CheckReady() error {
	if err := m.CheckSeats(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusWaiting {
		return nil
	}
	for _, s := range seatOrder {
		if !m.seats[s].IsReady() {
			return gameerr.New(gameerr.MatchStartFailed, gameerr.CodeMatchStartNotReady)
		}
	}
	m.currentSeat = SeatEast
	m.changeStatus(StatusReady)
	m.changeStatus(StatusOngoing)
	return nil
}

// Player looks up a seated player by id.
func (m *Manager) Player(id uint64) (*Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.seats {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// PlayerAt returns the record seated at s, if any.
func (m *Manager) PlayerAt(s Seat) (*Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.seats[s]
	return p, ok
}

// CurrentSeat reports whose turn it is.
func (m *Manager) CurrentSeat() Seat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentSeat
}

// TurnNumber reports the current turn counter.
func (m *Manager) TurnNumber() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turnNumber
}

// NextTurn advances current_seat by one rotation step and increments
// turn_number, returning the seat now current.
func (m *Manager) NextTurn() (Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := NextSeat(m.currentSeat)
	if _, ok := m.seats[next]; !ok {
		return 0, gameerr.New(gameerr.NextPlayerFailed, 0)
	}
	m.currentSeat = next
	m.turnNumber++
	m.lastDiscard = nil
	return next, nil
}

// Draw pops a tile from the wall into the player's hand. DrawFailed(163)
// if it's not their turn, (161) if already holding 14+, (162) if the
// wall is empty (round ends in exhaustive draw).
func (m *Manager) Draw(p *Player) (tile.Tile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.Seat != m.currentSeat {
		return tile.Tile{}, gameerr.New(gameerr.DrawFailed, gameerr.CodeDrawNotYourTurn)
	}
	if p.HandLen() >= 14 {
		return tile.Tile{}, gameerr.New(gameerr.DrawFailed, gameerr.CodeDrawHandFull)
	}
	if m.wall.Len() == 0 {
		m.changeStatus(StatusFinished)
		return tile.Tile{}, gameerr.New(gameerr.DrawFailed, gameerr.CodeDrawWallEmpty)
	}
	t, err := m.wall.Draw()
	if err != nil {
		return tile.Tile{}, err
	}
	p.AddTiles(t)
	m.lastDiscard = nil
	return t, nil
}

// Discard removes target from the player's hand and records it as the
// match's last discard. DiscardFailed(165) if not their turn, (164) if
// the tile isn't held.
func (m *Manager) Discard(p *Player, target tile.Tile) (tile.Tile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.Seat != m.currentSeat {
		return tile.Tile{}, gameerr.New(gameerr.DiscardFailed, gameerr.CodeDiscardNotYourTurn)
	}
	if !p.DiscardTile(target) {
		return tile.Tile{}, gameerr.New(gameerr.DiscardFailed, gameerr.CodeDiscardTileMissing)
	}
	m.lastDiscard = &LastDiscard{Seat: p.Seat, Tile: target}
	return target, nil
}

// WallRemaining reports how many tiles are left, for diagnostics.
func (m *Manager) WallRemaining() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.wall == nil {
		return 0
	}
	return m.wall.Len()
}

// DrawDeadWallTile draws a single replacement tile for a winning Kan
// call, owed before the caller's next discard per spec.md §4.3 step 4.
// The core has no separate dead wall (spec.md leaves exact dead-wall
// handling under-specified, §9); Kan draws come from the same tail.
// Wired into applyResolutionLocked's Kan-winning branch via
// drawDeadWallTileLocked; exported so callers outside a resolution (or
// tests) can still draw one directly.
func (m *Manager) DrawDeadWallTile(p *Player) (tile.Tile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drawDeadWallTileLocked(p)
}

// drawDeadWallTileLocked is DrawDeadWallTile's body, split out so
// applyResolutionLocked (already holding m.mu) can call it without
// re-entering the lock.
func (m *Manager) drawDeadWallTileLocked(p *Player) (tile.Tile, error) {
	t, err := m.wall.Draw()
	if err != nil {
		return tile.Tile{}, err
	}
	p.AddTiles(t)
	return t, nil
}

// Tsumo checks a self-draw win on the caller's own hand per spec.md
// §4.4 line 163: legal only on the caller's own turn, holding the full
// 14-tile hand Draw just produced. Unlike a call-window claim, this has
// no discarder and takes effect immediately, no arbitration window.
func (m *Manager) Tsumo(p *Player) (tile.Tile, error) {
	m.mu.RLock()
	isTurn := p.Seat == m.currentSeat
	m.mu.RUnlock()
	if !isTurn {
		return tile.Tile{}, gameerr.New(gameerr.GameActionFailed, 0)
	}

	hand := p.HandView()
	if len(hand) != 14 {
		return tile.Tile{}, gameerr.New(gameerr.GameActionFailed, 0)
	}

	ok, err := m.oracle.CheckTsumo(hand)
	if err != nil || !ok {
		return tile.Tile{}, gameerr.New(gameerr.GameActionFailed, 0)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Seat != m.currentSeat {
		return tile.Tile{}, gameerr.New(gameerr.GameActionFailed, 0)
	}
	m.changeStatus(StatusFinished)
	return hand[len(hand)-1], nil
}

// Interrupt forces the match into the terminal Interrupted state, used
// when a fatal error or an all-disconnect condition is observed.
func (m *Manager) Interrupt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusFinished || m.status == StatusInterrupted {
		return
	}
	m.changeStatus(StatusInterrupted)
}
