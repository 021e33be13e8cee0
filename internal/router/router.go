// Package router dispatches decoded packets into the match manager and
// turns the results back into Setup acks and Broadcast events. It is
// the Go analogue of original_source's protocol.rs handle_packet plus
// client_manager.rs's per-action methods, folded into one type since
// the core has a single match rather than a lobby of many.
package router

import (
	"sync/atomic"

	"mahjongcore/internal/gameerr"
	"mahjongcore/internal/logging"
	"mahjongcore/internal/match"
	"mahjongcore/internal/protocol"
	"mahjongcore/internal/session"
	"mahjongcore/internal/tile"
)

// Broadcaster fans a packet out to every connected seat, or addresses
// one specifically. Implemented by internal/registry; defined here,
// consumer-side, so the two packages don't import each other.
type Broadcaster interface {
	Broadcast(p protocol.Packet)
	Unicast(playerID uint64, p protocol.Packet) error
}

// Router ties one match.Manager to the wire. Safe for concurrent use;
// all match mutation is already serialized inside Manager.
type Router struct {
	mgr *match.Manager
	bc  Broadcaster

	nextID atomic.Uint32
}

func New(mgr *match.Manager, bc Broadcaster) *Router {
	r := &Router{mgr: mgr, bc: bc}
	go r.watchStatus()
	return r
}

// watchStatus logs every status transition the manager publishes. The
// channel is latest-wins (capacity 1), so a burst of transitions
// collapses to the most recent one by the time this loop reads it.
func (r *Router) watchStatus() {
	for st := range r.mgr.Subscribe() {
		logging.Info("match status -> %d", st)
	}
}

func (r *Router) packetID() uint32 { return r.nextID.Add(1) }

// HandleJoin processes Setup.Connection: seats the player and acks with
// the assigned seat. Called by the registry during the handshake
// budget, before the session's read loop starts.
func (r *Router) HandleJoin(s *session.Session, req protocol.JoinRequest) error {
	p, err := r.mgr.AssignPlayer(req.ID, req.Alias)
	if err != nil {
		return err
	}
	ack := protocol.EncodeSetupAck(protocol.SetupConnection, []byte{byte(p.Seat)})
	return s.Send(protocol.Packet{ID: r.packetID(), Kind: protocol.Setup, Body: ack})
}

// HandleReconnect processes Setup.Reconnection: looks the player up by
// id (must already be seated) and re-acks the same seat assignment.
func (r *Router) HandleReconnect(s *session.Session, req protocol.JoinRequest) error {
	p, ok := r.mgr.Player(req.ID)
	if !ok {
		return gameerr.New(gameerr.ReconnectionFailed, gameerr.CodeReconnectionFailed)
	}
	p.SetConnected(true)
	ack := protocol.EncodeSetupAck(protocol.SetupReconnection, []byte{byte(p.Seat)})
	return s.Send(protocol.Packet{ID: r.packetID(), Kind: protocol.Setup, Body: ack})
}

// HandleInitialization answers Setup.Initialization with the caller's
// full private view: hand, open melds, and whose turn it is.
func (r *Router) HandleInitialization(s *session.Session, playerID uint64) {
	p, ok := r.mgr.Player(playerID)
	if !ok {
		r.sendError(s, 0, gameerr.New(gameerr.ConnectionNeeded, 0))
		return
	}
	view := protocol.InitialPlayerView{
		Seat:        int(p.Seat),
		IsFirst:     p.Seat == match.SeatEast,
		Hand:        protocol.HandToWire(p.HandView()),
		CurrentSeat: int(r.mgr.CurrentSeat()),
		TurnNumber:  r.mgr.TurnNumber(),
	}
	for _, m := range p.OpenMelds {
		view.Melds = append(view.Melds, protocol.MeldToWire(int(m.Type), m.Tiles, int(m.FromSeat)))
	}
	body, err := protocol.EncodeInitialPlayerView(view)
	if err != nil {
		r.sendError(s, 0, gameerr.New(gameerr.SerializationFailed, 0))
		return
	}
	ack := protocol.EncodeSetupAck(protocol.SetupInitialization, body)
	if err := s.Send(protocol.Packet{ID: r.packetID(), Kind: protocol.Setup, Body: ack}); err != nil {
		logging.Warn("send initialization view to %d failed: %v", playerID, err)
	}
}

// HandleReady marks the caller ready, acks with the Ready op plus a 0x00
// byte and, once all four seats are ready, transitions Waiting -> Ready
// -> Ongoing and broadcasts the change.
func (r *Router) HandleReady(s *session.Session, playerID uint64) {
	p, ok := r.mgr.Player(playerID)
	if !ok {
		r.sendError(s, 0, gameerr.New(gameerr.ConnectionNeeded, 0))
		return
	}
	p.SetReady()
	ack := protocol.EncodeSetupAck(protocol.SetupReady, []byte{0x00})
	if err := s.Send(protocol.Packet{ID: r.packetID(), Kind: protocol.Setup, Body: ack}); err != nil {
		logging.Warn("send ready ack to %d failed: %v", playerID, err)
	}

	before := r.mgr.Status()
	if err := r.mgr.CheckReady(); err != nil {
		// Not every seat is ready yet; this is the common case, not a
		// failure worth reporting back to the caller.
		return
	}
	after := r.mgr.Status()
	if before != after {
		r.broadcastStatus(after)
	}
}

func (r *Router) broadcastStatus(st match.Status) {
	b := st.Bytes()
	r.bc.Broadcast(protocol.Packet{ID: r.packetID(), Kind: protocol.Broadcast, Body: b[:]})
}

// HandleAction dispatches an Action packet: Draw, Discard, Call, or Tsumo.
// Failures are reported back to the caller as an Error packet rather
// than disconnecting the session.
func (r *Router) HandleAction(s *session.Session, playerID uint64, p protocol.Packet) {
	op, rest, err := protocol.ParseActionOp(p.Body)
	if err != nil {
		r.sendError(s, p.ID, err)
		return
	}
	player, ok := r.mgr.Player(playerID)
	if !ok {
		r.sendError(s, p.ID, gameerr.New(gameerr.ConnectionNeeded, 0))
		return
	}

	switch op {
	case protocol.ActionDraw:
		r.handleDraw(s, p.ID, player)
	case protocol.ActionDiscard:
		r.handleDiscard(s, p.ID, rest, player)
	case protocol.ActionCall:
		r.handleCall(s, p.ID, rest, player)
	case protocol.ActionTsumo:
		r.handleTsumo(s, p.ID, player)
	}
}

// handleTsumo checks a self-draw win on the caller's own hand. Unlike a
// discard, this has no call window: legality is settled synchronously
// against the oracle and, on success, the match finishes immediately
// per spec.md §4.4 line 163.
func (r *Router) handleTsumo(s *session.Session, pktID uint32, player *match.Player) {
	winning, err := r.mgr.Tsumo(player)
	if err != nil {
		r.sendError(s, pktID, err)
		return
	}
	body, _ := protocol.EncodeWinnerEvent(protocol.WinnerEvent{
		Seat: int(player.Seat),
		Kind: byte(winning.Kind),
		Copy: winning.Copy,
	})
	r.bc.Broadcast(protocol.Packet{ID: r.packetID(), Kind: protocol.Broadcast, Body: body})
}

func (r *Router) handleDraw(s *session.Session, pktID uint32, player *match.Player) {
	t, err := r.mgr.Draw(player)
	if err != nil {
		r.sendError(s, pktID, err)
		return
	}
	priv, _ := protocol.EncodeDrawPrivate(protocol.DrawPrivate{Kind: byte(t.Kind), Copy: t.Copy})
	if err := s.Send(protocol.Packet{ID: r.packetID(), Kind: protocol.Broadcast, Body: priv}); err != nil {
		logging.Warn("send draw private to %d failed: %v", player.ID, err)
	}
	pub, _ := protocol.EncodeDrawEvent(protocol.DrawEvent{Seat: int(player.Seat), Remaining: r.mgr.WallRemaining()})
	r.bc.Broadcast(protocol.Packet{ID: r.packetID(), Kind: protocol.Broadcast, Body: pub})
}

func (r *Router) handleDiscard(s *session.Session, pktID uint32, rest []byte, player *match.Player) {
	req, err := protocol.ParseDiscardRequest(rest)
	if err != nil {
		r.sendError(s, pktID, err)
		return
	}
	target, err := tile.FromBytes(req.Kind, req.Copy)
	if err != nil {
		r.sendError(s, pktID, err)
		return
	}
	discarded, err := r.mgr.Discard(player, target)
	if err != nil {
		r.sendError(s, pktID, err)
		return
	}

	evt, _ := protocol.EncodeDiscardEvent(protocol.DiscardEvent{
		Seat:       int(player.Seat),
		Kind:       byte(discarded.Kind),
		Copy:       discarded.Copy,
		NextSeat:   -1, // pending call-window resolution
		TurnNumber: r.mgr.TurnNumber(),
	})
	r.bc.Broadcast(protocol.Packet{ID: r.packetID(), Kind: protocol.Broadcast, Body: evt})

	_, resultCh := r.mgr.OpenCallWindow(player.Seat, discarded)
	go r.awaitCallResolution(resultCh)
}

func (r *Router) handleCall(s *session.Session, pktID uint32, rest []byte, player *match.Player) {
	req, err := protocol.ParseCallRequest(rest)
	if err != nil {
		r.sendError(s, pktID, err)
		return
	}
	if err := r.mgr.SubmitCall(player.Seat, match.CallAction(req.Action)); err != nil {
		r.sendError(s, pktID, err)
	}
}

func (r *Router) awaitCallResolution(resultCh <-chan match.Resolution) {
	res, ok := <-resultCh
	if !ok {
		return
	}

	evt := protocol.CallResolvedEvent{
		NoCall:        res.NoCall,
		TripleRonDraw: res.TripleRonDraw,
		CallWinner:    int(res.CallWinner),
		CallType:      int(res.CallType),
	}
	for _, seat := range res.RonWinners {
		evt.RonWinners = append(evt.RonWinners, int(seat))
	}

	if res.NoCall {
		next, err := r.mgr.NextTurn()
		if err != nil {
			logging.Warn("next turn after no-call failed: %v", err)
		} else {
			evt.NextSeat = int(next)
			evt.TurnNumber = r.mgr.TurnNumber()
		}
	} else if !res.TripleRonDraw && len(res.RonWinners) == 0 {
		evt.NextSeat = int(res.CallWinner)
		evt.TurnNumber = r.mgr.TurnNumber()
		if caller, ok := r.mgr.PlayerAt(res.CallWinner); ok {
			melds := caller.OpenMelds
			if len(melds) > 0 {
				m := melds[len(melds)-1]
				wire := protocol.MeldToWire(int(m.Type), m.Tiles, int(m.FromSeat))
				evt.Meld = &wire
			}
			if res.KanDrawn {
				priv, _ := protocol.EncodeDrawPrivate(protocol.DrawPrivate{
					Kind: byte(res.KanReplacement.Kind),
					Copy: res.KanReplacement.Copy,
				})
				pkt := protocol.Packet{ID: r.packetID(), Kind: protocol.Broadcast, Body: priv}
				if err := r.bc.Unicast(caller.ID, pkt); err != nil {
					logging.Warn("send kan replacement to %d failed: %v", caller.ID, err)
				}
			}
		}
	}

	body, err := protocol.EncodeCallResolvedEvent(evt)
	if err != nil {
		logging.Error("encode call resolution failed: %v", err)
		return
	}
	r.bc.Broadcast(protocol.Packet{ID: r.packetID(), Kind: protocol.Broadcast, Body: body})
}

// HandleDisconnect marks the seat disconnected and, if a call window
// is open, prunes it so arbitration doesn't wait out the full deadline
// for a peer that is already gone.
func (r *Router) HandleDisconnect(playerID uint64) {
	p, ok := r.mgr.Player(playerID)
	if !ok {
		return
	}
	p.SetConnected(false)
	r.mgr.PruneDisconnected(p.Seat)
}

func (r *Router) sendError(s *session.Session, pktID uint32, err error) {
	if sendErr := s.Send(protocol.ErrorPacket(pktID, err)); sendErr != nil {
		logging.Warn("send error packet failed: %v", sendErr)
	}
}

