// Package registry owns the accept loop's handshake budget and the
// player_id -> session map, mirroring original_source's
// client_manager.rs accept()/ClientManager. It knows nothing about
// match rules; gameplay dispatch is delegated to a GameHandler (the
// router).
package registry

import (
	"net"
	"sync"

	"mahjongcore/internal/gameerr"
	"mahjongcore/internal/logging"
	"mahjongcore/internal/protocol"
	"mahjongcore/internal/session"
)

// handshakeAttempts mirrors accept()'s 5-attempt budget before giving
// up on a connection that never sends a valid Setup.Connection or
// Setup.Reconnection.
const handshakeAttempts = 5

// GameHandler is everything the registry needs from the router. It is
// a small, registry-owned interface so router and registry don't
// import each other.
type GameHandler interface {
	HandleJoin(s *session.Session, req protocol.JoinRequest) error
	HandleReconnect(s *session.Session, req protocol.JoinRequest) error
	HandleInitialization(s *session.Session, playerID uint64)
	HandleReady(s *session.Session, playerID uint64)
	HandleAction(s *session.Session, playerID uint64, p protocol.Packet)
	HandleDisconnect(playerID uint64)
}

// Registry tracks every seated session and dispatches its traffic.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uint64]*session.Session

	game GameHandler
}

func New(game GameHandler) *Registry {
	return &Registry{sessions: make(map[uint64]*session.Session), game: game}
}

// SetGame wires the dispatcher after construction, for the router <->
// registry cycle: the router needs a live Broadcaster (this registry)
// before it exists, and the registry needs a live GameHandler (the
// router) before that.
func (reg *Registry) SetGame(game GameHandler) { reg.game = game }

// Accept runs the handshake budget for a freshly dialed connection: up
// to handshakeAttempts Setup packets, expecting either a Connection
// (new seat) or a Reconnection (resuming seat) request. On success it
// registers the session and starts its loops (a resumed session already
// had its read loop restarted by Reconnect, and its forward loop never
// stopped); on failure the connection is closed.
func (reg *Registry) Accept(conn net.Conn) {
	sess, err := reg.handshake(conn)
	if err != nil {
		logging.Warn("handshake failed: %v", err)
		conn.Close()
		return
	}
	reg.mu.Lock()
	prev, known := reg.sessions[sess.PlayerID]
	reg.sessions[sess.PlayerID] = sess
	reg.mu.Unlock()
	if known && prev == sess {
		return
	}
	sess.Run()
}

func (reg *Registry) handshake(conn net.Conn) (*session.Session, error) {
	for attempt := 0; attempt < handshakeAttempts; attempt++ {
		p, err := protocol.ReadFrame(conn)
		if err != nil {
			return nil, err
		}
		if p.Kind != protocol.Setup {
			writeError(conn, p.ID, gameerr.New(gameerr.ConnectionNeeded, 0))
			continue
		}
		op, rest, err := protocol.ParseSetupOp(p.Body)
		if err != nil {
			writeError(conn, p.ID, err)
			continue
		}

		switch op {
		case protocol.SetupConnection:
			req, err := protocol.ParseJoinRequest(rest)
			if err != nil {
				writeError(conn, p.ID, err)
				continue
			}
			sess := session.New(req.ID, conn, reg)
			if joinErr := reg.game.HandleJoin(sess, req); joinErr != nil {
				writeError(conn, p.ID, joinErr)
				continue
			}
			return sess, nil

		case protocol.SetupReconnection:
			req, err := protocol.ParseJoinRequest(rest)
			if err != nil {
				writeError(conn, p.ID, err)
				continue
			}
			reg.mu.RLock()
			existing, ok := reg.sessions[req.ID]
			reg.mu.RUnlock()
			if !ok {
				writeError(conn, p.ID, gameerr.New(gameerr.ReconnectionFailed, gameerr.CodeReconnectionFailed))
				continue
			}
			existing.Reconnect(conn)
			if recErr := reg.game.HandleReconnect(existing, req); recErr != nil {
				writeError(conn, p.ID, recErr)
				continue
			}
			return existing, nil

		default:
			writeError(conn, p.ID, gameerr.New(gameerr.ConnectionNeeded, 0))
		}
	}
	return nil, gameerr.New(gameerr.ConnectionNeeded, 0)
}

func writeError(conn net.Conn, pktID uint32, err error) {
	_, writeErr := conn.Write(protocol.Encode(protocol.ErrorPacket(pktID, err)))
	if writeErr != nil {
		logging.Warn("failed writing handshake error: %v", writeErr)
	}
}

// HandlePacket implements session.Handler: post-handshake Setup
// (Initialization/Ready) and every Action packet are routed here.
func (reg *Registry) HandlePacket(s *session.Session, p protocol.Packet) {
	switch p.Kind {
	case protocol.Setup:
		op, _, err := protocol.ParseSetupOp(p.Body)
		if err != nil {
			_ = s.Send(protocol.ErrorPacket(p.ID, err))
			return
		}
		switch op {
		case protocol.SetupInitialization:
			reg.game.HandleInitialization(s, s.PlayerID)
		case protocol.SetupReady:
			reg.game.HandleReady(s, s.PlayerID)
		default:
			_ = s.Send(protocol.ErrorPacket(p.ID, gameerr.New(gameerr.OperationFailed, gameerr.CodeOperationNotAllowed)))
		}
	case protocol.Action:
		reg.game.HandleAction(s, s.PlayerID, p)
	default:
		_ = s.Send(protocol.ErrorPacket(p.ID, gameerr.New(gameerr.OperationFailed, gameerr.CodeOperationNotAllowed)))
	}
}

// HandleDisconnect implements session.Handler: marks the seat
// disconnected and prunes it from any open call window so arbitration
// isn't stuck waiting on a dead peer, matching spec.md §5's
// disconnect-during-call-window rule. The session is kept in the
// registry so a later Setup.Reconnection can resume it.
func (reg *Registry) HandleDisconnect(s *session.Session) {
	logging.Info("session %d disconnected", s.PlayerID)
	reg.game.HandleDisconnect(s.PlayerID)
}

// Broadcast implements router.Broadcaster: fan the packet out to every
// registered session's forward queue.
func (reg *Registry) Broadcast(p protocol.Packet) {
	body := protocol.Encode(p)
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, s := range reg.sessions {
		s.Deliver(body)
	}
}

// Unicast implements router.Broadcaster: send directly to one seated
// player, if a session is registered for that id.
func (reg *Registry) Unicast(playerID uint64, p protocol.Packet) error {
	reg.mu.RLock()
	s, ok := reg.sessions[playerID]
	reg.mu.RUnlock()
	if !ok {
		return gameerr.New(gameerr.ConnectionNeeded, 0)
	}
	return s.Send(p)
}
