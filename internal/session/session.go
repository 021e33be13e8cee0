// Package session owns one client connection's lifetime: a read loop
// decoding frames off the socket, a forward loop relaying broadcast
// packets onto it, and a reconnect path that swaps the live net.Conn
// without losing either loop. Grounded on
// original_source/src/network/client.rs's Client{read_half, write_half,
// bcrx, listening}, connect()/reconnect()/send_packet.
package session

import (
	"io"
	"net"
	"sync"
	"time"

	"mahjongcore/internal/gameerr"
	"mahjongcore/internal/logging"
	"mahjongcore/internal/protocol"
)

// Handler reacts to a session's traffic. The registry/router implements
// this; Session itself knows nothing about match state.
type Handler interface {
	HandlePacket(s *Session, p protocol.Packet)
	HandleDisconnect(s *Session)
}

// sendRetries/sendRetryDelay mirror client.rs's send_packet: 30 attempts
// at 2 seconds apart before giving up on a wedged connection.
const (
	sendRetries   = 30
	sendRetryDelay = 2 * time.Second
)

// Session is one logical player connection. It survives a TCP drop:
// Reconnect swaps the underlying conn and resumes the read loop without
// replacing the broadcast channel or handler.
type Session struct {
	PlayerID uint64

	mu      sync.Mutex
	conn    net.Conn
	genDone chan struct{} // closed when the current read loop exits

	handler     Handler
	broadcastCh chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// New wraps an accepted connection. Run must be called to start the
// read and forward loops.
func New(playerID uint64, conn net.Conn, handler Handler) *Session {
	return &Session{
		PlayerID:    playerID,
		conn:        conn,
		handler:     handler,
		broadcastCh: make(chan []byte, 4),
		closed:      make(chan struct{}),
	}
}

// Run starts the read loop and the broadcast-forward loop as two
// goroutines, matching connect()'s tokio::spawn pair.
func (s *Session) Run() {
	done := make(chan struct{})
	s.mu.Lock()
	s.genDone = done
	s.mu.Unlock()
	go s.readLoop(done)
	go s.forwardLoop()
}

func (s *Session) readLoop(done chan struct{}) {
	defer close(done)
	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()

		p, err := protocol.ReadFrame(conn)
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
			}
			if err == io.EOF {
				logging.Info("session %d: peer closed connection", s.PlayerID)
			} else {
				logging.Warn("session %d: read failed: %v", s.PlayerID, err)
			}
			s.handler.HandleDisconnect(s)
			return
		}
		s.handler.HandlePacket(s, p)
	}
}

// forwardLoop drains broadcast packets queued for this seat and writes
// them out, retrying transient send failures. It exits when the
// session is closed.
func (s *Session) forwardLoop() {
	for {
		select {
		case <-s.closed:
			return
		case body, ok := <-s.broadcastCh:
			if !ok {
				return
			}
			if err := s.writeRaw(body); err != nil {
				logging.Warn("session %d: broadcast forward failed: %v", s.PlayerID, err)
			}
		}
	}
}

// Deliver enqueues a broadcast body for this seat. Latest-wins: if the
// seat's forward queue is full (a stalled client), the oldest pending
// broadcast is dropped rather than blocking the fan-out, per
// spec.md §5's bounded broadcast channel.
func (s *Session) Deliver(body []byte) {
	select {
	case s.broadcastCh <- body:
	default:
		select {
		case <-s.broadcastCh:
		default:
		}
		select {
		case s.broadcastCh <- body:
		default:
		}
	}
}

// Send writes a single packet directly to the peer, retrying up to
// sendRetries times on a transient failure before giving up.
func (s *Session) Send(p protocol.Packet) error {
	return s.writeRaw(protocol.Encode(p))
}

func (s *Session) writeRaw(data []byte) error {
	var lastErr error
	for attempt := 0; attempt < sendRetries; attempt++ {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			lastErr = gameerr.New(gameerr.ConnectionNeeded, 0)
			time.Sleep(sendRetryDelay)
			continue
		}
		if _, err := conn.Write(data); err != nil {
			lastErr = err
			time.Sleep(sendRetryDelay)
			continue
		}
		return nil
	}
	return lastErr
}

// Reconnect swaps in a freshly accepted connection and restarts the
// read loop, mirroring Client::reconnect's socket-half swap. The old
// read loop is left to notice the stale conn and exit on its own next
// read error, matching the teacher's best-effort cleanup.
func (s *Session) Reconnect(conn net.Conn) {
	s.mu.Lock()
	s.conn = conn
	done := make(chan struct{})
	s.genDone = done
	s.mu.Unlock()
	go s.readLoop(done)
}

// Close tears the session down exactly once: signals both loops to stop
// and closes the socket. The broadcast queue is left open and the
// handler is not notified.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
	})
}
