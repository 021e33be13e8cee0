package registry

import (
	"net"
	"testing"
	"time"

	"mahjongcore/internal/protocol"
	"mahjongcore/internal/session"
)

type stubGame struct {
	joined       []protocol.JoinRequest
	reconnected  []protocol.JoinRequest
	disconnected []uint64
}

func (g *stubGame) HandleJoin(s *session.Session, req protocol.JoinRequest) error {
	g.joined = append(g.joined, req)
	return nil
}
func (g *stubGame) HandleReconnect(s *session.Session, req protocol.JoinRequest) error {
	g.reconnected = append(g.reconnected, req)
	return nil
}
func (g *stubGame) HandleInitialization(s *session.Session, playerID uint64) {}
func (g *stubGame) HandleReady(s *session.Session, playerID uint64)          {}
func (g *stubGame) HandleAction(s *session.Session, playerID uint64, p protocol.Packet) {}
func (g *stubGame) HandleDisconnect(playerID uint64) {
	g.disconnected = append(g.disconnected, playerID)
}

func joinRequestBody(id uint64, alias string) []byte {
	body := make([]byte, 4+1+8+len(alias))
	body[0] = byte(protocol.SetupConnection)
	out := 5
	for i := 0; i < 8; i++ {
		body[out+i] = byte(id >> (8 * i))
	}
	copy(body[out+8:], alias)
	return body
}

func TestAcceptRegistersSessionOnConnection(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	game := &stubGame{}
	reg := New(game)

	go reg.Accept(server)

	frame := protocol.Encode(protocol.Packet{ID: 1, Kind: protocol.Setup, Body: joinRequestBody(42, "alice")})
	if _, err := client.Write(frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		reg.mu.RLock()
		_, ok := reg.sessions[42]
		reg.mu.RUnlock()
		if ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	reg.mu.RLock()
	_, ok := reg.sessions[42]
	reg.mu.RUnlock()
	if !ok {
		t.Fatalf("expected session 42 to be registered")
	}
	if len(game.joined) != 1 || game.joined[0].Alias != "alice" {
		t.Fatalf("got %+v", game.joined)
	}
}
