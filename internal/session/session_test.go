package session

import (
	"net"
	"testing"
	"time"

	"mahjongcore/internal/protocol"
)

type recordingHandler struct {
	packets      []protocol.Packet
	disconnected bool
	done         chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{done: make(chan struct{}, 8)}
}

func (h *recordingHandler) HandlePacket(s *Session, p protocol.Packet) {
	h.packets = append(h.packets, p)
	h.done <- struct{}{}
}

func (h *recordingHandler) HandleDisconnect(s *Session) {
	h.disconnected = true
	h.done <- struct{}{}
}

func TestReadLoopDispatchesPackets(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	h := newRecordingHandler()
	s := New(1, server, h)
	s.Run()
	defer s.Close()

	frame := protocol.Encode(protocol.Packet{ID: 7, Kind: protocol.Action, Body: []byte{1, 0, 0, 0}})
	go client.Write(frame)

	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatched packet")
	}
	if len(h.packets) != 1 || h.packets[0].ID != 7 {
		t.Fatalf("got %+v", h.packets)
	}
}

func TestReadLoopReportsDisconnectOnClose(t *testing.T) {
	server, client := net.Pipe()

	h := newRecordingHandler()
	s := New(2, server, h)
	s.Run()
	defer s.Close()

	client.Close()

	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for disconnect notification")
	}
	if !h.disconnected {
		t.Fatalf("expected disconnect to be reported")
	}
}

func TestDeliverDropsOldestWhenQueueFull(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	h := newRecordingHandler()
	s := New(3, server, h)

	for i := 0; i < cap(s.broadcastCh)+2; i++ {
		s.Deliver([]byte{byte(i)})
	}
	if len(s.broadcastCh) != cap(s.broadcastCh) {
		t.Fatalf("expected queue to stay at capacity, got %d", len(s.broadcastCh))
	}
	if head := <-s.broadcastCh; head[0] != 2 {
		t.Fatalf("expected the two oldest bodies dropped, queue head is %d", head[0])
	}
}
