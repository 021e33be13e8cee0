package server

import (
	"context"
	"testing"
	"time"

	"mahjongcore/internal/protocol"
	"mahjongcore/internal/registry"
	"mahjongcore/internal/session"
)

type noopGame struct{}

func (noopGame) HandleJoin(s *session.Session, req protocol.JoinRequest) error      { return nil }
func (noopGame) HandleReconnect(s *session.Session, req protocol.JoinRequest) error { return nil }
func (noopGame) HandleInitialization(s *session.Session, playerID uint64)           {}
func (noopGame) HandleReady(s *session.Session, playerID uint64)                    {}
func (noopGame) HandleAction(s *session.Session, playerID uint64, p protocol.Packet) {}
func (noopGame) HandleDisconnect(playerID uint64)                                   {}

func TestRunStopsCleanlyWhenCancelled(t *testing.T) {
	reg := registry.New(noopGame{})
	srv := New("127.0.0.1:0", reg)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(ctx) }()

	// Run binds an ephemeral port asynchronously; give it a moment to
	// listen before cancelling, since this harness never dials in
	// (the addr is chosen by the OS and not observable here).
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}
