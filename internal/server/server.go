// Package server binds the TCP listener and hands every accepted
// connection to the registry's handshake loop. Grounded on
// original_source/src/network/server.rs's Server{port, socket, running,
// client_manager}.
package server

import (
	"context"
	"net"
	"sync/atomic"

	"mahjongcore/internal/logging"
	"mahjongcore/internal/registry"
)

// Server is the process's single listening socket.
type Server struct {
	addr     string
	registry *registry.Registry
	running  atomic.Bool
}

func New(addr string, reg *registry.Registry) *Server {
	return &Server{addr: addr, registry: reg}
}

// Run binds addr and accepts connections until ctx is cancelled,
// handing each one to the registry's handshake budget in its own
// goroutine. Mirrors start()'s accept loop gated on the running flag.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	s.running.Store(true)
	go func() {
		<-ctx.Done()
		s.running.Store(false)
		ln.Close()
	}()

	logging.Info("listening on %s", s.addr)
	for s.running.Load() {
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			logging.Warn("accept failed: %v", err)
			continue
		}
		go s.registry.Accept(conn)
	}
	return nil
}
