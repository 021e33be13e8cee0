package config

import "testing"

func TestDefaultDeadline(t *testing.T) {
	cfg := Default()
	if cfg.CallWindowDeadline().Milliseconds() != 1500 {
		t.Fatalf("got %v", cfg.CallWindowDeadline())
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:3000" {
		t.Fatalf("got %q", cfg.ListenAddr)
	}
}
