package config

import "testing"

func TestLoadPriorityOrder(t *testing.T) {
	t.Setenv(EnvAddr, "")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil): %v", err)
	}
	if cfg.Addr != DefaultAddr {
		t.Fatalf("expected default %q, got %q", DefaultAddr, cfg.Addr)
	}

	t.Setenv(EnvAddr, ":7777")
	cfg, err = Load(nil)
	if err != nil {
		t.Fatalf("Load(nil): %v", err)
	}
	if cfg.Addr != ":7777" {
		t.Fatalf("expected env addr :7777, got %q", cfg.Addr)
	}

	cfg, err = Load([]string{":8888"})
	if err != nil {
		t.Fatalf("Load(cli): %v", err)
	}
	if cfg.Addr != ":8888" {
		t.Fatalf("expected CLI addr to win, got %q", cfg.Addr)
	}
}
