package appconfig

import (
	"os"
	"testing"
)

func TestLoadMissingReturnsDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := Load()
	if cfg != Default() {
		t.Fatalf("got %+v, want default %+v", cfg, Default())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.InputDeviceID = 3
	cfg.ProAudio = true
	cfg.Theme = "light"

	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := Load()
	if got != cfg {
		t.Fatalf("got %+v, want %+v", got, cfg)
	}
}

func TestLoadCorruptFileReturnsDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := Path()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if err := Save(Default()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	cfg := Load()
	if cfg != Default() {
		t.Fatalf("got %+v, want default on corrupt file", cfg)
	}
}
