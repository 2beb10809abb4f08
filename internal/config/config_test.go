package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	def := Default()
	if cfg.ModuleName != def.ModuleName || cfg.Hotkeys != def.Hotkeys {
		t.Fatalf("missing file did not produce defaults: %+v", cfg)
	}
}

func TestLoadMergesWithDefaults(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	body := `
module_name: OtherClient.exe
record_interval: 0.25
hotkeys:
  start_stop: f5
addresses:
  x:
    base_offset: 0x5A2B10
  y:
    base_offset: 0x5A2B14
`
	if err := os.WriteFile(file, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ModuleName != "OtherClient.exe" {
		t.Errorf("ModuleName = %q", cfg.ModuleName)
	}
	if cfg.RecordEvery() != 250*time.Millisecond {
		t.Errorf("RecordEvery = %v", cfg.RecordEvery())
	}
	if cfg.Hotkeys.StartStop != "f5" {
		t.Errorf("StartStop = %q", cfg.Hotkeys.StartStop)
	}
	// Untouched fields keep their defaults.
	if cfg.PlaybackTimeout != 1.0 || cfg.Keys.North != "w" {
		t.Errorf("defaults lost: timeout=%v north=%q", cfg.PlaybackTimeout, cfg.Keys.North)
	}
	if got := cfg.Addresses["x"].Base; got != 0x5A2B10 {
		t.Errorf("x base_offset = %#x", got)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(file, []byte("record_interval: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(file); err == nil {
		t.Fatal("expected error for negative record_interval")
	}
}

func TestSaveKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")

	cfg := Default()
	if err := cfg.Save(file); err != nil {
		t.Fatalf("first Save error: %v", err)
	}
	cfg.ModuleName = "Changed.exe"
	if err := cfg.Save(file); err != nil {
		t.Fatalf("second Save error: %v", err)
	}

	if _, err := os.Stat(file + ".bak"); err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	reloaded, err := Load(file)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.ModuleName != "Changed.exe" {
		t.Fatalf("ModuleName = %q after reload", reloaded.ModuleName)
	}
}
