package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}

	if cfg.Port != 5000 {
		t.Errorf("expected default port 5000, got %d", cfg.Port)
	}
	if cfg.DefaultDuration != 3600 {
		t.Errorf("expected default duration 3600, got %d", cfg.DefaultDuration)
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("expected default sample rate 44100, got %d", cfg.SampleRate)
	}
	if cfg.OutputPrefix != "recording" {
		t.Errorf("expected default prefix, got %s", cfg.OutputPrefix)
	}
	if cfg.Storage.Enabled {
		t.Error("storage must be disabled by default")
	}
	if cfg.Storage.Protocol != "scp" {
		t.Errorf("expected default protocol scp, got %s", cfg.Storage.Protocol)
	}
}

func TestLoadReadsYAMLDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loopcapture.yaml")
	doc := `
port: 8090
default_duration: 120
output_prefix: session
storage_server:
  enabled: true
  host: store.local
  protocol: rsync
  username: rec
  remote_path: /srv/audio
  auto_transfer: true
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Port != 8090 {
		t.Errorf("expected port 8090, got %d", cfg.Port)
	}
	if cfg.DefaultDuration != 120 {
		t.Errorf("expected duration 120, got %d", cfg.DefaultDuration)
	}
	if cfg.OutputPrefix != "session" {
		t.Errorf("expected prefix session, got %s", cfg.OutputPrefix)
	}
	if !cfg.Storage.Enabled || cfg.Storage.Protocol != "rsync" || !cfg.Storage.AutoTransfer {
		t.Errorf("storage descriptor not applied: %+v", cfg.Storage)
	}
	// Unset keys keep defaults.
	if cfg.SampleRate != 44100 {
		t.Errorf("expected default sample rate, got %d", cfg.SampleRate)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loopcapture.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	cfg.Port = 7070
	cfg.Storage.Host = "store.local"
	cfg.Storage.Username = "rec"
	cfg.Storage.RemotePath = "/srv/audio"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Port != 7070 {
		t.Errorf("expected saved port 7070, got %d", loaded.Port)
	}
	if loaded.Storage.Host != "store.local" || loaded.Storage.Username != "rec" {
		t.Errorf("storage descriptor lost on round trip: %+v", loaded.Storage)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("load defaults: %v", err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"huge port", func(c *Config) { c.Port = 70000 }},
		{"zero duration", func(c *Config) { c.DefaultDuration = 0 }},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"empty prefix", func(c *Config) { c.OutputPrefix = "" }},
		{"empty recordings dir", func(c *Config) { c.RecordingsDirectory = "" }},
		{"bad protocol", func(c *Config) { c.Storage.Protocol = "ftp" }},
	}
	for _, c := range cases {
		cfg := base()
		c.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nope.yaml"))
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	cfg.PlaybackDirectory = filepath.Join(dir, "playback")
	cfg.RecordingsDirectory = filepath.Join(dir, "recordings")
	cfg.Log.Directory = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	for _, d := range []string{cfg.PlaybackDirectory, cfg.RecordingsDirectory, cfg.Log.Directory} {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			t.Errorf("directory not created: %s", d)
		}
	}
}
