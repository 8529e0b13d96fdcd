package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Model.N != 3 || cfg.Model.Boundary != "</s>" {
		t.Errorf("model defaults = %+v", cfg.Model)
	}
	if cfg.Model.SeparatorRune() != '#' {
		t.Errorf("separator rune = %q", cfg.Model.SeparatorRune())
	}
	if cfg.Server.MaxLimit < 1 || cfg.CLI.DefaultLimit < 1 {
		t.Errorf("limit defaults = %+v / %+v", cfg.Server, cfg.CLI)
	}
}

func TestSeparatorRuneFallback(t *testing.T) {
	m := ModelConfig{}
	if m.SeparatorRune() != '#' {
		t.Errorf("empty separator rune = %q, want '#'", m.SeparatorRune())
	}
	m.Separator = "|extra"
	if m.SeparatorRune() != '|' {
		t.Errorf("separator rune = %q, want '|'", m.SeparatorRune())
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[model]
n = 4
boundary = "</doc>"
separator = "|"

[server]
max_limit = 128
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model.N != 4 || cfg.Model.Boundary != "</doc>" || cfg.Model.SeparatorRune() != '|' {
		t.Errorf("model = %+v", cfg.Model)
	}
	if cfg.Server.MaxLimit != 128 {
		t.Errorf("max_limit = %d, want 128", cfg.Server.MaxLimit)
	}
	// Unspecified fields keep their defaults.
	if cfg.Server.MaxSequence != DefaultConfig().Server.MaxSequence {
		t.Errorf("max_sequence = %d, want default", cfg.Server.MaxSequence)
	}
}

func TestLoadConfigRecoversFromBadFile(t *testing.T) {
	path := writeConfig(t, "not [valid toml ===")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model.N != DefaultConfig().Model.N {
		t.Errorf("recovered config = %+v, want defaults", cfg.Model)
	}
}

func TestInitConfigCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := InitConfig(path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if cfg.Model.N != 3 {
		t.Errorf("initial config = %+v", cfg.Model)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}

	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if *reloaded != *cfg {
		t.Errorf("reloaded = %+v, want %+v", reloaded, cfg)
	}
}
