package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "saucerhedge.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Address != ":3001" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.LLM.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected model: %s", cfg.LLM.Model)
	}
	if cfg.LLM.APIKeyEnv != "GEMINI_API_KEY" {
		t.Fatalf("unexpected api key env: %s", cfg.LLM.APIKeyEnv)
	}
	if cfg.LLM.MaxTokens != 2048 {
		t.Fatalf("unexpected max tokens: %d", cfg.LLM.MaxTokens)
	}
	if cfg.Hedera.Driver != "simulated" {
		t.Fatalf("unexpected driver: %s", cfg.Hedera.Driver)
	}
	if cfg.Hedera.Network != "testnet" {
		t.Fatalf("unexpected network: %s", cfg.Hedera.Network)
	}
	if cfg.Vincent.ScopeStore.Driver != "memory" {
		t.Fatalf("unexpected scope store driver: %s", cfg.Vincent.ScopeStore.Driver)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("unexpected log format: %s", cfg.Log.Format)
	}
	want := filepath.Join(filepath.Dir(path), "abilities.yaml")
	if cfg.Abilities.ManifestPath != want {
		t.Fatalf("unexpected manifest path: %s", cfg.Abilities.ManifestPath)
	}
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"address": ":9999"},
		"hedera": {"driver": "relay", "network": "mainnet"},
		"limits": {"conversation_max_turns": 20, "audit_max_entries": 100}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":9999" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Hedera.Driver != "relay" || cfg.Hedera.Network != "mainnet" {
		t.Fatalf("unexpected hedera config: %+v", cfg.Hedera)
	}
	if cfg.Limits.ConversationMaxTurns != 20 || cfg.Limits.AuditMaxEntries != 100 {
		t.Fatalf("unexpected limits: %+v", cfg.Limits)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEnvOverridesPath(t *testing.T) {
	path := writeConfig(t, `{"server": {"address": ":7777"}}`)
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("ignored.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":7777" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
}
