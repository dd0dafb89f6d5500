package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ShellTimeout != 30 {
		t.Errorf("expected shell timeout 30, got %d", cfg.ShellTimeout)
	}
	if cfg.ValidationTimeout != 10 {
		t.Errorf("expected validation timeout 10, got %d", cfg.ValidationTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.LogLevel)
	}
	if cfg.TierRulesPath == "" {
		t.Error("tier rules path should have a default")
	}
	if cfg.Devices == nil {
		t.Error("devices map should be initialized")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("missing file should yield defaults, got error: %v", err)
	}
	if cfg.ShellTimeout != 30 {
		t.Errorf("expected default shell timeout, got %d", cfg.ShellTimeout)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	configJSON := `{
		"shell_timeout_seconds": 60,
		"devices": {
			"WorkStation": {"platform": "powershell"}
		}
	}`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ShellTimeout != 60 {
		t.Errorf("expected shell timeout 60 from file, got %d", cfg.ShellTimeout)
	}
	// Fields absent from the file keep their defaults.
	if cfg.ValidationTimeout != 10 {
		t.Errorf("expected default validation timeout, got %d", cfg.ValidationTimeout)
	}
	if cfg.HistoryLimit != 20 {
		t.Errorf("expected default history limit, got %d", cfg.HistoryLimit)
	}

	// Device names are normalized for case-insensitive lookup.
	dev, ok := cfg.Device("workstation")
	if !ok {
		t.Fatal("device lookup should be case-insensitive")
	}
	if dev.Platform != "powershell" {
		t.Errorf("expected powershell platform, got %s", dev.Platform)
	}
	if _, ok := cfg.Device("unknown"); ok {
		t.Error("unknown device should not resolve")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	if err := os.WriteFile(configPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestLoadRepairsZeroValues(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	configJSON := `{"shell_timeout_seconds": 0, "history_limit": -5}`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ShellTimeout != 30 {
		t.Errorf("zero timeout should fall back to default, got %d", cfg.ShellTimeout)
	}
	if cfg.HistoryLimit != 20 {
		t.Errorf("negative history limit should fall back to default, got %d", cfg.HistoryLimit)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.ShellTimeout = 45
	cfg.Devices["pi"] = &Device{Platform: "bash", Description: "raspberry pi"}
	cfg.Sandbox.Enabled = true
	cfg.Sandbox.ReadWritePaths = []string{"/tmp"}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ShellTimeout != 45 {
		t.Errorf("expected shell timeout 45, got %d", loaded.ShellTimeout)
	}
	dev, ok := loaded.Device("pi")
	if !ok || dev.Platform != "bash" {
		t.Errorf("device not persisted: %v (ok=%v)", dev, ok)
	}
	if !loaded.Sandbox.Enabled {
		t.Error("sandbox settings not persisted")
	}
	if len(loaded.Sandbox.ReadWritePaths) != 1 || loaded.Sandbox.ReadWritePaths[0] != "/tmp" {
		t.Errorf("sandbox paths not persisted: %v", loaded.Sandbox.ReadWritePaths)
	}
}

func TestSecretsPasswordVerifier(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	cfg := DefaultConfig()
	if err := cfg.UpdateSecretsPassword("hunter2"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Secrets.PasswordSet {
		t.Fatal("password_set flag should persist")
	}
	if loaded.Secrets.Verifier == "" {
		t.Fatal("verifier should persist when a password is set")
	}

	// Correct password passes verification.
	if err := loaded.ApplySecretsPassword("hunter2"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if loaded.SecretsPassword() != "hunter2" {
		t.Error("password should be recorded after verification")
	}

	// Wrong password is rejected before any key material is touched.
	reloaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := reloaded.ApplySecretsPassword("wrong"); err == nil {
		t.Error("wrong password should be rejected")
	}
	if reloaded.SecretsPassword() != "" {
		t.Error("rejected password must not be recorded")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ISAAC_LOG_LEVEL", "debug")
	t.Setenv("ISAAC_LOG_FILE", "/tmp/isaac-test.log")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("env should override log level, got %s", cfg.LogLevel)
	}
	if cfg.LogPath != "/tmp/isaac-test.log" {
		t.Errorf("env should override log path, got %s", cfg.LogPath)
	}
}
