package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cnc-n3r4/Isaac-sub001/internal/secrets"
	"github.com/cnc-n3r4/Isaac-sub001/internal/securemem"
)

// passwordVerifier is the known plaintext encrypted into the config so a
// password can be checked before any provider key is touched.
const passwordVerifier = "isaac"

// Device describes a remote execution target addressable with the @name
// prefix. Commands routed to a device are classified against its platform.
type Device struct {
	Platform    string `json:"platform"`
	Description string `json:"description,omitempty"`
}

// SandboxSettings controls the optional filesystem sandbox applied to the
// process before any command runs.
type SandboxSettings struct {
	Enabled        bool     `json:"enabled"`
	ReadOnlyPaths  []string `json:"read_only_paths,omitempty"`
	ReadWritePaths []string `json:"read_write_paths,omitempty"`
}

// SecretsSettings keeps track of password-protection state.
type SecretsSettings struct {
	PasswordSet bool   `json:"password_set,omitempty"`
	Verifier    string `json:"verifier,omitempty"`
}

// Config represents application configuration
type Config struct {
	WorkingDir         string             `json:"working_dir"`
	LogLevel           string             `json:"log_level"` // debug, info, warn, error, none
	LogPath            string             `json:"-"`
	StateDir           string             `json:"-"`
	ProviderConfigPath string             `json:"-"`
	TierRulesPath      string             `json:"tier_rules_path,omitempty"`
	AuditDBPath        string             `json:"audit_db_path,omitempty"`
	ShellTimeout       int                `json:"shell_timeout_seconds"`
	ValidationTimeout  int                `json:"validation_timeout_seconds"`
	CacheTTL           int                `json:"cache_ttl_seconds"`
	MaxCacheEntries    int                `json:"max_cache_entries"`
	HistoryLimit       int                `json:"history_limit"`
	Devices            map[string]*Device `json:"devices,omitempty"`
	Sandbox            SandboxSettings    `json:"sandbox,omitempty"`
	Secrets            SecretsSettings    `json:"secrets,omitempty"`

	// The active password lives in locked memory for the process lifetime;
	// it only leaves as short-lived copies handed to the crypto layer.
	secretsPassword *securemem.String
}

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "linux":
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "isaac")
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, "isaac")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", "isaac")
	default:
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "isaac")
	}
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "linux":
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, "isaac")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "state", "isaac")
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, "isaac")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Local", "isaac")
	default:
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "isaac")
	}
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	configDir := defaultConfigDir()
	stateDir := defaultStateDir()

	return &Config{
		WorkingDir:         ".",
		LogLevel:           "info",
		LogPath:            filepath.Join(stateDir, "isaac.log"),
		StateDir:           stateDir,
		ProviderConfigPath: filepath.Join(configDir, "providers.json"),
		TierRulesPath:      filepath.Join(configDir, "tiers.json"),
		AuditDBPath:        filepath.Join(stateDir, "audit.db"),
		ShellTimeout:       30,
		ValidationTimeout:  10,
		CacheTTL:           600,
		MaxCacheEntries:    512,
		HistoryLimit:       20,
		Devices:            make(map[string]*Device),
		Sandbox:            SandboxSettings{},
		Secrets:            SecretsSettings{},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			config.applyEnv()
			return config, nil
		}
		return nil, err
	}

	// Unmarshal into default config (overrides only provided fields)
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	// Ensure critical fields have defaults if still empty
	if config.WorkingDir == "" {
		config.WorkingDir = "."
	}
	configDir := defaultConfigDir()
	stateDir := defaultStateDir()
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogPath == "" {
		config.LogPath = filepath.Join(stateDir, "isaac.log")
	}
	if config.StateDir == "" {
		config.StateDir = stateDir
	}
	if config.ProviderConfigPath == "" {
		config.ProviderConfigPath = filepath.Join(configDir, "providers.json")
	}
	if config.TierRulesPath == "" {
		config.TierRulesPath = filepath.Join(configDir, "tiers.json")
	}
	if config.AuditDBPath == "" {
		config.AuditDBPath = filepath.Join(stateDir, "audit.db")
	}
	if config.ShellTimeout <= 0 {
		config.ShellTimeout = 30
	}
	if config.ValidationTimeout <= 0 {
		config.ValidationTimeout = 10
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 600
	}
	if config.MaxCacheEntries <= 0 {
		config.MaxCacheEntries = 512
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = 20
	}
	config.normalizeDevices()

	config.applyEnv()
	return config, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("ISAAC_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("ISAAC_LOG_FILE")); v != "" {
		c.LogPath = v
	}
}

// Device keys are matched case-insensitively against the @name prefix.
func (c *Config) normalizeDevices() {
	if len(c.Devices) == 0 {
		if c.Devices == nil {
			c.Devices = make(map[string]*Device)
		}
		return
	}
	normalized := make(map[string]*Device, len(c.Devices))
	for name, dev := range c.Devices {
		normalized[strings.ToLower(strings.TrimSpace(name))] = dev
	}
	c.Devices = normalized
}

// ShellTimeoutDuration returns the shell timeout as a duration.
func (c *Config) ShellTimeoutDuration() time.Duration {
	return time.Duration(c.ShellTimeout) * time.Second
}

// ValidationTimeoutDuration returns the advisory validation timeout as a
// duration.
func (c *Config) ValidationTimeoutDuration() time.Duration {
	return time.Duration(c.ValidationTimeout) * time.Second
}

// CacheTTLDuration returns the verdict cache TTL as a duration.
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Device returns the configured device entry for name, if any.
func (c *Config) Device(name string) (*Device, bool) {
	if len(c.Devices) == 0 {
		return nil, false
	}
	dev, ok := c.Devices[strings.ToLower(strings.TrimSpace(name))]
	if !ok || dev == nil {
		return nil, false
	}
	return dev, true
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := c.marshalForSave()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}

// ApplySecretsPassword verifies the password against the stored verifier and
// records it for later provider key decryption.
func (c *Config) ApplySecretsPassword(password string) error {
	if err := c.verifyPassword(password); err != nil {
		return err
	}
	c.secretsPassword.Destroy()
	c.secretsPassword = nil
	if password != "" {
		c.secretsPassword = securemem.NewString(password)
	}
	return nil
}

// SecretsPassword returns a plaintext copy of the active secrets password
// (empty string by default). Callers should keep its lifetime short.
func (c *Config) SecretsPassword() string {
	return c.secretsPassword.String()
}

// UpdateSecretsPassword switches the runtime password and updates the persisted flags.
func (c *Config) UpdateSecretsPassword(password string) error {
	if c == nil {
		return nil
	}
	c.Secrets.PasswordSet = password != ""
	c.Secrets.Verifier = ""
	return c.ApplySecretsPassword(password)
}

func (c *Config) marshalForSave() ([]byte, error) {
	copyCfg := *c

	if copyCfg.Secrets.PasswordSet {
		verifier, err := secrets.EncryptString(passwordVerifier, c.SecretsPassword())
		if err != nil {
			return nil, err
		}
		copyCfg.Secrets.Verifier = verifier
	} else {
		copyCfg.Secrets.Verifier = ""
	}

	return json.MarshalIndent(&copyCfg, "", "  ")
}

func (c *Config) verifyPassword(password string) error {
	if !c.Secrets.PasswordSet || c.Secrets.Verifier == "" {
		return nil
	}
	_, _, err := secrets.DecryptString(c.Secrets.Verifier, password)
	return err
}
