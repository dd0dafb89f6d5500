// Package provider stores LLM provider credentials and the model assignments
// for the two advisory roles: safety validation and command correction.
package provider

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cnc-n3r4/Isaac-sub001/internal/llm"
	"github.com/cnc-n3r4/Isaac-sub001/internal/secrets"
)

const (
	defaultSafetyModel     = "anthropic/claude-3-5-haiku-20241022"
	defaultCorrectionModel = "anthropic/claude-3-5-haiku-20241022"
)

// Provider represents an LLM provider entry in providers.json. The API key
// may carry the secrets envelope prefix when a password is configured.
type Provider struct {
	Name    string `json:"name"`
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"` // OpenAI-compatible endpoints only
}

// Config stores provider configuration
type Config struct {
	Providers       map[string]*Provider `json:"providers"`
	SafetyModel     string               `json:"safety_model,omitempty"`
	CorrectionModel string               `json:"correction_model,omitempty"`
}

// Manager manages LLM providers
type Manager struct {
	config     *Config
	configPath string
	password   string
	mu         sync.RWMutex
}

// NewManager creates a new provider manager
func NewManager(configPath, password string) (*Manager, error) {
	m := &Manager{
		configPath: configPath,
		password:   password,
		config: &Config{
			Providers:       make(map[string]*Provider),
			SafetyModel:     defaultSafetyModel,
			CorrectionModel: defaultCorrectionModel,
		},
	}

	// Load config if exists
	if err := m.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return m, nil
}

// Load loads configuration from disk
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse provider config: %w", err)
	}

	if config.Providers == nil {
		config.Providers = make(map[string]*Provider)
	}
	if config.SafetyModel == "" {
		config.SafetyModel = defaultSafetyModel
	}
	if config.CorrectionModel == "" {
		config.CorrectionModel = defaultCorrectionModel
	}

	// Decrypt stored keys. Plaintext keys pass through untouched so files
	// written before a password was set keep working.
	for name, p := range config.Providers {
		if p == nil {
			continue
		}
		plain, wasEncrypted, err := secrets.DecryptString(p.APIKey, m.password)
		if err != nil {
			return fmt.Errorf("decrypt api key for provider %s: %w", name, err)
		}
		if wasEncrypted {
			p.APIKey = plain
		}
	}

	m.mu.Lock()
	m.config = &config
	m.mu.Unlock()
	return nil
}

// Save saves configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.save()
}

// save is the internal save method that doesn't acquire locks
func (m *Manager) save() error {
	// Ensure directory exists
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	configCopy := &Config{
		Providers:       make(map[string]*Provider, len(m.config.Providers)),
		SafetyModel:     m.config.SafetyModel,
		CorrectionModel: m.config.CorrectionModel,
	}
	for name, p := range m.config.Providers {
		if p == nil {
			continue
		}
		clone := *p
		if m.password != "" {
			encrypted, err := secrets.EncryptString(clone.APIKey, m.password)
			if err != nil {
				return fmt.Errorf("encrypt api key for provider %s: %w", name, err)
			}
			clone.APIKey = encrypted
		}
		configCopy.Providers[name] = &clone
	}

	data, err := json.MarshalIndent(configCopy, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temporary file then rename
	tmpPath := m.configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, m.configPath)
}

// SetPassword updates the password used to encrypt stored keys and re-saves.
func (m *Manager) SetPassword(password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.password = password
	return m.save()
}

// AddProvider adds or updates a provider
func (m *Manager) AddProvider(name, apiKey, baseURL string) error {
	canonical := canonicalProviderName(name)
	if canonical == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.config.Providers[canonical] = &Provider{
		Name:    canonical,
		APIKey:  strings.TrimSpace(apiKey),
		BaseURL: strings.TrimSpace(baseURL),
	}
	return m.save()
}

// GetProvider gets a provider by name
func (m *Manager) GetProvider(name string) (*Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.config.Providers[canonicalProviderName(name)]
	return p, ok
}

// ListProviders lists all providers sorted by name
func (m *Manager) ListProviders() []*Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	providers := make([]*Provider, 0, len(m.config.Providers))
	for _, p := range m.config.Providers {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool {
		return providers[i].Name < providers[j].Name
	})
	return providers
}

// SetSafetyModel sets the safety model
func (m *Manager) SetSafetyModel(modelRef string) error {
	if _, _, err := parseModelRef(modelRef); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.SafetyModel = modelRef
	return m.save()
}

// SetCorrectionModel sets the correction model
func (m *Manager) SetCorrectionModel(modelRef string) error {
	if _, _, err := parseModelRef(modelRef); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.CorrectionModel = modelRef
	return m.save()
}

// GetSafetyModel gets the safety model reference
func (m *Manager) GetSafetyModel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.SafetyModel
}

// GetCorrectionModel gets the correction model reference
func (m *Manager) GetCorrectionModel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.CorrectionModel
}

// SafetyClient builds a client for the safety validation role.
func (m *Manager) SafetyClient() (llm.Client, error) {
	return m.clientFor(m.GetSafetyModel())
}

// CorrectionClient builds a client for the command correction role.
func (m *Manager) CorrectionClient() (llm.Client, error) {
	return m.clientFor(m.GetCorrectionModel())
}

func (m *Manager) clientFor(modelRef string) (llm.Client, error) {
	providerName, modelName, err := parseModelRef(modelRef)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	entry := m.config.Providers[providerName]
	m.mu.RUnlock()

	var configuredKey, baseURL string
	if entry != nil {
		configuredKey = entry.APIKey
		baseURL = entry.BaseURL
	}

	apiKey := resolveAPIKey(providerName, configuredKey)
	if apiKey == "" {
		hints := EnvVarHints(providerName)
		if len(hints) > 0 {
			return nil, fmt.Errorf("no API key for provider %s (set %s or add it to providers.json)", providerName, strings.Join(hints, " or "))
		}
		return nil, fmt.Errorf("no API key for provider %s", providerName)
	}

	return llm.NewClient(providerName, apiKey, modelName, baseURL)
}

// parseModelRef splits a "provider/model" reference. The model part may
// itself contain slashes (Google model IDs do).
func parseModelRef(ref string) (providerName, modelName string, err error) {
	ref = strings.TrimSpace(ref)
	idx := strings.Index(ref, "/")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", fmt.Errorf("invalid model reference %q, expected provider/model", ref)
	}
	return canonicalProviderName(ref[:idx]), ref[idx+1:], nil
}
