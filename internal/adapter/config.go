// Package adapter holds the gateway's own configuration: the YAML file on
// disk, the provider preset catalog, and the best-effort startup update
// check (component I in SPEC_FULL.md).
package adapter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"claude-adapter-go/internal/crypto"
	"claude-adapter-go/internal/modelcatalog"
)

// ProviderConfig names the single active backend this gateway instance
// forwards to. Only one provider is configured per running instance —
// switching providers means editing config.yaml and restarting.
type ProviderConfig struct {
	// Name is a Presets key ("custom" for a hand-configured endpoint).
	Name string `yaml:"name"`

	// BaseURL is the OpenAI-compatible endpoint to call. Empty uses the
	// preset's default.
	BaseURL string `yaml:"baseUrl"`

	// APIKey may be a plain-text string or an encrypted value prefixed
	// with "enc:aes256:". Encrypted values are decrypted at load time
	// using CLAUDE_ADAPTER_MASTER_KEY (see internal/crypto).
	APIKey string `yaml:"apiKey"` // #nosec

	// Models maps the three Anthropic model tiers to concrete upstream
	// model names (4.A). Empty fields fall back to the preset's defaults.
	Models modelcatalog.Mapping `yaml:"models"`

	// ToolFormat is "native" or "xml" (4.E). Empty falls back to the
	// preset's default.
	ToolFormat string `yaml:"toolFormat"`

	// MaxContextWindow bounds request shaping (4.B). Nil means no limit
	// is enforced beyond the provider preset's own default, if any.
	MaxContextWindow *int `yaml:"maxContextWindow,omitempty"`
}

// Config is the gateway's full on-disk configuration.
type Config struct {
	// ListenAddr is the local address the HTTP server binds (4.H).
	ListenAddr string `yaml:"listenAddr"`

	// Provider configures the single upstream backend.
	Provider ProviderConfig `yaml:"provider"`

	// RequestTimeoutSeconds bounds every upstream call (4.F/5).
	RequestTimeoutSeconds int `yaml:"requestTimeoutSeconds"`

	// DataDir is the base directory for usage/error logs (4.G), default
	// ~/.claude-adapter.
	DataDir string `yaml:"dataDir"`

	// DisableUpdateCheck skips the startup version check (component I4).
	DisableUpdateCheck bool `yaml:"disableUpdateCheck"`
}

// LoadConfig loads the configuration from a YAML file, applying preset
// defaults for any field the user left blank. A missing file is not an
// error — it returns defaultConfig() so the gateway can still run from
// flags/env alone.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.Provider.BaseURL = Presets["custom"].BaseURL
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("adapter: failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("adapter: failed to unmarshal config: %w", err)
	}

	applyPresetDefaults(cfg)

	if err := decryptAPIKey(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		ListenAddr:            ":8317",
		RequestTimeoutSeconds: 300,
		DataDir:               filepath.Join(home, ".claude-adapter"),
		Provider: ProviderConfig{
			Name:       "custom",
			ToolFormat: "native",
		},
	}
}

// applyPresetDefaults fills BaseURL/Models/ToolFormat/MaxContextWindow
// from the named preset wherever the user left them blank.
func applyPresetDefaults(cfg *Config) {
	preset, ok := Presets[cfg.Provider.Name]
	if !ok {
		return
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = preset.BaseURL
	}
	if cfg.Provider.ToolFormat == "" {
		cfg.Provider.ToolFormat = preset.DefaultToolFormat
	}
	if cfg.Provider.Models.Opus == "" {
		cfg.Provider.Models.Opus = preset.DefaultModels.Opus
	}
	if cfg.Provider.Models.Sonnet == "" {
		cfg.Provider.Models.Sonnet = preset.DefaultModels.Sonnet
	}
	if cfg.Provider.Models.Haiku == "" {
		cfg.Provider.Models.Haiku = preset.DefaultModels.Haiku
	}
	if cfg.Provider.MaxContextWindow == nil {
		cfg.Provider.MaxContextWindow = preset.MaxContextWindow
	}
}

// decryptAPIKey resolves an "enc:aes256:"-prefixed key in place. If the
// key requires decryption but CLAUDE_ADAPTER_MASTER_KEY is absent or
// wrong, the gateway should refuse to start.
func decryptAPIKey(cfg *Config) error {
	if !crypto.IsEncrypted(cfg.Provider.APIKey) {
		return nil
	}
	plain, err := crypto.DecryptValue(cfg.Provider.APIKey)
	if err != nil {
		return fmt.Errorf("adapter: failed to decrypt provider apiKey: %w", err)
	}
	cfg.Provider.APIKey = plain
	return nil
}
