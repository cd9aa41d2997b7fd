package adapter

import "claude-adapter-go/internal/modelcatalog"

// Preset is a ready-made provider configuration a user can select instead
// of filling in base URL and model names by hand.
type Preset struct {
	Name              string
	Label             string
	BaseURL           string
	APIKeyRequired    bool
	APIKeyPlaceholder string
	DefaultModels     modelcatalog.Mapping
	DefaultToolFormat string
	Description       string
	MaxContextWindow  *int
}

func intPtr(n int) *int { return &n }

// Presets is the catalog of supported backends, ported from the provider
// preset table (base URLs, placeholder formats, default model tiers).
var Presets = map[string]Preset{
	"nvidia": {
		Name: "nvidia", Label: "NVIDIA NIM",
		BaseURL: "https://integrate.api.nvidia.com/v1",
		APIKeyRequired: true, APIKeyPlaceholder: "nvapi-xxxx",
		DefaultModels: modelcatalog.Mapping{
			Opus: "minimaxai/minimax-m2.1", Sonnet: "minimaxai/minimax-m2.1", Haiku: "minimaxai/minimax-m2.1",
		},
		DefaultToolFormat: "native",
		Description:       "NVIDIA NIM API (https://build.nvidia.com/)",
	},
	"ollama": {
		Name: "ollama", Label: "Ollama",
		BaseURL: "http://localhost:11434/v1",
		APIKeyRequired: false, APIKeyPlaceholder: "ollama",
		DefaultModels: modelcatalog.Mapping{
			Opus: "kimi-k2.5:cloud", Sonnet: "kimi-k2.5:cloud", Haiku: "kimi-k2.5:cloud",
		},
		DefaultToolFormat: "native",
		Description:       "Ollama localhost:11434 (https://ollama.com/)",
		MaxContextWindow:  intPtr(8192),
	},
	"lmstudio": {
		Name: "lmstudio", Label: "LM Studio",
		BaseURL: "http://localhost:1234/v1",
		APIKeyRequired: false, APIKeyPlaceholder: "lm-studio",
		DefaultModels: modelcatalog.Mapping{
			Opus: "zai-org/glm-4.7-flash", Sonnet: "zai-org/glm-4.7-flash", Haiku: "zai-org/glm-4.7-flash",
		},
		DefaultToolFormat: "native",
		Description:       "LM Studio localhost:1234 (https://lmstudio.ai/)",
		MaxContextWindow:  intPtr(131072),
	},
	"kimi": {
		Name: "kimi", Label: "Kimi (Moonshot)",
		BaseURL: "https://api.moonshot.cn/v1",
		APIKeyRequired: true, APIKeyPlaceholder: "sk-xxxx",
		DefaultModels: modelcatalog.Mapping{Opus: "kimi-k2.5", Sonnet: "kimi-k2.5", Haiku: "kimi-k2.5"},
		DefaultToolFormat: "native",
		Description:       "Kimi API (https://platform.moonshot.cn/console/api-keys)",
	},
	"deepseek": {
		Name: "deepseek", Label: "DeepSeek",
		BaseURL: "https://api.deepseek.com/v1",
		APIKeyRequired: true, APIKeyPlaceholder: "sk-xxxx",
		DefaultModels:     modelcatalog.Mapping{Opus: "deepseek-chat", Sonnet: "deepseek-chat", Haiku: "deepseek-chat"},
		DefaultToolFormat: "native",
		Description:       "DeepSeek API (https://platform.deepseek.com/api_keys)",
	},
	"glm": {
		Name: "glm", Label: "Z.ai",
		BaseURL: "https://api.z.ai/api/paas/v4",
		APIKeyRequired: true, APIKeyPlaceholder: "xxxx.xxxx",
		DefaultModels:     modelcatalog.Mapping{Opus: "glm-4.7", Sonnet: "glm-4.7", Haiku: "glm-4.7"},
		DefaultToolFormat: "native",
		Description:       "Z.ai API (https://bigmodel.cn/usercenter/proj-mgmt/apikeys)",
	},
	"minimax": {
		Name: "minimax", Label: "MiniMax",
		BaseURL: "https://api.minimaxi.com/v1",
		APIKeyRequired: true, APIKeyPlaceholder: "eyxxxx",
		DefaultModels:     modelcatalog.Mapping{Opus: "MiniMax-M2.1", Sonnet: "MiniMax-M2.1", Haiku: "MiniMax-M2.1"},
		DefaultToolFormat: "native",
		Description:       "MiniMax API (https://platform.minimaxi.com/)",
	},
	"custom": {
		Name: "custom", Label: "Custom OpenAI-compatible",
		BaseURL: "https://api.openai.com/v1",
		APIKeyRequired: true, APIKeyPlaceholder: "sk-xxxx",
		DefaultModels:     modelcatalog.Mapping{Opus: "gpt-4o", Sonnet: "gpt-4o", Haiku: "gpt-4o-mini"},
		DefaultToolFormat: "native",
		Description:       "Custom OpenAI-compatible endpoint",
	},
}
