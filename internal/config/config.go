package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfigDirUnavailable is returned when the OS has no per-user config directory.
var ErrConfigDirUnavailable = errors.New("config directory unavailable")

type Config struct {
	AI struct {
		Provider    string        `yaml:"provider"` // openai or gemini
		Model       string        `yaml:"model"`
		APIKey      string        `yaml:"api_key"`
		APIBase     string        `yaml:"api_base"` // OpenAI-compatible servers only
		Temperature float64       `yaml:"temperature"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"ai"`
	Templates struct {
		Function string `yaml:"function"`
		Struct   string `yaml:"struct"`
	} `yaml:"templates"`
	Output struct {
		Dir     string `yaml:"dir"`      // docs.json lands here
		CacheDB string `yaml:"cache_db"` // empty disables the answer cache
	} `yaml:"output"`
	Patch struct {
		Jobs  int  `yaml:"jobs"`
		Guard bool `yaml:"guard"`
	} `yaml:"patch"`
}

// Default returns the configuration written by init.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(DefaultConfigYAML), &cfg); err != nil {
		panic(fmt.Sprintf("config: bad default config: %v", err))
	}
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// 3. Override with Environment Variables if present
	applyEnv(cfg)

	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	switch cfg.AI.Provider {
	case "", "openai", "gemini":
	default:
		return nil, fmt.Errorf("unsupported ai provider %q in %s", cfg.AI.Provider, path)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if apiKey := os.Getenv("RUSTDOCS_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("RUSTDOCS_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("RUSTDOCS_MODEL"); model != "" {
		cfg.AI.Model = model
	}
	if base := os.Getenv("RUSTDOCS_API_BASE"); base != "" {
		cfg.AI.APIBase = base
	}
}

// Root is the per-user directory holding the config file and templates.
func Root() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfigDirUnavailable, err)
	}
	return filepath.Join(dir, "rustdocs"), nil
}

// ResolvePath anchors a relative path at root.
func ResolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// TemplatePath maps a bare template name to root/templates/<name>.yaml.
// Anything that looks like a path is resolved as one.
func TemplatePath(root, name string) string {
	ext := filepath.Ext(name)
	if ext == ".yaml" || ext == ".yml" || strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
		return ResolvePath(root, name)
	}
	return filepath.Join(root, "templates", name+".yaml")
}
