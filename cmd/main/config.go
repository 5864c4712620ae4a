package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bananadesuyo/iwataGPT/pkg/corpus"
	"github.com/bananadesuyo/iwataGPT/pkg/jatokenizer"
	"github.com/bananadesuyo/iwataGPT/pkg/markov"
	"github.com/natefinch/atomic"
)

// Tokenizer names accepted in chat_config.tokenizer.
const (
	tokenizerKagomeIPA = "kagome-ipa"
	tokenizerKagomeUni = "kagome-uni"
	tokenizerRegex     = "regex"
)

// ServerConfig holds the configuration for the HTTP server and its background
// jobs.
type ServerConfig struct {
	ApiAddr            string `json:"api_addr"`
	LogLevel           string `json:"log_level"`
	DataDir            string `json:"data_dir"`
	CorpusDatabasePath string `json:"corpus_database_path"`
	SessionIdleMinutes int    `json:"session_idle_minutes"`
	WatchCorpora       bool   `json:"watch_corpora"`
}

// ChatConfig holds the corpus catalog and the reply generation settings.
type ChatConfig struct {
	Models        corpus.Catalog `json:"models"`
	Tokenizer     string         `json:"tokenizer"`
	MaxSteps      int            `json:"max_steps"`
	MinSeedLength int            `json:"min_seed_length"`
	Terminators   []string       `json:"terminators"`
	Placeholder   string         `json:"placeholder"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server *ServerConfig `json:"server_config"`
	Chat   *ChatConfig   `json:"chat_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:            ":7280",
		LogLevel:           "info",
		DataDir:            "./data",
		CorpusDatabasePath: "./data/iwatagpt_corpus.db?_journal_mode=WAL&_busy_timeout=5000",
		SessionIdleMinutes: 60,
		WatchCorpora:       false,
	}
}

// DefaultChatConfig creates a chat configuration with default values.
func DefaultChatConfig() *ChatConfig {
	return &ChatConfig{
		Models:        corpus.DefaultCatalog(),
		Tokenizer:     tokenizerKagomeIPA,
		MaxSteps:      markov.DefaultMaxSteps,
		MinSeedLength: markov.DefaultMinSeedLength,
		Terminators:   markov.DefaultTerminators(),
		Placeholder:   markov.DefaultPlaceholder,
	}
}

// SessionIdle returns how long an unused session is kept.
func (c *ServerConfig) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// SlogLevel maps the configured log level onto slog. Unknown values mean info.
func (c *ServerConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GenerateOptions converts the chat configuration into generator options.
func (c *ChatConfig) GenerateOptions() []markov.GenerateOption {
	return []markov.GenerateOption{
		markov.WithMaxSteps(c.MaxSteps),
		markov.WithMinSeedLength(c.MinSeedLength),
		markov.WithTerminators(c.Terminators...),
		markov.WithPlaceholder(c.Placeholder),
	}
}

// NewTokenizer builds the configured tokenizer. Kagome dictionaries take a
// moment to load, so callers should build it once.
func (c *ChatConfig) NewTokenizer() (markov.Tokenizer, error) {
	switch c.Tokenizer {
	case tokenizerKagomeIPA, "":
		return jatokenizer.New(jatokenizer.WithDictionary(jatokenizer.DictIPA))
	case tokenizerKagomeUni:
		return jatokenizer.New(jatokenizer.WithDictionary(jatokenizer.DictUni))
	case tokenizerRegex:
		return markov.NewDefaultTokenizer(), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", c.Tokenizer)
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	// Initialize with default configurations
	config := &Config{
		Server: DefaultServerConfig(),
		Chat:   DefaultChatConfig(),
	}

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, as the server can still run with defaults.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server == nil || c.Chat == nil {
		return fmt.Errorf("server_config and chat_config are required")
	}
	if len(c.Chat.Models) == 0 {
		return fmt.Errorf("chat_config.models must list at least one corpus")
	}
	seen := make(map[string]struct{}, len(c.Chat.Models))
	for _, e := range c.Chat.Models {
		if e.Name == "" || e.Source == "" {
			return fmt.Errorf("model entries need a name and a source")
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("duplicate model name %q", e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	if c.Chat.MaxSteps < 0 {
		return fmt.Errorf("chat_config.max_steps must not be negative")
	}
	return nil
}

// ConfigManager handles thread-safe access to the configuration and persists
// updates.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{config: cfg, configPath: path}, nil
}

// Get returns a thread-safe copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	server := *cm.config.Server
	chatCfg := *cm.config.Chat
	chatCfg.Models = append(corpus.Catalog(nil), cm.config.Chat.Models...)
	chatCfg.Terminators = append([]string(nil), cm.config.Chat.Terminators...)
	return Config{Server: &server, Chat: &chatCfg}
}

// Update validates the configuration and saves it to disk. Most settings take
// effect on the next restart.
func (cm *ConfigManager) Update(newConfig Config) error {
	if err := newConfig.Validate(); err != nil {
		return err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	data, err := json.MarshalIndent(newConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	*cm.config = newConfig
	return nil
}
