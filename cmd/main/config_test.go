package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bananadesuyo/iwataGPT/pkg/corpus"
	"github.com/bananadesuyo/iwataGPT/pkg/markov"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, tokenizerKagomeIPA, cfg.Chat.Tokenizer)
	assert.Equal(t, markov.DefaultMaxSteps, cfg.Chat.MaxSteps)
	assert.Equal(t, corpus.DefaultCatalog(), cfg.Chat.Models)
	assert.FileExists(t, path)

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"chat_config": {"tokenizer": "regex"}}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, tokenizerRegex, cfg.Chat.Tokenizer)
	assert.Equal(t, markov.DefaultPlaceholder, cfg.Chat.Placeholder)
	assert.Equal(t, ":7280", cfg.Server.ApiAddr)
}

func TestLoadConfigRejectsBadFiles(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"server_config": `},
		{"no models", `{"chat_config": {"models": []}}`},
		{"duplicate model", `{"chat_config": {"models": [{"name": "a", "source": "a.json"}, {"name": "a", "source": "b.json"}]}}`},
		{"unnamed model", `{"chat_config": {"models": [{"source": "a.json"}]}}`},
		{"negative max steps", `{"chat_config": {"max_steps": -1}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestConfigManagerUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cm, err := NewConfigManager(path)
	require.NoError(t, err)

	cfg := cm.Get()
	cfg.Chat.Placeholder = "……"
	cfg.Chat.Terminators = append(cfg.Chat.Terminators, "！？")
	require.NoError(t, cm.Update(cfg))

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "……", reloaded.Chat.Placeholder)
	assert.Contains(t, reloaded.Chat.Terminators, "！？")

	cfg.Chat.Models = nil
	assert.Error(t, cm.Update(cfg))
	assert.NotEmpty(t, cm.Get().Chat.Models)
}

func TestConfigManagerGetReturnsCopy(t *testing.T) {
	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	cfg := cm.Get()
	cfg.Chat.Models[0].Name = "changed"
	cfg.Server.ApiAddr = ":1"

	fresh := cm.Get()
	assert.Equal(t, corpus.DefaultCatalog()[0].Name, fresh.Chat.Models[0].Name)
	assert.Equal(t, ":7280", fresh.Server.ApiAddr)
}

func TestServerConfigSlogLevel(t *testing.T) {
	cfg := DefaultServerConfig()
	for level, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "verbose": "INFO"} {
		cfg.LogLevel = level
		assert.Equal(t, want, cfg.SlogLevel().String(), level)
	}
}

func TestChatConfigNewTokenizer(t *testing.T) {
	cfg := DefaultChatConfig()

	cfg.Tokenizer = tokenizerRegex
	tok, err := cfg.NewTokenizer()
	require.NoError(t, err)
	assert.Equal(t, []string{"私", "は", "元気", "です"}, tok.Tokenize("私は元気です"))

	cfg.Tokenizer = "mecab"
	_, err = cfg.NewTokenizer()
	assert.Error(t, err)
}
