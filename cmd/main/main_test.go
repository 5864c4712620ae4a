package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bananadesuyo/iwataGPT/pkg/corpus"
	"github.com/stretchr/testify/require"
)

// testEnv is a server backed by two small corpora on disk and a catalog entry
// whose file does not exist.
type testEnv struct {
	server  *Server
	handler http.Handler
	genki   string
	hello   string
	actions chan string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeCorpus(t *testing.T, dir, name string, entries []string) string {
	t.Helper()
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testConfig(t *testing.T) (*Config, string, string) {
	t.Helper()
	dir := t.TempDir()
	genki := writeCorpus(t, dir, "genki.json", []string{"私は元気です"})
	hello := writeCorpus(t, dir, "hello.json", []string{"こんにちは世界"})

	chatCfg := DefaultChatConfig()
	chatCfg.Tokenizer = tokenizerRegex
	chatCfg.Models = corpus.Catalog{
		{Name: "genki", Source: genki},
		{Name: "hello", Source: hello},
		{Name: "broken", Source: filepath.Join(dir, "missing.json")},
	}

	serverCfg := DefaultServerConfig()
	serverCfg.DataDir = dir
	serverCfg.CorpusDatabasePath = filepath.Join(dir, "corpus.db")

	return &Config{Server: serverCfg, Chat: chatCfg}, genki, hello
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg, genki, hello := testConfig(t)
	cm := &ConfigManager{config: cfg, configPath: filepath.Join(cfg.Server.DataDir, "config.json")}

	tokenizer, err := cfg.Chat.NewTokenizer()
	require.NoError(t, err)

	store, closeStore, err := openCorpusStore(cfg.Server, discardLogger())
	require.NoError(t, err)
	t.Cleanup(closeStore)

	actions := make(chan string, 1)
	server := NewServer(cm, discardLogger(), tokenizer, nil, store, actions)
	return &testEnv{
		server:  server,
		handler: server.Handler(),
		genki:   genki,
		hello:   hello,
		actions: actions,
	}
}

// do sends a request with an optional JSON body and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// createSession starts a session on model and returns its id.
func (e *testEnv) createSession(t *testing.T, model string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/sessions", ModelRequest{Model: model})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[SessionResponse](t, rec).ID
}
