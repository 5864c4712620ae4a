package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bananadesuyo/iwataGPT/pkg/chat"
	"github.com/bananadesuyo/iwataGPT/pkg/corpus"
	"github.com/bananadesuyo/iwataGPT/pkg/markov"
)

// Server holds the chat session manager and the HTTP handlers built on it.
type Server struct {
	cm        *ConfigManager
	logger    *slog.Logger
	catalog   corpus.Catalog
	manager   *chat.Manager
	chatAPI   *ChatAPI
	corpusAPI *CorpusAPI
	serverAPI *ServerAPI
	apiMux    *http.ServeMux
}

// NewServer wires the tokenizer, generator, session manager and API handlers
// from the current configuration. The corpus routes are only served when store
// is not nil.
func NewServer(cm *ConfigManager, logger *slog.Logger, tokenizer markov.Tokenizer, load chat.LoadFunc, store *corpus.Store, actionChan chan string) *Server {
	cfg := cm.Get()

	gen := markov.NewReplyGenerator(tokenizer, cfg.Chat.GenerateOptions()...)
	gen.SetLogger(logger)

	manager := chat.NewManager(tokenizer, gen, load)
	manager.SetLogger(logger)

	server := &Server{
		cm:        cm,
		logger:    logger,
		catalog:   cfg.Chat.Models,
		manager:   manager,
		chatAPI:   NewChatAPI(manager, cfg.Chat.Models, logger),
		serverAPI: NewServerAPI(cm, actionChan, logger),
		apiMux:    http.NewServeMux(),
	}

	server.chatAPI.RegisterRoutes(server.apiMux)
	server.serverAPI.RegisterRoutes(server.apiMux)
	if store != nil {
		server.corpusAPI = NewCorpusAPI(store, logger)
		server.corpusAPI.RegisterRoutes(server.apiMux)
	}

	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.apiMux
}

// expireSessions removes idle sessions every interval until ctx is done.
func (s *Server) expireSessions(ctx context.Context, maxIdle time.Duration) error {
	if maxIdle <= 0 {
		return nil
	}
	interval := min(maxIdle/2, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.manager.Expire(maxIdle)
		}
	}
}

// watchCorpora reloads the sessions using a catalog file whenever that file
// changes. It returns once ctx is done, or with the first watcher error.
func (s *Server) watchCorpora(ctx context.Context) error {
	errs := make(chan error, len(s.catalog))
	watching := 0
	for _, entry := range s.catalog {
		path, ok := entry.LocalPath()
		if !ok {
			continue
		}
		watching++
		go func() {
			s.logger.Info("Watching corpus file", "model", entry.Name, "path", path)
			errs <- corpus.Watch(ctx, path, 500*time.Millisecond, func() {
				s.manager.Reload(ctx, entry.Source)
			})
		}()
	}

	var firstErr error
	for range watching {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = fmt.Errorf("corpus watcher: %w", err)
			s.logger.Error("Corpus watcher stopped", "error", err)
		}
	}
	return firstErr
}
