package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bananadesuyo/iwataGPT/pkg/chat"
	"github.com/bananadesuyo/iwataGPT/pkg/corpus"
)

// ChatAPI holds the dependencies for the chat API handlers.
type ChatAPI struct {
	manager *chat.Manager
	catalog corpus.Catalog
	logger  *slog.Logger
}

// NewChatAPI creates a new instance of the ChatAPI.
func NewChatAPI(manager *chat.Manager, catalog corpus.Catalog, logger *slog.Logger) *ChatAPI {
	return &ChatAPI{
		manager: manager,
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for the /api/models and /api/sessions endpoints.
func (c *ChatAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/models", c.handleListModels)
	mux.HandleFunc("/api/sessions", c.handleListAndCreateSessions)
	mux.HandleFunc("/api/sessions/", c.handleSessionByID)
}

type ModelRequest struct {
	Model string `json:"model"`
}

type ModelResponse struct {
	Success bool   `json:"success"`
	Model   string `json:"model"`
	Status  string `json:"status"`
}

type SessionResponse struct {
	chat.Info
	Model  string `json:"model"`
	Loaded bool   `json:"loaded"`
}

type ReplyRequest struct {
	Text string `json:"text"`
}

type ReplyResponse struct {
	Reply  string   `json:"reply"`
	Seed   string   `json:"seed"`
	Tier   string   `json:"tier"`
	Stop   string   `json:"stop"`
	Tokens []string `json:"tokens"`
}

// switchStatus renders the status line shown after a model switch.
func switchStatus(model string, ok bool) string {
	if ok {
		return fmt.Sprintf("'%s' に切り替えました", model)
	}
	return fmt.Sprintf("エラー: %s", model)
}

// handleListModels returns the corpus catalog.
func (c *ChatAPI) handleListModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, c.catalog)
}

// handleListAndCreateSessions handles GET for listing and POST for creating sessions.
func (c *ChatAPI) handleListAndCreateSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondWithJSON(w, http.StatusOK, c.manager.List())

	case http.MethodPost:
		var req ModelRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
				return
			}
		}
		entry, ok := c.resolveModel(req.Model)
		if !ok {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown model %q", req.Model))
			return
		}

		session, loaded := c.manager.Create(r.Context(), entry.Source)
		if !loaded {
			c.logger.Warn("New session started without a model", "session_id", session.ID(), "model", entry.Name)
		}
		respondWithJSON(w, http.StatusCreated, SessionResponse{Info: session.Info(), Model: entry.Name, Loaded: loaded})

	default:
		w.Header().Set("Allow", "GET, POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSessionByID routes actions for a specific session, e.g., reply, model, delete.
func (c *ChatAPI) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(path, "/")
	id := parts[0]

	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Session id not specified")
		return
	}

	session, err := c.manager.Get(id)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			respondWithError(w, http.StatusNotFound, "Session not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if len(parts) == 1 { // Path is just /api/sessions/{id}
		switch r.Method {
		case http.MethodGet:
			respondWithJSON(w, http.StatusOK, c.sessionResponse(session))
		case http.MethodDelete:
			c.manager.Remove(id)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("Allow", "GET, DELETE")
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	action := parts[1]
	switch action {
	case "reply":
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		var req ReplyRequest
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		if req.Text == "" {
			respondWithError(w, http.StatusBadRequest, "Text is required")
			return
		}

		reply := session.Reply(req.Text)
		respondWithJSON(w, http.StatusOK, ReplyResponse{
			Reply:  reply.Text,
			Seed:   reply.Seed,
			Tier:   reply.Tier.String(),
			Stop:   reply.Stop.String(),
			Tokens: reply.Tokens,
		})

	case "model":
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		var req ModelRequest
		if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		entry, ok := c.catalog.Resolve(req.Model)
		if !ok || req.Model == "" {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown model %q", req.Model))
			return
		}

		// A failed load is reported as a status; the session keeps its model.
		success := session.LoadAndLearn(r.Context(), entry.Source)
		respondWithJSON(w, http.StatusOK, ModelResponse{
			Success: success,
			Model:   entry.Name,
			Status:  switchStatus(entry.Source, success),
		})

	default:
		respondWithError(w, http.StatusNotFound, "Action not found")
	}
}

// resolveModel maps a requested model name onto the catalog. An empty name
// selects the default model.
func (c *ChatAPI) resolveModel(name string) (corpus.Entry, bool) {
	if name == "" {
		return c.catalog.Default()
	}
	return c.catalog.Resolve(name)
}

func (c *ChatAPI) sessionResponse(s *chat.Session) SessionResponse {
	info := s.Info()
	resp := SessionResponse{Info: info, Loaded: info.Source != ""}
	if entry, ok := c.catalog.Resolve(info.Source); ok {
		resp.Model = entry.Name
	}
	return resp
}
