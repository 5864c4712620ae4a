package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bananadesuyo/iwataGPT/pkg/corpus"
)

const maxCorpusUploadBytes = 64 << 20

// CorpusAPI holds the dependencies for the corpus store handlers.
type CorpusAPI struct {
	store  *corpus.Store
	logger *slog.Logger
}

// NewCorpusAPI creates a new instance of the CorpusAPI.
func NewCorpusAPI(store *corpus.Store, logger *slog.Logger) *CorpusAPI {
	return &CorpusAPI{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/corpora endpoints.
func (c *CorpusAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/corpora", c.handleListCorpora)
	mux.HandleFunc("/api/corpora/", c.handleCorpusByName)
}

// handleListCorpora lists the names of the stored corpora.
func (c *CorpusAPI) handleListCorpora(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	names, err := c.store.Names(r.Context())
	if err != nil {
		c.logger.Error("Failed to list corpora", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve corpora: %v", err))
		return
	}
	if names == nil {
		names = []string{}
	}
	respondWithJSON(w, http.StatusOK, names)
}

// handleCorpusByName exports, replaces or deletes one stored corpus.
func (c *CorpusAPI) handleCorpusByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/corpora/")
	if name == "" || strings.Contains(name, "/") {
		respondWithError(w, http.StatusBadRequest, "Corpus name not specified")
		return
	}

	switch r.Method {
	case http.MethodGet:
		entries, err := c.store.Entries(r.Context(), name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondWithError(w, http.StatusNotFound, "Corpus not found")
				return
			}
			c.logger.Error("Failed to read corpus", "name", name, "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.json\"", name))
		respondWithJSON(w, http.StatusOK, entries)

	case http.MethodPut:
		var entries []string
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCorpusUploadBytes)).Decode(&entries); err != nil {
			respondWithError(w, http.StatusBadRequest, "Request body must be a JSON array of strings")
			return
		}
		if err := c.store.Import(r.Context(), name, entries); err != nil {
			c.logger.Error("Failed to import corpus", "name", name, "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Import failed: %v", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := c.store.Remove(r.Context(), name); err != nil {
			c.logger.Error("Failed to remove corpus", "name", name, "error", err)
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to remove corpus: %v", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
