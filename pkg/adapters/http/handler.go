// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"

	"github.com/mohamed-ali0/remmie/pkg/core/history"
	"github.com/mohamed-ali0/remmie/pkg/core/orchestrator"
	"github.com/mohamed-ali0/remmie/pkg/core/state"
	"github.com/mohamed-ali0/remmie/pkg/observability/logging"
)

// Handler implements the HTTP adapter
type Handler struct {
	orchestrator *orchestrator.Orchestrator
	store        state.ConversationStore
	logger       *logging.Logger
	mux          *http.ServeMux
}

// ChatRequest is one incoming turn from a chat frontend or webhook.
type ChatRequest struct {
	UserID  string           `json:"user_id"`
	Message string           `json:"message"`
	History []history.Record `json:"history,omitempty"`
}

// ChatResponse carries the assistant's reply text.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// FlightSearchRecord is one saved search in API form.
type FlightSearchRecord struct {
	ID        string          `json:"id"`
	Params    json.RawMessage `json:"params"`
	CreatedAt int64           `json:"created_at"`
}

// New creates a new HTTP handler
func New(orch *orchestrator.Orchestrator, store state.ConversationStore, logger *logging.Logger) *Handler {
	h := &Handler{
		orchestrator: orch,
		store:        store,
		logger:       logger,
		mux:          http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("POST /v1/chat", h.handleChat)
	h.mux.HandleFunc("GET /v1/users/{id}/searches", h.handleListSearches)

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat runs one conversational turn. The orchestrator never fails
// past its boundary, so this endpoint always answers 200 with reply text.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to parse chat request", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.UserID == "" || req.Message == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "user_id and message are required")
		return
	}

	reply := h.orchestrator.Handle(r.Context(), req.UserID, req.Message, req.History)
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

func (h *Handler) handleListSearches(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "User ID is required")
		return
	}

	searches, err := h.store.ListFlightSearches(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list flight searches", "user_id", userID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "list_error", err.Error())
		return
	}

	records := make([]FlightSearchRecord, 0, len(searches))
	for _, s := range searches {
		records = append(records, FlightSearchRecord{
			ID:        s.ID,
			Params:    s.Params,
			CreatedAt: s.CreatedAt.Unix(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": records})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
