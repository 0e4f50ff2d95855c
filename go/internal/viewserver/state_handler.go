// Package viewserver exposes the session view and intent entry points over
// local HTTP for the rendering and gesture layers.
package viewserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/partyroom/go/internal/intent"
	"github.com/mcdev12/partyroom/go/internal/session"
)

// maxBodyBytes bounds request bodies; intents are small.
const maxBodyBytes = 64 << 10

// Backend is the session as the view server uses it. Every method must be
// safe from any goroutine.
type Backend interface {
	ViewState(ctx context.Context) (session.View, error)
	Dispatch(ctx context.Context, action intent.Action, data json.RawMessage) error
	MoveAnswer(ctx context.Context, itemID, targetGroupID string) error
	Join(ctx context.Context, name string) error
	UpdateLocal(ctx context.Context, u session.LocalUpdate) error
	SubmitAnswer(ctx context.Context) error
	SubmitVote(ctx context.Context) error
}

// StateHandler handles HTTP requests for the session view and intents
type StateHandler struct {
	backend Backend
}

// NewStateHandler creates a new state handler
func NewStateHandler(backend Backend) *StateHandler {
	return &StateHandler{backend: backend}
}

// RegisterRoutes registers view and intent routes
func (h *StateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /state", h.HandleGetState)
	mux.HandleFunc("POST /intent", h.HandleIntent)
	mux.HandleFunc("POST /grouping/move", h.HandleMoveAnswer)
	mux.HandleFunc("POST /join", h.HandleJoin)
	mux.HandleFunc("POST /local", h.HandleUpdateLocal)
	mux.HandleFunc("POST /submit/answer", h.HandleSubmitAnswer)
	mux.HandleFunc("POST /submit/vote", h.HandleSubmitVote)
}

// HandleGetState handles GET /state
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	view, err := h.backend.ViewState(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read session view")
		http.Error(w, "Session unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type intentRequest struct {
	Type intent.Action   `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleIntent handles POST /intent with the outbound envelope shape.
func (h *StateHandler) HandleIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Type == "" {
		http.Error(w, "Intent type is required", http.StatusBadRequest)
		return
	}
	if len(req.Data) > 0 && string(req.Data) != "null" && req.Data[0] != '{' {
		http.Error(w, "Intent data must be an object", http.StatusBadRequest)
		return
	}
	h.respond(w, h.backend.Dispatch(r.Context(), req.Type, req.Data))
}

type moveRequest struct {
	ItemID        string `json:"item_id"`
	TargetGroupID string `json:"target_group_id"`
}

// HandleMoveAnswer handles POST /grouping/move. An empty target ungroups.
func (h *StateHandler) HandleMoveAnswer(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}
	h.respond(w, h.backend.MoveAnswer(r.Context(), req.ItemID, req.TargetGroupID))
}

type joinRequest struct {
	Name string `json:"name"`
}

// HandleJoin handles POST /join
func (h *StateHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	h.respond(w, h.backend.Join(r.Context(), req.Name))
}

// HandleUpdateLocal handles POST /local
func (h *StateHandler) HandleUpdateLocal(w http.ResponseWriter, r *http.Request) {
	var req session.LocalUpdate
	if !decode(w, r, &req) {
		return
	}
	if err := h.backend.UpdateLocal(r.Context(), req); err != nil {
		h.respond(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StateHandler) HandleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.backend.SubmitAnswer(r.Context()))
}

func (h *StateHandler) HandleSubmitVote(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.backend.SubmitVote(r.Context()))
}

// respond maps intent outcomes to status codes. Intents are fire-and-forget,
// so success is 202.
func (h *StateHandler) respond(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]bool{"sent": true})
	case errors.Is(err, session.ErrUnknownAction), errors.Is(err, session.ErrNothingToSubmit):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrNotSent):
		http.Error(w, "Channel not open", http.StatusConflict)
	default:
		log.Error().Err(err).Msg("failed to run intent")
		http.Error(w, "Session unavailable", http.StatusServiceUnavailable)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
