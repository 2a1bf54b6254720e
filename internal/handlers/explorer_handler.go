package handlers

import (
	"context"
	"errors"
	"net/http"

	"repertoire/internal/explorer"
	"repertoire/internal/validation"
)

// ExplorerHandler proxies opening-explorer statistics lookups
type ExplorerHandler struct {
	client *explorer.Client
}

// NewExplorerHandler creates a new explorer handler
func NewExplorerHandler(client *explorer.Client) *ExplorerHandler {
	return &ExplorerHandler{client: client}
}

// Position fetches aggregate statistics for a FEN. A request superseded
// by a newer position answers 204 so the client simply shows nothing.
func (h *ExplorerHandler) Position(w http.ResponseWriter, r *http.Request) {
	fen := r.URL.Query().Get("fen")
	if err := validation.ValidateFEN(fen); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	stats, err := h.client.Fetch(r.Context(), fen)
	if err != nil {
		if errors.Is(err, explorer.ErrSuperseded) || errors.Is(err, context.Canceled) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		respondWithError(w, http.StatusBadGateway, "Explorer lookup failed", "Explorer lookup failed", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
