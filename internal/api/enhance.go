package api

import (
	"errors"
	"log/slog"
	"net/http"

	"streamstock/internal/enhance"
)

// EnhanceHandler proxies note enhancement to the language-model client.
type EnhanceHandler struct {
	Client *enhance.Client
}

type enhanceRequest struct {
	ExistingNotes   string `json:"existing_notes"`
	ItemDescription string `json:"item_description"`
}

// Enhance handles POST /api/enhance.
func (h *EnhanceHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemDescription == "" {
		jsonError(w, http.StatusBadRequest, "item_description required")
		return
	}

	result, err := h.Client.Enhance(r.Context(), req.ExistingNotes, req.ItemDescription)
	if err != nil {
		if errors.Is(err, enhance.ErrNotConfigured) {
			jsonError(w, http.StatusServiceUnavailable, "note enhancement is not configured")
			return
		}
		slog.Error("note enhancement failed", "error", err)
		jsonError(w, http.StatusBadGateway, "failed to enhance notes")
		return
	}

	jsonResponse(w, http.StatusOK, result)
}
