package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"streamstock/internal/model"
	"streamstock/internal/stock"
	"streamstock/internal/store"
)

// WithdrawHandler handles the withdrawal workflow endpoints.
type WithdrawHandler struct {
	DB *sql.DB
}

type generateRequest struct {
	Service string `json:"service"`
	Support bool   `json:"support"`

	// ItemID optionally names a specific account instead of the
	// oldest available one.
	ItemID string `json:"item_id,omitempty"`
}

type generateResponse struct {
	ItemID  string `json:"item_id"`
	Version int64  `json:"version"`
	Message string `json:"message"`
}

type commitRequest struct {
	ItemID  string `json:"item_id"`
	Version int64  `json:"version"`
	Message string `json:"message"`
}

// Options handles GET /api/withdraw/options: the services that currently
// have at least one available item.
func (h *WithdrawHandler) Options(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	items, err := store.ListItems(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	services := stock.OfferableServices(items)
	if services == nil {
		services = []string{}
	}
	jsonResponse(w, http.StatusOK, servicesResponse{Names: services})
}

// Generate handles POST /api/withdraw/generate. Resolves the candidate
// and formats the delivery message without touching stock, so the client
// can freely discard and regenerate.
func (h *WithdrawHandler) Generate(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Service == "" {
		jsonError(w, http.StatusBadRequest, "service required")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	candidate := stock.SelectCandidate(items, req.Service)
	if req.ItemID != "" {
		candidate = nil
		for i := range items {
			if items[i].ID == req.ItemID && items[i].Service == req.Service &&
				items[i].Status == model.StatusAvailable {
				candidate = &items[i]
				break
			}
		}
	}
	if candidate == nil {
		jsonError(w, http.StatusConflict, stock.ErrOutOfStock.Error())
		return
	}

	jsonResponse(w, http.StatusOK, generateResponse{
		ItemID:  candidate.ID,
		Version: candidate.Version,
		Message: stock.DeliveryMessage(candidate, req.Support),
	})
}

// Commit handles POST /api/withdraw/commit. Called only after the client
// has successfully copied the message; a failed copy means this request
// never arrives and stock stays untouched.
func (h *WithdrawHandler) Commit(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req commitRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID == "" || req.Message == "" {
		jsonError(w, http.StatusBadRequest, "item_id and message required")
		return
	}

	entry, err := stock.Withdraw(r.Context(), h.DB, claims.UserID, req.ItemID, req.Version, req.Message)
	if err != nil {
		if errors.Is(err, stock.ErrStockChanged) {
			jsonError(w, http.StatusConflict, err.Error())
			return
		}
		slog.Error("withdrawal commit failed", "user", claims.Username, "item", req.ItemID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to commit withdrawal")
		return
	}

	slog.Info("stock withdrawn", "user", claims.Username, "service", entry.Service, "item", entry.ItemID)
	jsonResponse(w, http.StatusCreated, entry)
}
