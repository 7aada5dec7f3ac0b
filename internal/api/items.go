package api

import (
	"database/sql"
	"net/http"

	"streamstock/internal/model"
	"streamstock/internal/stock"
	"streamstock/internal/store"
)

// ItemsHandler handles inventory CRUD endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	Service     string `json:"service"`
	Account     string `json:"account"`
	Credentials string `json:"credentials"`
	Notes       string `json:"notes"`
	Profiles    *int   `json:"profiles"`
}

type updateItemRequest struct {
	Service     string `json:"service"`
	Account     string `json:"account"`
	Credentials string `json:"credentials"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
	Profiles    *int   `json:"profiles"`
}

func validStatus(status string) bool {
	return status == model.StatusAvailable || status == model.StatusUsed
}

// List handles GET /api/items. Supports q (search) and status
// (all|available|used) query parameters.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	status := r.URL.Query().Get("status")
	if status != "" && status != stock.FilterAll && !validStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	items = stock.Filter(items, r.URL.Query().Get("q"), status)
	if items == nil {
		items = []model.InventoryItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Service == "" || req.Account == "" || req.Credentials == "" {
		jsonError(w, http.StatusBadRequest, "service, account and credentials required")
		return
	}
	if req.Profiles != nil && *req.Profiles <= 0 {
		jsonError(w, http.StatusBadRequest, "profiles must be positive")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID,
		req.Service, req.Account, req.Credentials, req.Notes, req.Profiles)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	item, err := store.GetItem(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Service == "" || req.Account == "" || req.Credentials == "" {
		jsonError(w, http.StatusBadRequest, "service, account and credentials required")
		return
	}
	if req.Status == "" {
		req.Status = model.StatusAvailable
	}
	if !validStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.Profiles != nil && *req.Profiles <= 0 {
		jsonError(w, http.StatusBadRequest, "profiles must be positive")
		return
	}

	existing, err := store.GetItem(r.Context(), h.DB, claims.UserID, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, claims.UserID, id,
		req.Service, req.Account, req.Credentials, req.Status, req.Notes, req.Profiles); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, claims.UserID, id)
	jsonResponse(w, http.StatusOK, item)
}

// ToggleStatus handles POST /api/items/{id}/toggle.
func (h *ItemsHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	item, err := store.GetItem(r.Context(), h.DB, claims.UserID, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	status := model.StatusUsed
	if item.Status == model.StatusUsed {
		status = model.StatusAvailable
	}
	if err := store.SetItemStatus(r.Context(), h.DB, claims.UserID, id, status); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to toggle item status")
		return
	}

	item, _ = store.GetItem(r.Context(), h.DB, claims.UserID, id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	if err := store.DeleteItem(r.Context(), h.DB, claims.UserID, r.PathValue("id")); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	jsonMessage(w, http.StatusOK, "item deleted")
}

// Clear handles DELETE /api/items.
func (h *ItemsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	if err := store.ClearItems(r.Context(), h.DB, claims.UserID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to clear items")
		return
	}

	jsonMessage(w, http.StatusOK, "inventory cleared")
}
