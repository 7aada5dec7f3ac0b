package api

import (
	"database/sql"
	"net/http"

	"streamstock/internal/stock"
	"streamstock/internal/store"
)

// StatsHandler serves the stock summary: remaining units per service and
// out-of-stock alerts.
type StatsHandler struct {
	DB *sql.DB
}

type statsResponse struct {
	Total      int                  `json:"total"`
	Services   []stock.ServiceCount `json:"services"`
	OutOfStock []string             `json:"out_of_stock"`
}

// Get handles GET /api/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	items, err := store.ListItems(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	services, err := store.GetServices(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get service catalog")
		return
	}

	availability := stock.Availability(items, services)
	if availability == nil {
		availability = []stock.ServiceCount{}
	}
	outOfStock := stock.OutOfStock(items, services)
	if outOfStock == nil {
		outOfStock = []string{}
	}

	total := 0
	for _, sc := range availability {
		total += sc.Available
	}

	jsonResponse(w, http.StatusOK, statsResponse{
		Total:      total,
		Services:   availability,
		OutOfStock: outOfStock,
	})
}
