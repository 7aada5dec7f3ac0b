package api

import (
	"database/sql"
	"net/http"

	"streamstock/internal/store"
)

// ServicesHandler handles service catalog endpoints.
type ServicesHandler struct {
	DB *sql.DB
}

type servicesResponse struct {
	Names []string `json:"names"`
}

type replaceServicesRequest struct {
	Names []string `json:"names"`
}

type addServiceRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/services.
func (h *ServicesHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	services, err := store.GetServices(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get service catalog")
		return
	}
	jsonResponse(w, http.StatusOK, servicesResponse{Names: services})
}

// Replace handles PUT /api/services.
func (h *ServicesHandler) Replace(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req replaceServicesRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Names == nil {
		req.Names = []string{}
	}

	if err := store.SetServices(r.Context(), h.DB, claims.UserID, req.Names); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update service catalog")
		return
	}
	jsonResponse(w, http.StatusOK, servicesResponse{Names: req.Names})
}

// Add handles POST /api/services.
func (h *ServicesHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req addServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	services, err := store.AddService(r.Context(), h.DB, claims.UserID, req.Name)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to add service")
		return
	}
	jsonResponse(w, http.StatusOK, servicesResponse{Names: services})
}

// Remove handles DELETE /api/services/{name}. Items keep their service
// string even when the catalog entry disappears.
func (h *ServicesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	name := r.PathValue("name")
	if name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	services, err := store.RemoveService(r.Context(), h.DB, claims.UserID, name)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to remove service")
		return
	}
	jsonResponse(w, http.StatusOK, servicesResponse{Names: services})
}
