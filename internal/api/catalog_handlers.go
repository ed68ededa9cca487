package api

import (
	"encoding/json"
	"net/http"

	"parkslot/internal/auth"
	"parkslot/internal/service"
)

type CatalogHandler struct {
	Service service.CatalogService
}

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{Service: svc}
}

// GetParking returns the parking location with its slots.
func (h *CatalogHandler) GetParking(w http.ResponseWriter, r *http.Request) {
	loc, err := h.Service.Location(r.Context())
	if err != nil {
		http.Error(w, "Could not load parking location", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loc)
}

type IdentityHandler struct {
	Service service.IdentityService
}

func NewIdentityHandler(svc service.IdentityService) *IdentityHandler {
	return &IdentityHandler{Service: svc}
}

// ListVehicles returns the authenticated user's registered vehicles.
func (h *IdentityHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.CurrentUser(r.Context(), auth.UserID(r))
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(VehiclesResponse{Vehicles: user.Vehicles})
}
