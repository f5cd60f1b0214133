package web

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/vbonduro/glassinv/internal/domain"
)

type quantityRequest struct {
	Location string          `json:"location"`
	Quantity decimal.Decimal `json:"quantity"`
}

type moveRequest struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Quantity decimal.Decimal `json:"quantity"`
}

type replaceRequest struct {
	Locations []quantityRequest `json:"locations"`
}

func (s *Server) handleLocationNames(w http.ResponseWriter, r *http.Request) {
	names, err := s.inventory.LocationNames(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"locations": names})
}

func (s *Server) handleInventoriesInLocation(w http.ResponseWriter, r *http.Request) {
	held, err := s.inventory.InventoriesInLocation(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]inventoryView, 0, len(held))
	for _, inv := range held {
		out = append(out, toInventoryView(inv))
	}
	s.writeJSON(w, http.StatusOK, map[string][]inventoryView{"inventories": out})
}

func (s *Server) handleFetchLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := s.inventory.Locations(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]locationView{"locations": toLocationViews(locs)})
}

func (s *Server) handleReplaceLocations(w http.ResponseWriter, r *http.Request) {
	var req replaceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	locations := make([]domain.Location, 0, len(req.Locations))
	for _, l := range req.Locations {
		locations = append(locations, domain.Location{Location: l.Location, Quantity: l.Quantity})
	}
	locs, err := s.inventory.ReplaceLocations(r.Context(), r.PathValue("id"), locations)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]locationView{"locations": toLocationViews(locs)})
}

func (s *Server) handleAddQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	loc, err := s.inventory.AddToLocation(r.Context(), r.PathValue("id"), req.Location, req.Quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toLocationViews([]*domain.Location{loc})[0])
}

// handleSubtractQuantity responds 204 when the location has been emptied.
func (s *Server) handleSubtractQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	loc, err := s.inventory.RemoveFromLocation(r.Context(), r.PathValue("id"), req.Location, req.Quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if loc == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, toLocationViews([]*domain.Location{loc})[0])
}

func (s *Server) handleMoveQuantity(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	id := r.PathValue("id")
	if err := s.inventory.MoveBetweenLocations(r.Context(), id, req.From, req.To, req.Quantity); err != nil {
		s.writeError(w, r, err)
		return
	}
	locs, err := s.inventory.Locations(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]locationView{"locations": toLocationViews(locs)})
}
