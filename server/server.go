package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"finn-scraper/models"
	"finn-scraper/services"
	"finn-scraper/utils"
)

// Server exposes the finished listing table as JSON for downstream
// consumers (map/filter frontends). It serves the snapshot built by the
// pipeline run; there is no mutation surface.
type Server struct {
	table         *models.Table
	bufferDegrees float64
	logger        *utils.Logger
}

// New creates a Server over the given table. bufferDegrees is the
// default proximity buffer for /listings/near.
func New(table *models.Table, bufferDegrees float64, logger *utils.Logger) *Server {
	return &Server{table: table, bufferDegrees: bufferDegrees, logger: logger}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/listings", s.handleListings).Methods("GET")
	r.HandleFunc("/listings/near", s.handleNear).Methods("GET")
	return r
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("[server] Listening on %s", addr)
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	s.writeTable(w, s.table)
}

// handleNear narrows the table to rows within the proximity buffer of
// the given point. lat and lon are required; buffer (meters) overrides
// the configured default.
func (s *Server) handleNear(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lon query parameters are required", http.StatusBadRequest)
		return
	}

	buffer := s.bufferDegrees
	if raw := r.URL.Query().Get("buffer"); raw != "" {
		meters, err := strconv.ParseFloat(raw, 64)
		if err != nil || meters <= 0 {
			http.Error(w, "buffer must be a positive number of meters", http.StatusBadRequest)
			return
		}
		buffer = services.BufferDegrees(meters)
	}

	s.writeTable(w, services.SelectNear(s.table, lat, lon, buffer))
}

func (s *Server) writeTable(w http.ResponseWriter, table *models.Table) {
	w.Header().Set("Content-Type", "application/json")

	payload := struct {
		Count   int          `json:"count"`
		Columns []string     `json:"columns"`
		Rows    []models.Row `json:"rows"`
	}{
		Count:   table.Len(),
		Columns: table.Columns,
		Rows:    table.Rows,
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("[server] Encode response: %v", err)
	}
}
