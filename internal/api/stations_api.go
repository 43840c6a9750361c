package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"loungepos/internal/engine"
	"loungepos/internal/metrics"
	"loungepos/internal/models"
	"loungepos/internal/team"
)

// StationResponse is one station in the listing.
type StationResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Rate      int64  `json:"rate"`
	TeamID    string `json:"team_id,omitempty"`
	TeamColor string `json:"team_color,omitempty"`
	Occupied  bool   `json:"occupied"`
}

// handleStations returns the station list.
// GET /api/v1/stations
func (s *HTTPServer) handleStations(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("stations")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var stations []models.Station
	if s.cache != nil {
		if cached, ok := s.cache.Get(r.Context()); ok {
			stations = cached
		}
	}
	if stations == nil {
		stations = s.engine.Stations()
		if s.cache != nil {
			s.cache.Set(r.Context(), stations)
		}
	}

	out := make([]StationResponse, 0, len(stations))
	for _, st := range stations {
		out = append(out, StationResponse{
			ID:        st.ID,
			Name:      st.Name,
			Kind:      st.Kind,
			Rate:      st.HourlyRate,
			TeamID:    st.TeamID,
			TeamColor: st.TeamColor,
			Occupied:  st.Occupied,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"stations": out})
}

// handleHiddenStations returns station ids a chooser must suppress for the
// current selection.
// GET /api/v1/stations/hidden?selected=a,b
func (s *HTTPServer) handleHiddenStations(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("hidden_stations")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	selected := splitIDs(r.URL.Query().Get("selected"))
	hidden := s.engine.HiddenStations(selected)
	if hidden == nil {
		hidden = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"hidden": hidden})
}

// handleQuote returns the live per-unit rate for a station given the current
// selection.
// GET /api/v1/quote?station_id=...&selected=a,b
func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("quote")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stationID := r.URL.Query().Get("station_id")
	if stationID == "" {
		writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}

	// Selection size may come directly, or be derived from the selected ids.
	size := 1
	if raw := r.URL.Query().Get("selection_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid selection_size")
			return
		}
		size = n
	} else if selected := splitIDs(r.URL.Query().Get("selected")); len(selected) > 0 {
		all := s.engine.Stations()
		for _, st := range all {
			if st.ID == stationID {
				size = team.SelectedTeamSize(st, selected, all)
				break
			}
		}
	}

	rate, err := s.engine.QuoteRate(stationID, size)
	if err != nil {
		if errors.Is(err, engine.ErrStationNotFound) {
			writeError(w, http.StatusNotFound, "station not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"station_id": stationID, "rate": rate})
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
