package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"loungepos/internal/engine"
	"loungepos/internal/metrics"
	"loungepos/internal/models"
)

// StartSessionRequest is the request body for POST /api/v1/sessions/start.
type StartSessionRequest struct {
	StationID  string `json:"station_id"`
	CustomerID string `json:"customer_id"`
	QuotedRate *int64 `json:"quoted_rate,omitempty"`
	CouponCode string `json:"coupon_code,omitempty"`
}

// EndSessionRequest is the request body for POST /api/v1/sessions/end.
type EndSessionRequest struct {
	StationID string `json:"station_id"`
}

// StartSessionResponse wraps the created session.
type StartSessionResponse struct {
	Session *models.Session `json:"session"`
}

// handleStartSession opens a session on an available station.
// POST /api/v1/sessions/start
func (s *HTTPServer) handleStartSession(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("start_session")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req StartSessionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.StationID == "" {
		writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	session, err := s.engine.StartSession(r.Context(), req.StationID, req.CustomerID, req.QuotedRate, req.CouponCode)
	if err != nil {
		s.writeEngineError(w, err, req.StationID)
		return
	}

	writeJSON(w, http.StatusCreated, StartSessionResponse{Session: session})
}

// handleEndSession closes the active session on a station.
// POST /api/v1/sessions/end
func (s *HTTPServer) handleEndSession(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("end_session")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req EndSessionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.StationID == "" {
		writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}

	result, err := s.engine.EndSession(r.Context(), req.StationID)
	if err != nil {
		s.writeEngineError(w, err, req.StationID)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeEngineError maps typed engine errors onto status codes.
func (s *HTTPServer) writeEngineError(w http.ResponseWriter, err error, stationID string) {
	switch {
	case errors.Is(err, engine.ErrStationNotFound):
		writeError(w, http.StatusNotFound, "station not found")
	case errors.Is(err, engine.ErrStationOccupied):
		writeError(w, http.StatusConflict, "station already occupied")
	case errors.Is(err, engine.ErrNoActiveSession):
		writeError(w, http.StatusConflict, "no active session on station")
	case errors.Is(err, engine.ErrPersistence):
		s.log.Error().Err(err).Str("station_id", stationID).Msg("durable write failed")
		writeError(w, http.StatusBadGateway, "store write failed; please retry")
	default:
		s.log.Error().Err(err).Str("station_id", stationID).Msg("session operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
