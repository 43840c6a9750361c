// Package api exposes the engine over HTTP for the booking front end.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"loungepos/internal/engine"
	"loungepos/internal/models"
)

// Engine is the caller-facing contract the HTTP layer depends on.
type Engine interface {
	StartSession(ctx context.Context, stationID, customerID string, quotedRate *int64, couponCode string) (*models.Session, error)
	EndSession(ctx context.Context, stationID string) (*engine.EndResult, error)
	QuoteRate(stationID string, selectedTeamSize int) (int64, error)
	HiddenStations(selectedIDs []string) []string
	Stations() []models.Station
}

// StationCache serves cached station listings.
type StationCache interface {
	Get(ctx context.Context) ([]models.Station, bool)
	Set(ctx context.Context, stations []models.Station)
}

// DailyReporter renders the daily billing report.
type DailyReporter interface {
	Write(ctx context.Context, day time.Time, out io.Writer) error
}

// HTTPServer serves the lounge API.
type HTTPServer struct {
	engine  Engine
	cache   StationCache
	reports DailyReporter
	apiKey  string
	limiter *rate.Limiter
	log     *zerolog.Logger
	srv     *http.Server
}

// Config holds HTTP server settings.
type Config struct {
	Port      int
	APIKey    string
	RateLimit float64
	RateBurst int
}

// NewHTTPServer wires routes and middleware.
func NewHTTPServer(cfg Config, eng Engine, cache StationCache, reports DailyReporter, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		engine:  eng,
		cache:   cache,
		reports: reports,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		log:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sessions/start", s.auth(s.limited(s.handleStartSession)))
	mux.HandleFunc("/api/v1/sessions/end", s.auth(s.limited(s.handleEndSession)))
	mux.HandleFunc("/api/v1/stations", s.auth(s.handleStations))
	mux.HandleFunc("/api/v1/stations/hidden", s.auth(s.handleHiddenStations))
	mux.HandleFunc("/api/v1/quote", s.auth(s.handleQuote))
	mux.HandleFunc("/api/v1/reports/daily", s.auth(s.handleDailyReport))

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start runs the server until the context is cancelled.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(ctxShutdown)
	}()

	s.log.Info().Str("addr", s.srv.Addr).Msg("API server started")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Handler exposes the routed handler for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.srv.Handler
}

// auth requires the X-API-Key header when an API key is configured.
func (s *HTTPServer) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next(w, r)
	}
}

// limited applies the shared rate limit to mutating endpoints.
func (s *HTTPServer) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
