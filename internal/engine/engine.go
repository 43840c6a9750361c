// Package engine owns station occupancy and the session lifecycle. All
// mutations of station state go through StartSession/EndSession, which
// serialize per station and follow a durable-write-then-local-commit
// discipline against the external store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"loungepos/internal/metrics"
	"loungepos/internal/models"
	"loungepos/internal/pricing"
	"loungepos/internal/team"
)

var (
	ErrStationNotFound = errors.New("station not found")
	ErrStationOccupied = errors.New("station already occupied")
	ErrNoActiveSession = errors.New("no active session")
	ErrPersistence     = errors.New("persistence failure")
)

// Event types published on session transitions.
const (
	EventSessionStarted = "session.started"
	EventSessionClosed  = "session.closed"
)

// StationStore reads station records and writes occupancy flags.
// UpsertStationOccupancy must be idempotent by station id.
type StationStore interface {
	ListStations(ctx context.Context) ([]models.Station, error)
	UpsertStationOccupancy(ctx context.Context, id string, occupied bool) error
}

// SessionStore durably writes session records and billing line items.
// UpsertSession must be idempotent by session id so a retried write never
// creates a duplicate record. ListActiveSessions feeds startup recovery.
type SessionStore interface {
	UpsertSession(ctx context.Context, session *models.Session) error
	InsertLineItem(ctx context.Context, item *models.LineItem) error
	ListActiveSessions(ctx context.Context) ([]models.Session, error)
}

// CustomerStore resolves customers and tracks their accumulated play time.
type CustomerStore interface {
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	IncrementPlayTime(ctx context.Context, id string, minutes int) error
}

// EventPublisher receives session lifecycle events.
type EventPublisher interface {
	Publish(eventType string, payload interface{})
}

// EndResult is everything a caller needs after a session closes: the final
// session record, the billable line item, and the customer with the updated
// play-time counter. Warnings carry best-effort persistence failures the
// caller may retry independently.
type EndResult struct {
	Session  *models.Session  `json:"session"`
	LineItem *models.LineItem `json:"line_item"`
	Customer *models.Customer `json:"customer,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

// SessionStartedEvent is the payload of EventSessionStarted.
type SessionStartedEvent struct {
	Session models.Session `json:"session"`
	Station string         `json:"station"`
	Kind    string         `json:"kind"`
}

// SessionClosedEvent is the payload of EventSessionClosed.
type SessionClosedEvent struct {
	Session  models.Session  `json:"session"`
	LineItem models.LineItem `json:"line_item"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Engine is the session state machine. Station state lives in memory, seeded
// from the store at construction; per-station mutexes serialize start/end for
// a given station while independent stations proceed in parallel.
type Engine struct {
	stationStore  StationStore
	sessionStore  SessionStore
	customerStore CustomerStore
	bus           EventPublisher
	writeTimeout  time.Duration
	logger        *zerolog.Logger

	mu       sync.RWMutex
	stations map[string]*models.Station
	locks    map[string]*sync.Mutex

	now func() time.Time
}

// New builds an engine and seeds its station map from the store.
func New(ctx context.Context, stations StationStore, sessions SessionStore, customers CustomerStore, bus EventPublisher, writeTimeout time.Duration, logger *zerolog.Logger) (*Engine, error) {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	e := &Engine{
		stationStore:  stations,
		sessionStore:  sessions,
		customerStore: customers,
		bus:           bus,
		writeTimeout:  writeTimeout,
		logger:        logger,
		stations:      make(map[string]*models.Station),
		locks:         make(map[string]*sync.Mutex),
		now:           time.Now,
	}

	list, err := stations.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	for i := range list {
		st := list[i]
		e.stations[st.ID] = &st
		e.locks[st.ID] = &sync.Mutex{}
	}

	if err := e.recoverSessions(ctx); err != nil {
		return nil, err
	}

	logger.Info().Int("stations", len(list)).Msg("engine loaded")
	return e, nil
}

// recoverSessions reattaches sessions that were active when the previous
// process stopped, and resets occupancy flags that survived a crash between
// the occupancy write and the session write. Without this a station marked
// occupied in the store but carrying no session could never be started or
// ended again.
func (e *Engine) recoverSessions(ctx context.Context) error {
	active, err := e.sessionStore.ListActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("load active sessions: %w", err)
	}

	byStation := make(map[string]*models.Session, len(active))
	for i := range active {
		s := active[i]
		byStation[s.StationID] = &s
	}

	for _, st := range e.stations {
		if session, ok := byStation[st.ID]; ok {
			st.CurrentSession = session
			st.Occupied = true
			e.logger.Info().
				Str("station_id", st.ID).
				Str("session_id", session.ID).
				Msg("recovered active session")
			continue
		}
		if st.Occupied {
			st.Occupied = false
			if err := e.stationStore.UpsertStationOccupancy(ctx, st.ID, false); err != nil {
				metrics.IncPersistenceFailure("clear_occupancy")
				e.logger.Warn().Err(err).Str("station_id", st.ID).Msg("failed to clear orphaned occupancy in store")
			}
			e.logger.Warn().Str("station_id", st.ID).Msg("cleared orphaned occupancy flag")
		}
	}
	return nil
}

// StartSession opens a session on an available station. The session record
// and the occupancy flag are durably written before the in-memory transition
// commits; if either write fails the station remains available and the error
// wraps ErrPersistence.
func (e *Engine) StartSession(ctx context.Context, stationID, customerID string, quotedRate *int64, couponCode string) (*models.Session, error) {
	st, lock := e.station(stationID)
	if st == nil {
		return nil, fmt.Errorf("station %s: %w", stationID, ErrStationNotFound)
	}

	lock.Lock()
	defer lock.Unlock()

	if st.Occupied {
		return nil, fmt.Errorf("station %s: %w", stationID, ErrStationOccupied)
	}

	original := st.HourlyRate
	applied := original
	if quotedRate != nil && *quotedRate > 0 {
		applied = *quotedRate
	}
	discount := original - applied
	if discount < 0 {
		discount = 0
	}

	session := &models.Session{
		ID:             uuid.NewString(),
		StationID:      st.ID,
		CustomerID:     customerID,
		Status:         models.SessionActive,
		StartTime:      e.now(),
		AppliedRate:    applied,
		OriginalRate:   original,
		CouponCode:     couponCode,
		DiscountAmount: discount,
	}

	wctx, cancel := context.WithTimeout(ctx, e.writeTimeout)
	defer cancel()

	if err := e.sessionStore.UpsertSession(wctx, session); err != nil {
		metrics.IncPersistenceFailure("upsert_session")
		return nil, fmt.Errorf("start session on %s: %w: %w", stationID, ErrPersistence, err)
	}
	if err := e.stationStore.UpsertStationOccupancy(wctx, st.ID, true); err != nil {
		metrics.IncPersistenceFailure("upsert_occupancy")
		return nil, fmt.Errorf("start session on %s: %w: %w", stationID, ErrPersistence, err)
	}

	// Field writes happen under e.mu as well so snapshot readers never
	// observe a torn transition.
	e.mu.Lock()
	st.Occupied = true
	st.CurrentSession = session
	e.mu.Unlock()

	metrics.IncSessionStarted(st.Kind)
	e.logger.Info().
		Str("station_id", st.ID).
		Str("session_id", session.ID).
		Str("customer_id", customerID).
		Int64("applied_rate", applied).
		Msg("session started")

	if e.bus != nil {
		e.bus.Publish(EventSessionStarted, SessionStartedEvent{Session: *session, Station: st.Name, Kind: st.Kind})
	}

	out := *session
	return &out, nil
}

// EndSession closes the active session on a station, computes the amount
// owed and returns the line item. The session-close write is primary: if it
// fails the local state is untouched and the error wraps ErrPersistence.
// The occupancy-clear, line-item and play-time writes are best-effort;
// their failures come back as warnings because a finished physical session
// cannot be meaningfully reverted.
func (e *Engine) EndSession(ctx context.Context, stationID string) (*EndResult, error) {
	st, lock := e.station(stationID)
	if st == nil {
		return nil, fmt.Errorf("station %s: %w", stationID, ErrStationNotFound)
	}

	lock.Lock()
	defer lock.Unlock()

	if !st.Occupied || st.CurrentSession == nil {
		return nil, fmt.Errorf("station %s: %w", stationID, ErrNoActiveSession)
	}

	now := e.now()
	active := st.CurrentSession
	elapsed := now.Sub(active.StartTime)
	duration := int(math.Ceil(elapsed.Minutes()))
	if duration < 0 {
		duration = 0
	}

	var warnings []string
	customer, err := e.customerStore.GetCustomer(ctx, active.CustomerID)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("customer lookup failed: %v", err))
		e.logger.Warn().Err(err).Str("customer_id", active.CustomerID).Msg("closing session without customer record")
	}
	member := customer != nil && customer.Member

	cost := pricing.SessionCost(*st, *active, duration, member)

	closed := *active
	closed.Status = models.SessionClosed
	closed.EndTime = &now
	closed.DurationMinutes = duration
	closed.TotalCost = cost

	wctx, cancel := context.WithTimeout(ctx, e.writeTimeout)
	defer cancel()

	if err := e.sessionStore.UpsertSession(wctx, &closed); err != nil {
		metrics.IncPersistenceFailure("close_session")
		return nil, fmt.Errorf("end session on %s: %w: %w", stationID, ErrPersistence, err)
	}

	// The close is durable; from here the session is unambiguously over and
	// local state clears even if the remaining writes fail. Leaving a station
	// marked occupied after the player left would block new bookings.
	e.mu.Lock()
	st.CurrentSession = nil
	st.Occupied = false
	e.mu.Unlock()

	if err := e.stationStore.UpsertStationOccupancy(wctx, st.ID, false); err != nil {
		metrics.IncPersistenceFailure("clear_occupancy")
		warnings = append(warnings, fmt.Sprintf("occupancy clear failed: %v", err))
		e.logger.Warn().Err(err).Str("station_id", st.ID).Msg("failed to clear occupancy in store")
	}

	item := buildLineItem(st, &closed, customer, member)
	if err := e.sessionStore.InsertLineItem(wctx, item); err != nil {
		metrics.IncPersistenceFailure("insert_line_item")
		warnings = append(warnings, fmt.Sprintf("line item write failed: %v", err))
		e.logger.Warn().Err(err).Str("session_id", closed.ID).Msg("failed to persist line item")
	}

	if err := e.customerStore.IncrementPlayTime(wctx, closed.CustomerID, duration); err != nil {
		warnings = append(warnings, fmt.Sprintf("play time update failed: %v", err))
		e.logger.Warn().Err(err).Str("customer_id", closed.CustomerID).Msg("failed to increment play time")
	}
	if customer != nil {
		customer.TotalPlayMinutes += int64(duration)
	}

	metrics.IncSessionClosed(st.Kind)
	metrics.ObserveSessionDuration(st.Kind, duration)
	metrics.AddRevenue(st.Kind, cost)

	e.logger.Info().
		Str("station_id", st.ID).
		Str("session_id", closed.ID).
		Int("duration_minutes", duration).
		Int64("amount", cost).
		Bool("member_discount", member).
		Msg("session closed")

	if e.bus != nil {
		e.bus.Publish(EventSessionClosed, SessionClosedEvent{Session: closed, LineItem: *item, Warnings: warnings})
	}

	return &EndResult{
		Session:  &closed,
		LineItem: item,
		Customer: customer,
		Warnings: warnings,
	}, nil
}

// QuoteRate returns the per-unit rate to show for a station given how many
// units of its team are in the current selection.
func (e *Engine) QuoteRate(stationID string, selectedTeamSize int) (int64, error) {
	e.mu.RLock()
	st, ok := e.stations[stationID]
	e.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("station %s: %w", stationID, ErrStationNotFound)
	}
	return pricing.QuoteRate(*st, selectedTeamSize), nil
}

// HiddenStations returns station ids a chooser must suppress for the given
// selection.
func (e *Engine) HiddenStations(selectedIDs []string) []string {
	return team.HiddenStations(selectedIDs, e.Stations())
}

// Stations returns a snapshot of all stations.
func (e *Engine) Stations() []models.Station {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.Station, 0, len(e.stations))
	for _, st := range e.stations {
		out = append(out, *st)
	}
	return out
}

// Station returns a snapshot of one station, or nil if unknown.
func (e *Engine) Station(id string) *models.Station {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.stations[id]
	if !ok {
		return nil
	}
	out := *st
	return &out
}

func (e *Engine) station(id string) (*models.Station, *sync.Mutex) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.stations[id]
	if !ok {
		return nil, nil
	}
	return st, e.locks[id]
}

func buildLineItem(st *models.Station, session *models.Session, customer *models.Customer, member bool) *models.LineItem {
	customerName := session.CustomerID
	if customer != nil && customer.Name != "" {
		customerName = customer.Name
	}

	parts := []string{fmt.Sprintf("%s / %s", st.Name, customerName)}
	if session.CouponCode != "" {
		parts = append(parts, fmt.Sprintf("coupon %s", session.CouponCode))
	}
	if member {
		parts = append(parts, "member discount")
	}

	return &models.LineItem{
		SessionID:      session.ID,
		StationID:      st.ID,
		StationName:    st.Name,
		CustomerName:   customerName,
		Label:          strings.Join(parts, ", "),
		Units:          pricing.BillableUnits(*st, session.DurationMinutes),
		UnitRate:       session.AppliedRate,
		Amount:         session.TotalCost,
		MemberDiscount: member,
		CouponCode:     session.CouponCode,
		CreatedAt:      *session.EndTime,
	}
}
