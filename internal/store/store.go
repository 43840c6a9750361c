// Package store persists stations, sessions, customers and billing line
// items in SQLite. All session and occupancy writes are upserts keyed by id,
// so retrying a failed write never creates duplicate records.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"

	"loungepos/internal/models"
)

var ErrNotFound = errors.New("not found")

// Store wraps the database connection.
type Store struct {
	*sql.DB
	logger *zerolog.Logger
}

// New opens the database, tunes the connection pool and creates tables if
// they don't exist.
func New(path string, logger *zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode and a busy timeout keep concurrent short writes from failing.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{DB: db, logger: logger}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("store initialized")
	return s, nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS stations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			hourly_rate INTEGER NOT NULL,
			single_rate INTEGER NOT NULL DEFAULT 0,
			team_id TEXT NOT NULL DEFAULT '',
			team_color TEXT NOT NULL DEFAULT '',
			event_station BOOLEAN NOT NULL DEFAULT 0,
			slot_minutes INTEGER NOT NULL DEFAULT 0,
			occupied BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			station_id TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			start_time DATETIME NOT NULL,
			end_time DATETIME,
			duration_minutes INTEGER NOT NULL DEFAULT 0,
			applied_rate INTEGER NOT NULL,
			original_rate INTEGER NOT NULL,
			coupon_code TEXT NOT NULL DEFAULT '',
			discount_amount INTEGER NOT NULL DEFAULT 0,
			total_cost INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(station_id) REFERENCES stations(id)
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			member BOOLEAN NOT NULL DEFAULT 0,
			total_play_minutes INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS line_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			station_id TEXT NOT NULL,
			station_name TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			label TEXT NOT NULL,
			units INTEGER NOT NULL,
			unit_rate INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			member_discount BOOLEAN NOT NULL DEFAULT 0,
			coupon_code TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_station ON sessions(station_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_customer ON sessions(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_line_items_created ON line_items(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_stations_team ON stations(team_id)`,
	}

	for _, query := range queries {
		if _, err := s.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// ListStations returns all stations. The occupancy flag comes from the store;
// active session references are owned by the engine, not the store.
func (s *Store) ListStations(ctx context.Context) ([]models.Station, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, name, kind, hourly_rate, single_rate, team_id, team_color,
		       event_station, slot_minutes, occupied
		FROM stations ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Kind, &st.HourlyRate, &st.SingleRate,
			&st.TeamID, &st.TeamColor, &st.EventStation, &st.SlotMinutes, &st.Occupied); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// GetStation returns one station by id.
func (s *Store) GetStation(ctx context.Context, id string) (*models.Station, error) {
	var st models.Station
	err := s.QueryRowContext(ctx, `
		SELECT id, name, kind, hourly_rate, single_rate, team_id, team_color,
		       event_station, slot_minutes, occupied
		FROM stations WHERE id = ?`, id).
		Scan(&st.ID, &st.Name, &st.Kind, &st.HourlyRate, &st.SingleRate,
			&st.TeamID, &st.TeamColor, &st.EventStation, &st.SlotMinutes, &st.Occupied)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("station %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get station: %w", err)
	}
	return &st, nil
}

// UpsertStation creates or updates a station record.
func (s *Store) UpsertStation(ctx context.Context, st *models.Station) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO stations (id, name, kind, hourly_rate, single_rate, team_id,
		                      team_color, event_station, slot_minutes, occupied)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			hourly_rate = excluded.hourly_rate,
			single_rate = excluded.single_rate,
			team_id = excluded.team_id,
			team_color = excluded.team_color,
			event_station = excluded.event_station,
			slot_minutes = excluded.slot_minutes,
			occupied = excluded.occupied,
			updated_at = CURRENT_TIMESTAMP`,
		st.ID, st.Name, st.Kind, st.HourlyRate, st.SingleRate, st.TeamID,
		st.TeamColor, st.EventStation, st.SlotMinutes, st.Occupied)
	if err != nil {
		return fmt.Errorf("upsert station %s: %w", st.ID, err)
	}
	return nil
}

// UpsertStationOccupancy sets the durable occupancy flag for a station.
// Idempotent by id.
func (s *Store) UpsertStationOccupancy(ctx context.Context, id string, occupied bool) error {
	res, err := s.ExecContext(ctx, `
		UPDATE stations SET occupied = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		occupied, id)
	if err != nil {
		return fmt.Errorf("upsert occupancy %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert occupancy %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("station %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpsertSession durably writes a session record. Idempotent by session id.
func (s *Store) UpsertSession(ctx context.Context, session *models.Session) error {
	var endTime interface{}
	if session.EndTime != nil {
		endTime = session.EndTime.UTC()
	}

	_, err := s.ExecContext(ctx, `
		INSERT INTO sessions (id, station_id, customer_id, status, start_time, end_time,
		                      duration_minutes, applied_rate, original_rate, coupon_code,
		                      discount_amount, total_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			end_time = excluded.end_time,
			duration_minutes = excluded.duration_minutes,
			total_cost = excluded.total_cost`,
		session.ID, session.StationID, session.CustomerID, session.Status,
		session.StartTime.UTC(), endTime, session.DurationMinutes, session.AppliedRate,
		session.OriginalRate, session.CouponCode, session.DiscountAmount, session.TotalCost)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", session.ID, err)
	}
	return nil
}

// GetSession returns one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	var endTime sql.NullTime
	err := s.QueryRowContext(ctx, `
		SELECT id, station_id, customer_id, status, start_time, end_time,
		       duration_minutes, applied_rate, original_rate, coupon_code,
		       discount_amount, total_cost
		FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.StationID, &sess.CustomerID, &sess.Status, &sess.StartTime,
			&endTime, &sess.DurationMinutes, &sess.AppliedRate, &sess.OriginalRate,
			&sess.CouponCode, &sess.DiscountAmount, &sess.TotalCost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if endTime.Valid {
		t := endTime.Time
		sess.EndTime = &t
	}
	return &sess, nil
}

// ListActiveSessions returns sessions that have not been closed. Used at
// startup to reattach sessions to their stations.
func (s *Store) ListActiveSessions(ctx context.Context) ([]models.Session, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, station_id, customer_id, status, start_time, end_time,
		       duration_minutes, applied_rate, original_rate, coupon_code,
		       discount_amount, total_cost
		FROM sessions WHERE status = ?`, models.SessionActive)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		var endTime sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.StationID, &sess.CustomerID, &sess.Status, &sess.StartTime,
			&endTime, &sess.DurationMinutes, &sess.AppliedRate, &sess.OriginalRate,
			&sess.CouponCode, &sess.DiscountAmount, &sess.TotalCost); err != nil {
			return nil, fmt.Errorf("scan active session: %w", err)
		}
		if endTime.Valid {
			t := endTime.Time
			sess.EndTime = &t
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// InsertLineItem records a billing line item. The UNIQUE constraint on
// session_id makes retried inserts harmless.
func (s *Store) InsertLineItem(ctx context.Context, item *models.LineItem) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO line_items (session_id, station_id, station_name, customer_name,
		                        label, units, unit_rate, amount, member_discount,
		                        coupon_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING`,
		item.SessionID, item.StationID, item.StationName, item.CustomerName,
		item.Label, item.Units, item.UnitRate, item.Amount, item.MemberDiscount,
		item.CouponCode, item.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert line item %s: %w", item.SessionID, err)
	}
	return nil
}

// ListLineItemsByDay returns all line items created on the given calendar day.
func (s *Store) ListLineItemsByDay(ctx context.Context, day time.Time) ([]models.LineItem, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()).UTC()
	end := start.Add(24 * time.Hour)

	rows, err := s.QueryContext(ctx, `
		SELECT session_id, station_id, station_name, customer_name, label, units,
		       unit_rate, amount, member_discount, coupon_code, created_at
		FROM line_items
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		if err := rows.Scan(&item.SessionID, &item.StationID, &item.StationName,
			&item.CustomerName, &item.Label, &item.Units, &item.UnitRate, &item.Amount,
			&item.MemberDiscount, &item.CouponCode, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetCustomer returns one customer by id.
func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	err := s.QueryRowContext(ctx, `
		SELECT id, name, phone, member, total_play_minutes
		FROM customers WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Member, &c.TotalPlayMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// UpsertCustomer creates or updates a customer record.
func (s *Store) UpsertCustomer(ctx context.Context, c *models.Customer) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, member, total_play_minutes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			member = excluded.member,
			updated_at = CURRENT_TIMESTAMP`,
		c.ID, c.Name, c.Phone, c.Member, c.TotalPlayMinutes)
	if err != nil {
		return fmt.Errorf("upsert customer %s: %w", c.ID, err)
	}
	return nil
}

// IncrementPlayTime adds minutes to a customer's cumulative play-time counter.
func (s *Store) IncrementPlayTime(ctx context.Context, id string, minutes int) error {
	res, err := s.ExecContext(ctx, `
		UPDATE customers
		SET total_play_minutes = total_play_minutes + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, minutes, id)
	if err != nil {
		return fmt.Errorf("increment play time %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment play time %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}
