// Package models defines the domain entities shared across the lounge engine.
package models

import "time"

// Station kinds. The kind decides which billing formula applies at close.
const (
	KindConsole  = "ps5"   // team-priced console seat, hourly billing
	KindBilliard = "8ball" // pool table, hourly billing
	KindVR       = "vr"    // VR seat, billed in 15-minute slots by default
)

// Session statuses.
const (
	SessionActive = "active"
	SessionClosed = "closed"
)

// Station is a bookable physical resource: a console seat, a pool table,
// a VR unit.
type Station struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	HourlyRate   int64  `json:"hourly_rate"`
	SingleRate   int64  `json:"single_rate,omitempty"` // used when exactly one unit of a team is selected
	TeamID       string `json:"team_id,omitempty"`
	TeamColor    string `json:"team_color,omitempty"`
	EventStation bool   `json:"event_station,omitempty"`
	SlotMinutes  int    `json:"slot_minutes,omitempty"` // overrides the default billing granularity

	Occupied       bool     `json:"occupied"`
	CurrentSession *Session `json:"current_session,omitempty"`
}

// Session is one occupancy period of a station by a customer. It is created
// by start, mutated exactly once by close and never again.
type Session struct {
	ID              string     `json:"id"`
	StationID       string     `json:"station_id"`
	CustomerID      string     `json:"customer_id"`
	Status          string     `json:"status"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	AppliedRate     int64      `json:"applied_rate"`
	OriginalRate    int64      `json:"original_rate"`
	CouponCode      string     `json:"coupon_code,omitempty"`
	DiscountAmount  int64      `json:"discount_amount,omitempty"`
	TotalCost       int64      `json:"total_cost,omitempty"`
}

// Customer is referenced by sessions, never owned by the engine. Member
// customers get a flat 50% reduction at close.
type Customer struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Phone            string `json:"phone,omitempty"`
	Member           bool   `json:"member"`
	TotalPlayMinutes int64  `json:"total_play_minutes"`
}

// LineItem is the billable record produced when a session closes. It carries
// everything the cashier needs for auditability: who played where, for how
// many units, at what rate, and which discounts applied.
type LineItem struct {
	SessionID      string    `json:"session_id"`
	StationID      string    `json:"station_id"`
	StationName    string    `json:"station_name"`
	CustomerName   string    `json:"customer_name"`
	Label          string    `json:"label"`
	Units          int       `json:"units"`
	UnitRate       int64     `json:"unit_rate"`
	Amount         int64     `json:"amount"`
	MemberDiscount bool      `json:"member_discount,omitempty"`
	CouponCode     string    `json:"coupon_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Closed reports whether the session has been finalized.
func (s *Session) Closed() bool {
	return s.EndTime != nil
}

// IsTeamPriced reports whether the station participates in team-grouped
// dynamic pricing.
func (st *Station) IsTeamPriced() bool {
	return st.Kind == KindConsole && st.TeamID != ""
}
