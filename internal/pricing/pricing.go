// Package pricing computes quotes and close-time costs for station sessions.
// Everything here is pure: no state, no I/O, integer currency in and out.
package pricing

import "loungepos/internal/models"

// DefaultVRSlotMinutes is the billing granularity for VR stations that carry
// no explicit slot duration.
const DefaultVRSlotMinutes = 15

// QuoteRate returns the live per-unit rate to show while a station is being
// selected. Team-priced consoles quote the single-unit rate when exactly one
// unit of the team is in the selection and the base rate once a second unit
// joins; every other kind always quotes the base rate.
func QuoteRate(station models.Station, selectedTeamSize int) int64 {
	if !station.IsTeamPriced() {
		return station.HourlyRate
	}
	if selectedTeamSize <= 1 && station.SingleRate > 0 {
		return station.SingleRate
	}
	return station.HourlyRate
}

// SessionCost computes the amount owed for one closed session. The rate is
// the session's applied rate captured at start; it is never recomputed from
// current station state, so a session's price stays stable even if the team
// selection changes later.
//
// Billing granularity:
//   - event stations with a slot duration bill ceil(duration/slot) slots;
//   - VR stations bill in slots too, defaulting to 15 minutes;
//   - everything else bills whole hours, rounded up. A 1-minute session
//     therefore bills a full hour; this mirrors the till's historical
//     behavior and is pending product confirmation.
//
// A zero-minute duration yields zero units and a zero charge.
// The membership discount halves the computed cost, rounded up, and stacks
// on top of any coupon reduction already baked into the applied rate.
func SessionCost(station models.Station, session models.Session, durationMinutes int, member bool) int64 {
	if durationMinutes < 0 {
		durationMinutes = 0
	}

	rate := session.AppliedRate
	units := BillableUnits(station, durationMinutes)
	cost := int64(units) * rate

	if member {
		cost = ceilHalf(cost)
	}
	if cost < 0 {
		cost = 0
	}
	return cost
}

// BillableUnits returns how many billing units (slots or hours) the duration
// spans for the given station.
func BillableUnits(station models.Station, durationMinutes int) int {
	switch {
	case station.EventStation && station.SlotMinutes > 0:
		return ceilDiv(durationMinutes, station.SlotMinutes)
	case station.Kind == models.KindVR:
		slot := station.SlotMinutes
		if slot <= 0 {
			slot = DefaultVRSlotMinutes
		}
		return ceilDiv(durationMinutes, slot)
	default:
		return ceilDiv(durationMinutes, 60)
	}
}

func ceilDiv(n, d int) int {
	if n <= 0 || d <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

func ceilHalf(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return (n + 1) / 2
}
