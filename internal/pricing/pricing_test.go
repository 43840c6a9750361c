package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"loungepos/internal/models"
)

func TestQuoteRate(t *testing.T) {
	console := models.Station{ID: "a", Kind: models.KindConsole, TeamID: "red", HourlyRate: 150, SingleRate: 200}

	t.Run("TeamSingleUnit", func(t *testing.T) {
		assert.Equal(t, int64(200), QuoteRate(console, 1))
	})

	t.Run("TeamTwoUnits", func(t *testing.T) {
		assert.Equal(t, int64(150), QuoteRate(console, 2))
	})

	t.Run("SingleRateFallback", func(t *testing.T) {
		noSingle := console
		noSingle.SingleRate = 0
		assert.Equal(t, int64(150), QuoteRate(noSingle, 1))
	})

	t.Run("ConsoleWithoutTeam", func(t *testing.T) {
		solo := models.Station{Kind: models.KindConsole, HourlyRate: 150, SingleRate: 200}
		assert.Equal(t, int64(150), QuoteRate(solo, 1))
	})

	t.Run("OtherKindsAlwaysBase", func(t *testing.T) {
		pool := models.Station{Kind: models.KindBilliard, HourlyRate: 300, SingleRate: 400}
		assert.Equal(t, int64(300), QuoteRate(pool, 1))
		vr := models.Station{Kind: models.KindVR, HourlyRate: 100}
		assert.Equal(t, int64(100), QuoteRate(vr, 1))
	})
}

func TestSessionCost_Hourly(t *testing.T) {
	pool := models.Station{Kind: models.KindBilliard, HourlyRate: 150}
	session := models.Session{AppliedRate: 150}

	t.Run("WholeHours", func(t *testing.T) {
		assert.Equal(t, int64(300), SessionCost(pool, session, 120, false))
	})

	// Hourly billing rounds partial hours up to a full hour, so even a
	// one-minute session bills the full hourly rate.
	t.Run("PartialHourBillsFullHour", func(t *testing.T) {
		assert.Equal(t, int64(150), SessionCost(pool, session, 1, false))
		assert.Equal(t, int64(300), SessionCost(pool, session, 61, false))
	})

	t.Run("ZeroDurationBillsNothing", func(t *testing.T) {
		assert.Equal(t, int64(0), SessionCost(pool, session, 0, false))
	})

	t.Run("NegativeDurationClamped", func(t *testing.T) {
		assert.Equal(t, int64(0), SessionCost(pool, session, -5, false))
	})
}

func TestSessionCost_Slots(t *testing.T) {
	t.Run("EventSlotRounding", func(t *testing.T) {
		event := models.Station{Kind: models.KindConsole, EventStation: true, SlotMinutes: 30}
		session := models.Session{AppliedRate: 100}
		assert.Equal(t, int64(200), SessionCost(event, session, 31, false))
		assert.Equal(t, int64(100), SessionCost(event, session, 30, false))
	})

	t.Run("VRDefaultSlot", func(t *testing.T) {
		vr := models.Station{Kind: models.KindVR}
		session := models.Session{AppliedRate: 80}
		assert.Equal(t, int64(80), SessionCost(vr, session, 15, false))
		assert.Equal(t, int64(160), SessionCost(vr, session, 16, false))
	})

	t.Run("VRExplicitSlot", func(t *testing.T) {
		vr := models.Station{Kind: models.KindVR, SlotMinutes: 20}
		session := models.Session{AppliedRate: 80}
		assert.Equal(t, int64(160), SessionCost(vr, session, 21, false))
	})
}

func TestSessionCost_MemberDiscount(t *testing.T) {
	pool := models.Station{Kind: models.KindBilliard, HourlyRate: 150}

	t.Run("HalvesRoundedUp", func(t *testing.T) {
		session := models.Session{AppliedRate: 150}
		// 2 hours at 150 = 300, member pays 150.
		assert.Equal(t, int64(150), SessionCost(pool, session, 120, true))
		// 1 hour at 150 = 150, member pays ceil(75) = 75.
		assert.Equal(t, int64(75), SessionCost(pool, session, 60, true))
		// Odd amounts round up.
		odd := models.Session{AppliedRate: 151}
		assert.Equal(t, int64(76), SessionCost(pool, odd, 60, true))
	})

	t.Run("StacksOnCouponRate", func(t *testing.T) {
		// Coupon already reduced the applied rate 150 -> 100 at start;
		// membership still halves the computed cost.
		session := models.Session{AppliedRate: 100, OriginalRate: 150, CouponCode: "SUMMER10"}
		assert.Equal(t, int64(50), SessionCost(pool, session, 60, true))
	})

	t.Run("ZeroStaysZero", func(t *testing.T) {
		session := models.Session{AppliedRate: 150}
		assert.Equal(t, int64(0), SessionCost(pool, session, 0, true))
	})
}

func TestBillableUnits(t *testing.T) {
	tests := []struct {
		name     string
		station  models.Station
		minutes  int
		expected int
	}{
		{"HourlyExact", models.Station{Kind: models.KindBilliard}, 60, 1},
		{"HourlyRoundUp", models.Station{Kind: models.KindBilliard}, 61, 2},
		{"EventSlot", models.Station{EventStation: true, SlotMinutes: 30}, 31, 2},
		{"VRDefault", models.Station{Kind: models.KindVR}, 31, 3},
		{"Zero", models.Station{Kind: models.KindVR}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BillableUnits(tt.station, tt.minutes))
		})
	}
}
