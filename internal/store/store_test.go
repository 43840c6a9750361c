package store

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loungepos/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := zerolog.New(io.Discard)
	s, err := New(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := &models.Station{
		ID: "ps5-1", Name: "PS5 #1", Kind: models.KindConsole,
		HourlyRate: 150, SingleRate: 200, TeamID: "red", TeamColor: "#f00",
	}
	require.NoError(t, s.UpsertStation(ctx, st))

	t.Run("GetStation", func(t *testing.T) {
		got, err := s.GetStation(ctx, "ps5-1")
		require.NoError(t, err)
		assert.Equal(t, "PS5 #1", got.Name)
		assert.Equal(t, int64(200), got.SingleRate)
		assert.False(t, got.Occupied)
	})

	t.Run("GetUnknown", func(t *testing.T) {
		_, err := s.GetStation(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpsertIsIdempotent", func(t *testing.T) {
		st.Name = "PS5 One"
		require.NoError(t, s.UpsertStation(ctx, st))

		stations, err := s.ListStations(ctx)
		require.NoError(t, err)
		assert.Len(t, stations, 1)
		assert.Equal(t, "PS5 One", stations[0].Name)
	})

	t.Run("Occupancy", func(t *testing.T) {
		require.NoError(t, s.UpsertStationOccupancy(ctx, "ps5-1", true))
		got, err := s.GetStation(ctx, "ps5-1")
		require.NoError(t, err)
		assert.True(t, got.Occupied)

		// Setting the same value again is fine.
		require.NoError(t, s.UpsertStationOccupancy(ctx, "ps5-1", true))

		assert.ErrorIs(t, s.UpsertStationOccupancy(ctx, "nope", true), ErrNotFound)
	})
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	session := &models.Session{
		ID: "sess-1", StationID: "ps5-1", CustomerID: "cust-1",
		Status: models.SessionActive, StartTime: start,
		AppliedRate: 150, OriginalRate: 150,
	}

	require.NoError(t, s.UpsertSession(ctx, session))

	t.Run("RetryDoesNotDuplicate", func(t *testing.T) {
		require.NoError(t, s.UpsertSession(ctx, session))
		var count int
		require.NoError(t, s.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("CloseUpdatesInPlace", func(t *testing.T) {
		end := start.Add(90 * time.Minute)
		closed := *session
		closed.Status = models.SessionClosed
		closed.EndTime = &end
		closed.DurationMinutes = 90
		closed.TotalCost = 300
		require.NoError(t, s.UpsertSession(ctx, &closed))

		got, err := s.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, models.SessionClosed, got.Status)
		assert.Equal(t, 90, got.DurationMinutes)
		assert.Equal(t, int64(300), got.TotalCost)
		require.NotNil(t, got.EndTime)
	})

	t.Run("GetUnknown", func(t *testing.T) {
		_, err := s.GetSession(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListActiveSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	active := &models.Session{
		ID: "sess-active", StationID: "ps5-1", CustomerID: "cust-1",
		Status: models.SessionActive, StartTime: start,
		AppliedRate: 150, OriginalRate: 150,
	}
	require.NoError(t, s.UpsertSession(ctx, active))

	end := start.Add(time.Hour)
	closed := &models.Session{
		ID: "sess-closed", StationID: "pool-1", CustomerID: "cust-2",
		Status: models.SessionClosed, StartTime: start, EndTime: &end,
		DurationMinutes: 60, AppliedRate: 300, OriginalRate: 300, TotalCost: 300,
	}
	require.NoError(t, s.UpsertSession(ctx, closed))

	got, err := s.ListActiveSessions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sess-active", got[0].ID)
	assert.Equal(t, "ps5-1", got[0].StationID)
	assert.Nil(t, got[0].EndTime)

	t.Run("NoneActive", func(t *testing.T) {
		finished := *active
		finished.Status = models.SessionClosed
		finished.EndTime = &end
		require.NoError(t, s.UpsertSession(ctx, &finished))

		got, err := s.ListActiveSessions(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestCustomers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &models.Customer{ID: "cust-1", Name: "Alex", Member: true}
	require.NoError(t, s.UpsertCustomer(ctx, c))

	t.Run("Get", func(t *testing.T) {
		got, err := s.GetCustomer(ctx, "cust-1")
		require.NoError(t, err)
		assert.Equal(t, "Alex", got.Name)
		assert.True(t, got.Member)
	})

	t.Run("IncrementPlayTime", func(t *testing.T) {
		require.NoError(t, s.IncrementPlayTime(ctx, "cust-1", 90))
		require.NoError(t, s.IncrementPlayTime(ctx, "cust-1", 30))

		got, err := s.GetCustomer(ctx, "cust-1")
		require.NoError(t, err)
		assert.Equal(t, int64(120), got.TotalPlayMinutes)
	})

	t.Run("IncrementUnknown", func(t *testing.T) {
		err := s.IncrementPlayTime(ctx, "nope", 10)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestLineItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	item := &models.LineItem{
		SessionID: "sess-1", StationID: "ps5-1", StationName: "PS5 #1",
		CustomerName: "Alex", Label: "PS5 #1 / Alex", Units: 2, UnitRate: 150,
		Amount: 300, CreatedAt: day.Add(19 * time.Hour),
	}
	require.NoError(t, s.InsertLineItem(ctx, item))

	t.Run("RetryIsHarmless", func(t *testing.T) {
		require.NoError(t, s.InsertLineItem(ctx, item))
		items, err := s.ListLineItemsByDay(ctx, day)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("DayBoundary", func(t *testing.T) {
		nextDay := &models.LineItem{
			SessionID: "sess-2", StationID: "ps5-1", StationName: "PS5 #1",
			CustomerName: "Sam", Label: "PS5 #1 / Sam", Units: 1, UnitRate: 150,
			Amount: 150, CreatedAt: day.Add(25 * time.Hour),
		}
		require.NoError(t, s.InsertLineItem(ctx, nextDay))

		items, err := s.ListLineItemsByDay(ctx, day)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "sess-1", items[0].SessionID)

		items, err = s.ListLineItemsByDay(ctx, day.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "sess-2", items[0].SessionID)
	})
}
