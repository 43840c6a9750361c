package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loungepos/internal/models"
)

type fakeWriter struct {
	sheets  []string
	headers []string
	rows    [][]interface{}
}

func (f *fakeWriter) AddSheet(name string) error {
	f.sheets = append(f.sheets, name)
	return nil
}

func (f *fakeWriter) WriteHeader(columns []string) error {
	f.headers = columns
	return nil
}

func (f *fakeWriter) WriteRow(row []interface{}) error {
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeWriter) WriteTo(w io.Writer) (int64, error) { return 0, nil }
func (f *fakeWriter) Close() error                       { return nil }

type stubLister struct {
	items []models.LineItem
	err   error
}

func (s *stubLister) ListLineItemsByDay(ctx context.Context, day time.Time) ([]models.LineItem, error) {
	return s.items, s.err
}

func TestDailyReport(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	items := []models.LineItem{
		{
			SessionID: "s1", StationName: "Pool 1", CustomerName: "Alex",
			Label: "Pool 1 / Alex", Units: 2, UnitRate: 300, Amount: 600,
			CreatedAt: day.Add(19 * time.Hour),
		},
		{
			SessionID: "s2", StationName: "VR 1", CustomerName: "Sam",
			Label: "VR 1 / Sam, member discount", Units: 3, UnitRate: 80,
			Amount: 120, MemberDiscount: true, CreatedAt: day.Add(20 * time.Hour),
		},
	}

	t.Run("RowsAndTotal", func(t *testing.T) {
		fw := &fakeWriter{}
		r := NewDailyReport(&stubLister{items: items}, func() ExcelWriter { return fw })

		var buf bytes.Buffer
		require.NoError(t, r.Write(context.Background(), day, &buf))

		assert.Equal(t, []string{"2026-03-01"}, fw.sheets)
		assert.Equal(t, reportColumns, fw.headers)
		// Two item rows plus the totals row.
		require.Len(t, fw.rows, 3)
		assert.Equal(t, "Pool 1", fw.rows[0][1])
		assert.Equal(t, "yes", fw.rows[1][7])
		assert.Equal(t, int64(720), fw.rows[2][6])
	})

	t.Run("EmptyDay", func(t *testing.T) {
		fw := &fakeWriter{}
		r := NewDailyReport(&stubLister{}, func() ExcelWriter { return fw })

		var buf bytes.Buffer
		require.NoError(t, r.Write(context.Background(), day, &buf))
		require.Len(t, fw.rows, 1)
		assert.Equal(t, int64(0), fw.rows[0][6])
	})

	t.Run("ListerError", func(t *testing.T) {
		r := NewDailyReport(&stubLister{err: errors.New("db down")}, func() ExcelWriter { return &fakeWriter{} })
		var buf bytes.Buffer
		assert.Error(t, r.Write(context.Background(), day, &buf))
	})

	t.Run("RealWorkbook", func(t *testing.T) {
		r := NewDailyReport(&stubLister{items: items}, nil)
		var buf bytes.Buffer
		require.NoError(t, r.Write(context.Background(), day, &buf))
		assert.NotZero(t, buf.Len())
	})
}
