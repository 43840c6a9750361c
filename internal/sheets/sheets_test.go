package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loungepos/internal/models"
)

func TestLineItemRowValues(t *testing.T) {
	created := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	item := &models.LineItem{
		SessionID:      "sess-1",
		StationName:    "PS5 #1",
		CustomerName:   "Alice",
		Units:          2,
		UnitRate:       150,
		Amount:         300,
		MemberDiscount: true,
		CouponCode:     "HALF",
		CreatedAt:      created,
	}

	row := lineItemRowValues(item)
	require.Len(t, row, 9)
	assert.Equal(t, "2026-03-01 14:30:00", row[0])
	assert.Equal(t, "sess-1", row[1])
	assert.Equal(t, "PS5 #1", row[2])
	assert.Equal(t, "Alice", row[3])
	assert.Equal(t, "member", row[7])
	assert.Equal(t, "HALF", row[8])
}

func TestLineItemRowValuesNonMember(t *testing.T) {
	row := lineItemRowValues(&models.LineItem{SessionID: "sess-2"})
	assert.Equal(t, "", row[7])
	assert.Equal(t, "", row[8])
}
