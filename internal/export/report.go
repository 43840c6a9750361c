package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"loungepos/internal/models"
)

// LineItemLister provides the line items billed on a calendar day.
type LineItemLister interface {
	ListLineItemsByDay(ctx context.Context, day time.Time) ([]models.LineItem, error)
}

var reportColumns = []string{
	"Time", "Station", "Customer", "Label", "Units", "Rate", "Amount", "Member", "Coupon",
}

// DailyReport writes an xlsx report of everything billed on the given day.
type DailyReport struct {
	items     LineItemLister
	newWriter func() ExcelWriter
}

// NewDailyReport creates a report service backed by the given line-item
// source. A nil writerFactory uses the excelize implementation.
func NewDailyReport(items LineItemLister, writerFactory func() ExcelWriter) *DailyReport {
	if writerFactory == nil {
		writerFactory = NewExcelizeWriter
	}
	return &DailyReport{items: items, newWriter: writerFactory}
}

// Write renders the report for the day to out.
func (r *DailyReport) Write(ctx context.Context, day time.Time, out io.Writer) error {
	items, err := r.items.ListLineItemsByDay(ctx, day)
	if err != nil {
		return fmt.Errorf("daily report: %w", err)
	}

	w := r.newWriter()
	defer w.Close()

	if err := w.AddSheet(day.Format("2006-01-02")); err != nil {
		return err
	}
	if err := w.WriteHeader(reportColumns); err != nil {
		return err
	}

	var total int64
	for _, item := range items {
		member := ""
		if item.MemberDiscount {
			member = "yes"
		}
		row := []interface{}{
			item.CreatedAt.Format("15:04"),
			item.StationName,
			item.CustomerName,
			item.Label,
			item.Units,
			item.UnitRate,
			item.Amount,
			member,
			item.CouponCode,
		}
		if err := w.WriteRow(row); err != nil {
			return err
		}
		total += item.Amount
	}

	if err := w.WriteRow([]interface{}{"", "", "", "Total", "", "", total, "", ""}); err != nil {
		return err
	}

	if _, err := w.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
