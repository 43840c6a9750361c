// Package sheets mirrors closed-session line items into a Google Sheets
// ledger. Everything here is best-effort: a failed append is logged and
// retried on the next close, never blocking the engine.
package sheets

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"loungepos/internal/models"
)

// SheetsService appends billing rows to one spreadsheet tab.
type SheetsService struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *zerolog.Logger
}

// New builds a sheets client from service-account credentials.
func New(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zerolog.Logger) (*SheetsService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	if sheetName == "" {
		sheetName = "Ledger"
	}

	return &SheetsService{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

// AppendLineItem appends one billing row to the ledger tab.
func (s *SheetsService) AppendLineItem(ctx context.Context, item *models.LineItem) error {
	vr := &sheets.ValueRange{
		Values: [][]interface{}{lineItemRowValues(item)},
	}

	_, err := s.srv.Spreadsheets.Values.
		Append(s.spreadsheetID, s.sheetName, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", s.sheetName, err)
	}

	s.logger.Debug().Str("session_id", item.SessionID).Msg("line item synced to sheets")
	return nil
}

func lineItemRowValues(item *models.LineItem) []interface{} {
	member := ""
	if item.MemberDiscount {
		member = "member"
	}
	return []interface{}{
		item.CreatedAt.Format("2006-01-02 15:04:05"),
		item.SessionID,
		item.StationName,
		item.CustomerName,
		item.Units,
		item.UnitRate,
		item.Amount,
		member,
		item.CouponCode,
	}
}
