package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"loungepos/internal/metrics"
)

// handleDailyReport streams the xlsx billing report for one day.
// GET /api/v1/reports/daily?date=YYYY-MM-DD
func (s *HTTPServer) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("daily_report")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.reports == nil {
		writeError(w, http.StatusNotImplemented, "reports disabled")
		return
	}

	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	var buf bytes.Buffer
	if err := s.reports.Write(r.Context(), day, &buf); err != nil {
		s.log.Error().Err(err).Str("date", day.Format("2006-01-02")).Msg("failed to build daily report")
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	filename := fmt.Sprintf("billing-%s.xlsx", day.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
