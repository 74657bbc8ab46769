package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/logging"
)

type analyticsService interface {
	Summary(ctx context.Context, userID uuid.UUID, year, month int) (*domain.Summary, error)
}

type AnalyticsHandler struct {
	analytics analyticsService
	now       func() time.Time
}

func NewAnalyticsHandler(analytics analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, now: time.Now}
}

// Summary serves the monthly rollup. Year and month default to the current
// UTC month when omitted.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var fields []FieldError
	year := queryInt(r, "year", &fields)
	month := queryInt(r, "month", &fields)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	now := h.now().UTC()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}

	summary, err := h.analytics.Summary(r.Context(), userID, year, month)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to build summary", "error", err, "year", year, "month", month)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, summary)
}
