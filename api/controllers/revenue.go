package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/inventory-tracker/api/responses"
	"github.com/angelmondragon/inventory-tracker/api/validators"
	"github.com/angelmondragon/inventory-tracker/internal/revenue"
	pkgerrors "github.com/angelmondragon/inventory-tracker/pkg/errors"
	"github.com/angelmondragon/inventory-tracker/pkg/logger"
)

// RevenueReporter produces month and year summaries from recorded sales.
type RevenueReporter interface {
	Monthly(ctx context.Context, year, month int) (*revenue.Summary, error)
	Yearly(ctx context.Context, year int) (*revenue.YearlyReport, error)
}

// RevenueMonthly handles GET /api/v1/revenue/monthly?year=&month=. A month
// without sales answers 404.
func RevenueMonthly(svc RevenueReporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "revenue service unavailable"))
			return
		}

		year, err := validators.RequireQueryInt(r, "year", 1, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		month, err := validators.RequireQueryInt(r, "month", 1, 12)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Monthly(r.Context(), year, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if summary == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(
				pkgerrors.CodeNotFound,
				fmt.Sprintf("no sales recorded for %s %d", revenue.MonthName(month), year),
			))
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// RevenueYearly handles GET /api/v1/revenue/yearly?year=.
func RevenueYearly(svc RevenueReporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "revenue service unavailable"))
			return
		}

		year, err := validators.RequireQueryInt(r, "year", 1, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Yearly(r.Context(), year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
