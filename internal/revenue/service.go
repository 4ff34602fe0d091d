// Package revenue turns recorded sales into monthly and yearly summaries.
package revenue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/inventory-tracker/internal/sales"
	pkgerrors "github.com/angelmondragon/inventory-tracker/pkg/errors"
	"github.com/angelmondragon/inventory-tracker/pkg/logger"
)

const (
	minYear = 1
	maxYear = 9999
)

// Summary aggregates the sales of one calendar month.
type Summary struct {
	Year              int             `json:"year"`
	Month             int             `json:"month"`
	MonthName         string          `json:"month_name"`
	TotalTransactions int64           `json:"total_transactions"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalItemsSold    int64           `json:"total_items_sold"`
}

// YearlyReport lists the months of a year that had sales, ascending, with
// totals across them.
type YearlyReport struct {
	Year              int             `json:"year"`
	Months            []Summary       `json:"months"`
	TotalTransactions int64           `json:"total_transactions"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalItemsSold    int64           `json:"total_items_sold"`
}

type totalsSource interface {
	MonthlyTotals(ctx context.Context, year, month int) (sales.Totals, error)
	YearlyBreakdown(ctx context.Context, year int) ([]sales.MonthTotals, error)
}

// Service is the read-only revenue aggregator.
type Service struct {
	source totalsSource
	logg   *logger.Logger
}

func NewService(source totalsSource, logg *logger.Logger) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("sales totals source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{source: source, logg: logg}, nil
}

// Monthly returns nil without error when the month has no sales.
func (s *Service) Monthly(ctx context.Context, year, month int) (*Summary, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "month must be between 1 and 12")
	}

	totals, err := s.source.MonthlyTotals(ctx, year, month)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "monthly revenue")
	}
	if totals.Transactions == 0 {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"year": year, "month": month}), "no sales for month")
		return nil, nil
	}
	summary := newSummary(year, month, totals)
	return &summary, nil
}

func (s *Service) Yearly(ctx context.Context, year int) (*YearlyReport, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}

	rows, err := s.source.YearlyBreakdown(ctx, year)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "yearly revenue")
	}

	report := &YearlyReport{
		Year:         year,
		Months:       make([]Summary, 0, len(rows)),
		TotalRevenue: decimal.Zero,
	}
	for _, row := range rows {
		if row.Transactions == 0 {
			continue
		}
		summary := newSummary(year, row.Month, row.Totals)
		report.Months = append(report.Months, summary)
		report.TotalTransactions += summary.TotalTransactions
		report.TotalItemsSold += summary.TotalItemsSold
		report.TotalRevenue = report.TotalRevenue.Add(summary.TotalRevenue)
	}
	report.TotalRevenue = report.TotalRevenue.Round(2)
	return report, nil
}

func newSummary(year, month int, totals sales.Totals) Summary {
	return Summary{
		Year:              year,
		Month:             month,
		MonthName:         MonthName(month),
		TotalTransactions: totals.Transactions,
		TotalRevenue:      totals.Revenue.Round(2),
		TotalItemsSold:    totals.ItemsSold,
	}
}

// MonthName renders a month number the way reports label it, e.g. MARCH.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return strings.ToUpper(time.Month(month).String())
}

func validateYear(year int) error {
	if year < minYear || year > maxYear {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("year must be between %d and %d", minYear, maxYear))
	}
	return nil
}
