package sales

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-tracker/internal/repo"
	"github.com/angelmondragon/inventory-tracker/pkg/db/models"
)

// Totals is a database-computed aggregate over a set of sales.
type Totals struct {
	Transactions int64
	Revenue      decimal.Decimal
	ItemsSold    int64
}

// MonthTotals is one month of a yearly breakdown.
type MonthTotals struct {
	Month int
	Totals
}

// Filter narrows List queries. Zero fields are ignored; date bounds are inclusive.
type Filter struct {
	ProductID *int64
	Start     *time.Time
	End       *time.Time
}

// Repository persists sales and computes revenue aggregates in SQL.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(tx)}
}

// Create inserts the sale, stamping the current time when SaleDate is zero.
// Dates are stored in UTC.
func (r *Repository) Create(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now()
	}
	sale.SaleDate = sale.SaleDate.UTC()
	if err := r.DB(ctx).Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// FindByID returns (nil, nil) when no sale has the id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	if err := r.DB(ctx).Take(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

// List returns every sale, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Sale, error) {
	return r.Find(ctx, Filter{})
}

func (r *Repository) ListByProduct(ctx context.Context, productID int64) ([]models.Sale, error) {
	return r.Find(ctx, Filter{ProductID: &productID})
}

// ListByDateRange returns sales with start <= sale_date <= end, newest first.
func (r *Repository) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Sale, error) {
	return r.Find(ctx, Filter{Start: &start, End: &end})
}

// Find applies every set filter field, newest first with id as the tie-break.
func (r *Repository) Find(ctx context.Context, filter Filter) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.DB(ctx).
		Scopes(byProduct(filter.ProductID), saleDateFrom(filter.Start), saleDateUntil(filter.End)).
		Order("sale_date DESC").Order("id DESC").
		Find(&sales).Error
	return sales, err
}

func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.DB(ctx).Delete(&models.Sale{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Sale{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

const totalsSelect = "COUNT(*) AS transactions, " +
	"COALESCE(ROUND(SUM(total_amount), 2), 0) AS revenue, " +
	"COALESCE(SUM(quantity_sold), 0) AS items_sold"

// MonthlyTotals aggregates the sales of one calendar month (UTC).
func (r *Repository) MonthlyTotals(ctx context.Context, year, month int) (Totals, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	var totals Totals
	err := r.DB(ctx).
		Model(&models.Sale{}).
		Select(totalsSelect).
		Scopes(saleDateFrom(&start), saleDateUntil(&end)).
		Scan(&totals).Error
	if err != nil {
		return Totals{}, err
	}
	totals.Revenue = totals.Revenue.Round(2)
	return totals, nil
}

// YearlyBreakdown aggregates one calendar year (UTC) per month, ascending.
// Months without sales are omitted.
func (r *Repository) YearlyBreakdown(ctx context.Context, year int) ([]MonthTotals, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0).Add(-time.Nanosecond)

	var rows []MonthTotals
	err := r.DB(ctx).
		Model(&models.Sale{}).
		Select(r.MonthOf("sale_date") + " AS month, " + totalsSelect).
		Scopes(saleDateFrom(&start), saleDateUntil(&end)).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Revenue = rows[i].Revenue.Round(2)
	}
	return rows, nil
}

func byProduct(productID *int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if productID == nil {
			return db
		}
		return db.Where("product_id = ?", *productID)
	}
}

func saleDateFrom(start *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if start == nil {
			return db
		}
		return db.Where("sale_date >= ?", start.UTC())
	}
}

func saleDateUntil(end *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if end == nil {
			return db
		}
		return db.Where("sale_date <= ?", end.UTC())
	}
}
