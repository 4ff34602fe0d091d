package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale records a completed sale. TotalAmount is fixed at the time of sale and
// ProductName is a snapshot that may go stale after a rename.
type Sale struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID    int64           `gorm:"column:product_id;not null;index"`
	ProductName  string          `gorm:"column:product_name;not null"`
	QuantitySold int             `gorm:"column:quantity_sold;not null"`
	TotalAmount  decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	SaleDate     time.Time       `gorm:"column:sale_date;not null;index"`
}

func (Sale) TableName() string { return "sales" }
