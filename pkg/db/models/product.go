package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a stocked item. Quantity never drops below zero.
type Product struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name              string          `gorm:"column:name;not null"`
	Description       *string         `gorm:"column:description"`
	Category          string          `gorm:"column:category;not null"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity          int             `gorm:"column:quantity;not null"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// IsLowStock reports whether stock is at or below the alert threshold.
func (p Product) IsLowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

func (p Product) IsOutOfStock() bool {
	return p.Quantity <= 0
}
