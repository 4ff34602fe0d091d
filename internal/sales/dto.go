package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/inventory-tracker/internal/products"
	"github.com/angelmondragon/inventory-tracker/pkg/db/models"
)

// SaleDTO is the sale payload returned to callers.
type SaleDTO struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	SaleDate     time.Time       `json:"sale_date"`
}

// NewSaleDTO builds a DTO from the persisted model. UnitPrice is derived from
// the recorded total so it reflects the price at the time of sale.
func NewSaleDTO(sale *models.Sale) *SaleDTO {
	unit := decimal.Zero
	if sale.QuantitySold > 0 {
		unit = sale.TotalAmount.Div(decimal.NewFromInt(int64(sale.QuantitySold))).Round(2)
	}
	return &SaleDTO{
		ID:           sale.ID,
		ProductID:    sale.ProductID,
		ProductName:  sale.ProductName,
		QuantitySold: sale.QuantitySold,
		UnitPrice:    unit,
		TotalAmount:  sale.TotalAmount.Round(2),
		SaleDate:     sale.SaleDate.UTC(),
	}
}

func newSaleDTOs(list []models.Sale) []SaleDTO {
	out := make([]SaleDTO, 0, len(list))
	for i := range list {
		out = append(out, *NewSaleDTO(&list[i]))
	}
	return out
}

// SaleResult is returned by a committed sale.
type SaleResult struct {
	Sale              SaleDTO `json:"sale"`
	RemainingQuantity int     `json:"remaining_quantity"`
	LowStock          bool    `json:"low_stock"`
}

// VoidResult describes a removed sale and the stock returned for it.
type VoidResult struct {
	Sale             SaleDTO              `json:"sale"`
	RestoredQuantity int                  `json:"restored_quantity"`
	Product          *products.ProductDTO `json:"product,omitempty"`
}
