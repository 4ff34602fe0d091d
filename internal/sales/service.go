package sales

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-tracker/internal/products"
	"github.com/angelmondragon/inventory-tracker/pkg/enums"
	pkgerrors "github.com/angelmondragon/inventory-tracker/pkg/errors"
	"github.com/angelmondragon/inventory-tracker/pkg/logger"
)

// Service exposes the sale history and the void operation.
type Service interface {
	GetSale(ctx context.Context, id int64) (*SaleDTO, error)
	ListSales(ctx context.Context, filter Filter) ([]SaleDTO, error)
	VoidSale(ctx context.Context, id int64) (*VoidResult, error)
}

type service struct {
	tx       txRunner
	repo     *Repository
	products *products.Repository
	logg     *logger.Logger
}

// NewService constructs a sale service instance.
func NewService(tx txRunner, repo *Repository, productRepo *products.Repository, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, products: productRepo, logg: logg}, nil
}

func (s *service) GetSale(ctx context.Context, id int64) (*SaleDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id must be positive")
	}
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load sale")
	}
	if sale == nil {
		return nil, saleNotFound(id)
	}
	return NewSaleDTO(sale), nil
}

func (s *service) ListSales(ctx context.Context, filter Filter) ([]SaleDTO, error) {
	if filter.ProductID != nil && *filter.ProductID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id must be positive")
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end must not be before start")
	}
	list, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list sales")
	}
	return newSaleDTOs(list), nil
}

// VoidSale deletes a sale and, when its product still exists, returns the
// sold units to stock in the same transaction.
func (s *service) VoidSale(ctx context.Context, id int64) (*VoidResult, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id must be positive")
	}

	var result *VoidResult
	err := s.tx.WithTx(context.WithoutCancel(ctx), func(tx *gorm.DB) error {
		saleRepo := s.repo.WithTx(tx)
		productRepo := s.products.WithTx(tx)

		sale, err := saleRepo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load sale")
		}
		if sale == nil {
			return saleNotFound(id)
		}

		ok, err := saleRepo.Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "db: delete sale")
		}
		if !ok {
			return saleNotFound(id)
		}

		result = &VoidResult{Sale: *NewSaleDTO(sale)}
		restored, err := productRepo.RestoreQuantity(ctx, sale.ProductID, sale.QuantitySold)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "db: restore stock")
		}
		if !restored {
			return nil
		}
		result.RestoredQuantity = sale.QuantitySold

		product, err := productRepo.FindByID(ctx, sale.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "reload product")
		}
		if product != nil {
			result.Product = products.NewProductDTO(product)
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "void sale")
	}

	ctx = s.logg.WithFields(s.logg.WithSaleID(ctx, id), map[string]any{
		"event":             enums.InventoryEventSaleVoided.String(),
		"product_id":        result.Sale.ProductID,
		"restored_quantity": result.RestoredQuantity,
	})
	s.logg.Info(ctx, "sale voided")
	return result, nil
}

// ParseDateBound parses an RFC 3339 timestamp or a YYYY-MM-DD date. A bare
// end date covers the whole day.
func ParseDateBound(value string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid date %q", value))
	}
	if end {
		return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return day, nil
}

func saleNotFound(id int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("sale %d not found", id)).
		WithDetails(map[string]any{"sale_id": id})
}
