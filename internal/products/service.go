package products

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/inventory-tracker/pkg/db"
	"github.com/angelmondragon/inventory-tracker/pkg/db/models"
	"github.com/angelmondragon/inventory-tracker/pkg/enums"
	pkgerrors "github.com/angelmondragon/inventory-tracker/pkg/errors"
	"github.com/angelmondragon/inventory-tracker/pkg/logger"
)

const (
	maxNameLength     = 100
	maxCategoryLength = 50

	// DefaultLowStockThreshold applies when a caller does not pick one.
	DefaultLowStockThreshold = 10
)

var maxPrice = decimal.New(1, 10)

// Service exposes product administration and the inventory read side.
type Service interface {
	AddProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id int64) (*ProductDTO, error)
	ListProducts(ctx context.Context) ([]ProductDTO, error)
	ListByCategory(ctx context.Context, category string) ([]ProductDTO, error)
	SearchProducts(ctx context.Context, term string) ([]ProductDTO, error)
	ListLowStock(ctx context.Context) ([]ProductDTO, error)
	CheckLowStockAlerts(ctx context.Context) ([]ProductDTO, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) (*ProductDTO, error)
	UpdateQuantity(ctx context.Context, id int64, quantity int) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// ProductInput holds the full set of writable product fields.
type ProductInput struct {
	Name              string
	Description       *string
	Category          string
	Price             decimal.Decimal
	Quantity          int
	LowStockThreshold int
}

type saleCounter interface {
	CountByProduct(ctx context.Context, productID int64) (int64, error)
}

type alertRecorder interface {
	AddLowStockAlerts(n int)
}

type service struct {
	repo    *Repository
	sales   saleCounter
	logg    *logger.Logger
	metrics alertRecorder
}

// NewService constructs a product service instance.
func NewService(repo *Repository, sales saleCounter, logg *logger.Logger, metrics alertRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sale counter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		sales:   sales,
		logg:    logg,
		metrics: metrics,
	}, nil
}

func (s *service) AddProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:              input.Name,
		Description:       input.Description,
		Category:          input.Category,
		Price:             input.Price,
		Quantity:          input.Quantity,
		LowStockThreshold: input.LowStockThreshold,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "db: insert product")
	}

	ctx = s.logg.WithProductID(ctx, created.ID)
	s.logg.Info(ctx, "product added")
	return NewProductDTO(created), nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list products")
	}
	return newProductDTOs(list), nil
}

func (s *service) ListByCategory(ctx context.Context, category string) ([]ProductDTO, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	list, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list products by category")
	}
	return newProductDTOs(list), nil
}

func (s *service) SearchProducts(ctx context.Context, term string) ([]ProductDTO, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search term is required")
	}
	list, err := s.repo.SearchByName(ctx, term)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "search products")
	}
	return newProductDTOs(list), nil
}

func (s *service) ListLowStock(ctx context.Context) ([]ProductDTO, error) {
	list, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list low stock products")
	}
	return newProductDTOs(list), nil
}

// CheckLowStockAlerts logs one warning per low-stock product and returns them.
func (s *service) CheckLowStockAlerts(ctx context.Context) ([]ProductDTO, error) {
	low, err := s.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range low {
		entryCtx := s.logg.WithFields(ctx, map[string]any{
			"event":               enums.InventoryEventLowStockAlert.String(),
			"product_id":          p.ID,
			"product_name":        p.Name,
			"quantity":            p.Quantity,
			"low_stock_threshold": p.LowStockThreshold,
			"out_of_stock":        p.IsOutOfStock,
		})
		s.logg.Warn(entryCtx, "product stock at or below threshold")
	}
	if s.metrics != nil {
		s.metrics.AddLowStockAlerts(len(low))
	}
	return low, nil
}

// UpdateProduct replaces every writable field of an existing product.
func (s *service) UpdateProduct(ctx context.Context, id int64, input ProductInput) (*ProductDTO, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Name = input.Name
	product.Description = input.Description
	product.Category = input.Category
	product.Price = input.Price
	product.Quantity = input.Quantity
	product.LowStockThreshold = input.LowStockThreshold

	ok, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "db: update product")
	}
	if !ok {
		return nil, NotFoundError(id)
	}

	ctx = s.logg.WithProductID(ctx, id)
	s.logg.Info(ctx, "product updated")
	return NewProductDTO(product), nil
}

func (s *service) UpdateQuantity(ctx context.Context, id int64, quantity int) (*ProductDTO, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}

	ok, err := s.repo.UpdateQuantity(ctx, id, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "db: update quantity")
	}
	if !ok {
		return nil, NotFoundError(id)
	}

	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(s.logg.WithProductID(ctx, id), map[string]any{"quantity": quantity})
	s.logg.Info(ctx, "product quantity set")
	return NewProductDTO(product), nil
}

// DeleteProduct refuses to remove products that still have recorded sales so
// the sale history keeps a valid product reference.
func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	count, err := s.sales.CountByProduct(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "count product sales")
	}
	if count > 0 {
		return productHasSales(id, count)
	}

	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return productHasSales(id, count)
		}
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "db: delete product")
	}
	if !ok {
		return NotFoundError(id)
	}

	ctx = s.logg.WithProductID(ctx, id)
	s.logg.Info(ctx, "product deleted")
	return nil
}

func (s *service) load(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load product")
	}
	if product == nil {
		return nil, NotFoundError(id)
	}
	return product, nil
}

// NotFoundError reports a missing product with its id in the details.
func NotFoundError(id int64) error {
	return pkgerrors.New(pkgerrors.CodeProductNotFound, fmt.Sprintf("product %d not found", id)).
		WithDetails(map[string]any{"product_id": id})
}

func productHasSales(id, count int64) error {
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product %d has %d recorded sales", id, count)).
		WithDetails(map[string]any{"product_id": id, "sales": count})
}

func normalizeInput(input ProductInput) (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc == "" {
			input.Description = nil
		} else {
			input.Description = &desc
		}
	}

	switch {
	case input.Name == "":
		return input, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case utf8.RuneCountInString(input.Name) > maxNameLength:
		return input, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("name must be at most %d characters", maxNameLength))
	case input.Category == "":
		return input, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	case utf8.RuneCountInString(input.Category) > maxCategoryLength:
		return input, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("category must be at most %d characters", maxCategoryLength))
	case !input.Price.IsPositive():
		return input, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	case input.Price.Exponent() < -2 && !input.Price.Equal(input.Price.Round(2)):
		return input, pkgerrors.New(pkgerrors.CodeValidation, "price must have at most two decimal places")
	case input.Price.GreaterThanOrEqual(maxPrice):
		return input, pkgerrors.New(pkgerrors.CodeValidation, "price is too large")
	case input.Quantity < 0:
		return input, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	case input.LowStockThreshold < 0:
		return input, pkgerrors.New(pkgerrors.CodeValidation, "low_stock_threshold must be non-negative")
	}
	input.Price = input.Price.Round(2)
	return input, nil
}
