package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-tracker/internal/products"
	"github.com/angelmondragon/inventory-tracker/pkg/db/models"
	"github.com/angelmondragon/inventory-tracker/pkg/enums"
	pkgerrors "github.com/angelmondragon/inventory-tracker/pkg/errors"
	"github.com/angelmondragon/inventory-tracker/pkg/logger"
)

// SaleRequest asks for Quantity units of a product. SaleDate defaults to now.
type SaleRequest struct {
	ProductID int64
	Quantity  int
	SaleDate  *time.Time
}

const tracerName = "github.com/angelmondragon/inventory-tracker/internal/sales"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type saleRecorder interface {
	ObserveSale(state enums.SaleState, duration time.Duration)
	IncFailure(code string)
	AddUnitsSold(qty int)
	AddLowStockAlerts(n int)
}

// Processor records sales and deducts stock in a single transaction.
type Processor struct {
	tx       txRunner
	products *products.Repository
	sales    *Repository
	logg     *logger.Logger
	metrics  saleRecorder
	tracer   trace.Tracer
	now      func() time.Time
}

// NewProcessor wires the sale processor. metrics may be nil.
func NewProcessor(tx txRunner, productRepo *products.Repository, saleRepo *Repository, logg *logger.Logger, metrics saleRecorder) (*Processor, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if saleRepo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Processor{
		tx:       tx,
		products: productRepo,
		sales:    saleRepo,
		logg:     logg,
		metrics:  metrics,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}, nil
}

// ProcessSale validates the request, then inside one transaction loads the
// product, records the sale and decrements stock with a conditional update.
// Any failure after the transaction opens rolls back both writes.
func (p *Processor) ProcessSale(ctx context.Context, req SaleRequest) (*SaleResult, error) {
	ctx, span := p.tracer.Start(ctx, "sales.ProcessSale", trace.WithAttributes(
		attribute.Int64("inventory.product_id", req.ProductID),
		attribute.Int("inventory.quantity", req.Quantity),
	))
	defer span.End()

	if err := validateRequest(req); err != nil {
		markFailed(span, enums.SaleStateIdle, err)
		return nil, err
	}

	ctx = p.logg.WithFields(ctx, map[string]any{
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	})
	started := p.now()
	state := enums.SaleStateIdle
	attemptCtx := p.logg.WithField(p.logg.WithEvent(ctx, enums.InventoryEventSaleAttempted.String()), "state", state.String())
	p.logg.Debug(attemptCtx, "sale attempted")

	var (
		sale    *models.Sale
		product *models.Product
	)
	state = enums.SaleStateInTransaction
	err := p.tx.WithTx(context.WithoutCancel(ctx), func(tx *gorm.DB) error {
		productRepo := p.products.WithTx(tx)
		saleRepo := p.sales.WithTx(tx)

		current, err := productRepo.FindByID(ctx, req.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load product")
		}
		if current == nil {
			return products.NotFoundError(req.ProductID)
		}
		if req.Quantity > current.Quantity {
			return insufficientStock(req.ProductID, req.Quantity, current.Quantity)
		}

		saleDate := p.now()
		if req.SaleDate != nil {
			saleDate = *req.SaleDate
		}
		total := current.Price.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2)
		if total.GreaterThanOrEqual(maxSaleTotal) {
			return totalTooLarge(req.ProductID, req.Quantity, total)
		}
		created, err := saleRepo.Create(ctx, &models.Sale{
			ProductID:    current.ID,
			ProductName:  current.Name,
			QuantitySold: req.Quantity,
			TotalAmount:  total,
			SaleDate:     saleDate,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "db: insert sale")
		}

		ok, err := productRepo.DeductQuantity(ctx, req.ProductID, req.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "db: deduct stock")
		}
		// Re-read inside the transaction: on success for the true remaining
		// quantity, on failure for the quantity a concurrent sale left behind.
		after, err := productRepo.FindByID(ctx, req.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "reload product")
		}
		if !ok {
			if after == nil {
				return products.NotFoundError(req.ProductID)
			}
			return insufficientStock(req.ProductID, req.Quantity, after.Quantity)
		}

		sale = created
		product = after
		return nil
	})
	if err != nil {
		state = enums.SaleStateRolledBack
		err = p.rolledBack(ctx, state, started, err)
		markFailed(span, state, err)
		return nil, err
	}
	state = enums.SaleStateCommitted
	span.SetAttributes(
		attribute.String("inventory.sale_state", state.String()),
		attribute.Int64("inventory.sale_id", sale.ID),
		attribute.Int("inventory.remaining_quantity", product.Quantity),
	)

	ctx = p.logg.WithSaleID(ctx, sale.ID)
	committedCtx := p.logg.WithFields(p.logg.WithEvent(ctx, enums.InventoryEventSaleCommitted.String()), map[string]any{
		"state":              state.String(),
		"total_amount":       sale.TotalAmount.StringFixed(2),
		"remaining_quantity": product.Quantity,
	})
	p.logg.Info(committedCtx, "sale committed")
	if p.metrics != nil {
		p.metrics.ObserveSale(state, p.now().Sub(started))
		p.metrics.AddUnitsSold(sale.QuantitySold)
	}

	lowStock := product.IsLowStock()
	if lowStock {
		lowCtx := p.logg.WithFields(p.logg.WithEvent(ctx, enums.InventoryEventSaleLowStock.String()), map[string]any{
			"product_name":        product.Name,
			"remaining_quantity":  product.Quantity,
			"low_stock_threshold": product.LowStockThreshold,
		})
		p.logg.Warn(lowCtx, "stock at or below threshold after sale")
		if p.metrics != nil {
			p.metrics.AddLowStockAlerts(1)
		}
	}

	return &SaleResult{
		Sale:              *NewSaleDTO(sale),
		RemainingQuantity: product.Quantity,
		LowStock:          lowStock,
	}, nil
}

func (p *Processor) rolledBack(ctx context.Context, state enums.SaleState, started time.Time, err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeStorage, err, "sale transaction")
	}

	ctx = p.logg.WithFields(p.logg.WithEvent(ctx, enums.InventoryEventSaleRolledBack.String()), map[string]any{
		"state": state.String(),
		"code":  string(typed.Code()),
	})
	if typed.Code() == pkgerrors.CodeStorage {
		p.logg.Error(ctx, "sale rolled back", typed)
	} else {
		p.logg.Warn(ctx, "sale rolled back")
	}
	if p.metrics != nil {
		p.metrics.IncFailure(string(typed.Code()))
		p.metrics.ObserveSale(state, p.now().Sub(started))
	}
	return typed
}

func markFailed(span trace.Span, state enums.SaleState, err error) {
	span.SetAttributes(
		attribute.String("inventory.sale_state", state.String()),
		attribute.String("inventory.error_code", string(pkgerrors.As(err).Code())),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func validateRequest(req SaleRequest) error {
	if req.ProductID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id must be positive")
	}
	if req.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if req.SaleDate != nil && req.SaleDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale_date must be a valid time")
	}
	return nil
}

// maxSaleTotal is the first value sales.total_amount NUMERIC(12,2) cannot hold.
var maxSaleTotal = decimal.New(1, 10)

func totalTooLarge(productID int64, quantity int, total decimal.Decimal) error {
	return pkgerrors.New(
		pkgerrors.CodeValidation,
		fmt.Sprintf("sale total %s exceeds the maximum of %s", total.StringFixed(2), maxSaleTotal.Sub(decimal.New(1, -2)).StringFixed(2)),
	).WithDetails(map[string]any{
		"product_id":   productID,
		"quantity":     quantity,
		"total_amount": total.StringFixed(2),
	})
}

func insufficientStock(productID int64, requested, available int) error {
	return pkgerrors.New(
		pkgerrors.CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", productID, requested, available),
	).WithDetails(map[string]any{
		"product_id": productID,
		"requested":  requested,
		"available":  available,
	})
}
