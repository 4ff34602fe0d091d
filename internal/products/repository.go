package products

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-tracker/internal/repo"
	"github.com/angelmondragon/inventory-tracker/pkg/db/models"
)

// Repository persists products. Every list call runs a fresh query.
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

// Create inserts the product and fills in its store-assigned id.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID returns (nil, nil) when no product has the id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Take(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).Order("name ASC").Order("id ASC").Find(&products).Error
	return products, err
}

func (r *Repository) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Where("category = ?", category).
		Order("name ASC").Order("id ASC").
		Find(&products).Error
	return products, err
}

// SearchByName matches name case-insensitively; LIKE wildcards in term match literally.
func (r *Repository) SearchByName(ctx context.Context, term string) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, repo.ContainsPattern(term)).
		Order("name ASC").Order("id ASC").
		Find(&products).Error
	return products, err
}

// ListLowStock returns products at or below their threshold, emptiest first.
func (r *Repository) ListLowStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Where("quantity <= low_stock_threshold").
		Order("quantity ASC").Order("name ASC").
		Find(&products).Error
	return products, err
}

// Update replaces every mutable column of the product with the given id.
func (r *Repository) Update(ctx context.Context, product *models.Product) (bool, error) {
	now := time.Now().UTC()
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":                product.Name,
			"description":         product.Description,
			"category":            product.Category,
			"price":               product.Price,
			"quantity":            product.Quantity,
			"low_stock_threshold": product.LowStockThreshold,
			"updated_at":          now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	product.UpdatedAt = now
	return true, nil
}

func (r *Repository) UpdateQuantity(ctx context.Context, id int64, quantity int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeductQuantity decrements stock only while enough remains. It reports false
// when no row matched, either because the product is gone or because a
// concurrent sale already took the stock.
func (r *Repository) DeductQuantity(ctx context.Context, id int64, qty int) (bool, error) {
	res := r.DB(ctx).Exec(
		`UPDATE products SET quantity = quantity - ?, updated_at = ? WHERE id = ? AND quantity >= ?`,
		qty, time.Now().UTC(), id, qty,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RestoreQuantity returns stock to a product, e.g. when a sale is voided.
func (r *Repository) RestoreQuantity(ctx context.Context, id int64, qty int) (bool, error) {
	res := r.DB(ctx).Exec(
		`UPDATE products SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
		qty, time.Now().UTC(), id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
