package catalog

import (
	"context"

	"go-retail-pos/internal/models"
)

// CreateProduct registers a new product.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	product.IsActive = true
	return s.db.WithContext(ctx).Create(product).Error
}

// UpdateProduct applies a partial update to a product. Stock changes
// must go through AdjustStock so the non-negative guard applies.
func (s *Store) UpdateProduct(ctx context.Context, id uint, fields map[string]interface{}) (*models.Product, error) {
	delete(fields, "stock_quantity")

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(product).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return product, nil
}

// DeactivateProduct soft-deactivates a product. Products are never
// deleted; past sales keep valid references.
func (s *Store) DeactivateProduct(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
