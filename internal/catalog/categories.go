package catalog

import (
	"context"
	"errors"

	"go-retail-pos/internal/models"
)

var ErrCategoryNotFound = errors.New("category not found")

// CreateCategory registers a new product category.
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	category.IsActive = true
	return s.db.WithContext(ctx).Create(category).Error
}

// ListCategories returns categories, optionally only active ones.
func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	q := s.db.WithContext(ctx).Model(&models.Category{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var categories []models.Category
	if err := q.Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// DeactivateCategory soft-deactivates a category. Its products keep
// their category_id reference.
func (s *Store) DeactivateCategory(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
