package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-retail-pos/internal/models"

	"gorm.io/gorm"
)

// ErrProductNotFound is returned by lookups that resolve nothing.
var ErrProductNotFound = errors.New("product not found")

// InsufficientStockError rejects a stock adjustment that would drive
// the quantity negative.
type InsufficientStockError struct {
	ProductID uint
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: have %d, need %d",
		e.ProductID, e.Available, e.Requested)
}

// StockState filters a product listing by inventory level.
type StockState string

const (
	StockAny StockState = ""
	StockIn  StockState = "in_stock"
	StockLow StockState = "low_stock" // 0 < qty <= min_stock
	StockOut StockState = "out_of_stock"
)

// ListFilter narrows and pages a product listing.
type ListFilter struct {
	Search     string // name substring
	CategoryID uint
	Stock      StockState
	ActiveOnly bool
	Page       int // 1-based
	PerPage    int
}

// Store owns Product and Category records.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a Store bound to an open transaction, so the sale
// engine can compose stock adjustments into its own unit of work.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// GetByID fetches a product; ErrProductNotFound if absent.
func (s *Store) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByBarcode fetches a product by its scanned barcode.
func (s *Store) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Where("barcode = ?", barcode).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns products matching the filter, newest first, with the
// total count before paging.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	if filter.CategoryID != 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	switch filter.Stock {
	case StockIn:
		q = q.Where("stock_quantity > 0")
	case StockLow:
		q = q.Where("stock_quantity > 0 AND stock_quantity <= min_stock")
	case StockOut:
		q = q.Where("stock_quantity <= 0")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * filter.PerPage).Limit(filter.PerPage)
	}

	var products []models.Product
	if err := q.Preload("Category").Order("id desc").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// AdjustStock applies a stock delta (negative for a sale). The guard
// lives in the WHERE clause so a concurrent adjustment can never take
// the quantity below zero, whatever was read beforehand.
func (s *Store) AdjustStock(ctx context.Context, productID uint, delta int) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity + ? >= 0", productID, delta).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		product, err := s.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		return &InsufficientStockError{
			ProductID: productID,
			Available: product.StockQuantity,
			Requested: -delta,
		}
	}
	return nil
}
