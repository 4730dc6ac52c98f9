package sales

import (
	"errors"
	"fmt"
)

// ErrEmptyCart rejects a checkout with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// UnknownProductError names a cart line whose product does not exist
// or has been deactivated.
type UnknownProductError struct {
	ProductID uint
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown product %d", e.ProductID)
}

// InvalidQuantityError names a cart line with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID uint
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %d", e.Quantity, e.ProductID)
}

// InsufficientStockError names a cart line requesting more units than
// the catalog holds.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (product %d): have %d, need %d",
		e.ProductName, e.ProductID, e.Available, e.Requested)
}
