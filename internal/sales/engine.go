package sales

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go-retail-pos/internal/catalog"
	"go-retail-pos/internal/ledger"
	"go-retail-pos/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartLine is one caller-supplied (product, quantity) pair.
type CartLine struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Result reports a committed sale back to the caller.
type Result struct {
	SaleID        uint    `json:"sale_id"`
	InvoiceNumber string  `json:"invoice_number"`
	TotalAmount   float64 `json:"total_amount"`
	PointsEarned  int     `json:"points_earned"`
}

// Engine commits a cart into a Sale with its items, adjusting stock
// and customer loyalty as one unit of work.
type Engine struct {
	db      *gorm.DB
	catalog *catalog.Store
	ledger  *ledger.Ledger
}

func NewEngine(db *gorm.DB, store *catalog.Store, customers *ledger.Ledger) *Engine {
	return &Engine{db: db, catalog: store, ledger: customers}
}

// CompleteSale validates every cart line, then applies the whole
// mutation - stock decrements, the Sale header with its items, and the
// loyalty accrual - inside a single database transaction. Any failure
// rolls the whole thing back; no partial commit is possible.
//
// Prices come from the catalog, never from the caller, and are frozen
// onto each SaleItem so later price edits don't rewrite history.
func (e *Engine) CompleteSale(ctx context.Context, cart []CartLine, paymentMethod string, customerID *uint, cashierID uint) (*Result, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	var result Result

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			totalAmount float64
			saleItems   []models.SaleItem
			names       = make(map[uint]string, len(cart))
		)

		// Phase 1: validate every line before touching anything.
		for _, line := range cart {
			var product models.Product
			// Lock the row so the stock we check is the stock we
			// decrement (no-op on SQLite, row lock on server DBs).
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, line.ProductID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &UnknownProductError{ProductID: line.ProductID}
			}
			if err != nil {
				return err
			}
			if !product.IsActive {
				return &UnknownProductError{ProductID: line.ProductID}
			}
			if line.Quantity <= 0 {
				return &InvalidQuantityError{ProductID: line.ProductID, Quantity: line.Quantity}
			}
			if product.StockQuantity < line.Quantity {
				return &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.StockQuantity,
					Requested:   line.Quantity,
				}
			}

			lineTotal := product.Price * float64(line.Quantity)
			totalAmount += lineTotal
			names[product.ID] = product.Name

			saleItems = append(saleItems, models.SaleItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				Total:     lineTotal,
			})
		}

		// Phase 2: apply the stock decrements. The catalog's guarded
		// update re-checks the quantity, so even a writer that slipped
		// past the locked read cannot take stock negative.
		store := e.catalog.WithTx(tx)
		for _, line := range cart {
			if err := store.AdjustStock(ctx, line.ProductID, -line.Quantity); err != nil {
				var stockErr *catalog.InsufficientStockError
				if errors.As(err, &stockErr) {
					return &InsufficientStockError{
						ProductID:   stockErr.ProductID,
						ProductName: names[stockErr.ProductID],
						Available:   stockErr.Available,
						Requested:   stockErr.Requested,
					}
				}
				return err
			}
		}

		sale := models.Sale{
			InvoiceNumber: newInvoiceNumber(),
			TotalAmount:   totalAmount,
			PaymentMethod: paymentMethod,
			CashierID:     cashierID,
			CustomerID:    customerID,
			CreatedAt:     time.Now(),
			Items:         saleItems, // gorm inserts these with the header
		}
		if err := tx.Create(&sale).Error; err != nil {
			return fmt.Errorf("create sale record: %w", err)
		}

		// Loyalty accrual: one point per 10 spent. A customer id that
		// resolves to nothing is skipped, not an error - loyalty is
		// optional and the sale still completes.
		var pointsEarned int
		if customerID != nil {
			customers := e.ledger.WithTx(tx)
			if _, err := customers.GetByID(ctx, *customerID); err == nil {
				pointsEarned = int(math.Floor(totalAmount / 10))
				if err := customers.Accrue(ctx, *customerID, pointsEarned, totalAmount); err != nil {
					return fmt.Errorf("accrue loyalty: %w", err)
				}
			} else if !errors.Is(err, ledger.ErrCustomerNotFound) {
				return err
			}
		}

		result = Result{
			SaleID:        sale.ID,
			InvoiceNumber: sale.InvoiceNumber,
			TotalAmount:   totalAmount,
			PointsEarned:  pointsEarned,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// newInvoiceNumber allocates a unique, human-sortable invoice number.
func newInvoiceNumber() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("INV-%s-%s", time.Now().Format("20060102-150405"), suffix)
}
