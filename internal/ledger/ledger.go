package ledger

import (
	"context"
	"errors"
	"strings"

	"go-retail-pos/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrDuplicateContact rejects a create that reuses a phone or email.
	ErrDuplicateContact = errors.New("phone or email already registered")
	// ErrNegativeAccrual rejects accruals that would decrease the ledger.
	ErrNegativeAccrual = errors.New("accrual must not be negative")
)

// ListFilter narrows a customer listing.
type ListFilter struct {
	Search       string // name or phone substring
	CustomerType string
	ActiveOnly   bool
}

// Ledger owns Customer records and their loyalty accrual.
type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a Ledger bound to an open transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// Create registers a customer, enforcing phone/email uniqueness.
func (l *Ledger) Create(ctx context.Context, customer *models.Customer) error {
	q := l.db.WithContext(ctx).Model(&models.Customer{}).
		Where("phone = ?", customer.Phone)
	if customer.Email != nil {
		q = q.Or("email = ?", *customer.Email)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateContact
	}

	customer.IsActive = true
	return l.db.WithContext(ctx).Create(customer).Error
}

// GetByID fetches a customer; ErrCustomerNotFound if absent.
func (l *Ledger) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := l.db.WithContext(ctx).First(&customer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetByPhone fetches a customer by their unique phone number.
func (l *Ledger) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return l.getBy(ctx, "phone = ?", phone)
}

// GetByEmail fetches a customer by their unique email.
func (l *Ledger) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return l.getBy(ctx, "email = ?", email)
}

func (l *Ledger) getBy(ctx context.Context, cond string, value string) (*models.Customer, error) {
	var customer models.Customer
	err := l.db.WithContext(ctx).Where(cond, value).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// Accrue adds loyalty points and purchase total to a customer record.
// Additive only: both fields are monotonically non-decreasing.
func (l *Ledger) Accrue(ctx context.Context, customerID uint, points int, amount float64) error {
	if points < 0 || amount < 0 {
		return ErrNegativeAccrual
	}
	res := l.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", customerID).
		UpdateColumns(map[string]interface{}{
			"loyalty_points":  gorm.Expr("loyalty_points + ?", points),
			"total_purchases": gorm.Expr("total_purchases + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// List returns customers matching the filter, newest first.
func (l *Ledger) List(ctx context.Context, filter ListFilter) ([]models.Customer, error) {
	q := l.db.WithContext(ctx).Model(&models.Customer{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR phone LIKE ?", like, like)
	}
	if filter.CustomerType != "" {
		q = q.Where("customer_type = ?", filter.CustomerType)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var customers []models.Customer
	if err := q.Order("id desc").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
